// Package cli provides the interactive hbd command-line client.
//
// It wires configuration, local storage, the API client and the application
// services behind a small REPL. Typical flow: restore the previous session
// (falling back to cached data when the server is down), start a background
// connectivity watcher, and execute user commands until exit.
//
// Key features:
//   - Register / Login / Logout, account settings and deletion
//   - List / Add / Edit / Delete birthdays, with confirmation before deletes
//   - Reload from the server and trigger a reminder check
//   - Offline mode showing cached data while the server is unreachable
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App, StartOnlineStatusWatcher and runREPL for details.
package cli
