package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool

	Register(ctx context.Context) error
	Login(ctx context.Context) error
	GenKey(ctx context.Context) error

	List(ctx context.Context) error
	Add(ctx context.Context) error
	Edit(ctx context.Context, id string) error
	Save(ctx context.Context) error
	Delete(ctx context.Context, id string) error
	Confirm(ctx context.Context) error
	Cancel(ctx context.Context) error
	Reload(ctx context.Context) error

	Profile(ctx context.Context) error
	Settings(ctx context.Context) error
	Check(ctx context.Context) error
	DeleteAccount(ctx context.Context) error
	Logout(ctx context.Context) error
}

const (
	helpAnonymous = "Available commands: register, login, genkey, help, exit"
	helpLoggedIn  = "Available commands: (l)ist, add, edit <id>, save, delete <id>, confirm, cancel, " +
		"reload, profile, settings, check, delete-account, logout, help, exit"
)

// runREPL starts a simple read-eval-print loop for the hbd CLI.
//
// It reads a line from in, parses the first token as the command, and
// dispatches to methods on 'a'. Unknown commands are reported back to the
// user. The loop exits on EOF or when the user types "exit" or "quit".
//
// Prompt & Commands
//
// The prompt shows the current status (from statusFn) and accepts commands:
//
//	Not logged in:
//	  - help             show available commands
//	  - register         create an account
//	  - login            authenticate
//	  - genkey           print a fresh encryption key
//	  - exit | quit      leave the program
//
//	Logged in:
//	  - list | l         list birthdays
//	  - add              add a birthday
//	  - edit <id>        select a birthday and change it
//	  - save             retry the pending edit
//	  - delete <id>      mark a birthday for deletion
//	  - confirm          carry out the pending deletion
//	  - cancel           drop the pending edit or deletion
//	  - reload           refresh profile and birthdays from the server
//	  - profile          show notification settings
//	  - settings         change notification settings
//	  - check            ask the server to send due reminders now
//	  - delete-account   delete the account (asks for confirm)
//	  - logout           log out
//
// Protected commands check the session themselves and fall back to the
// login flow. Handler errors are ignored here; handlers report their own
// errors. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, in *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("hbd (%s)> ", statusFn()))

		line, err := in.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpLoggedIn)
			} else {
				printlnFn(helpAnonymous)
			}

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "genkey":
			_ = a.GenKey(ctx)

		case "l", "list":
			_ = a.List(ctx)

		case "add":
			_ = a.Add(ctx)

		case "edit":
			if len(args) == 0 {
				printlnFn("Usage: edit <id>")
				continue
			}
			_ = a.Edit(ctx, args[0])

		case "save":
			_ = a.Save(ctx)

		case "delete":
			if len(args) == 0 {
				printlnFn("Usage: delete <id>")
				continue
			}
			_ = a.Delete(ctx, args[0])

		case "confirm":
			_ = a.Confirm(ctx)

		case "cancel":
			_ = a.Cancel(ctx)

		case "reload":
			_ = a.Reload(ctx)

		case "profile":
			_ = a.Profile(ctx)

		case "settings":
			_ = a.Settings(ctx)

		case "check":
			_ = a.Check(ctx)

		case "delete-account":
			_ = a.DeleteAccount(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			return
		}
	}
}
