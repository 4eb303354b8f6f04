// Package birthdays keeps the ordered list of the current user's birthdays
// in sync with the backend.
//
// The list changes only after the backend confirms a mutation, so a failed
// request never leaves a half-applied local state. Updates and removals find
// their record by id when the answer arrives, never by position. Identical
// requests issued while one is in flight are collapsed into one call.
//
// Every confirmed change is also written to the local birthdays table so the
// list can be shown offline with LoadCached.
package birthdays
