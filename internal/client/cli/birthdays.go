package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/hbd/internal/client/models"
)

// formatDate shows dates without a known year as MM-DD.
func formatDate(date string) string {
	if strings.HasPrefix(date, models.UnknownYear+"-") {
		return date[len(models.UnknownYear)+1:] + " (year unknown)"
	}
	return date
}

func formatBirthday(b models.Birthday) string {
	return fmt.Sprintf("[%s] %s, %s", b.ID, b.Name, formatDate(b.Date))
}

// List prints the birthdays in their stored order and marks a pending
// selection.
func (a *App) List(ctx context.Context) error {
	if !a.requireLogin(ctx) {
		return nil
	}
	items := a.list.Items()
	if len(items) == 0 {
		printlnFn("No birthdays yet. Use 'add' to create one.")
		return nil
	}
	for _, b := range items {
		line := formatBirthday(b)
		switch {
		case a.view.editing != nil && a.view.editing.ID == b.ID:
			line += "  (editing)"
		case a.view.pendingDelete == b.ID:
			line += "  (pending delete)"
		}
		printlnFn(line)
	}
	return nil
}

// Add prompts for name and date and creates the record.
func (a *App) Add(ctx context.Context) error {
	if !a.requireLogin(ctx) {
		return nil
	}
	name, err := getSimpleText(a.reader, "Name", a.out)
	if err != nil {
		return err
	}
	date, err := getSimpleText(a.reader, "Date (YYYY-MM-DD, year 0000 if unknown)", a.out)
	if err != nil {
		return err
	}

	b, err := a.list.Add(ctx, name, date)
	if err != nil {
		a.report(ctx, "add birthday", err)
		return err
	}
	printlnFn("Added " + formatBirthday(b))
	return nil
}

// Edit selects the record with id and asks for its new values.
func (a *App) Edit(ctx context.Context, id string) error {
	if !a.requireLogin(ctx) {
		return nil
	}
	b, ok := a.list.Get(id)
	if !ok {
		printlnFn("No birthday with id " + id + ".")
		return nil
	}
	a.view.startEdit(b)
	return a.Save(ctx)
}

// Save submits the record selected with edit. On failure it stays selected
// so save can be retried.
func (a *App) Save(ctx context.Context) error {
	if !a.requireLogin(ctx) {
		return nil
	}
	cur := a.view.editing
	if cur == nil {
		printlnFn("Nothing to save. Use 'edit <id>' first.")
		return nil
	}

	name, err := getTextDefault(a.reader, "Name", cur.Name, a.out)
	if err != nil {
		return err
	}
	date, err := getTextDefault(a.reader, "Date (YYYY-MM-DD, year 0000 if unknown)", cur.Date, a.out)
	if err != nil {
		return err
	}

	b, err := a.list.Update(ctx, cur.ID, name, date)
	if err != nil {
		a.report(ctx, "update birthday", err)
		printlnFn("Type 'save' to retry or 'cancel'.")
		return err
	}
	a.view.reset()
	printlnFn("Saved " + formatBirthday(b))
	return nil
}

// Delete marks the record with id for deletion; confirm carries it out.
func (a *App) Delete(ctx context.Context, id string) error {
	if !a.requireLogin(ctx) {
		return nil
	}
	b, ok := a.list.Get(id)
	if !ok {
		printlnFn("No birthday with id " + id + ".")
		return nil
	}
	a.view.markDelete(id)
	printlnFn("Delete " + formatBirthday(b) + "? Type 'confirm' or 'cancel'.")
	return nil
}

// Confirm carries out the pending birthday or account deletion. A failed
// deletion drops the confirmation.
func (a *App) Confirm(ctx context.Context) error {
	if !a.requireLogin(ctx) {
		return nil
	}
	switch {
	case a.view.pendingAccount:
		return a.confirmAccountDelete(ctx)
	case a.view.pendingDelete != "":
		id := a.view.pendingDelete
		a.view.reset()
		if err := a.list.Remove(ctx, id); err != nil {
			a.report(ctx, "delete birthday", err)
			return err
		}
		printlnFn("Deleted.")
		return nil
	default:
		printlnFn("Nothing to confirm.")
		return nil
	}
}

// Cancel drops any pending edit or deletion.
func (a *App) Cancel(context.Context) error {
	if a.view.idle() {
		printlnFn("Nothing to cancel.")
		return nil
	}
	a.view.reset()
	printlnFn("Cancelled.")
	return nil
}
