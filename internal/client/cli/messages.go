package cli

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrijs2005/hbd/internal/client/birthdays"
	"github.com/dmitrijs2005/hbd/internal/client/client"
	"github.com/dmitrijs2005/hbd/internal/client/models"
	"github.com/dmitrijs2005/hbd/internal/client/services"
	"github.com/dmitrijs2005/hbd/internal/client/session"
)

var validationErrors = []error{
	models.ErrEmptyEmail,
	models.ErrInvalidEmail,
	models.ErrEmptyCredential,
	models.ErrInvalidKey,
	models.ErrEmptyName,
	models.ErrEmptyDate,
	models.ErrInvalidDate,
	models.ErrInvalidReminderTime,
	models.ErrInvalidTimezone,
	models.ErrEmptyTelegramAPIKey,
	models.ErrEmptyTelegramUserID,
}

// userMessage turns err into a short line for the user. Details stay in the
// log.
func userMessage(err error) string {
	for _, v := range validationErrors {
		if errors.Is(err, v) {
			return "Invalid input: " + v.Error() + "."
		}
	}

	switch {
	case errors.Is(err, session.ErrNotAuthenticated):
		return "Please log in first."
	case errors.Is(err, birthdays.ErrNotFound):
		return "No birthday with that id."
	case errors.Is(err, services.ErrOffline), errors.Is(err, client.ErrUnavailable):
		return "Server unavailable, try again later."
	case errors.Is(err, client.ErrUnauthorized):
		return "Invalid credentials or session expired."
	case errors.Is(err, client.ErrRateLimited):
		return "Too many requests, please wait a moment."
	case errors.Is(err, client.ErrRejected):
		return "Request rejected: " + rejectionReason(err)
	case errors.Is(err, client.ErrInvalidResponse):
		return "Unexpected answer from the server."
	default:
		return "Error: " + err.Error()
	}
}

// rejectionReason keeps the server's part of a wrapped ErrRejected.
func rejectionReason(err error) string {
	msg := err.Error()
	if i := strings.LastIndex(msg, client.ErrRejected.Error()+": "); i >= 0 {
		return msg[i+len(client.ErrRejected.Error())+2:]
	}
	return msg
}

// report logs err for op and tells the user what went wrong. Losing the
// connection also switches the app to offline mode.
func (a *App) report(ctx context.Context, op string, err error) {
	a.log.Warn(ctx, op+" failed", "error", err)
	if errors.Is(err, client.ErrUnavailable) {
		a.setMode(ModeOffline)
	}
	printlnFn(userMessage(err))
}
