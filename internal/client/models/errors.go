package models

import "errors"

// Local validation errors. They are reported to the user inline and the
// request they belong to is never sent.
var (
	ErrEmptyEmail          = errors.New("email is required")
	ErrInvalidEmail        = errors.New("invalid email format")
	ErrEmptyCredential     = errors.New("credential is required")
	ErrInvalidKey          = errors.New("encryption key must be 64 characters long")
	ErrEmptyName           = errors.New("name is required")
	ErrEmptyDate           = errors.New("date is required")
	ErrInvalidDate         = errors.New("date must be YYYY-MM-DD")
	ErrInvalidReminderTime = errors.New("reminder time must be HH:MM")
	ErrInvalidTimezone     = errors.New("unknown timezone")
	ErrEmptyTelegramAPIKey = errors.New("telegram bot API key is required")
	ErrEmptyTelegramUserID = errors.New("telegram user id is required")
	ErrUnknownScheme       = errors.New("unknown auth scheme")
)
