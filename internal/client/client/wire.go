package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"github.com/dmitrijs2005/hbd/internal/client/models"
)

var numericID = regexp.MustCompile(`^-?[0-9]+$`)

// wireID accepts a record id sent as a JSON number or string and writes it
// back in the same shape, numeric ids as numbers.
type wireID string

func (id *wireID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*id = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = wireID(s)
	case numericID.Match(b):
		*id = wireID(b)
	default:
		return fmt.Errorf("unsupported id %s", b)
	}
	return nil
}

func (id wireID) MarshalJSON() ([]byte, error) {
	if numericID.MatchString(string(id)) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

type birthdayDTO struct {
	ID   wireID `json:"id"`
	Name string `json:"name"`
	Date string `json:"date"`
}

func (d birthdayDTO) validate() error {
	if d.ID == "" || d.Name == "" || d.Date == "" {
		return fmt.Errorf("%w: birthday must have id, name and date", ErrInvalidResponse)
	}
	return nil
}

func (d birthdayDTO) model() models.Birthday {
	return models.Birthday{ID: string(d.ID), Name: d.Name, Date: d.Date}
}

func birthdayBody(b models.Birthday) map[string]any {
	return map[string]any{"id": wireID(b.ID), "name": b.Name, "date": b.Date}
}

// accountDTO is the body of /login and /me.
type accountDTO struct {
	Token             string        `json:"token"`
	Email             string        `json:"email"`
	ReminderTime      string        `json:"reminder_time"`
	Timezone          string        `json:"timezone"`
	TelegramBotAPIKey string        `json:"telegram_bot_api_key"`
	TelegramUserID    string        `json:"telegram_user_id"`
	Birthdays         []birthdayDTO `json:"birthdays"`
	Error             string        `json:"error"`
}

// account validates the body and turns it into an Account for email. An
// error field or missing notification settings fail the call.
func (d accountDTO) account(email string) (*models.Account, error) {
	if d.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrRejected, d.Error)
	}
	if d.ReminderTime == "" || d.Timezone == "" {
		return nil, fmt.Errorf("%w: account must have reminder_time and timezone", ErrInvalidResponse)
	}
	if d.Email != "" {
		email = d.Email
	}

	acc := &models.Account{
		Profile: models.Profile{
			Email:             email,
			ReminderTime:      d.ReminderTime,
			Timezone:          d.Timezone,
			TelegramBotAPIKey: d.TelegramBotAPIKey,
			TelegramUserID:    d.TelegramUserID,
		},
		Birthdays: make([]models.Birthday, 0, len(d.Birthdays)),
	}

	for _, b := range d.Birthdays {
		if err := b.validate(); err != nil {
			return nil, err
		}
		acc.Birthdays = append(acc.Birthdays, b.model())
	}
	return acc, nil
}

// successDTO covers {"success": bool, "token": "...", "error": "..."} bodies.
type successDTO struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
	Error   string `json:"error"`
}

func (d successDTO) check() error {
	if d.Success {
		return nil
	}
	if d.Error != "" {
		return fmt.Errorf("%w: %s", ErrRejected, d.Error)
	}
	return fmt.Errorf("%w: success flag not set", ErrInvalidResponse)
}

type errorDTO struct {
	Error string `json:"error"`
}

var errEmptyBody = errors.New("empty body")
