package models

import (
	"regexp"
	"time"
	_ "time/tzdata" // zone names must resolve on hosts without a zoneinfo database
)

// Profile mirrors the notification settings the server holds for a user.
type Profile struct {
	Email             string `json:"email"`
	ReminderTime      string `json:"reminder_time"`
	Timezone          string `json:"timezone"`
	TelegramBotAPIKey string `json:"telegram_bot_api_key"`
	TelegramUserID    string `json:"telegram_user_id"`
}

// Account is what the server returns for an authenticated user: the profile
// and the full birthday list.
type Account struct {
	Profile   Profile
	Birthdays []Birthday
}

// Registration holds everything needed to create an account. Credential is
// the encryption key (SchemeKey) or the password (SchemeToken).
type Registration struct {
	Profile
	Credential string
}

// ProfileUpdate is the full profile sent on modification. NewPassword is
// only meaningful in SchemeToken; empty keeps the current one.
type ProfileUpdate struct {
	Profile
	NewPassword string
}

var reminderTimeRegex = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// ValidateReminderTime checks a 24h HH:MM value.
func ValidateReminderTime(s string) error {
	if !reminderTimeRegex.MatchString(s) {
		return ErrInvalidReminderTime
	}
	return nil
}

// ValidateTimezone checks that tz names a zone in the IANA database.
func ValidateTimezone(tz string) error {
	if tz == "" || tz == "Local" {
		return ErrInvalidTimezone
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return ErrInvalidTimezone
	}
	return nil
}

// Validate checks every profile field locally.
func (p Profile) Validate() error {
	if err := ValidateEmail(p.Email); err != nil {
		return err
	}
	if err := ValidateReminderTime(p.ReminderTime); err != nil {
		return err
	}
	if err := ValidateTimezone(p.Timezone); err != nil {
		return err
	}
	if p.TelegramBotAPIKey == "" {
		return ErrEmptyTelegramAPIKey
	}
	if p.TelegramUserID == "" {
		return ErrEmptyTelegramUserID
	}
	return nil
}

// WithDefaultBot fills an empty bot API key with defaultKey.
func (p Profile) WithDefaultBot(defaultKey string) Profile {
	if p.TelegramBotAPIKey == "" {
		p.TelegramBotAPIKey = defaultKey
	}
	return p
}
