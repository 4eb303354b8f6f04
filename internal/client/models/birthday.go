package models

import (
	"regexp"
	"strconv"
	"time"
)

// Birthday is one record of a user's list. ID is assigned by the server and
// is empty until the record has been created there.
type Birthday struct {
	ID   string
	Name string
	Date string
}

// UnknownYear is the year value used when only day and month are known.
// Dates carrying it are kept exactly as entered.
const UnknownYear = "0000"

var dateRegex = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)

// ValidateDate checks a YYYY-MM-DD calendar date. Year 0000 is accepted and
// checked against a leap year, so 0000-02-29 is valid.
func ValidateDate(date string) error {
	if date == "" {
		return ErrEmptyDate
	}
	m := dateRegex.FindStringSubmatch(date)
	if m == nil {
		return ErrInvalidDate
	}

	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	if m[1] == UnknownYear {
		year = 2000
	}
	if month < 1 || month > 12 || day < 1 {
		return ErrInvalidDate
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day {
		return ErrInvalidDate
	}
	return nil
}

// ValidateBirthday checks the fields a user enters for a birthday.
func ValidateBirthday(name, date string) error {
	if name == "" {
		return ErrEmptyName
	}
	return ValidateDate(date)
}
