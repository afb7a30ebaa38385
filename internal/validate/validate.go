// Package validate holds the pure input validators shared by every mutating
// endpoint. Each function either returns the normalized value or a sentinel
// error the handlers translate into a 400 envelope.
package validate

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

var (
	ErrInvalidName   = errors.New("invalid name length")
	ErrInvalidPhone  = errors.New("invalid phone format")
	ErrInvalidDate   = errors.New("invalid date format")
	ErrInvalidTime   = errors.New("invalid time format")
	ErrInvalidGender = errors.New("invalid gender")
)

// phonePattern is the canonical national format: 10 digits with a leading 0.
// An earlier endpoint generation required the stricter 05 prefix; all entry
// points now use this single pattern.
var phonePattern = regexp.MustCompile(`^0\d{9}$`)

var (
	datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timePattern = regexp.MustCompile(`^([01]\d|2[0-3]):([0-5]\d)$`)
)

// Name trims the input and requires a length between 2 and 100 characters.
func Name(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if n := len([]rune(name)); n < 2 || n > 100 {
		return "", ErrInvalidName
	}
	return name, nil
}

// Phone trims the input and requires the canonical 0XXXXXXXXX format.
func Phone(raw string) (string, error) {
	phone := strings.TrimSpace(raw)
	if !phonePattern.MatchString(phone) {
		return "", ErrInvalidPhone
	}
	return phone, nil
}

// Date requires YYYY-MM-DD and a real calendar date, so 2025-02-30 is
// rejected even though it matches the pattern.
func Date(raw string) (string, error) {
	date := strings.TrimSpace(raw)
	if !datePattern.MatchString(date) {
		return "", ErrInvalidDate
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return "", ErrInvalidDate
	}
	return date, nil
}

// Time requires 24-hour HH:MM.
func Time(raw string) (string, error) {
	t := strings.TrimSpace(raw)
	if !timePattern.MatchString(t) {
		return "", ErrInvalidTime
	}
	return t, nil
}

// Gender requires exactly "male" or "female".
func Gender(raw string) (string, error) {
	gender := strings.TrimSpace(raw)
	if gender != "male" && gender != "female" {
		return "", ErrInvalidGender
	}
	return gender, nil
}
