package patients

import "errors"

var (
	// ErrPhoneExists is returned when another patient already holds the phone number.
	ErrPhoneExists = errors.New("phone already exists")

	// ErrNotFound is returned when no patient matches the selector.
	ErrNotFound = errors.New("patient not found")

	// ErrNoFields is returned when an update supplies nothing to change.
	ErrNoFields = errors.New("no fields to update")
)
