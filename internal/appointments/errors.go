package appointments

import "errors"

var (
	// ErrSlotTaken is returned when a non-cancelled appointment already holds
	// the (date, time) slot.
	ErrSlotTaken = errors.New("time slot not available")

	// ErrNotFound is returned when no appointment matches the id.
	ErrNotFound = errors.New("appointment not found")

	// ErrInvalidTransition is returned for a status change the state machine
	// does not allow.
	ErrInvalidTransition = errors.New("invalid status transition")
)
