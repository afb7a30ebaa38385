package availability

import (
	"context"
)

// SlotSource reads booked slots. Both methods exclude cancelled appointments.
type SlotSource interface {
	ExistsActiveAt(ctx context.Context, date, timeOfDay string) (bool, error)
	ActiveTimesByDate(ctx context.Context, date string) ([]string, error)
}

// DaySummary is the availability picture for one date.
type DaySummary struct {
	Date           string
	BookedTimes    []string
	AvailableTimes []string
}

// Engine computes availability from the appointment store.
type Engine struct {
	slots SlotSource
}

// NewEngine creates an availability engine over the given slot source.
func NewEngine(slots SlotSource) *Engine {
	return &Engine{slots: slots}
}

// SlotFree reports whether the exact (date, time) slot is free.
func (e *Engine) SlotFree(ctx context.Context, date, timeOfDay string) (bool, error) {
	taken, err := e.slots.ExistsActiveAt(ctx, date, timeOfDay)
	if err != nil {
		return false, err
	}
	return !taken, nil
}

// Day returns booked and free slots for a date. Booked times outside the
// working grid still count as booked but never shrink the grid below zero.
func (e *Engine) Day(ctx context.Context, date string) (*DaySummary, error) {
	times, err := e.slots.ActiveTimesByDate(ctx, date)
	if err != nil {
		return nil, err
	}

	booked := make(map[string]bool, len(times))
	bookedTimes := make([]string, 0, len(times))
	for _, t := range times {
		// stored times may carry seconds; slot identity is HH:MM
		if len(t) > 5 {
			t = t[:5]
		}
		booked[t] = true
		bookedTimes = append(bookedTimes, t)
	}

	available := make([]string, 0, len(workingHours))
	for _, slot := range workingHours {
		if !booked[slot] {
			available = append(available, slot)
		}
	}

	return &DaySummary{
		Date:           date,
		BookedTimes:    bookedTimes,
		AvailableTimes: available,
	}, nil
}
