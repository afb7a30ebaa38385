package availability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

type memSlots struct {
	times map[string][]string
}

func (m *memSlots) ExistsActiveAt(_ context.Context, date, timeOfDay string) (bool, error) {
	for _, t := range m.times[date] {
		if t == timeOfDay {
			return true, nil
		}
	}
	return false, nil
}

func (m *memSlots) ActiveTimesByDate(_ context.Context, date string) ([]string, error) {
	return m.times[date], nil
}

func TestDayEmptySchedule(t *testing.T) {
	engine := NewEngine(&memSlots{times: map[string][]string{}})

	day, err := engine.Day(context.Background(), "2025-03-15")
	assert.NoError(t, err)
	assert.Empty(t, day.BookedTimes)
	assert.Len(t, day.AvailableTimes, 24)
	assert.Equal(t, "09:00", day.AvailableTimes[0])
	assert.Equal(t, "20:30", day.AvailableTimes[23])
}

func TestDayWithBookings(t *testing.T) {
	engine := NewEngine(&memSlots{times: map[string][]string{
		"2025-03-15": {"09:00", "10:30"},
	}})

	day, err := engine.Day(context.Background(), "2025-03-15")
	assert.NoError(t, err)
	assert.Equal(t, []string{"09:00", "10:30"}, day.BookedTimes)
	assert.Len(t, day.AvailableTimes, 22)
	assert.NotContains(t, day.AvailableTimes, "09:00")
	assert.NotContains(t, day.AvailableTimes, "10:30")
	assert.Contains(t, day.AvailableTimes, "09:30")
}

func TestDayTruncatesSeconds(t *testing.T) {
	engine := NewEngine(&memSlots{times: map[string][]string{
		"2025-03-15": {"09:00:00"},
	}})

	day, err := engine.Day(context.Background(), "2025-03-15")
	assert.NoError(t, err)
	assert.Equal(t, []string{"09:00"}, day.BookedTimes)
	assert.NotContains(t, day.AvailableTimes, "09:00")
}

func TestSlotFree(t *testing.T) {
	engine := NewEngine(&memSlots{times: map[string][]string{
		"2025-03-15": {"10:30"},
	}})

	free, err := engine.SlotFree(context.Background(), "2025-03-15", "10:30")
	assert.NoError(t, err)
	assert.False(t, free)

	free, err = engine.SlotFree(context.Background(), "2025-03-15", "11:00")
	assert.NoError(t, err)
	assert.True(t, free)
}

func TestWorkingHoursCopy(t *testing.T) {
	grid := WorkingHours()
	assert.Len(t, grid, 24)
	grid[0] = "00:00"
	assert.Equal(t, "09:00", WorkingHours()[0])
}
