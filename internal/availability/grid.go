// Package availability answers slot queries against the clinic's working
// hours, using the same non-cancelled predicate the booking engine enforces.
package availability

// workingHours is the clinic's bookable grid: half-hour slots from 09:00
// through the 20:30 start.
var workingHours = []string{
	"09:00", "09:30", "10:00", "10:30", "11:00", "11:30",
	"12:00", "12:30", "13:00", "13:30", "14:00", "14:30",
	"15:00", "15:30", "16:00", "16:30", "17:00", "17:30",
	"18:00", "18:30", "19:00", "19:30", "20:00", "20:30",
}

// WorkingHours returns a copy of the bookable slot grid.
func WorkingHours() []string {
	grid := make([]string, len(workingHours))
	copy(grid, workingHours)
	return grid
}
