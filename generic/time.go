package generic

import (
	"fmt"
	"time"
)

// DateLayout is the wire and display format for calendar dates.
const DateLayout = "2006-01-02"

// =============================================================================
// CALENDAR DAYS
// =============================================================================

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into a UTC midnight.
func ParseDate(field, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, Invalid(field, "is required")
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, Invalid(field, "must use YYYY-MM-DD")
	}
	return t, nil
}

// DaysBetween returns the number of whole days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)).Hours() / 24)
}

// =============================================================================
// STAY - half-open date range [CheckIn, CheckOut)
// =============================================================================

// Stay is the night range a reservation occupies. The guest sleeps the nights
// starting on CheckIn up to, but not including, CheckOut.
type Stay struct {
	CheckIn  time.Time
	CheckOut time.Time
}

// NewStay normalizes both ends to calendar days and rejects empty or
// inverted ranges.
func NewStay(checkIn, checkOut time.Time) (Stay, error) {
	s := Stay{CheckIn: Day(checkIn), CheckOut: Day(checkOut)}
	if !s.CheckOut.After(s.CheckIn) {
		return Stay{}, Invalid("check_out", "must be after check_in")
	}
	return s, nil
}

// Nights is the number of billable nights.
func (s Stay) Nights() int { return DaysBetween(s.CheckIn, s.CheckOut) }

// Overlaps reports whether two stays share at least one night:
// [a,b) and [c,d) overlap iff a < d and b > c. Touching ranges do not.
func (s Stay) Overlaps(o Stay) bool {
	return s.CheckIn.Before(o.CheckOut) && s.CheckOut.After(o.CheckIn)
}

func (s Stay) String() string {
	return fmt.Sprintf("[%s, %s)", s.CheckIn.Format(DateLayout), s.CheckOut.Format(DateLayout))
}
