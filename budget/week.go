package budget

import (
	"fmt"
	"time"
)

// =============================================================================
// WEEK - Canonical budgeting week, identified by its anchor date
// =============================================================================

// DefaultAnchorWeekday is the weekday every budgeting week starts on.
// The system historically runs Wednesday-to-Wednesday.
const DefaultAnchorWeekday = time.Wednesday

// Week identifies one budgeting week by its anchor date: the most recent
// occurrence of the anchor weekday, normalized to midnight. Week is a value
// type; two Weeks are equal iff their anchor dates are equal.
//
// All week-boundary math in the repository goes through this type. No other
// component derives week boundaries on its own.
type Week struct {
	Time time.Time
}

// WeekOf maps any date to the week containing it. If t already falls on the
// anchor weekday it is returned unchanged (normalized to midnight); otherwise
// the most recent anchor weekday is used.
//
// Normalization works on local calendar fields rather than UTC epoch math so
// a date never drifts across midnight in the caller's timezone.
func WeekOf(t time.Time, anchor time.Weekday) Week {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	back := (int(day.Weekday()) - int(anchor) + 7) % 7
	return Week{Time: day.AddDate(0, 0, -back)}
}

// CurrentWeek returns the week containing today.
func CurrentWeek(anchor time.Weekday) Week {
	return WeekOf(time.Now(), anchor)
}

// ParseDate parses an ISO YYYY-MM-DD date in local time.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q", ErrInvalidArgument, s)
	}
	return t, nil
}

// ParseWeek parses an ISO date and normalizes it to its week anchor.
func ParseWeek(s string, anchor time.Weekday) (Week, error) {
	t, err := ParseDate(s)
	if err != nil {
		return Week{}, err
	}
	return WeekOf(t, anchor), nil
}

// Next returns the following week's anchor.
func (w Week) Next() Week { return Week{Time: w.Time.AddDate(0, 0, 7)} }

// Prev returns the preceding week's anchor.
func (w Week) Prev() Week { return Week{Time: w.Time.AddDate(0, 0, -7)} }

// Equal reports whether two weeks share the same anchor date.
func (w Week) Equal(other Week) bool {
	return w.Time.Year() == other.Time.Year() && w.Time.YearDay() == other.Time.YearDay()
}

// Before reports whether w's anchor precedes other's.
func (w Week) Before(other Week) bool { return w.Time.Before(other.Time) }

// IsZero reports whether the week is uninitialized.
func (w Week) IsZero() bool { return w.Time.IsZero() }

// Contains reports whether a timestamp falls inside the week [anchor, anchor+7d).
func (w Week) Contains(t time.Time) bool {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, w.Time.Location())
	return !day.Before(w.Time) && day.Before(w.Time.AddDate(0, 0, 7))
}

// String formats the anchor as ISO YYYY-MM-DD. This is also the persistence key.
func (w Week) String() string { return w.Time.Format("2006-01-02") }
