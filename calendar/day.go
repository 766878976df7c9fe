/*
Package calendar provides the day-precision date arithmetic used by the
planning and reporting engine.

PURPOSE:
  Every comparison the engine makes (is this report in March? does this
  recurring plan fall on the 14th? was this occurrence deleted?) is a
  calendar-day comparison. Day wraps time.Time normalized to UTC midnight so
  equality is structural and never depends on time-of-day or zone drift.

KEY CONCEPTS:
  - Day: a calendar day, comparable with == and usable as a map key
  - Period: an inclusive [Start, End] window of days
  - Service year: Sept 1 of year Y through Aug 31 of year Y+1

USAGE:
  d := calendar.NewDay(2024, time.September, 1)
  sy := calendar.ServiceYearOf(d)            // 2024
  window := calendar.ServiceYearPeriod(sy)   // [2024-09-01, 2025-08-31]
*/
package calendar

import (
	"fmt"
	"time"
)

const (
	dayLayout     = "2006-01-02"
	secondsPerDay = 24 * 60 * 60
)

// =============================================================================
// DAY - Day-precision value type
// =============================================================================

// Day is a calendar day. The zero value is the zero time's day and reports
// IsZero() == true.
type Day struct {
	t time.Time
}

// NewDay builds a Day; out-of-range values normalize like time.Date.
func NewDay(year int, month time.Month, day int) Day {
	return Day{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DayOf returns the calendar day of t as seen in t's own location.
func DayOf(t time.Time) Day {
	return NewDay(t.Year(), t.Month(), t.Day())
}

// Today returns the current local calendar day.
func Today() Day {
	return DayOf(time.Now())
}

// ParseDay parses a "2006-01-02" string.
func ParseDay(s string) (Day, error) {
	t, err := time.Parse(dayLayout, s)
	if err != nil {
		return Day{}, fmt.Errorf("invalid day %q (use YYYY-MM-DD): %w", s, err)
	}
	return DayOf(t), nil
}

// MustParseDay is ParseDay for literals in tests and fixtures.
func MustParseDay(s string) Day {
	d, err := ParseDay(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Comparison
func (d Day) Before(other Day) bool        { return d.t.Before(other.t) }
func (d Day) After(other Day) bool         { return d.t.After(other.t) }
func (d Day) Equal(other Day) bool         { return d.t.Equal(other.t) }
func (d Day) BeforeOrEqual(other Day) bool { return !d.t.After(other.t) }
func (d Day) AfterOrEqual(other Day) bool  { return !d.t.Before(other.t) }
func (d Day) IsZero() bool                 { return d.t.IsZero() }

// Arithmetic
func (d Day) AddDays(n int) Day { return Day{t: d.t.AddDate(0, 0, n)} }

// Properties
func (d Day) Year() int              { return d.t.Year() }
func (d Day) Month() time.Month      { return d.t.Month() }
func (d Day) DayOfMonth() int        { return d.t.Day() }
func (d Day) Weekday() time.Weekday  { return d.t.Weekday() }
func (d Day) Time() time.Time        { return d.t }
func (d Day) YearMonth() YearMonth   { return YearMonth{Year: d.Year(), Month: d.Month()} }
func (d Day) String() string         { return d.t.Format(dayLayout) }

// MarshalText encodes the day as "2006-01-02".
func (d Day) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText accepts "2006-01-02" and, for stores written by older
// clients, full RFC 3339 timestamps (the calendar day in the stamp's zone).
func (d *Day) UnmarshalText(b []byte) error {
	s := string(b)
	if t, err := time.Parse(dayLayout, s); err == nil {
		*d = DayOf(t)
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("invalid day %q: %w", s, err)
	}
	*d = DayOf(t)
	return nil
}

// =============================================================================
// DAY UTILITIES
// =============================================================================

// IsSameDay reports whether a and b fall on the same calendar day.
func IsSameDay(a, b time.Time) bool {
	return DayOf(a) == DayOf(b)
}

// DaysBetween returns the signed number of days from -> to.
func DaysBetween(from, to Day) int {
	return int(to.epochDay() - from.epochDay())
}

// epochDay counts days since 1970-01-01; exact since Day is UTC midnight.
func (d Day) epochDay() int64 {
	return d.t.Unix() / secondsPerDay
}

// MonthsBetween returns the whole calendar-month difference from -> to,
// ignoring the day of month.
func MonthsBetween(from, to Day) int {
	return (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
}

// DaysInMonth is leap-aware.
func DaysInMonth(month time.Month, year int) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func StartOfMonth(year int, month time.Month) Day { return NewDay(year, month, 1) }
func EndOfMonth(year int, month time.Month) Day {
	return NewDay(year, month, DaysInMonth(month, year))
}
