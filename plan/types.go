/*
Package plan holds schedule declarations and decides when they occur.

PURPOSE:
  A user plans time two ways: a DayPlan for one date, or a RecurringPlan that
  repeats weekly, bi-weekly, monthly on a day number, or monthly on the n-th
  weekday. Individual occurrences of a recurring plan can be overridden
  (different minutes/note on that date) or soft-deleted, and a plan can be
  cut off at a date ("this and future events").

KEY CONCEPTS:
  - OccursOn:  pure recurrence test for one plan and one day
  - State:     the plan collections plus the mutators the app calls
  - Resolution: effective minutes/note for a plan on a date

DAY EQUALITY:
  Overrides and deleted dates are keyed by calendar.Day, so "same date"
  never depends on time-of-day.

SEE ALSO:
  - recurrence.go: OccursOn and occurrence enumeration
  - state.go:      override/deletion resolver and mutators
  - rrule.go:      RFC 5545 rendering
*/
package plan

import (
	"time"

	"github.com/leviFrosty/witness-work-sub000/calendar"
)

// =============================================================================
// RECURRENCE
// =============================================================================

type Frequency string

const (
	Weekly           Frequency = "WEEKLY"
	BiWeekly         Frequency = "BI_WEEKLY"
	Monthly          Frequency = "MONTHLY"
	MonthlyByWeekday Frequency = "MONTHLY_BY_WEEKDAY"
)

// LastWeekOfMonth selects the last matching weekday in a month.
const LastWeekOfMonth = -1

// WeekdayOfMonth configures MONTHLY_BY_WEEKDAY: the WeekOfMonth-th Weekday
// of the month (1-4, or LastWeekOfMonth).
type WeekdayOfMonth struct {
	Weekday     time.Weekday `json:"weekday"`
	WeekOfMonth int          `json:"weekOfMonth"`
}

type Recurrence struct {
	Frequency              Frequency       `json:"frequency"`
	Interval               int             `json:"interval"`
	EndDate                *calendar.Day   `json:"endDate"`
	MonthlyByWeekdayConfig *WeekdayOfMonth `json:"monthlyByWeekdayConfig,omitempty"`
}

// step returns the interval, never less than 1.
func (r Recurrence) step() int {
	if r.Interval < 1 {
		return 1
	}
	return r.Interval
}

// =============================================================================
// PLANS
// =============================================================================

// DayPlan is a one-off schedule for a single date. At most one per day.
type DayPlan struct {
	ID      string       `json:"id"`
	Date    calendar.Day `json:"date"`
	Minutes int          `json:"minutes"`
	Note    string       `json:"note,omitempty"`
}

// Override replaces one occurrence of a recurring plan.
type Override struct {
	Date    calendar.Day `json:"date"`
	Minutes int          `json:"minutes"`
	Note    string       `json:"note,omitempty"`
}

type RecurringPlan struct {
	ID           string         `json:"id"`
	StartDate    calendar.Day   `json:"startDate"`
	Minutes      int            `json:"minutes"`
	Note         string         `json:"note,omitempty"`
	Recurrence   Recurrence     `json:"recurrence"`
	Overrides    []Override     `json:"overrides,omitempty"`
	DeletedDates []calendar.Day `json:"deletedDates,omitempty"`
}

// IsDeleted reports whether the occurrence on d was soft-deleted.
func (p RecurringPlan) IsDeleted(d calendar.Day) bool {
	for _, del := range p.DeletedDates {
		if del == d {
			return true
		}
	}
	return false
}

// OverrideFor returns the override on d, if any.
func (p RecurringPlan) OverrideFor(d calendar.Day) (Override, bool) {
	for _, o := range p.Overrides {
		if o.Date == d {
			return o, true
		}
	}
	return Override{}, false
}

// EffectiveMinutes is the override's minutes on d, else the plan's own.
func (p RecurringPlan) EffectiveMinutes(d calendar.Day) int {
	if o, ok := p.OverrideFor(d); ok {
		return o.Minutes
	}
	return p.Minutes
}

// clone copies the slices so mutations never alias a caller's snapshot.
func (p RecurringPlan) clone() RecurringPlan {
	out := p
	if p.Overrides != nil {
		out.Overrides = append([]Override(nil), p.Overrides...)
	}
	if p.DeletedDates != nil {
		out.DeletedDates = append([]calendar.Day(nil), p.DeletedDates...)
	}
	if p.Recurrence.EndDate != nil {
		end := *p.Recurrence.EndDate
		out.Recurrence.EndDate = &end
	}
	if p.Recurrence.MonthlyByWeekdayConfig != nil {
		cfg := *p.Recurrence.MonthlyByWeekdayConfig
		out.Recurrence.MonthlyByWeekdayConfig = &cfg
	}
	return out
}

// Occurrence is one resolved instance of a recurring plan.
type Occurrence struct {
	PlanID     string       `json:"planId"`
	Date       calendar.Day `json:"date"`
	Minutes    int          `json:"minutes"`
	Note       string       `json:"note,omitempty"`
	IsOverride bool         `json:"isOverride"`
}
