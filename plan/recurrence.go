package plan

import "github.com/leviFrosty/witness-work-sub000/calendar"

// =============================================================================
// OCCURS ON - Recurrence evaluation for a single day
// =============================================================================

// OccursOn reports whether the plan's recurrence produces an occurrence on d.
// Deleted dates are not consulted; see PlansIntersectingDay.
//
//	WEEKLY              same weekday as the start, every Interval weeks
//	BI_WEEKLY           same weekday, every 2*Interval weeks
//	MONTHLY             the start's day of month, clamped to the last day of
//	                    shorter months, every Interval months
//	MONTHLY_BY_WEEKDAY  the n-th (or last) weekday of the month, every
//	                    Interval months
func OccursOn(p RecurringPlan, d calendar.Day) bool {
	if d.Before(p.StartDate) {
		return false
	}
	if end := p.Recurrence.EndDate; end != nil && d.After(*end) {
		return false
	}

	step := p.Recurrence.step()
	switch p.Recurrence.Frequency {
	case Weekly:
		return occursEveryNWeeks(p.StartDate, d, step)
	case BiWeekly:
		return occursEveryNWeeks(p.StartDate, d, 2*step)
	case Monthly:
		return occursMonthly(p.StartDate, d, step)
	case MonthlyByWeekday:
		return occursMonthlyByWeekday(p.StartDate, d, step, p.Recurrence.MonthlyByWeekdayConfig)
	default:
		return false
	}
}

func occursEveryNWeeks(start, d calendar.Day, weeks int) bool {
	if d.Weekday() != start.Weekday() {
		return false
	}
	return (calendar.DaysBetween(start, d)/7)%weeks == 0
}

func occursMonthly(start, d calendar.Day, months int) bool {
	if calendar.MonthsBetween(start, d)%months != 0 {
		return false
	}
	target := start.DayOfMonth()
	if last := calendar.DaysInMonth(d.Month(), d.Year()); target > last {
		target = last
	}
	return d.DayOfMonth() == target
}

func occursMonthlyByWeekday(start, d calendar.Day, months int, cfg *WeekdayOfMonth) bool {
	if calendar.MonthsBetween(start, d)%months != 0 {
		return false
	}
	want := WeekdayOfMonthFor(start)
	if cfg != nil {
		want = *cfg
	}
	if d.Weekday() != want.Weekday {
		return false
	}
	if want.WeekOfMonth == LastWeekOfMonth {
		return d.DayOfMonth()+7 > calendar.DaysInMonth(d.Month(), d.Year())
	}
	return weekOrdinal(d) == want.WeekOfMonth
}

// weekOrdinal is 1 for the first such weekday in the month, 2 for the second...
func weekOrdinal(d calendar.Day) int {
	return (d.DayOfMonth()-1)/7 + 1
}

// WeekdayOfMonthFor derives a MONTHLY_BY_WEEKDAY config from a date. A fifth
// occurrence becomes LastWeekOfMonth.
func WeekdayOfMonthFor(d calendar.Day) WeekdayOfMonth {
	n := weekOrdinal(d)
	if n > 4 {
		n = LastWeekOfMonth
	}
	return WeekdayOfMonth{Weekday: d.Weekday(), WeekOfMonth: n}
}

// =============================================================================
// INTERSECTION & ENUMERATION
// =============================================================================

// PlansIntersectingDay returns the plans that occur on d and whose
// occurrence on d was not deleted.
func PlansIntersectingDay(d calendar.Day, plans []RecurringPlan) []RecurringPlan {
	var out []RecurringPlan
	for _, p := range plans {
		if OccursOn(p, d) && !p.IsDeleted(d) {
			out = append(out, p)
		}
	}
	return out
}

// DayPlanFor returns the day plan on d, if any.
func DayPlanFor(d calendar.Day, dayPlans []DayPlan) (DayPlan, bool) {
	for _, dp := range dayPlans {
		if dp.Date == d {
			return dp, true
		}
	}
	return DayPlan{}, false
}

// Occurrences expands the plan's rule set (deleted dates excluded) over the
// period and applies overrides. A plan whose recurrence cannot be rendered
// has no occurrences.
func Occurrences(p RecurringPlan, period calendar.Period) []Occurrence {
	set, err := RRuleSet(p)
	if err != nil {
		return nil
	}

	var out []Occurrence
	for _, t := range set.Between(period.Start.Time(), period.End.Time(), true) {
		d := calendar.DayOf(t)
		occ := Occurrence{PlanID: p.ID, Date: d, Minutes: p.Minutes, Note: p.Note}
		if o, ok := p.OverrideFor(d); ok {
			occ.Minutes, occ.Note, occ.IsOverride = o.Minutes, o.Note, true
		}
		out = append(out, occ)
	}
	return out
}
