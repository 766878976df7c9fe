/*
Package planning turns plan declarations into planned minutes.

PURPOSE:
  Answers "how much time did the user plan for this day / month / service
  year?" and "how much of this month's plan should be done by today?".

MAX, NOT SUM:
  A day's planned minutes is the single largest applicable plan:

    max(dayPlan.Minutes, max over recurring plans occurring that day)

  A 60 minute day plan on top of a 120 minute recurring plan plans 120
  minutes for that day, not 180. Overrides replace the recurring plan's
  minutes on their date; deleted occurrences contribute nothing.

CURRENT-DAY TRUNCATION:
  For the month containing today, only days 1..today count. Past months
  count every day, future months count none.

SEE ALSO:
  - hash.go:    content hash of the plan collections
  - planner.go: cached variants backed by cache.Store
*/
package planning

import (
	"time"

	"github.com/leviFrosty/witness-work-sub000/calendar"
	"github.com/leviFrosty/witness-work-sub000/plan"
)

// PlannedMinutesForDay is the largest planned value on d.
func PlannedMinutesForDay(s plan.State, d calendar.Day) int {
	best := 0
	if dp, ok := plan.DayPlanFor(d, s.DayPlans); ok {
		best = dp.Minutes
	}
	for _, rp := range plan.PlansIntersectingDay(d, s.RecurringPlans) {
		if m := rp.EffectiveMinutes(d); m > best {
			best = m
		}
	}
	return best
}

// PlannedMinutesForPeriod sums PlannedMinutesForDay over every day of p.
func PlannedMinutesForPeriod(s plan.State, p calendar.Period) int {
	dayPlans := make(map[calendar.Day]int, len(s.DayPlans))
	for _, dp := range s.DayPlans {
		if p.Contains(dp.Date) {
			dayPlans[dp.Date] = dp.Minutes
		}
	}

	total := 0
	for _, d := range p.Days() {
		best := dayPlans[d]
		for _, rp := range s.RecurringPlans {
			if !plan.OccursOn(rp, d) || rp.IsDeleted(d) {
				continue
			}
			if m := rp.EffectiveMinutes(d); m > best {
				best = m
			}
		}
		total += best
	}
	return total
}

func MonthlyPlannedMinutes(s plan.State, month time.Month, year int) int {
	return PlannedMinutesForPeriod(s, calendar.MonthPeriod(month, year))
}

// AnnualPlannedMinutes covers Sept 1 serviceYear through Aug 31 serviceYear+1.
func AnnualPlannedMinutes(s plan.State, serviceYear int) int {
	return PlannedMinutesForPeriod(s, calendar.ServiceYearPeriod(serviceYear))
}

// PlannedMinutesToCurrentDayForMonth counts the month's planned minutes up to
// and including today.
func PlannedMinutesToCurrentDayForMonth(s plan.State, month time.Month, year int, today calendar.Day) int {
	last := CutoffDay(month, year, today)
	if last == 0 {
		return 0
	}
	return PlannedMinutesForPeriod(s, calendar.Period{
		Start: calendar.StartOfMonth(year, month),
		End:   calendar.NewDay(year, month, last),
	})
}

// CutoffDay is the last day of month counted "to today": today's day of
// month for the current month, the month's last day for past months and 0
// for future months.
func CutoffDay(month time.Month, year int, today calendar.Day) int {
	target := calendar.YearMonth{Year: year, Month: month}
	current := today.YearMonth()

	switch {
	case target == current:
		return today.DayOfMonth()
	case target.Before(current):
		return calendar.DaysInMonth(month, year)
	default:
		return 0
	}
}
