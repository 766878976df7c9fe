package plan

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
)

var rruleWeekdays = map[time.Weekday]rrule.Weekday{
	time.Sunday:    rrule.SU,
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
}

// RRule renders the plan's recurrence as an RFC 5545 rule anchored at the
// start date. Overrides and deleted dates are not part of a single rule; see
// RRuleSet.
func RRule(p RecurringPlan) (*rrule.RRule, error) {
	opts, err := rruleOptions(p)
	if err != nil {
		return nil, err
	}
	return rrule.NewRRule(opts)
}

// RRuleSet is RRule plus an EXDATE for every deleted occurrence.
func RRuleSet(p RecurringPlan) (*rrule.Set, error) {
	r, err := RRule(p)
	if err != nil {
		return nil, err
	}
	set := &rrule.Set{}
	set.RRule(r)
	for _, d := range p.DeletedDates {
		set.ExDate(d.Time())
	}
	return set, nil
}

func rruleOptions(p RecurringPlan) (rrule.ROption, error) {
	start := p.StartDate.Time()
	step := p.Recurrence.step()

	opts := rrule.ROption{
		Dtstart:  start,
		Interval: step,
	}
	if end := p.Recurrence.EndDate; end != nil {
		opts.Until = end.Time()
	}

	switch p.Recurrence.Frequency {
	case Weekly, BiWeekly:
		opts.Freq = rrule.WEEKLY
		opts.Byweekday = []rrule.Weekday{rruleWeekdays[start.Weekday()]}
		if p.Recurrence.Frequency == BiWeekly {
			opts.Interval = 2 * step
		}

	case Monthly:
		opts.Freq = rrule.MONTHLY
		day := start.Day()
		if day <= 28 {
			opts.Bymonthday = []int{day}
			break
		}
		// Last existing day in 28..day: clamps the 29th-31st in short months.
		for md := 28; md <= day; md++ {
			opts.Bymonthday = append(opts.Bymonthday, md)
		}
		opts.Bysetpos = []int{-1}

	case MonthlyByWeekday:
		opts.Freq = rrule.MONTHLY
		cfg := WeekdayOfMonthFor(p.StartDate)
		if c := p.Recurrence.MonthlyByWeekdayConfig; c != nil {
			cfg = *c
		}
		wd, ok := rruleWeekdays[cfg.Weekday]
		if !ok {
			return rrule.ROption{}, &ValidationError{PlanID: p.ID, Field: "recurrence.monthlyByWeekdayConfig.weekday", Reason: "must be 0-6"}
		}
		opts.Byweekday = []rrule.Weekday{wd.Nth(cfg.WeekOfMonth)}

	default:
		return rrule.ROption{}, &ValidationError{
			PlanID: p.ID,
			Field:  "recurrence.frequency",
			Reason: fmt.Sprintf("unknown frequency %q", p.Recurrence.Frequency),
		}
	}
	return opts, nil
}
