package planning

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"sort"
	"strconv"

	"github.com/leviFrosty/witness-work-sub000/calendar"
	"github.com/leviFrosty/witness-work-sub000/plan"
)

// HashVersion prefixes every canonical encoding. Bump it whenever the field
// list below changes so old cache entries stop matching.
//
// plan-hash/v1 encodes, one record per line:
//
//	D <id> <date> <minutes> <note>
//	R <id> <start> <minutes> <note> <frequency> <interval> <endDate|-> <weekday:week|->
//	O <date> <minutes> <note>    (overrides of the preceding R, by date)
//	X <date>                     (deleted dates of the preceding R, by date)
//
// Day plans are ordered by (date, id), recurring plans by id. Strings are Go
// quoted so separators inside notes cannot collide.
const HashVersion = "plan-hash/v1"

// GeneratePlanHash returns the hex SHA-256 of the canonical encoding. Input
// order does not matter and the inputs are not modified.
func GeneratePlanHash(dayPlans []plan.DayPlan, recurringPlans []plan.RecurringPlan) string {
	h := sha256.New()
	fmt.Fprintln(h, HashVersion)

	days := append([]plan.DayPlan(nil), dayPlans...)
	sort.Slice(days, func(i, j int) bool {
		if days[i].Date != days[j].Date {
			return days[i].Date.Before(days[j].Date)
		}
		return days[i].ID < days[j].ID
	})
	for _, dp := range days {
		fmt.Fprintf(h, "D %s %s %d %s\n", strconv.Quote(dp.ID), dp.Date, dp.Minutes, strconv.Quote(dp.Note))
	}

	recurring := append([]plan.RecurringPlan(nil), recurringPlans...)
	sort.Slice(recurring, func(i, j int) bool { return recurring[i].ID < recurring[j].ID })
	for _, rp := range recurring {
		writeRecurring(h, rp)
	}

	return hex.EncodeToString(h.Sum(nil))
}

func writeRecurring(h hash.Hash, rp plan.RecurringPlan) {
	r := rp.Recurrence

	end := "-"
	if r.EndDate != nil {
		end = r.EndDate.String()
	}
	cfg := "-"
	if c := r.MonthlyByWeekdayConfig; c != nil {
		cfg = fmt.Sprintf("%d:%d", int(c.Weekday), c.WeekOfMonth)
	}
	fmt.Fprintf(h, "R %s %s %d %s %s %d %s %s\n",
		strconv.Quote(rp.ID), rp.StartDate, rp.Minutes, strconv.Quote(rp.Note),
		strconv.Quote(string(r.Frequency)), r.Interval, end, cfg)

	overrides := append([]plan.Override(nil), rp.Overrides...)
	sort.Slice(overrides, func(i, j int) bool { return overrides[i].Date.Before(overrides[j].Date) })
	for _, o := range overrides {
		fmt.Fprintf(h, "O %s %d %s\n", o.Date, o.Minutes, strconv.Quote(o.Note))
	}

	deleted := append([]calendar.Day(nil), rp.DeletedDates...)
	sort.Slice(deleted, func(i, j int) bool { return deleted[i].Before(deleted[j]) })
	for _, d := range deleted {
		fmt.Fprintf(h, "X %s\n", d)
	}
}
