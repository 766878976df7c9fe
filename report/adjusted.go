package report

import (
	"sort"
	"time"

	"github.com/leviFrosty/witness-work-sub000/calendar"
	"github.com/leviFrosty/witness-work-sub000/credit"
)

// =============================================================================
// CREDIT SPLIT
// =============================================================================

// AdjustedMinutesForSpecificMonth splits the month into standard and credit
// minutes and applies the policy's credit cap.
func AdjustedMinutesForSpecificMonth(reports []ServiceReport, month time.Month, year int, policy credit.Policy) credit.Adjusted {
	standard, creditMinutes := 0, 0
	for _, r := range MonthsReports(reports, month, year) {
		if r.IsCredit() {
			creditMinutes += r.TotalMinutes()
		} else {
			standard += r.TotalMinutes()
		}
	}
	return policy.Apply(standard, creditMinutes)
}

// =============================================================================
// DETAILED BREAKDOWN
// =============================================================================

// TagMinutes is the total for one custom tag.
type TagMinutes struct {
	Tag     string `json:"tag"`
	Minutes int    `json:"minutes"`
	Credit  bool   `json:"credit"`
}

// OtherMinutes groups tagged (non-LDC) time.
type OtherMinutes struct {
	Reports        []TagMinutes `json:"reports"`
	Total          int          `json:"total"`
	CreditTotal    int          `json:"creditTotal"`
	NonCreditTotal int          `json:"nonCreditTotal"`
}

// Detailed is a month's minutes broken down by category.
//
//	Standard                    every non-credit minute, tagged or not
//	StandardWithoutOtherMinutes untagged, non-LDC minutes only
//	LDC                         LDC minutes
//	Other                       tagged non-LDC minutes grouped by tag
type Detailed struct {
	Standard                    int          `json:"standard"`
	StandardWithoutOtherMinutes int          `json:"standardWithoutOtherMinutes"`
	LDC                         int          `json:"ldc"`
	Other                       OtherMinutes `json:"other"`
}

// DetailedMinutesForSpecificMonth builds the category breakdown for a month.
func DetailedMinutesForSpecificMonth(reports []ServiceReport, month time.Month, year int) Detailed {
	var d Detailed
	for _, r := range MonthsReports(reports, month, year) {
		minutes := r.TotalMinutes()
		switch {
		case r.LDC:
			d.LDC += minutes
		case r.Tag == "":
			d.StandardWithoutOtherMinutes += minutes
			d.Standard += minutes
		case r.Credit:
			d.Other.CreditTotal += minutes
		default:
			d.Other.NonCreditTotal += minutes
			d.Standard += minutes
		}
	}

	d.Other.Reports = OtherMinutesForSpecificMonth(reports, month, year)
	d.Other.Total = d.Other.CreditTotal + d.Other.NonCreditTotal
	return d
}

// OtherMinutesForSpecificMonth totals tagged, non-LDC time per tag. A tag is
// credit if any of its reports is marked credit. Sorted by tag.
func OtherMinutesForSpecificMonth(reports []ServiceReport, month time.Month, year int) []TagMinutes {
	byTag := make(map[string]*TagMinutes)
	for _, r := range MonthsReports(reports, month, year) {
		if r.LDC || r.Tag == "" {
			continue
		}
		tm, ok := byTag[r.Tag]
		if !ok {
			tm = &TagMinutes{Tag: r.Tag}
			byTag[r.Tag] = tm
		}
		tm.Minutes += r.TotalMinutes()
		tm.Credit = tm.Credit || r.Credit
	}

	out := make([]TagMinutes, 0, len(byTag))
	for _, tm := range byTag {
		out = append(out, *tm)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Tag < out[j].Tag })
	return out
}

// =============================================================================
// MONTH SUMMARY
// =============================================================================

// Summary bundles what a month view shows.
type Summary struct {
	Month          calendar.YearMonth `json:"month"`
	TotalHours     int                `json:"totalHours"`
	TotalMinutes   int                `json:"totalMinutes"`
	Adjusted       credit.Adjusted    `json:"adjusted"`
	GoalHours      int                `json:"goalHours"`
	Progress       float64            `json:"progress"`
	HoursRemaining float64            `json:"hoursRemaining"`
	Detailed       Detailed           `json:"detailed"`
}

// MonthSummary computes the month view; progress is measured on the
// goal-counting (credit-capped) minutes.
func MonthSummary(reports []ServiceReport, month time.Month, year int, policy credit.Policy) Summary {
	adjusted := AdjustedMinutesForSpecificMonth(reports, month, year, policy)
	countedHours := float64(adjusted.Value) / 60
	return Summary{
		Month:          calendar.YearMonth{Year: year, Month: month},
		TotalHours:     TotalHoursForSpecificMonth(reports, month, year),
		TotalMinutes:   TotalMinutesForSpecificMonth(reports, month, year),
		Adjusted:       adjusted,
		GoalHours:      policy.GoalHours,
		Progress:       CalculateProgressMinutes(adjusted.Value, float64(policy.GoalHours)),
		HoursRemaining: CalculateHoursRemaining(countedHours, float64(policy.GoalHours)),
		Detailed:       DetailedMinutesForSpecificMonth(reports, month, year),
	}
}
