package report

import (
	"time"

	"github.com/leviFrosty/witness-work-sub000/calendar"
	"github.com/shopspring/decimal"
)

// AnyYear makes HasServiceReportsForMonth ignore the year.
const AnyYear = 0

// =============================================================================
// MONTH TOTALS
// =============================================================================

// TotalHoursForSpecificMonth sums the month's reports and floors to whole
// hours.
func TotalHoursForSpecificMonth(reports []ServiceReport, month time.Month, year int) int {
	return floorHours(sumMinutes(MonthsReports(reports, month, year)))
}

// TotalHoursForCurrentMonth is TotalHoursForSpecificMonth for today's month.
func TotalHoursForCurrentMonth(reports []ServiceReport, today calendar.Day) int {
	return TotalHoursForSpecificMonth(reports, today.Month(), today.Year())
}

// TotalMinutesForSpecificMonth keeps minute precision.
func TotalMinutesForSpecificMonth(reports []ServiceReport, month time.Month, year int) int {
	return sumMinutes(MonthsReports(reports, month, year))
}

// LDCHoursForSpecificMonth totals only LDC reports.
func LDCHoursForSpecificMonth(reports []ServiceReport, month time.Month, year int) int {
	total := 0
	for _, r := range MonthsReports(reports, month, year) {
		if r.LDC {
			total += r.TotalMinutes()
		}
	}
	return floorHours(total)
}

// NonLDCHoursForSpecificMonth totals everything except LDC reports.
func NonLDCHoursForSpecificMonth(reports []ServiceReport, month time.Month, year int) int {
	total := 0
	for _, r := range MonthsReports(reports, month, year) {
		if !r.LDC {
			total += r.TotalMinutes()
		}
	}
	return floorHours(total)
}

// HasServiceReportsForMonth reports whether any report falls in the month.
// Pass AnyYear to match the month in every year.
func HasServiceReportsForMonth(reports []ServiceReport, month time.Month, year int) bool {
	for _, r := range reports {
		if r.Date.Month() != month {
			continue
		}
		if year == AnyYear || r.Date.Year() == year {
			return true
		}
	}
	return false
}

// =============================================================================
// SERVICE YEAR TOTALS
// =============================================================================

// TotalMinutesForServiceYear sums Sept 1 serviceYear .. Aug 31 serviceYear+1.
func TotalMinutesForServiceYear(reports []ServiceReport, serviceYear int) int {
	return sumMinutes(serviceYearSlice(reports, serviceYear))
}

// TotalHoursForServiceYear is TotalMinutesForServiceYear floored to hours.
func TotalHoursForServiceYear(reports []ServiceReport, serviceYear int) int {
	return floorHours(TotalMinutesForServiceYear(reports, serviceYear))
}

// =============================================================================
// GOAL PROGRESS
// =============================================================================

// CalculateProgress returns hours/goalHours clamped to [0, 1]. A goal of
// zero or less counts as met by any positive time.
func CalculateProgress(hours, goalHours float64) float64 {
	if hours <= 0 {
		return 0
	}
	if goalHours <= 0 || hours >= goalHours {
		return 1
	}
	return decimal.NewFromFloat(hours).Div(decimal.NewFromFloat(goalHours)).InexactFloat64()
}

// CalculateProgressMinutes is CalculateProgress for a minute total.
func CalculateProgressMinutes(minutes int, goalHours float64) float64 {
	hours := decimal.NewFromInt(int64(minutes)).Div(decimal.NewFromInt(60))
	return CalculateProgress(hours.InexactFloat64(), goalHours)
}

// CalculateHoursRemaining returns goalHours - hours clamped to [0, goalHours].
func CalculateHoursRemaining(hours, goalHours float64) float64 {
	if goalHours <= 0 {
		return 0
	}
	remaining := decimal.NewFromFloat(goalHours).Sub(decimal.NewFromFloat(hours))
	if remaining.IsNegative() {
		return 0
	}
	if remaining.GreaterThan(decimal.NewFromFloat(goalHours)) {
		return goalHours
	}
	return remaining.InexactFloat64()
}

// HoursPerMonthInput describes a service-year goal check.
type HoursPerMonthInput struct {
	Reports     []ServiceReport
	Current     calendar.YearMonth
	GoalHours   int
	ServiceYear int
}

// HoursPerMonthToGoal returns the average hours per month still needed to
// reach GoalHours by the end of the service year (August), counting the
// current month. With no reports in the service year it returns GoalHours
// unchanged. When no months remain it returns the whole remaining amount.
func HoursPerMonthToGoal(in HoursPerMonthInput) float64 {
	yearReports := serviceYearSlice(in.Reports, in.ServiceYear)
	if len(yearReports) == 0 {
		return float64(in.GoalHours)
	}

	done := decimal.NewFromInt(int64(sumMinutes(yearReports))).Div(decimal.NewFromInt(60))
	remaining := decimal.NewFromInt(int64(in.GoalHours)).Sub(done)
	if !remaining.IsPositive() {
		return 0
	}

	months := calendar.MonthsRemainingInServiceYear(in.Current, in.ServiceYear)
	if months == 0 {
		return remaining.InexactFloat64()
	}
	return remaining.Div(decimal.NewFromInt(int64(months))).Round(2).InexactFloat64()
}

// HoursPerDayToGoal returns the hours per day needed to reach goalHours by
// the end of today's month, counting today. Zero days left returns the whole
// remaining amount.
func HoursPerDayToGoal(minutesDone int, goalHours int, today calendar.Day) float64 {
	remaining := decimal.NewFromInt(int64(goalHours*60 - minutesDone)).Div(decimal.NewFromInt(60))
	if !remaining.IsPositive() {
		return 0
	}

	daysLeft := calendar.Period{Start: today, End: calendar.EndOfMonth(today.Year(), today.Month())}.Len()
	if daysLeft == 0 {
		return remaining.InexactFloat64()
	}
	return remaining.Div(decimal.NewFromInt(int64(daysLeft))).Round(2).InexactFloat64()
}
