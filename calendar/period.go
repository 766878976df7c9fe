package calendar

import (
	"fmt"
	"time"
)

// =============================================================================
// PERIOD - Inclusive window of days
// =============================================================================

// Period is the inclusive window [Start, End].
type Period struct {
	Start Day
	End   Day
}

// Contains returns true if d is within [Start, End].
func (p Period) Contains(d Day) bool {
	return d.AfterOrEqual(p.Start) && d.BeforeOrEqual(p.End)
}

// Days returns every day in the period. Empty when End is before Start.
func (p Period) Days() []Day {
	var days []Day
	for current := p.Start; current.BeforeOrEqual(p.End); current = current.AddDays(1) {
		days = append(days, current)
	}
	return days
}

// Len is the number of days in the period, 0 when empty.
func (p Period) Len() int {
	if p.End.Before(p.Start) {
		return 0
	}
	return DaysBetween(p.Start, p.End) + 1
}

// Clamp returns the overlap of p and other. The result is empty (End before
// Start) when they do not overlap.
func (p Period) Clamp(other Period) Period {
	out := p
	if other.Start.After(out.Start) {
		out.Start = other.Start
	}
	if other.End.Before(out.End) {
		out.End = other.End
	}
	return out
}

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// MonthPeriod is the whole calendar month.
func MonthPeriod(month time.Month, year int) Period {
	return Period{Start: StartOfMonth(year, month), End: EndOfMonth(year, month)}
}

// =============================================================================
// SERVICE YEAR - Sept 1 through Aug 31
// =============================================================================

// ServiceYearStartMonth opens every service year.
const ServiceYearStartMonth = time.September

// PeriodFor returns the twelve-month period starting on the first of
// startMonth that contains d.
func PeriodFor(d Day, startMonth time.Month) Period {
	start := NewDay(d.Year(), startMonth, 1)

	// Before this year's start month: we're in the previous period
	if d.Before(start) {
		start = NewDay(d.Year()-1, startMonth, 1)
	}

	end := NewDay(start.Year()+1, startMonth, 1).AddDays(-1)
	return Period{Start: start, End: end}
}

// ServiceYearOf returns Y for the service year [Sept 1 Y, Aug 31 Y+1]
// containing d.
func ServiceYearOf(d Day) int {
	return PeriodFor(d, ServiceYearStartMonth).Start.Year()
}

// ServiceYearFromDate is ServiceYearOf for a timestamp.
func ServiceYearFromDate(t time.Time) int {
	return ServiceYearOf(DayOf(t))
}

// ServiceYearPeriod returns [Sept 1 serviceYear, Aug 31 serviceYear+1].
func ServiceYearPeriod(serviceYear int) Period {
	return PeriodFor(NewDay(serviceYear, ServiceYearStartMonth, 1), ServiceYearStartMonth)
}

// =============================================================================
// YEAR MONTH
// =============================================================================

// YearMonth names a calendar month.
type YearMonth struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

func (ym YearMonth) Next() YearMonth {
	if ym.Month == time.December {
		return YearMonth{Year: ym.Year + 1, Month: time.January}
	}
	return YearMonth{Year: ym.Year, Month: ym.Month + 1}
}

func (ym YearMonth) Before(other YearMonth) bool {
	if ym.Year != other.Year {
		return ym.Year < other.Year
	}
	return ym.Month < other.Month
}

func (ym YearMonth) Period() Period { return MonthPeriod(ym.Month, ym.Year) }

func (ym YearMonth) String() string { return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month)) }

// ServiceYearMonths lists the twelve months of a service year in order.
func ServiceYearMonths(serviceYear int) []YearMonth {
	months := make([]YearMonth, 0, 12)
	ym := YearMonth{Year: serviceYear, Month: ServiceYearStartMonth}
	for i := 0; i < 12; i++ {
		months = append(months, ym)
		ym = ym.Next()
	}
	return months
}

// MonthsRemainingInServiceYear counts from ym through August of the service
// year, inclusive. Months outside the service year yield 0 or 12 accordingly.
func MonthsRemainingInServiceYear(ym YearMonth, serviceYear int) int {
	last := YearMonth{Year: serviceYear + 1, Month: ServiceYearStartMonth - 1}
	first := YearMonth{Year: serviceYear, Month: ServiceYearStartMonth}
	if last.Before(ym) {
		return 0
	}
	if ym.Before(first) {
		return 12
	}
	return (last.Year-ym.Year)*12 + int(last.Month) - int(ym.Month) + 1
}
