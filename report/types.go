/*
Package report aggregates logged service time.

PURPOSE:
  Answers the questions the app asks about a user's ServiceReports: how many
  hours this month, how much of it counts toward the goal once credit is
  capped, how far along the service year is, and how many hours per month
  are still needed.

KEY CONCEPTS IN THIS FILE (types.go):
  - ServiceReport: one logged unit of time
  - ByYears: year -> month -> reports index kept consistent with each
    report's date

ARITHMETIC:
  Totals are kept in minutes (hours*60 + minutes) and floored to whole hours
  only at the edge. Inputs are trusted for shape, not sanity: negative or
  oversized minutes propagate into the totals and never panic.

SEE ALSO:
  - totals.go:   month/service-year totals and goal progress
  - adjusted.go: credit split and per-tag breakdown
*/
package report

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/leviFrosty/witness-work-sub000/calendar"
)

// =============================================================================
// SERVICE REPORT
// =============================================================================

// ServiceReport is a logged unit of time.
type ServiceReport struct {
	ID      string    `json:"id"`
	Date    time.Time `json:"date"`
	Hours   int       `json:"hours"`
	Minutes int       `json:"minutes"`
	LDC     bool      `json:"ldc,omitempty"`
	Tag     string    `json:"tag,omitempty"`
	Credit  bool      `json:"credit,omitempty"`
}

// TotalMinutes is hours*60 + minutes.
func (r ServiceReport) TotalMinutes() int {
	return r.Hours*60 + r.Minutes
}

// IsCredit reports whether the time counts as credit: LDC, or a tag marked
// credit.
func (r ServiceReport) IsCredit() bool {
	return r.LDC || (r.Tag != "" && r.Credit)
}

// Day returns the report's calendar day.
func (r ServiceReport) Day() calendar.Day {
	return calendar.DayOf(r.Date)
}

// InMonth reports whether the report falls in the given month.
func (r ServiceReport) InMonth(month time.Month, year int) bool {
	return r.Date.Month() == month && r.Date.Year() == year
}

// NewID returns a fresh report id.
func NewID() string {
	return uuid.NewString()
}

// =============================================================================
// BY YEARS - year -> month -> reports
// =============================================================================

// ByYears is the denormalized month index. Each report sits in the bucket of
// its own Date; mutate it only through Add/Update/Delete.
type ByYears map[int]map[time.Month][]ServiceReport

// Index builds a ByYears from a flat list.
func Index(reports []ServiceReport) ByYears {
	by := ByYears{}
	for _, r := range reports {
		by.Add(r)
	}
	return by
}

// Add inserts r into its bucket, keeping the bucket ordered by date.
func (by ByYears) Add(r ServiceReport) {
	year, month := r.Date.Year(), r.Date.Month()
	if by[year] == nil {
		by[year] = make(map[time.Month][]ServiceReport)
	}
	bucket := by[year][month]

	i := sort.Search(len(bucket), func(i int) bool {
		return bucket[i].Date.After(r.Date)
	})
	bucket = append(bucket, ServiceReport{})
	copy(bucket[i+1:], bucket[i:])
	bucket[i] = r
	by[year][month] = bucket
}

// Delete removes the report with id. Returns false if it was not indexed.
func (by ByYears) Delete(id string) bool {
	for year, months := range by {
		for month, bucket := range months {
			for i, r := range bucket {
				if r.ID != id {
					continue
				}
				by[year][month] = append(bucket[:i:i], bucket[i+1:]...)
				if len(by[year][month]) == 0 {
					delete(by[year], month)
				}
				if len(by[year]) == 0 {
					delete(by, year)
				}
				return true
			}
		}
	}
	return false
}

// Update replaces the report with the same id, moving it between buckets
// when its date changed. Returns false if no such report exists.
func (by ByYears) Update(r ServiceReport) bool {
	if !by.Delete(r.ID) {
		return false
	}
	by.Add(r)
	return true
}

// Month returns the reports in a month bucket.
func (by ByYears) Month(year int, month time.Month) []ServiceReport {
	return by[year][month]
}

// All flattens the index in date order.
func (by ByYears) All() []ServiceReport {
	var out []ServiceReport
	for _, months := range by {
		for _, bucket := range months {
			out = append(out, bucket...)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// =============================================================================
// SELECTION
// =============================================================================

// MonthsReports returns the reports dated in the given month.
func MonthsReports(reports []ServiceReport, month time.Month, year int) []ServiceReport {
	var out []ServiceReport
	for _, r := range reports {
		if r.InMonth(month, year) {
			out = append(out, r)
		}
	}
	return out
}

// ServiceYearReports indexes the reports inside the service-year window.
func ServiceYearReports(reports []ServiceReport, serviceYear int) ByYears {
	window := calendar.ServiceYearPeriod(serviceYear)
	by := ByYears{}
	for _, r := range reports {
		if window.Contains(r.Day()) {
			by.Add(r)
		}
	}
	return by
}

func serviceYearSlice(reports []ServiceReport, serviceYear int) []ServiceReport {
	window := calendar.ServiceYearPeriod(serviceYear)
	var out []ServiceReport
	for _, r := range reports {
		if window.Contains(r.Day()) {
			out = append(out, r)
		}
	}
	return out
}

func sumMinutes(reports []ServiceReport) int {
	total := 0
	for _, r := range reports {
		total += r.TotalMinutes()
	}
	return total
}

// floorHours floors toward negative infinity so negative totals stay
// consistent with whole-hour flooring of positive ones.
func floorHours(minutes int) int {
	h := minutes / 60
	if minutes%60 != 0 && minutes < 0 {
		h--
	}
	return h
}
