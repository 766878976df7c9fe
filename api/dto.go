/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication that are not already
  domain types. Plans, overrides, reports and resolutions are served as
  their domain types directly since those carry their own JSON tags.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done in handlers (plan.Validate, factory.ParsePreferences),
  not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"fmt"
	"time"

	"github.com/leviFrosty/witness-work-sub000/calendar"
	"github.com/leviFrosty/witness-work-sub000/report"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// ReportRequest creates or replaces a service report. Date accepts either
// "2006-01-02" or an RFC 3339 timestamp.
type ReportRequest struct {
	Date    string `json:"date"`
	Hours   int    `json:"hours"`
	Minutes int    `json:"minutes"`
	LDC     bool   `json:"ldc,omitempty"`
	Tag     string `json:"tag,omitempty"`
	Credit  bool   `json:"credit,omitempty"`
}

func (req ReportRequest) toReport(id string) (report.ServiceReport, error) {
	if req.Date == "" {
		return report.ServiceReport{}, fmt.Errorf("date is required")
	}
	date, err := time.Parse(time.RFC3339, req.Date)
	if err != nil {
		day, dayErr := calendar.ParseDay(req.Date)
		if dayErr != nil {
			return report.ServiceReport{}, dayErr
		}
		date = day.Time()
	}
	if req.Hours < 0 || req.Minutes < 0 {
		return report.ServiceReport{}, fmt.Errorf("hours and minutes must not be negative")
	}
	return report.ServiceReport{
		ID:      id,
		Date:    date,
		Hours:   req.Hours,
		Minutes: req.Minutes,
		LDC:     req.LDC,
		Tag:     req.Tag,
		Credit:  req.Credit,
	}, nil
}

// DayPlanRequest creates a day plan. An existing plan on the same date is
// overwritten.
type DayPlanRequest struct {
	Date    calendar.Day `json:"date"`
	Minutes int          `json:"minutes"`
	Note    string       `json:"note,omitempty"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// MonthReportDTO is the month view.
type MonthReportDTO struct {
	report.Summary
	LDCHours          int                 `json:"ldcHours"`
	NonLDCHours       int                 `json:"nonLdcHours"`
	HasReports        bool                `json:"hasReports"`
	OtherMinutes      []report.TagMinutes `json:"otherMinutes"`
	HoursPerDayToGoal *float64            `json:"hoursPerDayToGoal,omitempty"` // current month only
}

// ServiceYearDTO is the service-year view.
type ServiceYearDTO struct {
	ServiceYear         int             `json:"serviceYear"`
	Period              PeriodDTO       `json:"period"`
	TotalHours          int             `json:"totalHours"`
	AnnualGoalHours     int             `json:"annualGoalHours"`
	Progress            float64         `json:"progress"`
	HoursRemaining      float64         `json:"hoursRemaining"`
	HoursPerMonthToGoal float64         `json:"hoursPerMonthToGoal"`
	Months              []MonthTotalDTO `json:"months"`
}

type MonthTotalDTO struct {
	Month      calendar.YearMonth `json:"month"`
	TotalHours int                `json:"totalHours"`
}

type PeriodDTO struct {
	Start calendar.Day `json:"start"`
	End   calendar.Day `json:"end"`
}

// PlannedMonthDTO reports a month's planned minutes.
type PlannedMonthDTO struct {
	Month                calendar.YearMonth `json:"month"`
	PlannedMinutes       int                `json:"plannedMinutes"`
	PlannedMinutesToDate int                `json:"plannedMinutesToDate"`
	PlanHash             string             `json:"planHash"`
}

type PlannedServiceYearDTO struct {
	ServiceYear    int    `json:"serviceYear"`
	PlannedMinutes int    `json:"plannedMinutes"`
	PlanHash       string `json:"planHash"`
}

type PlannedDayDTO struct {
	Date           calendar.Day `json:"date"`
	PlannedMinutes int          `json:"plannedMinutes"`
}

// MonthOverview pairs a month summary with its planned minutes.
type MonthOverview struct {
	report.Summary
	PlannedMinutes       int `json:"plannedMinutes"`
	PlannedMinutesToDate int `json:"plannedMinutesToDate"`
}

// RRuleDTO is the RFC 5545 rendering of a recurring plan.
type RRuleDTO struct {
	PlanID string `json:"planId"`
	RRule  string `json:"rrule"`
	Set    string `json:"set"`
}

// ErrorResponse is the error response format.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
