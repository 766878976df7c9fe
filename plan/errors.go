package plan

import (
	"errors"
	"fmt"
	"time"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrPlanNotFound is returned by adapters when an id matches no plan.
	// The core itself treats unknown ids as no-ops.
	ErrPlanNotFound = errors.New("plan not found")

	// ErrInvalidPlan is wrapped by every ValidationError.
	ErrInvalidPlan = errors.New("invalid plan")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// ValidationError names the offending field.
type ValidationError struct {
	PlanID string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid plan %q: %s: %s", e.PlanID, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidPlan
}

// IsNotFound returns true if the error indicates a missing plan.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPlanNotFound)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidPlan)
}

// =============================================================================
// VALIDATION - For the form/adapter layer; aggregation never calls this
// =============================================================================

// Validate checks a recurring plan's shape.
func Validate(p RecurringPlan) error {
	fail := func(field, reason string) error {
		return &ValidationError{PlanID: p.ID, Field: field, Reason: reason}
	}

	if p.StartDate.IsZero() {
		return fail("startDate", "required")
	}
	if p.Minutes < 0 {
		return fail("minutes", "must not be negative")
	}

	r := p.Recurrence
	switch r.Frequency {
	case Weekly, BiWeekly, Monthly:
	case MonthlyByWeekday:
		if cfg := r.MonthlyByWeekdayConfig; cfg != nil {
			if cfg.Weekday < time.Sunday || cfg.Weekday > time.Saturday {
				return fail("recurrence.monthlyByWeekdayConfig.weekday", "must be 0-6")
			}
			if cfg.WeekOfMonth != LastWeekOfMonth && (cfg.WeekOfMonth < 1 || cfg.WeekOfMonth > 4) {
				return fail("recurrence.monthlyByWeekdayConfig.weekOfMonth", "must be 1-4 or -1")
			}
		}
	default:
		return fail("recurrence.frequency", fmt.Sprintf("unknown frequency %q", r.Frequency))
	}

	if r.Interval < 0 {
		return fail("recurrence.interval", "must not be negative")
	}
	if r.EndDate != nil && r.EndDate.Before(p.StartDate) {
		return fail("recurrence.endDate", "before startDate")
	}

	for _, o := range p.Overrides {
		if o.Minutes < 0 {
			return fail("overrides", fmt.Sprintf("negative minutes on %s", o.Date))
		}
	}
	return nil
}

// ValidateDayPlan checks a day plan's shape.
func ValidateDayPlan(dp DayPlan) error {
	if dp.Date.IsZero() {
		return &ValidationError{PlanID: dp.ID, Field: "date", Reason: "required"}
	}
	if dp.Minutes < 0 {
		return &ValidationError{PlanID: dp.ID, Field: "minutes", Reason: "must not be negative"}
	}
	return nil
}
