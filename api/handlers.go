/*
handlers.go - HTTP API handlers for the planning and reporting engine

PURPOSE:
  Exposes reports, plans, planned minutes and preferences via REST API.
  Handles HTTP request/response and JSON serialization, and delegates the
  arithmetic to report, plan and planning.

ENDPOINTS:
  Reports:
    GET    /api/reports                          List reports (?year=&month=)
    POST   /api/reports                          Log a report
    PUT    /api/reports/{id}                     Replace a report
    DELETE /api/reports/{id}                     Delete a report
    GET    /api/reports/month                    Month summary (?year=&month=)
    GET    /api/reports/service-year/{sy}        Service-year summary

  Plans:
    GET    /api/plans/day                        List day plans
    POST   /api/plans/day                        Add/overwrite a day plan
    PUT    /api/plans/day/{id}                   Replace a day plan
    DELETE /api/plans/day/{id}                   Delete a day plan
    GET    /api/plans/recurring                  List recurring plans
    POST   /api/plans/recurring                  Add a recurring plan
    PUT    /api/plans/recurring/{id}             Replace a recurring plan
    DELETE /api/plans/recurring/{id}             Delete a recurring plan
    GET    /api/plans/recurring/{id}/date/{date} Resolve a plan on a date
    POST   /api/plans/recurring/{id}/overrides   Add an override
    PUT    /api/plans/recurring/{id}/overrides   Update an existing override
    DELETE .../overrides/{date}                  Remove an override
    POST   .../deleted-dates/{date}              Delete one occurrence
                                                 (?future=true: and all after)
    DELETE .../deleted-dates/{date}              Restore an occurrence
    GET    .../occurrences                       Occurrences (?from=&to=)
    GET    .../rrule                             RFC 5545 rendering
    DELETE /api/plans                            Delete every plan

  Planned minutes:
    GET    /api/planned                          Month (?year=&month=)
    GET    /api/planned/service-year/{sy}        Service year
    GET    /api/planned/day/{date}               Single day

  Other:
    GET/PUT /api/preferences                     Preferences document
    GET/DELETE /api/cache                        Inspect / clear cache

ARCHITECTURE:
  Handler holds the working set in memory (reports indexed by month, plan
  state, preferences) behind an RWMutex. Every mutation is applied to a
  copy, written through to the Store, and only then swapped in, so a failed
  write leaves memory unchanged.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - scheduler.go: Background cache warmer
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/leviFrosty/witness-work-sub000/cache"
	"github.com/leviFrosty/witness-work-sub000/calendar"
	"github.com/leviFrosty/witness-work-sub000/credit"
	"github.com/leviFrosty/witness-work-sub000/factory"
	"github.com/leviFrosty/witness-work-sub000/plan"
	"github.com/leviFrosty/witness-work-sub000/planning"
	"github.com/leviFrosty/witness-work-sub000/report"
	"github.com/leviFrosty/witness-work-sub000/store/sqlite"
)

var errBadRequest = errors.New("bad request")

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store              *sqlite.Store
	Cache              *cache.Memory
	Planner            *planning.Planner
	PreferencesFactory *factory.PreferencesFactory
	Logger             *slog.Logger

	now func() time.Time

	mu      sync.RWMutex
	reports report.ByYears
	plans   plan.State
	prefs   credit.Preferences
}

type Option func(*Handler)

// WithClock sets the clock for "today" (handler and planner).
func WithClock(now func() time.Time) Option {
	return func(h *Handler) { h.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) { h.Logger = l }
}

// NewHandler creates a new handler with the given store.
func NewHandler(store *sqlite.Store, opts ...Option) *Handler {
	h := &Handler{
		Store:              store,
		PreferencesFactory: factory.NewPreferencesFactory(),
		Logger:             slog.Default(),
		now:                time.Now,
		reports:            report.ByYears{},
		prefs:              factory.DefaultPreferences(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.Cache = cache.NewMemory(cache.WithClock(h.now))
	h.Planner = planning.NewPlanner(h.Cache, planning.WithClock(h.now), planning.WithLogger(h.Logger))
	return h
}

// Load reads reports, plans, preferences and the cache snapshot from the
// store.
func (h *Handler) Load(ctx context.Context) error {
	reports, err := h.Store.ListReports(ctx)
	if err != nil {
		return fmt.Errorf("loading reports: %w", err)
	}
	plans, err := h.Store.LoadPlans(ctx)
	if err != nil {
		return fmt.Errorf("loading plans: %w", err)
	}
	prefs, err := h.Store.GetPreferences(ctx)
	if err != nil {
		return fmt.Errorf("loading preferences: %w", err)
	}
	entries, err := h.Store.LoadCacheEntries(ctx)
	if err != nil {
		return fmt.Errorf("loading cache: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.reports = report.Index(reports)
	h.plans = plans
	if prefs != nil {
		h.prefs = *prefs
	}
	h.Cache.Restore(entries)

	h.Logger.InfoContext(ctx, "state loaded",
		"reports", len(reports),
		"dayPlans", len(plans.DayPlans),
		"recurringPlans", len(plans.RecurringPlans),
		"cacheEntries", len(entries))
	return nil
}

// FlushCache persists the cache snapshot.
func (h *Handler) FlushCache(ctx context.Context) error {
	return h.Store.SaveCacheEntries(ctx, h.Cache.Snapshot())
}

func (h *Handler) today() calendar.Day {
	return calendar.DayOf(h.now())
}

// snapshot returns the current reports, plans and preferences.
func (h *Handler) snapshot() ([]report.ServiceReport, plan.State, credit.Preferences) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.reports.All(), h.plans, h.prefs
}

func (h *Handler) planState() plan.State {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.plans
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// ListReports returns reports, optionally limited to ?year=&month=.
func (h *Handler) ListReports(w http.ResponseWriter, r *http.Request) {
	reports, _, _ := h.snapshot()

	if r.URL.Query().Get("month") != "" {
		ym, err := h.parseYearMonth(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid month", err)
			return
		}
		reports = report.MonthsReports(reports, ym.Month, ym.Year)
	}
	if reports == nil {
		reports = []report.ServiceReport{}
	}
	writeJSON(w, http.StatusOK, reports)
}

// CreateReport logs a new report.
func (h *Handler) CreateReport(w http.ResponseWriter, r *http.Request) {
	var req ReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	rep, err := req.toReport(report.NewID())
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid report", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.Store.SaveReport(r.Context(), rep); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save report", err)
		return
	}
	h.reports.Add(rep)

	writeJSON(w, http.StatusCreated, rep)
}

// UpdateReport replaces a report, moving it between months if its date
// changed.
func (h *Handler) UpdateReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req ReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	rep, err := req.toReport(id)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid report", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.hasReportLocked(id) {
		writeError(w, http.StatusNotFound, "Report not found", nil)
		return
	}
	if err := h.Store.SaveReport(r.Context(), rep); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save report", err)
		return
	}
	h.reports.Update(rep)

	writeJSON(w, http.StatusOK, rep)
}

// DeleteReport removes a report.
func (h *Handler) DeleteReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.hasReportLocked(id) {
		writeError(w, http.StatusNotFound, "Report not found", nil)
		return
	}
	if err := h.Store.DeleteReport(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete report", err)
		return
	}
	h.reports.Delete(id)

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) hasReportLocked(id string) bool {
	for _, rep := range h.reports.All() {
		if rep.ID == id {
			return true
		}
	}
	return false
}

// GetMonthReport returns the month summary for ?year=&month= (default: the
// current month).
func (h *Handler) GetMonthReport(w http.ResponseWriter, r *http.Request) {
	ym, err := h.parseYearMonth(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month", err)
		return
	}

	reports, _, prefs := h.snapshot()
	policy := prefs.Policy()

	dto := MonthReportDTO{
		Summary:      report.MonthSummary(reports, ym.Month, ym.Year, policy),
		LDCHours:     report.LDCHoursForSpecificMonth(reports, ym.Month, ym.Year),
		NonLDCHours:  report.NonLDCHoursForSpecificMonth(reports, ym.Month, ym.Year),
		HasReports:   report.HasServiceReportsForMonth(reports, ym.Month, ym.Year),
		OtherMinutes: report.OtherMinutesForSpecificMonth(reports, ym.Month, ym.Year),
	}
	if today := h.today(); today.YearMonth() == ym {
		perDay := report.HoursPerDayToGoal(dto.Adjusted.Value, policy.GoalHours, today)
		dto.HoursPerDayToGoal = &perDay
	}

	writeJSON(w, http.StatusOK, dto)
}

// GetServiceYearReport returns the service-year summary.
func (h *Handler) GetServiceYearReport(w http.ResponseWriter, r *http.Request) {
	sy, err := strconv.Atoi(chi.URLParam(r, "sy"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid service year", err)
		return
	}

	reports, _, prefs := h.snapshot()
	goal := prefs.AnnualGoalHours()
	total := report.TotalHoursForServiceYear(reports, sy)
	period := calendar.ServiceYearPeriod(sy)

	current := h.today().YearMonth()
	dto := ServiceYearDTO{
		ServiceYear:     sy,
		Period:          PeriodDTO{Start: period.Start, End: period.End},
		TotalHours:      total,
		AnnualGoalHours: goal,
		Progress:        report.CalculateProgressMinutes(report.TotalMinutesForServiceYear(reports, sy), float64(goal)),
		HoursRemaining:  report.CalculateHoursRemaining(float64(total), float64(goal)),
		HoursPerMonthToGoal: report.HoursPerMonthToGoal(report.HoursPerMonthInput{
			Reports:     reports,
			Current:     current,
			GoalHours:   goal,
			ServiceYear: sy,
		}),
	}
	for _, ym := range calendar.ServiceYearMonths(sy) {
		dto.Months = append(dto.Months, MonthTotalDTO{
			Month:      ym,
			TotalHours: report.TotalHoursForSpecificMonth(reports, ym.Month, ym.Year),
		})
	}

	writeJSON(w, http.StatusOK, dto)
}

// =============================================================================
// DAY PLAN HANDLERS
// =============================================================================

func (h *Handler) ListDayPlans(w http.ResponseWriter, r *http.Request) {
	plans := h.planState().DayPlans
	if plans == nil {
		plans = []plan.DayPlan{}
	}
	writeJSON(w, http.StatusOK, plans)
}

// CreateDayPlan adds a day plan, overwriting any plan on the same date.
func (h *Handler) CreateDayPlan(w http.ResponseWriter, r *http.Request) {
	var req DayPlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	dp := plan.DayPlan{Date: req.Date, Minutes: req.Minutes, Note: req.Note}
	if err := plan.ValidateDayPlan(dp); err != nil {
		writeDomainError(w, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	next := h.plans
	stored := next.AddDayPlan(dp)
	if err := h.Store.SaveDayPlan(r.Context(), stored); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save day plan", err)
		return
	}
	h.plans = next

	writeJSON(w, http.StatusCreated, stored)
}

// UpdateDayPlan replaces a day plan. Moving it onto a date that already has
// a plan replaces that plan.
func (h *Handler) UpdateDayPlan(w http.ResponseWriter, r *http.Request) {
	var req DayPlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	dp := plan.DayPlan{ID: chi.URLParam(r, "id"), Date: req.Date, Minutes: req.Minutes, Note: req.Note}
	if err := plan.ValidateDayPlan(dp); err != nil {
		writeDomainError(w, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	next := h.plans
	if !next.UpdateDayPlan(dp) {
		writeDomainError(w, plan.ErrPlanNotFound)
		return
	}
	if err := h.Store.SaveDayPlan(r.Context(), dp); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save day plan", err)
		return
	}
	h.plans = next

	writeJSON(w, http.StatusOK, dp)
}

func (h *Handler) DeleteDayPlan(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	h.mu.Lock()
	defer h.mu.Unlock()

	next := h.plans
	if !next.DeleteDayPlan(id) {
		writeDomainError(w, plan.ErrPlanNotFound)
		return
	}
	if err := h.Store.DeleteDayPlan(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete day plan", err)
		return
	}
	h.plans = next

	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// RECURRING PLAN HANDLERS
// =============================================================================

func (h *Handler) ListRecurringPlans(w http.ResponseWriter, r *http.Request) {
	plans := h.planState().RecurringPlans
	if plans == nil {
		plans = []plan.RecurringPlan{}
	}
	writeJSON(w, http.StatusOK, plans)
}

func (h *Handler) CreateRecurringPlan(w http.ResponseWriter, r *http.Request) {
	var p plan.RecurringPlan
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	p.ID = ""
	if err := plan.Validate(p); err != nil {
		writeDomainError(w, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	next := h.plans
	stored := next.AddRecurringPlan(p)
	if err := h.Store.SaveRecurringPlan(r.Context(), stored); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save recurring plan", err)
		return
	}
	h.plans = next

	writeJSON(w, http.StatusCreated, stored)
}

func (h *Handler) UpdateRecurringPlan(w http.ResponseWriter, r *http.Request) {
	var p plan.RecurringPlan
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	p.ID = chi.URLParam(r, "id")
	if err := plan.Validate(p); err != nil {
		writeDomainError(w, err)
		return
	}

	stored, err := h.mutateRecurring(r.Context(), p.ID, func(s *plan.State) {
		s.UpdateRecurringPlan(p)
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

func (h *Handler) DeleteRecurringPlan(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	h.mu.Lock()
	defer h.mu.Unlock()

	next := h.plans
	if !next.DeleteRecurringPlan(id) {
		writeDomainError(w, plan.ErrPlanNotFound)
		return
	}
	if err := h.Store.DeleteRecurringPlan(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete recurring plan", err)
		return
	}
	h.plans = next

	w.WriteHeader(http.StatusNoContent)
}

// DeleteAllPlans removes every plan and clears the cache.
func (h *Handler) DeleteAllPlans(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.Store.DeleteAllPlans(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete plans", err)
		return
	}
	h.plans.DeleteAllPlans()
	h.Cache.InvalidateAll()

	h.Logger.InfoContext(r.Context(), "all plans deleted")
	w.WriteHeader(http.StatusNoContent)
}

// GetRecurringPlanForDate resolves a plan on a date, applying any override.
func (h *Handler) GetRecurringPlanForDate(w http.ResponseWriter, r *http.Request) {
	d, err := calendar.ParseDay(chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}

	res := h.planState().RecurringPlanForDate(chi.URLParam(r, "id"), d)
	if res == nil {
		writeDomainError(w, plan.ErrPlanNotFound)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// AddOverride inserts (or replaces) the override on the body's date.
func (h *Handler) AddOverride(w http.ResponseWriter, r *http.Request) {
	h.override(w, r, (*plan.State).AddRecurringPlanOverride)
}

// UpdateOverride replaces the override on the body's date.
func (h *Handler) UpdateOverride(w http.ResponseWriter, r *http.Request) {
	h.override(w, r, (*plan.State).UpdateRecurringPlanOverride)
}

func (h *Handler) override(w http.ResponseWriter, r *http.Request, apply func(*plan.State, string, plan.Override)) {
	var o plan.Override
	if err := json.NewDecoder(r.Body).Decode(&o); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	id := chi.URLParam(r, "id")
	if o.Date.IsZero() || o.Minutes < 0 {
		writeDomainError(w, &plan.ValidationError{PlanID: id, Field: "override", Reason: "date required and minutes must not be negative"})
		return
	}

	stored, err := h.mutateRecurring(r.Context(), id, func(s *plan.State) { apply(s, id, o) })
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

func (h *Handler) RemoveOverride(w http.ResponseWriter, r *http.Request) {
	h.withDate(w, r, (*plan.State).RemoveRecurringPlanOverride)
}

// DeleteOccurrence soft-deletes one occurrence, or with ?future=true ends
// the plan at that date.
func (h *Handler) DeleteOccurrence(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("future") == "true" {
		h.withDate(w, r, (*plan.State).DeleteEventAndFutureEvents)
		return
	}
	h.withDate(w, r, (*plan.State).DeleteSingleEventFromRecurringPlan)
}

func (h *Handler) RestoreOccurrence(w http.ResponseWriter, r *http.Request) {
	h.withDate(w, r, (*plan.State).RestoreRecurringPlanInstance)
}

func (h *Handler) withDate(w http.ResponseWriter, r *http.Request, apply func(*plan.State, string, calendar.Day)) {
	d, err := calendar.ParseDay(chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}
	id := chi.URLParam(r, "id")

	stored, err := h.mutateRecurring(r.Context(), id, func(s *plan.State) { apply(s, id, d) })
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

// mutateRecurring applies fn to a copy of the plans and persists plan id.
func (h *Handler) mutateRecurring(ctx context.Context, id string, fn func(s *plan.State)) (plan.RecurringPlan, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.plans.RecurringPlan(id); !ok {
		return plan.RecurringPlan{}, plan.ErrPlanNotFound
	}

	next := h.plans
	fn(&next)
	updated, _ := next.RecurringPlan(id)

	if err := h.Store.SaveRecurringPlan(ctx, updated); err != nil {
		return plan.RecurringPlan{}, fmt.Errorf("saving recurring plan %s: %w", id, err)
	}
	h.plans = next
	return updated, nil
}

// ListOccurrences returns the plan's live occurrences in ?from=&to=
// (default: the current month).
func (h *Handler) ListOccurrences(w http.ResponseWriter, r *http.Request) {
	p, ok := h.planState().RecurringPlan(chi.URLParam(r, "id"))
	if !ok {
		writeDomainError(w, plan.ErrPlanNotFound)
		return
	}

	today := h.today()
	period := calendar.MonthPeriod(today.Month(), today.Year())
	if from := r.URL.Query().Get("from"); from != "" {
		d, err := calendar.ParseDay(from)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid from", err)
			return
		}
		period.Start = d
	}
	if to := r.URL.Query().Get("to"); to != "" {
		d, err := calendar.ParseDay(to)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid to", err)
			return
		}
		period.End = d
	}

	occ := plan.Occurrences(p, period)
	if occ == nil {
		occ = []plan.Occurrence{}
	}
	writeJSON(w, http.StatusOK, occ)
}

// GetRRule renders the plan as RFC 5545.
func (h *Handler) GetRRule(w http.ResponseWriter, r *http.Request) {
	p, ok := h.planState().RecurringPlan(chi.URLParam(r, "id"))
	if !ok {
		writeDomainError(w, plan.ErrPlanNotFound)
		return
	}

	rule, err := plan.RRule(p)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	set, err := plan.RRuleSet(p)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, RRuleDTO{PlanID: p.ID, RRule: rule.String(), Set: set.String()})
}

// =============================================================================
// PLANNED MINUTES HANDLERS
// =============================================================================

// GetPlannedMonth returns planned minutes for ?year=&month= (default: the
// current month), whole month and up to today.
func (h *Handler) GetPlannedMonth(w http.ResponseWriter, r *http.Request) {
	ym, err := h.parseYearMonth(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month", err)
		return
	}

	ctx := r.Context()
	state := h.planState()
	writeJSON(w, http.StatusOK, PlannedMonthDTO{
		Month:                ym,
		PlannedMinutes:       h.Planner.MonthlyPlannedMinutes(ctx, state, ym.Month, ym.Year),
		PlannedMinutesToDate: h.Planner.PlannedMinutesToCurrentDay(ctx, state, ym.Month, ym.Year),
		PlanHash:             planning.GeneratePlanHash(state.DayPlans, state.RecurringPlans),
	})
}

func (h *Handler) GetPlannedServiceYear(w http.ResponseWriter, r *http.Request) {
	sy, err := strconv.Atoi(chi.URLParam(r, "sy"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid service year", err)
		return
	}

	state := h.planState()
	writeJSON(w, http.StatusOK, PlannedServiceYearDTO{
		ServiceYear:    sy,
		PlannedMinutes: h.Planner.AnnualPlannedMinutes(r.Context(), state, sy),
		PlanHash:       planning.GeneratePlanHash(state.DayPlans, state.RecurringPlans),
	})
}

func (h *Handler) GetPlannedDay(w http.ResponseWriter, r *http.Request) {
	d, err := calendar.ParseDay(chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}
	writeJSON(w, http.StatusOK, PlannedDayDTO{
		Date:           d,
		PlannedMinutes: planning.PlannedMinutesForDay(h.planState(), d),
	})
}

// Summary computes the month view and planned minutes for ym, outside of
// HTTP.
func (h *Handler) Summary(ctx context.Context, ym calendar.YearMonth) MonthOverview {
	reports, state, prefs := h.snapshot()
	return MonthOverview{
		Summary:              report.MonthSummary(reports, ym.Month, ym.Year, prefs.Policy()),
		PlannedMinutes:       h.Planner.MonthlyPlannedMinutes(ctx, state, ym.Month, ym.Year),
		PlannedMinutesToDate: h.Planner.PlannedMinutesToCurrentDay(ctx, state, ym.Month, ym.Year),
	}
}

// =============================================================================
// PREFERENCES & CACHE HANDLERS
// =============================================================================

func (h *Handler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	_, _, prefs := h.snapshot()
	writeJSON(w, http.StatusOK, h.PreferencesFactory.ToJSON(prefs))
}

// UpdatePreferences replaces the preferences document.
func (h *Handler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read body", err)
		return
	}
	prefs, err := h.PreferencesFactory.ParsePreferences(string(body))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid preferences", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.Store.SavePreferences(r.Context(), *prefs); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save preferences", err)
		return
	}
	h.prefs = *prefs

	writeJSON(w, http.StatusOK, h.PreferencesFactory.ToJSON(*prefs))
}

func (h *Handler) GetCache(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Cache.Snapshot())
}

// ClearCache drops every cached entry, in memory and in the store.
func (h *Handler) ClearCache(w http.ResponseWriter, r *http.Request) {
	h.Cache.InvalidateAll()
	if err := h.FlushCache(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to clear cache", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// HELPERS
// =============================================================================

// parseYearMonth reads ?year=&month=, defaulting each to today's.
func (h *Handler) parseYearMonth(r *http.Request) (calendar.YearMonth, error) {
	ym := h.today().YearMonth()
	q := r.URL.Query()

	if s := q.Get("year"); s != "" {
		year, err := strconv.Atoi(s)
		if err != nil {
			return ym, fmt.Errorf("%w: year %q", errBadRequest, s)
		}
		ym.Year = year
	}
	if s := q.Get("month"); s != "" {
		month, err := strconv.Atoi(s)
		if err != nil || month < 1 || month > 12 {
			return ym, fmt.Errorf("%w: month %q (use 1-12)", errBadRequest, s)
		}
		ym.Month = time.Month(month)
	}
	return ym, nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps plan errors to HTTP status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case plan.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Plan not found", err)
	case plan.IsClientError(err):
		writeError(w, http.StatusBadRequest, "Invalid plan", err)
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}
