/*
handlers_test.go - HTTP tests for API handlers

Tests for:
- Report logging and month/service-year summaries
- Day and recurring plan CRUD, overrides and occurrence deletion
- Planned-minutes endpoints and cache behaviour
- Preferences validation
- Reload from the store
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/leviFrosty/witness-work-sub000/cache"
	"github.com/leviFrosty/witness-work-sub000/calendar"
	"github.com/leviFrosty/witness-work-sub000/factory"
	"github.com/leviFrosty/witness-work-sub000/plan"
	"github.com/leviFrosty/witness-work-sub000/report"
	"github.com/leviFrosty/witness-work-sub000/store/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// Monday, January 15 2024.
var fixedNow = time.Date(2024, time.January, 15, 12, 0, 0, 0, time.UTC)

type testServer struct {
	t       *testing.T
	store   *sqlite.Store
	handler *Handler
	router  http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	h := NewHandler(store, WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, h.Load(context.Background()))
	return &testServer{t: t, store: store, handler: h, router: NewRouter(h)}
}

func (ts *testServer) do(method, path string, body any) *httptest.ResponseRecorder {
	ts.t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(ts.t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func (ts *testServer) createWeekly(body string) plan.RecurringPlan {
	ts.t.Helper()
	rec := ts.do(http.MethodPost, "/api/plans/recurring", body)
	require.Equal(ts.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[plan.RecurringPlan](ts.t, rec)
}

const mondaysJSON = `{
	"startDate": "2024-01-01",
	"minutes": 60,
	"recurrence": {"frequency": "WEEKLY", "interval": 1, "endDate": "2024-01-31"}
}`

// =============================================================================
// REPORTS
// =============================================================================

func TestMonthReport_CreditCappedForPioneer(t *testing.T) {
	ts := newTestServer(t)

	// GIVEN: a regular pioneer (50h goal, 25h credit cap)
	rec := ts.do(http.MethodPut, "/api/preferences", `{"publisher": "regularPioneer"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// AND: 20h of ministry and 30h of LDC in January
	rec = ts.do(http.MethodPost, "/api/reports", ReportRequest{Date: "2024-01-10", Hours: 20})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = ts.do(http.MethodPost, "/api/reports", ReportRequest{Date: "2024-01-11", Hours: 30, LDC: true})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// WHEN: the month is summarized
	rec = ts.do(http.MethodGet, "/api/reports/month?year=2024&month=1", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	dto := decode[MonthReportDTO](t, rec)

	// THEN: only 25h of the LDC counts
	assert.Equal(t, 50, dto.TotalHours)
	assert.Equal(t, 30, dto.LDCHours)
	assert.Equal(t, 20, dto.NonLDCHours)
	assert.True(t, dto.HasReports)
	assert.Equal(t, 20*60+25*60, dto.Adjusted.Value)
	assert.Equal(t, 5*60, dto.Adjusted.CreditOverage)
	assert.Equal(t, 50, dto.GoalHours)

	// AND: the remaining 5h spread over Jan 15..31 (17 days)
	require.NotNil(t, dto.HoursPerDayToGoal)
	assert.InDelta(t, 0.29, *dto.HoursPerDayToGoal, 0.001)
}

func TestMonthReport_PastMonthHasNoPerDayRate(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/api/reports/month?year=2023&month=12", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	dto := decode[MonthReportDTO](t, rec)

	assert.False(t, dto.HasReports)
	assert.Nil(t, dto.HoursPerDayToGoal)
}

func TestMonthReport_InvalidMonth(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/api/reports/month?month=13", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReports_UpdateMovesBetweenMonths(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/api/reports", ReportRequest{Date: "2024-01-10", Hours: 2})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[report.ServiceReport](t, rec)

	// WHEN: the report is moved to February
	rec = ts.do(http.MethodPut, "/api/reports/"+created.ID, ReportRequest{Date: "2024-02-01", Hours: 3})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// THEN: January is empty and February has it
	jan := decode[[]report.ServiceReport](t, ts.do(http.MethodGet, "/api/reports?year=2024&month=1", nil))
	feb := decode[[]report.ServiceReport](t, ts.do(http.MethodGet, "/api/reports?year=2024&month=2", nil))
	assert.Empty(t, jan)
	require.Len(t, feb, 1)
	assert.Equal(t, 3, feb[0].Hours)

	// WHEN: deleted
	rec = ts.do(http.MethodDelete, "/api/reports/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = ts.do(http.MethodDelete, "/api/reports/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateReport_Invalid(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name string
		body any
	}{
		{"malformed", `{"date":`},
		{"missing date", ReportRequest{Hours: 1}},
		{"bad date", ReportRequest{Date: "yesterday", Hours: 1}},
		{"negative", ReportRequest{Date: "2024-01-01", Hours: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(http.MethodPost, "/api/reports", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestServiceYearReport(t *testing.T) {
	ts := newTestServer(t)

	ts.do(http.MethodPut, "/api/preferences", `{"publisher": "regularPioneer"}`)
	ts.do(http.MethodPost, "/api/reports", ReportRequest{Date: "2023-09-05", Hours: 60})
	ts.do(http.MethodPost, "/api/reports", ReportRequest{Date: "2024-01-05", Hours: 40})
	ts.do(http.MethodPost, "/api/reports", ReportRequest{Date: "2024-09-05", Hours: 10}) // next service year

	rec := ts.do(http.MethodGet, "/api/reports/service-year/2023", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	dto := decode[ServiceYearDTO](t, rec)

	assert.Equal(t, 100, dto.TotalHours)
	assert.Equal(t, 600, dto.AnnualGoalHours)
	assert.Equal(t, "2023-09-01", dto.Period.Start.String())
	assert.Equal(t, "2024-08-31", dto.Period.End.String())
	assert.Len(t, dto.Months, 12)
	assert.Equal(t, 60, dto.Months[0].TotalHours)
	assert.InDelta(t, 500, dto.HoursRemaining, 0.001)
	assert.Greater(t, dto.HoursPerMonthToGoal, 0.0)

	rec = ts.do(http.MethodGet, "/api/reports/service-year/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// PLANS
// =============================================================================

func TestDayPlans_SameDateOverwrites(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/api/plans/day", `{"date": "2024-01-20", "minutes": 60}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	first := decode[plan.DayPlan](t, rec)

	rec = ts.do(http.MethodPost, "/api/plans/day", `{"date": "2024-01-20", "minutes": 90, "note": "longer"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	second := decode[plan.DayPlan](t, rec)

	assert.Equal(t, first.ID, second.ID)
	plans := decode[[]plan.DayPlan](t, ts.do(http.MethodGet, "/api/plans/day", nil))
	require.Len(t, plans, 1)
	assert.Equal(t, 90, plans[0].Minutes)

	rec = ts.do(http.MethodDelete, "/api/plans/day/"+first.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = ts.do(http.MethodDelete, "/api/plans/day/"+first.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDayPlans_UpdateOntoOccupiedDate(t *testing.T) {
	ts := newTestServer(t)

	// GIVEN: plans on Jan 20 and Jan 21
	rec := ts.do(http.MethodPost, "/api/plans/day", `{"date": "2024-01-20", "minutes": 60}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	moved := decode[plan.DayPlan](t, rec)
	rec = ts.do(http.MethodPost, "/api/plans/day", `{"date": "2024-01-21", "minutes": 30}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	// WHEN: the Jan 20 plan is moved onto Jan 21
	rec = ts.do(http.MethodPut, "/api/plans/day/"+moved.ID, `{"date": "2024-01-21", "minutes": 45}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// THEN: one plan remains on Jan 21
	plans := decode[[]plan.DayPlan](t, ts.do(http.MethodGet, "/api/plans/day", nil))
	require.Len(t, plans, 1)
	assert.Equal(t, moved.ID, plans[0].ID)
	assert.Equal(t, "2024-01-21", plans[0].Date.String())
	assert.Equal(t, 45, plans[0].Minutes)

	rec = ts.do(http.MethodPut, "/api/plans/day/missing", `{"date": "2024-01-22", "minutes": 10}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecurringPlan_Validation(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/api/plans/recurring", `{
		"startDate": "2024-01-01",
		"minutes": 60,
		"recurrence": {"frequency": "DAILY", "interval": 1}
	}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodPut, "/api/plans/recurring/missing", mondaysJSON)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecurringPlan_OverrideLifecycle(t *testing.T) {
	ts := newTestServer(t)
	p := ts.createWeekly(mondaysJSON)
	base := "/api/plans/recurring/" + p.ID

	// WHEN: Jan 15 is overridden to 30 minutes
	rec := ts.do(http.MethodPost, base+"/overrides", `{"date": "2024-01-15", "minutes": 30, "note": "short"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// THEN: the resolution shows the override and the original
	rec = ts.do(http.MethodGet, base+"/date/2024-01-15", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[plan.Resolution](t, rec)
	assert.True(t, res.IsOverride)
	assert.Equal(t, 30, res.Minutes)
	require.NotNil(t, res.OriginalMinutes)
	assert.Equal(t, 60, *res.OriginalMinutes)

	// AND: an untouched date has no original fields
	rec = ts.do(http.MethodGet, base+"/date/2024-01-22", nil)
	assert.NotContains(t, rec.Body.String(), "originalMinutes")

	// WHEN: the override is updated, then removed
	rec = ts.do(http.MethodPut, base+"/overrides", `{"date": "2024-01-15", "minutes": 45}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 45, decode[plan.Resolution](t, ts.do(http.MethodGet, base+"/date/2024-01-15", nil)).Minutes)

	rec = ts.do(http.MethodDelete, base+"/overrides/2024-01-15", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decode[plan.RecurringPlan](t, rec)
	assert.Empty(t, updated.Overrides)

	// AND: an unknown plan is 404
	rec = ts.do(http.MethodPost, "/api/plans/recurring/nope/overrides", `{"date": "2024-01-15", "minutes": 30}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecurringPlan_DeleteAndRestoreOccurrences(t *testing.T) {
	ts := newTestServer(t)
	p := ts.createWeekly(mondaysJSON)
	base := "/api/plans/recurring/" + p.ID

	occurrences := func() []plan.Occurrence {
		rec := ts.do(http.MethodGet, base+"/occurrences?from=2024-01-01&to=2024-01-31", nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		return decode[[]plan.Occurrence](t, rec)
	}
	require.Len(t, occurrences(), 5)

	// WHEN: one occurrence is deleted
	rec := ts.do(http.MethodPost, base+"/deleted-dates/2024-01-08", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, occurrences(), 4)

	// WHEN: restored
	rec = ts.do(http.MethodDelete, base+"/deleted-dates/2024-01-08", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, occurrences(), 5)

	// WHEN: Jan 22 and everything after is deleted
	rec = ts.do(http.MethodPost, base+"/deleted-dates/2024-01-22?future=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, occurrences(), 3)

	// AND: the change survived in the store
	stored, err := ts.store.GetRecurringPlan(context.Background(), p.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.NotNil(t, stored.Recurrence.EndDate)
	assert.Equal(t, calendar.MustParseDay("2024-01-22"), *stored.Recurrence.EndDate)

	rec = ts.do(http.MethodPost, base+"/deleted-dates/not-a-date", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecurringPlan_RRule(t *testing.T) {
	ts := newTestServer(t)
	p := ts.createWeekly(mondaysJSON)

	rec := ts.do(http.MethodGet, "/api/plans/recurring/"+p.ID+"/rrule", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	dto := decode[RRuleDTO](t, rec)

	assert.Equal(t, p.ID, dto.PlanID)
	assert.Contains(t, dto.RRule, "FREQ=WEEKLY")
	assert.Contains(t, dto.RRule, "BYDAY=MO")
	assert.Contains(t, dto.Set, "DTSTART")
}

// =============================================================================
// PLANNED MINUTES
// =============================================================================

func TestPlannedMonth(t *testing.T) {
	ts := newTestServer(t)
	ts.createWeekly(mondaysJSON)
	rec := ts.do(http.MethodPost, "/api/plans/day", `{"date": "2024-01-02", "minutes": 30}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = ts.do(http.MethodGet, "/api/planned?year=2024&month=1", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	dto := decode[PlannedMonthDTO](t, rec)

	// Mondays 1, 8, 15, 22, 29 plus Jan 2; to date is through Jan 15
	assert.Equal(t, 5*60+30, dto.PlannedMinutes)
	assert.Equal(t, 3*60+30, dto.PlannedMinutesToDate)
	assert.Len(t, dto.PlanHash, 64)

	// AND: the result was cached under the month key
	entries := decode[map[string]cache.Entry](t, ts.do(http.MethodGet, "/api/cache", nil))
	assert.Equal(t, 5*60+30, entries[cache.MonthKey(2024, time.January)].PlannedMinutes)
	assert.Equal(t, dto.PlanHash, entries[cache.MonthKey(2024, time.January)].PlanHash)
}

func TestPlannedMonth_PlanChangeRecomputes(t *testing.T) {
	ts := newTestServer(t)
	p := ts.createWeekly(mondaysJSON)

	before := decode[PlannedMonthDTO](t, ts.do(http.MethodGet, "/api/planned?year=2024&month=1", nil))
	assert.Equal(t, 300, before.PlannedMinutes)

	// WHEN: one Monday is overridden to zero
	ts.do(http.MethodPost, "/api/plans/recurring/"+p.ID+"/overrides", `{"date": "2024-01-29", "minutes": 0}`)

	// THEN: the stale cache entry is not reused
	after := decode[PlannedMonthDTO](t, ts.do(http.MethodGet, "/api/planned?year=2024&month=1", nil))
	assert.Equal(t, 240, after.PlannedMinutes)
	assert.NotEqual(t, before.PlanHash, after.PlanHash)
}

func TestPlannedServiceYearAndDay(t *testing.T) {
	ts := newTestServer(t)
	ts.createWeekly(mondaysJSON)

	rec := ts.do(http.MethodGet, "/api/planned/service-year/2023", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 300, decode[PlannedServiceYearDTO](t, rec).PlannedMinutes)

	rec = ts.do(http.MethodGet, "/api/planned/day/2024-01-08", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 60, decode[PlannedDayDTO](t, rec).PlannedMinutes)

	rec = ts.do(http.MethodGet, "/api/planned/day/2024-01-09", nil)
	assert.Equal(t, 0, decode[PlannedDayDTO](t, rec).PlannedMinutes)
}

func TestDeleteAllPlans_ClearsCache(t *testing.T) {
	ts := newTestServer(t)
	ts.createWeekly(mondaysJSON)
	ts.do(http.MethodGet, "/api/planned?year=2024&month=1", nil)
	require.Positive(t, ts.handler.Cache.Len())

	rec := ts.do(http.MethodDelete, "/api/plans", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	assert.Zero(t, ts.handler.Cache.Len())
	assert.Empty(t, decode[[]plan.RecurringPlan](t, ts.do(http.MethodGet, "/api/plans/recurring", nil)))
}

// =============================================================================
// PREFERENCES & PERSISTENCE
// =============================================================================

func TestPreferences_RejectsInvalid(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPut, "/api/preferences", `{"publisher": "elder"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Unchanged
	prefs := decode[factory.PreferencesJSON](t, ts.do(http.MethodGet, "/api/preferences", nil))
	assert.Equal(t, "publisher", prefs.Publisher)
	assert.Equal(t, factory.TimeDisplayDecimal, prefs.TimeDisplayFormat)
}

func TestLoad_RestoresState(t *testing.T) {
	ts := newTestServer(t)
	ts.do(http.MethodPut, "/api/preferences", `{"publisher": "regularAuxiliary"}`)
	ts.do(http.MethodPost, "/api/reports", ReportRequest{Date: "2024-01-10", Hours: 4})
	ts.createWeekly(mondaysJSON)

	warmer := NewCacheWarmer(ts.handler)
	require.NoError(t, warmer.RunNow(context.Background()))

	// WHEN: a fresh handler loads from the same store
	h := NewHandler(ts.store, WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, h.Load(context.Background()))

	reports, plans, prefs := h.snapshot()
	assert.Len(t, reports, 1)
	assert.Len(t, plans.RecurringPlans, 1)
	assert.Equal(t, 30, prefs.GoalHours())

	// AND: the warmed cache came back
	entry, ok := h.Cache.Get(cache.MonthKey(2024, time.January))
	require.True(t, ok)
	assert.Equal(t, 300, entry.PlannedMinutes)
}

func TestClearCache(t *testing.T) {
	ts := newTestServer(t)
	ts.createWeekly(mondaysJSON)
	ts.do(http.MethodGet, "/api/planned", nil)

	rec := ts.do(http.MethodDelete, "/api/cache", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	body := strings.TrimSpace(ts.do(http.MethodGet, "/api/cache", nil).Body.String())
	assert.Equal(t, "{}", body)

	stored, err := ts.store.LoadCacheEntries(context.Background())
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestCacheWarmer_RestartAfterStop(t *testing.T) {
	ts := newTestServer(t)
	ts.createWeekly(mondaysJSON)

	warmer := NewCacheWarmer(ts.handler)
	warmer.Interval = time.Hour

	// GIVEN: a warmer started and stopped once
	warmer.Start()
	warmer.Stop()

	// WHEN: it is started and stopped again
	warmer.Start()
	assert.NotPanics(t, warmer.Stop)

	// THEN: a second Stop is a no-op and the warm pass ran
	assert.NotPanics(t, warmer.Stop)
	_, ok := ts.handler.Cache.Get(cache.MonthKey(2024, time.January))
	assert.True(t, ok)
}
