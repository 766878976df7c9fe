package plan_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/leviFrosty/witness-work-sub000/calendar"
	"github.com/leviFrosty/witness-work-sub000/plan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stateWith(plans ...plan.RecurringPlan) plan.State {
	return plan.State{RecurringPlans: plans}
}

// =============================================================================
// RESOLVER
// =============================================================================

func TestRecurringPlanForDate_NoOverride(t *testing.T) {
	p := recurring("p1", day(2024, time.January, 1), plan.Weekly, 1)
	p.Note = "ministry"
	s := stateWith(p)

	res := s.RecurringPlanForDate("p1", day(2024, time.January, 8))

	require.NotNil(t, res)
	assert.Equal(t, 60, res.Minutes)
	assert.Equal(t, "ministry", res.Note)
	assert.False(t, res.IsOverride)
	assert.Nil(t, res.OriginalMinutes)
	assert.Nil(t, res.OriginalNote)

	raw, err := json.Marshal(res)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "originalMinutes")
	assert.NotContains(t, string(raw), "originalNote")
}

func TestRecurringPlanForDate_UnknownID(t *testing.T) {
	s := stateWith(recurring("p1", day(2024, time.January, 1), plan.Weekly, 1))
	assert.Nil(t, s.RecurringPlanForDate("missing", day(2024, time.January, 8)))
}

func TestOverride_RoundTrip(t *testing.T) {
	// GIVEN: a weekly plan with no overrides
	p := recurring("p1", day(2024, time.January, 1), plan.Weekly, 1)
	p.Note = "base"
	s := stateWith(p)
	d := day(2024, time.January, 15)

	// WHEN: an override is added
	s.AddRecurringPlanOverride("p1", plan.Override{Date: d, Minutes: 30, Note: "short day"})

	// THEN: the resolver reports it along with the originals
	res := s.RecurringPlanForDate("p1", d)
	require.NotNil(t, res)
	assert.True(t, res.IsOverride)
	assert.Equal(t, 30, res.Minutes)
	assert.Equal(t, "short day", res.Note)
	require.NotNil(t, res.OriginalMinutes)
	assert.Equal(t, 60, *res.OriginalMinutes)
	require.NotNil(t, res.OriginalNote)
	assert.Equal(t, "base", *res.OriginalNote)

	// Other dates are unaffected
	other := s.RecurringPlanForDate("p1", day(2024, time.January, 22))
	assert.False(t, other.IsOverride)

	// WHEN: the override is removed
	s.RemoveRecurringPlanOverride("p1", d)

	// THEN: the base values come back
	res = s.RecurringPlanForDate("p1", d)
	assert.False(t, res.IsOverride)
	assert.Equal(t, 60, res.Minutes)
}

func TestOverride_SameDateReplaces(t *testing.T) {
	s := stateWith(recurring("p1", day(2024, time.January, 1), plan.Weekly, 1))
	d := day(2024, time.January, 8)

	s.AddRecurringPlanOverride("p1", plan.Override{Date: d, Minutes: 30})
	s.AddRecurringPlanOverride("p1", plan.Override{Date: d, Minutes: 45})

	p, ok := s.RecurringPlan("p1")
	require.True(t, ok)
	require.Len(t, p.Overrides, 1)
	assert.Equal(t, 45, p.Overrides[0].Minutes)

	s.UpdateRecurringPlanOverride("p1", plan.Override{Date: d, Minutes: 90, Note: "long"})
	p, _ = s.RecurringPlan("p1")
	require.Len(t, p.Overrides, 1)
	assert.Equal(t, 90, p.Overrides[0].Minutes)
	assert.Equal(t, "long", p.Overrides[0].Note)
}

func TestUpdateOverride_NoExistingOverrideIsNoop(t *testing.T) {
	// GIVEN: a weekly plan with no overrides
	s := stateWith(recurring("p1", day(2024, time.January, 1), plan.Weekly, 1))

	// WHEN: an override on Jan 8 is updated
	s.UpdateRecurringPlanOverride("p1", plan.Override{Date: day(2024, time.January, 8), Minutes: 15})

	// THEN: nothing was inserted
	p, _ := s.RecurringPlan("p1")
	assert.Empty(t, p.Overrides)
	assert.False(t, s.RecurringPlanForDate("p1", day(2024, time.January, 8)).IsOverride)
}

func TestUpdateOverride_LeavesOtherDates(t *testing.T) {
	s := stateWith(recurring("p1", day(2024, time.January, 1), plan.Weekly, 1))
	s.AddRecurringPlanOverride("p1", plan.Override{Date: day(2024, time.January, 8), Minutes: 10})

	s.UpdateRecurringPlanOverride("p1", plan.Override{Date: day(2024, time.January, 15), Minutes: 20})

	p, _ := s.RecurringPlan("p1")
	require.Len(t, p.Overrides, 1)
	assert.Equal(t, day(2024, time.January, 8), p.Overrides[0].Date)
	assert.Equal(t, 10, p.Overrides[0].Minutes)
}

func TestOverride_EmptyBaseNoteStillReported(t *testing.T) {
	s := stateWith(recurring("p1", day(2024, time.January, 1), plan.Weekly, 1))
	d := day(2024, time.January, 8)
	s.AddRecurringPlanOverride("p1", plan.Override{Date: d, Minutes: 10})

	res := s.RecurringPlanForDate("p1", d)
	require.NotNil(t, res.OriginalNote)
	assert.Equal(t, "", *res.OriginalNote)
}

// =============================================================================
// DELETION
// =============================================================================

func TestDeleteSingleAndRestore_Reversible(t *testing.T) {
	s := stateWith(recurring("p1", day(2024, time.January, 1), plan.Weekly, 1))
	d := day(2024, time.January, 8)
	before, _ := s.RecurringPlan("p1")

	s.DeleteSingleEventFromRecurringPlan("p1", d)
	s.DeleteSingleEventFromRecurringPlan("p1", d)

	p, _ := s.RecurringPlan("p1")
	assert.Equal(t, []calendar.Day{d}, p.DeletedDates, "deleting twice records once")
	assert.Empty(t, plan.PlansIntersectingDay(d, s.RecurringPlans))

	s.RestoreRecurringPlanInstance("p1", d)

	p, _ = s.RecurringPlan("p1")
	assert.Empty(t, p.DeletedDates)
	assert.Equal(t, plan.PlansIntersectingDay(d, []plan.RecurringPlan{before}), plan.PlansIntersectingDay(d, s.RecurringPlans))
}

func TestRestore_NeverDeletedIsNoop(t *testing.T) {
	s := stateWith(recurring("p1", day(2024, time.January, 1), plan.Weekly, 1))

	s.RestoreRecurringPlanInstance("p1", day(2024, time.January, 8))

	p, _ := s.RecurringPlan("p1")
	assert.Empty(t, p.DeletedDates)
}

func TestDeleteEventAndFutureEvents(t *testing.T) {
	s := stateWith(recurring("p1", day(2024, time.January, 1), plan.Weekly, 1))
	cut := day(2024, time.January, 15)

	s.DeleteEventAndFutureEvents("p1", cut)

	p, _ := s.RecurringPlan("p1")
	require.NotNil(t, p.Recurrence.EndDate)
	assert.Equal(t, cut, *p.Recurrence.EndDate)
	assert.Contains(t, p.DeletedDates, cut)

	assert.NotEmpty(t, plan.PlansIntersectingDay(day(2024, time.January, 8), s.RecurringPlans))
	assert.Empty(t, plan.PlansIntersectingDay(cut, s.RecurringPlans))
	assert.Empty(t, plan.PlansIntersectingDay(day(2024, time.January, 22), s.RecurringPlans))
}

func TestMutators_LeaveOtherPlansUntouched(t *testing.T) {
	a := recurring("a", day(2024, time.January, 1), plan.Weekly, 1)
	b := recurring("b", day(2024, time.January, 1), plan.Weekly, 1)
	s := stateWith(a, b)
	snapshot := s.Clone()

	s.AddRecurringPlanOverride("a", plan.Override{Date: day(2024, time.January, 8), Minutes: 5})
	s.DeleteSingleEventFromRecurringPlan("a", day(2024, time.January, 15))
	s.DeleteEventAndFutureEvents("a", day(2024, time.February, 5))

	gotB, _ := s.RecurringPlan("b")
	assert.Equal(t, b, gotB)
	assert.Equal(t, a, snapshot.RecurringPlans[0], "earlier snapshot is not aliased")
}

func TestMutators_UnknownIDIsNoop(t *testing.T) {
	s := stateWith(recurring("a", day(2024, time.January, 1), plan.Weekly, 1))
	before := s.Clone()

	s.AddRecurringPlanOverride("zzz", plan.Override{Date: day(2024, time.January, 8), Minutes: 5})
	s.DeleteSingleEventFromRecurringPlan("zzz", day(2024, time.January, 8))
	s.RestoreRecurringPlanInstance("zzz", day(2024, time.January, 8))

	assert.Equal(t, before, s)
}

// =============================================================================
// CRUD
// =============================================================================

func TestAddDayPlan_OverwritesSameDate(t *testing.T) {
	var s plan.State
	d := day(2024, time.March, 2)

	first := s.AddDayPlan(plan.DayPlan{Date: d, Minutes: 60})
	require.NotEmpty(t, first.ID)

	second := s.AddDayPlan(plan.DayPlan{Date: d, Minutes: 120, Note: "assembly"})

	require.Len(t, s.DayPlans, 1)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 120, s.DayPlans[0].Minutes)
}

func TestAddDayPlan_SortedByDate(t *testing.T) {
	var s plan.State
	s.AddDayPlan(plan.DayPlan{Date: day(2024, time.March, 9), Minutes: 1})
	s.AddDayPlan(plan.DayPlan{Date: day(2024, time.March, 2), Minutes: 2})

	require.Len(t, s.DayPlans, 2)
	assert.Equal(t, day(2024, time.March, 2), s.DayPlans[0].Date)
}

func TestDayPlan_UpdateAndDelete(t *testing.T) {
	var s plan.State
	dp := s.AddDayPlan(plan.DayPlan{Date: day(2024, time.March, 2), Minutes: 60})

	dp.Minutes = 75
	assert.True(t, s.UpdateDayPlan(dp))
	assert.Equal(t, 75, s.DayPlans[0].Minutes)

	assert.True(t, s.DeleteDayPlan(dp.ID))
	assert.False(t, s.DeleteDayPlan(dp.ID))
	assert.Empty(t, s.DayPlans)
}

func TestUpdateDayPlan_MovingOntoOccupiedDateReplacesIt(t *testing.T) {
	// GIVEN: plans on March 2 and March 9
	var s plan.State
	a := s.AddDayPlan(plan.DayPlan{Date: day(2024, time.March, 2), Minutes: 60})
	b := s.AddDayPlan(plan.DayPlan{Date: day(2024, time.March, 9), Minutes: 30})

	// WHEN: the March 2 plan is moved to March 9
	a.Date = day(2024, time.March, 9)
	require.True(t, s.UpdateDayPlan(a))

	// THEN: March 9 holds only the moved plan
	require.Len(t, s.DayPlans, 1)
	assert.Equal(t, a.ID, s.DayPlans[0].ID)
	assert.Equal(t, 60, s.DayPlans[0].Minutes)
	got, ok := plan.DayPlanFor(day(2024, time.March, 9), s.DayPlans)
	require.True(t, ok)
	assert.NotEqual(t, b.ID, got.ID)

	// AND: an unknown id changes nothing
	assert.False(t, s.UpdateDayPlan(plan.DayPlan{ID: "nope", Date: day(2024, time.March, 9), Minutes: 5}))
	assert.Len(t, s.DayPlans, 1)
}

func TestRecurringPlan_CRUD(t *testing.T) {
	var s plan.State
	p := s.AddRecurringPlan(recurring("", day(2024, time.January, 1), plan.Weekly, 1))
	require.NotEmpty(t, p.ID)

	p.Minutes = 90
	assert.True(t, s.UpdateRecurringPlan(p))
	got, _ := s.RecurringPlan(p.ID)
	assert.Equal(t, 90, got.Minutes)

	assert.True(t, s.DeleteRecurringPlan(p.ID))
	_, ok := s.RecurringPlan(p.ID)
	assert.False(t, ok)

	s.AddDayPlan(plan.DayPlan{Date: day(2024, time.March, 2), Minutes: 1})
	s.AddRecurringPlan(recurring("", day(2024, time.January, 1), plan.Weekly, 1))
	s.DeleteAllPlans()
	assert.Empty(t, s.DayPlans)
	assert.Empty(t, s.RecurringPlans)
}

// =============================================================================
// VALIDATION
// =============================================================================

func TestValidate(t *testing.T) {
	valid := recurring("v", day(2024, time.January, 1), plan.Weekly, 1)
	require.NoError(t, plan.Validate(valid))

	tests := []struct {
		name  string
		edit  func(p *plan.RecurringPlan)
		field string
	}{
		{"unknown frequency", func(p *plan.RecurringPlan) { p.Recurrence.Frequency = "DAILY" }, "recurrence.frequency"},
		{"negative minutes", func(p *plan.RecurringPlan) { p.Minutes = -1 }, "minutes"},
		{"end before start", func(p *plan.RecurringPlan) {
			end := day(2023, time.December, 1)
			p.Recurrence.EndDate = &end
		}, "recurrence.endDate"},
		{"bad week of month", func(p *plan.RecurringPlan) {
			p.Recurrence.Frequency = plan.MonthlyByWeekday
			p.Recurrence.MonthlyByWeekdayConfig = &plan.WeekdayOfMonth{Weekday: time.Monday, WeekOfMonth: 5}
		}, "recurrence.monthlyByWeekdayConfig.weekOfMonth"},
		{"missing start", func(p *plan.RecurringPlan) { p.StartDate = calendar.Day{} }, "startDate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.edit(&p)

			err := plan.Validate(p)

			require.Error(t, err)
			assert.True(t, plan.IsClientError(err))
			var verr *plan.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}
