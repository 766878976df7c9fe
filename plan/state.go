package plan

import (
	"sort"

	"github.com/google/uuid"
	"github.com/leviFrosty/witness-work-sub000/calendar"
)

// =============================================================================
// STATE - The plan collections
// =============================================================================

// State is the plan store's data. Reads take it by value; mutators take a
// pointer and swap the matching plan for a modified copy, so plans that do
// not match are left untouched and slices handed out earlier stay valid.
type State struct {
	DayPlans       []DayPlan       `json:"dayPlans"`
	RecurringPlans []RecurringPlan `json:"recurringPlans"`
}

// Clone deep-copies the state.
func (s State) Clone() State {
	out := State{DayPlans: append([]DayPlan(nil), s.DayPlans...)}
	if s.RecurringPlans != nil {
		out.RecurringPlans = make([]RecurringPlan, len(s.RecurringPlans))
		for i, p := range s.RecurringPlans {
			out.RecurringPlans[i] = p.clone()
		}
	}
	return out
}

// RecurringPlan returns the plan with id.
func (s State) RecurringPlan(id string) (RecurringPlan, bool) {
	for _, p := range s.RecurringPlans {
		if p.ID == id {
			return p, true
		}
	}
	return RecurringPlan{}, false
}

// updateRecurring applies fn to a copy of plan id. No-op for unknown ids.
func (s *State) updateRecurring(id string, fn func(p *RecurringPlan)) bool {
	for i, p := range s.RecurringPlans {
		if p.ID != id {
			continue
		}
		updated := p.clone()
		fn(&updated)

		plans := append([]RecurringPlan(nil), s.RecurringPlans...)
		plans[i] = updated
		s.RecurringPlans = plans
		return true
	}
	return false
}

// =============================================================================
// RESOLVER
// =============================================================================

// Resolution is what a plan contributes on a date. OriginalMinutes and
// OriginalNote are set only when IsOverride is true; they are omitted from
// JSON otherwise.
type Resolution struct {
	Minutes         int     `json:"minutes"`
	Note            string  `json:"note,omitempty"`
	IsOverride      bool    `json:"isOverride"`
	OriginalMinutes *int    `json:"originalMinutes,omitempty"`
	OriginalNote    *string `json:"originalNote,omitempty"`
}

// RecurringPlanForDate resolves plan id on d, applying any override. Returns
// nil if no plan has that id.
func (s State) RecurringPlanForDate(id string, d calendar.Day) *Resolution {
	p, ok := s.RecurringPlan(id)
	if !ok {
		return nil
	}

	o, ok := p.OverrideFor(d)
	if !ok {
		return &Resolution{Minutes: p.Minutes, Note: p.Note}
	}

	originalMinutes, originalNote := p.Minutes, p.Note
	return &Resolution{
		Minutes:         o.Minutes,
		Note:            o.Note,
		IsOverride:      true,
		OriginalMinutes: &originalMinutes,
		OriginalNote:    &originalNote,
	}
}

// =============================================================================
// OVERRIDE & DELETION MUTATORS
// =============================================================================

// AddRecurringPlanOverride inserts o, replacing an override on the same day.
func (s *State) AddRecurringPlanOverride(id string, o Override) {
	s.updateRecurring(id, func(p *RecurringPlan) {
		p.Overrides = upsertOverride(p.Overrides, o)
	})
}

// UpdateRecurringPlanOverride replaces the override on o.Date. No-op when
// that date has no override; other dates are not affected.
func (s *State) UpdateRecurringPlanOverride(id string, o Override) {
	p, ok := s.RecurringPlan(id)
	if !ok {
		return
	}
	if _, exists := p.OverrideFor(o.Date); !exists {
		return
	}
	s.updateRecurring(id, func(p *RecurringPlan) {
		p.Overrides = upsertOverride(p.Overrides, o)
	})
}

// RemoveRecurringPlanOverride drops the override on d, if present.
func (s *State) RemoveRecurringPlanOverride(id string, d calendar.Day) {
	s.updateRecurring(id, func(p *RecurringPlan) {
		kept := p.Overrides[:0]
		for _, o := range p.Overrides {
			if o.Date != d {
				kept = append(kept, o)
			}
		}
		if len(kept) == 0 {
			kept = nil
		}
		p.Overrides = kept
	})
}

// DeleteSingleEventFromRecurringPlan soft-deletes the occurrence on d.
func (s *State) DeleteSingleEventFromRecurringPlan(id string, d calendar.Day) {
	s.updateRecurring(id, func(p *RecurringPlan) {
		if !p.IsDeleted(d) {
			p.DeletedDates = append(p.DeletedDates, d)
		}
	})
}

// DeleteEventAndFutureEvents deletes the occurrence on d and ends the
// recurrence there.
func (s *State) DeleteEventAndFutureEvents(id string, d calendar.Day) {
	s.updateRecurring(id, func(p *RecurringPlan) {
		if !p.IsDeleted(d) {
			p.DeletedDates = append(p.DeletedDates, d)
		}
		end := d
		p.Recurrence.EndDate = &end
	})
}

// RestoreRecurringPlanInstance undoes a soft delete on d. No-op if d was
// never deleted.
func (s *State) RestoreRecurringPlanInstance(id string, d calendar.Day) {
	s.updateRecurring(id, func(p *RecurringPlan) {
		kept := p.DeletedDates[:0]
		for _, del := range p.DeletedDates {
			if del != d {
				kept = append(kept, del)
			}
		}
		if len(kept) == 0 {
			kept = nil
		}
		p.DeletedDates = kept
	})
}

func upsertOverride(overrides []Override, o Override) []Override {
	for i, existing := range overrides {
		if existing.Date == o.Date {
			overrides[i] = o
			return overrides
		}
	}
	return append(overrides, o)
}

// =============================================================================
// PLAN CRUD
// =============================================================================

// AddDayPlan stores dp, overwriting an existing plan on the same date in
// place (keeping that plan's id). Returns the stored plan.
func (s *State) AddDayPlan(dp DayPlan) DayPlan {
	plans := append([]DayPlan(nil), s.DayPlans...)
	for i, existing := range plans {
		if existing.Date == dp.Date {
			dp.ID = existing.ID
			plans[i] = dp
			s.DayPlans = plans
			return dp
		}
	}
	if dp.ID == "" {
		dp.ID = uuid.NewString()
	}
	s.DayPlans = append(plans, dp)
	sort.SliceStable(s.DayPlans, func(i, j int) bool {
		return s.DayPlans[i].Date.Before(s.DayPlans[j].Date)
	})
	return dp
}

// UpdateDayPlan replaces the plan with dp.ID. A different plan already on
// dp.Date is dropped so a day keeps at most one plan.
func (s *State) UpdateDayPlan(dp DayPlan) bool {
	found := false
	plans := make([]DayPlan, 0, len(s.DayPlans))
	for _, existing := range s.DayPlans {
		switch {
		case existing.ID == dp.ID:
			plans = append(plans, dp)
			found = true
		case existing.Date == dp.Date:
		default:
			plans = append(plans, existing)
		}
	}
	if !found {
		return false
	}
	sort.SliceStable(plans, func(i, j int) bool {
		return plans[i].Date.Before(plans[j].Date)
	})
	s.DayPlans = plans
	return true
}

// DeleteDayPlan removes the plan with id.
func (s *State) DeleteDayPlan(id string) bool {
	for i, existing := range s.DayPlans {
		if existing.ID == id {
			plans := append([]DayPlan(nil), s.DayPlans[:i]...)
			s.DayPlans = append(plans, s.DayPlans[i+1:]...)
			return true
		}
	}
	return false
}

// AddRecurringPlan stores p, assigning an id when empty.
func (s *State) AddRecurringPlan(p RecurringPlan) RecurringPlan {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p = p.clone()
	s.RecurringPlans = append(append([]RecurringPlan(nil), s.RecurringPlans...), p)
	return p
}

// UpdateRecurringPlan replaces the plan with p.ID.
func (s *State) UpdateRecurringPlan(p RecurringPlan) bool {
	return s.updateRecurring(p.ID, func(existing *RecurringPlan) {
		*existing = p.clone()
	})
}

// DeleteRecurringPlan removes the plan with id.
func (s *State) DeleteRecurringPlan(id string) bool {
	for i, existing := range s.RecurringPlans {
		if existing.ID == id {
			plans := append([]RecurringPlan(nil), s.RecurringPlans[:i]...)
			s.RecurringPlans = append(plans, s.RecurringPlans[i+1:]...)
			return true
		}
	}
	return false
}

// DeleteAllPlans empties both collections.
func (s *State) DeleteAllPlans() {
	s.DayPlans = nil
	s.RecurringPlans = nil
}
