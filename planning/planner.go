package planning

import (
	"context"
	"log/slog"
	"time"

	"github.com/leviFrosty/witness-work-sub000/cache"
	"github.com/leviFrosty/witness-work-sub000/calendar"
	"github.com/leviFrosty/witness-work-sub000/plan"
)

// =============================================================================
// PLANNER - Cached planned-minutes aggregations
// =============================================================================

// Planner memoizes the period aggregations in a cache.Store. Each call hashes
// the plans it is given; a cached value is reused only when it was computed
// from plans with the same hash.
type Planner struct {
	store  cache.Store
	now    func() time.Time
	logger *slog.Logger
}

type Option func(*Planner)

// WithClock sets the clock used to decide what "today" is.
func WithClock(now func() time.Time) Option {
	return func(p *Planner) { p.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(p *Planner) { p.logger = l }
}

func NewPlanner(store cache.Store, opts ...Option) *Planner {
	p := &Planner{
		store:  store,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Today is the planner's current day.
func (p *Planner) Today() calendar.Day {
	return calendar.DayOf(p.now())
}

func (p *Planner) MonthlyPlannedMinutes(ctx context.Context, s plan.State, month time.Month, year int) int {
	return p.cached(ctx, s, cache.MonthKey(year, month), func() int {
		return MonthlyPlannedMinutes(s, month, year)
	})
}

func (p *Planner) AnnualPlannedMinutes(ctx context.Context, s plan.State, serviceYear int) int {
	return p.cached(ctx, s, cache.ServiceYearKey(serviceYear), func() int {
		return AnnualPlannedMinutes(s, serviceYear)
	})
}

// PlannedMinutesToCurrentDay is PlannedMinutesToCurrentDayForMonth using the
// planner's clock. The key carries the cutoff day, so a month cached while it
// was current is not reused once it is in the past.
func (p *Planner) PlannedMinutesToCurrentDay(ctx context.Context, s plan.State, month time.Month, year int) int {
	today := p.Today()
	cutoff := CutoffDay(month, year, today)
	if cutoff == 0 {
		return 0
	}
	return p.cached(ctx, s, cache.CurrentDayKey(year, month, cutoff), func() int {
		return PlannedMinutesToCurrentDayForMonth(s, month, year, today)
	})
}

func (p *Planner) cached(ctx context.Context, s plan.State, key string, compute func() int) int {
	planHash := GeneratePlanHash(s.DayPlans, s.RecurringPlans)

	if minutes, ok := cache.Lookup(p.store, key, planHash); ok {
		p.logger.DebugContext(ctx, "planned minutes cache hit", "key", key, "minutes", minutes)
		return minutes
	}

	minutes := compute()
	p.store.Set(key, minutes, planHash)
	p.logger.DebugContext(ctx, "planned minutes cache miss", "key", key, "minutes", minutes)
	return minutes
}
