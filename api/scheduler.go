/*
scheduler.go - Background cache warmer

PURPOSE:
  Periodically recomputes the planned-minutes figures a client opens first
  (current month, month-to-date, current service year) so they are served
  from cache, then persists the cache snapshot to the store.

DESIGN:
  - Runs a background goroutine with configurable interval
  - Values whose plan hash still matches are cache hits, so a warm pass over
    unchanged plans does no recurrence work
  - A failed flush is logged and retried on the next tick

CONFIGURATION:
  - Interval: How often to warm (default: 15 minutes)
  - Enabled:  Whether the warmer is active (default: true)

USAGE:
  warmer := NewCacheWarmer(handler)
  warmer.Start()
  // ... later
  warmer.Stop()

SEE ALSO:
  - handlers.go: ClearCache endpoint
  - planning/planner.go: Cached aggregations
*/
package api

import (
	"context"
	"sync"
	"time"

	"github.com/leviFrosty/witness-work-sub000/calendar"
)

// CacheWarmer keeps the planned-minutes cache warm.
type CacheWarmer struct {
	Handler  *Handler
	Interval time.Duration
	Enabled  bool

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewCacheWarmer creates a new warmer.
func NewCacheWarmer(h *Handler) *CacheWarmer {
	return &CacheWarmer{
		Handler:  h,
		Interval: 15 * time.Minute,
		Enabled:  true,
	}
}

// Start begins the warmer.
func (cw *CacheWarmer) Start() {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	logger := cw.Handler.Logger.With("component", "warmer")
	if !cw.Enabled {
		logger.Info("disabled, not starting")
		return
	}

	if cw.ticker != nil {
		return
	}
	cw.ticker = time.NewTicker(cw.Interval)
	cw.stop = make(chan struct{})
	cw.wg.Add(1)

	go cw.run(cw.ticker, cw.stop)

	logger.Info("started", "interval", cw.Interval)
}

// Stop stops the warmer and waits for an in-flight pass.
func (cw *CacheWarmer) Stop() {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if cw.ticker != nil {
		cw.ticker.Stop()
		close(cw.stop)
		cw.wg.Wait()
		cw.ticker = nil
		cw.Handler.Logger.Info("stopped", "component", "warmer")
	}
}

func (cw *CacheWarmer) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer cw.wg.Done()

	// Run immediately on start
	cw.warm(context.Background())

	for {
		select {
		case <-ticker.C:
			cw.warm(context.Background())
		case <-stop:
			return
		}
	}
}

// RunNow triggers an immediate pass (for testing/admin).
func (cw *CacheWarmer) RunNow(ctx context.Context) error {
	return cw.warm(ctx)
}

func (cw *CacheWarmer) warm(ctx context.Context) error {
	h := cw.Handler
	logger := h.Logger.With("component", "warmer")

	today := h.today()
	state := h.planState()
	sy := calendar.ServiceYearOf(today)

	month := h.Planner.MonthlyPlannedMinutes(ctx, state, today.Month(), today.Year())
	toDate := h.Planner.PlannedMinutesToCurrentDay(ctx, state, today.Month(), today.Year())
	annual := h.Planner.AnnualPlannedMinutes(ctx, state, sy)

	if err := h.FlushCache(ctx); err != nil {
		logger.ErrorContext(ctx, "flushing cache", "error", err)
		return err
	}

	logger.DebugContext(ctx, "warmed",
		"month", today.YearMonth().String(),
		"planned", month,
		"plannedToDate", toDate,
		"serviceYear", sy,
		"plannedServiceYear", annual,
		"entries", h.Cache.Len())
	return nil
}
