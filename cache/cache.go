/*
cache.go - Planned-minutes cache keyed by period and validated by plan hash

PURPOSE:
  Planned minutes for a month or service year are derived from every plan
  the user has. Recomputing them on each render walks hundreds of days, so
  results are cached together with the hash of the plans they came from.

HIT POLICY:
  An entry is reused only if its PlanHash equals the hash of the current
  plans. Any plan edit changes the hash, so stale entries are never served;
  they are simply overwritten on the next computation.

KEYS:
  MonthKey(2024, time.March)     "2024-3"
  ServiceYearKey(2024)           "2024"
  CurrentDayKey(2024, March, 9)  "2024-3-day9"

IMPLEMENTATIONS:
  - Memory (memory.go): the live cache, snapshotted to sqlite by the server

SEE ALSO:
  - planning/planner.go: the only reader/writer
  - store/sqlite/sqlite.go: cache_entries persistence
*/
package cache

import (
	"fmt"
	"time"
)

// Entry is one cached planned-minutes result.
type Entry struct {
	PlannedMinutes int    `json:"plannedMinutes"`
	LastUpdated    int64  `json:"lastUpdated"` // epoch milliseconds
	PlanHash       string `json:"planHash"`
}

// Store holds Entries by key. Implementations must be safe for concurrent use.
type Store interface {
	Get(key string) (Entry, bool)
	Set(key string, plannedMinutes int, planHash string)
	Invalidate(key string)
	InvalidateAll()
}

// Lookup returns the cached minutes for key only when the entry was computed
// from plans hashing to planHash.
func Lookup(s Store, key, planHash string) (int, bool) {
	e, ok := s.Get(key)
	if !ok || e.PlanHash != planHash {
		return 0, false
	}
	return e.PlannedMinutes, true
}

// =============================================================================
// KEYS
// =============================================================================

func MonthKey(year int, month time.Month) string {
	return fmt.Sprintf("%d-%d", year, int(month))
}

func ServiceYearKey(serviceYear int) string {
	return fmt.Sprintf("%d", serviceYear)
}

func CurrentDayKey(year int, month time.Month, day int) string {
	return fmt.Sprintf("%d-%d-day%d", year, int(month), day)
}
