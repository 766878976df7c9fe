/*
Package sqlite persists reports, plans, preferences and the planned-minutes
cache in SQLite.

PURPOSE:
  The engine packages (report, plan, planning) are pure and work on values.
  This store is what the server loads them from at startup and writes every
  mutation through to, so a restart sees the same state.

KEY TABLES:
  service_reports:  one row per logged report
  day_plans:        one row per day plan, unique by date
  recurring_plans:  scalar columns plus JSON for recurrence, overrides and
                    deleted dates (always read and written as a unit)
  preferences:      single row holding the preferences JSON document
  cache_entries:    snapshot of cache.Memory, restored on startup

CONCURRENCY:
  Uses sync.RWMutex for thread-safety on top of database/sql's pool.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

NOT FOUND:
  Get* methods return (nil, nil) when the row does not exist.

USAGE:
  store, err := sqlite.New("./data/witness.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  state, err := store.LoadPlans(ctx)

SEE ALSO:
  - api/server.go: write-through from the HTTP handlers
  - cache/memory.go: Snapshot/Restore used with SaveCacheEntries
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/leviFrosty/witness-work-sub000/cache"
	"github.com/leviFrosty/witness-work-sub000/calendar"
	"github.com/leviFrosty/witness-work-sub000/credit"
	"github.com/leviFrosty/witness-work-sub000/factory"
	"github.com/leviFrosty/witness-work-sub000/plan"
	"github.com/leviFrosty/witness-work-sub000/report"
	_ "github.com/mattn/go-sqlite3"
)

// Store persists the app's data in SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Each connection to ":memory:" is a separate database.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS service_reports (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL,
		hours INTEGER NOT NULL DEFAULT 0,
		minutes INTEGER NOT NULL DEFAULT 0,
		ldc BOOLEAN NOT NULL DEFAULT FALSE,
		tag TEXT NOT NULL DEFAULT '',
		credit BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_service_reports_date
		ON service_reports(date);

	-- At most one day plan per date
	CREATE TABLE IF NOT EXISTS day_plans (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL UNIQUE,
		minutes INTEGER NOT NULL,
		note TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS recurring_plans (
		id TEXT PRIMARY KEY,
		start_date TEXT NOT NULL,
		minutes INTEGER NOT NULL,
		note TEXT NOT NULL DEFAULT '',
		recurrence_json TEXT NOT NULL,
		overrides_json TEXT NOT NULL DEFAULT '[]',
		deleted_dates_json TEXT NOT NULL DEFAULT '[]',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS preferences (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		config_json TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS cache_entries (
		key TEXT PRIMARY KEY,
		planned_minutes INTEGER NOT NULL,
		plan_hash TEXT NOT NULL,
		last_updated INTEGER NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// =============================================================================
// SERVICE REPORTS
// =============================================================================

// SaveReport inserts or replaces a report.
func (s *Store) SaveReport(ctx context.Context, r report.ServiceReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO service_reports (id, date, hours, minutes, ldc, tag, credit, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			date = excluded.date,
			hours = excluded.hours,
			minutes = excluded.minutes,
			ldc = excluded.ldc,
			tag = excluded.tag,
			credit = excluded.credit
	`

	_, err := s.db.ExecContext(ctx, query,
		r.ID,
		r.Date.Format(time.RFC3339),
		r.Hours,
		r.Minutes,
		r.LDC,
		r.Tag,
		r.Credit,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

// GetReport retrieves a report by ID.
func (s *Store) GetReport(ctx context.Context, id string) (*report.ServiceReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT id, date, hours, minutes, ldc, tag, credit FROM service_reports WHERE id = ?", id)

	r, err := scanReport(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ListReports returns every report ordered by date.
func (s *Store) ListReports(ctx context.Context) ([]report.ServiceReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, date, hours, minutes, ldc, tag, credit FROM service_reports ORDER BY date ASC, id ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	var reports []report.ServiceReport
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

// DeleteReport removes a report.
func (s *Store) DeleteReport(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM service_reports WHERE id = ?", id)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReport(row scanner) (report.ServiceReport, error) {
	var r report.ServiceReport
	var date string
	if err := row.Scan(&r.ID, &date, &r.Hours, &r.Minutes, &r.LDC, &r.Tag, &r.Credit); err != nil {
		return r, err
	}
	t, err := time.Parse(time.RFC3339, date)
	if err != nil {
		return r, fmt.Errorf("report %s: bad date %q: %w", r.ID, date, err)
	}
	r.Date = t
	return r, nil
}

// =============================================================================
// PLANS
// =============================================================================

// LoadPlans reads both plan collections.
func (s *Store) LoadPlans(ctx context.Context) (plan.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dayPlans, err := s.loadDayPlans(ctx)
	if err != nil {
		return plan.State{}, err
	}
	recurring, err := s.loadRecurringPlans(ctx)
	if err != nil {
		return plan.State{}, err
	}
	return plan.State{DayPlans: dayPlans, RecurringPlans: recurring}, nil
}

func (s *Store) loadDayPlans(ctx context.Context) ([]plan.DayPlan, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, date, minutes, note FROM day_plans ORDER BY date ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query day plans: %w", err)
	}
	defer rows.Close()

	var plans []plan.DayPlan
	for rows.Next() {
		var dp plan.DayPlan
		var date string
		if err := rows.Scan(&dp.ID, &date, &dp.Minutes, &dp.Note); err != nil {
			return nil, err
		}
		if dp.Date, err = calendar.ParseDay(date); err != nil {
			return nil, fmt.Errorf("day plan %s: %w", dp.ID, err)
		}
		plans = append(plans, dp)
	}
	return plans, rows.Err()
}

func (s *Store) loadRecurringPlans(ctx context.Context) ([]plan.RecurringPlan, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, start_date, minutes, note, recurrence_json, overrides_json, deleted_dates_json
		FROM recurring_plans
		ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query recurring plans: %w", err)
	}
	defer rows.Close()

	var plans []plan.RecurringPlan
	for rows.Next() {
		p, err := scanRecurringPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

func scanRecurringPlan(row scanner) (plan.RecurringPlan, error) {
	var p plan.RecurringPlan
	var start, recurrenceJSON, overridesJSON, deletedJSON string
	if err := row.Scan(&p.ID, &start, &p.Minutes, &p.Note, &recurrenceJSON, &overridesJSON, &deletedJSON); err != nil {
		return p, err
	}

	var err error
	if p.StartDate, err = calendar.ParseDay(start); err != nil {
		return p, fmt.Errorf("recurring plan %s: %w", p.ID, err)
	}
	if err := json.Unmarshal([]byte(recurrenceJSON), &p.Recurrence); err != nil {
		return p, fmt.Errorf("recurring plan %s: bad recurrence: %w", p.ID, err)
	}
	if err := json.Unmarshal([]byte(overridesJSON), &p.Overrides); err != nil {
		return p, fmt.Errorf("recurring plan %s: bad overrides: %w", p.ID, err)
	}
	if err := json.Unmarshal([]byte(deletedJSON), &p.DeletedDates); err != nil {
		return p, fmt.Errorf("recurring plan %s: bad deleted dates: %w", p.ID, err)
	}
	if len(p.Overrides) == 0 {
		p.Overrides = nil
	}
	if len(p.DeletedDates) == 0 {
		p.DeletedDates = nil
	}
	return p, nil
}

// SaveDayPlan inserts or replaces a day plan. A different plan already on
// the same date is replaced.
func (s *Store) SaveDayPlan(ctx context.Context, dp plan.DayPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := saveDayPlan(ctx, tx, dp); err != nil {
		return err
	}
	return tx.Commit()
}

func saveDayPlan(ctx context.Context, db execer, dp plan.DayPlan) error {
	if _, err := db.ExecContext(ctx, "DELETE FROM day_plans WHERE date = ? AND id != ?", dp.Date.String(), dp.ID); err != nil {
		return err
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO day_plans (id, date, minutes, note, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			date = excluded.date,
			minutes = excluded.minutes,
			note = excluded.note
	`, dp.ID, dp.Date.String(), dp.Minutes, dp.Note, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save day plan: %w", err)
	}
	return nil
}

// DeleteDayPlan removes a day plan.
func (s *Store) DeleteDayPlan(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM day_plans WHERE id = ?", id)
	return err
}

// SaveRecurringPlan inserts or replaces a recurring plan, including its
// overrides and deleted dates.
func (s *Store) SaveRecurringPlan(ctx context.Context, p plan.RecurringPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveRecurringPlan(ctx, s.db, p)
}

func saveRecurringPlan(ctx context.Context, db execer, p plan.RecurringPlan) error {
	recurrenceJSON, err := json.Marshal(p.Recurrence)
	if err != nil {
		return err
	}
	overrides := p.Overrides
	if overrides == nil {
		overrides = []plan.Override{}
	}
	overridesJSON, err := json.Marshal(overrides)
	if err != nil {
		return err
	}
	deleted := p.DeletedDates
	if deleted == nil {
		deleted = []calendar.Day{}
	}
	deletedJSON, err := json.Marshal(deleted)
	if err != nil {
		return err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = db.ExecContext(ctx, `
		INSERT INTO recurring_plans
		(id, start_date, minutes, note, recurrence_json, overrides_json, deleted_dates_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			start_date = excluded.start_date,
			minutes = excluded.minutes,
			note = excluded.note,
			recurrence_json = excluded.recurrence_json,
			overrides_json = excluded.overrides_json,
			deleted_dates_json = excluded.deleted_dates_json,
			updated_at = excluded.updated_at
	`, p.ID, p.StartDate.String(), p.Minutes, p.Note,
		string(recurrenceJSON), string(overridesJSON), string(deletedJSON), now, now)
	if err != nil {
		return fmt.Errorf("failed to save recurring plan: %w", err)
	}
	return nil
}

// GetRecurringPlan retrieves a recurring plan by ID.
func (s *Store) GetRecurringPlan(ctx context.Context, id string) (*plan.RecurringPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, start_date, minutes, note, recurrence_json, overrides_json, deleted_dates_json
		FROM recurring_plans WHERE id = ?
	`, id)

	p, err := scanRecurringPlan(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// DeleteRecurringPlan removes a recurring plan.
func (s *Store) DeleteRecurringPlan(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM recurring_plans WHERE id = ?", id)
	return err
}

// DeleteAllPlans empties both plan tables.
func (s *Store) DeleteAllPlans(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"day_plans", "recurring_plans"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// PREFERENCES
// =============================================================================

// SavePreferences stores the preferences document.
func (s *Store) SavePreferences(ctx context.Context, p credit.Preferences) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	configJSON, err := json.Marshal(factory.NewPreferencesFactory().ToJSON(p))
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO preferences (id, config_json, updated_at)
		VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			config_json = excluded.config_json,
			updated_at = excluded.updated_at
	`, string(configJSON), time.Now().UTC().Format(time.RFC3339))
	return err
}

// GetPreferences returns the stored preferences, or nil if none were saved.
func (s *Store) GetPreferences(ctx context.Context) (*credit.Preferences, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var configJSON string
	err := s.db.QueryRowContext(ctx, "SELECT config_json FROM preferences WHERE id = 1").Scan(&configJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return factory.ParsePreferences(configJSON)
}

// =============================================================================
// CACHE ENTRIES
// =============================================================================

// SaveCacheEntries replaces the stored cache with entries.
func (s *Store) SaveCacheEntries(ctx context.Context, entries map[string]cache.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM cache_entries"); err != nil {
		return err
	}
	for key, e := range entries {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO cache_entries (key, planned_minutes, plan_hash, last_updated) VALUES (?, ?, ?, ?)",
			key, e.PlannedMinutes, e.PlanHash, e.LastUpdated)
		if err != nil {
			return fmt.Errorf("failed to save cache entry %s: %w", key, err)
		}
	}
	return tx.Commit()
}

// LoadCacheEntries returns every stored cache entry.
func (s *Store) LoadCacheEntries(ctx context.Context) (map[string]cache.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT key, planned_minutes, plan_hash, last_updated FROM cache_entries")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make(map[string]cache.Entry)
	for rows.Next() {
		var key string
		var e cache.Entry
		if err := rows.Scan(&key, &e.PlannedMinutes, &e.PlanHash, &e.LastUpdated); err != nil {
			return nil, err
		}
		entries[key] = e
	}
	return entries, rows.Err()
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data: reports, plans, preferences and cache.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"service_reports", "day_plans", "recurring_plans", "preferences", "cache_entries"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}
