package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/couchcryptid/met-climate-etl/internal/domain"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jonboulle/clockwork"
	_ "modernc.org/sqlite"
)

const regionCacheSize = 128

// Store persists regions and monthly values in a SQLite database. Writes are
// serialized through a single connection.
type Store struct {
	db        *sql.DB
	clock     clockwork.Clock
	regionIDs *lru.Cache[string, int64]
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New opens (creating if needed) the database at path and applies the schema.
func New(path string, clock clockwork.Clock) (*Store, error) {
	if path == "" {
		return nil, errors.New("sqlite: path is required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	db.SetMaxOpenConns(1)

	cache, err := lru.New[string, int64](regionCacheSize)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: region cache: %w", err)
	}

	s := &Store{db: db, clock: clock, regionIDs: cache}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: migrate: %w", err)
	}
	return s, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// EnsureRegions creates missing regions and refreshes display names of
// existing ones. Codes are stored in their underscored form.
func (s *Store) EnsureRegions(ctx context.Context, regions []domain.Region) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, r := range regions {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO regions (code, name) VALUES (?, ?)
			ON CONFLICT(code) DO UPDATE SET name = excluded.name
		`, r.StorageCode(), r.Name); err != nil {
			return fmt.Errorf("ensure region %s: %w", r.Code, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit regions: %w", err)
	}
	return nil
}

// Upsert writes a single point and reports whether it was created or updated.
func (s *Store) Upsert(ctx context.Context, p domain.MonthlyPoint) (domain.UpsertResult, error) {
	counts, err := s.UpsertBatch(ctx, []domain.MonthlyPoint{p})
	if err != nil {
		return 0, err
	}
	if counts.Created == 1 {
		return domain.UpsertCreated, nil
	}
	return domain.UpsertUpdated, nil
}

// UpsertBatch writes points in one transaction. Existing keys are overwritten,
// including present-to-missing and missing-to-present transitions. On error
// nothing from the batch is kept and the returned counts are zero.
func (s *Store) UpsertBatch(ctx context.Context, points []domain.MonthlyPoint) (counts domain.WriteCounts, err error) {
	if len(points) == 0 {
		return counts, nil
	}
	for _, p := range points {
		if err := p.Validate(); err != nil {
			return counts, err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return counts, fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			counts = domain.WriteCounts{}
		}
	}()

	exists, err := tx.PrepareContext(ctx, `
		SELECT 1 FROM monthly_values
		WHERE region_id = ? AND parameter = ? AND year = ? AND month = ?
	`)
	if err != nil {
		return counts, fmt.Errorf("prepare exists: %w", err)
	}
	defer exists.Close()

	upsert, err := tx.PrepareContext(ctx, `
		INSERT INTO monthly_values (region_id, parameter, year, month, value, ingested_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(region_id, parameter, year, month)
		DO UPDATE SET
			value = excluded.value,
			ingested_at = excluded.ingested_at
	`)
	if err != nil {
		return counts, fmt.Errorf("prepare upsert: %w", err)
	}
	defer upsert.Close()

	now := s.clock.Now().UTC().Format(time.RFC3339Nano)
	for _, p := range points {
		regionID, err := s.regionID(ctx, tx, p.Region)
		if err != nil {
			return counts, err
		}

		result := domain.UpsertUpdated
		var one int
		switch err := exists.QueryRowContext(ctx, regionID, string(p.Parameter), p.Year, p.Month).Scan(&one); {
		case errors.Is(err, sql.ErrNoRows):
			result = domain.UpsertCreated
		case err != nil:
			return counts, fmt.Errorf("lookup %s %s %d-%02d: %w", p.Region, p.Parameter, p.Year, p.Month, err)
		}

		value := sql.NullFloat64{Float64: p.Value.V, Valid: p.Value.Valid}
		if _, err := upsert.ExecContext(ctx, regionID, string(p.Parameter), p.Year, p.Month, value, now); err != nil {
			return counts, fmt.Errorf("upsert %s %s %d-%02d: %w", p.Region, p.Parameter, p.Year, p.Month, err)
		}
		counts.Add(result)
	}

	if err = tx.Commit(); err != nil {
		return counts, fmt.Errorf("commit points: %w", err)
	}
	return counts, nil
}

// regionID resolves a region code to its row id through the LRU cache.
func (s *Store) regionID(ctx context.Context, q queryer, code string) (int64, error) {
	key := strings.ToLower(code)
	if id, ok := s.regionIDs.Get(key); ok {
		return id, nil
	}

	var id int64
	err := q.QueryRowContext(ctx, `SELECT id FROM regions WHERE code = ?`, code).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: %s", domain.ErrRegionNotFound, code)
	}
	if err != nil {
		return 0, fmt.Errorf("lookup region %s: %w", code, err)
	}
	s.regionIDs.Add(key, id)
	return id, nil
}

func (s *Store) migrate() error {
	statements := []string{
		`PRAGMA foreign_keys = ON;`,
		`PRAGMA busy_timeout = 5000;`,
		`CREATE TABLE IF NOT EXISTS regions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			code TEXT NOT NULL UNIQUE COLLATE NOCASE,
			name TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS monthly_values (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			region_id INTEGER NOT NULL REFERENCES regions(id) ON DELETE CASCADE,
			parameter TEXT NOT NULL,
			year INTEGER NOT NULL,
			month INTEGER NOT NULL CHECK (month BETWEEN 1 AND 12),
			value REAL,
			ingested_at TEXT NOT NULL,
			UNIQUE (region_id, parameter, year, month)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_monthly_parameter_year_month
			ON monthly_values (parameter, year, month);`,
	}

	for _, statement := range statements {
		if _, err := s.db.Exec(statement); err != nil {
			return err
		}
	}
	return nil
}
