package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/couchcryptid/met-climate-etl/internal/domain"
)

// ListRegions returns every stored region in insertion order.
func (s *Store) ListRegions(ctx context.Context) ([]domain.Region, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT code, name FROM regions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list regions: %w", err)
	}
	defer rows.Close()

	regions := []domain.Region{}
	for rows.Next() {
		var r domain.Region
		if err := rows.Scan(&r.Code, &r.Name); err != nil {
			return nil, fmt.Errorf("scan region: %w", err)
		}
		regions = append(regions, r)
	}
	return regions, rows.Err()
}

// ListMonthly returns points matching f ordered by year then month.
func (s *Store) ListMonthly(ctx context.Context, f domain.MonthlyFilter) ([]domain.MonthlyRecord, error) {
	var (
		where []string
		args  []any
	)
	if f.Region != "" {
		where = append(where, "r.code = ?")
		args = append(args, f.Region)
	}
	if f.Parameter != "" {
		where = append(where, "m.parameter = ? COLLATE NOCASE")
		args = append(args, f.Parameter)
	}
	if f.Start != 0 {
		where = append(where, "m.year >= ?")
		args = append(args, f.Start)
	}
	if f.End != 0 {
		where = append(where, "m.year <= ?")
		args = append(args, f.End)
	}
	if f.Month != 0 {
		where = append(where, "m.month = ?")
		args = append(args, f.Month)
	}

	query := `
		SELECT r.code, m.parameter, m.year, m.month, m.value
		FROM monthly_values m
		JOIN regions r ON r.id = m.region_id`
	if len(where) > 0 {
		query += "\n\t\tWHERE " + strings.Join(where, " AND ")
	}
	query += "\n\t\tORDER BY m.year, m.month, r.id, m.parameter"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list monthly: %w", err)
	}
	defer rows.Close()

	records := []domain.MonthlyRecord{}
	for rows.Next() {
		var (
			rec   domain.MonthlyRecord
			value sql.NullFloat64
		)
		if err := rows.Scan(&rec.Region, &rec.Parameter, &rec.Year, &rec.Month, &value); err != nil {
			return nil, fmt.Errorf("scan monthly: %w", err)
		}
		rec.MonthName = domain.MonthNames[rec.Month-1]
		rec.Value = nullPtr(value)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// YearlyPack returns one year of a series with all twelve months present.
// An unknown region yields domain.ErrRegionNotFound.
func (s *Store) YearlyPack(ctx context.Context, region, parameter string, year int) (domain.YearlyPack, error) {
	id, code, err := s.findRegion(ctx, region)
	if err != nil {
		return domain.YearlyPack{}, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT month, value FROM monthly_values
		WHERE region_id = ? AND parameter = ? COLLATE NOCASE AND year = ?
	`, id, parameter, year)
	if err != nil {
		return domain.YearlyPack{}, fmt.Errorf("yearly pack: %w", err)
	}
	defer rows.Close()

	pack := domain.YearlyPack{Region: code, Parameter: parameter, Year: year, Months: domain.NewMonthPack()}
	for rows.Next() {
		var (
			month int
			value sql.NullFloat64
		)
		if err := rows.Scan(&month, &value); err != nil {
			return domain.YearlyPack{}, fmt.Errorf("scan yearly pack: %w", err)
		}
		pack.Months.Set(month, nullPtr(value))
	}
	return pack, rows.Err()
}

// AllYearsPack returns a whole series keyed by year. start and end bound the
// years inclusively; zero leaves a bound open.
func (s *Store) AllYearsPack(ctx context.Context, region, parameter string, start, end int) (domain.AllYearsPack, error) {
	id, code, err := s.findRegion(ctx, region)
	if err != nil {
		return domain.AllYearsPack{}, err
	}

	query := `
		SELECT year, month, value FROM monthly_values
		WHERE region_id = ? AND parameter = ? COLLATE NOCASE`
	args := []any{id, parameter}
	if start != 0 {
		query += " AND year >= ?"
		args = append(args, start)
	}
	if end != 0 {
		query += " AND year <= ?"
		args = append(args, end)
	}
	query += " ORDER BY year, month"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return domain.AllYearsPack{}, fmt.Errorf("all years pack: %w", err)
	}
	defer rows.Close()

	pack := domain.AllYearsPack{Region: code, Parameter: parameter, Data: map[int]domain.MonthPack{}}
	for rows.Next() {
		var (
			year, month int
			value       sql.NullFloat64
		)
		if err := rows.Scan(&year, &month, &value); err != nil {
			return domain.AllYearsPack{}, fmt.Errorf("scan all years pack: %w", err)
		}
		months, ok := pack.Data[year]
		if !ok {
			months = domain.NewMonthPack()
			pack.Data[year] = months
		}
		months.Set(month, nullPtr(value))
	}
	return pack, rows.Err()
}

func (s *Store) findRegion(ctx context.Context, code string) (int64, string, error) {
	var (
		id        int64
		canonical string
	)
	err := s.db.QueryRowContext(ctx, `SELECT id, code FROM regions WHERE code = ?`, code).Scan(&id, &canonical)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, "", fmt.Errorf("%w: %s", domain.ErrRegionNotFound, code)
	}
	if err != nil {
		return 0, "", fmt.Errorf("find region %s: %w", code, err)
	}
	return id, canonical, nil
}

func nullPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
