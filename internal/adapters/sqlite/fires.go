package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/samirrijal/hazardboard/internal/core/domain"
)

// Source implements ports.FireSource over a fire_points snapshot.
type Source struct{}

// NewSource creates a SQLite fire source.
func NewSource() *Source {
	return &Source{}
}

// ReadFires reads every row of the fire_points table in the database at path.
func (s *Source) ReadFires(ctx context.Context, path string) ([]domain.RawFireRow, error) {
	// sql.Open would silently create a missing file.
	if _, err := os.Stat(path); err != nil {
		return nil, &domain.FileAccessError{Path: path, Err: err}
	}

	db, err := OpenReadOnly(path)
	if err != nil {
		return nil, &domain.FileAccessError{Path: path, Err: err}
	}
	defer db.Close()

	return NewFireStore(db).All(ctx)
}

// FireStore reads and writes the fire_points table.
type FireStore struct {
	db *DB
}

// NewFireStore creates a FireStore.
func NewFireStore(db *DB) *FireStore {
	return &FireStore{db: db}
}

// All returns every row ordered by insertion.
func (s *FireStore) All(ctx context.Context) ([]domain.RawFireRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT acq_date, latitude, longitude, brightness, frp,
		       COALESCE(confidence, ''), COALESCE(daynight, ''),
		       COALESCE(satellite, ''), COALESCE(instrument, ''), geometry
		FROM fire_points
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query fire_points: %w", err)
	}
	defer rows.Close()

	var out []domain.RawFireRow
	for rows.Next() {
		var r domain.RawFireRow
		if err := rows.Scan(&r.AcqDate, &r.Latitude, &r.Longitude, &r.Brightness, &r.FRP,
			&r.Confidence, &r.DayNight, &r.Satellite, &r.Instrument, &r.Geometry); err != nil {
			return nil, fmt.Errorf("scan fire_points: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// WriteFires appends rows in a single transaction and returns the number written.
func (s *FireStore) WriteFires(ctx context.Context, rows []domain.RawFireRow) (int, error) {
	return s.write(ctx, rows, false)
}

// ReplaceFires swaps the table contents for rows in a single transaction.
// On any failure the previous rows are kept.
func (s *FireStore) ReplaceFires(ctx context.Context, rows []domain.RawFireRow) (int, error) {
	return s.write(ctx, rows, true)
}

func (s *FireStore) write(ctx context.Context, rows []domain.RawFireRow, replace bool) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if replace {
		if _, err := tx.ExecContext(ctx, `DELETE FROM fire_points`); err != nil {
			return 0, fmt.Errorf("clear fire_points: %w", err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO fire_points
			(acq_date, latitude, longitude, brightness, frp, confidence, daynight, satellite, instrument, geometry)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := range rows {
		r := &rows[i]
		if _, err := stmt.ExecContext(ctx, r.AcqDate, r.Latitude, r.Longitude, r.Brightness, r.FRP,
			nullString(r.Confidence), nullString(r.DayNight), nullString(r.Satellite), nullString(r.Instrument),
			r.Geometry); err != nil {
			return 0, fmt.Errorf("insert row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return len(rows), nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
