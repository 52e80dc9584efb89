// Package repository contains data access logic for showtime scheduling. A
// Showtime represents a scheduled screening of a movie in an auditorium; two
// showtimes in the same auditorium must never overlap in time.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/screenbook/movie-reservation/internal/model"
)

// ErrShowtimeNotFound indicates that a showtime was not located in the DB.
var ErrShowtimeNotFound = errors.New("showtime not found")

// ErrNoChange indicates the UPDATE attempted to set fields equal to current values.
var ErrNoChange = errors.New("no change")

// ShowtimeRepo manages persistence for showtimes.
type ShowtimeRepo struct {
	db *sql.DB
}

// NewShowtimeRepo constructs a ShowtimeRepo with the given DB handle.
func NewShowtimeRepo(db *sql.DB) *ShowtimeRepo {
	return &ShowtimeRepo{db: db}
}

// Create inserts a new showtime and assigns the generated ID back to the
// struct. The caller must provide movie_id, auditorium_id, starts_at,
// ends_at and base_price; timestamps are populated from the inserted row.
func (r *ShowtimeRepo) Create(ctx context.Context, s *model.Showtime) error {
	const q = `INSERT INTO showtimes (movie_id, auditorium_id, starts_at, ends_at, base_price)
	           VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, s.MovieID, s.AuditoriumID, s.StartsAt, s.EndsAt, s.BasePrice)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	const sel = `SELECT id, movie_id, auditorium_id, starts_at, ends_at, base_price, created_at, updated_at
	             FROM showtimes WHERE id = ?`
	return r.db.QueryRowContext(ctx, sel, s.ID).Scan(
		&s.ID, &s.MovieID, &s.AuditoriumID, &s.StartsAt, &s.EndsAt, &s.BasePrice, &s.CreatedAt, &s.UpdatedAt,
	)
}

// GetByID retrieves a showtime by its ID. It returns ErrShowtimeNotFound
// if there is no matching row.
func (r *ShowtimeRepo) GetByID(ctx context.Context, id uint64) (*model.Showtime, error) {
	const q = `SELECT id, movie_id, auditorium_id, starts_at, ends_at, base_price, created_at, updated_at
	           FROM showtimes WHERE id = ?`
	var s model.Showtime
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&s.ID, &s.MovieID, &s.AuditoriumID, &s.StartsAt, &s.EndsAt, &s.BasePrice, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrShowtimeNotFound
		}
		return nil, err
	}
	return &s, nil
}

// ListByMovie returns all showtimes for a movie ordered by start time ascending.
// When no showtimes exist it returns an empty slice and nil error.
func (r *ShowtimeRepo) ListByMovie(ctx context.Context, movieID uint64) ([]model.Showtime, error) {
	const q = `SELECT id, movie_id, auditorium_id, starts_at, ends_at, base_price, created_at, updated_at
	           FROM showtimes
	           WHERE movie_id = ?
	           ORDER BY starts_at ASC`
	rows, err := r.db.QueryContext(ctx, q, movieID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []model.Showtime
	for rows.Next() {
		var s model.Showtime
		if err := rows.Scan(
			&s.ID, &s.MovieID, &s.AuditoriumID, &s.StartsAt, &s.EndsAt, &s.BasePrice, &s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ListAll returns every showtime ordered by start time ascending. This
// backs the admin listing; the public search goes through SearchUpcoming.
func (r *ShowtimeRepo) ListAll(ctx context.Context) ([]model.Showtime, error) {
	const q = `SELECT id, movie_id, auditorium_id, starts_at, ends_at, base_price, created_at, updated_at
	           FROM showtimes
	           ORDER BY starts_at ASC`
	return r.queryShowtimes(ctx, q)
}

// FindOverlapping finds all showtimes in the specified auditorium whose
// schedule overlaps the interval [start, end). A showtime overlaps when it
// starts before the proposed end and ends after the proposed start.
func (r *ShowtimeRepo) FindOverlapping(ctx context.Context, auditoriumID uint64, start, end time.Time) ([]model.Showtime, error) {
	const q = `SELECT id, movie_id, auditorium_id, starts_at, ends_at, base_price, created_at, updated_at
	           FROM showtimes
	           WHERE auditorium_id = ? AND NOT (ends_at <= ? OR starts_at >= ?)`
	return r.queryShowtimes(ctx, q, auditoriumID, start, end)
}

// FindOverlappingExcluding is similar to FindOverlapping but excludes the
// showtime with the given ID, so an update can overlap with itself.
func (r *ShowtimeRepo) FindOverlappingExcluding(ctx context.Context, auditoriumID, excludeID uint64, start, end time.Time) ([]model.Showtime, error) {
	const q = `SELECT id, movie_id, auditorium_id, starts_at, ends_at, base_price, created_at, updated_at
	           FROM showtimes
	           WHERE auditorium_id = ? AND id <> ? AND NOT (ends_at <= ? OR starts_at >= ?)`
	return r.queryShowtimes(ctx, q, auditoriumID, excludeID, start, end)
}

func (r *ShowtimeRepo) queryShowtimes(ctx context.Context, q string, args ...interface{}) ([]model.Showtime, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []model.Showtime
	for rows.Next() {
		var s model.Showtime
		if err := rows.Scan(
			&s.ID, &s.MovieID, &s.AuditoriumID, &s.StartsAt, &s.EndsAt, &s.BasePrice, &s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Update modifies movie_id, starts_at, ends_at and base_price of a showtime.
// The auditorium is immutable; moving a screening to another room would
// invalidate seats already booked against the old layout. The UPDATE only
// runs when at least one field differs; otherwise ErrNoChange is returned.
// When the row does not exist, ErrShowtimeNotFound is returned.
func (r *ShowtimeRepo) Update(ctx context.Context, s *model.Showtime) error {
	const q = `UPDATE showtimes
	           SET movie_id = ?, starts_at = ?, ends_at = ?, base_price = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ?
	             AND (movie_id <> ? OR starts_at <> ? OR ends_at <> ? OR base_price <> ?)`
	res, err := r.db.ExecContext(ctx, q,
		s.MovieID, s.StartsAt, s.EndsAt, s.BasePrice,
		s.ID,
		s.MovieID, s.StartsAt, s.EndsAt, s.BasePrice,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	// Determine whether the row is missing or simply unchanged.
	const qExists = `SELECT 1 FROM showtimes WHERE id = ? LIMIT 1`
	var one int
	if err := r.db.QueryRowContext(ctx, qExists, s.ID).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrShowtimeNotFound
		}
		return err
	}
	return ErrNoChange
}

// Delete removes a showtime inside a transaction. If any reservations exist
// for the showtime the deletion is aborted and ErrConflict is returned, so
// that booking history is never silently destroyed. If the showtime does not
// exist, ErrShowtimeNotFound is returned.
func (r *ShowtimeRepo) Delete(ctx context.Context, id uint64) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	var one int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM showtimes WHERE id = ? LIMIT 1`, id).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrShowtimeNotFound
		}
		return err
	}

	var resCount int
	if err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM reservations WHERE showtime_id = ?`, id).Scan(&resCount); err != nil {
		return err
	}
	if resCount > 0 {
		err = ErrConflict
		return err
	}

	_, err = tx.ExecContext(ctx, `DELETE FROM showtimes WHERE id = ?`, id)
	return err
}
