// Package repository contains data access logic separated from HTTP handlers.
// This file defines repository methods for movies. A Movie is catalog data
// referenced by showtimes; it carries no concurrency contract of its own.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/screenbook/movie-reservation/internal/model"
)

// ErrMovieNotFound is returned when a movie cannot be found in the DB.
var ErrMovieNotFound = errors.New("movie not found")

// MovieRepo encapsulates all database queries related to movies.
type MovieRepo struct {
	db *sql.DB
}

// NewMovieRepo constructs a MovieRepo with the provided DB handle.
func NewMovieRepo(db *sql.DB) *MovieRepo {
	return &MovieRepo{db: db}
}

// Create inserts a new movie into the database. On success the movie's
// ID field is populated with the auto-generated value and a follow-up
// SELECT fills the timestamp fields so callers receive a fully
// populated record.
func (r *MovieRepo) Create(ctx context.Context, m *model.Movie) error {
	const qInsert = "INSERT INTO movies (title, description, duration_minutes) VALUES (?, ?, ?)"
	res, err := r.db.ExecContext(ctx, qInsert, m.Title, m.Description, m.DurationMinutes)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)

	const qSelect = "SELECT title, description, duration_minutes, created_at, updated_at FROM movies WHERE id = ?"
	return r.db.QueryRowContext(ctx, qSelect, m.ID).
		Scan(&m.Title, &m.Description, &m.DurationMinutes, &m.CreatedAt, &m.UpdatedAt)
}

// GetByID fetches a movie by its ID. It returns ErrMovieNotFound if no
// row is found.
func (r *MovieRepo) GetByID(ctx context.Context, id uint64) (*model.Movie, error) {
	const q = "SELECT id, title, description, duration_minutes, created_at, updated_at FROM movies WHERE id = ?"
	var m model.Movie
	if err := r.db.QueryRowContext(ctx, q, id).
		Scan(&m.ID, &m.Title, &m.Description, &m.DurationMinutes, &m.CreatedAt, &m.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMovieNotFound
		}
		return nil, err
	}
	return &m, nil
}

// ListAll returns all movies ordered by id. It backs both the admin
// listing and the public catalog endpoint.
func (r *MovieRepo) ListAll(ctx context.Context) ([]model.Movie, error) {
	const q = `SELECT id, title, description, duration_minutes, created_at, updated_at
	           FROM movies ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Movie
	for rows.Next() {
		var m model.Movie
		if err := rows.Scan(&m.ID, &m.Title, &m.Description, &m.DurationMinutes, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Update replaces the mutable attributes of a movie. It returns
// ErrMovieNotFound when no row matches the id.
func (r *MovieRepo) Update(ctx context.Context, m *model.Movie) error {
	const q = `UPDATE movies
	           SET title = ?, description = ?, duration_minutes = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, m.Title, m.Description, m.DurationMinutes, m.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Distinguish "not found" from "values identical".
		var one int
		if err := r.db.QueryRowContext(ctx, "SELECT 1 FROM movies WHERE id = ? LIMIT 1", m.ID).Scan(&one); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrMovieNotFound
			}
			return err
		}
	}
	return nil
}

// Delete removes a movie. Deletion is refused with ErrConflict while
// any showtime still references the movie, so that booked seats and
// reservations are never cascaded away by a catalog edit.
func (r *MovieRepo) Delete(ctx context.Context, id uint64) error {
	var count int
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM showtimes WHERE movie_id = ?", id).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return ErrConflict
	}
	res, err := r.db.ExecContext(ctx, "DELETE FROM movies WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrMovieNotFound
	}
	return nil
}
