package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/screenbook/movie-reservation/internal/model"
)

// ErrAuditoriumNotFound is returned when an auditorium lookup yields no rows.
var ErrAuditoriumNotFound = errors.New("auditorium not found")

// AuditoriumRepo encapsulates database queries for auditoriums.
type AuditoriumRepo struct {
	db *sql.DB
}

// NewAuditoriumRepo constructs an AuditoriumRepo with the given DB handle.
func NewAuditoriumRepo(db *sql.DB) *AuditoriumRepo {
	return &AuditoriumRepo{db: db}
}

// Create inserts a new auditorium and populates the generated ID and
// timestamp fields on the given struct.
func (r *AuditoriumRepo) Create(ctx context.Context, a *model.Auditorium) error {
	const qInsert = "INSERT INTO auditoriums (name) VALUES (?)"
	res, err := r.db.ExecContext(ctx, qInsert, a.Name)
	if err != nil {
		if isDuplicateEntry(err) {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = uint64(id)

	const qSelect = "SELECT name, created_at, updated_at FROM auditoriums WHERE id = ?"
	return r.db.QueryRowContext(ctx, qSelect, a.ID).Scan(&a.Name, &a.CreatedAt, &a.UpdatedAt)
}

// GetByID fetches an auditorium by its ID. It returns
// ErrAuditoriumNotFound if no row is found.
func (r *AuditoriumRepo) GetByID(ctx context.Context, id uint64) (*model.Auditorium, error) {
	const q = "SELECT id, name, created_at, updated_at FROM auditoriums WHERE id = ?"
	var a model.Auditorium
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&a.ID, &a.Name, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAuditoriumNotFound
		}
		return nil, err
	}
	return &a, nil
}

// ListAll returns all auditoriums ordered by id.
func (r *AuditoriumRepo) ListAll(ctx context.Context) ([]model.Auditorium, error) {
	const q = "SELECT id, name, created_at, updated_at FROM auditoriums ORDER BY id"
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Auditorium
	for rows.Next() {
		var a model.Auditorium
		if err := rows.Scan(&a.ID, &a.Name, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateName renames an auditorium. It returns ErrAuditoriumNotFound when
// the row does not exist and ErrConflict when the name is already taken.
func (r *AuditoriumRepo) UpdateName(ctx context.Context, id uint64, name string) error {
	res, err := r.db.ExecContext(ctx, "UPDATE auditoriums SET name = ? WHERE id = ?", name, id)
	if err != nil {
		if isDuplicateEntry(err) {
			return ErrConflict
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists int
		if err := r.db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM auditoriums WHERE id = ?", id).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return ErrAuditoriumNotFound
		}
	}
	return nil
}

// Delete removes an auditorium. ErrConflict is returned while any
// showtime still references it; seats are removed by the FK cascade.
func (r *AuditoriumRepo) Delete(ctx context.Context, id uint64) error {
	var count int
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM showtimes WHERE auditorium_id = ?", id).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return ErrConflict
	}
	res, err := r.db.ExecContext(ctx, "DELETE FROM auditoriums WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrAuditoriumNotFound
	}
	return nil
}
