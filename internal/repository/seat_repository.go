package repository

import (
	"context"
	"database/sql"

	"github.com/screenbook/movie-reservation/internal/model"
)

// SeatRepo provides methods to work with seats in the database.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo constructs a SeatRepo with the given DB handle.
func NewSeatRepo(db *sql.DB) *SeatRepo {
	return &SeatRepo{db: db}
}

// seatInsertQuery builds one multi-row INSERT for a batch of seats.
func seatInsertQuery(seats []model.Seat) (string, []interface{}) {
	query := `INSERT INTO seats (auditorium_id, row_label, seat_number, seat_type, price_modifier) VALUES `
	args := make([]interface{}, 0, len(seats)*5)
	for i, s := range seats {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?)"
		args = append(args, s.AuditoriumID, s.RowLabel, s.SeatNumber, s.SeatType, s.PriceModifier)
	}
	return query, args
}

// CreateBulk inserts multiple seats in a single statement.
func (r *SeatRepo) CreateBulk(ctx context.Context, seats []model.Seat) error {
	if len(seats) == 0 {
		return nil
	}
	query, args := seatInsertQuery(seats)
	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}

// ReplaceGrid atomically replaces the seat layout of an auditorium.
// Existing seats are deleted and the new batch inserted in one transaction.
// Returns ErrConflict when the auditorium already has showtimes scheduled,
// because booked seats reference seat rows that would be cascaded away.
func (r *SeatRepo) ReplaceGrid(ctx context.Context, auditoriumID uint64, seats []model.Seat) (err error) {
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

	var showtimes int
	const qCount = `SELECT COUNT(*) FROM showtimes WHERE auditorium_id = ?`
	if err = tx.QueryRowContext(ctx, qCount, auditoriumID).Scan(&showtimes); err != nil {
		return err
	}
	if showtimes > 0 {
		err = ErrConflict
		return err
	}

	const qDel = `DELETE FROM seats WHERE auditorium_id = ?`
	if _, err = tx.ExecContext(ctx, qDel, auditoriumID); err != nil {
		return err
	}

	query, args := seatInsertQuery(seats)
	_, err = tx.ExecContext(ctx, query, args...)
	return err
}

// ListByAuditorium retrieves all seats of an auditorium ordered by
// row_label then seat_number.
func (r *SeatRepo) ListByAuditorium(ctx context.Context, auditoriumID uint64) ([]model.Seat, error) {
	const q = `SELECT id, auditorium_id, row_label, seat_number, seat_type, price_modifier, created_at
	           FROM seats
	           WHERE auditorium_id = ?
	           ORDER BY row_label, seat_number`
	rows, err := r.db.QueryContext(ctx, q, auditoriumID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Seat
	for rows.Next() {
		var s model.Seat
		if err := rows.Scan(
			&s.ID, &s.AuditoriumID, &s.RowLabel, &s.SeatNumber, &s.SeatType,
			&s.PriceModifier, &s.CreatedAt,
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
