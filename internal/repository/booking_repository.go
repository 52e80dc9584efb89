// Package repository contains data access logic for the booking engine.
// BookingRepo is the durable side of the two-store booking flow: MySQL holds
// reservations and booked_seats, and the uq_showtime_seat unique key on
// booked_seats is the single arbiter when two confirmations race.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/screenbook/movie-reservation/internal/model"
)

// isDuplicateEntry reports whether err is a MySQL duplicate-key violation
// (error 1062), raised when an INSERT collides with a unique index.
func isDuplicateEntry(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}

// BookingRepo bundles the queries the booking engine needs against MySQL.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo constructs a BookingRepo with the given DB handle.
func NewBookingRepo(db *sql.DB) *BookingRepo {
	return &BookingRepo{db: db}
}

// ShowtimeByID loads a showtime or returns ErrShowtimeNotFound.
func (r *BookingRepo) ShowtimeByID(ctx context.Context, id uint64) (*model.Showtime, error) {
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

// SeatsByAuditorium returns the full seat layout of an auditorium ordered
// by row_label then seat_number. The order is what seat maps are rendered in.
func (r *BookingRepo) SeatsByAuditorium(ctx context.Context, auditoriumID uint64) ([]model.Seat, error) {
	const q = `SELECT id, auditorium_id, row_label, seat_number, seat_type, price_modifier, created_at
	           FROM seats
	           WHERE auditorium_id = ?
	           ORDER BY row_label, seat_number`
	rows, err := r.db.QueryContext(ctx, q, auditoriumID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var seats []model.Seat
	for rows.Next() {
		var s model.Seat
		if err := rows.Scan(
			&s.ID, &s.AuditoriumID, &s.RowLabel, &s.SeatNumber, &s.SeatType, &s.PriceModifier, &s.CreatedAt,
		); err != nil {
			return nil, err
		}
		seats = append(seats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return seats, nil
}

// SeatsByIDs returns the seats with the given IDs that belong to the given
// auditorium. Seats from other auditoriums are not returned, so a caller
// comparing input and output lengths catches both unknown IDs and seats
// picked from the wrong room.
func (r *BookingRepo) SeatsByIDs(ctx context.Context, auditoriumID uint64, ids []uint64) ([]model.Seat, error) {
	if len(ids) == 0 {
		return []model.Seat{}, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]interface{}, 0, len(ids)+1)
	args = append(args, auditoriumID)
	for i, id := range ids {
		placeholders[i] = "?"
		args = append(args, id)
	}
	q := `SELECT id, auditorium_id, row_label, seat_number, seat_type, price_modifier, created_at
	      FROM seats
	      WHERE auditorium_id = ? AND id IN (` + strings.Join(placeholders, ",") + `)`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var seats []model.Seat
	for rows.Next() {
		var s model.Seat
		if err := rows.Scan(
			&s.ID, &s.AuditoriumID, &s.RowLabel, &s.SeatNumber, &s.SeatType, &s.PriceModifier, &s.CreatedAt,
		); err != nil {
			return nil, err
		}
		seats = append(seats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return seats, nil
}

// BookedSeatIDs returns the seat IDs already sold for a showtime.
func (r *BookingRepo) BookedSeatIDs(ctx context.Context, showtimeID uint64) ([]uint64, error) {
	const q = `SELECT seat_id FROM booked_seats WHERE showtime_id = ?`
	rows, err := r.db.QueryContext(ctx, q, showtimeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

// CreateHeldReservation inserts a reservation in status held with the given
// expiry and populates the generated ID and DB defaults on the struct. The
// durable row is written before any hold entry so that a crash between the
// two writes leaves a harmless held row that simply times out.
func (r *BookingRepo) CreateHeldReservation(ctx context.Context, res *model.Reservation) error {
	const q = `INSERT INTO reservations (user_id, showtime_id, status, total_price, expires_at)
	           VALUES (?, ?, ?, ?, ?)`
	result, err := r.db.ExecContext(ctx, q, res.UserID, res.ShowtimeID, model.ReservationStatusHeld, res.TotalPrice, res.ExpiresAt)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	const sel = `SELECT id, user_id, showtime_id, status, total_price, created_at, expires_at
	             FROM reservations WHERE id = ?`
	return r.db.QueryRowContext(ctx, sel, res.ID).Scan(
		&res.ID, &res.UserID, &res.ShowtimeID, &res.Status, &res.TotalPrice, &res.CreatedAt, &res.ExpiresAt,
	)
}

// ReservationByID loads a reservation or returns model.ErrReservationNotFound.
func (r *BookingRepo) ReservationByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	const q = `SELECT id, user_id, showtime_id, status, total_price, created_at, expires_at
	           FROM reservations WHERE id = ?`
	var res model.Reservation
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&res.ID, &res.UserID, &res.ShowtimeID, &res.Status, &res.TotalPrice, &res.CreatedAt, &res.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrReservationNotFound
		}
		return nil, err
	}
	return &res, nil
}

// ConfirmReservation inserts one booked_seats row per seat and flips the
// reservation to confirmed, all inside a single transaction. When any seat
// collides with the uq_showtime_seat unique key the whole transaction rolls
// back and model.ErrSeatConflict is returned: either every seat is sold to
// this reservation or none is.
func (r *BookingRepo) ConfirmReservation(ctx context.Context, reservationID, showtimeID uint64, seatIDs []uint64) (err error) {
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

	query := `INSERT INTO booked_seats (showtime_id, seat_id, reservation_id) VALUES `
	args := make([]interface{}, 0, len(seatIDs)*3)
	for i, seatID := range seatIDs {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?)"
		args = append(args, showtimeID, seatID, reservationID)
	}
	if _, err = tx.ExecContext(ctx, query, args...); err != nil {
		if isDuplicateEntry(err) {
			err = model.ErrSeatConflict
		}
		return err
	}

	const upd = `UPDATE reservations SET status = ? WHERE id = ?`
	_, err = tx.ExecContext(ctx, upd, model.ReservationStatusConfirmed, reservationID)
	return err
}

// SetReservationStatus updates the status column of a reservation.
func (r *BookingRepo) SetReservationStatus(ctx context.Context, id uint64, status string) error {
	const q = `UPDATE reservations SET status = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, status, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrReservationNotFound
	}
	return nil
}

// ReleaseReservation removes the booked_seats rows of a confirmed
// reservation and marks it cancelled in one transaction. The freed seats
// become available the moment the transaction commits.
func (r *BookingRepo) ReleaseReservation(ctx context.Context, id uint64) (err error) {
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

	if _, err = tx.ExecContext(ctx, `DELETE FROM booked_seats WHERE reservation_id = ?`, id); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `UPDATE reservations SET status = ? WHERE id = ?`, model.ReservationStatusCancelled, id)
	return err
}
