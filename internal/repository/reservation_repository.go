package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/screenbook/movie-reservation/internal/model"
)

// ReservationRepo assembles reservation read models for customers and
// admins. Writes to reservations go through BookingRepo; this repository
// only joins the rows with showtime, movie, auditorium and seat details
// for display.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// ReservationSeat is one seat line inside a reservation detail.
type ReservationSeat struct {
	SeatID     uint64 `json:"seat_id"`
	RowLabel   string `json:"row_label"`
	SeatNumber uint32 `json:"seat_number"`
}

// ReservationDetail is a reservation together with its showtime, movie,
// auditorium and seats. UserID is only populated for admin views.
type ReservationDetail struct {
	ID             uint64            `json:"id"`
	UserID         *uint64           `json:"user_id,omitempty"`
	ShowtimeID     uint64            `json:"showtime_id"`
	Status         string            `json:"status"`
	TotalPrice     decimal.Decimal   `json:"total_price"`
	MovieTitle     string            `json:"movie_title"`
	AuditoriumID   uint64            `json:"auditorium_id"`
	AuditoriumName string            `json:"auditorium_name"`
	StartsAt       time.Time         `json:"starts_at"`
	EndsAt         time.Time         `json:"ends_at"`
	ExpiresAt      *time.Time        `json:"expires_at,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	Seats          []ReservationSeat `json:"seats"`
}

const reservationDetailColumns = `r.id, r.user_id, r.showtime_id, r.status, r.total_price, r.expires_at, r.created_at,
	                  m.title, a.id, a.name, st.starts_at, st.ends_at`

func scanReservationDetail(scanner interface{ Scan(...interface{}) error }) (ReservationDetail, error) {
	var d ReservationDetail
	err := scanner.Scan(
		&d.ID, &d.UserID, &d.ShowtimeID, &d.Status, &d.TotalPrice, &d.ExpiresAt, &d.CreatedAt,
		&d.MovieTitle, &d.AuditoriumID, &d.AuditoriumName, &d.StartsAt, &d.EndsAt,
	)
	if err != nil {
		return ReservationDetail{}, err
	}
	d.Seats = []ReservationSeat{}
	return d, nil
}

// GetByIDForUser returns a single reservation restricted to the given user.
// It returns model.ErrReservationNotFound when no matching row exists, which
// deliberately does not reveal whether the reservation belongs to someone else.
func (r *ReservationRepo) GetByIDForUser(ctx context.Context, reservationID, userID uint64) (*ReservationDetail, error) {
	const q = `SELECT ` + reservationDetailColumns + `
	           FROM reservations r
	           JOIN showtimes st ON st.id = r.showtime_id
	           JOIN movies m ON m.id = st.movie_id
	           JOIN auditoriums a ON a.id = st.auditorium_id
	           WHERE r.id = ? AND r.user_id = ?`
	d, err := scanReservationDetail(r.db.QueryRowContext(ctx, q, reservationID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrReservationNotFound
		}
		return nil, err
	}
	d.UserID = nil // the caller is the owner
	if err := r.populateSeats(ctx, []*ReservationDetail{&d}); err != nil {
		return nil, err
	}
	return &d, nil
}

// ListByUser returns all reservations of a user, newest first. When the
// user has none, an empty slice is returned.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64) ([]ReservationDetail, error) {
	const q = `SELECT ` + reservationDetailColumns + `
	           FROM reservations r
	           JOIN showtimes st ON st.id = r.showtime_id
	           JOIN movies m ON m.id = st.movie_id
	           JOIN auditoriums a ON a.id = st.auditorium_id
	           WHERE r.user_id = ?
	           ORDER BY r.created_at DESC`
	return r.listDetails(ctx, q, func(d *ReservationDetail) { d.UserID = nil }, userID)
}

// ListByShowtime returns all reservations for a showtime, newest first.
// UserID stays populated; this view is for admins.
func (r *ReservationRepo) ListByShowtime(ctx context.Context, showtimeID uint64) ([]ReservationDetail, error) {
	const q = `SELECT ` + reservationDetailColumns + `
	           FROM reservations r
	           JOIN showtimes st ON st.id = r.showtime_id
	           JOIN movies m ON m.id = st.movie_id
	           JOIN auditoriums a ON a.id = st.auditorium_id
	           WHERE r.showtime_id = ?
	           ORDER BY r.created_at DESC`
	return r.listDetails(ctx, q, nil, showtimeID)
}

func (r *ReservationRepo) listDetails(ctx context.Context, q string, mutate func(*ReservationDetail), args ...interface{}) ([]ReservationDetail, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	details := make([]ReservationDetail, 0)
	for rows.Next() {
		d, err := scanReservationDetail(rows)
		if err != nil {
			return nil, err
		}
		if mutate != nil {
			mutate(&d)
		}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(details) == 0 {
		return details, nil
	}

	refs := make([]*ReservationDetail, len(details))
	for i := range details {
		refs[i] = &details[i]
	}
	if err := r.populateSeats(ctx, refs); err != nil {
		return nil, err
	}
	return details, nil
}

// populateSeats fills the Seats slice of each detail with one query. Only
// seats of confirmed reservations have booked_seats rows; held and
// cancelled reservations keep an empty list.
func (r *ReservationRepo) populateSeats(ctx context.Context, details []*ReservationDetail) error {
	ids := make([]interface{}, 0, len(details))
	placeholders := make([]string, 0, len(details))
	index := make(map[uint64]*ReservationDetail, len(details))
	for _, d := range details {
		ids = append(ids, d.ID)
		placeholders = append(placeholders, "?")
		index[d.ID] = d
	}
	q := `SELECT bs.reservation_id, bs.seat_id, se.row_label, se.seat_number
	      FROM booked_seats bs
	      JOIN seats se ON se.id = bs.seat_id
	      WHERE bs.reservation_id IN (` + strings.Join(placeholders, ",") + `)
	      ORDER BY bs.reservation_id, se.row_label, se.seat_number`
	rows, err := r.db.QueryContext(ctx, q, ids...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var rid uint64
		var seat ReservationSeat
		if err := rows.Scan(&rid, &seat.SeatID, &seat.RowLabel, &seat.SeatNumber); err != nil {
			return err
		}
		if d, ok := index[rid]; ok {
			d.Seats = append(d.Seats, seat)
		}
	}
	return rows.Err()
}
