package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/screenbook/movie-reservation/internal/model"
)

func newBookingRepo(t *testing.T) (*BookingRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewBookingRepo(db), mock
}

func TestConfirmReservation_CommitsSeatsAndStatus(t *testing.T) {
	repo, mock := newBookingRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO booked_seats").
		WithArgs(uint64(1), uint64(2), uint64(9), uint64(1), uint64(3), uint64(9)).
		WillReturnResult(sqlmock.NewResult(1, 2))
	mock.ExpectExec("UPDATE reservations SET status").
		WithArgs(model.ReservationStatusConfirmed, uint64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.ConfirmReservation(context.Background(), 9, 1, []uint64{2, 3})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmReservation_DuplicateSeatRollsBack(t *testing.T) {
	repo, mock := newBookingRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO booked_seats").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry '1-2' for key 'uq_showtime_seat'"})
	mock.ExpectRollback()

	err := repo.ConfirmReservation(context.Background(), 9, 1, []uint64{2})
	assert.ErrorIs(t, err, model.ErrSeatConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmReservation_StatusUpdateFailureRollsBack(t *testing.T) {
	repo, mock := newBookingRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO booked_seats").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE reservations SET status").
		WillReturnError(&mysql.MySQLError{Number: 1205, Message: "Lock wait timeout exceeded"})
	mock.ExpectRollback()

	err := repo.ConfirmReservation(context.Background(), 9, 1, []uint64{2})
	require.Error(t, err)
	assert.NotErrorIs(t, err, model.ErrSeatConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationByID(t *testing.T) {
	repo, mock := newBookingRepo(t)

	created := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	expires := created.Add(10 * time.Minute)
	rows := sqlmock.NewRows([]string{"id", "user_id", "showtime_id", "status", "total_price", "created_at", "expires_at"}).
		AddRow(uint64(9), uint64(7), uint64(1), model.ReservationStatusHeld, "0.00", created, expires)
	mock.ExpectQuery("FROM reservations WHERE id").
		WithArgs(uint64(9)).
		WillReturnRows(rows)

	res, err := repo.ReservationByID(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, uint64(9), res.ID)
	require.NotNil(t, res.UserID)
	assert.Equal(t, uint64(7), *res.UserID)
	assert.Equal(t, model.ReservationStatusHeld, res.Status)
	require.NotNil(t, res.ExpiresAt)
	assert.True(t, res.ExpiresAt.Equal(expires))
}

func TestReservationByID_NotFound(t *testing.T) {
	repo, mock := newBookingRepo(t)

	mock.ExpectQuery("FROM reservations WHERE id").
		WithArgs(uint64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.ReservationByID(context.Background(), 42)
	assert.ErrorIs(t, err, model.ErrReservationNotFound)
}

func TestShowtimeByID_NotFound(t *testing.T) {
	repo, mock := newBookingRepo(t)

	mock.ExpectQuery("FROM showtimes WHERE id").
		WithArgs(uint64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.ShowtimeByID(context.Background(), 42)
	assert.ErrorIs(t, err, ErrShowtimeNotFound)
}

func TestSetReservationStatus_NotFound(t *testing.T) {
	repo, mock := newBookingRepo(t)

	mock.ExpectExec("UPDATE reservations SET status").
		WithArgs(model.ReservationStatusCancelled, uint64(42)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetReservationStatus(context.Background(), 42, model.ReservationStatusCancelled)
	assert.ErrorIs(t, err, model.ErrReservationNotFound)
}

func TestReleaseReservation_DeletesSeatsAndCancels(t *testing.T) {
	repo, mock := newBookingRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM booked_seats WHERE reservation_id").
		WithArgs(uint64(9)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("UPDATE reservations SET status").
		WithArgs(model.ReservationStatusCancelled, uint64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.ReleaseReservation(context.Background(), 9)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookedSeatIDs(t *testing.T) {
	repo, mock := newBookingRepo(t)

	rows := sqlmock.NewRows([]string{"seat_id"}).AddRow(uint64(2)).AddRow(uint64(5))
	mock.ExpectQuery("SELECT seat_id FROM booked_seats WHERE showtime_id").
		WithArgs(uint64(1)).
		WillReturnRows(rows)

	ids, err := repo.BookedSeatIDs(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []uint64{2, 5}, ids)
}
