package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/screenbook/movie-reservation/internal/mocks"
	"github.com/screenbook/movie-reservation/internal/model"
	"github.com/screenbook/movie-reservation/internal/repository"
	"github.com/screenbook/movie-reservation/internal/service"
)

// newBookingFixture wires a BookingHandler over the in-memory stores with
// one showtime (ID 1) and seats 1..3 in auditorium 1. The returned offset
// pointer shifts the hold index clock, letting tests expire holds without
// sleeping.
func newBookingFixture(t *testing.T) (*BookingHandler, *mocks.FakeStore, *mocks.FakeHoldIndex, *time.Duration) {
	t.Helper()
	store := mocks.NewFakeStore()
	store.AddShowtime(model.Showtime{
		ID:           1,
		MovieID:      1,
		AuditoriumID: 1,
		StartsAt:     time.Now().UTC().Add(48 * time.Hour),
		EndsAt:       time.Now().UTC().Add(50 * time.Hour),
	})
	for i := uint64(1); i <= 3; i++ {
		store.AddSeat(model.Seat{ID: i, AuditoriumID: 1, RowLabel: "A", SeatNumber: uint32(i), SeatType: "standard"})
	}

	offset := new(time.Duration)
	idx := mocks.NewFakeHoldIndex()
	idx.Now = func() time.Time { return time.Now().Add(*offset) }

	svc := service.NewBookingService(store, idx, 10*time.Minute, time.Hour)
	return NewBookingHandler(svc, nil), store, idx, offset
}

func authedContext(e *echo.Echo, req *http.Request, rec *httptest.ResponseRecorder, userID uint64) echo.Context {
	c := e.NewContext(req, rec)
	c.Set("user_id", userID)
	c.Set("role", "USER")
	return c
}

func TestGetSeatAvailability_ReportsStatuses(t *testing.T) {
	h, _, idx, _ := newBookingFixture(t)
	idx.SetHeld(1, 2, 99, time.Minute)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/showtimes/:id/seats")
	c.SetParamNames("id")
	c.SetParamValues("1")

	require.NoError(t, h.GetSeatAvailability(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		ShowtimeID uint64 `json:"showtime_id"`
		Seats      []struct {
			SeatID   uint64 `json:"seat_id"`
			RowLabel string `json:"row_label"`
			Status   string `json:"status"`
		} `json:"seats"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, uint64(1), body.ShowtimeID)
	require.Len(t, body.Seats, 3)
	assert.Equal(t, "available", body.Seats[0].Status)
	assert.Equal(t, "held", body.Seats[1].Status)
	assert.Equal(t, "A", body.Seats[1].RowLabel)
}

func TestGetSeatAvailability_BadID(t *testing.T) {
	h, _, _, _ := newBookingFixture(t)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/showtimes/:id/seats")
	c.SetParamNames("id")
	c.SetParamValues("abc")

	require.NoError(t, h.GetSeatAvailability(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetSeatAvailability_UnknownShowtime(t *testing.T) {
	h, _, _, _ := newBookingFixture(t)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/showtimes/:id/seats")
	c.SetParamNames("id")
	c.SetParamValues("42")

	require.NoError(t, h.GetSeatAvailability(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPlaceHold_CreatesHold(t *testing.T) {
	h, store, _, _ := newBookingFixture(t)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"seat_ids":[1,3]}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := authedContext(e, req, rec, 7)
	c.SetPath("/showtimes/:id/holds")
	c.SetParamNames("id")
	c.SetParamValues("1")

	require.NoError(t, h.PlaceHold(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var body struct {
		ReservationID uint64    `json:"reservation_id"`
		ExpiresAt     time.Time `json:"expires_at"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotZero(t, body.ReservationID)
	assert.True(t, body.ExpiresAt.After(time.Now()))

	res, ok := store.Reservation(body.ReservationID)
	require.True(t, ok)
	assert.Equal(t, model.ReservationStatusHeld, res.Status)
}

func TestPlaceHold_RequiresSeats(t *testing.T) {
	h, _, _, _ := newBookingFixture(t)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := authedContext(e, req, rec, 7)
	c.SetPath("/showtimes/:id/holds")
	c.SetParamNames("id")
	c.SetParamValues("1")

	require.NoError(t, h.PlaceHold(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPlaceHold_HeldSeatConflicts(t *testing.T) {
	h, _, idx, _ := newBookingFixture(t)
	idx.SetHeld(1, 2, 99, time.Minute)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"seat_ids":[2]}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := authedContext(e, req, rec, 7)
	c.SetPath("/showtimes/:id/holds")
	c.SetParamNames("id")
	c.SetParamValues("1")

	require.NoError(t, h.PlaceHold(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "seats are held")
}

func TestConfirm_ExpiredHoldConflicts(t *testing.T) {
	h, _, _, offset := newBookingFixture(t)

	// Place through the handler, then let the hold lapse.
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"seat_ids":[1]}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := authedContext(e, req, rec, 7)
	c.SetPath("/showtimes/:id/holds")
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.PlaceHold(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var hold struct {
		ReservationID uint64 `json:"reservation_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &hold))

	*offset = time.Hour

	req = httptest.NewRequest(http.MethodPost, "/", nil)
	rec = httptest.NewRecorder()
	c = authedContext(e, req, rec, 7)
	c.SetPath("/reservations/:id/confirm")
	c.SetParamNames("id")
	c.SetParamValues(strconv.FormatUint(hold.ReservationID, 10))

	require.NoError(t, h.Confirm(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "hold expired")
}

func TestCancelReservation_NoContent(t *testing.T) {
	h, store, _, _ := newBookingFixture(t)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"seat_ids":[1]}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := authedContext(e, req, rec, 7)
	c.SetPath("/showtimes/:id/holds")
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.PlaceHold(c))

	req = httptest.NewRequest(http.MethodDelete, "/", nil)
	rec = httptest.NewRecorder()
	c = authedContext(e, req, rec, 7)
	c.SetPath("/reservations/:id")
	c.SetParamNames("id")
	c.SetParamValues("1")

	require.NoError(t, h.CancelReservation(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	res, _ := store.Reservation(1)
	assert.Equal(t, model.ReservationStatusCancelled, res.Status)
}

func TestBookingErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "invalid selection", err: model.ErrInvalidSeatSelection, wantStatus: http.StatusBadRequest},
		{name: "already booked", err: model.ErrSeatsAlreadyBooked, wantStatus: http.StatusConflict},
		{name: "already held", err: model.ErrSeatsAlreadyHeld, wantStatus: http.StatusConflict},
		{name: "seat conflict", err: model.ErrSeatConflict, wantStatus: http.StatusConflict},
		{name: "hold expired", err: model.ErrHoldExpired, wantStatus: http.StatusConflict},
		{name: "cancel refused", err: service.ErrCancelNotAllowed, wantStatus: http.StatusConflict},
		{name: "reservation missing", err: model.ErrReservationNotFound, wantStatus: http.StatusNotFound},
		{name: "showtime missing", err: repository.ErrShowtimeNotFound, wantStatus: http.StatusNotFound},
		{name: "store down", err: model.ErrStoreUnavailable, wantStatus: http.StatusServiceUnavailable},
		{name: "unexpected", err: assert.AnError, wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			require.NoError(t, bookingError(c, tt.err))
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}
