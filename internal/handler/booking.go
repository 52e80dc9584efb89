package handler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/screenbook/movie-reservation/internal/model"
	"github.com/screenbook/movie-reservation/internal/queue"
	"github.com/screenbook/movie-reservation/internal/repository"
	"github.com/screenbook/movie-reservation/internal/service"
)

// BookingHandler exposes the hold/confirm/cancel flow and reservation views.
// The engine owns every booking decision; this layer only translates between
// HTTP and the service's error taxonomy.
type BookingHandler struct {
	Booking      *service.BookingService
	Reservations *repository.ReservationRepo
}

func NewBookingHandler(b *service.BookingService, r *repository.ReservationRepo) *BookingHandler {
	return &BookingHandler{Booking: b, Reservations: r}
}

// seatStatusItem is the public availability row for one seat.
type seatStatusItem struct {
	SeatID        uint64          `json:"seat_id"`
	RowLabel      string          `json:"row_label"`
	SeatNumber    uint32          `json:"seat_number"`
	SeatType      string          `json:"seat_type"`
	PriceModifier decimal.Decimal `json:"price_modifier"`
	Status        string          `json:"status"`
}

// bookingError maps the engine's error taxonomy onto HTTP status codes.
func bookingError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, model.ErrInvalidSeatSelection):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": model.ErrInvalidSeatSelection.Error()})
	case errors.Is(err, model.ErrSeatsAlreadyBooked):
		return c.JSON(http.StatusConflict, echo.Map{"error": model.ErrSeatsAlreadyBooked.Error()})
	case errors.Is(err, model.ErrSeatsAlreadyHeld):
		return c.JSON(http.StatusConflict, echo.Map{"error": model.ErrSeatsAlreadyHeld.Error()})
	case errors.Is(err, model.ErrSeatConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": model.ErrSeatConflict.Error()})
	case errors.Is(err, model.ErrHoldExpired):
		return c.JSON(http.StatusConflict, echo.Map{"error": model.ErrHoldExpired.Error()})
	case errors.Is(err, service.ErrCancelNotAllowed):
		return c.JSON(http.StatusConflict, echo.Map{"error": service.ErrCancelNotAllowed.Error()})
	case errors.Is(err, model.ErrReservationNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": model.ErrReservationNotFound.Error()})
	case errors.Is(err, repository.ErrShowtimeNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "showtime not found"})
	case errors.Is(err, model.ErrStoreUnavailable):
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": model.ErrStoreUnavailable.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}

// GetSeatAvailability handles GET /showtimes/:id/seats. Public; never cached.
func (h *BookingHandler) GetSeatAvailability(c echo.Context) error {
	showtimeID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid showtime id"})
	}
	statuses, err := h.Booking.SeatStatuses(c.Request().Context(), showtimeID)
	if err != nil {
		return bookingError(c, err)
	}
	items := make([]seatStatusItem, 0, len(statuses))
	for _, s := range statuses {
		items = append(items, seatStatusItem{
			SeatID:        s.Seat.ID,
			RowLabel:      s.Seat.RowLabel,
			SeatNumber:    s.Seat.SeatNumber,
			SeatType:      s.Seat.SeatType,
			PriceModifier: s.Seat.PriceModifier,
			Status:        s.Status,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"showtime_id": showtimeID,
		"seats":       items,
	})
}

// PlaceHold handles POST /showtimes/:id/holds. The hold TTL comes from
// config; the response tells the client when the hold lapses.
func (h *BookingHandler) PlaceHold(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	showtimeID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid showtime id"})
	}
	var body struct {
		SeatIDs []uint64 `json:"seat_ids"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if len(body.SeatIDs) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat_ids is required"})
	}

	hold, err := h.Booking.PlaceHold(c.Request().Context(), showtimeID, body.SeatIDs, userID, 0)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusCreated, hold)
}

// Confirm handles POST /reservations/:id/confirm. On success the
// booking.confirmed event is published in the background; a broker outage
// must never fail a booking that is already durable.
func (h *BookingHandler) Confirm(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	reservationID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}

	conf, err := h.Booking.Confirm(c.Request().Context(), reservationID, userID)
	if err != nil {
		return bookingError(c, err)
	}

	go h.publishConfirmed(conf.ReservationID, userID)

	return c.JSON(http.StatusOK, echo.Map{
		"reservation_id": conf.ReservationID,
		"status":         conf.Status,
	})
}

// publishConfirmed loads the confirmed reservation and emits the
// booking.confirmed event. Runs detached from the request.
func (h *BookingHandler) publishConfirmed(reservationID, userID uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	detail, err := h.Reservations.GetByIDForUser(ctx, reservationID, userID)
	if err != nil {
		log.Printf("[booking] load reservation %d for event: %v", reservationID, err)
		return
	}
	labels := make([]string, 0, len(detail.Seats))
	for _, s := range detail.Seats {
		labels = append(labels, fmt.Sprintf("%s%d", s.RowLabel, s.SeatNumber))
	}
	ev := queue.BookingConfirmedEvent{
		ReservationID:  detail.ID,
		UserID:         &userID,
		ShowtimeID:     detail.ShowtimeID,
		MovieTitle:     detail.MovieTitle,
		AuditoriumID:   detail.AuditoriumID,
		AuditoriumName: detail.AuditoriumName,
		StartsAt:       detail.StartsAt.UTC().Format(time.RFC3339),
		EndsAt:         detail.EndsAt.UTC().Format(time.RFC3339),
		SeatLabels:     labels,
		TotalPrice:     detail.TotalPrice.StringFixed(2),
		ConfirmedAt:    time.Now().UTC().Format(time.RFC3339),
	}
	if err := queue.PublishBookingConfirmed(ctx, ev); err != nil {
		log.Printf("[booking] publish booking.confirmed for reservation %d: %v", reservationID, err)
	}
}

// ListMyReservations handles GET /reservations.
func (h *BookingHandler) ListMyReservations(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	details, err := h.Reservations.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load reservations"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": details})
}

// GetReservation handles GET /reservations/:id. Someone else's reservation
// is indistinguishable from a missing one.
func (h *BookingHandler) GetReservation(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	reservationID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	detail, err := h.Reservations.GetByIDForUser(c.Request().Context(), reservationID, userID)
	if err != nil {
		if errors.Is(err, model.ErrReservationNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch reservation"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": detail})
}

// CancelReservation handles DELETE /reservations/:id. Held reservations may
// be cancelled any time; confirmed ones only up to the cancellation window
// before the showtime starts.
func (h *BookingHandler) CancelReservation(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	reservationID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	if err := h.Booking.Cancel(c.Request().Context(), reservationID, userID); err != nil {
		return bookingError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
