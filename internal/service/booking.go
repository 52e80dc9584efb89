// Package service implements the seat booking engine. Many concurrent
// clients compete for the seats of a showtime: they place a time-limited
// hold, then convert it into a durable booking. Holds live in an ephemeral
// TTL index and expire on their own; bookings live in MySQL where the
// unique key on (showtime_id, seat_id) decides every race. The index is
// advisory, the unique key is the law.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/screenbook/movie-reservation/internal/model"
)

// Seat statuses reported by SeatStatuses.
const (
	StatusAvailable = "available"
	StatusHeld      = "held"
	StatusBooked    = "booked"
)

// ErrCancelNotAllowed is returned when a reservation can no longer be
// cancelled: it already is, or the showtime is too close.
var ErrCancelNotAllowed = errors.New("reservation can no longer be cancelled")

// Store is the durable side of the engine. Implementations must return
// seats ordered by row label then seat number from SeatsByAuditorium, and
// ConfirmReservation must insert every booked seat and flip the reservation
// status inside one transaction, reporting model.ErrSeatConflict when any
// seat collides with an existing booking.
type Store interface {
	ShowtimeByID(ctx context.Context, id uint64) (*model.Showtime, error)
	SeatsByAuditorium(ctx context.Context, auditoriumID uint64) ([]model.Seat, error)
	SeatsByIDs(ctx context.Context, auditoriumID uint64, ids []uint64) ([]model.Seat, error)
	BookedSeatIDs(ctx context.Context, showtimeID uint64) ([]uint64, error)
	CreateHeldReservation(ctx context.Context, res *model.Reservation) error
	ReservationByID(ctx context.Context, id uint64) (*model.Reservation, error)
	ConfirmReservation(ctx context.Context, reservationID, showtimeID uint64, seatIDs []uint64) error
	SetReservationStatus(ctx context.Context, id uint64, status string) error
	ReleaseReservation(ctx context.Context, id uint64) error
}

// HoldIndex is the ephemeral side of the engine: a key-value store with
// per-key TTL mapping (showtime, seat) to the reservation holding it.
// TrySetHold must be atomic set-if-absent so that two competing placements
// never both succeed on the same seat.
type HoldIndex interface {
	TrySetHold(ctx context.Context, showtimeID, seatID, reservationID uint64, ttl time.Duration) (bool, error)
	Holder(ctx context.Context, showtimeID, seatID uint64) (uint64, bool, error)
	Release(ctx context.Context, showtimeID, seatID uint64) error
	HeldSeats(ctx context.Context, showtimeID uint64) (map[uint64]uint64, error)
}

// SeatStatus pairs a seat with its availability for one showtime.
type SeatStatus struct {
	Seat   model.Seat `json:"seat"`
	Status string     `json:"status"`
}

// Hold is the successful result of PlaceHold.
type Hold struct {
	ReservationID uint64    `json:"reservation_id"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// Confirmation is the successful result of Confirm.
type Confirmation struct {
	ReservationID uint64   `json:"reservation_id"`
	Status        string   `json:"status"`
	ShowtimeID    uint64   `json:"-"`
	SeatIDs       []uint64 `json:"-"`
}

// BookingService coordinates the durable store and the hold index.
type BookingService struct {
	store        Store
	holds        HoldIndex
	holdTTL      time.Duration
	cancelWindow time.Duration
	now          func() time.Time
}

// NewBookingService wires the engine. holdTTL is the default lifetime of a
// hold; cancelWindow is how long before the showtime starts a confirmed
// reservation may still be cancelled.
func NewBookingService(store Store, holds HoldIndex, holdTTL, cancelWindow time.Duration) *BookingService {
	return &BookingService{
		store:        store,
		holds:        holds,
		holdTTL:      holdTTL,
		cancelWindow: cancelWindow,
		now:          time.Now,
	}
}

// SeatStatuses returns one entry per seat of the showtime's auditorium,
// ordered by row label then seat number. A seat with a booked_seats row is
// booked; a seat with a live hold entry is held; everything else is
// available. Booked wins over held, so a hold entry lingering after its
// reservation was confirmed never misreports the seat.
//
// When the hold index is unreachable the view degrades to zero held seats
// instead of failing. This is the only operation allowed to degrade;
// write paths refuse instead.
func (s *BookingService) SeatStatuses(ctx context.Context, showtimeID uint64) ([]SeatStatus, error) {
	showtime, err := s.store.ShowtimeByID(ctx, showtimeID)
	if err != nil {
		return nil, err
	}
	seats, err := s.store.SeatsByAuditorium(ctx, showtime.AuditoriumID)
	if err != nil {
		return nil, err
	}
	bookedIDs, err := s.store.BookedSeatIDs(ctx, showtimeID)
	if err != nil {
		return nil, err
	}
	booked := make(map[uint64]struct{}, len(bookedIDs))
	for _, id := range bookedIDs {
		booked[id] = struct{}{}
	}

	held, err := s.holds.HeldSeats(ctx, showtimeID)
	if err != nil {
		log.Printf("[booking] hold index unavailable, reporting zero held seats: %v", err)
		held = nil
	}

	statuses := make([]SeatStatus, 0, len(seats))
	for _, seat := range seats {
		status := StatusAvailable
		if _, ok := booked[seat.ID]; ok {
			status = StatusBooked
		} else if _, ok := held[seat.ID]; ok {
			status = StatusHeld
		}
		statuses = append(statuses, SeatStatus{Seat: seat, Status: status})
	}
	return statuses, nil
}

// PlaceHold claims the requested seats for one user. Preconditions are
// checked in order, each with its own failure: every seat must exist in
// the showtime's auditorium (model.ErrInvalidSeatSelection), none may be
// booked (model.ErrSeatsAlreadyBooked) and none may carry a live hold
// (model.ErrSeatsAlreadyHeld).
//
// The durable reservation row is written first, the hold entries second.
// A crash in between leaves a held row with no entries, which a later
// Confirm rejects as expired; the reverse order could leave hold entries
// pointing at a reservation that was never created. The checks and writes
// span two stores without a transaction, so two callers can both pass the
// checks before either writes; TrySetHold resolves that race for the hold,
// and the booked_seats unique key resolves whatever survives to
// confirmation. Total price stays at zero here; pricing is applied by
// whatever system settles the reservation.
//
// A ttl of zero selects the service default.
func (s *BookingService) PlaceHold(ctx context.Context, showtimeID uint64, seatIDs []uint64, userID uint64, ttl time.Duration) (*Hold, error) {
	if ttl <= 0 {
		ttl = s.holdTTL
	}
	ids := dedupe(seatIDs)
	if len(ids) == 0 {
		return nil, model.ErrInvalidSeatSelection
	}

	showtime, err := s.store.ShowtimeByID(ctx, showtimeID)
	if err != nil {
		return nil, err
	}
	seats, err := s.store.SeatsByIDs(ctx, showtime.AuditoriumID, ids)
	if err != nil {
		return nil, err
	}
	if len(seats) != len(ids) {
		return nil, model.ErrInvalidSeatSelection
	}

	bookedIDs, err := s.store.BookedSeatIDs(ctx, showtimeID)
	if err != nil {
		return nil, err
	}
	booked := make(map[uint64]struct{}, len(bookedIDs))
	for _, id := range bookedIDs {
		booked[id] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := booked[id]; ok {
			return nil, model.ErrSeatsAlreadyBooked
		}
	}

	for _, id := range ids {
		_, taken, err := s.holds.Holder(ctx, showtimeID, id)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", model.ErrStoreUnavailable, err)
		}
		if taken {
			return nil, model.ErrSeatsAlreadyHeld
		}
	}

	expiresAt := s.now().UTC().Add(ttl)
	res := &model.Reservation{
		UserID:     &userID,
		ShowtimeID: showtimeID,
		Status:     model.ReservationStatusHeld,
		TotalPrice: decimal.Zero,
		ExpiresAt:  &expiresAt,
	}
	if err := s.store.CreateHeldReservation(ctx, res); err != nil {
		return nil, err
	}

	placed := make([]uint64, 0, len(ids))
	for _, id := range ids {
		ok, err := s.holds.TrySetHold(ctx, showtimeID, id, res.ID, ttl)
		if err != nil {
			s.rollbackHolds(ctx, showtimeID, placed)
			return nil, fmt.Errorf("%w: %v", model.ErrStoreUnavailable, err)
		}
		if !ok {
			// Lost a race after the precondition check passed.
			s.rollbackHolds(ctx, showtimeID, placed)
			return nil, model.ErrSeatsAlreadyHeld
		}
		placed = append(placed, id)
	}
	// The reservation row is left behind on rollback; with no hold entries
	// it can never be confirmed and simply times out.

	return &Hold{ReservationID: res.ID, ExpiresAt: *res.ExpiresAt}, nil
}

func (s *BookingService) rollbackHolds(ctx context.Context, showtimeID uint64, seatIDs []uint64) {
	for _, id := range seatIDs {
		if err := s.holds.Release(ctx, showtimeID, id); err != nil {
			log.Printf("[booking] failed to roll back hold entry for showtime %d seat %d: %v", showtimeID, id, err)
		}
	}
}

// Confirm converts a held reservation into booked seats. The set of seats
// is re-read from the hold index, never taken from the original request:
// entries whose value is this reservation's ID are exactly what the caller
// still holds. No live entries means the hold lapsed
// (model.ErrHoldExpired). The booked rows and the status flip commit in one
// transaction; when another reservation got any of the seats first, the
// store reports model.ErrSeatConflict and nothing is persisted. Losing that
// race is a terminal outcome, never retried here.
//
// Hold entries are deleted only after the commit. When deletion fails the
// entries linger until TTL and the seats read as held for a moment, which
// the booked-wins classification in SeatStatuses tolerates.
func (s *BookingService) Confirm(ctx context.Context, reservationID, userID uint64) (*Confirmation, error) {
	res, err := s.store.ReservationByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if res.UserID != nil && *res.UserID != userID {
		// Someone else's reservation looks like no reservation at all.
		return nil, model.ErrReservationNotFound
	}
	if res.Status != model.ReservationStatusHeld {
		return nil, model.ErrReservationNotFound
	}

	held, err := s.holds.HeldSeats(ctx, res.ShowtimeID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrStoreUnavailable, err)
	}
	seatIDs := make([]uint64, 0, len(held))
	for seatID, holder := range held {
		if holder == res.ID {
			seatIDs = append(seatIDs, seatID)
		}
	}
	if len(seatIDs) == 0 {
		return nil, model.ErrHoldExpired
	}
	sort.Slice(seatIDs, func(i, j int) bool { return seatIDs[i] < seatIDs[j] })

	if err := s.store.ConfirmReservation(ctx, res.ID, res.ShowtimeID, seatIDs); err != nil {
		return nil, err
	}

	for _, seatID := range seatIDs {
		if err := s.holds.Release(ctx, res.ShowtimeID, seatID); err != nil {
			log.Printf("[booking] failed to release hold entry for showtime %d seat %d after confirm: %v", res.ShowtimeID, seatID, err)
		}
	}

	return &Confirmation{
		ReservationID: res.ID,
		Status:        model.ReservationStatusConfirmed,
		ShowtimeID:    res.ShowtimeID,
		SeatIDs:       seatIDs,
	}, nil
}

// Cancel releases a reservation. A held reservation may be cancelled any
// time: its hold entries are dropped and the row marked cancelled. A
// confirmed reservation may be cancelled until the cancellation window
// before the showtime starts; its booked seats are deleted and the status
// flipped in one transaction, freeing the seats. Anything else, or a
// confirmed reservation too close to start time, fails ErrCancelNotAllowed.
func (s *BookingService) Cancel(ctx context.Context, reservationID, userID uint64) error {
	res, err := s.store.ReservationByID(ctx, reservationID)
	if err != nil {
		return err
	}
	if res.UserID != nil && *res.UserID != userID {
		return model.ErrReservationNotFound
	}

	switch res.Status {
	case model.ReservationStatusHeld:
		held, err := s.holds.HeldSeats(ctx, res.ShowtimeID)
		if err != nil {
			// Entries expire on their own; the status write still matters.
			log.Printf("[booking] hold index unavailable during cancel of reservation %d: %v", res.ID, err)
		}
		for seatID, holder := range held {
			if holder != res.ID {
				continue
			}
			if err := s.holds.Release(ctx, res.ShowtimeID, seatID); err != nil {
				log.Printf("[booking] failed to release hold entry for showtime %d seat %d during cancel: %v", res.ShowtimeID, seatID, err)
			}
		}
		return s.store.SetReservationStatus(ctx, res.ID, model.ReservationStatusCancelled)

	case model.ReservationStatusConfirmed:
		showtime, err := s.store.ShowtimeByID(ctx, res.ShowtimeID)
		if err != nil {
			return err
		}
		if s.now().UTC().After(showtime.StartsAt.Add(-s.cancelWindow)) {
			return ErrCancelNotAllowed
		}
		return s.store.ReleaseReservation(ctx, res.ID)

	default:
		return ErrCancelNotAllowed
	}
}

func dedupe(ids []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
