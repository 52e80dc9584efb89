package model

import "errors"

// Booking outcomes shared across the engine, the repositories and
// the HTTP layer.  These are expected, user-facing conditions; the
// handler maps them onto status codes.
var (
	ErrInvalidSeatSelection = errors.New("invalid seat selection")
	ErrSeatsAlreadyBooked   = errors.New("some seats already booked")
	ErrSeatsAlreadyHeld     = errors.New("some seats are held")
	ErrReservationNotFound  = errors.New("reservation not found")
	ErrHoldExpired          = errors.New("hold expired")
	ErrSeatConflict         = errors.New("seat already booked by someone else")
	ErrStoreUnavailable     = errors.New("store unavailable")
)
