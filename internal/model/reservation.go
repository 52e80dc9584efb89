package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Reservation statuses.  A reservation is created as held while
// the seats are claimed in the hold index, becomes confirmed once
// the booked_seats rows are durable, and may end up cancelled
// through the cancellation endpoint.  Nothing ever writes the
// expired status: an expired hold is simply the absence of hold
// entries, and the row stays held in the database.
const (
	ReservationStatusHeld      = "held"      // seats claimed, awaiting confirmation
	ReservationStatusConfirmed = "confirmed" // booked_seats rows committed
	ReservationStatusExpired   = "expired"   // reserved for reporting; never written
	ReservationStatusCancelled = "cancelled" // released by the user
)

// Reservation records a user's claim on seats for a specific
// showtime.  It is created in status held together with the hold
// index entries and only becomes authoritative once confirmed.
//
// Fields:
//  ID         – primary key identifier.
//  UserID     – user who placed the reservation (nullable).
//  ShowtimeID – showtime being reserved.
//  Status     – state of the reservation (see constants above).
//  TotalPrice – total price; left at zero until a price is attached.
//  CreatedAt  – creation timestamp.
//  ExpiresAt  – when the underlying holds lapse (set while held).
type Reservation struct {
	ID         uint64          // reservations.id
	UserID     *uint64         // reservations.user_id (nullable)
	ShowtimeID uint64          // reservations.showtime_id
	Status     string          // reservations.status
	TotalPrice decimal.Decimal // reservations.total_price
	CreatedAt  time.Time       // reservations.created_at
	ExpiresAt  *time.Time      // reservations.expires_at (nullable)
}
