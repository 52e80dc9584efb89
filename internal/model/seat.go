package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Seat describes a physical seat in an auditorium.  Seats are
// uniquely identified by their auditorium, row label and seat
// number.  The seat_type indicates whether the seat is standard,
// premium or accessible for disabled patrons; the price modifier
// is added to the showtime base price when a ticket total is
// presented.
//
// Fields:
//  ID            – primary key identifier.
//  AuditoriumID  – auditorium to which this seat belongs.
//  RowLabel      – letter or string designating the row.
//  SeatNumber    – number of the seat within the row.
//  SeatType      – type of seat (standard, premium, accessible).
//  PriceModifier – surcharge added on top of the base price.
//  CreatedAt     – creation timestamp.
type Seat struct {
	ID            uint64          // seats.id
	AuditoriumID  uint64          // seats.auditorium_id
	RowLabel      string          // seats.row_label
	SeatNumber    uint32          // seats.seat_number
	SeatType      string          // seats.seat_type
	PriceModifier decimal.Decimal // seats.price_modifier
	CreatedAt     time.Time       // seats.created_at
}
