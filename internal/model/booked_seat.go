package model

import "time"

// BookedSeat is the durable record that a seat has been sold for a
// showtime.  The database enforces UNIQUE(showtime_id, seat_id)
// across all rows, which makes this table the single source of
// truth for "is this seat truly booked": confirmation inserts rows
// here and loses cleanly when another reservation got there first.
//
// Fields:
//  ID            – primary key identifier.
//  ShowtimeID    – showtime the seat is booked for.
//  SeatID        – seat that has been booked.
//  ReservationID – reservation that produced this booking.
//  CreatedAt     – timestamp when the booking was committed.
type BookedSeat struct {
	ID            uint64    // booked_seats.id
	ShowtimeID    uint64    // booked_seats.showtime_id
	SeatID        uint64    // booked_seats.seat_id
	ReservationID uint64    // booked_seats.reservation_id
	CreatedAt     time.Time // booked_seats.created_at
}
