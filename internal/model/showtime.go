package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Showtime represents a scheduled screening of a movie in a
// particular auditorium.  Two showtimes in the same auditorium
// may never overlap on [starts_at, ends_at); the repository
// enforces this at write time.  Seats for a showtime are not
// materialized per screening: availability is derived from the
// booked_seats table and the hold index.
//
// Fields:
//  ID           – primary key identifier.
//  MovieID      – movie being screened.
//  AuditoriumID – auditorium where the screening takes place.
//  StartsAt     – when the screening begins.
//  EndsAt       – when the screening ends (must be after StartsAt).
//  BasePrice    – default ticket price before seat modifiers.
//  CreatedAt    – creation timestamp.
//  UpdatedAt    – last update timestamp.
type Showtime struct {
	ID           uint64          // showtimes.id
	MovieID      uint64          // showtimes.movie_id
	AuditoriumID uint64          // showtimes.auditorium_id
	StartsAt     time.Time       // showtimes.starts_at
	EndsAt       time.Time       // showtimes.ends_at
	BasePrice    decimal.Decimal // showtimes.base_price
	CreatedAt    time.Time       // showtimes.created_at
	UpdatedAt    time.Time       // showtimes.updated_at
}
