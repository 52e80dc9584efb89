package model

import "time"

// Auditorium represents a single screening room.  Each auditorium
// owns a fixed grid of seats and hosts non-overlapping showtimes.
// This struct corresponds to a row in the `auditoriums` table.
//
// Fields:
//  ID        – primary key identifier.
//  Name      – unique auditorium name.
//  CreatedAt – timestamp when the auditorium was created.
//  UpdatedAt – timestamp of last update.
type Auditorium struct {
	ID        uint64    // auditoriums.id
	Name      string    // auditoriums.name
	CreatedAt time.Time // auditoriums.created_at
	UpdatedAt time.Time // auditoriums.updated_at
}
