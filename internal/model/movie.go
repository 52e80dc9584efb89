package model

import "time"

// Movie represents a film that can be scheduled for screenings.
// Movies are referenced by showtimes and managed through the
// admin endpoints.  This struct corresponds to a row in the
// `movies` table.
//
// Fields:
//  ID              – primary key identifier.
//  Title           – title of the movie.
//  Description     – optional synopsis shown to browsers.
//  DurationMinutes – running time in minutes.
//  CreatedAt       – timestamp when the movie was created.
//  UpdatedAt       – timestamp of last update.
type Movie struct {
	ID              uint64    // movies.id
	Title           string    // movies.title
	Description     *string   // movies.description (nullable)
	DurationMinutes uint32    // movies.duration_minutes
	CreatedAt       time.Time // movies.created_at
	UpdatedAt       time.Time // movies.updated_at
}
