// Package repository contains the data access layer. One struct per table
// wraps *sql.DB with plain SQL; each file defines the sentinel errors its
// callers branch on, and this file holds the ones shared across several
// repositories.
package repository

import "errors"

// ErrConflict is returned when a write cannot proceed because of dependent
// state, such as deleting a showtime that already has reservations or
// renaming an auditorium to a name that is taken. Handlers translate it
// into an HTTP 409 response.
var ErrConflict = errors.New("conflict")
