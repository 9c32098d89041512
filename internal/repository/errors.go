// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as the
// booking service and handlers to distinguish between different failure
// scenarios: a show that does not exist must never be reported as
// "seats unavailable", and a contention loss must never look like a
// server fault.
package repository

import "errors"

// ErrShowNotFound indicates that a show id did not resolve to a row.
// Handlers should translate this into an HTTP 404 response.
var ErrShowNotFound = errors.New("show not found")

// ErrBookingNotFound indicates that a booking id did not resolve to a
// row, either because it never existed or because the expiry reclaimer
// already deleted it.
var ErrBookingNotFound = errors.New("booking not found")

// ErrSeatsUnavailable is returned when at least one requested seat is
// already present in the show's occupancy map at write time. The whole
// reservation is rolled back; no partial occupancy is ever persisted.
// Handlers should translate this into an HTTP 409 response.
var ErrSeatsUnavailable = errors.New("seats unavailable")

// ErrConflict is returned when a delete cannot be performed because of
// conflicting state, such as attempting to delete a show that still
// has paid bookings. Handlers should translate this into an HTTP 409
// response.
var ErrConflict = errors.New("conflict")
