// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrDuplicateTitle indicates that a create or rename would
// violate title uniqueness, while ErrNotWatched signals that an
// unwatch was attempted for a show the user never marked watched.
package repository

import "errors"

// ErrShowNotFound indicates that a show was not located in the DB.
var ErrShowNotFound = errors.New("show not found")

// ErrDuplicateTitle is returned when a show with the requested title
// already exists. Handlers should translate this into an HTTP 400
// response.
var ErrDuplicateTitle = errors.New("duplicate title")

// ErrNotWatched is returned when unwatching a show for which no watch
// record exists. Note the asymmetry with marking watched, which
// upserts: marking is always accepted, unmarking requires prior state.
// Handlers should translate this into an HTTP 404 response.
var ErrNotWatched = errors.New("not watched")

// ErrInvalidRating is returned when a rating falls outside the 1..5
// range. The ledger validates once at its boundary regardless of any
// checks performed by callers. Handlers should translate this into an
// HTTP 400 response.
var ErrInvalidRating = errors.New("rating must be between 1 and 5")
