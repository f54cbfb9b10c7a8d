// Package repository defines the storage contract the seating engine
// depends on, plus error values shared by the implementations.  The
// sentinel values let higher layers distinguish failure scenarios with
// errors.Is: ErrEventNotFound maps to an HTTP 404, while
// ErrVersionConflict signals that another commit invalidated the state
// a caller validated against, so the operation should be retried with
// fresh state.
package repository

import "errors"

// ErrEventNotFound is returned when the referenced event does not
// exist.  Handlers should translate this into an HTTP 404 response.
var ErrEventNotFound = errors.New("event not found")

// ErrGuestNotFound is returned when the referenced guest does not
// exist within the event.
var ErrGuestNotFound = errors.New("guest not found")

// ErrTableNotFound is returned when the referenced table does not
// exist within the event.
var ErrTableNotFound = errors.New("table not found")

// ErrTokenNotFound is returned by token resolution when no guest owns
// the presented lookup token.
var ErrTokenNotFound = errors.New("token not found")

// ErrVersionConflict is returned by Apply when the event's version no
// longer matches the ChangeSet's expectation.  Callers should reload
// committed state and retry.
var ErrVersionConflict = errors.New("event version conflict")
