// Package engine implements the seating assignment and check-in
// engine: the single writer of truth for guest→table state.  All
// mutating operations on one event are serialized behind a per-event
// mutex, validated as a whole against committed state, committed
// atomically through the repository, and only then broadcast.
package engine

import (
	"errors"
	"fmt"
)

// RejectReason is a typed validation failure kind.  Reasons are part
// of the API surface: admins correct their source spreadsheet based on
// them, so they are never free text.
type RejectReason string

const (
	// ReasonDuplicateGuestKey – two input rows resolve to the same
	// guest natural key (normalized name+contact) within one batch.
	ReasonDuplicateGuestKey RejectReason = "DuplicateGuestKey"
	// ReasonUnknownTable – the referenced table does not exist for the
	// event.
	ReasonUnknownTable RejectReason = "UnknownTable"
	// ReasonCapacityExceeded – the change would push a table's
	// projected occupancy above its capacity.
	ReasonCapacityExceeded RejectReason = "CapacityExceeded"
	// ReasonOrphanTableReference – a guest references a table
	// scheduled for removal in the same operation.
	ReasonOrphanTableReference RejectReason = "OrphanTableReference"
	// ReasonMalformedRow – an import row is structurally unusable
	// (e.g. empty guest name).
	ReasonMalformedRow RejectReason = "MalformedRow"
	// ReasonInvalidSeat – a seat number is below 1 or given for a
	// guest who has no table.
	ReasonInvalidSeat RejectReason = "InvalidSeat"
	// ReasonDuplicateSeat – two guests would hold the same numbered
	// seat at one table.
	ReasonDuplicateSeat RejectReason = "DuplicateSeat"
)

// Violation names what was rejected and which entities offend, so the
// caller can point at exact spreadsheet rows.
type Violation struct {
	Reason     RejectReason `json:"reason"`
	TableLabel string       `json:"table_label,omitempty"`
	RowIndexes []int        `json:"row_indexes,omitempty"`
	GuestIDs   []uint64     `json:"guest_ids,omitempty"`
	Detail     string       `json:"detail,omitempty"`
}

// ValidationError wraps one or more violations.  Imports are strictly
// all-or-nothing, so a single ValidationError means zero side effects.
type ValidationError struct {
	Violations []Violation `json:"violations"`
}

func (e *ValidationError) Error() string {
	if len(e.Violations) == 0 {
		return "validation failed"
	}
	v := e.Violations[0]
	return fmt.Sprintf("validation failed: %s (%s)", v.Reason, v.Detail)
}

func newValidationError(v ...Violation) *ValidationError {
	return &ValidationError{Violations: v}
}

// ErrStorageUnavailable is surfaced after the bounded internal retry
// of a store commit is exhausted.  The write was never partially
// applied; the caller may retry the whole operation later.
var ErrStorageUnavailable = errors.New("storage unavailable")

// StorageError ties ErrStorageUnavailable to the underlying cause.
type StorageError struct{ Err error }

func (e *StorageError) Error() string { return "storage unavailable: " + e.Err.Error() }
func (e *StorageError) Unwrap() error { return ErrStorageUnavailable }
