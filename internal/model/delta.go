package model

import "time"

// DeltaKind names a single category of state change broadcast to live
// subscribers.
type DeltaKind string

const (
	// DeltaSeatingChanged is emitted when a guest's table assignment
	// changes, including assignment to no table.
	DeltaSeatingChanged DeltaKind = "seating_changed"
	// DeltaCheckedIn is emitted exactly once per guest arrival.
	DeltaCheckedIn DeltaKind = "checked_in"
	// DeltaCheckInReverted is emitted when an admin corrects a
	// mistaken check-in.  It is a distinct kind rather than a flagged
	// DeltaCheckedIn so the audit trail stays explicit.
	DeltaCheckInReverted DeltaKind = "check_in_reverted"
	// DeltaGuestAdded is emitted when a guest joins the event outside
	// of a bulk import.
	DeltaGuestAdded DeltaKind = "guest_added"
	// DeltaGuestRemoved is emitted when a guest is removed.
	DeltaGuestRemoved DeltaKind = "guest_removed"
	// DeltaSeatingImported is emitted once after a committed bulk
	// import; subscribers should refetch a snapshot rather than apply
	// per-row changes.
	DeltaSeatingImported DeltaKind = "seating_imported"
)

// DeltaGuest is the guest payload carried inside a delta.  TableLabel
// is resolved at emit time so viewers never need a second lookup.
type DeltaGuest struct {
	ID          uint64     `json:"id"`
	Name        string     `json:"name"`
	Dietary     string     `json:"dietary,omitempty"`
	TableID     *uint64    `json:"table_id"`
	TableLabel  *string    `json:"table_label"`
	SeatNo      *int       `json:"seat_no,omitempty"`
	CheckedIn   bool       `json:"checked_in"`
	CheckedInAt *time.Time `json:"checked_in_at,omitempty"`
}

// Delta is one ordered state-change record.  Sequence numbers are
// per-event, start at 1 and never repeat or skip within the retained
// log, which is what makes reconnect catch-up possible.
type Delta struct {
	Sequence   uint64      `json:"sequence"`
	Kind       DeltaKind   `json:"kind"`
	EventID    uint64      `json:"event_id"`
	OccurredAt time.Time   `json:"occurred_at"`
	Guest      *DeltaGuest `json:"guest,omitempty"`
}
