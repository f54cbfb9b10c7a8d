package model

import "time"

// TableMate is a companion entry shown on the guest portal next to the
// guest's own seat: who else sits at the table and whether they have
// arrived yet.
type TableMate struct {
	Name      string `json:"name"`
	SeatNo    *int   `json:"seat_no,omitempty"`
	Dietary   string `json:"dietary,omitempty"`
	CheckedIn bool   `json:"checked_in"`
}

// GuestView is the portal-facing resolution of a lookup token: the
// guest's own record plus the event and table context needed to render
// the "find my seat" page.
type GuestView struct {
	EventID     uint64      `json:"event_id"`
	EventName   string      `json:"event_name"`
	GuestID     uint64      `json:"guest_id"`
	GuestName   string      `json:"guest_name"`
	Dietary     string      `json:"dietary,omitempty"`
	TableLabel  *string     `json:"table_label"`
	SeatNo      *int        `json:"seat_no,omitempty"`
	CheckedIn   bool        `json:"checked_in"`
	CheckedInAt *time.Time  `json:"checked_in_at,omitempty"`
	TableMates  []TableMate `json:"table_mates,omitempty"`
}

// SnapshotGuest is one guest row inside a full-state snapshot, with
// the table label already resolved for export and live viewers.
type SnapshotGuest struct {
	ID          uint64     `json:"id"`
	Name        string     `json:"name"`
	Contact     *string    `json:"contact,omitempty"`
	Dietary     string     `json:"dietary,omitempty"`
	TableLabel  *string    `json:"table_label"`
	SeatNo      *int       `json:"seat_no,omitempty"`
	CheckedIn   bool       `json:"checked_in"`
	CheckedInAt *time.Time `json:"checked_in_at,omitempty"`
}

// SnapshotTable is one table row inside a full-state snapshot.
type SnapshotTable struct {
	ID       uint64 `json:"id"`
	Label    string `json:"label"`
	Capacity int    `json:"capacity"`
	Occupied int    `json:"occupied"`
}

// Snapshot is the read-only full state of one event as of Sequence.
// It is what export serializes and what a live session with no usable
// checkpoint receives before switching to deltas.
type Snapshot struct {
	EventID   uint64          `json:"event_id"`
	EventName string          `json:"event_name"`
	Sequence  uint64          `json:"sequence"`
	Tables    []SnapshotTable `json:"tables"`
	Guests    []SnapshotGuest `json:"guests"`
}

// SummaryTable aggregates one table for the admin dashboard.
type SummaryTable struct {
	Label          string `json:"label"`
	TotalGuests    int    `json:"total_guests"`
	CheckedIn      int    `json:"checked_in"`
	AvailableSeats int    `json:"available_seats"`
}

// Summary is the event-level aggregate view: per-table occupancy and
// arrival counts plus overall totals.
type Summary struct {
	EventName      string         `json:"event_name"`
	TotalGuests    int            `json:"total_guests"`
	CheckedInTotal int            `json:"checked_in_guests"`
	TotalTables    int            `json:"total_tables"`
	Tables         []SummaryTable `json:"tables"`
}
