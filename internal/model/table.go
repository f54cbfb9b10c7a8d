package model

import "time"

// Table is a physical table at the reception.  Its occupant count is
// always derived from the guests whose TableID references it; it is
// never stored as an independent column, so the two can not drift.
//
// Fields:
//  ID        – primary key identifier.
//  EventID   – event this table belongs to.
//  Label     – human label printed on the table card ("A1", "Family").
//  Capacity  – seat count, at most MaxTableCapacity.
//  CreatedAt – creation timestamp.
type Table struct {
	ID        uint64    // tables.id
	EventID   uint64    // tables.event_id
	Label     string    // tables.label
	Capacity  int       // tables.capacity
	CreatedAt time.Time // tables.created_at
}
