package model

import "time"

// CheckInStatus tracks whether a guest has arrived at the venue.
type CheckInStatus string

const (
	// StatusNotArrived is the initial state of every guest.
	StatusNotArrived CheckInStatus = "NOT_ARRIVED"
	// StatusCheckedIn is terminal under normal portal flow; only an
	// admin correction can revert it.
	StatusCheckedIn CheckInStatus = "CHECKED_IN"
)

// Guest is a single invitee.  A guest may be unassigned (TableID nil)
// and may check in before being seated; arrival and seating are
// independent state machines.
//
// Fields:
//  ID          – primary key identifier.
//  EventID     – event this guest belongs to.
//  Name        – display name as printed on the invitation.
//  Contact     – optional phone/email, part of the import natural key.
//  Dietary     – normalized dietary note (none, vegetarian, halal,
//                allergies:<text>).
//  TableID     – assigned table, nil while unassigned.
//  SeatNo      – seat within the table, nil while unnumbered; unique
//                per table when set.
//  Status      – NOT_ARRIVED or CHECKED_IN.
//  CheckedInAt – set exactly when Status transitions to CHECKED_IN,
//                nil otherwise.
//  LookupToken – opaque portal credential, stable for the guest's
//                lifetime and never reused by a later guest.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Guest struct {
	ID          uint64        // guests.id
	EventID     uint64        // guests.event_id
	Name        string        // guests.name
	Contact     *string       // guests.contact (nullable)
	Dietary     string        // guests.dietary
	TableID     *uint64       // guests.table_id (nullable)
	SeatNo      *int          // guests.seat_no (nullable)
	Status      CheckInStatus // guests.status
	CheckedInAt *time.Time    // guests.checked_in_at (nullable)
	LookupToken string        // guests.lookup_token
	CreatedAt   time.Time     // guests.created_at
	UpdatedAt   time.Time     // guests.updated_at
}

// CheckedIn reports whether the guest has arrived.
func (g *Guest) CheckedIn() bool { return g.Status == StatusCheckedIn }
