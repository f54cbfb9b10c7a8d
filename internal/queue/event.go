// Package queue defines message payloads exchanged over the message broker.
package queue

// CheckInEvent is published when a guest check-in is committed.  It
// carries enough information for downstream consumers to build an
// audit trail or notify venue staff without querying the primary
// database.
type CheckInEvent struct {
	EventID     uint64  `json:"event_id"`
	EventName   string  `json:"event_name"`
	PublicCode  string  `json:"public_code"`
	GuestID     uint64  `json:"guest_id"`
	GuestName   string  `json:"guest_name"`
	TableLabel  *string `json:"table_label"`
	Dietary     string  `json:"dietary,omitempty"`
	CheckedInAt string  `json:"checked_in_at"`
}
