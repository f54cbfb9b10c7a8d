package repository

import (
	"context"

	"github.com/kamyarm/wedding-seating/internal/model"
)

// EventState is the full committed state of one event: the event row
// plus every table and guest.  The engine validates proposed changes
// against an EventState and never against individual rows, which is
// what makes whole-batch capacity projection possible.
type EventState struct {
	Event  model.Event
	Tables []model.Table
	Guests []model.Guest
}

// TableByID returns the table with the given id, or nil.
func (s *EventState) TableByID(id uint64) *model.Table {
	for i := range s.Tables {
		if s.Tables[i].ID == id {
			return &s.Tables[i]
		}
	}
	return nil
}

// TableByLabel returns the table with the given label, or nil.  Labels
// are unique within an event.
func (s *EventState) TableByLabel(label string) *model.Table {
	for i := range s.Tables {
		if s.Tables[i].Label == label {
			return &s.Tables[i]
		}
	}
	return nil
}

// GuestByID returns the guest with the given id, or nil.
func (s *EventState) GuestByID(id uint64) *model.Guest {
	for i := range s.Guests {
		if s.Guests[i].ID == id {
			return &s.Guests[i]
		}
	}
	return nil
}

// Occupancy computes the derived per-table occupant counts from the
// guests' table references.
func (s *EventState) Occupancy() map[uint64]int {
	occ := make(map[uint64]int, len(s.Tables))
	for i := range s.Guests {
		if tid := s.Guests[i].TableID; tid != nil {
			occ[*tid]++
		}
	}
	return occ
}

// GuestUpsert is one guest insert or update inside a ChangeSet.  A
// guest created in the same ChangeSet as its table cannot know the
// table's id yet, so imports reference the table by label instead;
// when TableLabel is set it is resolved at apply time and overrides
// Guest.TableID.
type GuestUpsert struct {
	Guest      model.Guest
	TableLabel *string
}

// ChangeSet describes one atomic mutation of an event's state.  An
// implementation must apply the whole set in a single transaction or
// none of it.  Inserted rows are recognized by a zero ID.
type ChangeSet struct {
	// ExpectedVersion is the event version the caller validated
	// against.  Apply fails with ErrVersionConflict when the stored
	// version differs; on success the version is incremented.
	ExpectedVersion uint64
	// ReplaceAll first removes every guest and table of the event,
	// then applies the upserts.  Used by replace_all imports.
	ReplaceAll bool

	UpsertTables []model.Table
	DeleteTables []uint64
	UpsertGuests []GuestUpsert
	DeleteGuests []uint64

	// ReserveTokens appends lookup tokens to the permanent ledger in
	// the same transaction as the guest rows that carry them.  Ledger
	// entries are never removed, even when their guest is, so a token
	// can never be re-issued to someone else later.
	ReserveTokens []string
}

// Store is the durable guest record store.  Implementations must offer
// transactional read-modify-write per event with at least
// read-committed isolation; the engine serializes writers per event on
// top of this and never relies on SQL-specific behavior.
type Store interface {
	CreateEvent(ctx context.Context, name, publicCode string) (model.Event, error)
	GetEvent(ctx context.Context, eventID uint64) (model.Event, error)
	GetEventByCode(ctx context.Context, code string) (model.Event, error)
	ListEvents(ctx context.Context) ([]model.Event, error)
	// DeleteEvent tears an event down, cascading to its guests and
	// tables.  The token ledger is left intact.
	DeleteEvent(ctx context.Context, eventID uint64) error

	// Load returns the full committed state of the event.
	Load(ctx context.Context, eventID uint64) (*EventState, error)
	// Apply commits a ChangeSet atomically and returns the reloaded
	// committed state.
	Apply(ctx context.Context, eventID uint64, cs ChangeSet) (*EventState, error)

	// FindGuestByToken resolves a lookup token to its event and guest
	// without any serialization against writers.
	FindGuestByToken(ctx context.Context, token string) (model.Event, model.Guest, error)
	// TokenSeen reports whether the token was ever issued to any
	// guest, including guests that have since been removed.
	TokenSeen(ctx context.Context, token string) (bool, error)
}
