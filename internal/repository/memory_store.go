package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/kamyarm/wedding-seating/internal/model"
)

// MemoryStore is an in-process Store used by tests and by the server's
// no-database development mode.  It honors the same transactional
// contract as SQLStore: Apply either lands completely or not at all,
// and returned states are copies so callers can never mutate committed
// rows in place.
type MemoryStore struct {
	mu         sync.RWMutex
	events     map[uint64]*model.Event
	tables     map[uint64]*model.Table
	guests     map[uint64]*model.Guest
	usedTokens map[string]struct{}
	nextID     uint64
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		events:     make(map[uint64]*model.Event),
		tables:     make(map[uint64]*model.Table),
		guests:     make(map[uint64]*model.Guest),
		usedTokens: make(map[string]struct{}),
	}
}

func (m *MemoryStore) nextIDLocked() uint64 {
	m.nextID++
	return m.nextID
}

// CreateEvent inserts a new event.
func (m *MemoryStore) CreateEvent(ctx context.Context, name, publicCode string) (model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	ev := &model.Event{
		ID:         m.nextIDLocked(),
		Name:       name,
		PublicCode: publicCode,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	m.events[ev.ID] = ev
	return *ev, nil
}

// GetEvent fetches an event by id.
func (m *MemoryStore) GetEvent(ctx context.Context, eventID uint64) (model.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ev, ok := m.events[eventID]
	if !ok {
		return model.Event{}, ErrEventNotFound
	}
	return *ev, nil
}

// GetEventByCode fetches an event by its public code.
func (m *MemoryStore) GetEventByCode(ctx context.Context, code string) (model.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, ev := range m.events {
		if ev.PublicCode == code {
			return *ev, nil
		}
	}
	return model.Event{}, ErrEventNotFound
}

// ListEvents returns all events, newest first.
func (m *MemoryStore) ListEvents(ctx context.Context) ([]model.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	events := make([]model.Event, 0, len(m.events))
	for _, ev := range m.events {
		events = append(events, *ev)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].CreatedAt.After(events[j].CreatedAt) })
	return events, nil
}

// DeleteEvent removes the event with its guests and tables.  The token
// ledger survives the teardown.
func (m *MemoryStore) DeleteEvent(ctx context.Context, eventID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[eventID]; !ok {
		return ErrEventNotFound
	}
	delete(m.events, eventID)
	for id, t := range m.tables {
		if t.EventID == eventID {
			delete(m.tables, id)
		}
	}
	for id, g := range m.guests {
		if g.EventID == eventID {
			delete(m.guests, id)
		}
	}
	return nil
}

// Load returns a copy of the event's full committed state.
func (m *MemoryStore) Load(ctx context.Context, eventID uint64) (*EventState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loadLocked(eventID)
}

func (m *MemoryStore) loadLocked(eventID uint64) (*EventState, error) {
	ev, ok := m.events[eventID]
	if !ok {
		return nil, ErrEventNotFound
	}
	st := &EventState{Event: *ev}
	for _, t := range m.tables {
		if t.EventID == eventID {
			st.Tables = append(st.Tables, *t)
		}
	}
	sort.Slice(st.Tables, func(i, j int) bool { return st.Tables[i].Label < st.Tables[j].Label })
	for _, g := range m.guests {
		if g.EventID == eventID {
			gc := *g
			if g.Contact != nil {
				c := *g.Contact
				gc.Contact = &c
			}
			if g.TableID != nil {
				id := *g.TableID
				gc.TableID = &id
			}
			if g.SeatNo != nil {
				n := *g.SeatNo
				gc.SeatNo = &n
			}
			if g.CheckedInAt != nil {
				t := *g.CheckedInAt
				gc.CheckedInAt = &t
			}
			st.Guests = append(st.Guests, gc)
		}
	}
	sort.Slice(st.Guests, func(i, j int) bool { return st.Guests[i].ID < st.Guests[j].ID })
	return st, nil
}

// Apply commits the ChangeSet atomically under the store lock.
func (m *MemoryStore) Apply(ctx context.Context, eventID uint64, cs ChangeSet) (*EventState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ev, ok := m.events[eventID]
	if !ok {
		return nil, ErrEventNotFound
	}
	if ev.Version != cs.ExpectedVersion {
		return nil, ErrVersionConflict
	}

	// Stage on copies first so a resolution failure leaves nothing behind.
	type staged struct {
		tables map[uint64]*model.Table
		guests map[uint64]*model.Guest
	}
	stg := staged{tables: make(map[uint64]*model.Table), guests: make(map[uint64]*model.Guest)}
	for id, t := range m.tables {
		tc := *t
		stg.tables[id] = &tc
	}
	for id, g := range m.guests {
		gc := *g
		stg.guests[id] = &gc
	}

	if cs.ReplaceAll {
		for id, t := range stg.tables {
			if t.EventID == eventID {
				delete(stg.tables, id)
			}
		}
		for id, g := range stg.guests {
			if g.EventID == eventID {
				delete(stg.guests, id)
			}
		}
	}
	for _, id := range cs.DeleteGuests {
		delete(stg.guests, id)
	}
	for _, id := range cs.DeleteTables {
		delete(stg.tables, id)
	}

	labelToID := make(map[string]uint64)
	for id, t := range stg.tables {
		if t.EventID == eventID {
			labelToID[t.Label] = id
		}
	}
	now := time.Now().UTC()
	for _, t := range cs.UpsertTables {
		tc := t
		tc.EventID = eventID
		if tc.ID == 0 {
			tc.ID = m.nextIDLocked()
			tc.CreatedAt = now
		} else if prev, ok := stg.tables[tc.ID]; ok {
			tc.CreatedAt = prev.CreatedAt
		}
		stg.tables[tc.ID] = &tc
		labelToID[tc.Label] = tc.ID
	}
	for _, up := range cs.UpsertGuests {
		gc := up.Guest
		gc.EventID = eventID
		if up.TableLabel != nil {
			id, ok := labelToID[*up.TableLabel]
			if !ok {
				return nil, ErrTableNotFound
			}
			gc.TableID = &id
		}
		if gc.ID == 0 {
			gc.ID = m.nextIDLocked()
			gc.CreatedAt = now
		} else if prev, ok := stg.guests[gc.ID]; ok {
			gc.CreatedAt = prev.CreatedAt
		}
		gc.UpdatedAt = now
		stg.guests[gc.ID] = &gc
	}

	// Commit point: swap in the staged maps and bump the version.
	m.tables = stg.tables
	m.guests = stg.guests
	for _, token := range cs.ReserveTokens {
		m.usedTokens[token] = struct{}{}
	}
	ev.Version++
	ev.UpdatedAt = now

	return m.loadLocked(eventID)
}

// FindGuestByToken resolves a lookup token without blocking writers
// beyond the brief read lock.
func (m *MemoryStore) FindGuestByToken(ctx context.Context, token string) (model.Event, model.Guest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, g := range m.guests {
		if g.LookupToken == token {
			ev, ok := m.events[g.EventID]
			if !ok {
				return model.Event{}, model.Guest{}, ErrEventNotFound
			}
			return *ev, *g, nil
		}
	}
	return model.Event{}, model.Guest{}, ErrTokenNotFound
}

// TokenSeen consults the permanent ledger.
func (m *MemoryStore) TokenSeen(ctx context.Context, token string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.usedTokens[token]
	return ok, nil
}
