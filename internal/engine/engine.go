package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/kamyarm/wedding-seating/internal/broadcast"
	"github.com/kamyarm/wedding-seating/internal/model"
	"github.com/kamyarm/wedding-seating/internal/repository"
	"github.com/kamyarm/wedding-seating/internal/token"
)

const (
	storeRetries = 3
	storeBackoff = 50 * time.Millisecond
)

// Auditor receives committed check-ins for out-of-band processing
// (audit trails, notifications).  Implementations must return quickly
// and never block the commit path; network delivery belongs in their
// own goroutines.
type Auditor interface {
	GuestCheckedIn(ctx context.Context, event model.Event, guest model.Guest, tableLabel *string)
}

// Engine is the single writer of truth for an event's seating state.
// Every mutating operation takes the event's writer lock, validates
// the proposed state as a whole, commits atomically through the store
// and appends deltas to the broadcaster before releasing the lock, so
// broadcast order always matches commit order.  Reads over committed
// state (token lookups, summaries) take no lock at all.
type Engine struct {
	store       repository.Store
	issuer      *token.Issuer
	broadcaster *broadcast.Broadcaster
	auditor     Auditor // may be nil

	mu    sync.Mutex
	locks map[uint64]*sync.Mutex
}

// New constructs an Engine.  auditor may be nil when no out-of-band
// check-in processing is wired.
func New(store repository.Store, bc *broadcast.Broadcaster, auditor Auditor) *Engine {
	if store == nil || bc == nil {
		panic("nil dependency passed to engine.New")
	}
	return &Engine{
		store:       store,
		issuer:      token.NewIssuer(store),
		broadcaster: bc,
		auditor:     auditor,
		locks:       make(map[uint64]*sync.Mutex),
	}
}

// Issuer exposes the engine's token issuer to the QR adapter surface.
func (e *Engine) Issuer() *token.Issuer { return e.issuer }

// eventLock returns the serialization mutex for one event, creating it
// on first use.  Locks for different events are independent, so
// unrelated weddings never contend.
func (e *Engine) eventLock(eventID uint64) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.locks[eventID]
	if !ok {
		l = &sync.Mutex{}
		e.locks[eventID] = l
	}
	return l
}

// commit applies a ChangeSet with a bounded internal retry.  Transient
// store failures are retried with exponential backoff and escalate to
// a StorageError once the budget is spent; sentinel failures
// (not-found, version conflict) are surfaced immediately.  The commit
// itself is atomic either way, so a failure never leaves a partially
// applied state.
func (e *Engine) commit(ctx context.Context, eventID uint64, cs repository.ChangeSet) (*repository.EventState, error) {
	var st *repository.EventState
	backoff := retry.WithMaxRetries(storeRetries, retry.NewExponential(storeBackoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var aerr error
		st, aerr = e.store.Apply(ctx, eventID, cs)
		if aerr == nil {
			return nil
		}
		if isPermanent(aerr) {
			return aerr
		}
		return retry.RetryableError(aerr)
	})
	if err != nil {
		if isPermanent(err) {
			return nil, err
		}
		return nil, &StorageError{Err: err}
	}
	return st, nil
}

func isPermanent(err error) bool {
	return errors.Is(err, repository.ErrVersionConflict) ||
		errors.Is(err, repository.ErrEventNotFound) ||
		errors.Is(err, repository.ErrGuestNotFound) ||
		errors.Is(err, repository.ErrTableNotFound)
}

// CreateEvent registers a new wedding and mints its public code.
func (e *Engine) CreateEvent(ctx context.Context, name string) (model.Event, error) {
	return e.store.CreateEvent(ctx, name, uuid.NewString())
}

// GetEvent fetches an event by id.
func (e *Engine) GetEvent(ctx context.Context, eventID uint64) (model.Event, error) {
	return e.store.GetEvent(ctx, eventID)
}

// GetEventByCode fetches an event by its public code.
func (e *Engine) GetEventByCode(ctx context.Context, code string) (model.Event, error) {
	return e.store.GetEventByCode(ctx, code)
}

// ListEvents returns all events.
func (e *Engine) ListEvents(ctx context.Context) ([]model.Event, error) {
	return e.store.ListEvents(ctx)
}

// DeleteEvent tears an event down: guests and tables cascade away,
// live subscribers are disconnected and the event's lock is released.
// Issued lookup tokens stay reserved forever.
func (e *Engine) DeleteEvent(ctx context.Context, eventID uint64) error {
	l := e.eventLock(eventID)
	l.Lock()
	defer l.Unlock()
	if err := e.store.DeleteEvent(ctx, eventID); err != nil {
		return err
	}
	e.broadcaster.DropEvent(eventID)
	e.mu.Lock()
	delete(e.locks, eventID)
	e.mu.Unlock()
	return nil
}

// deltaGuest builds the broadcast payload for a guest, resolving the
// table label against the committed state.
func deltaGuest(st *repository.EventState, g *model.Guest) *model.DeltaGuest {
	d := &model.DeltaGuest{
		ID:          g.ID,
		Name:        g.Name,
		Dietary:     g.Dietary,
		TableID:     g.TableID,
		SeatNo:      g.SeatNo,
		CheckedIn:   g.CheckedIn(),
		CheckedInAt: g.CheckedInAt,
	}
	if g.TableID != nil {
		if t := st.TableByID(*g.TableID); t != nil {
			label := t.Label
			d.TableLabel = &label
		}
	}
	return d
}
