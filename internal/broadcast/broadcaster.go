// Package broadcast fans committed seating deltas out to live viewer
// sessions.  Each event keeps an append-only log of deltas tagged with
// a monotonically increasing per-event sequence number; a session that
// reconnects with its last-seen sequence receives exactly the deltas
// it missed.  The log window is bounded, so a session older than the
// window is told to start from a fresh snapshot instead — a deliberate
// degrade-to-snapshot policy, not a failure.
//
// Delivery is fully decoupled from the commit path: Append never
// blocks on a subscriber.  Each subscriber owns a bounded queue; when
// it overflows the subscriber is force-disconnected and must reconnect
// through the catch-up path.
package broadcast

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kamyarm/wedding-seating/internal/model"
)

const (
	// DefaultRetain is how many deltas per event the catch-up log keeps.
	DefaultRetain = 512
	// DefaultQueueSize bounds each subscriber's delivery queue.
	DefaultQueueSize = 64
)

// ErrSnapshotRequired tells a reconnecting session that its checkpoint
// fell outside the retained window and it must resubscribe without one.
var ErrSnapshotRequired = errors.New("checkpoint outside retained window, snapshot required")

// Subscriber is one live viewer session.  Deltas arrive on Deltas() in
// sequence order with no gaps or duplicates; the channel is closed
// when the subscriber is force-disconnected or the event is dropped.
type Subscriber struct {
	ID   string
	ch   chan model.Delta
	once sync.Once
}

// Deltas is the subscriber's ordered delivery channel.
func (s *Subscriber) Deltas() <-chan model.Delta { return s.ch }

func (s *Subscriber) close() { s.once.Do(func() { close(s.ch) }) }

type eventLog struct {
	mu     sync.Mutex
	seq    uint64
	deltas []model.Delta // window of the most recent deltas, oldest first
	subs   map[string]*Subscriber
}

// Broadcaster multiplexes per-event delta logs and their subscribers.
type Broadcaster struct {
	mu     sync.Mutex
	events map[uint64]*eventLog
	retain int
	queue  int
}

// New returns a Broadcaster retaining `retain` deltas per event and
// giving each subscriber a queue of `queue` slots.  Zero values select
// the defaults.
func New(retain, queue int) *Broadcaster {
	if retain <= 0 {
		retain = DefaultRetain
	}
	if queue <= 0 {
		queue = DefaultQueueSize
	}
	return &Broadcaster{
		events: make(map[uint64]*eventLog),
		retain: retain,
		queue:  queue,
	}
}

func (b *Broadcaster) eventLog(eventID uint64) *eventLog {
	b.mu.Lock()
	defer b.mu.Unlock()
	el, ok := b.events[eventID]
	if !ok {
		el = &eventLog{subs: make(map[string]*Subscriber)}
		b.events[eventID] = el
	}
	return el
}

// Append assigns the next sequence number, records the delta in the
// log and fans it out.  It is called by the engine while holding the
// event's writer lock, which is what guarantees that sequence order
// matches commit order.  A slow subscriber never delays the return: a
// full queue disconnects that subscriber only.
func (b *Broadcaster) Append(eventID uint64, kind model.DeltaKind, guest *model.DeltaGuest) model.Delta {
	el := b.eventLog(eventID)
	el.mu.Lock()
	defer el.mu.Unlock()

	el.seq++
	d := model.Delta{
		Sequence:   el.seq,
		Kind:       kind,
		EventID:    eventID,
		OccurredAt: time.Now().UTC(),
		Guest:      guest,
	}
	el.deltas = append(el.deltas, d)
	if len(el.deltas) > b.retain {
		el.deltas = el.deltas[len(el.deltas)-b.retain:]
	}

	for id, sub := range el.subs {
		select {
		case sub.ch <- d:
		default:
			// Queue overflow: the subscriber is too slow to keep up.
			// Disconnect it; reconnecting triggers catch-up or snapshot.
			delete(el.subs, id)
			sub.close()
			log.Printf("broadcast: subscriber %s on event %d dropped (queue overflow)", id, eventID)
		}
	}
	return d
}

// CurrentSeq returns the event's latest assigned sequence number.
func (b *Broadcaster) CurrentSeq(eventID uint64) uint64 {
	el := b.eventLog(eventID)
	el.mu.Lock()
	defer el.mu.Unlock()
	return el.seq
}

// Resume registers a session that holds a checkpoint.  When lastSeq is
// still inside the retained window it returns the missed deltas
// (lastSeq+1 .. current, in order) to send before switching to the
// live channel; deltas appended after the call arrive on the channel,
// so the session sees no gap and no duplicate.  Outside the window it
// returns ErrSnapshotRequired and registers nothing.
func (b *Broadcaster) Resume(eventID uint64, lastSeq uint64) (*Subscriber, []model.Delta, error) {
	el := b.eventLog(eventID)
	el.mu.Lock()
	defer el.mu.Unlock()

	if lastSeq > el.seq {
		// Checkpoint from a previous process incarnation.
		return nil, nil, ErrSnapshotRequired
	}
	missed := el.seq - lastSeq
	if missed > uint64(len(el.deltas)) {
		return nil, nil, ErrSnapshotRequired
	}
	var replay []model.Delta
	for _, d := range el.deltas {
		if d.Sequence > lastSeq {
			replay = append(replay, d)
		}
	}
	sub := b.registerLocked(el)
	return sub, replay, nil
}

// Attach registers a session without a checkpoint.  The caller is
// expected to fetch a full-state snapshot next and discard any queued
// delta whose sequence is not greater than the snapshot's.
func (b *Broadcaster) Attach(eventID uint64) *Subscriber {
	el := b.eventLog(eventID)
	el.mu.Lock()
	defer el.mu.Unlock()
	return b.registerLocked(el)
}

func (b *Broadcaster) registerLocked(el *eventLog) *Subscriber {
	sub := &Subscriber{ID: uuid.NewString(), ch: make(chan model.Delta, b.queue)}
	el.subs[sub.ID] = sub
	return sub
}

// Detach removes a subscriber and closes its channel.  Detaching an
// already-dropped subscriber is a no-op.
func (b *Broadcaster) Detach(eventID uint64, subID string) {
	el := b.eventLog(eventID)
	el.mu.Lock()
	defer el.mu.Unlock()
	if sub, ok := el.subs[subID]; ok {
		delete(el.subs, subID)
		sub.close()
	}
}

// DropEvent disconnects every subscriber and forgets the event's log.
// Called on event teardown.
func (b *Broadcaster) DropEvent(eventID uint64) {
	b.mu.Lock()
	el, ok := b.events[eventID]
	if ok {
		delete(b.events, eventID)
	}
	b.mu.Unlock()
	if !ok {
		return
	}
	el.mu.Lock()
	defer el.mu.Unlock()
	for id, sub := range el.subs {
		delete(el.subs, id)
		sub.close()
	}
}
