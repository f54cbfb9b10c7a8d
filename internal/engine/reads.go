package engine

import (
	"context"
	"sort"

	"github.com/kamyarm/wedding-seating/internal/model"
	"github.com/kamyarm/wedding-seating/internal/repository"
)

// LookupByToken resolves a guest's lookup token into the portal view:
// their own seat, the event context and their table mates.  It runs
// entirely on committed state without taking the event's writer lock,
// so it may observe an assignment at most one commit stale, which the
// portal accepts.
func (e *Engine) LookupByToken(ctx context.Context, tok string) (*model.GuestView, error) {
	ev, guest, err := e.issuer.Verify(ctx, tok)
	if err != nil {
		return nil, err
	}
	view := &model.GuestView{
		EventID:     ev.ID,
		EventName:   ev.Name,
		GuestID:     guest.ID,
		GuestName:   guest.Name,
		Dietary:     guest.Dietary,
		SeatNo:      guest.SeatNo,
		CheckedIn:   guest.CheckedIn(),
		CheckedInAt: guest.CheckedInAt,
	}
	if guest.TableID == nil {
		return view, nil
	}
	st, err := e.store.Load(ctx, ev.ID)
	if err != nil {
		return nil, err
	}
	if t := st.TableByID(*guest.TableID); t != nil {
		label := t.Label
		view.TableLabel = &label
	}
	for _, g := range st.Guests {
		if g.ID == guest.ID || g.TableID == nil || *g.TableID != *guest.TableID {
			continue
		}
		view.TableMates = append(view.TableMates, model.TableMate{
			Name:      g.Name,
			SeatNo:    g.SeatNo,
			Dietary:   g.Dietary,
			CheckedIn: g.CheckedIn(),
		})
	}
	// Numbered seats first, in seat order, so the portal renders the
	// table the way the place cards are laid out.
	sort.SliceStable(view.TableMates, func(i, j int) bool {
		a, b := view.TableMates[i].SeatNo, view.TableMates[j].SeatNo
		switch {
		case a != nil && b != nil:
			return *a < *b
		case a != nil:
			return true
		default:
			return false
		}
	})
	return view, nil
}

// GuestToken returns one guest's lookup token.  Snapshots and summaries
// deliberately leave tokens out, so QR rendering fetches them here.
func (e *Engine) GuestToken(ctx context.Context, eventID, guestID uint64) (string, error) {
	st, err := e.store.Load(ctx, eventID)
	if err != nil {
		return "", err
	}
	g := st.GuestByID(guestID)
	if g == nil {
		return "", repository.ErrGuestNotFound
	}
	return g.LookupToken, nil
}

// Snapshot produces the full-state view of an event as of its latest
// broadcast sequence number.  It briefly takes the event's writer lock
// so the state and the sequence agree exactly; live sessions bootstrap
// from this and then apply only deltas beyond its sequence.
func (e *Engine) Snapshot(ctx context.Context, eventID uint64) (*model.Snapshot, error) {
	l := e.eventLock(eventID)
	l.Lock()
	defer l.Unlock()

	st, err := e.store.Load(ctx, eventID)
	if err != nil {
		return nil, err
	}
	snap := &model.Snapshot{
		EventID:   eventID,
		EventName: st.Event.Name,
		Sequence:  e.broadcaster.CurrentSeq(eventID),
	}
	occ := st.Occupancy()
	for _, t := range st.Tables {
		snap.Tables = append(snap.Tables, model.SnapshotTable{
			ID:       t.ID,
			Label:    t.Label,
			Capacity: t.Capacity,
			Occupied: occ[t.ID],
		})
	}
	for _, g := range st.Guests {
		sg := model.SnapshotGuest{
			ID:          g.ID,
			Name:        g.Name,
			Contact:     g.Contact,
			Dietary:     g.Dietary,
			SeatNo:      g.SeatNo,
			CheckedIn:   g.CheckedIn(),
			CheckedInAt: g.CheckedInAt,
		}
		if g.TableID != nil {
			if t := st.TableByID(*g.TableID); t != nil {
				label := t.Label
				sg.TableLabel = &label
			}
		}
		snap.Guests = append(snap.Guests, sg)
	}
	return snap, nil
}

// Summary aggregates per-table occupancy and arrivals for the admin
// dashboard.  Plain committed-state read, no lock.
func (e *Engine) Summary(ctx context.Context, eventID uint64) (*model.Summary, error) {
	st, err := e.store.Load(ctx, eventID)
	if err != nil {
		return nil, err
	}
	sum := &model.Summary{
		EventName:   st.Event.Name,
		TotalGuests: len(st.Guests),
		TotalTables: len(st.Tables),
	}
	checkedByTable := make(map[uint64]int)
	occ := st.Occupancy()
	for _, g := range st.Guests {
		if g.CheckedIn() {
			sum.CheckedInTotal++
			if g.TableID != nil {
				checkedByTable[*g.TableID]++
			}
		}
	}
	for _, t := range st.Tables {
		sum.Tables = append(sum.Tables, model.SummaryTable{
			Label:          t.Label,
			TotalGuests:    occ[t.ID],
			CheckedIn:      checkedByTable[t.ID],
			AvailableSeats: t.Capacity - occ[t.ID],
		})
	}
	return sum, nil
}
