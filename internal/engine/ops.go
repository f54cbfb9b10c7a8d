package engine

import (
	"context"
	"strings"
	"time"

	"github.com/kamyarm/wedding-seating/internal/model"
	"github.com/kamyarm/wedding-seating/internal/repository"
)

// AssignGuestToTable moves one guest to a table, or to no table when
// tableID is nil, optionally at a numbered seat.  The change is
// validated against current committed state plus this one edit and
// committed atomically.  A SeatingChanged delta is emitted unless the
// assignment is already in place, in which case the call is a no-op
// and the returned delta is nil.
func (e *Engine) AssignGuestToTable(ctx context.Context, eventID, guestID uint64, tableID *uint64, seatNo *int) (*model.Delta, error) {
	l := e.eventLock(eventID)
	l.Lock()
	defer l.Unlock()

	st, err := e.store.Load(ctx, eventID)
	if err != nil {
		return nil, err
	}
	guest := st.GuestByID(guestID)
	if guest == nil {
		return nil, repository.ErrGuestNotFound
	}
	if v := validateAssign(st, guest, tableID, seatNo); v != nil {
		return nil, v
	}
	if sameAssignment(guest.TableID, tableID) && sameSeat(guest.SeatNo, seatNo) {
		return nil, nil
	}

	g := *guest
	g.TableID = tableID
	g.SeatNo = seatNo
	committed, err := e.commit(context.WithoutCancel(ctx), eventID, repository.ChangeSet{
		ExpectedVersion: st.Event.Version,
		UpsertGuests:    []repository.GuestUpsert{{Guest: g}},
	})
	if err != nil {
		return nil, err
	}
	d := e.broadcaster.Append(eventID, model.DeltaSeatingChanged, deltaGuest(committed, committed.GuestByID(guestID)))
	return &d, nil
}

// CheckInResult is the outcome of a CheckIn call.  Already reports
// whether the guest had checked in before this call; the timestamp in
// Guest is the original one either way.
type CheckInResult struct {
	Guest   model.Guest
	Already bool
}

// CheckIn marks a guest as arrived.  It is idempotent: a second call
// returns the existing timestamp without committing anything and
// without broadcasting a second delta, so concurrent scans of the same
// QR code count one arrival.  Check-in is allowed before the guest has
// a table; arrival and seating are independent.
func (e *Engine) CheckIn(ctx context.Context, eventID, guestID uint64) (CheckInResult, error) {
	l := e.eventLock(eventID)
	l.Lock()
	defer l.Unlock()

	st, err := e.store.Load(ctx, eventID)
	if err != nil {
		return CheckInResult{}, err
	}
	guest := st.GuestByID(guestID)
	if guest == nil {
		return CheckInResult{}, repository.ErrGuestNotFound
	}
	if guest.CheckedIn() {
		return CheckInResult{Guest: *guest, Already: true}, nil
	}

	g := *guest
	now := time.Now().UTC().Truncate(time.Second)
	g.Status = model.StatusCheckedIn
	g.CheckedInAt = &now
	committed, err := e.commit(context.WithoutCancel(ctx), eventID, repository.ChangeSet{
		ExpectedVersion: st.Event.Version,
		UpsertGuests:    []repository.GuestUpsert{{Guest: g}},
	})
	if err != nil {
		return CheckInResult{}, err
	}
	updated := committed.GuestByID(guestID)
	dg := deltaGuest(committed, updated)
	e.broadcaster.Append(eventID, model.DeltaCheckedIn, dg)
	if e.auditor != nil {
		e.auditor.GuestCheckedIn(context.WithoutCancel(ctx), committed.Event, *updated, dg.TableLabel)
	}
	return CheckInResult{Guest: *updated}, nil
}

// RevertCheckIn is the admin correction for a mistaken check-in.  It
// clears the status and timestamp and broadcasts a distinct
// CheckInReverted delta so the audit trail records the reversal
// explicitly.  Reverting a guest who never checked in is a no-op.
func (e *Engine) RevertCheckIn(ctx context.Context, eventID, guestID uint64) (*model.Delta, error) {
	l := e.eventLock(eventID)
	l.Lock()
	defer l.Unlock()

	st, err := e.store.Load(ctx, eventID)
	if err != nil {
		return nil, err
	}
	guest := st.GuestByID(guestID)
	if guest == nil {
		return nil, repository.ErrGuestNotFound
	}
	if !guest.CheckedIn() {
		return nil, nil
	}

	g := *guest
	g.Status = model.StatusNotArrived
	g.CheckedInAt = nil
	committed, err := e.commit(context.WithoutCancel(ctx), eventID, repository.ChangeSet{
		ExpectedVersion: st.Event.Version,
		UpsertGuests:    []repository.GuestUpsert{{Guest: g}},
	})
	if err != nil {
		return nil, err
	}
	d := e.broadcaster.Append(eventID, model.DeltaCheckInReverted, deltaGuest(committed, committed.GuestByID(guestID)))
	return &d, nil
}

// AddGuestParams describes a single guest created outside of a bulk
// import.
type AddGuestParams struct {
	Name    string
	Contact *string
	Dietary string
	TableID *uint64
	SeatNo  *int
}

// AddGuest creates one guest, mints their permanent lookup token and
// broadcasts a GuestAdded delta.
func (e *Engine) AddGuest(ctx context.Context, eventID uint64, p AddGuestParams) (model.Guest, error) {
	l := e.eventLock(eventID)
	l.Lock()
	defer l.Unlock()

	st, err := e.store.Load(ctx, eventID)
	if err != nil {
		return model.Guest{}, err
	}
	name := strings.Join(strings.Fields(p.Name), " ")
	if name == "" {
		return model.Guest{}, newValidationError(Violation{
			Reason: ReasonMalformedRow,
			Detail: "guest name is required",
		})
	}
	key := naturalKey(name, p.Contact)
	for _, g := range st.Guests {
		if naturalKey(g.Name, g.Contact) == key {
			return model.Guest{}, newValidationError(Violation{
				Reason:   ReasonDuplicateGuestKey,
				GuestIDs: []uint64{g.ID},
				Detail:   "a guest with the same name and contact already exists",
			})
		}
	}
	newcomer := model.Guest{Name: name}
	if v := validateAssign(st, &newcomer, p.TableID, p.SeatNo); v != nil {
		return model.Guest{}, v
	}

	tok, err := e.issuer.Mint(ctx)
	if err != nil {
		return model.Guest{}, &StorageError{Err: err}
	}
	committed, err := e.commit(context.WithoutCancel(ctx), eventID, repository.ChangeSet{
		ExpectedVersion: st.Event.Version,
		UpsertGuests: []repository.GuestUpsert{{Guest: model.Guest{
			Name:        name,
			Contact:     p.Contact,
			Dietary:     NormalizeDietary(p.Dietary),
			TableID:     p.TableID,
			SeatNo:      p.SeatNo,
			Status:      model.StatusNotArrived,
			LookupToken: tok,
		}}},
		ReserveTokens: []string{tok},
	})
	if err != nil {
		return model.Guest{}, err
	}
	var created *model.Guest
	for i := range committed.Guests {
		if committed.Guests[i].LookupToken == tok {
			created = &committed.Guests[i]
			break
		}
	}
	e.broadcaster.Append(eventID, model.DeltaGuestAdded, deltaGuest(committed, created))
	return *created, nil
}

// RemoveGuest deletes a guest and broadcasts GuestRemoved.  The
// guest's lookup token stays in the ledger, so a QR code still in the
// wild resolves to nothing rather than to a future guest.
func (e *Engine) RemoveGuest(ctx context.Context, eventID, guestID uint64) error {
	l := e.eventLock(eventID)
	l.Lock()
	defer l.Unlock()

	st, err := e.store.Load(ctx, eventID)
	if err != nil {
		return err
	}
	guest := st.GuestByID(guestID)
	if guest == nil {
		return repository.ErrGuestNotFound
	}
	removed := deltaGuest(st, guest)
	if _, err := e.commit(context.WithoutCancel(ctx), eventID, repository.ChangeSet{
		ExpectedVersion: st.Event.Version,
		DeleteGuests:    []uint64{guestID},
	}); err != nil {
		return err
	}
	e.broadcaster.Append(eventID, model.DeltaGuestRemoved, removed)
	return nil
}

// AddTable creates an empty table.  Capacity is capped at
// model.MaxTableCapacity.
func (e *Engine) AddTable(ctx context.Context, eventID uint64, label string, capacity int) (model.Table, error) {
	l := e.eventLock(eventID)
	l.Lock()
	defer l.Unlock()

	st, err := e.store.Load(ctx, eventID)
	if err != nil {
		return model.Table{}, err
	}
	label = strings.TrimSpace(label)
	if v := validateNewTable(st, label, capacity); v != nil {
		return model.Table{}, v
	}
	committed, err := e.commit(context.WithoutCancel(ctx), eventID, repository.ChangeSet{
		ExpectedVersion: st.Event.Version,
		UpsertTables:    []model.Table{{Label: label, Capacity: capacity}},
	})
	if err != nil {
		return model.Table{}, err
	}
	return *committed.TableByLabel(label), nil
}

// RemoveTable deletes an empty table; removal of an occupied table is
// rejected with OrphanTableReference naming the guests still seated.
func (e *Engine) RemoveTable(ctx context.Context, eventID, tableID uint64) error {
	l := e.eventLock(eventID)
	l.Lock()
	defer l.Unlock()

	st, err := e.store.Load(ctx, eventID)
	if err != nil {
		return err
	}
	if v := validateRemoveTable(st, tableID); v != nil {
		return v
	}
	_, err = e.commit(context.WithoutCancel(ctx), eventID, repository.ChangeSet{
		ExpectedVersion: st.Event.Version,
		DeleteTables:    []uint64{tableID},
	})
	return err
}

func sameAssignment(a, b *uint64) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}

func sameSeat(a, b *int) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}
