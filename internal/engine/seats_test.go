package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seatp(n int) *int { return &n }

func TestAssign_NumberedSeat(t *testing.T) {
	e, bc, ev := newTestEngine(t)
	ctx := context.Background()

	tbl, err := e.AddTable(ctx, ev.ID, "Garden", 12)
	require.NoError(t, err)
	g := addGuest(t, e, ev.ID, "Sara", nil)

	d, err := e.AssignGuestToTable(ctx, ev.ID, g.ID, &tbl.ID, seatp(4))
	require.NoError(t, err)
	require.NotNil(t, d)
	require.NotNil(t, d.Guest.SeatNo)
	assert.Equal(t, 4, *d.Guest.SeatNo)

	// Moving to another seat at the same table is a real change and
	// emits its own delta.
	before := bc.CurrentSeq(ev.ID)
	d, err = e.AssignGuestToTable(ctx, ev.ID, g.ID, &tbl.ID, seatp(5))
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, before+1, bc.CurrentSeq(ev.ID))

	// Repeating the same table and seat is a no-op.
	d, err = e.AssignGuestToTable(ctx, ev.ID, g.ID, &tbl.ID, seatp(5))
	require.NoError(t, err)
	assert.Nil(t, d)
}

func TestAssign_DuplicateSeatRejected(t *testing.T) {
	e, _, ev := newTestEngine(t)
	ctx := context.Background()

	tbl, err := e.AddTable(ctx, ev.ID, "Garden", 12)
	require.NoError(t, err)
	g1 := addGuest(t, e, ev.ID, "Sara", nil)
	g2 := addGuest(t, e, ev.ID, "Dana", nil)

	_, err = e.AssignGuestToTable(ctx, ev.ID, g1.ID, &tbl.ID, seatp(2))
	require.NoError(t, err)

	_, err = e.AssignGuestToTable(ctx, ev.ID, g2.ID, &tbl.ID, seatp(2))
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, ReasonDuplicateSeat, ve.Violations[0].Reason)
	assert.Contains(t, ve.Violations[0].GuestIDs, g1.ID)

	// The same number at a different table is fine.
	other, err := e.AddTable(ctx, ev.ID, "Terrace", 12)
	require.NoError(t, err)
	_, err = e.AssignGuestToTable(ctx, ev.ID, g2.ID, &other.ID, seatp(2))
	require.NoError(t, err)
}

func TestAssign_SeatRequiresTable(t *testing.T) {
	e, _, ev := newTestEngine(t)
	ctx := context.Background()
	g := addGuest(t, e, ev.ID, "Sara", nil)

	_, err := e.AssignGuestToTable(ctx, ev.ID, g.ID, nil, seatp(1))
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, ReasonInvalidSeat, ve.Violations[0].Reason)
}

func TestAssign_SeatBelowOneRejected(t *testing.T) {
	e, _, ev := newTestEngine(t)
	ctx := context.Background()

	tbl, err := e.AddTable(ctx, ev.ID, "Garden", 12)
	require.NoError(t, err)
	g := addGuest(t, e, ev.ID, "Sara", nil)

	_, err = e.AssignGuestToTable(ctx, ev.ID, g.ID, &tbl.ID, seatp(0))
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, ReasonInvalidSeat, ve.Violations[0].Reason)
}

func TestAddGuest_SeatConflictRejected(t *testing.T) {
	e, _, ev := newTestEngine(t)
	ctx := context.Background()

	tbl, err := e.AddTable(ctx, ev.ID, "Garden", 12)
	require.NoError(t, err)
	_, err = e.AddGuest(ctx, ev.ID, AddGuestParams{Name: "Sara", TableID: &tbl.ID, SeatNo: seatp(1)})
	require.NoError(t, err)

	_, err = e.AddGuest(ctx, ev.ID, AddGuestParams{Name: "Dana", TableID: &tbl.ID, SeatNo: seatp(1)})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, ReasonDuplicateSeat, ve.Violations[0].Reason)
}

func TestLookupByToken_MatesOrderedBySeat(t *testing.T) {
	e, _, ev := newTestEngine(t)
	ctx := context.Background()

	tbl, err := e.AddTable(ctx, ev.ID, "Garden", 12)
	require.NoError(t, err)
	me, err := e.AddGuest(ctx, ev.ID, AddGuestParams{Name: "Amir", TableID: &tbl.ID, SeatNo: seatp(1)})
	require.NoError(t, err)
	_, err = e.AddGuest(ctx, ev.ID, AddGuestParams{Name: "Roya", TableID: &tbl.ID, SeatNo: seatp(5)})
	require.NoError(t, err)
	_, err = e.AddGuest(ctx, ev.ID, AddGuestParams{Name: "Nima", TableID: &tbl.ID, SeatNo: seatp(3)})
	require.NoError(t, err)
	// An unnumbered mate sorts after everyone with a seat.
	_, err = e.AddGuest(ctx, ev.ID, AddGuestParams{Name: "Dana", TableID: &tbl.ID})
	require.NoError(t, err)

	view, err := e.LookupByToken(ctx, me.LookupToken)
	require.NoError(t, err)
	require.NotNil(t, view.SeatNo)
	assert.Equal(t, 1, *view.SeatNo)

	names := make([]string, 0, len(view.TableMates))
	for _, m := range view.TableMates {
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{"Nima", "Roya", "Dana"}, names)
}
