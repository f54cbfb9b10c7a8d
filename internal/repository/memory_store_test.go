package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kamyarm/wedding-seating/internal/model"
)

func seedEvent(t *testing.T, m *MemoryStore) model.Event {
	t.Helper()
	ev, err := m.CreateEvent(context.Background(), "Test Wedding", "code-123")
	require.NoError(t, err)
	return ev
}

func TestApply_VersionConflict(t *testing.T) {
	m := NewMemoryStore()
	ev := seedEvent(t, m)
	ctx := context.Background()

	_, err := m.Apply(ctx, ev.ID, ChangeSet{
		ExpectedVersion: ev.Version,
		UpsertTables:    []model.Table{{Label: "A", Capacity: 12}},
	})
	require.NoError(t, err)

	// Replaying the same expected version is a conflict now.
	_, err = m.Apply(ctx, ev.ID, ChangeSet{
		ExpectedVersion: ev.Version,
		UpsertTables:    []model.Table{{Label: "B", Capacity: 12}},
	})
	assert.ErrorIs(t, err, ErrVersionConflict)

	st, err := m.Load(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, ev.Version+1, st.Event.Version)
	require.Len(t, st.Tables, 1)
	assert.Equal(t, "A", st.Tables[0].Label)
}

func TestApply_UnresolvedLabelLeavesNothingBehind(t *testing.T) {
	m := NewMemoryStore()
	ev := seedEvent(t, m)
	ctx := context.Background()

	label := "Nowhere"
	_, err := m.Apply(ctx, ev.ID, ChangeSet{
		ExpectedVersion: ev.Version,
		UpsertGuests: []GuestUpsert{
			{Guest: model.Guest{Name: "Ok", LookupToken: "tok-1"}},
			{Guest: model.Guest{Name: "Broken", LookupToken: "tok-2"}, TableLabel: &label},
		},
		ReserveTokens: []string{"tok-1", "tok-2"},
	})
	assert.ErrorIs(t, err, ErrTableNotFound)

	// The failed changeset committed nothing, not even the valid guest.
	st, err := m.Load(ctx, ev.ID)
	require.NoError(t, err)
	assert.Empty(t, st.Guests)
	assert.Equal(t, ev.Version, st.Event.Version)

	seen, err := m.TokenSeen(ctx, "tok-1")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestApply_LabelResolution(t *testing.T) {
	m := NewMemoryStore()
	ev := seedEvent(t, m)
	ctx := context.Background()

	label := "A"
	st, err := m.Apply(ctx, ev.ID, ChangeSet{
		ExpectedVersion: ev.Version,
		UpsertTables:    []model.Table{{Label: "A", Capacity: 12}},
		UpsertGuests: []GuestUpsert{
			{Guest: model.Guest{Name: "Sara", LookupToken: "tok-a"}, TableLabel: &label},
		},
		ReserveTokens: []string{"tok-a"},
	})
	require.NoError(t, err)
	require.Len(t, st.Guests, 1)
	require.NotNil(t, st.Guests[0].TableID)
	assert.Equal(t, st.Tables[0].ID, *st.Guests[0].TableID)
}

func TestApply_ReplaceAll(t *testing.T) {
	m := NewMemoryStore()
	ev := seedEvent(t, m)
	ctx := context.Background()

	st, err := m.Apply(ctx, ev.ID, ChangeSet{
		ExpectedVersion: ev.Version,
		UpsertTables:    []model.Table{{Label: "Old", Capacity: 12}},
		UpsertGuests:    []GuestUpsert{{Guest: model.Guest{Name: "Old Guest", LookupToken: "tok-old"}}},
		ReserveTokens:   []string{"tok-old"},
	})
	require.NoError(t, err)

	st, err = m.Apply(ctx, ev.ID, ChangeSet{
		ExpectedVersion: st.Event.Version,
		ReplaceAll:      true,
		UpsertTables:    []model.Table{{Label: "New", Capacity: 12}},
		UpsertGuests:    []GuestUpsert{{Guest: model.Guest{Name: "New Guest", LookupToken: "tok-new"}}},
		ReserveTokens:   []string{"tok-new"},
	})
	require.NoError(t, err)
	require.Len(t, st.Tables, 1)
	assert.Equal(t, "New", st.Tables[0].Label)
	require.Len(t, st.Guests, 1)
	assert.Equal(t, "New Guest", st.Guests[0].Name)

	// The wiped guest's token stays burned in the ledger.
	seen, err := m.TokenSeen(ctx, "tok-old")
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestDeleteEvent_KeepsTokenLedger(t *testing.T) {
	m := NewMemoryStore()
	ev := seedEvent(t, m)
	ctx := context.Background()

	_, err := m.Apply(ctx, ev.ID, ChangeSet{
		ExpectedVersion: ev.Version,
		UpsertGuests:    []GuestUpsert{{Guest: model.Guest{Name: "Sara", LookupToken: "tok-x"}}},
		ReserveTokens:   []string{"tok-x"},
	})
	require.NoError(t, err)

	require.NoError(t, m.DeleteEvent(ctx, ev.ID))
	_, err = m.GetEvent(ctx, ev.ID)
	assert.ErrorIs(t, err, ErrEventNotFound)
	_, _, err = m.FindGuestByToken(ctx, "tok-x")
	assert.ErrorIs(t, err, ErrTokenNotFound)

	seen, err := m.TokenSeen(ctx, "tok-x")
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestLoad_ReturnsCopies(t *testing.T) {
	m := NewMemoryStore()
	ev := seedEvent(t, m)
	ctx := context.Background()

	_, err := m.Apply(ctx, ev.ID, ChangeSet{
		ExpectedVersion: ev.Version,
		UpsertGuests:    []GuestUpsert{{Guest: model.Guest{Name: "Sara", LookupToken: "tok-c"}}},
		ReserveTokens:   []string{"tok-c"},
	})
	require.NoError(t, err)

	st1, err := m.Load(ctx, ev.ID)
	require.NoError(t, err)
	st1.Guests[0].Name = "Mutated"

	st2, err := m.Load(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sara", st2.Guests[0].Name)
}

func TestGetEventByCode(t *testing.T) {
	m := NewMemoryStore()
	ev := seedEvent(t, m)
	ctx := context.Background()

	got, err := m.GetEventByCode(ctx, "code-123")
	require.NoError(t, err)
	assert.Equal(t, ev.ID, got.ID)

	_, err = m.GetEventByCode(ctx, "nope")
	assert.ErrorIs(t, err, ErrEventNotFound)
}
