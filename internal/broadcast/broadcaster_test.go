package broadcast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kamyarm/wedding-seating/internal/model"
)

func TestAppend_SequencesPerEvent(t *testing.T) {
	b := New(0, 0)

	d1 := b.Append(1, model.DeltaGuestAdded, nil)
	d2 := b.Append(1, model.DeltaCheckedIn, nil)
	other := b.Append(2, model.DeltaGuestAdded, nil)

	assert.Equal(t, uint64(1), d1.Sequence)
	assert.Equal(t, uint64(2), d2.Sequence)
	// Events count independently.
	assert.Equal(t, uint64(1), other.Sequence)
	assert.Equal(t, uint64(2), b.CurrentSeq(1))
	assert.Equal(t, uint64(1), b.CurrentSeq(2))
}

func TestSubscriberReceivesInOrder(t *testing.T) {
	b := New(0, 0)
	sub := b.Attach(7)
	defer b.Detach(7, sub.ID)

	for i := 0; i < 5; i++ {
		b.Append(7, model.DeltaSeatingChanged, nil)
	}
	for want := uint64(1); want <= 5; want++ {
		d := <-sub.Deltas()
		assert.Equal(t, want, d.Sequence)
	}
}

func TestResume_ReplaysExactlyTheMissedDeltas(t *testing.T) {
	b := New(0, 0)
	for i := 0; i < 5; i++ {
		b.Append(3, model.DeltaSeatingChanged, nil)
	}

	sub, replay, err := b.Resume(3, 2)
	require.NoError(t, err)
	defer b.Detach(3, sub.ID)

	require.Len(t, replay, 3)
	for i, d := range replay {
		assert.Equal(t, uint64(3+i), d.Sequence)
	}

	// New appends arrive on the channel, continuing the sequence.
	b.Append(3, model.DeltaCheckedIn, nil)
	d := <-sub.Deltas()
	assert.Equal(t, uint64(6), d.Sequence)
}

func TestResume_UpToDateClientGetsEmptyReplay(t *testing.T) {
	b := New(0, 0)
	b.Append(1, model.DeltaGuestAdded, nil)

	sub, replay, err := b.Resume(1, 1)
	require.NoError(t, err)
	defer b.Detach(1, sub.ID)
	assert.Empty(t, replay)
}

func TestResume_EvictedWindowRequiresSnapshot(t *testing.T) {
	b := New(4, 8)
	for i := 0; i < 10; i++ {
		b.Append(1, model.DeltaSeatingChanged, nil)
	}

	// Sequence 1 left the four-delta window long ago.
	_, _, err := b.Resume(1, 1)
	assert.ErrorIs(t, err, ErrSnapshotRequired)

	// The edge of the window still works.
	sub, replay, err := b.Resume(1, 6)
	require.NoError(t, err)
	defer b.Detach(1, sub.ID)
	require.Len(t, replay, 4)
	assert.Equal(t, uint64(7), replay[0].Sequence)
}

func TestResume_CheckpointFromPreviousIncarnation(t *testing.T) {
	b := New(0, 0)
	b.Append(1, model.DeltaGuestAdded, nil)

	// A client claiming a sequence beyond ours held state from an
	// earlier process; it must re-bootstrap from a snapshot.
	_, _, err := b.Resume(1, 99)
	assert.ErrorIs(t, err, ErrSnapshotRequired)
}

func TestAppend_SlowSubscriberDisconnected(t *testing.T) {
	b := New(16, 2)
	slow := b.Attach(1)
	fast := b.Attach(1)

	// Three appends overflow slow's two-slot queue; fast keeps up by
	// reading in between.
	b.Append(1, model.DeltaSeatingChanged, nil)
	b.Append(1, model.DeltaSeatingChanged, nil)
	<-fast.Deltas()
	<-fast.Deltas()
	b.Append(1, model.DeltaSeatingChanged, nil)

	// slow was dropped: its channel closes after the buffered deltas.
	<-slow.Deltas()
	<-slow.Deltas()
	_, ok := <-slow.Deltas()
	assert.False(t, ok)

	// fast is unaffected.
	d := <-fast.Deltas()
	assert.Equal(t, uint64(3), d.Sequence)
	b.Detach(1, fast.ID)
}

func TestDropEvent_ClosesSubscribers(t *testing.T) {
	b := New(0, 0)
	sub := b.Attach(5)
	b.Append(5, model.DeltaGuestAdded, nil)
	b.DropEvent(5)

	<-sub.Deltas() // the buffered delta
	_, ok := <-sub.Deltas()
	assert.False(t, ok)

	// The sequence restarts for a recreated event of the same id.
	d := b.Append(5, model.DeltaGuestAdded, nil)
	assert.Equal(t, uint64(1), d.Sequence)
}

func TestDetach_Idempotent(t *testing.T) {
	b := New(0, 0)
	sub := b.Attach(1)
	b.Detach(1, sub.ID)
	b.Detach(1, sub.ID) // second detach is a no-op
	_, ok := <-sub.Deltas()
	assert.False(t, ok)
}
