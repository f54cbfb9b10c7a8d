package engine

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kamyarm/wedding-seating/internal/broadcast"
	"github.com/kamyarm/wedding-seating/internal/repository"
)

// flakyStore fails the first n Apply calls with a transient error and
// delegates everything else to the wrapped store.
type flakyStore struct {
	repository.Store

	mu       sync.Mutex
	failures int
	attempts int
}

func (f *flakyStore) Apply(ctx context.Context, eventID uint64, cs repository.ChangeSet) (*repository.EventState, error) {
	f.mu.Lock()
	f.attempts++
	fail := f.failures > 0
	if fail {
		f.failures--
	}
	f.mu.Unlock()
	if fail {
		return nil, errors.New("connection reset by peer")
	}
	return f.Store.Apply(ctx, eventID, cs)
}

func (f *flakyStore) applyCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attempts
}

func newFlakyEngine(t *testing.T, failures int) (*Engine, *flakyStore, uint64) {
	t.Helper()
	fs := &flakyStore{Store: repository.NewMemoryStore(), failures: failures}
	e := New(fs, broadcast.New(0, 0), nil)
	ev, err := e.CreateEvent(context.Background(), "Mina & Arash")
	require.NoError(t, err)
	return e, fs, ev.ID
}

func TestCommit_RetriesTransientStoreFailures(t *testing.T) {
	e, fs, eventID := newFlakyEngine(t, 2)
	ctx := context.Background()

	g, err := e.AddGuest(ctx, eventID, AddGuestParams{Name: "Sara"})
	require.NoError(t, err)
	assert.NotZero(t, g.ID)
	assert.Equal(t, 3, fs.applyCalls())
}

func TestCommit_EscalatesToStorageUnavailable(t *testing.T) {
	e, fs, eventID := newFlakyEngine(t, 1_000)
	ctx := context.Background()

	_, err := e.AddGuest(ctx, eventID, AddGuestParams{Name: "Sara"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStorageUnavailable)
	var se *StorageError
	assert.ErrorAs(t, err, &se)
	// One initial attempt plus the bounded retries, then give up.
	assert.Equal(t, storeRetries+1, fs.applyCalls())

	// Nothing was partially applied.
	st, lerr := fs.Store.Load(ctx, eventID)
	require.NoError(t, lerr)
	assert.Empty(t, st.Guests)
}

// conflictStore rejects every Apply with a version conflict.
type conflictStore struct {
	repository.Store
	attempts int
}

func (c *conflictStore) Apply(ctx context.Context, eventID uint64, cs repository.ChangeSet) (*repository.EventState, error) {
	c.attempts++
	return nil, repository.ErrVersionConflict
}

func TestCommit_SentinelFailuresAreNotRetried(t *testing.T) {
	cs := &conflictStore{Store: repository.NewMemoryStore()}
	e := New(cs, broadcast.New(0, 0), nil)
	ctx := context.Background()
	ev, err := e.CreateEvent(ctx, "Mina & Arash")
	require.NoError(t, err)

	_, err = e.AddGuest(ctx, ev.ID, AddGuestParams{Name: "Sara"})
	assert.ErrorIs(t, err, repository.ErrVersionConflict)
	assert.Equal(t, 1, cs.attempts)
}
