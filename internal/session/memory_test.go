package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	store := NewMemoryStore(nil)
	ctx := context.Background()

	s := New("")
	require.NotEmpty(t, s.ID)
	require.NoError(t, store.Create(ctx, s))

	// Duplicate create rejected.
	assert.Error(t, store.Create(ctx, s))

	got, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)
	require.NotNil(t, got.Booking)

	// Mutating the returned copy must not leak into the store.
	got.Booking.CustomerName = "Jane Doe"
	again, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Empty(t, again.Booking.CustomerName)

	got.Record("user", "hi")
	require.NoError(t, store.Update(ctx, got))
	again, err = store.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", again.Booking.CustomerName)
	require.Len(t, again.Messages, 1)
	assert.Equal(t, "hi", again.Messages[0].Content)

	require.NoError(t, store.Delete(ctx, s.ID))
	_, err = store.Get(ctx, s.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	// Deleting again is fine.
	assert.NoError(t, store.Delete(ctx, s.ID))
}

func TestMemoryStoreUpdateUnknown(t *testing.T) {
	store := NewMemoryStore(nil)
	err := store.Update(context.Background(), New("ghost"))
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemoryStoreSweep(t *testing.T) {
	store := NewMemoryStore(nil)
	ctx := context.Background()

	stale := New("stale")
	stale.LastActivity = time.Now().UTC().Add(-25 * time.Hour)
	require.NoError(t, store.Create(ctx, stale))

	fresh := New("fresh")
	require.NoError(t, store.Create(ctx, fresh))

	removed, err := store.Sweep(ctx, DefaultIdleTimeout)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = store.Get(ctx, "stale")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = store.Get(ctx, "fresh")
	assert.NoError(t, err)
}

func TestMemoryStoreStats(t *testing.T) {
	store := NewMemoryStore(nil)
	ctx := context.Background()

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.ActiveSessions)
	assert.True(t, stats.OldestActivity.IsZero())

	old := New("old")
	old.LastActivity = time.Now().UTC().Add(-2 * time.Hour)
	require.NoError(t, store.Create(ctx, old))
	require.NoError(t, store.Create(ctx, New("new")))

	stats, err = store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.ActiveSessions)
	assert.WithinDuration(t, old.LastActivity, stats.OldestActivity, time.Second)
}

func TestMemoryStoreConcurrentAccess(t *testing.T) {
	store := NewMemoryStore(nil)
	ctx := context.Background()
	s := New("shared")
	require.NoError(t, store.Create(ctx, s))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := store.Get(ctx, "shared")
			if err != nil {
				return
			}
			got.Record("user", "ping")
			_ = store.Update(ctx, got)
		}()
	}
	wg.Wait()

	got, err := store.Get(ctx, "shared")
	require.NoError(t, err)
	assert.NotEmpty(t, got.Messages)
}
