package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *MemoryStore {
	t.Helper()
	store := NewMemoryStore(MemoryStoreOptions{
		Prefix:          "shopkit-test",
		CleanupInterval: 50 * time.Millisecond,
	})
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestMemoryStoreSetGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.Set(ctx, "greeting", "hello", nil)
	require.NoError(t, err)

	val, err := store.Get(ctx, "greeting")
	require.NoError(t, err)
	assert.Equal(t, "hello", val)
}

func TestMemoryStoreGetMissingKey(t *testing.T) {
	store := newTestStore(t)

	val, err := store.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, val)
}

func TestMemoryStoreRejectsNonStringValues(t *testing.T) {
	store := newTestStore(t)

	err := store.Set(context.Background(), "bad", 42, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidValueType)
}

func TestMemoryStoreTTLExpiry(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	ttl := 30 * time.Millisecond
	require.NoError(t, store.Set(ctx, "ephemeral", "gone soon", &ttl))

	val, err := store.Get(ctx, "ephemeral")
	require.NoError(t, err)
	assert.Equal(t, "gone soon", val)

	time.Sleep(50 * time.Millisecond)

	val, err = store.Get(ctx, "ephemeral")
	require.NoError(t, err)
	assert.Nil(t, val)
}

func TestMemoryStoreDefaultTTL(t *testing.T) {
	store := NewMemoryStore(MemoryStoreOptions{
		Prefix:     "shopkit-test",
		DefaultTTL: 30 * time.Millisecond,
	})
	t.Cleanup(func() { _ = store.Close() })
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "defaulted", "v", nil))

	time.Sleep(50 * time.Millisecond)

	val, err := store.Get(ctx, "defaulted")
	require.NoError(t, err)
	assert.Nil(t, val)
}

func TestMemoryStoreDeleteIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", "v", nil))
	require.NoError(t, store.Delete(ctx, "k"))
	require.NoError(t, store.Delete(ctx, "k"))

	val, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, val)
}

func TestMemoryStoreIncr(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	ttl := time.Minute

	count, err := store.Incr(ctx, "counter", &ttl)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = store.Incr(ctx, "counter", &ttl)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = store.Incr(ctx, "counter", &ttl)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestMemoryStoreIncrRestartsAfterExpiry(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	ttl := 30 * time.Millisecond

	count, err := store.Incr(ctx, "window", &ttl)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	time.Sleep(50 * time.Millisecond)

	count, err = store.Incr(ctx, "window", &ttl)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMemoryStoreIncrNonNumericValue(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "word", "abc", nil))

	_, err := store.Incr(ctx, "word", nil)
	require.Error(t, err)
}

func TestMemoryStoreTTLReporting(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	ttl := time.Minute
	require.NoError(t, store.Set(ctx, "timed", "v", &ttl))

	remaining, err := store.TTL(ctx, "timed")
	require.NoError(t, err)
	require.NotNil(t, remaining)
	assert.Greater(t, *remaining, 50*time.Second)

	remaining, err = store.TTL(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, remaining)
}

func TestMemoryStoreResetScopedToPrefix(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "a", "1", nil))
	require.NoError(t, store.Set(ctx, "b", "2", nil))

	// A key outside the namespace must survive Reset.
	store.mu.Lock()
	store.store["other-app:c"] = &memoryEntry{value: "3"}
	store.mu.Unlock()

	require.NoError(t, store.Reset(ctx))

	val, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Nil(t, val)

	store.mu.RLock()
	_, survives := store.store["other-app:c"]
	store.mu.RUnlock()
	assert.True(t, survives)
}

func TestMemoryStoreCanceledContext(t *testing.T) {
	store := newTestStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Get(ctx, "k")
	assert.Error(t, err)

	err = store.Set(ctx, "k", "v", nil)
	assert.Error(t, err)
}

func TestMemoryStoreCloseIsIdempotent(t *testing.T) {
	store := NewMemoryStore(MemoryStoreOptions{Prefix: "shopkit-test"})
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())
}
