package ratelimit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopkit/shopkit/internal/cache"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeClock lets tests step through window boundaries deterministically.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestLimiter(t *testing.T, clock *fakeClock) *Limiter {
	t.Helper()
	store := cache.NewMemoryStore(cache.MemoryStoreOptions{Prefix: "shopkit-test"})
	t.Cleanup(func() { _ = store.Close() })
	return NewLimiter(store, testLogger(), LimiterOptions{Now: clock.Now})
}

func TestLimiterAllowsWithinLimit(t *testing.T) {
	clock := &fakeClock{now: time.UnixMilli(1_000_000)}
	limiter := newTestLimiter(t, clock)
	policy := Policy{Window: time.Minute, Max: 3}
	ctx := context.Background()

	d, err := limiter.Check(ctx, "user:alice", policy)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 3, d.Limit)
	assert.Equal(t, 2, d.Remaining)

	d, err = limiter.Check(ctx, "user:alice", policy)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 1, d.Remaining)

	d, err = limiter.Check(ctx, "user:alice", policy)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)
}

func TestLimiterDeniesBeyondLimit(t *testing.T) {
	clock := &fakeClock{now: time.UnixMilli(1_000_000)}
	limiter := newTestLimiter(t, clock)
	policy := Policy{Window: time.Minute, Max: 2}
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		d, err := limiter.Check(ctx, "user:bob", policy)
		require.NoError(t, err)
		require.True(t, d.Allowed)
	}

	d, err := limiter.Check(ctx, "user:bob", policy)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 2, d.Limit)
	assert.Equal(t, 0, d.Remaining)
	assert.Positive(t, d.RetryAfter)
}

func TestLimiterDenialDoesNotConsumeSlot(t *testing.T) {
	clock := &fakeClock{now: time.UnixMilli(1_000_000)}
	store := cache.NewMemoryStore(cache.MemoryStoreOptions{Prefix: "shopkit-test"})
	t.Cleanup(func() { _ = store.Close() })
	limiter := NewLimiter(store, testLogger(), LimiterOptions{Now: clock.Now})
	policy := Policy{Window: time.Minute, Max: 1}
	ctx := context.Background()

	d, err := limiter.Check(ctx, "user:carol", policy)
	require.NoError(t, err)
	require.True(t, d.Allowed)

	// Repeated denials must not grow the counter past the limit.
	for i := 0; i < 5; i++ {
		d, err = limiter.Check(ctx, "user:carol", policy)
		require.NoError(t, err)
		assert.False(t, d.Allowed)
	}

	windowIndex := clock.Now().UnixMilli() / policy.Window.Milliseconds()
	key := "rate_limit:user:carol:" + strconv.FormatInt(windowIndex, 10)
	val, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "1", val)
}

func TestLimiterWindowRollover(t *testing.T) {
	clock := &fakeClock{now: time.UnixMilli(1_000_000)}
	limiter := newTestLimiter(t, clock)
	policy := Policy{Window: time.Minute, Max: 1}
	ctx := context.Background()

	d, err := limiter.Check(ctx, "user:dave", policy)
	require.NoError(t, err)
	require.True(t, d.Allowed)

	d, err = limiter.Check(ctx, "user:dave", policy)
	require.NoError(t, err)
	require.False(t, d.Allowed)

	// Step into the next window; the counter starts fresh.
	clock.Advance(time.Minute)

	d, err = limiter.Check(ctx, "user:dave", policy)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)
}

func TestLimiterResetAlignsToWindowBoundary(t *testing.T) {
	// 90s into the epoch with a 60s window: current window ends at 120s.
	clock := &fakeClock{now: time.UnixMilli(90_000)}
	limiter := newTestLimiter(t, clock)
	policy := Policy{Window: time.Minute, Max: 5}

	d, err := limiter.Check(context.Background(), "user:erin", policy)
	require.NoError(t, err)
	assert.Equal(t, time.UnixMilli(120_000), d.Reset)
}

func TestLimiterRetryAfterRoundsUp(t *testing.T) {
	// 500ms before the window boundary: retryAfter must round up to 1s.
	clock := &fakeClock{now: time.UnixMilli(119_500)}
	limiter := newTestLimiter(t, clock)
	policy := Policy{Window: time.Minute, Max: 1}
	ctx := context.Background()

	d, err := limiter.Check(ctx, "user:frank", policy)
	require.NoError(t, err)
	require.True(t, d.Allowed)

	d, err = limiter.Check(ctx, "user:frank", policy)
	require.NoError(t, err)
	require.False(t, d.Allowed)
	assert.Equal(t, 1, d.RetryAfter)
}

func TestLimiterIdentitiesAreIndependent(t *testing.T) {
	clock := &fakeClock{now: time.UnixMilli(1_000_000)}
	limiter := newTestLimiter(t, clock)
	policy := Policy{Window: time.Minute, Max: 1}
	ctx := context.Background()

	d, err := limiter.Check(ctx, "ip:10.0.0.1", policy)
	require.NoError(t, err)
	require.True(t, d.Allowed)

	d, err = limiter.Check(ctx, "ip:10.0.0.1", policy)
	require.NoError(t, err)
	require.False(t, d.Allowed)

	d, err = limiter.Check(ctx, "ip:10.0.0.2", policy)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

// brokenStorage fails every operation, standing in for an unreachable
// Redis instance.
type brokenStorage struct{}

var errStorageDown = errors.New("storage down")

func (brokenStorage) Get(ctx context.Context, key string) (any, error) { return nil, errStorageDown }
func (brokenStorage) Set(ctx context.Context, key string, value any, ttl *time.Duration) error {
	return errStorageDown
}
func (brokenStorage) Delete(ctx context.Context, key string) error { return errStorageDown }
func (brokenStorage) Incr(ctx context.Context, key string, ttl *time.Duration) (int, error) {
	return 0, errStorageDown
}
func (brokenStorage) TTL(ctx context.Context, key string) (*time.Duration, error) {
	return nil, errStorageDown
}
func (brokenStorage) Reset(ctx context.Context) error { return errStorageDown }
func (brokenStorage) Close() error                    { return nil }

func TestLimiterSurfacesStorageErrors(t *testing.T) {
	limiter := NewLimiter(brokenStorage{}, testLogger(), LimiterOptions{})
	policy := Policy{Window: time.Minute, Max: 5}

	_, err := limiter.Check(context.Background(), "user:gail", policy)
	require.Error(t, err)
	assert.ErrorIs(t, err, errStorageDown)
}

func TestLimiterBypassSkipsStorage(t *testing.T) {
	// A broken store proves bypass never touches storage at all.
	limiter := NewLimiter(brokenStorage{}, testLogger(), LimiterOptions{Bypass: true})
	policy := Policy{Window: time.Minute, Max: 1}
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		d, err := limiter.Check(ctx, "user:henry", policy)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.True(t, d.Bypassed)
	}
}

func TestLimiterUnparseableCounterTreatedAsZero(t *testing.T) {
	clock := &fakeClock{now: time.UnixMilli(1_000_000)}
	store := cache.NewMemoryStore(cache.MemoryStoreOptions{Prefix: "shopkit-test"})
	t.Cleanup(func() { _ = store.Close() })
	limiter := NewLimiter(store, testLogger(), LimiterOptions{Now: clock.Now})
	policy := Policy{Window: time.Minute, Max: 1}
	ctx := context.Background()

	windowIndex := clock.Now().UnixMilli() / policy.Window.Milliseconds()
	key := "rate_limit:user:ivy:" + strconv.FormatInt(windowIndex, 10)
	require.NoError(t, store.Set(ctx, key, "garbage", nil))

	// Counter read falls back to zero but the increment then fails on the
	// non-numeric value, which the caller treats as fail-open.
	_, err := limiter.Check(ctx, "user:ivy", policy)
	require.Error(t, err)
}
