package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopkit/shopkit/internal/util"
)

// fakeStorage is an in-memory CacheStorage with call counters, enough to
// observe read-through behavior without a real backend.
type fakeStorage struct {
	mu      sync.Mutex
	data    map[string]any
	gets    int
	sets    int
	deletes int

	failGet    bool
	failSet    bool
	failDelete bool
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{data: make(map[string]any)}
}

func (f *fakeStorage) Get(ctx context.Context, key string) (any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if f.failGet {
		return nil, errors.New("storage unavailable")
	}
	val, ok := f.data[key]
	if !ok {
		return nil, nil
	}
	return val, nil
}

func (f *fakeStorage) Set(ctx context.Context, key string, value any, ttl *time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets++
	if f.failSet {
		return errors.New("storage unavailable")
	}
	f.data[key] = value
	return nil
}

func (f *fakeStorage) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes++
	if f.failDelete {
		return errors.New("storage unavailable")
	}
	delete(f.data, key)
	return nil
}

func (f *fakeStorage) Incr(ctx context.Context, key string, ttl *time.Duration) (int, error) {
	return 0, errors.New("not implemented")
}

func (f *fakeStorage) TTL(ctx context.Context, key string) (*time.Duration, error) {
	return nil, nil
}

func (f *fakeStorage) Reset(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data = make(map[string]any)
	return nil
}

func (f *fakeStorage) Close() error { return nil }

func (f *fakeStorage) value(key string) (any, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	val, ok := f.data[key]
	return val, ok
}

type testRecord struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func newTestCache(storage *fakeStorage) *ResourceCache {
	return NewResourceCache(storage, util.NewMockLogger(), time.Minute, 5*time.Minute)
}

func TestCachedJSONMissLoadsAndPopulates(t *testing.T) {
	storage := newFakeStorage()
	cache := newTestCache(storage)

	loads := 0
	record, err := CachedJSON(context.Background(), cache, "widgets:w1", time.Minute, func(ctx context.Context) (testRecord, error) {
		loads++
		return testRecord{ID: "w1", Name: "widget"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "widget", record.Name)
	assert.Equal(t, 1, loads)

	cached, ok := storage.value("widgets:w1")
	require.True(t, ok, "loader result should be cached")
	assert.JSONEq(t, `{"id":"w1","name":"widget"}`, cached.(string))
}

func TestCachedJSONHitSkipsLoader(t *testing.T) {
	storage := newFakeStorage()
	storage.data["widgets:w1"] = `{"id":"w1","name":"cached"}`
	cache := newTestCache(storage)

	record, err := CachedJSON(context.Background(), cache, "widgets:w1", time.Minute, func(ctx context.Context) (testRecord, error) {
		t.Fatal("loader must not run on a cache hit")
		return testRecord{}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "cached", record.Name)
}

func TestCachedJSONStorageErrorDegradesToMiss(t *testing.T) {
	storage := newFakeStorage()
	storage.failGet = true
	storage.failSet = true
	cache := newTestCache(storage)

	record, err := CachedJSON(context.Background(), cache, "widgets:w1", time.Minute, func(ctx context.Context) (testRecord, error) {
		return testRecord{ID: "w1", Name: "from-db"}, nil
	})
	require.NoError(t, err, "a broken cache must not fail the read")
	assert.Equal(t, "from-db", record.Name)
}

func TestCachedJSONCorruptEntryTreatedAsMiss(t *testing.T) {
	storage := newFakeStorage()
	storage.data["widgets:w1"] = `{not json`
	cache := newTestCache(storage)

	loads := 0
	record, err := CachedJSON(context.Background(), cache, "widgets:w1", time.Minute, func(ctx context.Context) (testRecord, error) {
		loads++
		return testRecord{ID: "w1", Name: "reloaded"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "reloaded", record.Name)
	assert.Equal(t, 1, loads)
}

func TestCachedJSONLoaderErrorPropagates(t *testing.T) {
	storage := newFakeStorage()
	cache := newTestCache(storage)

	wantErr := errors.New("database down")
	_, err := CachedJSON(context.Background(), cache, "widgets:w1", time.Minute, func(ctx context.Context) (testRecord, error) {
		return testRecord{}, wantErr
	})
	assert.ErrorIs(t, err, wantErr)

	_, ok := storage.value("widgets:w1")
	assert.False(t, ok, "failed loads must not be cached")
}

func TestCachedJSONCollapsesConcurrentMisses(t *testing.T) {
	storage := newFakeStorage()
	cache := newTestCache(storage)

	var loads int
	var loadMu sync.Mutex
	release := make(chan struct{})

	const workers = 8
	var wg sync.WaitGroup
	results := make([]testRecord, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			record, err := CachedJSON(context.Background(), cache, "widgets:w1", time.Minute, func(ctx context.Context) (testRecord, error) {
				loadMu.Lock()
				loads++
				loadMu.Unlock()
				<-release
				return testRecord{ID: "w1", Name: "shared"}, nil
			})
			assert.NoError(t, err)
			results[i] = record
		}(i)
	}

	// Give the goroutines time to pile onto the singleflight key.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	loadMu.Lock()
	defer loadMu.Unlock()
	assert.LessOrEqual(t, loads, 2, "concurrent misses should collapse into few loads")
	for _, record := range results {
		assert.Equal(t, "shared", record.Name)
	}
}

func TestInvalidateDeletesAllKeys(t *testing.T) {
	storage := newFakeStorage()
	storage.data["widgets:w1"] = `{}`
	storage.data["widgets:all"] = `[]`
	cache := newTestCache(storage)

	cache.Invalidate(context.Background(), "widgets:w1", "widgets:all")

	_, ok := storage.value("widgets:w1")
	assert.False(t, ok)
	_, ok = storage.value("widgets:all")
	assert.False(t, ok)
}

func TestInvalidateSurvivesStorageErrors(t *testing.T) {
	storage := newFakeStorage()
	storage.failDelete = true
	cache := newTestCache(storage)

	assert.NotPanics(t, func() {
		cache.Invalidate(context.Background(), "widgets:w1", "widgets:all")
	})
	assert.Equal(t, 2, storage.deletes, "every key is still attempted")
}

func TestKeyHelpers(t *testing.T) {
	assert.Equal(t, "products:all", ListKey("products"))
	assert.Equal(t, "products:p1", DetailKey("products", "p1"))
}
