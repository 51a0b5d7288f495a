package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/uptrace/bun"
)

// DatabaseStoreOptions configures a database cache store instance
type DatabaseStoreOptions struct {
	Prefix     string
	DefaultTTL time.Duration
	// CleanupInterval controls how often expired entries are cleaned up.
	CleanupInterval time.Duration
}

// DatabaseStore implements models.CacheStorage on top of the relational
// store via Bun. Slower than Redis but lets single-node deployments run
// the limiter and response cache without extra infrastructure.
type DatabaseStore struct {
	db         bun.IDB
	prefix     string
	defaultTTL time.Duration
	// cleanupInterval controls how often expired entries are cleaned up.
	cleanupInterval time.Duration
	// stopCleanup is used to signal the cleanup goroutine to stop.
	stopCleanup chan struct{}
	// done signals that the cleanup goroutine has stopped.
	done chan struct{}
	// cleanupStarted tracks whether the cleanup goroutine has been started.
	cleanupStarted bool
	// closeOnce ensures Close() is idempotent.
	closeOnce sync.Once
}

func NewDatabaseStore(db bun.IDB, opts DatabaseStoreOptions) *DatabaseStore {
	cleanupInterval := time.Minute
	if opts.CleanupInterval != 0 {
		cleanupInterval = opts.CleanupInterval
	}

	return &DatabaseStore{
		db:              db,
		prefix:          opts.Prefix,
		defaultTTL:      opts.DefaultTTL,
		cleanupInterval: cleanupInterval,
		stopCleanup:     make(chan struct{}),
		done:            make(chan struct{}),
	}
}

// StartCleanup starts the background cleanup goroutine that removes expired
// entries. Call after database migrations have completed. Safe to call
// multiple times.
func (storage *DatabaseStore) StartCleanup() {
	if storage.cleanupStarted {
		return
	}
	storage.cleanupStarted = true
	go storage.cleanupExpiredEntries()
}

func (storage *DatabaseStore) namespaced(key string) string {
	if storage.prefix == "" {
		return key
	}
	return storage.prefix + ":" + key
}

// Get retrieves a value by key. Returns (nil, nil) if the key does not
// exist or has expired. Expired entries are deleted immediately to prevent
// table bloat.
func (storage *DatabaseStore) Get(ctx context.Context, key string) (any, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("context canceled: %w", ctx.Err())
	default:
	}

	nsKey := storage.namespaced(key)

	var entry KeyValueStore
	err := storage.db.NewSelect().Model(&entry).Where("key = ?", nsKey).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("context error: %w", err)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if entry.ExpiresAt != nil && time.Now().After(*entry.ExpiresAt) {
		if _, err := storage.db.NewDelete().Model(&KeyValueStore{}).Where("key = ?", nsKey).Exec(ctx); err != nil {
			slog.Error("error deleting expired cache entry", slog.String("key", key), slog.Any("error", err))
		}
		return nil, nil
	}

	return entry.Value, nil
}

// Set stores a value with an optional TTL. The value must be a string.
// A nil ttl falls back to the store's default TTL; a zero default means
// no expiry.
func (storage *DatabaseStore) Set(ctx context.Context, key string, value any, ttl *time.Duration) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("context canceled: %w", ctx.Err())
	default:
	}

	valueStr, ok := value.(string)
	if !ok {
		return fmt.Errorf("%w, got %T", ErrInvalidValueType, value)
	}

	entry := KeyValueStore{
		Key:   storage.namespaced(key),
		Value: valueStr,
	}

	effective := storage.defaultTTL
	if ttl != nil {
		effective = *ttl
	}
	if effective > 0 {
		expiresAt := time.Now().Add(effective)
		entry.ExpiresAt = &expiresAt
	}

	_, err := storage.db.NewInsert().Model(&entry).On("CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at").Exec(ctx)
	if err != nil {
		return fmt.Errorf("database error: %w", err)
	}

	return nil
}

// Delete removes a key. Idempotent: deleting a non-existent key is fine.
func (storage *DatabaseStore) Delete(ctx context.Context, key string) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("context canceled: %w", ctx.Err())
	default:
	}

	_, err := storage.db.NewDelete().Model(&KeyValueStore{}).Where("key = ?", storage.namespaced(key)).Exec(ctx)
	if err != nil {
		return fmt.Errorf("database error: %w", err)
	}

	return nil
}

// Incr increments the integer value stored at key by 1, treating an absent
// or expired key as 0, and stores the result with the given TTL.
// Not atomic across concurrent callers: two readers may observe the same
// pre-increment value. Callers must tolerate the bounded overshoot.
func (storage *DatabaseStore) Incr(ctx context.Context, key string, ttl *time.Duration) (int, error) {
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("context canceled: %w", ctx.Err())
	default:
	}

	nsKey := storage.namespaced(key)

	var count int

	var entry KeyValueStore
	err := storage.db.NewSelect().Model(&entry).Where("key = ?", nsKey).Scan(ctx)
	switch {
	case err != nil && errors.Is(err, sql.ErrNoRows):
		// Absent key counts as 0
	case err != nil:
		return 0, fmt.Errorf("database error: %w", err)
	case entry.ExpiresAt != nil && time.Now().After(*entry.ExpiresAt):
		if _, err := storage.db.NewDelete().Model(&KeyValueStore{}).Where("key = ?", nsKey).Exec(ctx); err != nil {
			slog.Error("error deleting expired cache entry during incr", slog.String("key", key), slog.Any("error", err))
		}
	default:
		num, err := strconv.Atoi(entry.Value)
		if err != nil {
			return 0, fmt.Errorf("value at key %s is not a valid integer: %w", key, err)
		}
		count = num
	}

	count++

	newEntry := KeyValueStore{
		Key:   nsKey,
		Value: strconv.Itoa(count),
	}
	if ttl != nil {
		expiresAt := time.Now().Add(*ttl)
		newEntry.ExpiresAt = &expiresAt
	} else if entry.ExpiresAt != nil {
		newEntry.ExpiresAt = entry.ExpiresAt
	}

	_, err = storage.db.NewInsert().Model(&newEntry).On("CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at").Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("database error: %w", err)
	}

	return count, nil
}

// TTL returns the remaining time to live for a key.
// Returns nil if the key does not exist or has no expiration.
func (storage *DatabaseStore) TTL(ctx context.Context, key string) (*time.Duration, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("context canceled: %w", ctx.Err())
	default:
	}

	var entry KeyValueStore
	err := storage.db.NewSelect().Model(&entry).Where("key = ?", storage.namespaced(key)).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if entry.ExpiresAt == nil {
		return nil, nil
	}

	now := time.Now()
	if now.After(*entry.ExpiresAt) {
		return nil, nil
	}

	ttl := entry.ExpiresAt.Sub(now)
	return &ttl, nil
}

// Reset removes every key under the store's namespace.
func (storage *DatabaseStore) Reset(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("context canceled: %w", ctx.Err())
	default:
	}

	q := storage.db.NewDelete().Model(&KeyValueStore{})
	if storage.prefix != "" {
		q = q.Where("key LIKE ?", storage.prefix+":%")
	} else {
		q = q.Where("1 = 1")
	}

	if _, err := q.Exec(ctx); err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	return nil
}

// cleanupExpiredEntries runs periodically to remove expired entries from
// the database. This prevents table bloat from entries with TTL that are
// never accessed again.
func (storage *DatabaseStore) cleanupExpiredEntries() {
	ticker := time.NewTicker(storage.cleanupInterval)
	defer ticker.Stop()
	defer close(storage.done)

	for {
		select {
		case <-storage.stopCleanup:
			return
		case <-ticker.C:
			storage.removeExpiredEntries()
		}
	}
}

func (storage *DatabaseStore) removeExpiredEntries() {
	now := time.Now()
	ctx := context.Background()

	_, err := storage.db.NewDelete().Model(&KeyValueStore{}).
		Where("expires_at IS NOT NULL AND expires_at < ?", now).
		Exec(ctx)

	if err != nil {
		slog.Error("error cleaning up expired entries from key_value_store", slog.Any("error", err))
	}
}

// Close gracefully shuts down the storage by stopping the cleanup
// goroutine. Idempotent.
func (storage *DatabaseStore) Close() error {
	storage.closeOnce.Do(func() {
		if storage.cleanupStarted {
			close(storage.stopCleanup)
			<-storage.done
		}
	})
	return nil
}
