package cache

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

// memoryEntry represents a single entry with expiration support.
type memoryEntry struct {
	value     string
	expiresAt *time.Time
}

// MemoryStoreOptions configures an in-memory cache store instance
type MemoryStoreOptions struct {
	Prefix     string
	DefaultTTL time.Duration
	// CleanupInterval controls how often expired entries are removed.
	CleanupInterval time.Duration
}

// MemoryStore is an in-memory implementation of models.CacheStorage.
// Intended for development and tests; a single process only.
type MemoryStore struct {
	mu         sync.RWMutex
	store      map[string]*memoryEntry
	prefix     string
	defaultTTL time.Duration
	// cleanupInterval controls how often expired entries are cleaned up.
	cleanupInterval time.Duration
	// stopCleanup is used to signal the cleanup goroutine to stop.
	stopCleanup chan struct{}
	// done signals that the cleanup goroutine has stopped.
	done chan struct{}
	// closeOnce ensures Close() is idempotent.
	closeOnce sync.Once
}

func NewMemoryStore(opts MemoryStoreOptions) *MemoryStore {
	cleanupInterval := time.Minute
	if opts.CleanupInterval != 0 {
		cleanupInterval = opts.CleanupInterval
	}

	storage := &MemoryStore{
		store:           make(map[string]*memoryEntry),
		prefix:          opts.Prefix,
		defaultTTL:      opts.DefaultTTL,
		cleanupInterval: cleanupInterval,
		stopCleanup:     make(chan struct{}),
		done:            make(chan struct{}),
	}

	go storage.cleanupExpiredEntries()

	return storage
}

func (storage *MemoryStore) namespaced(key string) string {
	if storage.prefix == "" {
		return key
	}
	return storage.prefix + ":" + key
}

// Get retrieves a value by key. Returns (nil, nil) if the key does not
// exist or has expired.
func (storage *MemoryStore) Get(ctx context.Context, key string) (any, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("context canceled: %w", ctx.Err())
	default:
	}

	storage.mu.RLock()
	defer storage.mu.RUnlock()

	entry, exists := storage.store[storage.namespaced(key)]
	if !exists {
		return nil, nil
	}

	if entry.expiresAt != nil && time.Now().After(*entry.expiresAt) {
		return nil, nil
	}

	return entry.value, nil
}

// Set stores a value with an optional TTL. The value must be a string.
// A nil ttl falls back to the store's default TTL; a zero default means
// no expiry.
func (storage *MemoryStore) Set(ctx context.Context, key string, value any, ttl *time.Duration) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("context canceled: %w", ctx.Err())
	default:
	}

	valueStr, ok := value.(string)
	if !ok {
		return fmt.Errorf("%w, got %T", ErrInvalidValueType, value)
	}

	effective := storage.defaultTTL
	if ttl != nil {
		effective = *ttl
	}

	entry := &memoryEntry{value: valueStr}
	if effective > 0 {
		expiresAt := time.Now().Add(effective)
		entry.expiresAt = &expiresAt
	}

	storage.mu.Lock()
	defer storage.mu.Unlock()

	storage.store[storage.namespaced(key)] = entry

	return nil
}

// Delete removes a key. Deleting an absent key is not an error.
func (storage *MemoryStore) Delete(ctx context.Context, key string) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("context canceled: %w", ctx.Err())
	default:
	}

	storage.mu.Lock()
	defer storage.mu.Unlock()

	delete(storage.store, storage.namespaced(key))

	return nil
}

// Incr increments the integer value stored at key by 1, treating an absent
// or expired key as 0. If a TTL is provided it is only applied on key
// creation, matching Redis INCR semantics.
func (storage *MemoryStore) Incr(ctx context.Context, key string, ttl *time.Duration) (int, error) {
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("context canceled: %w", ctx.Err())
	default:
	}

	storage.mu.Lock()
	defer storage.mu.Unlock()

	nsKey := storage.namespaced(key)
	now := time.Now()

	entry, exists := storage.store[nsKey]
	if exists && entry.expiresAt != nil && now.After(*entry.expiresAt) {
		delete(storage.store, nsKey)
		exists = false
	}

	count := 0
	if exists {
		num, err := strconv.Atoi(entry.value)
		if err != nil {
			return 0, fmt.Errorf("value at key %s is not a valid integer: %w", key, err)
		}
		count = num
	}

	count++

	if exists {
		entry.value = strconv.Itoa(count)
		return count, nil
	}

	newEntry := &memoryEntry{value: strconv.Itoa(count)}
	if ttl != nil {
		expiresAt := now.Add(*ttl)
		newEntry.expiresAt = &expiresAt
	}
	storage.store[nsKey] = newEntry

	return count, nil
}

// TTL returns the remaining time to live for a key.
// Returns nil if the key does not exist or has no expiration.
func (storage *MemoryStore) TTL(ctx context.Context, key string) (*time.Duration, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("context canceled: %w", ctx.Err())
	default:
	}

	storage.mu.RLock()
	defer storage.mu.RUnlock()

	entry, exists := storage.store[storage.namespaced(key)]
	if !exists || entry.expiresAt == nil {
		return nil, nil
	}

	now := time.Now()
	if now.After(*entry.expiresAt) {
		return nil, nil
	}

	ttl := entry.expiresAt.Sub(now)
	return &ttl, nil
}

// Reset removes every key under the store's namespace.
func (storage *MemoryStore) Reset(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("context canceled: %w", ctx.Err())
	default:
	}

	storage.mu.Lock()
	defer storage.mu.Unlock()

	if storage.prefix == "" {
		storage.store = make(map[string]*memoryEntry)
		return nil
	}

	for key := range storage.store {
		if strings.HasPrefix(key, storage.prefix+":") {
			delete(storage.store, key)
		}
	}
	return nil
}

// cleanupExpiredEntries runs periodically to remove expired entries.
func (storage *MemoryStore) cleanupExpiredEntries() {
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

func (storage *MemoryStore) removeExpiredEntries() {
	now := time.Now()

	storage.mu.Lock()
	defer storage.mu.Unlock()

	for key, entry := range storage.store {
		if entry.expiresAt != nil && now.After(*entry.expiresAt) {
			delete(storage.store, key)
		}
	}
}

// Close stops the cleanup goroutine. Idempotent.
func (storage *MemoryStore) Close() error {
	storage.closeOnce.Do(func() {
		close(storage.stopCleanup)
		<-storage.done
	})
	return nil
}
