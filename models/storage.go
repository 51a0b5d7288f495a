package models

import (
	"context"
	"time"
)

type CacheProviderType string

const (
	CacheProviderMemory   CacheProviderType = "memory"
	CacheProviderDatabase CacheProviderType = "database"
	CacheProviderRedis    CacheProviderType = "redis"
)

func (p CacheProviderType) String() string {
	return string(p)
}

// CacheStorage defines an interface for the shared key-value cache store.
// It is the only stateful shared resource consumed by the rate limiter and
// the read-through cache layer. Implementations must treat the backing
// store as a remote service: no local locking guarantees beyond a single
// operation, best-effort consistency only.
type CacheStorage interface {
	// Get retrieves the value associated with the given key.
	// A missing key is not an error: implementations return (nil, nil).
	Get(ctx context.Context, key string) (any, error)
	// Set stores a value with an optional time-to-live (TTL).
	// A nil ttl falls back to the provider's default TTL.
	Set(ctx context.Context, key string, value any, ttl *time.Duration) error
	// Delete removes the value associated with the given key.
	// Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	// Incr increments an integer value associated with the given key,
	// treating an absent key as 0, and returns the new value.
	Incr(ctx context.Context, key string, ttl *time.Duration) (int, error)
	// TTL retrieves the remaining time-to-live for the given key.
	// Returns nil if the key does not exist or has no expiration.
	TTL(ctx context.Context, key string) (*time.Duration, error)
	// Reset clears all entries under the adapter's namespace.
	// Test/ops tooling only, never on the request path.
	Reset(ctx context.Context) error
	// Close closes the storage and releases any resources.
	Close() error
}
