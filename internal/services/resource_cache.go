package services

import (
	"context"
	"encoding/json"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/shopkit/shopkit/models"
)

// ResourceCache layers read-through caching of JSON-encoded API resources
// over the shared cache store. Cache failures never surface to callers:
// a broken store degrades every read to a database load and every write
// to a warning.
type ResourceCache struct {
	storage   models.CacheStorage
	logger    models.Logger
	group     singleflight.Group
	listTTL   time.Duration
	detailTTL time.Duration
}

func NewResourceCache(storage models.CacheStorage, logger models.Logger, listTTL, detailTTL time.Duration) *ResourceCache {
	return &ResourceCache{
		storage:   storage,
		logger:    logger,
		listTTL:   listTTL,
		detailTTL: detailTTL,
	}
}

// ListKey builds the cache key for a resource collection, e.g. "products:all".
func ListKey(resource string) string {
	return resource + ":all"
}

// DetailKey builds the cache key for a single resource, e.g. "products:{id}".
func DetailKey(resource string, id string) string {
	return resource + ":" + id
}

func (c *ResourceCache) ListTTL() time.Duration   { return c.listTTL }
func (c *ResourceCache) DetailTTL() time.Duration { return c.detailTTL }

// lookup returns the cached JSON for key, or nil on a miss. Storage errors
// and non-string values are logged and reported as misses.
func (c *ResourceCache) lookup(ctx context.Context, key string) []byte {
	val, err := c.storage.Get(ctx, key)
	if err != nil {
		c.logger.Warn("cache read failed, treating as miss", "key", key, "error", err)
		return nil
	}
	if val == nil {
		return nil
	}

	str, ok := val.(string)
	if !ok || str == "" {
		c.logger.Warn("unexpected cached value type, treating as miss", "key", key)
		return nil
	}
	return []byte(str)
}

// populate stores JSON under key. Failures are non-fatal.
func (c *ResourceCache) populate(ctx context.Context, key string, data []byte, ttl time.Duration) {
	if err := c.storage.Set(ctx, key, string(data), &ttl); err != nil {
		c.logger.Warn("cache populate failed", "key", key, "error", err)
	}
}

// Invalidate deletes the given keys, awaiting each delete so a subsequent
// read cannot observe the stale entry. Individual failures are logged and
// the remaining keys still invalidated; the caller's write has already
// succeeded and must not be rolled back over a cache error.
func (c *ResourceCache) Invalidate(ctx context.Context, keys ...string) {
	for _, key := range keys {
		if err := c.storage.Delete(ctx, key); err != nil {
			c.logger.Warn("cache invalidation failed", "key", key, "error", err)
		}
	}
}

// CachedJSON is the read-through path: return the cached value for key if
// present, otherwise collapse concurrent misses into one load call,
// populate the cache, and return the loaded value.
func CachedJSON[T any](ctx context.Context, c *ResourceCache, key string, ttl time.Duration, load func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	if data := c.lookup(ctx, key); data != nil {
		var out T
		if err := json.Unmarshal(data, &out); err == nil {
			return out, nil
		}
		c.logger.Warn("corrupt cache entry, treating as miss", "key", key)
	}

	val, err, _ := c.group.Do(key, func() (any, error) {
		loaded, err := load(ctx)
		if err != nil {
			return zero, err
		}

		data, err := json.Marshal(loaded)
		if err != nil {
			c.logger.Warn("cache encode failed, skipping populate", "key", key, "error", err)
			return loaded, nil
		}

		c.populate(ctx, key, data, ttl)
		return loaded, nil
	})
	if err != nil {
		return zero, err
	}

	return val.(T), nil
}
