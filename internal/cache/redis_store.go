package cache

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shopkit/shopkit/env"
)

// RedisStoreOptions configures a Redis cache store instance
type RedisStoreOptions struct {
	URL         string
	Prefix      string
	DefaultTTL  time.Duration
	MaxRetries  int
	PoolSize    int
	PoolTimeout time.Duration
}

// RedisStore implements models.CacheStorage using Redis as the backend.
// Every key is namespaced under the configured prefix so multiple
// deployments can share one physical store.
type RedisStore struct {
	client     *redis.Client
	prefix     string
	defaultTTL time.Duration
}

// NewRedisStore creates a new Redis-backed cache store instance
func NewRedisStore(opts RedisStoreOptions) (*RedisStore, error) {
	envURL := os.Getenv(env.EnvRedisURL)
	if envURL != "" {
		opts.URL = envURL
	}
	if opts.URL == "" {
		return nil, ErrRedisConfigURLNotProvided
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}
	if opts.PoolSize == 0 {
		opts.PoolSize = 10
	}
	if opts.PoolTimeout == 0 {
		opts.PoolTimeout = 30 * time.Second
	}

	opt, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid Redis URL: %w", err)
	}

	opt.MaxRetries = opts.MaxRetries
	opt.PoolSize = opts.PoolSize
	opt.PoolTimeout = opts.PoolTimeout
	opt.ReadTimeout = 5 * time.Second
	opt.WriteTimeout = 5 * time.Second

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{
		client:     client,
		prefix:     opts.Prefix,
		defaultTTL: opts.DefaultTTL,
	}, nil
}

func (rs *RedisStore) namespaced(key string) string {
	if rs.prefix == "" {
		return key
	}
	return rs.prefix + ":" + key
}

// Get retrieves a value from Redis by key.
// Returns (nil, nil) if the key does not exist.
func (rs *RedisStore) Get(ctx context.Context, key string) (any, error) {
	val, err := rs.client.Get(ctx, rs.namespaced(key)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get error: %w", err)
	}
	return val, nil
}

// Set stores a value in Redis. A nil ttl falls back to the store's default
// TTL. The value must be a string.
func (rs *RedisStore) Set(ctx context.Context, key string, value any, ttl *time.Duration) error {
	valueStr, ok := value.(string)
	if !ok {
		return fmt.Errorf("%w, got %T", ErrInvalidValueType, value)
	}

	expiration := rs.defaultTTL
	if ttl != nil {
		expiration = *ttl
	}

	if err := rs.client.Set(ctx, rs.namespaced(key), valueStr, expiration).Err(); err != nil {
		return fmt.Errorf("redis set error: %w", err)
	}
	return nil
}

// Delete removes a key from Redis. Idempotent.
func (rs *RedisStore) Delete(ctx context.Context, key string) error {
	if err := rs.client.Del(ctx, rs.namespaced(key)).Err(); err != nil {
		return fmt.Errorf("redis delete error: %w", err)
	}
	return nil
}

// Incr atomically increments an integer value in Redis by 1.
// If the key does not exist, it is set to 1.
// If a TTL is provided, it is only applied on key creation.
func (rs *RedisStore) Incr(ctx context.Context, key string, ttl *time.Duration) (int, error) {
	nsKey := rs.namespaced(key)

	exists, err := rs.client.Exists(ctx, nsKey).Result()
	if err != nil {
		return 0, fmt.Errorf("redis exists check error: %w", err)
	}

	val, err := rs.client.Incr(ctx, nsKey).Result()
	if err != nil {
		return 0, fmt.Errorf("redis incr error: %w", err)
	}

	if exists == 0 && ttl != nil {
		if err := rs.client.Expire(ctx, nsKey, *ttl).Err(); err != nil {
			return 0, fmt.Errorf("redis expire error: %w", err)
		}
	}

	return int(val), nil
}

// TTL returns the remaining time to live for a key.
// Returns nil if the key does not exist or has no expiration.
func (rs *RedisStore) TTL(ctx context.Context, key string) (*time.Duration, error) {
	ttl, err := rs.client.TTL(ctx, rs.namespaced(key)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis ttl error: %w", err)
	}

	// Redis returns -1 if key exists but has no associated expire
	// Redis returns -2 if key does not exist
	if ttl == -1 || ttl == -2 {
		return nil, nil
	}

	return &ttl, nil
}

// Reset removes every key under the store's namespace. Used by test and
// ops tooling only; it scans rather than FLUSHDB so co-tenants of the
// physical store are untouched.
func (rs *RedisStore) Reset(ctx context.Context) error {
	pattern := "*"
	if rs.prefix != "" {
		pattern = rs.prefix + ":*"
	}

	iter := rs.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := rs.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("redis reset delete error: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis reset scan error: %w", err)
	}
	return nil
}

// Close closes the Redis connection
func (rs *RedisStore) Close() error {
	if rs.client != nil {
		return rs.client.Close()
	}
	return nil
}
