package bootstrap

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/shopkit/shopkit/internal/cache"
	"github.com/shopkit/shopkit/models"
)

const defaultCacheTTL = 5 * time.Minute

// InitCacheStorage selects the cache backend per config. A provider that
// fails to initialize falls back to the in-memory store with a warning so
// a missing Redis never prevents startup; the limiter and response cache
// then run process-local.
func InitCacheStorage(config models.CacheConfig, db bun.IDB, logger models.Logger) models.CacheStorage {
	defaultTTL := config.DefaultTTL
	if defaultTTL == 0 {
		defaultTTL = defaultCacheTTL
	}

	switch config.Provider {
	case models.CacheProviderRedis:
		opts := cache.RedisStoreOptions{
			Prefix:     config.Prefix,
			DefaultTTL: defaultTTL,
		}
		if config.Redis != nil {
			opts.URL = config.Redis.URL
			opts.MaxRetries = config.Redis.MaxRetries
			opts.PoolSize = config.Redis.PoolSize
			opts.PoolTimeout = config.Redis.PoolTimeout
		}

		store, err := cache.NewRedisStore(opts)
		if err != nil {
			logger.Warn("redis cache unavailable, falling back to memory store", "error", err)
			break
		}
		logger.Info("cache storage initialized", "provider", config.Provider.String())
		return store

	case models.CacheProviderDatabase:
		opts := cache.DatabaseStoreOptions{
			Prefix:     config.Prefix,
			DefaultTTL: defaultTTL,
		}
		if config.Database != nil {
			opts.CleanupInterval = config.Database.CleanupInterval
		}

		store := cache.NewDatabaseStore(db, opts)
		store.StartCleanup()
		logger.Info("cache storage initialized", "provider", config.Provider.String())
		return store

	case models.CacheProviderMemory, "":
		// Fall through to the memory store below.

	default:
		logger.Warn("unknown cache provider, falling back to memory store", "provider", config.Provider.String())
	}

	opts := cache.MemoryStoreOptions{
		Prefix:     config.Prefix,
		DefaultTTL: defaultTTL,
	}
	if config.Memory != nil {
		opts.CleanupInterval = config.Memory.CleanupInterval
	}

	logger.Info("cache storage initialized", "provider", models.CacheProviderMemory.String())
	return cache.NewMemoryStore(opts)
}
