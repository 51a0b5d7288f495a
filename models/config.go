package models

import (
	"time"
)

// Config holds the core configuration for the shopkit backend.
type Config struct {
	AppName   string          `json:"app_name" toml:"app_name"`
	BaseURL   string          `json:"base_url" toml:"base_url"`
	BasePath  string          `json:"base_path" toml:"base_path"`
	Secret    string          `json:"secret" toml:"secret"`
	Database  DatabaseConfig  `json:"database" toml:"database"`
	Logger    LoggerConfig    `json:"logger" toml:"logger"`
	Session   SessionConfig   `json:"session" toml:"session"`
	JWT       JWTConfig       `json:"jwt" toml:"jwt"`
	Security  SecurityConfig  `json:"security" toml:"security"`
	Cache     CacheConfig     `json:"cache" toml:"cache"`
	RateLimit RateLimitConfig `json:"rate_limit" toml:"rate_limit"`
	Email     EmailConfig     `json:"email" toml:"email"`
	Payment   PaymentConfig   `json:"payment" toml:"payment"`
	EventBus  EventBusConfig  `json:"event_bus" toml:"event_bus"`
}

type DatabaseConfig struct {
	Provider        string        `json:"provider" toml:"provider"`
	URL             string        `json:"url" toml:"url"`
	MaxOpenConns    int           `json:"max_open_conns" toml:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns" toml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime" toml:"conn_max_lifetime"`
}

type LoggerConfig struct {
	Level string `json:"level" toml:"level"`
}

type SessionConfig struct {
	CookieName string        `json:"cookie_name" toml:"cookie_name"`
	ExpiresIn  time.Duration `json:"expires_in" toml:"expires_in"`
	Secure     bool          `json:"secure" toml:"secure"`
	HttpOnly   bool          `json:"http_only" toml:"http_only"`
	SameSite   string        `json:"same_site" toml:"same_site"`
}

type JWTConfig struct {
	ExpiresIn        time.Duration `json:"expires_in" toml:"expires_in"`
	RefreshExpiresIn time.Duration `json:"refresh_expires_in" toml:"refresh_expires_in"`
}

type SecurityConfig struct {
	TrustedOrigins []string `json:"trusted_origins" toml:"trusted_origins"`
	TrustedProxies []string `json:"trusted_proxies" toml:"trusted_proxies"`
}

// CacheConfig configures the shared cache store and the read-through
// response cache layered on top of it.
type CacheConfig struct {
	// Provider selects the cache backend: "redis", "database", or "memory".
	// Defaults to "memory" if not specified or the selected provider fails
	// to initialize.
	Provider CacheProviderType `json:"provider" toml:"provider"`

	// Prefix namespaces every key so multiple deployments can share one
	// physical store without collision.
	Prefix string `json:"prefix" toml:"prefix"`

	// DefaultTTL applies to Set calls that do not specify a TTL.
	DefaultTTL time.Duration `json:"default_ttl" toml:"default_ttl"`

	// ListTTL and DetailTTL configure the read-through layer. Lists change
	// more often than single records, so they default to a shorter TTL.
	ListTTL   time.Duration `json:"list_ttl" toml:"list_ttl"`
	DetailTTL time.Duration `json:"detail_ttl" toml:"detail_ttl"`

	Memory   *MemoryCacheConfig   `json:"memory" toml:"memory"`
	Database *DatabaseCacheConfig `json:"database" toml:"database"`
	Redis    *RedisCacheConfig    `json:"redis" toml:"redis"`
}

// MemoryCacheConfig contains configuration for the in-memory cache provider
type MemoryCacheConfig struct {
	CleanupInterval time.Duration `json:"cleanup_interval" toml:"cleanup_interval"`
}

// DatabaseCacheConfig contains configuration for the database cache provider
type DatabaseCacheConfig struct {
	CleanupInterval time.Duration `json:"cleanup_interval" toml:"cleanup_interval"`
}

// RedisCacheConfig contains configuration for the Redis cache provider
type RedisCacheConfig struct {
	// URL is the Redis connection URL (e.g., "redis://[user:pass@]host[:port]/[db]")
	URL         string        `json:"url" toml:"url"`
	MaxRetries  int           `json:"max_retries" toml:"max_retries"`
	PoolSize    int           `json:"pool_size" toml:"pool_size"`
	PoolTimeout time.Duration `json:"pool_timeout" toml:"pool_timeout"`
}

// RateLimitConfig is the process-wide rate limiting configuration.
// Per-route policies are registered in code; this controls the shared knobs.
type RateLimitConfig struct {
	Enabled bool `json:"enabled" toml:"enabled"`

	// Bypass disables rate limiting entirely without touching the cache.
	// Used by test suites and ops tooling; never set in production.
	Bypass bool `json:"bypass" toml:"bypass"`

	// Prefix namespaces rate-limit window keys inside the cache store.
	Prefix string `json:"prefix" toml:"prefix"`
}

type EmailConfig struct {
	FromAddress string `json:"from_address" toml:"from_address"`
	FromName    string `json:"from_name" toml:"from_name"`
	// Provider selects the primary mail transport: "smtp" or "resend".
	Provider string `json:"provider" toml:"provider"`
	// FallbackProvider is tried when the primary transport fails.
	FallbackProvider string `json:"fallback_provider" toml:"fallback_provider"`
	// VerificationTTL bounds how long an email-verification token is valid.
	VerificationTTL time.Duration `json:"verification_ttl" toml:"verification_ttl"`
}

type PaymentConfig struct {
	// BaseURL of the external payment processor's REST API.
	BaseURL string `json:"base_url" toml:"base_url"`
	// RequestsPerSecond throttles outbound calls to the processor.
	RequestsPerSecond float64       `json:"requests_per_second" toml:"requests_per_second"`
	Timeout           time.Duration `json:"timeout" toml:"timeout"`
}

type EventBusConfig struct {
	Prefix                string            `json:"prefix" toml:"prefix"`
	MaxConcurrentHandlers int               `json:"max_concurrent_handlers" toml:"max_concurrent_handlers"`
	Provider              string            `json:"provider" toml:"provider"`
	GoChannel             *GoChannelConfig  `json:"go_channel" toml:"go_channel"`
	PostgreSQL            *PostgreSQLConfig `json:"postgres" toml:"postgres"`
	Redis                 *RedisConfig      `json:"redis" toml:"redis"`
	Kafka                 *KafkaConfig      `json:"kafka" toml:"kafka"`
	NATS                  *NatsConfig       `json:"nats" toml:"nats"`
	RabbitMQ              *RabbitMQConfig   `json:"rabbitmq" toml:"rabbitmq"`
}

type GoChannelConfig struct {
	BufferSize int `json:"buffer_size" toml:"buffer_size"`
}

type PostgreSQLConfig struct {
	URL string `json:"url" toml:"url"`
}

type RedisConfig struct {
	URL           string `json:"url" toml:"url"`
	ConsumerGroup string `json:"consumer_group" toml:"consumer_group"`
}

type KafkaConfig struct {
	Brokers       string `json:"brokers" toml:"brokers"`
	ConsumerGroup string `json:"consumer_group" toml:"consumer_group"`
}

type NatsConfig struct {
	URL string `json:"url" toml:"url"`
}

type RabbitMQConfig struct {
	URL string `json:"url" toml:"url"`
}
