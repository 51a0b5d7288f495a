// Package cache provides the shared key-value cache store backing the rate
// limiter and the read-through response cache. Three providers are
// available: Redis (production), database (bun-backed, for deployments
// without Redis), and in-memory (development and tests).
package cache

import "errors"

var (
	ErrRedisConfigURLNotProvided = errors.New("redis cache configuration URL not provided")
	ErrInvalidValueType          = errors.New("cache value must be of type string")
)
