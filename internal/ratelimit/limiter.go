package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/shopkit/shopkit/models"
)

// DefaultKeyPrefix namespaces limiter counters inside the shared cache
// store, away from response cache entries.
const DefaultKeyPrefix = "rate_limit"

// Decision is the outcome of a limit check for one request.
type Decision struct {
	Allowed bool
	// Bypassed is set when limiting is globally disabled; the middleware
	// skips rate limit headers entirely in that case.
	Bypassed bool
	Limit    int
	// Remaining is the number of requests left in the current window
	// after this one.
	Remaining int
	// Reset is when the current window ends and the counter restarts.
	Reset time.Time
	// RetryAfter is the whole number of seconds until Reset, rounded up.
	// Only meaningful when Allowed is false.
	RetryAfter int
}

// LimiterOptions configures a Limiter.
type LimiterOptions struct {
	KeyPrefix string
	// Bypass disables limiting entirely. Every check succeeds without
	// touching the cache store.
	Bypass bool
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Limiter applies fixed-window rate limiting backed by the cache store.
// Each identity gets a counter per window; the window boundary is derived
// from wall-clock time so all server instances sharing a store agree on it.
type Limiter struct {
	storage   models.CacheStorage
	logger    models.Logger
	keyPrefix string
	bypass    bool
	now       func() time.Time
}

func NewLimiter(storage models.CacheStorage, logger models.Logger, opts LimiterOptions) *Limiter {
	keyPrefix := opts.KeyPrefix
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Limiter{
		storage:   storage,
		logger:    logger,
		keyPrefix: keyPrefix,
		bypass:    opts.Bypass,
		now:       now,
	}
}

// Check records one request for the given identity against the policy and
// decides whether it may proceed. Counting and deciding happen in the same
// call: an allowed request consumes one slot in the current window, a
// denied request consumes nothing.
//
// A storage error is returned to the caller, which is expected to fail
// open: limiter unavailability must never take the API down with it.
func (l *Limiter) Check(ctx context.Context, identity string, policy Policy) (*Decision, error) {
	if l.bypass {
		return &Decision{Allowed: true, Bypassed: true}, nil
	}

	now := l.now()
	nowMs := now.UnixMilli()
	windowMs := policy.Window.Milliseconds()

	windowIndex := nowMs / windowMs
	windowEndMs := (windowIndex + 1) * windowMs
	reset := time.UnixMilli(windowEndMs)

	key := l.keyPrefix + ":" + identity + ":" + strconv.FormatInt(windowIndex, 10)

	count, err := l.currentCount(ctx, key)
	if err != nil {
		return nil, err
	}

	if count >= policy.Max {
		retryAfterMs := windowEndMs - nowMs
		retryAfter := int((retryAfterMs + 999) / 1000)
		return &Decision{
			Allowed:    false,
			Limit:      policy.Max,
			Remaining:  0,
			Reset:      reset,
			RetryAfter: retryAfter,
		}, nil
	}

	ttl := time.Duration(windowEndMs-nowMs) * time.Millisecond
	newCount, err := l.storage.Incr(ctx, key, &ttl)
	if err != nil {
		return nil, fmt.Errorf("rate limit counter increment failed: %w", err)
	}

	remaining := policy.Max - newCount
	if remaining < 0 {
		remaining = 0
	}

	return &Decision{
		Allowed:   true,
		Limit:     policy.Max,
		Remaining: remaining,
		Reset:     reset,
	}, nil
}

// currentCount reads the counter at key, treating an absent key as zero.
// The store may hand back a string (Redis, database) or whatever a custom
// provider stored; anything unparseable counts as zero with a warning
// rather than blocking traffic.
func (l *Limiter) currentCount(ctx context.Context, key string) (int, error) {
	val, err := l.storage.Get(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("rate limit counter read failed: %w", err)
	}
	if val == nil {
		return 0, nil
	}

	switch v := val.(type) {
	case string:
		count, err := strconv.Atoi(v)
		if err != nil {
			l.logger.Warn("unparseable rate limit counter, treating as zero", "key", key, "value", v)
			return 0, nil
		}
		return count, nil
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	default:
		l.logger.Warn("unexpected rate limit counter type, treating as zero", "key", key, "type", fmt.Sprintf("%T", val))
		return 0, nil
	}
}
