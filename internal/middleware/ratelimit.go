package middleware

import (
	"net/http"
	"strconv"

	"github.com/shopkit/shopkit/internal/ratelimit"
	"github.com/shopkit/shopkit/internal/util"
	"github.com/shopkit/shopkit/models"
)

// RateLimitExceededError is the stable error label clients match on.
const RateLimitExceededError = "Rate Limit Exceeded"

// RateLimit enforces the policy registered for routeID, if any. The
// registry is consulted at dispatch time so route tables can be assembled
// in any order relative to middleware construction.
//
// Identity resolution: for identity-scoped policies an authenticated user
// counts as "user:{id}" and anonymous requests fall back to the client IP;
// IP-scoped policies always count by IP. A request with no resolvable IP
// counts under a shared "unknown" bucket rather than escaping the limiter.
func RateLimit(limiter *ratelimit.Limiter, registry *ratelimit.Registry, logger models.Logger, routeID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			policy, ok := registry.Lookup(routeID)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			// Preflight requests are never limited.
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			identity := resolveIdentity(r, policy.EffectiveScope())

			decision, err := limiter.Check(r.Context(), identity, policy)
			if err != nil {
				// Fail open: limiter store unavailability must not take
				// the API down with it.
				logger.Warn("rate limit check failed, allowing request", "route", routeID, "identity", identity, "error", err)
				next.ServeHTTP(w, r)
				return
			}

			if decision.Bypassed {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(decision.Reset.Unix(), 10))

			if !decision.Allowed {
				w.Header().Set("Retry-After", strconv.Itoa(decision.RetryAfter))
				util.JSONResponse(w, http.StatusTooManyRequests, map[string]any{
					"success":    false,
					"message":    policy.DeniedMessage(),
					"error":      RateLimitExceededError,
					"retryAfter": decision.RetryAfter,
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func resolveIdentity(r *http.Request, scope ratelimit.Scope) string {
	if scope == ratelimit.ScopeIdentity {
		if userID, ok := models.GetUserIDFromContext(r.Context()); ok && userID != "" {
			return "user:" + userID
		}
	}

	ip := util.ClientIPFromRequest(r)
	if ip == "" {
		return "unknown"
	}
	return "ip:" + ip
}
