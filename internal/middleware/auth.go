package middleware

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"github.com/shopkit/shopkit/internal/services"
	"github.com/shopkit/shopkit/internal/util"
	"github.com/shopkit/shopkit/models"
)

const (
	tenantHeader = "X-Tenant-ID"

	unauthorizedError = "Unauthorized"
	forbiddenError    = "Forbidden"
)

// Auth authenticates a request from either the session cookie or a
// Bearer access token, in that order. Unauthenticated requests are
// rejected.
func Auth(authService *services.AuthService, jwtService *services.JWTService, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, ok := authenticate(r, authService, jwtService, cookieName)
			if !ok {
				util.ErrorResponse(w, http.StatusUnauthorized, "authentication required", unauthorizedError)
				return
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth attaches the user to the context when credentials are
// present and valid, and lets the request through either way.
func OptionalAuth(authService *services.AuthService, jwtService *services.JWTService, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ctx, ok := authenticate(r, authService, jwtService, cookieName); ok {
				r = r.WithContext(ctx)
			}
			next.ServeHTTP(w, r)
		})
	}
}

func authenticate(r *http.Request, authService *services.AuthService, jwtService *services.JWTService, cookieName string) (context.Context, bool) {
	if cookie, err := r.Cookie(cookieName); err == nil && cookie.Value != "" {
		session, user, err := authService.ResolveSession(r.Context(), cookie.Value)
		if err == nil && session != nil && user != nil {
			ctx := context.WithValue(r.Context(), models.ContextUserID, user.ID)
			ctx = context.WithValue(ctx, models.ContextUserRole, user.Role)
			ctx = context.WithValue(ctx, models.ContextSessionID, session.ID)
			return ctx, true
		}
	}

	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		token := strings.TrimPrefix(header, "Bearer ")
		claims, err := jwtService.Validate(token)
		if err == nil {
			ctx := context.WithValue(r.Context(), models.ContextUserID, claims.UserID)
			ctx = context.WithValue(ctx, models.ContextUserRole, models.Role(claims.Role))
			ctx = context.WithValue(ctx, models.ContextSessionID, claims.SessionID)
			return ctx, true
		}
	}

	return nil, false
}

// RequireRole gates a route to the given roles. Must run after Auth.
func RequireRole(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := models.GetUserRoleFromContext(r.Context())
			if !ok || !slices.Contains(roles, role) {
				util.ErrorResponse(w, http.StatusForbidden, "insufficient permissions", forbiddenError)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireVerifiedEmail rejects users who have not confirmed their email
// address. Applied per route, not globally, so sign-in and the
// verification endpoints themselves stay reachable.
func RequireVerifiedEmail(userService *services.UserService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := models.GetUserIDFromContext(r.Context())
			if !ok {
				util.ErrorResponse(w, http.StatusUnauthorized, "authentication required", unauthorizedError)
				return
			}

			user, err := userService.GetByID(r.Context(), userID)
			if err != nil || user == nil {
				util.ErrorResponse(w, http.StatusUnauthorized, "authentication required", unauthorizedError)
				return
			}
			if !user.EmailVerified {
				util.ErrorResponse(w, http.StatusForbidden, "email address not verified", forbiddenError)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Tenant resolves the request tenant from the X-Tenant-ID header,
// defaulting when absent so single-tenant deployments need no header.
func Tenant() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tenantID := r.Header.Get(tenantHeader)
			if tenantID == "" {
				tenantID = models.DefaultTenantID
			}
			ctx := context.WithValue(r.Context(), models.ContextTenantID, tenantID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Cors reflects trusted origins and answers preflight requests.
func Cors(allowedOrigins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if slices.Contains(allowedOrigins, origin) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,PATCH,DELETE,OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization,Cookie,Set-Cookie,X-Tenant-ID")
				w.Header().Set("Access-Control-Max-Age", "86400")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Chain applies middlewares left to right: the first listed runs first.
func Chain(h http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}
