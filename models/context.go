package models

import "context"

type ContextKey string

const (
	ContextUserID    ContextKey = "user_id"
	ContextUserRole  ContextKey = "user_role"
	ContextTenantID  ContextKey = "tenant_id"
	ContextSessionID ContextKey = "session_id"
)

// DefaultTenantID is assumed when a request carries no tenant header.
const DefaultTenantID = "default"

// GetTenantIDFromContext extracts the request tenant, defaulting when absent.
func GetTenantIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(ContextTenantID).(string); ok && id != "" {
		return id
	}
	return DefaultTenantID
}

func (k ContextKey) String() string {
	return string(k)
}

// GetUserIDFromContext extracts the authenticated user id, if any.
func GetUserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ContextUserID).(string)
	return id, ok && id != ""
}

// GetSessionIDFromContext extracts the current session id, if any.
func GetSessionIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ContextSessionID).(string)
	return id, ok && id != ""
}

// GetUserRoleFromContext extracts the authenticated user's role, if any.
func GetUserRoleFromContext(ctx context.Context) (Role, bool) {
	role, ok := ctx.Value(ContextUserRole).(Role)
	return role, ok
}
