// Package ratelimit implements fixed-window request rate limiting on top
// of the shared cache store. Routes opt in through a registry of named
// policies; the HTTP middleware consults the registry at dispatch time.
package ratelimit

import (
	"errors"
	"fmt"
	"time"
)

// Scope selects what a policy counts requests against.
type Scope string

const (
	// ScopeIdentity counts per authenticated user, falling back to the
	// client IP for anonymous requests.
	ScopeIdentity Scope = "identity"
	// ScopeIP always counts per client IP, even for authenticated users.
	ScopeIP Scope = "ip"
)

var (
	ErrInvalidMaxRequests = errors.New("rate limit policy max requests must be positive")
	ErrInvalidWindow      = errors.New("rate limit policy window must be positive")
	ErrInvalidScope       = errors.New("rate limit policy scope must be identity or ip")
)

// Policy describes the limit applied to a route: at most Max requests per
// identity within each fixed Window.
type Policy struct {
	Window  time.Duration
	Max     int
	Scope   Scope
	Message string
}

// Validate reports whether the policy is usable. Called at registration
// time so misconfigured routes fail at startup, not under traffic.
func (p Policy) Validate() error {
	if p.Max <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidMaxRequests, p.Max)
	}
	if p.Window <= 0 {
		return fmt.Errorf("%w: got %s", ErrInvalidWindow, p.Window)
	}
	switch p.Scope {
	case ScopeIdentity, ScopeIP:
	case "":
		// Empty scope defaults to identity at check time.
	default:
		return fmt.Errorf("%w: got %q", ErrInvalidScope, p.Scope)
	}
	return nil
}

// EffectiveScope resolves the default scope.
func (p Policy) EffectiveScope() Scope {
	if p.Scope == "" {
		return ScopeIdentity
	}
	return p.Scope
}

// DeniedMessage returns the configured denial message or a generic one.
func (p Policy) DeniedMessage() string {
	if p.Message != "" {
		return p.Message
	}
	return "Too many requests, please try again later."
}
