package ratelimit

import (
	"fmt"
	"sync"
)

// Registry maps route identifiers to rate limit policies. Routes are
// registered explicitly during router construction; a route with no entry
// is simply not limited.
type Registry struct {
	mu       sync.RWMutex
	policies map[string]Policy
}

func NewRegistry() *Registry {
	return &Registry{policies: make(map[string]Policy)}
}

// Register validates and stores a policy for a route. Registering the same
// route twice is a programming error and is rejected so a duplicate entry
// in the route table cannot silently shadow an earlier policy.
func (r *Registry) Register(routeID string, policy Policy) error {
	if err := policy.Validate(); err != nil {
		return fmt.Errorf("invalid policy for route %s: %w", routeID, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.policies[routeID]; exists {
		return fmt.Errorf("duplicate rate limit policy for route %s", routeID)
	}

	r.policies[routeID] = policy
	return nil
}

// MustRegister is Register that panics on error. Intended for the static
// route table assembled at startup.
func (r *Registry) MustRegister(routeID string, policy Policy) {
	if err := r.Register(routeID, policy); err != nil {
		panic(err)
	}
}

// Lookup returns the policy registered for a route, if any.
func (r *Registry) Lookup(routeID string) (Policy, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	policy, ok := r.policies[routeID]
	return policy, ok
}

// Routes returns the identifiers of all registered routes.
func (r *Registry) Routes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	routes := make([]string, 0, len(r.policies))
	for routeID := range r.policies {
		routes = append(routes, routeID)
	}
	return routes
}
