package handlers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopkit/shopkit/internal/ratelimit"
)

func TestRegisterPoliciesAuthRoutes(t *testing.T) {
	registry := ratelimit.NewRegistry()
	RegisterPolicies(registry)

	for _, routeID := range []string{"POST /api/v1/auth/sign-in", "POST /api/v1/auth/sign-up"} {
		policy, ok := registry.Lookup(routeID)
		require.True(t, ok, routeID)
		assert.Equal(t, 5, policy.Max)
		assert.Equal(t, 15*time.Minute, policy.Window)
		assert.Equal(t, ratelimit.ScopeIP, policy.EffectiveScope())
	}
}

func TestRegisterPoliciesCatalogWritesAreIdentityScoped(t *testing.T) {
	registry := ratelimit.NewRegistry()
	RegisterPolicies(registry)

	policy, ok := registry.Lookup("POST /api/v1/products")
	require.True(t, ok)
	assert.Equal(t, ratelimit.ScopeIdentity, policy.EffectiveScope())
}

func TestRegisterPoliciesLeavesReadsUnlimited(t *testing.T) {
	registry := ratelimit.NewRegistry()
	RegisterPolicies(registry)

	_, ok := registry.Lookup("GET /api/v1/products")
	assert.False(t, ok, "cached reads carry no policy")
}
