package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicyValidate(t *testing.T) {
	tests := []struct {
		name    string
		policy  Policy
		wantErr error
	}{
		{
			name:   "valid identity policy",
			policy: Policy{Window: time.Minute, Max: 100, Scope: ScopeIdentity},
		},
		{
			name:   "valid ip policy",
			policy: Policy{Window: 15 * time.Minute, Max: 5, Scope: ScopeIP},
		},
		{
			name:   "empty scope defaults",
			policy: Policy{Window: time.Minute, Max: 10},
		},
		{
			name:    "zero max",
			policy:  Policy{Window: time.Minute, Max: 0},
			wantErr: ErrInvalidMaxRequests,
		},
		{
			name:    "negative max",
			policy:  Policy{Window: time.Minute, Max: -5},
			wantErr: ErrInvalidMaxRequests,
		},
		{
			name:    "zero window",
			policy:  Policy{Window: 0, Max: 10},
			wantErr: ErrInvalidWindow,
		},
		{
			name:    "negative window",
			policy:  Policy{Window: -time.Second, Max: 10},
			wantErr: ErrInvalidWindow,
		},
		{
			name:    "unknown scope",
			policy:  Policy{Window: time.Minute, Max: 10, Scope: "tenant"},
			wantErr: ErrInvalidScope,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.policy.Validate()
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestPolicyEffectiveScope(t *testing.T) {
	assert.Equal(t, ScopeIdentity, Policy{}.EffectiveScope())
	assert.Equal(t, ScopeIP, Policy{Scope: ScopeIP}.EffectiveScope())
}

func TestPolicyDeniedMessage(t *testing.T) {
	assert.Equal(t, "Too many requests, please try again later.", Policy{}.DeniedMessage())
	assert.Equal(t, "slow down", Policy{Message: "slow down"}.DeniedMessage())
}

func TestRegistryRejectsInvalidPolicy(t *testing.T) {
	reg := NewRegistry()

	err := reg.Register("POST /api/auth/sign-in", Policy{Window: time.Minute, Max: 0})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidMaxRequests)

	_, ok := reg.Lookup("POST /api/auth/sign-in")
	assert.False(t, ok)
}

func TestRegistryRejectsDuplicateRoute(t *testing.T) {
	reg := NewRegistry()
	policy := Policy{Window: time.Minute, Max: 10}

	require.NoError(t, reg.Register("GET /api/products", policy))

	err := reg.Register("GET /api/products", Policy{Window: time.Minute, Max: 50})
	require.Error(t, err)

	got, ok := reg.Lookup("GET /api/products")
	require.True(t, ok)
	assert.Equal(t, 10, got.Max)
}

func TestRegistryLookupUnregisteredRoute(t *testing.T) {
	reg := NewRegistry()

	_, ok := reg.Lookup("GET /api/health")
	assert.False(t, ok)
}

func TestRegistryMustRegisterPanicsOnError(t *testing.T) {
	reg := NewRegistry()

	assert.Panics(t, func() {
		reg.MustRegister("bad", Policy{Window: time.Minute, Max: -1})
	})

	assert.NotPanics(t, func() {
		reg.MustRegister("good", Policy{Window: time.Minute, Max: 1})
	})
}
