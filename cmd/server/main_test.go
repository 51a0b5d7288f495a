package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shopkit/shopkit/env"
)

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv(env.EnvSecret, "env-secret")
	t.Setenv(env.EnvBaseURL, "https://shop.example.com")
	t.Setenv(env.EnvCachePrefix, "shopkit_staging")
	t.Setenv(env.EnvRateLimitBypass, "true")

	config := defaultConfig()
	applyEnvOverrides(&config)

	assert.Equal(t, "env-secret", config.Secret)
	assert.Equal(t, "https://shop.example.com", config.BaseURL)
	assert.Equal(t, "shopkit_staging", config.Cache.Prefix)
	assert.True(t, config.RateLimit.Bypass)
}

func TestApplyEnvOverridesIgnoresInvalidBypass(t *testing.T) {
	t.Setenv(env.EnvRateLimitBypass, "definitely")

	config := defaultConfig()
	applyEnvOverrides(&config)

	assert.False(t, config.RateLimit.Bypass)
}
