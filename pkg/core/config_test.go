package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfig("gemini")
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "gemini", cfg.Exchange)
	assert.False(t, cfg.Sandbox)
	assert.Nil(t, cfg.Credentials)
}

func TestValidateRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing exchange", func(c *Config) { c.Exchange = "" }},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }},
		{"zero rate limit", func(c *Config) { c.RateLimitRequests = 0 }},
		{"negative depth", func(c *Config) { c.MaxDepth = -1 }},
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig("gemini")
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestConfigChaining(t *testing.T) {
	creds := &Credentials{APIKey: "key", SecretKey: "secret"}
	cfg := DefaultConfig("gemini").
		WithCredentials(creds).
		WithSandbox(true).
		WithRateLimit(5, time.Second).
		WithMaxDepth(10)

	require.NoError(t, cfg.Validate())
	assert.Same(t, creds, cfg.Credentials)
	assert.True(t, cfg.Sandbox)
	assert.Equal(t, 5, cfg.RateLimitRequests)
	assert.Equal(t, time.Second, cfg.RateLimitPeriod)
	assert.Equal(t, 10, cfg.MaxDepth)
}

func TestOrderStatusKnown(t *testing.T) {
	for _, s := range []OrderStatus{StatusSubmitting, StatusOpen, StatusFilled, StatusCancelled, StatusFailed} {
		assert.True(t, s.Known(), string(s))
	}
	assert.False(t, OrderStatus("closed").Known())
	assert.False(t, OrderStatus("").Known())
}
