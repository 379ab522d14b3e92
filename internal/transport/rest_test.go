package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketfeed/pkg/core"
)

func restConfig() *core.Config {
	cfg := core.DefaultConfig("test")
	cfg.MaxRetries = 0
	cfg.RateLimitRequests = 100
	cfg.RateLimitPeriod = time.Second
	cfg.CircuitBreakerFailThreshold = 2
	cfg.CircuitBreakerTimeout = time.Hour
	return cfg
}

func TestFetchReturnsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`["btcusd"]`))
	}))
	defer srv.Close()

	c := NewRestClient(restConfig(), zerolog.Nop())
	defer c.Close()

	body, err := c.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, `["btcusd"]`, string(body))
}

func TestFetchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewRestClient(restConfig(), zerolog.Nop())
	defer c.Close()

	_, err := c.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.True(t, core.IsErrorType(err, core.ErrorTypeServerError))
}

func TestFetchOpensBreakerAfterFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewRestClient(restConfig(), zerolog.Nop())
	defer c.Close()

	ctx := context.Background()
	_, err := c.Fetch(ctx, srv.URL)
	require.Error(t, err)
	_, err = c.Fetch(ctx, srv.URL)
	require.Error(t, err)

	_, err = c.Fetch(ctx, srv.URL)
	assert.ErrorIs(t, err, core.ErrCircuitBreakerOpen)
}

func TestSetEndpointLimitCoversWholeHost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewRestClient(restConfig(), zerolog.Nop())
	defer c.Close()

	// The ceiling is declared against the base URL but must govern every
	// route on the host, the per-symbol paths included.
	c.SetEndpointLimit(srv.URL, 1)

	ctx := context.Background()
	_, err := c.Fetch(ctx, srv.URL+"/v1/symbols")
	require.NoError(t, err)

	short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err = c.Fetch(short, srv.URL+"/v1/symbols/details/btcusd")
	assert.Error(t, err, "second request within the one-per-second window must not pass")
}

func TestFetchBreakerDisabled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := restConfig()
	cfg.CircuitBreakerEnabled = false
	c := NewRestClient(cfg, zerolog.Nop())
	defer c.Close()

	ctx := context.Background()
	for i := 0; i < 4; i++ {
		_, err := c.Fetch(ctx, srv.URL)
		require.Error(t, err)
		assert.False(t, core.IsErrorType(err, core.ErrorTypeNetwork))
	}
}
