// Package transport owns socket and HTTP I/O for exchange connections:
// the websocket read loop with reconnect policy, and the rate-limited REST
// client used for discovery-time fetches.
package transport

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"resty.dev/v3"

	"marketfeed/internal/circuitbreaker"
	"marketfeed/internal/ratelimit"
	"marketfeed/pkg/core"
)

// Fetcher is the one-shot REST read used at bootstrap for symbol discovery
// and by polling collectors.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// EndpointLimiter is the optional Fetcher capability exchange protocol code
// uses to apply a venue's declared request-rate ceiling before fetching.
type EndpointLimiter interface {
	SetEndpointLimit(url string, requestsPerSecond int)
}

// RestClient is a rate-limited, circuit-broken HTTP GET client.
type RestClient struct {
	client  *resty.Client
	limiter *ratelimit.Limiter
	breaker *circuitbreaker.Breaker
	logger  zerolog.Logger
	name    string
}

// NewRestClient creates a RestClient from the feed configuration.
func NewRestClient(cfg *core.Config, logger zerolog.Logger) *RestClient {
	client := resty.New()
	client.SetTimeout(cfg.Timeout)
	client.SetRetryCount(cfg.MaxRetries)
	client.SetRetryWaitTime(cfg.RetryWaitMin)
	client.SetRetryMaxWaitTime(cfg.RetryWaitMax)

	rc := &RestClient{
		client:  client,
		limiter: ratelimit.New(cfg.RateLimitRequests, cfg.RateLimitPeriod),
		logger:  logger,
		name:    cfg.Exchange,
	}
	if cfg.CircuitBreakerEnabled {
		rc.breaker = circuitbreaker.New(circuitbreaker.Config{
			FailThreshold: cfg.CircuitBreakerFailThreshold,
			Timeout:       cfg.CircuitBreakerTimeout,
		})
	}
	return rc
}

// bucketKey maps a request URL to its rate-limit bucket. Buckets are per
// host, so a ceiling set on a venue's base URL covers every route under it,
// the per-symbol discovery paths included.
func bucketKey(rawURL string) string {
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		return u.Host
	}
	return rawURL
}

// SetEndpointLimit applies a per-endpoint request ceiling (requests per
// second) on top of the global limit.
func (c *RestClient) SetEndpointLimit(url string, requestsPerSecond int) {
	c.limiter.SetEndpointLimit(bucketKey(url), requestsPerSecond, time.Second)
}

// Fetch performs one GET, honoring the rate limit and circuit breaker.
func (c *RestClient) Fetch(ctx context.Context, url string) ([]byte, error) {
	if err := c.limiter.WaitEndpoint(ctx, bucketKey(url)); err != nil {
		return nil, err
	}

	if c.breaker != nil && !c.breaker.Allow() {
		return nil, core.ErrCircuitBreakerOpen
	}

	c.logger.Debug().Str("url", url).Msg("rest fetch")

	resp, err := c.client.R().SetContext(ctx).Get(url)
	if err != nil {
		c.record(false)
		return nil, core.WrapFeedError(c.name, core.ErrorTypeNetwork, "rest fetch", err)
	}

	if resp.StatusCode() >= 400 {
		c.record(false)
		return nil, core.NewFeedError(c.name, core.ErrorTypeServerError,
			fmt.Sprintf("http %s for %s", resp.Status(), url))
	}

	c.record(true)
	return resp.Bytes(), nil
}

func (c *RestClient) record(success bool) {
	if c.breaker != nil {
		c.breaker.Record(success)
	}
}

// Close releases the underlying HTTP client resources.
func (c *RestClient) Close() error {
	return c.client.Close()
}
