// Package ratelimit enforces per-endpoint request-rate ceilings for REST
// traffic.
package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// Limiter provides a global rate limit plus on-demand per-endpoint buckets.
type Limiter struct {
	global   *rate.Limiter
	buckets  sync.Map
	requests int
	period   time.Duration
	metrics  *Metrics
}

// Metrics tracks limiter usage.
type Metrics struct {
	totalRequests   atomic.Int64
	allowedRequests atomic.Int64
	deniedRequests  atomic.Int64
}

// New creates a Limiter allowing the given number of requests per period.
func New(requests int, period time.Duration) *Limiter {
	rps := float64(requests) / period.Seconds()
	return &Limiter{
		global:   rate.NewLimiter(rate.Limit(rps), requests),
		requests: requests,
		period:   period,
		metrics:  &Metrics{},
	}
}

// Wait blocks until the global limiter allows a request or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	l.metrics.totalRequests.Add(1)
	if err := l.global.Wait(ctx); err != nil {
		l.metrics.deniedRequests.Add(1)
		return err
	}
	l.metrics.allowedRequests.Add(1)
	return nil
}

// WaitEndpoint blocks until the named endpoint's bucket allows a request or
// ctx is done. Buckets are created on demand with the default limit.
func (l *Limiter) WaitEndpoint(ctx context.Context, endpoint string) error {
	l.metrics.totalRequests.Add(1)
	if err := l.bucket(endpoint).Wait(ctx); err != nil {
		l.metrics.deniedRequests.Add(1)
		return err
	}
	l.metrics.allowedRequests.Add(1)
	return nil
}

// Allow reports whether the global limiter permits a request immediately.
func (l *Limiter) Allow() bool {
	l.metrics.totalRequests.Add(1)
	allowed := l.global.Allow()
	if allowed {
		l.metrics.allowedRequests.Add(1)
	} else {
		l.metrics.deniedRequests.Add(1)
	}
	return allowed
}

// SetEndpointLimit overrides the limit and burst for one endpoint's bucket.
func (l *Limiter) SetEndpointLimit(endpoint string, requests int, period time.Duration) {
	rps := float64(requests) / period.Seconds()
	bucket := l.bucket(endpoint)
	bucket.SetLimit(rate.Limit(rps))
	bucket.SetBurst(requests)
}

func (l *Limiter) bucket(endpoint string) *rate.Limiter {
	if v, ok := l.buckets.Load(endpoint); ok {
		return v.(*rate.Limiter)
	}
	rps := float64(l.requests) / l.period.Seconds()
	limiter := rate.NewLimiter(rate.Limit(rps), l.requests)
	actual, _ := l.buckets.LoadOrStore(endpoint, limiter)
	return actual.(*rate.Limiter)
}

// Snapshot returns a point-in-time capture of limiter statistics.
func (l *Limiter) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		TotalRequests:   l.metrics.totalRequests.Load(),
		AllowedRequests: l.metrics.allowedRequests.Load(),
		DeniedRequests:  l.metrics.deniedRequests.Load(),
	}
}

// MetricsSnapshot is a point-in-time capture of limiter statistics.
type MetricsSnapshot struct {
	TotalRequests   int64
	AllowedRequests int64
	DeniedRequests  int64
}
