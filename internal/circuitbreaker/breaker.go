// Package circuitbreaker guards REST calls against a flapping upstream.
package circuitbreaker

import (
	"sync"
	"time"
)

// State is the breaker's current disposition.
type State int

// Breaker states.
const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

// String returns the string representation of the breaker state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

// Config holds breaker thresholds.
type Config struct {
	// FailThreshold is the consecutive failure count that opens the breaker.
	FailThreshold int
	// Timeout is how long the breaker stays open before probing.
	Timeout time.Duration
}

// Breaker is a consecutive-failure circuit breaker. After FailThreshold
// failures it rejects calls for Timeout, then allows a single probe; a
// successful probe closes it again.
type Breaker struct {
	mu           sync.Mutex
	state        State
	failures     int
	lastFailTime time.Time
	config       Config
}

// New creates a closed Breaker with the given config.
func New(config Config) *Breaker {
	return &Breaker{config: config}
}

// Allow reports whether a call may proceed, transitioning to half-open when
// the open timeout has elapsed.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed, StateHalfOpen:
		return true
	case StateOpen:
		if time.Since(b.lastFailTime) >= b.config.Timeout {
			b.state = StateHalfOpen
			return true
		}
		return false
	}
	return false
}

// Record feeds the outcome of a call into the breaker.
func (b *Breaker) Record(success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if success {
		b.failures = 0
		b.state = StateClosed
		return
	}

	b.failures++
	b.lastFailTime = time.Now()
	if b.state == StateHalfOpen || b.failures >= b.config.FailThreshold {
		b.state = StateOpen
	}
}

// State returns the breaker's current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Reset closes the breaker and clears its failure count.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateClosed
	b.failures = 0
}
