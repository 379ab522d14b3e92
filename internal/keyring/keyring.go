// Package keyring manages API credential sets for signing, with rotation
// away from keys that accumulate authentication failures.
package keyring

import (
	"sync"
	"time"
)

// errorRotateThreshold is the failure count at which a key is skipped.
const errorRotateThreshold = 3

// APIKey is one credential set. The secret is held for signing only and is
// never logged.
type APIKey struct {
	// ID is the public API key identifier.
	ID string
	// Secret is the private signing key.
	Secret string

	lastUsed   time.Time
	errorCount int
}

// Ring holds an ordered set of API keys and serves the active one.
type Ring struct {
	mu      sync.Mutex
	keys    []APIKey
	current int
}

// New creates a Ring over the given keys. The first key is active.
func New(keys []APIKey) *Ring {
	ring := &Ring{keys: make([]APIKey, len(keys))}
	copy(ring.keys, keys)
	return ring
}

// Current returns the active key, or nil when the ring is empty or every
// key has been rotated out.
func (r *Ring) Current() *APIKey {
	r.mu.Lock()
	defer r.mu.Unlock()

	for range r.keys {
		key := &r.keys[r.current]
		if key.errorCount < errorRotateThreshold {
			key.lastUsed = time.Now()
			return key
		}
		r.current = (r.current + 1) % len(r.keys)
	}
	return nil
}

// MarkError records an authentication failure against the active key and
// advances to the next key once it crosses the rotation threshold.
func (r *Ring) MarkError() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.keys) == 0 {
		return
	}
	key := &r.keys[r.current]
	key.errorCount++
	if key.errorCount >= errorRotateThreshold {
		r.current = (r.current + 1) % len(r.keys)
	}
}

// MarkSuccess clears the failure count on the active key.
func (r *Ring) MarkSuccess() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.keys) == 0 {
		return
	}
	r.keys[r.current].errorCount = 0
}

// Len returns the number of keys in the ring.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.keys)
}
