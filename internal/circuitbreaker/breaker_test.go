package circuitbreaker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBreaker() *Breaker {
	return New(Config{FailThreshold: 3, Timeout: 50 * time.Millisecond})
}

func TestOpensAfterConsecutiveFailures(t *testing.T) {
	b := newTestBreaker()
	require.Equal(t, StateClosed, b.State())

	b.Record(false)
	b.Record(false)
	assert.True(t, b.Allow(), "below threshold calls pass")

	b.Record(false)
	assert.Equal(t, StateOpen, b.State())
	assert.False(t, b.Allow())
}

func TestSuccessResetsFailureStreak(t *testing.T) {
	b := newTestBreaker()

	b.Record(false)
	b.Record(false)
	b.Record(true)
	b.Record(false)
	b.Record(false)

	assert.Equal(t, StateClosed, b.State())
	assert.True(t, b.Allow())
}

func TestHalfOpenProbe(t *testing.T) {
	b := newTestBreaker()
	for i := 0; i < 3; i++ {
		b.Record(false)
	}
	require.False(t, b.Allow())

	time.Sleep(60 * time.Millisecond)
	assert.True(t, b.Allow(), "open timeout elapsed, probe allowed")
	assert.Equal(t, StateHalfOpen, b.State())

	// A failed probe reopens immediately.
	b.Record(false)
	assert.Equal(t, StateOpen, b.State())

	time.Sleep(60 * time.Millisecond)
	require.True(t, b.Allow())
	b.Record(true)
	assert.Equal(t, StateClosed, b.State())
}

func TestReset(t *testing.T) {
	b := newTestBreaker()
	for i := 0; i < 3; i++ {
		b.Record(false)
	}
	require.Equal(t, StateOpen, b.State())

	b.Reset()
	assert.Equal(t, StateClosed, b.State())
	assert.True(t, b.Allow())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "CLOSED", StateClosed.String())
	assert.Equal(t, "OPEN", StateOpen.String())
	assert.Equal(t, "HALF_OPEN", StateHalfOpen.String())
}
