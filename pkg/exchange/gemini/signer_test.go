package gemini

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketfeed/internal/keyring"
	"marketfeed/pkg/core"
)

func fixedNonce(n int64) func() int64 {
	return func() int64 { return n }
}

func TestHeadersDeterministicForFixedNonce(t *testing.T) {
	s := NewSigner(&core.Credentials{APIKey: "mykey", SecretKey: "mysecret"}).
		WithNonce(fixedNonce(123))

	headers, err := s.Headers("/v1/order/events")
	require.NoError(t, err)

	assert.Equal(t, "mykey", headers["X-GEMINI-APIKEY"])
	assert.Equal(t,
		"eyJyZXF1ZXN0IjoiL3YxL29yZGVyL2V2ZW50cyIsIm5vbmNlIjoxMjN9",
		headers["X-GEMINI-PAYLOAD"])
	assert.Equal(t,
		"c85ffc2b658eafe73997537df54d6b3f9f1310b84a9a0a1448cffc289670546ff84698dedbe17d87e723bfe02ae1c00e",
		headers["X-GEMINI-SIGNATURE"])

	// Byte-for-byte reproducible for the same payload and nonce.
	again, err := s.Headers("/v1/order/events")
	require.NoError(t, err)
	assert.Equal(t, headers, again)
}

func TestHeadersWithAccount(t *testing.T) {
	s := NewSigner(&core.Credentials{APIKey: "mykey", SecretKey: "mysecret", Account: "primary"}).
		WithNonce(fixedNonce(123))

	headers, err := s.Headers("/v1/order/events")
	require.NoError(t, err)

	assert.Equal(t,
		"eyJyZXF1ZXN0IjoiL3YxL29yZGVyL2V2ZW50cyIsIm5vbmNlIjoxMjMsImFjY291bnQiOiJwcmltYXJ5In0=",
		headers["X-GEMINI-PAYLOAD"])
	assert.Equal(t,
		"35b52d478ccfe0ad58bd0cb76c7a5ab47d84c921c99ebad932e08fef09ef62b1dff059e0566d54ee7b0400a466d2e775",
		headers["X-GEMINI-SIGNATURE"])
}

func TestClockNonceStrictlyIncreasing(t *testing.T) {
	nonce := clockNonce()
	prev := nonce()
	for i := 0; i < 1000; i++ {
		next := nonce()
		require.Greater(t, next, prev)
		prev = next
	}
}

func TestHeadersExhaustedRing(t *testing.T) {
	ring := keyring.New([]keyring.APIKey{{ID: "k", Secret: "s"}})
	s := NewSignerWithRing(ring, "")
	for i := 0; i < 3; i++ {
		s.MarkError()
	}

	_, err := s.Headers("/v1/order/events")
	assert.ErrorIs(t, err, core.ErrNoCredentials)
}

func TestHeadersRotateToSecondKey(t *testing.T) {
	ring := keyring.New([]keyring.APIKey{
		{ID: "first", Secret: "s1"},
		{ID: "second", Secret: "s2"},
	})
	s := NewSignerWithRing(ring, "").WithNonce(fixedNonce(1))

	for i := 0; i < 3; i++ {
		s.MarkError()
	}

	headers, err := s.Headers("/v1/order/events")
	require.NoError(t, err)
	assert.Equal(t, "second", headers["X-GEMINI-APIKEY"])
}
