package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedErrorWrapping(t *testing.T) {
	cause := errors.New("connection refused")
	err := WrapFeedError("gemini", ErrorTypeNetwork, "dial", cause)

	assert.ErrorIs(t, err, cause)
	assert.True(t, IsNetworkError(err))
	assert.False(t, IsAuthenticationError(err))
	assert.Contains(t, err.Error(), "gemini")
	assert.Contains(t, err.Error(), "NETWORK")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestIsErrorTypeThroughChain(t *testing.T) {
	inner := NewFeedError("gemini", ErrorTypeDiscovery, "fetch symbol list")
	wrapped := WrapFeedError("gemini", ErrorTypeNetwork, "bootstrap", inner)

	// errors.As finds the outermost FeedError.
	assert.True(t, IsNetworkError(wrapped))
	assert.True(t, IsDiscoveryError(inner))

	var fe *FeedError
	require.True(t, errors.As(wrapped, &fe))
	assert.Equal(t, ErrorTypeNetwork, fe.Type)
}

func TestIsErrorTypePlainError(t *testing.T) {
	assert.False(t, IsErrorType(errors.New("plain"), ErrorTypeNetwork))
	assert.False(t, IsErrorType(nil, ErrorTypeNetwork))
}
