package core

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType represents the category of a feed error.
type ErrorType int

// Error type constants categorize errors for handling and retry decisions.
const (
	// ErrorTypeUnknown indicates an unclassified error.
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeNetwork indicates a network connectivity issue.
	ErrorTypeNetwork
	// ErrorTypeTimeout indicates the request exceeded its deadline.
	ErrorTypeTimeout
	// ErrorTypeRateLimit indicates a request-rate ceiling was hit.
	ErrorTypeRateLimit
	// ErrorTypeAuthentication indicates invalid or missing credentials.
	ErrorTypeAuthentication
	// ErrorTypeMalformedFrame indicates a wire frame missing required fields.
	ErrorTypeMalformedFrame
	// ErrorTypeDiscovery indicates a symbol discovery failure.
	ErrorTypeDiscovery
	// ErrorTypeServerError indicates a server-side error.
	ErrorTypeServerError
)

// String returns the string representation of the error type.
func (t ErrorType) String() string {
	return [...]string{
		"UNKNOWN",
		"NETWORK",
		"TIMEOUT",
		"RATE_LIMIT",
		"AUTHENTICATION",
		"MALFORMED_FRAME",
		"DISCOVERY",
		"SERVER_ERROR",
	}[t]
}

// Sentinel errors for common feed conditions.
var (
	// ErrFeedClosed is returned when attempting to use a closed feed.
	ErrFeedClosed = errors.New("feed is closed")
	// ErrNotConnected is returned when the websocket is not connected.
	ErrNotConnected = errors.New("websocket not connected")
	// ErrNoCredentials is returned when an authenticated channel is
	// requested without configured credentials.
	ErrNoCredentials = errors.New("no credentials configured")
	// ErrUnknownSymbol is returned when a native symbol has no canonical mapping.
	ErrUnknownSymbol = errors.New("unknown symbol")
	// ErrCircuitBreakerOpen is returned when the REST circuit breaker is open.
	ErrCircuitBreakerOpen = errors.New("circuit breaker is open")
)

// FeedError is a structured error originating from one exchange feed.
type FeedError struct {
	// Type categorizes the error for programmatic handling.
	Type ErrorType `json:"type"`
	// Message is the human-readable error description.
	Message string `json:"message"`
	// Exchange identifies which exchange produced this error.
	Exchange string `json:"exchange"`
	// Timestamp is when the error occurred.
	Timestamp time.Time `json:"timestamp"`
	// Cause is the wrapped underlying error, if any.
	Cause error `json:"-"`
}

// Error implements the error interface for FeedError.
func (e *FeedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s: %v", e.Exchange, e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Exchange, e.Type, e.Message)
}

// Unwrap returns the wrapped cause for errors.Is / errors.As chains.
func (e *FeedError) Unwrap() error {
	return e.Cause
}

// NewFeedError creates a FeedError with the current timestamp.
func NewFeedError(exchange string, errorType ErrorType, message string) *FeedError {
	return &FeedError{
		Type:      errorType,
		Message:   message,
		Exchange:  exchange,
		Timestamp: time.Now(),
	}
}

// WrapFeedError creates a FeedError wrapping an underlying cause.
func WrapFeedError(exchange string, errorType ErrorType, message string, cause error) *FeedError {
	e := NewFeedError(exchange, errorType, message)
	e.Cause = cause
	return e
}

// IsErrorType reports whether err is a FeedError of the given type.
func IsErrorType(err error, t ErrorType) bool {
	var fe *FeedError
	if errors.As(err, &fe) {
		return fe.Type == t
	}
	return false
}

// IsNetworkError returns true for network connectivity failures.
func IsNetworkError(err error) bool { return IsErrorType(err, ErrorTypeNetwork) }

// IsAuthenticationError returns true for credential failures.
func IsAuthenticationError(err error) bool { return IsErrorType(err, ErrorTypeAuthentication) }

// IsDiscoveryError returns true for symbol discovery failures.
func IsDiscoveryError(err error) bool { return IsErrorType(err, ErrorTypeDiscovery) }
