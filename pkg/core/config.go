package core

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// Credentials holds API authentication credentials for an exchange.
// The secret is consumed only by the exchange signer; it is never logged
// and never echoed into raw payloads.
type Credentials struct {
	// APIKey is the public API key identifier.
	APIKey string `json:"api_key"`
	// SecretKey is the private key used for request signing.
	SecretKey string `json:"-"`
	// Account is an optional sub-account name included in signed payloads.
	Account string `json:"account,omitempty"`
}

// Config contains the configuration for one exchange feed connection.
type Config struct {
	Exchange    string       `json:"exchange" validate:"required"`
	Sandbox     bool         `json:"sandbox"`
	Credentials *Credentials `json:"credentials,omitempty"`

	// Timeout is the maximum duration for REST requests.
	Timeout      time.Duration `json:"timeout" validate:"min=1ms"`
	MaxRetries   int           `json:"max_retries" validate:"min=0"`
	RetryWaitMin time.Duration `json:"retry_wait_min" validate:"min=0"`
	RetryWaitMax time.Duration `json:"retry_wait_max" validate:"min=0"`

	// RateLimitRequests caps REST requests per RateLimitPeriod.
	RateLimitRequests int           `json:"rate_limit_requests" validate:"min=1"`
	RateLimitPeriod   time.Duration `json:"rate_limit_period" validate:"min=1ms"`

	// BufferSize is the inbound frame buffer per websocket connection.
	BufferSize int `json:"buffer_size" validate:"min=1"`

	// MaxDepth limits emitted book views; zero means the full book.
	MaxDepth int `json:"max_depth" validate:"min=0"`

	CircuitBreakerEnabled       bool          `json:"circuit_breaker_enabled"`
	CircuitBreakerFailThreshold int           `json:"circuit_breaker_fail_threshold"`
	CircuitBreakerTimeout       time.Duration `json:"circuit_breaker_timeout"`

	LogLevel string `json:"log_level" validate:"omitempty,oneof=debug info warn error"`
}

// DefaultConfig returns a Config with sensible defaults for the given exchange.
func DefaultConfig(exchange string) *Config {
	return &Config{
		Exchange:     exchange,
		Sandbox:      false,
		Timeout:      10 * time.Second,
		MaxRetries:   3,
		RetryWaitMin: 100 * time.Millisecond,
		RetryWaitMax: 1 * time.Second,

		RateLimitRequests: 60,
		RateLimitPeriod:   time.Minute,

		BufferSize: 1024,

		CircuitBreakerEnabled:       true,
		CircuitBreakerFailThreshold: 5,
		CircuitBreakerTimeout:       30 * time.Second,

		LogLevel: "info",
	}
}

var validate = validator.New()

// Validate checks the configuration against its struct constraints.
func (c *Config) Validate() error {
	return validate.Struct(c)
}

// WithCredentials sets the API credentials and returns the config for chaining.
func (c *Config) WithCredentials(creds *Credentials) *Config {
	c.Credentials = creds
	return c
}

// WithSandbox enables or disables sandbox mode and returns the config for chaining.
func (c *Config) WithSandbox(sandbox bool) *Config {
	c.Sandbox = sandbox
	return c
}

// WithRateLimit sets the REST rate limit and returns the config for chaining.
func (c *Config) WithRateLimit(requests int, period time.Duration) *Config {
	c.RateLimitRequests = requests
	c.RateLimitPeriod = period
	return c
}

// WithMaxDepth caps emitted book views and returns the config for chaining.
func (c *Config) WithMaxDepth(depth int) *Config {
	c.MaxDepth = depth
	return c
}
