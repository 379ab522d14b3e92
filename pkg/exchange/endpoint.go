package exchange

import (
	"fmt"
	"slices"

	"marketfeed/pkg/core"
)

// Routes names the REST route templates an exchange exposes for the feed's
// bootstrap concerns. Templates use fmt verbs for path parameters.
type Routes struct {
	// Instruments is the per-instrument detail route.
	Instruments string
	// Currencies lists the instruments available for discovery.
	Currencies string
	// Authentication is the request path embedded in signed payloads.
	Authentication string
	// Funding is the funding-rate route for derivative venues.
	Funding string
}

// RestEndpoint describes one REST base URL with its routes and the
// per-endpoint request-rate ceiling (requests per second).
type RestEndpoint struct {
	BaseURL      string
	SandboxURL   string
	Routes       Routes
	RequestLimit int
}

// Address returns the base URL for the selected environment, falling back
// to production when no sandbox URL exists.
func (e RestEndpoint) Address(sandbox bool) string {
	if sandbox && e.SandboxURL != "" {
		return e.SandboxURL
	}
	return e.BaseURL
}

// Route renders a route template against the endpoint's base URL.
func (e RestEndpoint) Route(sandbox bool, template string, args ...any) string {
	return e.Address(sandbox) + fmt.Sprintf(template, args...)
}

// WebsocketEndpoint describes one websocket address and the channels it
// carries. Endpoints with Authentication set require signed headers at
// dial time.
type WebsocketEndpoint struct {
	URL            string
	SandboxURL     string
	Channels       []core.Channel
	Authentication bool
}

// Address returns the websocket URL for the selected environment, falling
// back to production when no sandbox URL exists.
func (e WebsocketEndpoint) Address(sandbox bool) string {
	if sandbox && e.SandboxURL != "" {
		return e.SandboxURL
	}
	return e.URL
}

// Carries reports whether the endpoint serves the given channel.
func (e WebsocketEndpoint) Carries(ch core.Channel) bool {
	return slices.Contains(e.Channels, ch)
}
