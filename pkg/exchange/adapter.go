// Package exchange defines the per-exchange adapter contract: the component
// that classifies inbound wire frames, maintains order-book replicas, and
// translates exchange-native encodings into the canonical event model.
package exchange

import (
	"context"
	"time"

	"marketfeed/pkg/core"
	"marketfeed/pkg/symbols"
)

// Adapter is the capability interface implemented once per exchange.
//
// One adapter instance serves one live connection. Frames must be handed to
// Handle strictly in arrival order; the adapter preserves that order
// through to callback emission. Shared cross-exchange behavior lives in
// helper packages the adapter composes, never in embedded base types.
type Adapter interface {
	// Name returns the exchange identifier (e.g. "gemini").
	Name() string

	// Classify inspects a frame's structural discriminator and returns its
	// semantic kind. A frame lacking the discriminator classifies as
	// KindUnrecognized; classification never fails.
	Classify(frame []byte) core.MessageKind

	// Handle classifies and processes one inbound frame, emitting zero or
	// more normalized events to the router. Malformed frames are logged and
	// dropped (nil error); only outer-envelope failures the transport layer
	// must see are returned.
	Handle(ctx context.Context, frame []byte, receipt time.Time) error

	// BuildSubscribe translates a canonical subscription request into
	// exchange-native subscribe messages and resets the book replica for
	// every symbol newly entering a book subscription, so the next inbound
	// update is treated as a forced full rebuild.
	BuildSubscribe(req *SubscriptionRequest) ([][]byte, error)

	// Authenticate prepares the dial address and signed headers for an
	// authenticated websocket endpoint. For unauthenticated endpoints it
	// returns the address unchanged with no headers.
	Authenticate(ep WebsocketEndpoint) (addr string, headers map[string]string, err error)

	// Catalog returns the symbol catalog built during discovery.
	Catalog() *symbols.Catalog

	// Reset drops all book state, typically on connection loss. The
	// transport layer owns the decision to call it.
	Reset()

	// Metrics returns a snapshot of the adapter's translation counters.
	Metrics() MetricsSnapshot
}

// SubscriptionRequest is the set of (channel, canonical symbols) pairs a
// caller wants from one connection.
type SubscriptionRequest struct {
	channels map[core.Channel][]string
}

// NewSubscriptionRequest creates an empty subscription request.
func NewSubscriptionRequest() *SubscriptionRequest {
	return &SubscriptionRequest{channels: make(map[core.Channel][]string)}
}

// Add appends canonical symbols to a channel's subscription and returns the
// request for chaining.
func (r *SubscriptionRequest) Add(ch core.Channel, syms ...string) *SubscriptionRequest {
	r.channels[ch] = append(r.channels[ch], syms...)
	return r
}

// Has reports whether the request includes the given channel.
func (r *SubscriptionRequest) Has(ch core.Channel) bool {
	_, ok := r.channels[ch]
	return ok
}

// Symbols returns the canonical symbols requested for a channel.
func (r *SubscriptionRequest) Symbols(ch core.Channel) []string {
	return r.channels[ch]
}

// Channels returns the channels present in the request, in channel order.
func (r *SubscriptionRequest) Channels() []core.Channel {
	out := make([]core.Channel, 0, len(r.channels))
	for ch := core.ChannelL2Book; ch <= core.ChannelFunding; ch++ {
		if _, ok := r.channels[ch]; ok {
			out = append(out, ch)
		}
	}
	return out
}

// AllSymbols returns the deduplicated union of symbols across all channels,
// preserving first-seen order.
func (r *SubscriptionRequest) AllSymbols() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, ch := range r.Channels() {
		for _, s := range r.channels[ch] {
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}
