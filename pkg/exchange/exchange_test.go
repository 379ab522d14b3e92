package exchange

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketfeed/pkg/core"
	"marketfeed/pkg/symbols"
)

func TestSubscriptionRequestChannels(t *testing.T) {
	req := NewSubscriptionRequest().
		Add(core.ChannelTrades, "BTC-USD").
		Add(core.ChannelL2Book, "ETH-USD").
		Add(core.ChannelOrderInfo, "BTC-USD")

	// Channel order, not insertion order.
	assert.Equal(t,
		[]core.Channel{core.ChannelL2Book, core.ChannelTrades, core.ChannelOrderInfo},
		req.Channels())

	assert.True(t, req.Has(core.ChannelTrades))
	assert.False(t, req.Has(core.ChannelFunding))
	assert.Equal(t, []string{"ETH-USD"}, req.Symbols(core.ChannelL2Book))
}

func TestSubscriptionRequestAllSymbols(t *testing.T) {
	req := NewSubscriptionRequest().
		Add(core.ChannelL2Book, "BTC-USD", "ETH-USD").
		Add(core.ChannelTrades, "BTC-USD", "LTC-USD")

	assert.Equal(t, []string{"BTC-USD", "ETH-USD", "LTC-USD"}, req.AllSymbols())
}

func TestRestEndpointRoutes(t *testing.T) {
	ep := RestEndpoint{
		BaseURL:    "https://api.example.com",
		SandboxURL: "https://api.sandbox.example.com",
		Routes:     Routes{Instruments: "/v1/details/%s"},
	}

	assert.Equal(t, "https://api.example.com/v1/details/btcusd", ep.Route(false, ep.Routes.Instruments, "btcusd"))
	assert.Equal(t, "https://api.sandbox.example.com/v1/details/btcusd", ep.Route(true, ep.Routes.Instruments, "btcusd"))

	noSandbox := RestEndpoint{BaseURL: "https://api.example.com"}
	assert.Equal(t, "https://api.example.com", noSandbox.Address(true))
}

func TestWebsocketEndpointCarries(t *testing.T) {
	ep := WebsocketEndpoint{
		URL:      "wss://example.com",
		Channels: []core.Channel{core.ChannelL2Book, core.ChannelTrades},
	}
	assert.True(t, ep.Carries(core.ChannelL2Book))
	assert.False(t, ep.Carries(core.ChannelOrderInfo))
	assert.Equal(t, "wss://example.com", ep.Address(true), "missing sandbox URL falls back to production")
}

func TestStateTransitions(t *testing.T) {
	var s State
	assert.Equal(t, StateDisconnected, s.Load())

	assert.True(t, s.CompareAndSwap(StateDisconnected, StateSubscribing))
	assert.False(t, s.CompareAndSwap(StateDisconnected, StateStreaming))
	assert.Equal(t, StateSubscribing, s.Load())

	s.Store(StateStreaming)
	assert.Equal(t, "streaming", s.Load().String())
}

func TestMetricsSnapshot(t *testing.T) {
	var m Metrics
	m.RecordFrame()
	m.RecordFrame()
	m.RecordDropped()
	m.RecordUnknownStatus()

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.Frames)
	assert.Equal(t, int64(1), snap.DroppedFrames)
	assert.Equal(t, int64(1), snap.UnknownStatuses)
}

// stubAdapter is the minimal Adapter used to exercise the container.
type stubAdapter struct{ name string }

func (s *stubAdapter) Name() string                         { return s.name }
func (s *stubAdapter) Classify(frame []byte) core.MessageKind { return core.KindUnrecognized }
func (s *stubAdapter) Handle(ctx context.Context, frame []byte, receipt time.Time) error {
	return nil
}
func (s *stubAdapter) BuildSubscribe(req *SubscriptionRequest) ([][]byte, error) { return nil, nil }
func (s *stubAdapter) Authenticate(ep WebsocketEndpoint) (string, map[string]string, error) {
	return ep.URL, nil, nil
}
func (s *stubAdapter) Catalog() *symbols.Catalog { return nil }
func (s *stubAdapter) Reset()                    {}
func (s *stubAdapter) Metrics() MetricsSnapshot  { return MetricsSnapshot{} }

func TestContainer(t *testing.T) {
	c := NewContainer()
	a := &stubAdapter{name: "gemini"}

	c.Register("gemini", a)
	require.True(t, c.Exists("gemini"))

	got, err := c.Get("gemini")
	require.NoError(t, err)
	assert.Same(t, a, got.(*stubAdapter))

	assert.Equal(t, []string{"gemini"}, c.Names())

	_, err = c.Get("missing")
	assert.Error(t, err)

	c.Unregister("gemini")
	assert.False(t, c.Exists("gemini"))
}
