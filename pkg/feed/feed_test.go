package feed

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketfeed/internal/transport"
	"marketfeed/pkg/book"
	"marketfeed/pkg/core"
	"marketfeed/pkg/dispatch"
	"marketfeed/pkg/exchange"
	"marketfeed/pkg/exchange/gemini"
	"marketfeed/pkg/symbols"
)

// scriptedConn plays back a fixed frame sequence, then reports closure.
type scriptedConn struct {
	frames    [][]byte
	sent      [][]byte
	connected bool
	closed    bool
}

func (c *scriptedConn) Connect(ctx context.Context) error {
	c.connected = true
	return nil
}

func (c *scriptedConn) Send(ctx context.Context, msg []byte) error {
	c.sent = append(c.sent, msg)
	return nil
}

func (c *scriptedConn) Receive(ctx context.Context) ([]byte, time.Time, error) {
	if len(c.frames) == 0 {
		return nil, time.Time{}, transport.ErrConnClosed
	}
	frame := c.frames[0]
	c.frames = c.frames[1:]
	return frame, time.Now(), nil
}

func (c *scriptedConn) Close() error {
	c.closed = true
	return nil
}

func testAdapter(t *testing.T, router dispatch.Router) *gemini.Adapter {
	t.Helper()
	catalog, err := symbols.Build([]symbols.Instrument{
		{Symbol: symbols.New("btc", "usd"), Native: "BTCUSD"},
	})
	require.NoError(t, err)
	return gemini.New(core.DefaultConfig(gemini.Name), catalog, router)
}

func TestFeedRunDeliversFramesInOrder(t *testing.T) {
	router := dispatch.NewFanOut()
	var events []*dispatch.BookEvent
	router.RegisterBook(func(ctx context.Context, ev *dispatch.BookEvent) error {
		events = append(events, ev)
		return nil
	})

	adapter := testAdapter(t, router)
	conn := &scriptedConn{frames: [][]byte{
		[]byte(`{"type":"subscription_ack"}`),
		[]byte(`{"type":"l2_updates","symbol":"BTCUSD","changes":[["buy","100","1"],["sell","101","1"]]}`),
		[]byte(`{"type":"l2_updates","symbol":"BTCUSD","changes":[["buy","100","0"]]}`),
	}}
	f := New(adapter, conn, zerolog.Nop())

	require.NoError(t, f.Connect(context.Background()))
	req := exchange.NewSubscriptionRequest().Add(core.ChannelL2Book, "BTC-USD")
	require.NoError(t, f.Subscribe(context.Background(), req))
	require.Len(t, conn.sent, 1)

	require.NoError(t, f.Run(context.Background()))

	require.Len(t, events, 2)
	assert.Nil(t, events[0].Delta, "first update is a forced snapshot")
	require.NotNil(t, events[1].Delta)
	assert.Equal(t, 1, events[1].Delta.Len())
}

func TestFeedRunResetsAdapterOnExit(t *testing.T) {
	router := dispatch.NewFanOut()
	adapter := testAdapter(t, router)
	conn := &scriptedConn{frames: [][]byte{
		[]byte(`{"type":"l2_updates","symbol":"BTCUSD","changes":[["buy","100","1"]]}`),
	}}
	f := New(adapter, conn, zerolog.Nop())

	req := exchange.NewSubscriptionRequest().Add(core.ChannelL2Book, "BTC-USD")
	require.NoError(t, f.Subscribe(context.Background(), req))
	require.NoError(t, f.Run(context.Background()))

	assert.True(t, adapter.Book("BTC-USD").IsEmpty(book.Bid), "book state must not survive the connection")
}

func TestFeedRunStopsOnRouterError(t *testing.T) {
	router := dispatch.NewFanOut()
	router.RegisterBook(func(ctx context.Context, ev *dispatch.BookEvent) error {
		return assert.AnError
	})

	adapter := testAdapter(t, router)
	conn := &scriptedConn{frames: [][]byte{
		[]byte(`{"type":"l2_updates","symbol":"BTCUSD","changes":[["buy","100","1"]]}`),
	}}
	f := New(adapter, conn, zerolog.Nop())

	req := exchange.NewSubscriptionRequest().Add(core.ChannelL2Book, "BTC-USD")
	require.NoError(t, f.Subscribe(context.Background(), req))

	err := f.Run(context.Background())
	assert.ErrorIs(t, err, assert.AnError)
}

func TestFeedRunHonorsContextCancellation(t *testing.T) {
	adapter := testAdapter(t, dispatch.NewFanOut())
	f := New(adapter, &blockingConn{}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// A cancelled context is an orderly shutdown, not an error.
	assert.NoError(t, f.Run(ctx))
}

// blockingConn blocks in Receive until the context is cancelled.
type blockingConn struct{}

func (c *blockingConn) Connect(ctx context.Context) error          { return nil }
func (c *blockingConn) Send(ctx context.Context, msg []byte) error { return nil }
func (c *blockingConn) Receive(ctx context.Context) ([]byte, time.Time, error) {
	<-ctx.Done()
	return nil, time.Time{}, ctx.Err()
}
func (c *blockingConn) Close() error { return nil }

func TestFeedSubscribeUnknownSymbol(t *testing.T) {
	adapter := testAdapter(t, dispatch.NewFanOut())
	conn := &scriptedConn{}
	f := New(adapter, conn, zerolog.Nop())

	req := exchange.NewSubscriptionRequest().Add(core.ChannelL2Book, "DOGE-USD")
	err := f.Subscribe(context.Background(), req)
	assert.ErrorIs(t, err, core.ErrUnknownSymbol)
	assert.Empty(t, conn.sent)
}

func TestFeedCloseIdempotent(t *testing.T) {
	adapter := testAdapter(t, dispatch.NewFanOut())
	conn := &scriptedConn{}
	f := New(adapter, conn, zerolog.Nop())

	require.NoError(t, f.Close())
	require.NoError(t, f.Close())
	assert.True(t, conn.closed)
}

func TestGroupRunsAllFeeds(t *testing.T) {
	adapterA := testAdapter(t, dispatch.NewFanOut())
	adapterB := testAdapter(t, dispatch.NewFanOut())
	connA := &scriptedConn{frames: [][]byte{[]byte(`{"type":"heartbeat"}`)}}
	connB := &scriptedConn{frames: [][]byte{[]byte(`{"type":"heartbeat"}`)}}

	g := NewGroup()
	g.Add(New(adapterA, connA, zerolog.Nop()))
	g.Add(New(adapterB, connB, zerolog.Nop()))

	require.NoError(t, g.Run(context.Background()))
	require.NoError(t, g.Close())
	assert.True(t, connA.closed)
	assert.True(t, connB.closed)
}
