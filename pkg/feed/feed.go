// Package feed runs live exchange connections: it wires one websocket
// connection to one adapter, pushes inbound frames through the adapter in
// arrival order, and re-issues subscriptions after a reconnect.
package feed

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"marketfeed/internal/transport"
	"marketfeed/pkg/core"
	"marketfeed/pkg/exchange"
)

// Conn is the transport surface a Feed drives. transport.WSConn satisfies
// it; tests substitute a scripted fake.
type Conn interface {
	Connect(ctx context.Context) error
	Send(ctx context.Context, msg []byte) error
	Receive(ctx context.Context) ([]byte, time.Time, error)
	Close() error
}

// Feed is one live connection: a Conn feeding an Adapter feeding the
// router. Frames flow through a single goroutine per connection, so the
// adapter sees them strictly in arrival order.
type Feed struct {
	adapter exchange.Adapter
	conn    Conn
	logger  zerolog.Logger

	mu      sync.Mutex
	request *exchange.SubscriptionRequest
	closed  bool
}

// New creates a Feed over an existing connection.
func New(adapter exchange.Adapter, conn Conn, logger zerolog.Logger) *Feed {
	return &Feed{
		adapter: adapter,
		conn:    conn,
		logger:  logger.With().Str("exchange", adapter.Name()).Logger(),
	}
}

// Dial builds a websocket connection for the given endpoint, letting the
// adapter supply the address and any signed headers, and returns a Feed
// over it. The connection resubscribes on its own after a reconnect.
func Dial(cfg *core.Config, adapter exchange.Adapter, ep exchange.WebsocketEndpoint, logger zerolog.Logger) (*Feed, error) {
	addr, headers, err := adapter.Authenticate(ep)
	if err != nil {
		return nil, err
	}

	conn := transport.NewWSConn(transport.WSConfig{
		URL:              addr,
		Headers:          headers,
		ReconnectEnabled: true,
		BufferSize:       cfg.BufferSize,
	})
	conn.SetLogger(logger.With().Str("exchange", adapter.Name()).Logger())

	f := New(adapter, conn, logger)
	conn.OnReconnect(f.resubscribe)
	return f, nil
}

// Connect establishes the underlying connection.
func (f *Feed) Connect(ctx context.Context) error {
	return f.conn.Connect(ctx)
}

// Subscribe translates the request into exchange-native subscribe messages
// and sends them. The request is retained so it can be replayed after a
// reconnect. Calling Subscribe again replaces the active subscription.
func (f *Feed) Subscribe(ctx context.Context, req *exchange.SubscriptionRequest) error {
	msgs, err := f.adapter.BuildSubscribe(req)
	if err != nil {
		return err
	}

	f.mu.Lock()
	f.request = req
	f.mu.Unlock()

	for _, msg := range msgs {
		if err := f.conn.Send(ctx, msg); err != nil {
			return core.WrapFeedError(f.adapter.Name(), core.ErrorTypeNetwork, "send subscribe", err)
		}
	}
	return nil
}

// Run reads frames until the context is cancelled or the connection closes,
// handing each to the adapter in arrival order. On exit the adapter's book
// state is dropped so a later Run starts from a clean replica.
func (f *Feed) Run(ctx context.Context) error {
	defer f.adapter.Reset()

	for {
		frame, receipt, err := f.conn.Receive(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) ||
				errors.Is(err, context.DeadlineExceeded) ||
				errors.Is(err, transport.ErrConnClosed) {
				return nil
			}
			return core.WrapFeedError(f.adapter.Name(), core.ErrorTypeNetwork, "receive", err)
		}

		if err := f.adapter.Handle(ctx, frame, receipt); err != nil {
			return err
		}
	}
}

// Close tears the connection down. Safe to call more than once.
func (f *Feed) Close() error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil
	}
	f.closed = true
	f.mu.Unlock()

	return f.conn.Close()
}

// resubscribe replays the retained subscription on a fresh connection.
// BuildSubscribe resets the book replicas, so the first inbound update per
// symbol rebuilds the book from scratch.
func (f *Feed) resubscribe() {
	f.mu.Lock()
	req := f.request
	f.mu.Unlock()
	if req == nil {
		return
	}

	msgs, err := f.adapter.BuildSubscribe(req)
	if err != nil {
		f.logger.Error().Err(err).Msg("rebuild subscription after reconnect")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, msg := range msgs {
		if err := f.conn.Send(ctx, msg); err != nil {
			f.logger.Error().Err(err).Msg("resubscribe send")
			return
		}
	}
	f.logger.Info().Msg("resubscribed after reconnect")
}

// Group runs a set of feeds together and waits for all of them.
type Group struct {
	mu    sync.Mutex
	feeds []*Feed
}

// NewGroup creates an empty feed group.
func NewGroup() *Group {
	return &Group{}
}

// Add registers a feed with the group.
func (g *Group) Add(f *Feed) {
	g.mu.Lock()
	g.feeds = append(g.feeds, f)
	g.mu.Unlock()
}

// Run starts every feed's read loop and blocks until all have exited. The
// first error encountered is returned; a failing feed cancels the rest.
func (g *Group) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g.mu.Lock()
	feeds := make([]*Feed, len(g.feeds))
	copy(feeds, g.feeds)
	g.mu.Unlock()

	var wg sync.WaitGroup
	errCh := make(chan error, len(feeds))

	for _, f := range feeds {
		wg.Add(1)
		go func(f *Feed) {
			defer wg.Done()
			if err := f.Run(ctx); err != nil {
				errCh <- err
				cancel()
			}
		}(f)
	}

	wg.Wait()
	close(errCh)
	return <-errCh
}

// Close closes every feed in the group.
func (g *Group) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	var firstErr error
	for _, f := range g.feeds {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
