package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/lxzan/gws"
	"github.com/rs/zerolog"
)

// ErrConnClosed is returned by Receive and Send after Close.
var ErrConnClosed = errors.New("websocket connection closed")

// Frame is one inbound websocket message with its receipt time.
type Frame struct {
	Data    []byte
	Receipt time.Time
}

// WSConfig configures one websocket connection.
type WSConfig struct {
	URL     string
	Headers map[string]string

	ReconnectEnabled     bool
	ReconnectMaxAttempts int
	ReconnectBaseWait    time.Duration
	ReconnectMaxWait     time.Duration

	PingInterval time.Duration
	PongWait     time.Duration
	BufferSize   int

	// OnReconnect runs after a successful automatic reconnect, before any
	// frame from the new connection is delivered. The feed layer uses it to
	// signal the adapter to rebuild its book state and resubscribe.
	OnReconnect func()
}

// WSConn is a websocket connection delivering frames strictly in arrival
// order. A full frame buffer blocks the socket read loop rather than
// dropping: a slow consumer throttles the upstream read, it never causes
// reordering or silent loss.
type WSConn struct {
	config  WSConfig
	state   connState
	handler *wsEventHandler
	logger  zerolog.Logger

	mu                sync.Mutex
	conn              *gws.Conn
	connectedCh       chan struct{}
	reconnectAttempts int

	frames chan Frame
	stopCh chan struct{}
	wg     sync.WaitGroup
}

type wsEventHandler struct {
	conn *WSConn
}

// NewWSConn creates a WSConn with config defaults filled in.
func NewWSConn(config WSConfig) *WSConn {
	if config.ReconnectBaseWait == 0 {
		config.ReconnectBaseWait = 1 * time.Second
	}
	if config.ReconnectMaxWait == 0 {
		config.ReconnectMaxWait = 30 * time.Second
	}
	if config.ReconnectMaxAttempts == 0 {
		config.ReconnectMaxAttempts = 10
	}
	if config.PingInterval == 0 {
		config.PingInterval = 10 * time.Second
	}
	if config.PongWait == 0 {
		config.PongWait = 20 * time.Second
	}
	if config.BufferSize == 0 {
		config.BufferSize = 1024
	}

	c := &WSConn{
		config:      config,
		connectedCh: make(chan struct{}),
		frames:      make(chan Frame, config.BufferSize),
		stopCh:      make(chan struct{}),
		logger:      zerolog.Nop(),
	}
	c.state.store(StateDisconnected)
	c.handler = &wsEventHandler{conn: c}
	return c
}

// SetLogger replaces the connection's logger.
func (c *WSConn) SetLogger(logger zerolog.Logger) {
	c.logger = logger
}

// OnReconnect registers the callback invoked after a successful automatic
// reconnect, replacing any callback set in the config.
func (c *WSConn) OnReconnect(fn func()) {
	c.mu.Lock()
	c.config.OnReconnect = fn
	c.mu.Unlock()
}

// State returns the current connection state.
func (c *WSConn) State() ConnState {
	return c.state.load()
}

// Connect dials the configured URL and starts the read loop.
func (c *WSConn) Connect(ctx context.Context) error {
	if !c.state.compareAndSwap(StateDisconnected, StateConnecting) &&
		!c.state.compareAndSwap(StateReconnecting, StateConnecting) {
		current := c.state.load()
		if current == StateConnected {
			return nil
		}
		return fmt.Errorf("invalid state for connect: %s", current)
	}

	option := &gws.ClientOption{Addr: c.config.URL}
	if len(c.config.Headers) > 0 {
		option.RequestHeader = http.Header{}
		for k, v := range c.config.Headers {
			option.RequestHeader.Set(k, v)
		}
	}

	socket, _, err := gws.NewClient(c.handler, option)
	if err != nil {
		c.state.store(StateDisconnected)
		return fmt.Errorf("connect websocket: %w", err)
	}

	c.mu.Lock()
	c.conn = socket
	c.mu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		socket.ReadLoop()
	}()

	select {
	case <-c.connectedCh:
		return nil
	case <-ctx.Done():
		_ = socket.NetConn().Close()
		c.state.store(StateDisconnected)
		return ctx.Err()
	case <-c.stopCh:
		_ = socket.NetConn().Close()
		c.state.store(StateClosed)
		return ErrConnClosed
	}
}

// Send writes one text message to the socket.
func (c *WSConn) Send(ctx context.Context, msg []byte) error {
	select {
	case <-c.stopCh:
		return ErrConnClosed
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	c.mu.Lock()
	socket := c.conn
	c.mu.Unlock()

	if socket == nil || c.state.load() != StateConnected {
		return fmt.Errorf("send: not connected")
	}
	return socket.WriteMessage(gws.OpcodeText, msg)
}

// Receive blocks until the next inbound frame, ctx cancellation, or Close.
// Frames are delivered strictly in the order the socket produced them.
func (c *WSConn) Receive(ctx context.Context) ([]byte, time.Time, error) {
	select {
	case frame := <-c.frames:
		return frame.Data, frame.Receipt, nil
	case <-ctx.Done():
		return nil, time.Time{}, ctx.Err()
	case <-c.stopCh:
		// Drain anything already buffered before reporting closure.
		select {
		case frame := <-c.frames:
			return frame.Data, frame.Receipt, nil
		default:
			return nil, time.Time{}, ErrConnClosed
		}
	}
}

// Close tears the connection down. Book state release and goroutine
// shutdown are deterministic: Close returns only after the read loop has
// exited.
func (c *WSConn) Close() error {
	if !c.state.compareAndSwap(StateConnected, StateClosed) &&
		!c.state.compareAndSwap(StateConnecting, StateClosed) &&
		!c.state.compareAndSwap(StateReconnecting, StateClosed) &&
		!c.state.compareAndSwap(StateDisconnected, StateClosed) {
		return nil
	}

	close(c.stopCh)

	c.mu.Lock()
	if c.conn != nil {
		_ = c.conn.NetConn().Close()
	}
	c.mu.Unlock()

	c.wg.Wait()
	return nil
}

func (h *wsEventHandler) OnOpen(socket *gws.Conn) {
	h.conn.state.store(StateConnected)

	h.conn.mu.Lock()
	h.conn.reconnectAttempts = 0
	select {
	case <-h.conn.connectedCh:
	default:
		close(h.conn.connectedCh)
	}
	h.conn.mu.Unlock()

	h.conn.logger.Info().Str("url", h.conn.config.URL).Msg("websocket connected")
	_ = socket.SetDeadline(time.Now().Add(h.conn.config.PingInterval + h.conn.config.PongWait))
}

func (h *wsEventHandler) OnClose(socket *gws.Conn, err error) {
	h.conn.state.store(StateDisconnected)

	h.conn.mu.Lock()
	h.conn.connectedCh = make(chan struct{})
	h.conn.mu.Unlock()

	h.conn.logger.Warn().Err(err).Str("url", h.conn.config.URL).Msg("websocket disconnected")

	if h.conn.config.ReconnectEnabled {
		select {
		case <-h.conn.stopCh:
			return
		default:
			go h.conn.attemptReconnect()
		}
	}
}

func (h *wsEventHandler) OnPing(socket *gws.Conn, payload []byte) {
	_ = socket.SetDeadline(time.Now().Add(h.conn.config.PingInterval + h.conn.config.PongWait))
	_ = socket.WritePong(nil)
}

func (h *wsEventHandler) OnPong(socket *gws.Conn, payload []byte) {
	_ = socket.SetDeadline(time.Now().Add(h.conn.config.PingInterval + h.conn.config.PongWait))
}

func (h *wsEventHandler) OnMessage(socket *gws.Conn, message *gws.Message) {
	defer message.Close()

	if message.Data.Len() == 0 {
		return
	}

	// The gws buffer is recycled after Close; frames handed downstream own
	// their bytes.
	data := make([]byte, message.Data.Len())
	copy(data, message.Bytes())

	frame := Frame{Data: data, Receipt: time.Now()}
	select {
	case h.conn.frames <- frame:
	case <-h.conn.stopCh:
	}
}

func (c *WSConn) attemptReconnect() {
	if !c.state.compareAndSwap(StateDisconnected, StateReconnecting) {
		return
	}

	for attempt := 0; attempt < c.config.ReconnectMaxAttempts; attempt++ {
		select {
		case <-c.stopCh:
			return
		default:
		}

		wait := c.backoff(attempt)
		c.logger.Info().Dur("wait", wait).Int("attempt", attempt+1).Msg("attempting reconnect")

		select {
		case <-time.After(wait):
		case <-c.stopCh:
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := c.Connect(ctx)
		cancel()

		if err != nil {
			c.logger.Error().Err(err).Int("attempt", attempt+1).Msg("reconnect failed")
			c.state.store(StateReconnecting)
			continue
		}

		c.mu.Lock()
		onReconnect := c.config.OnReconnect
		c.mu.Unlock()
		if onReconnect != nil {
			onReconnect()
		}
		c.logger.Info().Msg("reconnected successfully")
		return
	}

	c.state.store(StateDisconnected)
	c.logger.Error().Msg("max reconnect attempts reached")
}

func (c *WSConn) backoff(attempt int) time.Duration {
	wait := c.config.ReconnectBaseWait
	for i := 0; i < attempt; i++ {
		wait *= 2
		if wait > c.config.ReconnectMaxWait {
			return c.config.ReconnectMaxWait
		}
	}
	return wait
}
