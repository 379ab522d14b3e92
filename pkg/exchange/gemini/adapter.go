package gemini

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/apd/v3"
	"github.com/rs/zerolog"

	"marketfeed/pkg/book"
	"marketfeed/pkg/core"
	"marketfeed/pkg/dispatch"
	"marketfeed/pkg/exchange"
	"marketfeed/pkg/symbols"
)

// Adapter translates Gemini wire frames into the canonical event model.
// One instance serves one live connection: frames are handed to Handle
// strictly in arrival order by the connection's read loop, and book
// replicas are owned exclusively by this instance.
type Adapter struct {
	config  *core.Config
	catalog *symbols.Catalog
	router  dispatch.Router
	signer  *Signer
	logger  zerolog.Logger
	state   exchange.State
	metrics exchange.Metrics

	mu sync.RWMutex
	// books holds the replica per canonical symbol with book interest.
	books map[string]*book.Book
	// bookInterest maps native symbols to canonical for symbols whose book
	// updates the subscriber wants. Frames for other symbols are discarded
	// before their changes array is parsed.
	bookInterest map[string]string
	// authedNatives are the native symbols filtered onto the order events socket.
	authedNatives []string
}

// New creates an Adapter for the given catalog and router. A signer is
// constructed when the config carries credentials.
func New(cfg *core.Config, catalog *symbols.Catalog, router dispatch.Router) *Adapter {
	a := &Adapter{
		config:       cfg,
		catalog:      catalog,
		router:       router,
		logger:       zerolog.Nop(),
		books:        make(map[string]*book.Book),
		bookInterest: make(map[string]string),
	}
	if cfg.Credentials != nil {
		a.signer = NewSigner(cfg.Credentials)
	}
	a.state.Store(exchange.StateDisconnected)
	return a
}

// SetLogger replaces the adapter's logger.
func (a *Adapter) SetLogger(logger zerolog.Logger) {
	a.logger = logger
}

// SetSigner replaces the adapter's signer, for multi-key rings or test
// nonce injection.
func (a *Adapter) SetSigner(s *Signer) {
	a.signer = s
}

// Name implements exchange.Adapter.
func (a *Adapter) Name() string {
	return Name
}

// Catalog implements exchange.Adapter.
func (a *Adapter) Catalog() *symbols.Catalog {
	return a.catalog
}

// State returns the adapter's lifecycle state.
func (a *Adapter) State() exchange.AdapterState {
	return a.state.Load()
}

// Metrics implements exchange.Adapter.
func (a *Adapter) Metrics() exchange.MetricsSnapshot {
	return a.metrics.Snapshot()
}

// Book returns the replica for a canonical symbol, or nil. Callers outside
// the connection goroutine must treat the replica as a read-only snapshot
// view for diagnostics.
func (a *Adapter) Book(canonical string) *book.Book {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.books[canonical]
}

// Classify implements exchange.Adapter. A JSON array is a batched order
// event frame; objects classify on their "type" discriminator. A frame
// lacking the discriminator is Unrecognized, never an error: the read loop
// must continue past it.
func (a *Adapter) Classify(frame []byte) core.MessageKind {
	kind, _ := a.classify(frame)
	return kind
}

// classify decodes the envelope once and hands it back with the kind, so
// handlers reuse the routing fields instead of re-parsing the frame.
func (a *Adapter) classify(frame []byte) (core.MessageKind, envelope) {
	var env envelope

	trimmed := bytes.TrimLeft(frame, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return core.KindOrderEvent, env
	}

	if err := sonic.Unmarshal(frame, &env); err != nil {
		return core.KindUnrecognized, env
	}

	switch env.Type {
	case "":
		return core.KindUnrecognized, env
	case "l2_updates":
		return core.KindBookUpdate, env
	case "trade":
		return core.KindTrade, env
	case "heartbeat":
		return core.KindHeartbeat, env
	case "subscription_ack":
		return core.KindSubscriptionAck, env
	case "auction_result", "auction_indicative", "auction_open":
		return core.KindIgnorable, env
	default:
		// Order lifecycle frames discriminate on their status vocabulary,
		// not a fixed tag; the order id marks them.
		if env.OrderID != "" {
			return core.KindOrderEvent, env
		}
		return core.KindUnrecognized, env
	}
}

// Handle implements exchange.Adapter. Malformed frames are dropped with a
// warning; returned errors are either router errors (consumer
// backpressure/failure) or conditions the transport layer owns.
func (a *Adapter) Handle(ctx context.Context, frame []byte, receipt time.Time) error {
	a.metrics.RecordFrame()

	kind, env := a.classify(frame)
	switch kind {
	case core.KindBookUpdate:
		return a.handleBook(ctx, frame, env.Symbol, receipt)
	case core.KindTrade:
		return a.handleTrade(ctx, frame, receipt)
	case core.KindOrderEvent:
		return a.handleOrderEvents(ctx, frame, receipt)
	case core.KindHeartbeat, core.KindIgnorable:
		return nil
	case core.KindSubscriptionAck:
		a.markStreaming()
		a.logger.Info().Msg("subscription acknowledged")
		return nil
	default:
		a.dropFrame(frame, "unrecognized message")
		return nil
	}
}

// markStreaming moves the adapter into the steady state once the exchange
// acknowledges the subscription or, absent an ack, once data flows.
func (a *Adapter) markStreaming() {
	if !a.state.CompareAndSwap(exchange.StateSubscribing, exchange.StateStreaming) {
		a.state.CompareAndSwap(exchange.StateResubscribing, exchange.StateStreaming)
	}
}

func (a *Adapter) dropFrame(frame []byte, reason string) {
	a.metrics.RecordDropped()
	a.logger.Warn().Str("frame", string(frame)).Msg(reason)
}

type bookChange struct {
	side  book.Side
	price apd.Decimal
	size  apd.Decimal
}

func (a *Adapter) handleBook(ctx context.Context, frame []byte, symbol string, receipt time.Time) error {
	a.markStreaming()

	// Gemini multiplexes all of a symbol's data onto one socket; bail
	// before parsing the changes array when the subscriber has no book
	// interest in this symbol.
	a.mu.RLock()
	canonical, wanted := a.bookInterest[symbol]
	a.mu.RUnlock()
	if !wanted {
		return nil
	}

	var msg bookFrame
	if err := sonic.Unmarshal(frame, &msg); err != nil {
		a.dropFrame(frame, "undecodable book frame")
		return nil
	}

	// Parse every change before mutating the replica so a malformed entry
	// drops the whole frame without a half-applied book.
	changes := make([]bookChange, 0, len(msg.Changes))
	for _, entry := range msg.Changes {
		if len(entry) < 3 {
			a.dropFrame(frame, "book change entry missing fields")
			return nil
		}
		var ch bookChange
		if entry[0] == "sell" {
			ch.side = book.Ask
		} else {
			ch.side = book.Bid
		}
		if err := core.ParseDecimal(&ch.price, entry[1]); err != nil {
			a.dropFrame(frame, "unparseable book price")
			return nil
		}
		if err := core.ParseDecimal(&ch.size, entry[2]); err != nil {
			a.dropFrame(frame, "unparseable book size")
			return nil
		}
		changes = append(changes, ch)
	}

	a.mu.Lock()
	b := a.books[canonical]
	if b == nil {
		b = book.New(canonical)
		a.books[canonical] = b
	}
	a.mu.Unlock()

	// Emptiness of the bid side at entry marks the first update since
	// (re)subscription. The apply path is identical either way; only the
	// emitted delta differs, nil signalling a full snapshot downstream.
	forced := b.IsEmpty(book.Bid)
	delta := &book.Delta{}
	for _, ch := range changes {
		b.Apply(ch.side, ch.price, ch.size, delta)
	}

	ev := &dispatch.BookEvent{
		Symbol:  canonical,
		Book:    b,
		Receipt: receipt,
	}
	if !forced {
		ev.Delta = delta
	}
	return a.router.OnBook(ctx, ev)
}

func (a *Adapter) handleTrade(ctx context.Context, frame []byte, receipt time.Time) error {
	a.markStreaming()

	var msg tradeFrame
	if err := sonic.Unmarshal(frame, &msg); err != nil {
		a.dropFrame(frame, "undecodable trade frame")
		return nil
	}

	canonical, ok := a.catalog.Canonical(strings.ToUpper(msg.Symbol))
	if !ok {
		a.dropFrame(frame, "trade for unknown symbol")
		return nil
	}

	side := core.SideBuy
	if msg.Side == "sell" {
		side = core.SideSell
	}

	trade := &core.Trade{
		Exchange:  Name,
		Symbol:    canonical,
		Side:      side,
		Amount:    msg.Quantity,
		Price:     msg.Price,
		Timestamp: time.UnixMilli(msg.Timestamp),
		ID:        strconv.FormatInt(msg.EventID, 10),
		Raw:       frame,
	}
	return a.router.OnTrade(ctx, &dispatch.TradeEvent{Trade: trade, Receipt: receipt})
}

// handleOrderEvents accepts both shapes the order events socket produces: a
// single event object or a JSON array of them. Events are emitted one
// OrderInfo per logical event, preserving array order.
func (a *Adapter) handleOrderEvents(ctx context.Context, frame []byte, receipt time.Time) error {
	a.markStreaming()

	var events []orderFrame
	trimmed := bytes.TrimLeft(frame, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := sonic.Unmarshal(frame, &events); err != nil {
			a.dropFrame(frame, "undecodable order event batch")
			return nil
		}
	} else {
		var one orderFrame
		if err := sonic.Unmarshal(frame, &one); err != nil {
			a.dropFrame(frame, "undecodable order event")
			return nil
		}
		events = []orderFrame{one}
	}

	for i := range events {
		info := a.normalizeOrder(&events[i], frame)
		if err := a.router.OnOrderInfo(ctx, &dispatch.OrderInfoEvent{Order: info, Receipt: receipt}); err != nil {
			return err
		}
	}
	return nil
}

func (a *Adapter) normalizeOrder(f *orderFrame, raw []byte) *core.OrderInfo {
	var status core.OrderStatus
	switch f.Type {
	case "initial", "accepted":
		status = core.StatusSubmitting
	case "fill":
		status = core.StatusFilled
	case "booked":
		status = core.StatusOpen
	case "rejected":
		status = core.StatusFailed
	case "cancelled":
		status = core.StatusCancelled
	default:
		// Forward compatibility: a status the table does not know flows
		// through as data. The counter keeps protocol drift visible.
		status = core.OrderStatus(f.Type)
		a.metrics.RecordUnknownStatus()
		a.logger.Warn().Str("status", f.Type).Msg("passing through unmapped order status")
	}

	side := core.SideSell
	if strings.ToLower(f.Side) == "buy" {
		side = core.SideBuy
	}

	orderType := core.TypeStopLimit
	if f.OrderType == "exchange limit" {
		orderType = core.TypeLimit
	}

	native := strings.ToUpper(f.Symbol)
	canonical, ok := a.catalog.Canonical(native)
	if !ok {
		canonical = native
	}

	return &core.OrderInfo{
		Exchange:        Name,
		Symbol:          canonical,
		OrderID:         f.OrderID,
		Side:            side,
		Status:          status,
		Type:            orderType,
		Price:           f.Price,
		ExecutedAmount:  f.ExecutedAmount,
		RemainingAmount: f.RemainingAmount,
		Timestamp:       time.UnixMilli(f.TimestampMS),
		Raw:             raw,
	}
}

// BuildSubscribe implements exchange.Adapter. It produces the native
// subscribe envelope for the market data socket and re-creates the replica
// for every symbol entering a book subscription, so the next inbound update
// for that symbol is emitted as a forced full snapshot.
func (a *Adapter) BuildSubscribe(req *exchange.SubscriptionRequest) ([][]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	seen := make(map[string]struct{})
	var natives []string
	for _, ch := range []core.Channel{core.ChannelL2Book, core.ChannelTrades} {
		for _, canonical := range req.Symbols(ch) {
			native, ok := a.catalog.Native(canonical)
			if !ok {
				return nil, fmt.Errorf("%w: %s", core.ErrUnknownSymbol, canonical)
			}
			if _, dup := seen[native]; dup {
				continue
			}
			seen[native] = struct{}{}
			natives = append(natives, native)
		}
	}

	a.bookInterest = make(map[string]string)
	for _, canonical := range req.Symbols(core.ChannelL2Book) {
		native, _ := a.catalog.Native(canonical)
		a.bookInterest[native] = canonical
		a.books[canonical] = book.New(canonical)
	}

	a.authedNatives = a.authedNatives[:0]
	for _, canonical := range req.Symbols(core.ChannelOrderInfo) {
		native, ok := a.catalog.Native(canonical)
		if !ok {
			return nil, fmt.Errorf("%w: %s", core.ErrUnknownSymbol, canonical)
		}
		a.authedNatives = append(a.authedNatives, native)
	}

	if !a.state.CompareAndSwap(exchange.StateStreaming, exchange.StateResubscribing) {
		a.state.Store(exchange.StateSubscribing)
	}

	if len(natives) == 0 {
		// Only authenticated channels requested; the order events socket
		// subscribes through its dial URL, not a subscribe message.
		return nil, nil
	}

	msg, err := sonic.Marshal(subscribeRequest{
		Type: "subscribe",
		Subscriptions: []subscription{
			{Name: "l2", Symbols: natives},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal subscribe: %w", err)
	}
	return [][]byte{msg}, nil
}

// Authenticate implements exchange.Adapter. The order events socket takes
// its symbol filter as query parameters (lower case, matching the REST
// format) and its authentication as signed headers.
func (a *Adapter) Authenticate(ep exchange.WebsocketEndpoint) (string, map[string]string, error) {
	addr := ep.Address(a.config.Sandbox)
	if !ep.Authentication {
		return addr, nil, nil
	}
	if a.signer == nil {
		return "", nil, core.ErrNoCredentials
	}

	headers, err := a.signer.Headers(RestEndpoint().Routes.Authentication)
	if err != nil {
		return "", nil, err
	}

	a.mu.RLock()
	natives := make([]string, len(a.authedNatives))
	copy(natives, a.authedNatives)
	a.mu.RUnlock()

	if len(natives) > 0 {
		filters := make([]string, len(natives))
		for i, n := range natives {
			filters[i] = "symbolFilter=" + strings.ToLower(n)
		}
		addr += "?" + strings.Join(filters, "&")
	}
	return addr, headers, nil
}

// Reset implements exchange.Adapter: it drops all book state so the next
// update per symbol rebuilds from scratch. The transport layer owns the
// decision to call it, typically on connection loss.
func (a *Adapter) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for canonical := range a.books {
		a.books[canonical] = book.New(canonical)
	}
	a.state.Store(exchange.StateDisconnected)
}
