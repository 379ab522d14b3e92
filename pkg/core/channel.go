package core

// Channel is a named category of subscribable market data.
type Channel int

// Channel constants define the subscribable data categories.
const (
	// ChannelL2Book delivers order-book snapshots and incremental deltas.
	ChannelL2Book Channel = iota
	// ChannelTrades delivers public trade executions.
	ChannelTrades
	// ChannelOrderInfo delivers authenticated order lifecycle events.
	ChannelOrderInfo
	// ChannelFunding delivers funding-rate observations for perpetuals.
	ChannelFunding
)

// String returns the string representation of the channel.
func (c Channel) String() string {
	return [...]string{"l2_book", "trades", "order_info", "funding"}[c]
}

// MarshalJSON implements json.Marshaler for Channel.
func (c Channel) MarshalJSON() ([]byte, error) {
	return []byte(`"` + c.String() + `"`), nil
}

// Authenticated reports whether the channel requires signed subscription.
func (c Channel) Authenticated() bool {
	return c == ChannelOrderInfo
}

// MessageKind is the semantic classification of one inbound wire frame.
type MessageKind int

// Message kind constants returned by Adapter.Classify.
const (
	// KindBookUpdate is an order-book snapshot or delta frame.
	KindBookUpdate MessageKind = iota
	// KindTrade is a public trade execution frame.
	KindTrade
	// KindOrderEvent is an order lifecycle frame, single or batched.
	KindOrderEvent
	// KindHeartbeat is a keepalive frame carrying no data.
	KindHeartbeat
	// KindSubscriptionAck acknowledges a subscribe request.
	KindSubscriptionAck
	// KindIgnorable is a recognized frame the feed deliberately skips.
	KindIgnorable
	// KindUnrecognized is a frame missing its discriminator or carrying
	// a discriminator the adapter does not know.
	KindUnrecognized
)

// String returns the string representation of the message kind.
func (k MessageKind) String() string {
	return [...]string{
		"book_update",
		"trade",
		"order_event",
		"heartbeat",
		"subscription_ack",
		"ignorable",
		"unrecognized",
	}[k]
}
