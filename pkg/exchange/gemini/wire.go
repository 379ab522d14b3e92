package gemini

import "github.com/cockroachdb/apd/v3"

// envelope is the minimal structural view used for classification. Only
// the discriminator and routing fields are decoded; the full frame body is
// not parsed until interest is established.
type envelope struct {
	Type    string `json:"type"`
	Symbol  string `json:"symbol"`
	OrderID string `json:"order_id"`
}

// bookFrame is an l2_updates frame. Changes entries are
// [side, price, amount] string triples; amount "0" removes the level.
type bookFrame struct {
	Symbol  string     `json:"symbol"`
	Changes [][]string `json:"changes"`
}

// tradeFrame is a v2 market data trade execution.
type tradeFrame struct {
	Symbol    string      `json:"symbol"`
	Price     apd.Decimal `json:"price"`
	Quantity  apd.Decimal `json:"quantity"`
	Side      string      `json:"side"`
	Timestamp int64       `json:"timestamp"`
	EventID   int64       `json:"event_id"`
}

// orderFrame is one order lifecycle event from the order events socket.
// The socket delivers these either as a single object or as a JSON array.
type orderFrame struct {
	Type            string      `json:"type"`
	OrderID         string      `json:"order_id"`
	Symbol          string      `json:"symbol"`
	Side            string      `json:"side"`
	OrderType       string      `json:"order_type"`
	Price           apd.Decimal `json:"price"`
	ExecutedAmount  apd.Decimal `json:"executed_amount"`
	RemainingAmount apd.Decimal `json:"remaining_amount"`
	TimestampMS     int64       `json:"timestampms"`
}

// subscribeRequest is the native subscribe envelope for the market data socket.
type subscribeRequest struct {
	Type          string         `json:"type"`
	Subscriptions []subscription `json:"subscriptions"`
}

type subscription struct {
	Name    string   `json:"name"`
	Symbols []string `json:"symbols"`
}

// instrumentDetail is one REST discovery descriptor. TickSize arrives as a
// bare JSON number, so it is decoded as any and parsed as a decimal.
type instrumentDetail struct {
	Symbol        string `json:"symbol"`
	BaseCurrency  string `json:"base_currency"`
	QuoteCurrency string `json:"quote_currency"`
	TickSize      any    `json:"tick_size"`
	Status        string `json:"status"`
}
