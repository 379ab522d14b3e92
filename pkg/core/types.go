package core

import (
	"time"

	"github.com/cockroachdb/apd/v3"
)

// OrderSide represents the direction of a trade or order (buy or sell).
type OrderSide int

// Order side constants define the direction of a trade.
const (
	// SideBuy indicates a purchase of the base asset.
	SideBuy OrderSide = iota
	// SideSell indicates a sale of the base asset.
	SideSell
)

// String returns the string representation of the order side ("BUY" or "SELL").
func (s OrderSide) String() string {
	return [...]string{"BUY", "SELL"}[s]
}

// MarshalJSON implements json.Marshaler for OrderSide.
func (s OrderSide) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler for OrderSide.
// It accepts both uppercase and lowercase formats.
func (s *OrderSide) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case `"BUY"`, `"buy"`:
		*s = SideBuy
	case `"SELL"`, `"sell"`:
		*s = SideSell
	}
	return nil
}

// OrderType represents the execution style of an order as reported by an exchange.
type OrderType int

// Order type constants define how an order executes.
const (
	// TypeLimit executes at a specified price or better.
	TypeLimit OrderType = iota
	// TypeMarket executes immediately at the best available price.
	TypeMarket
	// TypeStopLimit triggers a limit order when price reaches the stop price.
	TypeStopLimit
)

// String returns the string representation of the order type.
func (t OrderType) String() string {
	return [...]string{"LIMIT", "MARKET", "STOP_LIMIT"}[t]
}

// MarshalJSON implements json.Marshaler for OrderType.
func (t OrderType) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

// OrderStatus is the canonical lifecycle state of an order.
//
// It is deliberately a string type: an exchange may report a status the
// translation table does not know, and the raw value flows through
// unchanged rather than failing the event. Known returns false for such
// pass-through values.
type OrderStatus string

// Canonical order status constants.
const (
	// StatusSubmitting indicates the order was received but not yet resting.
	StatusSubmitting OrderStatus = "SUBMITTING"
	// StatusOpen indicates the order is resting on the book.
	StatusOpen OrderStatus = "OPEN"
	// StatusFilled indicates an execution against the order.
	StatusFilled OrderStatus = "FILLED"
	// StatusCancelled indicates the order was cancelled.
	StatusCancelled OrderStatus = "CANCELLED"
	// StatusFailed indicates the order was rejected by the exchange.
	StatusFailed OrderStatus = "FAILED"
)

// Known reports whether the status is one of the canonical constants,
// as opposed to an exchange-native value passed through untranslated.
func (s OrderStatus) Known() bool {
	switch s {
	case StatusSubmitting, StatusOpen, StatusFilled, StatusCancelled, StatusFailed:
		return true
	}
	return false
}

// Trade is one normalized trade execution event.
// Values are immutable once constructed; one Trade per execution frame.
type Trade struct {
	// Exchange identifies the exchange that produced the event.
	Exchange string `json:"exchange"`
	// Symbol is the canonical instrument identifier.
	Symbol string `json:"symbol"`
	// Side is the aggressor side of the execution.
	Side OrderSide `json:"side"`
	// Amount is the executed quantity.
	Amount apd.Decimal `json:"amount"`
	// Price is the execution price.
	Price apd.Decimal `json:"price"`
	// Timestamp is the exchange event time, millisecond precision preserved.
	Timestamp time.Time `json:"timestamp"`
	// ID is the exchange-native event identifier.
	ID string `json:"id"`
	// Raw is the wire frame the trade was decoded from.
	Raw []byte `json:"-"`
}

// OrderInfo is one normalized order lifecycle event. The exchange may emit
// many OrderInfo values for the same order id over its lifetime; the feed
// translates each one and performs no deduplication or history tracking.
type OrderInfo struct {
	// Exchange identifies the exchange that produced the event.
	Exchange string `json:"exchange"`
	// Symbol is the canonical instrument identifier.
	Symbol string `json:"symbol"`
	// OrderID is the exchange-native order identifier.
	OrderID string `json:"order_id"`
	// Side is the order direction.
	Side OrderSide `json:"side"`
	// Status is the canonical status, or the raw native status when unmapped.
	Status OrderStatus `json:"status"`
	// Type is the order execution style.
	Type OrderType `json:"type"`
	// Price is the order price.
	Price apd.Decimal `json:"price"`
	// ExecutedAmount is the quantity filled so far.
	ExecutedAmount apd.Decimal `json:"executed_amount"`
	// RemainingAmount is the quantity still open.
	RemainingAmount apd.Decimal `json:"remaining_amount"`
	// Timestamp is the exchange event time, millisecond precision preserved.
	Timestamp time.Time `json:"timestamp"`
	// Raw is the wire frame the event was decoded from.
	Raw []byte `json:"-"`
}

// Funding is one normalized funding-rate observation for a perpetual contract.
type Funding struct {
	Exchange string `json:"exchange"`
	// Symbol is the canonical instrument identifier.
	Symbol string `json:"symbol"`
	// Rate is the settled funding rate for the current interval.
	Rate apd.Decimal `json:"rate"`
	// PredictedRate is the estimated rate for the next interval, when provided.
	PredictedRate *apd.Decimal `json:"predicted_rate,omitempty"`
	// Timestamp is the funding settlement time.
	Timestamp time.Time `json:"timestamp"`
	// NextTimestamp is the next settlement time, zero when unknown.
	NextTimestamp time.Time `json:"next_timestamp"`
	Raw           []byte    `json:"-"`
}
