// Package dispatch defines the callback contract between exchange adapters
// and downstream consumers, and provides an in-process ordered fan-out
// implementation of it.
package dispatch

import (
	"context"
	"sync"
	"time"

	"marketfeed/pkg/book"
	"marketfeed/pkg/core"
)

// BookEvent is one normalized order-book update.
//
// A nil Delta signals a forced full snapshot: the consumer must replace its
// local copy from the Book view wholesale. A non-nil Delta is an
// incremental diff against the consumer's prior copy.
type BookEvent struct {
	Symbol string
	// Book is a read-only view of the mutated replica.
	Book *book.Book
	// Delta lists the levels changed by this frame, nil for snapshots.
	Delta *book.Delta
	// Receipt is when the transport received the frame.
	Receipt time.Time
}

// TradeEvent is one normalized trade execution.
type TradeEvent struct {
	Trade   *core.Trade
	Receipt time.Time
}

// OrderInfoEvent is one normalized order lifecycle update.
type OrderInfoEvent struct {
	Order   *core.OrderInfo
	Receipt time.Time
}

// FundingEvent is one normalized funding-rate observation.
type FundingEvent struct {
	Funding *core.Funding
	Receipt time.Time
}

// Router receives normalized events from an adapter, strictly in the order
// the adapter produced them. A slow implementation may block and thereby
// throttle the upstream read loop; it must never reorder or drop events.
type Router interface {
	OnBook(ctx context.Context, ev *BookEvent) error
	OnTrade(ctx context.Context, ev *TradeEvent) error
	OnOrderInfo(ctx context.Context, ev *OrderInfoEvent) error
	OnFunding(ctx context.Context, ev *FundingEvent) error
}

// FanOut is an ordered, synchronous Router that invokes registered handlers
// in registration order. It satisfies the ordering contract by running on
// the caller's goroutine: the adapter's emission order is the invocation
// order.
type FanOut struct {
	mu       sync.RWMutex
	books    []func(context.Context, *BookEvent) error
	trades   []func(context.Context, *TradeEvent) error
	orders   []func(context.Context, *OrderInfoEvent) error
	fundings []func(context.Context, *FundingEvent) error
}

// NewFanOut creates an empty fan-out router.
func NewFanOut() *FanOut {
	return &FanOut{}
}

// RegisterBook adds a book update handler.
func (f *FanOut) RegisterBook(fn func(context.Context, *BookEvent) error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.books = append(f.books, fn)
}

// RegisterTrade adds a trade handler.
func (f *FanOut) RegisterTrade(fn func(context.Context, *TradeEvent) error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trades = append(f.trades, fn)
}

// RegisterOrderInfo adds an order lifecycle handler.
func (f *FanOut) RegisterOrderInfo(fn func(context.Context, *OrderInfoEvent) error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders = append(f.orders, fn)
}

// RegisterFunding adds a funding-rate handler.
func (f *FanOut) RegisterFunding(fn func(context.Context, *FundingEvent) error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fundings = append(f.fundings, fn)
}

// OnBook implements Router.
func (f *FanOut) OnBook(ctx context.Context, ev *BookEvent) error {
	f.mu.RLock()
	handlers := f.books
	f.mu.RUnlock()
	for _, fn := range handlers {
		if err := fn(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}

// OnTrade implements Router.
func (f *FanOut) OnTrade(ctx context.Context, ev *TradeEvent) error {
	f.mu.RLock()
	handlers := f.trades
	f.mu.RUnlock()
	for _, fn := range handlers {
		if err := fn(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}

// OnOrderInfo implements Router.
func (f *FanOut) OnOrderInfo(ctx context.Context, ev *OrderInfoEvent) error {
	f.mu.RLock()
	handlers := f.orders
	f.mu.RUnlock()
	for _, fn := range handlers {
		if err := fn(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}

// OnFunding implements Router.
func (f *FanOut) OnFunding(ctx context.Context, ev *FundingEvent) error {
	f.mu.RLock()
	handlers := f.fundings
	f.mu.RUnlock()
	for _, fn := range handlers {
		if err := fn(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}
