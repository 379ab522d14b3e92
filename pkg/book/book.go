// Package book maintains per-symbol order-book replicas reconstructed from
// exchange delta streams.
package book

import (
	"sort"

	"github.com/cockroachdb/apd/v3"
)

// Side identifies one side of the order book.
type Side int

// Book side constants.
const (
	// Bid is the buy side, conceptually ordered by descending price.
	Bid Side = iota
	// Ask is the sell side, conceptually ordered by ascending price.
	Ask
)

// String returns the string representation of the book side.
func (s Side) String() string {
	return [...]string{"bid", "ask"}[s]
}

// Level is one price level: a price and the total size resting at it.
type Level struct {
	Price apd.Decimal `json:"price"`
	Size  apd.Decimal `json:"size"`
}

// Delta records the per-level changes introduced by one inbound frame.
// A level with zero size denotes a removal. Deltas are ephemeral: built
// while applying a frame, handed to the callback, then dropped.
type Delta struct {
	Bids []Level `json:"bids"`
	Asks []Level `json:"asks"`
}

// Len returns the total number of changed levels in the delta.
func (d *Delta) Len() int {
	return len(d.Bids) + len(d.Asks)
}

func (d *Delta) add(side Side, lvl Level) {
	if side == Bid {
		d.Bids = append(d.Bids, lvl)
	} else {
		d.Asks = append(d.Asks, lvl)
	}
}

// Book is the in-memory replica of one symbol's two-sided order book.
//
// A Book is exclusively owned by the adapter instance for its exchange
// connection; no other component writes to it. Price levels with zero size
// are never stored. Levels are keyed by the reduced decimal text of the
// price, so "100.0" and "100.00" address the same level.
type Book struct {
	symbol string
	bids   map[string]Level
	asks   map[string]Level
}

// New creates an empty replica for the given canonical symbol.
func New(symbol string) *Book {
	return &Book{
		symbol: symbol,
		bids:   make(map[string]Level),
		asks:   make(map[string]Level),
	}
}

// Symbol returns the canonical symbol this replica tracks.
func (b *Book) Symbol() string {
	return b.symbol
}

func (b *Book) side(s Side) map[string]Level {
	if s == Bid {
		return b.bids
	}
	return b.asks
}

// priceKey returns the canonical map key for a price. Reducing strips
// trailing zeros so differently formatted wire texts of the same value
// address one level.
func priceKey(price *apd.Decimal) string {
	var r apd.Decimal
	r.Reduce(price)
	return r.Text('f')
}

// Apply upserts or removes one price level.
//
// A zero size removes the level if present; otherwise the level is set to
// the given size. The return value reports whether the book changed: an
// upsert always changes it, a removal only if the level existed. When the
// book changed and delta is non-nil, the change is appended to it (removals
// as zero-size levels).
func (b *Book) Apply(side Side, price, size apd.Decimal, delta *Delta) bool {
	levels := b.side(side)
	key := priceKey(&price)

	if size.IsZero() {
		if _, ok := levels[key]; !ok {
			return false
		}
		delete(levels, key)
		if delta != nil {
			delta.add(side, Level{Price: price, Size: apd.Decimal{}})
		}
		return true
	}

	levels[key] = Level{Price: price, Size: size}
	if delta != nil {
		delta.add(side, Level{Price: price, Size: size})
	}
	return true
}

// IsEmpty reports whether the given side has no levels. Emptiness of the
// bid side at frame entry is the signal that the next update is the first
// since (re)subscription and must be emitted as a full snapshot.
func (b *Book) IsEmpty(side Side) bool {
	return len(b.side(side)) == 0
}

// Len returns the number of levels on the given side.
func (b *Book) Len(side Side) int {
	return len(b.side(side))
}

// Snapshot returns sorted copies of both sides: bids descending, asks
// ascending. A positive depth truncates each side to its top levels; zero
// returns the full book. The returned slices are detached from the replica
// and safe to hand to consumers.
func (b *Book) Snapshot(depth int) (bids, asks []Level) {
	bids = sortedLevels(b.bids, true)
	asks = sortedLevels(b.asks, false)
	if depth > 0 {
		if len(bids) > depth {
			bids = bids[:depth]
		}
		if len(asks) > depth {
			asks = asks[:depth]
		}
	}
	return bids, asks
}

func sortedLevels(levels map[string]Level, descending bool) []Level {
	out := make([]Level, 0, len(levels))
	for _, lvl := range levels {
		out = append(out, lvl)
	}
	sort.Slice(out, func(i, j int) bool {
		cmp := out[i].Price.Cmp(&out[j].Price)
		if descending {
			return cmp > 0
		}
		return cmp < 0
	})
	return out
}

// Reset drops all levels on both sides. The next applied update is then
// treated as a forced full rebuild.
func (b *Book) Reset() {
	b.bids = make(map[string]Level)
	b.asks = make(map[string]Level)
}
