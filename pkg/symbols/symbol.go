// Package symbols provides the exchange-independent instrument model:
// canonical symbols, instrument metadata, and the catalog mapping canonical
// identifiers to exchange-native symbol strings.
package symbols

import "strings"

// InstrumentType identifies the kind of tradable instrument.
type InstrumentType string

// Instrument type constants.
const (
	// Spot is an immediately settled base/quote pair.
	Spot InstrumentType = "spot"
	// Perpetual is a perpetual swap contract.
	Perpetual InstrumentType = "perpetual"
	// Futures is a dated futures contract.
	Futures InstrumentType = "futures"
)

// Symbol is the exchange-independent instrument identifier. It is immutable
// once constructed and is the sole key into book, trade, and order-info
// structures across all adapters.
type Symbol struct {
	// Base is the base currency, upper case.
	Base string
	// Quote is the quote currency, upper case.
	Quote string
	// Type is the instrument type; spot when unset.
	Type InstrumentType
	// Expiry is the contract expiry tag for dated futures, empty otherwise.
	Expiry string
}

// New constructs a spot Symbol, normalizing base and quote casing.
func New(base, quote string) Symbol {
	return Symbol{
		Base:  strings.ToUpper(base),
		Quote: strings.ToUpper(quote),
		Type:  Spot,
	}
}

// NewDerivative constructs a derivative Symbol of the given type.
func NewDerivative(base, quote string, typ InstrumentType, expiry string) Symbol {
	return Symbol{
		Base:   strings.ToUpper(base),
		Quote:  strings.ToUpper(quote),
		Type:   typ,
		Expiry: strings.ToUpper(expiry),
	}
}

// Normalized returns the canonical string form of the symbol.
// Spot pairs render as BASE-QUOTE; perpetuals append -PERP and dated
// futures append the expiry tag.
func (s Symbol) Normalized() string {
	base := s.Base + "-" + s.Quote
	switch s.Type {
	case Perpetual:
		return base + "-PERP"
	case Futures:
		if s.Expiry != "" {
			return base + "-" + s.Expiry
		}
		return base
	default:
		return base
	}
}

// String returns the canonical string form of the symbol.
func (s Symbol) String() string {
	return s.Normalized()
}
