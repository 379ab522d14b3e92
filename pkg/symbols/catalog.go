package symbols

import (
	"fmt"

	"github.com/cockroachdb/apd/v3"
)

// Metadata holds the per-symbol instrument details from REST discovery.
type Metadata struct {
	// TickSize is the minimum price increment.
	TickSize apd.Decimal
	// Type is the instrument type.
	Type InstrumentType
}

// Instrument pairs a canonical symbol with its exchange-native identifier
// and discovery metadata. Exchange protocol code produces these from the
// raw discovery payload; the catalog indexes them.
type Instrument struct {
	Symbol   Symbol
	Native   string
	Metadata Metadata
}

// Catalog is the immutable canonical⇄native symbol mapping for one
// exchange. It is built once from REST discovery; a refresh replaces the
// whole catalog rather than mutating it, so readers never observe a
// partially updated mapping.
type Catalog struct {
	toNative    map[string]string
	toCanonical map[string]string
	meta        map[string]Metadata
}

// Build indexes the given instruments into a Catalog. The mapping must be
// injective: a duplicate canonical or native symbol is an error, because a
// collision would silently cross-wire two books.
func Build(instruments []Instrument) (*Catalog, error) {
	c := &Catalog{
		toNative:    make(map[string]string, len(instruments)),
		toCanonical: make(map[string]string, len(instruments)),
		meta:        make(map[string]Metadata, len(instruments)),
	}
	for _, inst := range instruments {
		canonical := inst.Symbol.Normalized()
		if _, ok := c.toNative[canonical]; ok {
			return nil, fmt.Errorf("duplicate canonical symbol %q", canonical)
		}
		if _, ok := c.toCanonical[inst.Native]; ok {
			return nil, fmt.Errorf("duplicate native symbol %q", inst.Native)
		}
		c.toNative[canonical] = inst.Native
		c.toCanonical[inst.Native] = canonical
		c.meta[canonical] = inst.Metadata
	}
	return c, nil
}

// Native resolves a canonical symbol to its exchange-native identifier.
func (c *Catalog) Native(canonical string) (string, bool) {
	n, ok := c.toNative[canonical]
	return n, ok
}

// Canonical resolves an exchange-native identifier to its canonical symbol.
func (c *Catalog) Canonical(native string) (string, bool) {
	s, ok := c.toCanonical[native]
	return s, ok
}

// Metadata returns the discovery metadata for a canonical symbol.
func (c *Catalog) Metadata(canonical string) (Metadata, bool) {
	m, ok := c.meta[canonical]
	return m, ok
}

// Symbols returns all canonical symbols in the catalog, in no particular order.
func (c *Catalog) Symbols() []string {
	out := make([]string, 0, len(c.toNative))
	for s := range c.toNative {
		out = append(out, s)
	}
	return out
}

// Len returns the number of instruments in the catalog.
func (c *Catalog) Len() int {
	return len(c.toNative)
}
