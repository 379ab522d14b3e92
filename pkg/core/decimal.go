package core

import (
	"fmt"

	"github.com/cockroachdb/apd/v3"
)

// ParseDecimal sets dest from the wire text of a numeric field.
//
// Price, size, and amount fields are always parsed from their textual wire
// representation. Round-tripping through float64 would alias nearby price
// levels and corrupt book keys.
func ParseDecimal(dest *apd.Decimal, s string) error {
	if s == "" {
		*dest = apd.Decimal{}
		return nil
	}
	if _, _, err := apd.BaseContext.SetString(dest, s); err != nil {
		return fmt.Errorf("set decimal from %q: %w", s, err)
	}
	return nil
}

// ParseDecimalFromAny sets dest from a decoded JSON value that may be a
// string or a bare JSON number.
func ParseDecimalFromAny(dest *apd.Decimal, val any) error {
	switch v := val.(type) {
	case string:
		return ParseDecimal(dest, v)
	case float64:
		_, _, err := apd.BaseContext.SetString(dest, fmt.Sprintf("%v", v))
		return err
	default:
		return fmt.Errorf("unsupported type for decimal: %T", val)
	}
}
