package symbols

import (
	"testing"

	"github.com/cockroachdb/apd/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSymbolNormalized(t *testing.T) {
	tests := []struct {
		name string
		sym  Symbol
		want string
	}{
		{"spot", New("btc", "usd"), "BTC-USD"},
		{"spot upper", New("ETH", "BTC"), "ETH-BTC"},
		{"perpetual", NewDerivative("btc", "usd", Perpetual, ""), "BTC-USD-PERP"},
		{"futures with expiry", NewDerivative("btc", "usd", Futures, "0626"), "BTC-USD-0626"},
		{"futures without expiry", NewDerivative("btc", "usd", Futures, ""), "BTC-USD"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.sym.Normalized())
			assert.Equal(t, tt.want, tt.sym.String())
		})
	}
}

func tick(t *testing.T, s string) apd.Decimal {
	t.Helper()
	var d apd.Decimal
	_, _, err := apd.BaseContext.SetString(&d, s)
	require.NoError(t, err)
	return d
}

func TestBuildAndResolve(t *testing.T) {
	catalog, err := Build([]Instrument{
		{Symbol: New("btc", "usd"), Native: "BTCUSD", Metadata: Metadata{TickSize: tick(t, "0.01"), Type: Spot}},
		{Symbol: New("eth", "usd"), Native: "ETHUSD", Metadata: Metadata{TickSize: tick(t, "0.001"), Type: Spot}},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, catalog.Len())

	native, ok := catalog.Native("BTC-USD")
	require.True(t, ok)
	assert.Equal(t, "BTCUSD", native)

	canonical, ok := catalog.Canonical("ETHUSD")
	require.True(t, ok)
	assert.Equal(t, "ETH-USD", canonical)

	meta, ok := catalog.Metadata("BTC-USD")
	require.True(t, ok)
	assert.Equal(t, "0.01", meta.TickSize.Text('f'))

	_, ok = catalog.Native("DOGE-USD")
	assert.False(t, ok)
	_, ok = catalog.Canonical("DOGEUSD")
	assert.False(t, ok)

	assert.ElementsMatch(t, []string{"BTC-USD", "ETH-USD"}, catalog.Symbols())
}

func TestBuildRejectsDuplicates(t *testing.T) {
	_, err := Build([]Instrument{
		{Symbol: New("btc", "usd"), Native: "BTCUSD"},
		{Symbol: New("btc", "usd"), Native: "XBTUSD"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate canonical")

	_, err = Build([]Instrument{
		{Symbol: New("btc", "usd"), Native: "BTCUSD"},
		{Symbol: New("eth", "usd"), Native: "BTCUSD"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate native")
}
