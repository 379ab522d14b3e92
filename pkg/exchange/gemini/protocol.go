// Package gemini implements the exchange adapter for Gemini: frame
// classification, order-book reconstruction from l2 update streams, trade
// and order lifecycle translation, and HMAC-SHA384 request signing.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/apd/v3"
	"github.com/rs/zerolog"

	"marketfeed/internal/transport"
	"marketfeed/pkg/core"
	"marketfeed/pkg/exchange"
	"marketfeed/pkg/symbols"
)

// Name is the exchange identifier.
const Name = "gemini"

// WebsocketEndpoints returns the websocket endpoints Gemini exposes: the
// public v2 market data socket and the authenticated order events socket.
func WebsocketEndpoints() []exchange.WebsocketEndpoint {
	return []exchange.WebsocketEndpoint{
		{
			URL:        "wss://api.gemini.com/v2/marketdata/",
			SandboxURL: "wss://api.sandbox.gemini.com/v2/marketdata/",
			Channels:   []core.Channel{core.ChannelL2Book, core.ChannelTrades},
		},
		{
			URL:            "wss://api.gemini.com/v1/order/events",
			SandboxURL:     "wss://api.sandbox.gemini.com/v1/order/events",
			Channels:       []core.Channel{core.ChannelOrderInfo},
			Authentication: true,
		},
	}
}

// RestEndpoint returns the REST endpoint used for symbol discovery and as
// the signed request path for the order events socket.
func RestEndpoint() exchange.RestEndpoint {
	return exchange.RestEndpoint{
		BaseURL:    "https://api.gemini.com",
		SandboxURL: "https://api.sandbox.gemini.com",
		Routes: exchange.Routes{
			Currencies:     "/v1/symbols",
			Instruments:    "/v1/symbols/details/%s",
			Authentication: "/v1/order/events",
		},
		RequestLimit: 1,
	}
}

// Discover fetches the instrument list and per-instrument details and
// builds the symbol catalog. Instruments flagged closed are excluded
// entirely; a descriptor missing required fields is skipped with a warning
// so one malformed instrument cannot block discovery of the rest.
func Discover(ctx context.Context, fetcher transport.Fetcher, sandbox bool, logger zerolog.Logger) (*symbols.Catalog, error) {
	ep := RestEndpoint()
	if limiter, ok := fetcher.(transport.EndpointLimiter); ok {
		limiter.SetEndpointLimit(ep.Address(sandbox), ep.RequestLimit)
	}

	body, err := fetcher.Fetch(ctx, ep.Route(sandbox, ep.Routes.Currencies))
	if err != nil {
		return nil, core.WrapFeedError(Name, core.ErrorTypeDiscovery, "fetch symbol list", err)
	}

	var natives []string
	if err := sonic.Unmarshal(body, &natives); err != nil {
		return nil, core.WrapFeedError(Name, core.ErrorTypeDiscovery, "decode symbol list", err)
	}

	instruments := make([]symbols.Instrument, 0, len(natives))
	for _, native := range natives {
		detail, err := fetcher.Fetch(ctx, ep.Route(sandbox, ep.Routes.Instruments, native))
		if err != nil {
			return nil, core.WrapFeedError(Name, core.ErrorTypeDiscovery,
				fmt.Sprintf("fetch details for %s", native), err)
		}
		inst, ok := parseInstrument(detail, logger)
		if !ok {
			continue
		}
		instruments = append(instruments, inst)
	}

	catalog, err := symbols.Build(instruments)
	if err != nil {
		return nil, core.WrapFeedError(Name, core.ErrorTypeDiscovery, "build catalog", err)
	}
	return catalog, nil
}

// parseInstrument converts one discovery descriptor. It reports false for
// descriptors that are closed, malformed, or missing required fields.
func parseInstrument(detail []byte, logger zerolog.Logger) (symbols.Instrument, bool) {
	var d instrumentDetail
	if err := sonic.Unmarshal(detail, &d); err != nil {
		logger.Warn().Err(err).Msg("skipping undecodable instrument descriptor")
		return symbols.Instrument{}, false
	}

	if d.Status == "closed" {
		return symbols.Instrument{}, false
	}

	if d.Symbol == "" || d.BaseCurrency == "" || d.QuoteCurrency == "" {
		logger.Warn().
			Str("symbol", d.Symbol).
			Msg("skipping instrument descriptor with missing fields")
		return symbols.Instrument{}, false
	}

	var tick apd.Decimal
	if d.TickSize != nil {
		if err := core.ParseDecimalFromAny(&tick, d.TickSize); err != nil {
			logger.Warn().
				Str("symbol", d.Symbol).
				Err(err).
				Msg("skipping instrument descriptor with bad tick size")
			return symbols.Instrument{}, false
		}
	}

	sym := symbols.New(d.BaseCurrency, d.QuoteCurrency)
	return symbols.Instrument{
		Symbol: sym,
		Native: strings.ToUpper(d.Symbol),
		Metadata: symbols.Metadata{
			TickSize: tick,
			Type:     sym.Type,
		},
	}, true
}
