// Package huobi covers the Huobi perpetual swap venue: contract discovery
// and funding-rate collection over REST.
package huobi

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
const Name = "huobi_swap"

// RestEndpoint returns the swap REST endpoint with its discovery and
// funding routes.
func RestEndpoint() exchange.RestEndpoint {
	return exchange.RestEndpoint{
		BaseURL: "https://api.hbdm.com",
		Routes: exchange.Routes{
			Instruments: "/swap-api/v1/swap_contract_info",
			Funding:     "/swap-api/v1/swap_funding_rate?contract_code=%s",
		},
		RequestLimit: 10,
	}
}

// Discover fetches the perpetual contract listing and builds the symbol
// catalog. Contract codes split on "-" into base and quote; delisted
// contracts and descriptors that fail to parse are skipped with a warning.
func Discover(ctx context.Context, fetcher transport.Fetcher, logger zerolog.Logger) (*symbols.Catalog, error) {
	ep := RestEndpoint()
	if limiter, ok := fetcher.(transport.EndpointLimiter); ok {
		limiter.SetEndpointLimit(ep.Address(false), ep.RequestLimit)
	}

	body, err := fetcher.Fetch(ctx, ep.Route(false, ep.Routes.Instruments))
	if err != nil {
		return nil, core.WrapFeedError(Name, core.ErrorTypeDiscovery, "fetch contract info", err)
	}

	var resp contractInfoResponse
	if err := sonic.Unmarshal(body, &resp); err != nil {
		return nil, core.WrapFeedError(Name, core.ErrorTypeDiscovery, "decode contract info", err)
	}
	if resp.Status != "ok" {
		return nil, core.NewFeedError(Name, core.ErrorTypeDiscovery,
			fmt.Sprintf("contract info status %q: %s", resp.Status, resp.ErrMsg))
	}

	instruments := make([]symbols.Instrument, 0, len(resp.Data))
	for _, d := range resp.Data {
		inst, ok := parseContract(d, logger)
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

func parseContract(d contractDetail, logger zerolog.Logger) (symbols.Instrument, bool) {
	// contract_status 1 is listed; anything else is delisting or settled.
	if d.ContractStatus != 1 {
		return symbols.Instrument{}, false
	}

	base, quote, ok := strings.Cut(d.ContractCode, "-")
	if !ok || base == "" || quote == "" {
		logger.Warn().
			Str("contract_code", d.ContractCode).
			Msg("skipping contract with unparseable code")
		return symbols.Instrument{}, false
	}

	var tick apd.Decimal
	if d.PriceTick != nil {
		if err := core.ParseDecimalFromAny(&tick, d.PriceTick); err != nil {
			logger.Warn().
				Str("contract_code", d.ContractCode).
				Err(err).
				Msg("skipping contract with bad price tick")
			return symbols.Instrument{}, false
		}
	}

	sym := symbols.NewDerivative(base, quote, symbols.Perpetual, "")
	return symbols.Instrument{
		Symbol: sym,
		Native: d.ContractCode,
		Metadata: symbols.Metadata{
			TickSize: tick,
			Type:     symbols.Perpetual,
		},
	}, true
}
