package huobi

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/apd/v3"
	"github.com/rs/zerolog"

	"marketfeed/internal/transport"
	"marketfeed/pkg/core"
	"marketfeed/pkg/dispatch"
	"marketfeed/pkg/symbols"
)

// DefaultPollInterval is how often the poller queries each contract's
// funding rate.
const DefaultPollInterval = 60 * time.Second

// FundingPoller polls the funding-rate route for a set of contracts and
// emits a FundingEvent only when a contract's observation changes. Repeated
// identical observations between settlement boundaries are suppressed.
type FundingPoller struct {
	fetcher  transport.Fetcher
	catalog  *symbols.Catalog
	router   dispatch.Router
	logger   zerolog.Logger
	interval time.Duration

	// natives are the contract codes to poll.
	natives []string
	// last holds the previous (rate, funding_time) per contract code.
	last map[string]fundingKey
}

type fundingKey struct {
	rate string
	time string
}

// NewFundingPoller creates a poller for the given canonical symbols. Every
// symbol must resolve through the catalog.
func NewFundingPoller(fetcher transport.Fetcher, catalog *symbols.Catalog, router dispatch.Router, syms []string, logger zerolog.Logger) (*FundingPoller, error) {
	natives := make([]string, 0, len(syms))
	for _, s := range syms {
		native, ok := catalog.Native(s)
		if !ok {
			return nil, fmt.Errorf("%w: %s", core.ErrUnknownSymbol, s)
		}
		natives = append(natives, native)
	}

	if limiter, ok := fetcher.(transport.EndpointLimiter); ok {
		ep := RestEndpoint()
		limiter.SetEndpointLimit(ep.Address(false), ep.RequestLimit)
	}

	return &FundingPoller{
		fetcher:  fetcher,
		catalog:  catalog,
		router:   router,
		logger:   logger.With().Str("exchange", Name).Logger(),
		interval: DefaultPollInterval,
		natives:  natives,
		last:     make(map[string]fundingKey),
	}, nil
}

// SetInterval overrides the poll interval.
func (p *FundingPoller) SetInterval(d time.Duration) {
	p.interval = d
}

// Run polls until the context is cancelled. An error from a single poll
// pass is logged and the loop continues; only a router error stops it.
func (p *FundingPoller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	if err := p.Poll(ctx); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := p.Poll(ctx); err != nil {
				return err
			}
		}
	}
}

// Poll performs one pass over all contracts. Fetch and decode failures are
// logged per contract and skipped; router errors propagate.
func (p *FundingPoller) Poll(ctx context.Context) error {
	ep := RestEndpoint()
	for _, native := range p.natives {
		body, err := p.fetcher.Fetch(ctx, ep.Route(false, ep.Routes.Funding, native))
		if err != nil {
			p.logger.Warn().Err(err).Str("contract_code", native).Msg("funding fetch failed")
			continue
		}
		if err := p.handle(ctx, native, body); err != nil {
			return err
		}
	}
	return nil
}

func (p *FundingPoller) handle(ctx context.Context, native string, body []byte) error {
	var resp fundingResponse
	if err := sonic.Unmarshal(body, &resp); err != nil {
		p.logger.Warn().Err(err).Str("contract_code", native).Msg("funding decode failed")
		return nil
	}
	if resp.Status != "ok" {
		p.logger.Warn().
			Str("contract_code", native).
			Str("status", resp.Status).
			Str("err_msg", resp.ErrMsg).
			Msg("funding query rejected")
		return nil
	}

	key := fundingKey{rate: resp.Data.FundingRate, time: resp.Data.FundingTime}
	if prev, ok := p.last[native]; ok && prev == key {
		return nil
	}

	funding, err := p.normalize(native, resp.Data, body)
	if err != nil {
		p.logger.Warn().Err(err).Str("contract_code", native).Msg("funding frame dropped")
		return nil
	}

	p.last[native] = key
	return p.router.OnFunding(ctx, &dispatch.FundingEvent{
		Funding: funding,
		Receipt: time.Now(),
	})
}

func (p *FundingPoller) normalize(native string, d fundingDetail, raw []byte) (*core.Funding, error) {
	canonical, ok := p.catalog.Canonical(native)
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrUnknownSymbol, native)
	}

	var rate apd.Decimal
	if err := core.ParseDecimal(&rate, d.FundingRate); err != nil {
		return nil, err
	}

	var predicted *apd.Decimal
	if d.EstimatedRate != "" {
		predicted = new(apd.Decimal)
		if err := core.ParseDecimal(predicted, d.EstimatedRate); err != nil {
			return nil, err
		}
	}

	settle, err := parseMillis(d.FundingTime)
	if err != nil {
		return nil, err
	}

	var next time.Time
	if d.NextFundingTime != "" {
		next, err = parseMillis(d.NextFundingTime)
		if err != nil {
			return nil, err
		}
	}

	return &core.Funding{
		Exchange:      Name,
		Symbol:        canonical,
		Rate:          rate,
		PredictedRate: predicted,
		Timestamp:     settle,
		NextTimestamp: next,
		Raw:           raw,
	}, nil
}

func parseMillis(s string) (time.Time, error) {
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse epoch millis %q: %w", s, err)
	}
	return time.UnixMilli(ms), nil
}
