// Package eligibility gates symbols on reference price and listing exchange.
package eligibility

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/premarket/internal/common"
	"github.com/ternarybob/premarket/internal/interfaces"
	"github.com/ternarybob/premarket/internal/models"
)

// Rejection reasons
const (
	ReasonNoPrice   = "no_price"
	ReasonPriceBand = "price_out_of_band"
	ReasonExchange  = "exchange_not_allowed"
	ReasonAccepted  = "accepted"
	exchangeUnknown = "N/A"
	defaultPriceMin = "0.10"
	defaultPriceMax = "3.00"
)

// Decision is the outcome of an eligibility check.
type Decision struct {
	Symbol      string
	Accepted    bool
	Reason      string
	Price       decimal.Decimal
	PriceSource string
	Exchange    models.ExchangeInfo
}

// ExchangeLabel returns the exchange shown to users, "N/A" when unknown.
func (d Decision) ExchangeLabel() string {
	if d.Exchange.Empty() {
		return exchangeUnknown
	}
	return d.Exchange.Label()
}

// Filter applies the price band and exchange allowlists.
type Filter struct {
	quotes    []interfaces.QuoteSource
	reference interfaces.ReferenceSource
	min       decimal.Decimal
	max       decimal.Decimal
	names     map[string]bool
	codes     map[string]bool
	logger    arbor.ILogger
}

// NewFilter creates a filter. Quote sources are tried in order until one
// answers; reference may be nil, in which case no symbol is rejected on exchange.
func NewFilter(config common.EligibilityConfig, quotes []interfaces.QuoteSource, reference interfaces.ReferenceSource, logger arbor.ILogger) *Filter {
	f := &Filter{
		quotes:    quotes,
		reference: reference,
		min:       decimal.RequireFromString(defaultPriceMin),
		max:       decimal.RequireFromString(defaultPriceMax),
		names:     upperSet(config.ExchangeNames),
		codes:     upperSet(config.ExchangeCodes),
		logger:    logger,
	}
	if config.PriceMin > 0 {
		f.min = decimal.NewFromFloat(config.PriceMin)
	}
	if config.PriceMax > 0 {
		f.max = decimal.NewFromFloat(config.PriceMax)
	}
	return f
}

// Check resolves price and exchange for symbol and decides eligibility.
func (f *Filter) Check(ctx context.Context, symbol string) Decision {
	d := Decision{Symbol: symbol}

	price, source, ok := f.price(ctx, symbol)
	if !ok {
		d.Reason = ReasonNoPrice
		return d
	}
	d.Price = price
	d.PriceSource = source

	if !f.InBand(price) {
		d.Reason = ReasonPriceBand
		return d
	}

	d.Exchange = f.exchange(ctx, symbol)
	if !f.ExchangeAllowed(d.Exchange) {
		d.Reason = ReasonExchange
		return d
	}

	d.Accepted = true
	d.Reason = ReasonAccepted
	return d
}

// InBand reports whether price lies in the closed band [min, max].
func (f *Filter) InBand(price decimal.Decimal) bool {
	return price.GreaterThanOrEqual(f.min) && price.LessThanOrEqual(f.max)
}

// ExchangeAllowed reports whether info passes the allowlists.
// Missing information never rejects.
func (f *Filter) ExchangeAllowed(info models.ExchangeInfo) bool {
	if info.Empty() {
		return true
	}
	if info.Name != "" && f.names[strings.ToUpper(strings.TrimSpace(info.Name))] {
		return true
	}
	if info.Code != "" && f.codes[strings.ToUpper(strings.TrimSpace(info.Code))] {
		return true
	}
	return false
}

func (f *Filter) price(ctx context.Context, symbol string) (decimal.Decimal, string, bool) {
	for _, q := range f.quotes {
		if q == nil {
			continue
		}

		lookup := q.PreviousClose(ctx, symbol)
		if !lookup.OK() {
			f.logger.Debug().
				Err(lookup.Err).
				Str("symbol", symbol).
				Str("source", q.Name()).
				Str("status", lookup.Status.String()).
				Msg("Quote lookup failed, trying next source")
			continue
		}

		v := lookup.Value
		if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			f.logger.Debug().
				Str("symbol", symbol).
				Str("source", q.Name()).
				Str("value", fmt.Sprintf("%v", v)).
				Msg("Quote source returned unusable price")
			continue
		}

		return decimal.NewFromFloat(v), q.Name(), true
	}
	return decimal.Zero, "", false
}

func (f *Filter) exchange(ctx context.Context, symbol string) models.ExchangeInfo {
	if f.reference == nil {
		return models.ExchangeInfo{}
	}

	lookup := f.reference.Exchange(ctx, symbol)
	if !lookup.OK() {
		f.logger.Debug().
			Err(lookup.Err).
			Str("symbol", symbol).
			Str("source", f.reference.Name()).
			Msg("Exchange lookup unavailable")
		return models.ExchangeInfo{}
	}
	return lookup.Value
}

func upperSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		if v = strings.ToUpper(strings.TrimSpace(v)); v != "" {
			set[v] = true
		}
	}
	return set
}
