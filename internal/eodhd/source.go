package eodhd

import (
	"context"
	"fmt"

	"github.com/sony/gobreaker"

	"github.com/ternarybob/premarket/internal/common"
	"github.com/ternarybob/premarket/internal/models"
)

// Source adapts the client to the reference and quote interfaces.
type Source struct {
	client  *Client
	breaker *gobreaker.CircuitBreaker
}

// NewSource wraps client; breaker may be nil.
func NewSource(client *Client, breaker *gobreaker.CircuitBreaker) *Source {
	return &Source{client: client, breaker: breaker}
}

// Name returns "eodhd".
func (s *Source) Name() string {
	return "eodhd"
}

// Exchange returns the listing exchange name. EODHD has no MIC code here.
func (s *Source) Exchange(ctx context.Context, symbol string) models.Lookup[models.ExchangeInfo] {
	name, err := common.Guard(s.breaker, func() (string, error) {
		return s.client.GetExchangeName(ctx, common.EODHDSymbol(symbol))
	})
	if err != nil {
		return models.FromError[models.ExchangeInfo](err)
	}
	if name == "" {
		return models.Unavailable[models.ExchangeInfo](fmt.Errorf("%s: %w", symbol, models.ErrNoData))
	}
	return models.Found(models.ExchangeInfo{Name: name})
}

// PreviousClose returns the prior close from the real-time quote, falling
// back to the current close when the previous one is missing.
func (s *Source) PreviousClose(ctx context.Context, symbol string) models.Lookup[float64] {
	quote, err := common.Guard(s.breaker, func() (*RealTimeQuote, error) {
		return s.client.GetRealTimeQuote(ctx, common.EODHDSymbol(symbol))
	})
	if err != nil {
		return models.FromError[float64](err)
	}

	price := float64(quote.PreviousClose)
	if price <= 0 {
		price = float64(quote.Close)
	}
	if price <= 0 {
		return models.Unavailable[float64](fmt.Errorf("%s: %w", symbol, models.ErrNoData))
	}
	return models.Found(price)
}
