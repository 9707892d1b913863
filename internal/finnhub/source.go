package finnhub

import (
	"context"
	"fmt"

	"github.com/sony/gobreaker"

	"github.com/ternarybob/premarket/internal/common"
	"github.com/ternarybob/premarket/internal/models"
)

// Source serves previous closes from Finnhub quotes.
type Source struct {
	client  *Client
	breaker *gobreaker.CircuitBreaker
}

// NewSource wraps client; breaker may be nil.
func NewSource(client *Client, breaker *gobreaker.CircuitBreaker) *Source {
	return &Source{client: client, breaker: breaker}
}

// Name returns "finnhub".
func (s *Source) Name() string {
	return "finnhub"
}

// PreviousClose returns pc, or c when pc is zero.
func (s *Source) PreviousClose(ctx context.Context, symbol string) models.Lookup[float64] {
	quote, err := common.Guard(s.breaker, func() (*Quote, error) {
		return s.client.GetQuote(ctx, symbol)
	})
	if err != nil {
		return models.FromError[float64](err)
	}

	price := quote.PreviousClose
	if price <= 0 {
		price = quote.Current
	}
	if price <= 0 {
		return models.Unavailable[float64](fmt.Errorf("%s: %w", symbol, models.ErrNoData))
	}
	return models.Found(price)
}
