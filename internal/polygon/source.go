// Package polygon adapts the Polygon.io REST client to the quote, reference
// and minute-bar sources used by a scan.
package polygon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	polygonrest "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/ternarybob/premarket/internal/common"
	domain "github.com/ternarybob/premarket/internal/models"
)

// api is the subset of Polygon calls a scan needs.
type api interface {
	previousClose(ctx context.Context, ticker string) ([]models.Agg, error)
	tickerDetails(ctx context.Context, ticker string) (models.Ticker, error)
	minuteAggs(ctx context.Context, ticker string, from, to time.Time) ([]models.Agg, error)
}

// restAPI implements api over the official client.
type restAPI struct {
	client *polygonrest.Client
}

func (r *restAPI) previousClose(ctx context.Context, ticker string) ([]models.Agg, error) {
	params := models.GetPreviousCloseAggParams{Ticker: ticker}.WithAdjusted(true)
	resp, err := r.client.GetPreviousCloseAgg(ctx, params)
	if err != nil {
		return nil, err
	}
	return resp.Results, nil
}

func (r *restAPI) tickerDetails(ctx context.Context, ticker string) (models.Ticker, error) {
	resp, err := r.client.GetTickerDetails(ctx, &models.GetTickerDetailsParams{Ticker: ticker})
	if err != nil {
		return models.Ticker{}, err
	}
	return resp.Results, nil
}

func (r *restAPI) minuteAggs(ctx context.Context, ticker string, from, to time.Time) ([]models.Agg, error) {
	params := &models.ListAggsParams{
		Ticker:     ticker,
		Timespan:   models.Minute,
		Multiplier: 1,
		From:       models.Millis(from),
		// Upper bound is exclusive; include the current minute
		To: models.Millis(to.Add(time.Minute)),
	}
	limit := 50000
	asc := models.Asc
	adjusted := true
	params.Limit = &limit
	params.Order = &asc
	params.Adjusted = &adjusted

	var aggs []models.Agg
	iter := r.client.ListAggs(ctx, params)
	for iter.Next() {
		aggs = append(aggs, iter.Item())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return aggs, nil
}

// Source serves previous closes, primary exchange codes and minute bars.
type Source struct {
	api     api
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

// NewSource creates a source for apiKey. rateLimit is requests per second;
// breaker may be nil.
func NewSource(apiKey string, timeout time.Duration, rateLimit int, breaker *gobreaker.CircuitBreaker) *Source {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := polygonrest.NewWithClient(apiKey, &http.Client{Timeout: timeout})
	return newSource(&restAPI{client: client}, rateLimit, breaker)
}

func newSource(a api, rateLimit int, breaker *gobreaker.CircuitBreaker) *Source {
	if rateLimit <= 0 {
		rateLimit = 5
	}
	return &Source{
		api:     a,
		limiter: rate.NewLimiter(rate.Limit(rateLimit), rateLimit),
		breaker: breaker,
	}
}

// Name returns "polygon".
func (s *Source) Name() string {
	return "polygon"
}

// PreviousClose returns the prior session's adjusted close.
func (s *Source) PreviousClose(ctx context.Context, symbol string) domain.Lookup[float64] {
	aggs, err := call(ctx, s, func() ([]models.Agg, error) {
		return s.api.previousClose(ctx, symbol)
	})
	if err != nil {
		return domain.FromError[float64](err)
	}
	if len(aggs) == 0 || aggs[0].Close <= 0 {
		return domain.Unavailable[float64](fmt.Errorf("%s: %w", symbol, domain.ErrNoData))
	}
	return domain.Found(aggs[0].Close)
}

// Exchange returns the primary exchange MIC code (e.g., "XNAS").
func (s *Source) Exchange(ctx context.Context, symbol string) domain.Lookup[domain.ExchangeInfo] {
	details, err := call(ctx, s, func() (models.Ticker, error) {
		return s.api.tickerDetails(ctx, symbol)
	})
	if err != nil {
		return domain.FromError[domain.ExchangeInfo](err)
	}
	code := strings.ToUpper(strings.TrimSpace(details.PrimaryExchange))
	if code == "" {
		return domain.Unavailable[domain.ExchangeInfo](fmt.Errorf("%s: %w", symbol, domain.ErrNoData))
	}
	return domain.Found(domain.ExchangeInfo{Code: code})
}

// MinuteBars returns ascending one-minute bars in [from, to].
// An empty result is a found, empty slice.
func (s *Source) MinuteBars(ctx context.Context, symbol string, from, to time.Time) domain.Lookup[[]domain.MinuteBar] {
	aggs, err := call(ctx, s, func() ([]models.Agg, error) {
		return s.api.minuteAggs(ctx, symbol, from, to)
	})
	if err != nil {
		return domain.FromError[[]domain.MinuteBar](err)
	}
	return domain.Found(ToMinuteBars(aggs, from, to))
}

// ToMinuteBars converts aggregates, keeping only those inside [from, to].
func ToMinuteBars(aggs []models.Agg, from, to time.Time) []domain.MinuteBar {
	bars := make([]domain.MinuteBar, 0, len(aggs))
	for _, a := range aggs {
		ts := time.Time(a.Timestamp)
		if ts.Before(from) || ts.After(to) {
			continue
		}
		bars = append(bars, domain.MinuteBar{
			Timestamp: ts,
			High:      a.High,
			Close:     a.Close,
			Volume:    a.Volume,
			VWAP:      a.VWAP,
		})
	}
	return bars
}

// call waits for the limiter, then runs fn through the breaker.
func call[T any](ctx context.Context, s *Source, fn func() (T, error)) (T, error) {
	var zero T
	if err := s.limiter.Wait(ctx); err != nil {
		return zero, fmt.Errorf("polygon rate limiter: %w", err)
	}
	v, err := common.Guard(s.breaker, func() (T, error) {
		v, err := fn()
		return v, classify(err)
	})
	return v, err
}

// classify maps a 404 to ErrNoData so the breaker treats it as healthy.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var resp *models.ErrorResponse
	if errors.As(err, &resp) && resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%v: %w", err, domain.ErrNoData)
	}
	return err
}
