// Package interfaces provides service interfaces for dependency injection.
package interfaces

import (
	"context"
	"time"

	"github.com/ternarybob/premarket/internal/models"
)

// NewsSource returns headlines published since the given time.
// A source may legitimately return zero rows.
type NewsSource interface {
	// Name returns the source name used in logs (e.g., "benzinga", "rss")
	Name() string

	// FetchNews retrieves rows published at or after since
	FetchNews(ctx context.Context, since time.Time) ([]models.NewsRow, error)
}

// QuoteSource resolves a reference price for a symbol.
type QuoteSource interface {
	Name() string

	// PreviousClose returns the prior-session close, or the last price when
	// the source has no close
	PreviousClose(ctx context.Context, symbol string) models.Lookup[float64]
}

// ReferenceSource resolves listing metadata for a symbol.
// Name and code are independently optional in the returned ExchangeInfo.
type ReferenceSource interface {
	Name() string
	Exchange(ctx context.Context, symbol string) models.Lookup[models.ExchangeInfo]
}

// BarSource returns ascending one-minute bars in [from, to].
type BarSource interface {
	Name() string
	MinuteBars(ctx context.Context, symbol string, from, to time.Time) models.Lookup[[]models.MinuteBar]
}

// ReportSink delivers a formatted report.
type ReportSink interface {
	Deliver(ctx context.Context, report string) error
}
