// Package news collects recent headlines and attributes them to ticker symbols.
package news

import (
	"context"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/premarket/internal/common"
	"github.com/ternarybob/premarket/internal/interfaces"
	"github.com/ternarybob/premarket/internal/models"
	"github.com/ternarybob/premarket/internal/services/tickers"
)

// Batch is the result of one collection pass.
type Batch struct {
	Source string             // Name of the source whose rows were used, empty when none answered
	Rows   int                // Rows returned by that source before filtering
	Events []models.NewsEvent // Deduplicated events in source order
}

// Aggregator reads the primary news source and falls back to a secondary
// source when the primary is unavailable or returns nothing.
type Aggregator struct {
	primary   interfaces.NewsSource
	fallback  interfaces.NewsSource
	extractor *tickers.Extractor
	window    time.Duration
	prefixLen int
	logger    arbor.ILogger
}

// NewAggregator creates an aggregator. Either source may be nil.
func NewAggregator(config common.ScanConfig, primary, fallback interfaces.NewsSource, extractor *tickers.Extractor, logger arbor.ILogger) *Aggregator {
	if extractor == nil {
		extractor = tickers.NewDefaultExtractor()
	}
	prefixLen := config.DedupPrefix
	if prefixLen <= 0 {
		prefixLen = 80
	}
	return &Aggregator{
		primary:   primary,
		fallback:  fallback,
		extractor: extractor,
		window:    common.ParseDurationOr(config.Window, 12*time.Hour),
		prefixLen: prefixLen,
		logger:    logger,
	}
}

// Collect returns deduplicated events published within the window ending at now.
// Source failures are logged and never returned.
func (a *Aggregator) Collect(ctx context.Context, now time.Time) Batch {
	since := now.Add(-a.window)

	if rows, ok := a.fetch(ctx, a.primary, since); ok && len(rows) > 0 {
		return Batch{
			Source: a.primary.Name(),
			Rows:   len(rows),
			Events: a.attribute(rows, a.primary.Name(), since, true),
		}
	}

	if rows, ok := a.fetch(ctx, a.fallback, since); ok {
		return Batch{
			Source: a.fallback.Name(),
			Rows:   len(rows),
			Events: a.attribute(rows, a.fallback.Name(), since, false),
		}
	}

	a.logger.Warn().Msg("No news source produced rows")
	return Batch{}
}

func (a *Aggregator) fetch(ctx context.Context, source interfaces.NewsSource, since time.Time) ([]models.NewsRow, bool) {
	if source == nil {
		return nil, false
	}

	rows, err := source.FetchNews(ctx, since)
	if err != nil {
		a.logger.Warn().
			Err(err).
			Str("source", source.Name()).
			Msg("News source unavailable")
		return nil, false
	}

	a.logger.Debug().
		Str("source", source.Name()).
		Int("rows", len(rows)).
		Msg("Fetched news rows")
	return rows, true
}

// attribute expands rows into per-symbol events, drops stale rows and
// removes duplicate (symbol, headline prefix) pairs keeping the first.
func (a *Aggregator) attribute(rows []models.NewsRow, source string, since time.Time, structured bool) []models.NewsEvent {
	seen := make(map[models.DedupKey]bool)
	var events []models.NewsEvent

	for _, row := range rows {
		headline := models.NormalizeHeadline(row.Headline)
		if headline == "" {
			continue
		}
		if !row.PublishedAt.IsZero() && row.PublishedAt.Before(since) {
			continue
		}

		var symbols []string
		if structured {
			symbols = a.structuredSymbols(row.Symbols)
		}
		if len(symbols) == 0 {
			symbols = a.extractor.Extract(headline)
		}

		for _, symbol := range symbols {
			event := models.NewsEvent{
				Symbol:       symbol,
				Headline:     headline,
				URL:          strings.TrimSpace(row.URL),
				PublishedAt:  row.PublishedAt,
				PublishedRaw: row.PublishedRaw,
				Source:       source,
			}
			key := event.Key(a.prefixLen)
			if seen[key] {
				continue
			}
			seen[key] = true
			events = append(events, event)
		}
	}

	return events
}

// structuredSymbols takes provider tickers as given apart from explicit
// derivative forms. The headline blocklist is not applied: its P$ and U$
// rules would drop common shares like SNAP or MU.
func (a *Aggregator) structuredSymbols(raw []string) []string {
	var out []string
	seen := make(map[string]bool, len(raw))
	for _, s := range raw {
		symbol := strings.ToUpper(strings.TrimSpace(strings.TrimPrefix(s, "$")))
		if symbol == "" || seen[symbol] || tickers.IsDerivativeForm(symbol) {
			continue
		}
		seen[symbol] = true
		out = append(out, symbol)
	}
	return out
}
