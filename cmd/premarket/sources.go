package main

import (
	"context"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/premarket/internal/benzinga"
	"github.com/ternarybob/premarket/internal/common"
	"github.com/ternarybob/premarket/internal/eodhd"
	"github.com/ternarybob/premarket/internal/finnhub"
	"github.com/ternarybob/premarket/internal/interfaces"
	"github.com/ternarybob/premarket/internal/polygon"
	"github.com/ternarybob/premarket/internal/rss"
	"github.com/ternarybob/premarket/internal/services/eligibility"
	"github.com/ternarybob/premarket/internal/services/pipeline"
	"github.com/ternarybob/premarket/internal/storage/badger"
	"github.com/ternarybob/premarket/internal/telemetry"
)

// wiring holds the configured sources and the resources behind them.
type wiring struct {
	Sources pipeline.Sources
	Cache   *badger.ExchangeCache
	db      *badger.BadgerDB
}

// Close releases the exchange cache database, if open.
func (w *wiring) Close() {
	if w.db != nil {
		if err := w.db.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close exchange cache")
		}
	}
}

// wireSources builds every source that has credentials. Missing providers
// leave their slot empty and the run degrades instead of failing.
func wireSources(ctx context.Context, config *common.Config, metrics *telemetry.Metrics, logger arbor.ILogger) (*wiring, error) {
	w := &wiring{}
	src := config.Sources

	if src.Benzinga.Enabled() {
		w.Sources.PrimaryNews = benzinga.NewClient(src.Benzinga.APIKey,
			benzinga.WithBaseURL(src.Benzinga.BaseURL),
			benzinga.WithTimeout(common.ParseDurationOr(src.Benzinga.Timeout, benzinga.DefaultTimeout)),
			benzinga.WithRateLimit(src.Benzinga.RateLimit),
			benzinga.WithBreaker(common.NewBreaker("benzinga", logger)),
			benzinga.WithLogger(logger),
		)
	}

	if config.RSS.Enabled && len(config.RSS.Feeds) > 0 {
		w.Sources.FallbackNews = rss.NewSource(config.RSS.Feeds, common.ParseDurationOr(config.RSS.Timeout, 10*time.Second), logger)
	}

	var references []interfaces.ReferenceSource

	if src.Polygon.Enabled() {
		poly := polygon.NewSource(
			src.Polygon.APIKey,
			common.ParseDurationOr(src.Polygon.Timeout, 10*time.Second),
			src.Polygon.RateLimit,
			common.NewBreaker("polygon", logger),
		)
		w.Sources.Quotes = append(w.Sources.Quotes, poly)
		w.Sources.Bars = poly
		references = append(references, poly)
	}

	if src.Finnhub.Enabled() {
		client := finnhub.NewClient(src.Finnhub.APIKey,
			finnhub.WithBaseURL(src.Finnhub.BaseURL),
			finnhub.WithTimeout(common.ParseDurationOr(src.Finnhub.Timeout, finnhub.DefaultTimeout)),
			finnhub.WithRateLimit(src.Finnhub.RateLimit),
			finnhub.WithLogger(logger),
		)
		w.Sources.Quotes = append(w.Sources.Quotes, finnhub.NewSource(client, common.NewBreaker("finnhub", logger)))
	}

	if src.EODHD.Enabled() {
		client := eodhd.NewClient(src.EODHD.APIKey,
			eodhd.WithBaseURL(src.EODHD.BaseURL),
			eodhd.WithTimeout(common.ParseDurationOr(src.EODHD.Timeout, eodhd.DefaultTimeout)),
			eodhd.WithRateLimit(src.EODHD.RateLimit),
			eodhd.WithLogger(logger),
		)
		source := eodhd.NewSource(client, common.NewBreaker("eodhd", logger))
		w.Sources.Quotes = append(w.Sources.Quotes, source)
		references = append(references, source)
	}

	w.Sources.Reference = eligibility.MergeReferences(references...)

	if config.Cache.Enabled && w.Sources.Reference != nil {
		db, err := badger.NewBadgerDB(logger, config.Cache)
		if err != nil {
			return nil, err
		}
		w.db = db
		w.Cache = badger.NewExchangeCache(db, w.Sources.Reference, common.ParseDurationOr(config.Cache.TTL, 7*24*time.Hour), metrics, logger)
		w.Sources.Reference = w.Cache

		if purged, err := w.Cache.Purge(ctx); err != nil {
			logger.Warn().Err(err).Msg("Failed to purge expired exchange cache entries")
		} else if purged > 0 {
			logger.Debug().Int("purged", purged).Msg("Purged expired exchange cache entries")
		}
	}

	if w.Sources.PrimaryNews == nil && w.Sources.FallbackNews == nil {
		logger.Warn().Msg("No news source configured - scans will report no candidates")
	}
	if len(w.Sources.Quotes) == 0 {
		logger.Warn().Msg("No quote source configured - every symbol will be rejected for missing price")
	}

	return w, nil
}
