// Package pipeline runs one end-to-end premarket scan.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/premarket/internal/common"
	"github.com/ternarybob/premarket/internal/interfaces"
	"github.com/ternarybob/premarket/internal/models"
	"github.com/ternarybob/premarket/internal/services/catalyst"
	"github.com/ternarybob/premarket/internal/services/eligibility"
	"github.com/ternarybob/premarket/internal/services/news"
	"github.com/ternarybob/premarket/internal/services/premarket"
	"github.com/ternarybob/premarket/internal/services/ranking"
	"github.com/ternarybob/premarket/internal/services/report"
	"github.com/ternarybob/premarket/internal/services/tickers"
	"github.com/ternarybob/premarket/internal/telemetry"
)

// Sources are the collaborators a run reads from. Any field may be nil.
type Sources struct {
	PrimaryNews  interfaces.NewsSource
	FallbackNews interfaces.NewsSource
	Quotes       []interfaces.QuoteSource // Tried in order
	Reference    interfaces.ReferenceSource
	Bars         interfaces.BarSource
}

// Pipeline wires the scan stages together.
type Pipeline struct {
	news      *news.Aggregator
	scorer    *catalyst.Scorer
	filter    *eligibility.Filter
	bars      *premarket.Aggregator
	ranker    *ranking.Ranker
	telemetry *telemetry.Metrics
	loc       *time.Location
	workers   int
	logger    arbor.ILogger
}

// New creates a pipeline from configuration and sources. metrics may be nil.
func New(config *common.Config, sources Sources, metrics *telemetry.Metrics, logger arbor.ILogger) *Pipeline {
	loc := config.Location()
	sessionStart, err := common.ParseClock(config.Scan.SessionStart)
	if err != nil {
		sessionStart = common.Clock{Hour: 4}
	}

	return &Pipeline{
		news:      news.NewAggregator(config.Scan, sources.PrimaryNews, sources.FallbackNews, tickers.NewDefaultExtractor(), logger),
		scorer:    catalyst.DefaultScorer(),
		filter:    eligibility.NewFilter(config.Eligibility, sources.Quotes, sources.Reference, logger),
		bars:      premarket.NewAggregator(sources.Bars, sessionStart, loc, logger),
		ranker:    ranking.NewRanker(config.Ranking),
		telemetry: metrics,
		loc:       loc,
		workers:   config.Scan.Workers,
		logger:    logger,
	}
}

// symbolResult is the per-symbol outcome shared between workers.
type symbolResult struct {
	decision eligibility.Decision
	metrics  *models.Metrics
}

// Run performs one scan at now. Data problems degrade the result; Run never fails.
func (p *Pipeline) Run(ctx context.Context, now time.Time) models.Ranking {
	start := time.Now()
	runID := common.NewRunID()
	phase := p.ranker.PhaseAt(now, p.loc)

	p.logger.Info().
		Str("run_id", runID).
		Str("phase", string(phase)).
		Str("now", now.In(p.loc).Format(time.RFC3339)).
		Msg("Starting premarket scan")

	batch := p.news.Collect(ctx, now)
	p.telemetry.RecordNews(batch.Source, len(batch.Events))

	symbols := uniqueSymbols(batch.Events)
	results := p.resolve(ctx, runID, phase, symbols, now)

	scored := make([]models.ScoredCandidate, 0, len(batch.Events))
	for _, event := range batch.Events {
		res, ok := results[event.Symbol]
		if !ok || !res.decision.Accepted {
			continue
		}

		score, matches := p.scorer.Explain(event.Headline)
		scored = append(scored, models.ScoredCandidate{
			Candidate: models.Candidate{
				Event:           event,
				Price:           res.decision.Price,
				Exchange:        res.decision.ExchangeLabel(),
				EventScore:      score,
				Keywords:        catalyst.Phrases(matches),
				BaseProbability: p.ranker.BaseProbability(score),
			},
			Metrics: res.metrics,
		})
	}

	result := p.ranker.Rank(phase, scored)
	result.RunID = runID
	result.GeneratedAt = now

	duration := time.Since(start)
	p.telemetry.ObserveRun(string(phase), duration, len(result.Candidates), time.Now())

	p.logger.Info().
		Str("run_id", runID).
		Str("news_source", batch.Source).
		Int("events", len(batch.Events)).
		Int("symbols", len(symbols)).
		Int("eligible", len(scored)).
		Int("candidates", len(result.Candidates)).
		Dur("duration", duration).
		Msg("Premarket scan complete")

	return result
}

// RunAndDeliver runs a scan, formats it and hands it to sink.
// Only formatting and delivery failures are returned.
func (p *Pipeline) RunAndDeliver(ctx context.Context, now time.Time, formatter *report.Formatter, sink interfaces.ReportSink) (models.Ranking, error) {
	result := p.Run(ctx, now)

	text, err := formatter.Format(result)
	if err != nil {
		return result, fmt.Errorf("failed to format report: %w", err)
	}
	if err := sink.Deliver(ctx, text); err != nil {
		return result, fmt.Errorf("failed to deliver report: %w", err)
	}
	return result, nil
}

// resolve runs eligibility and, in the live phase, metrics for each symbol
// on the bounded worker pool. All workers finish before it returns.
func (p *Pipeline) resolve(ctx context.Context, runID string, phase models.Phase, symbols []string, now time.Time) map[string]symbolResult {
	var mu sync.Mutex
	results := make(map[string]symbolResult, len(symbols))

	errs := common.ForEachBounded(ctx, p.logger, "symbol-lookup", p.workers, len(symbols), func(ctx context.Context, i int) {
		symbol := symbols[i]

		decision := p.filter.Check(ctx, symbol)
		p.telemetry.RecordDecision(decision.Reason)

		res := symbolResult{decision: decision}
		if decision.Accepted && phase == models.PhaseLive {
			m := p.bars.Metrics(ctx, symbol, decision.Price.InexactFloat64(), now)
			res.metrics = &m
			status := models.LookupFound.String()
			if m.Bars == 0 {
				status = models.LookupUnavailable.String()
			}
			p.telemetry.RecordLookup("bars", status)
		}

		p.logger.Debug().
			Str("run_id", runID).
			Str("symbol", symbol).
			Bool("accepted", decision.Accepted).
			Str("reason", decision.Reason).
			Str("price", decision.Price.String()).
			Str("exchange", decision.ExchangeLabel()).
			Msg("Symbol resolved")

		mu.Lock()
		results[symbol] = res
		mu.Unlock()
	})

	for i, err := range errs {
		if err == nil {
			continue
		}
		var pe *common.PanicError
		if errors.As(err, &pe) {
			p.telemetry.RecordPanic()
		}
		p.logger.Warn().
			Err(err).
			Str("run_id", runID).
			Str("symbol", symbols[i]).
			Msg("Symbol lookup abandoned, treating as unavailable")
	}

	return results
}

func uniqueSymbols(events []models.NewsEvent) []string {
	seen := make(map[string]bool)
	var symbols []string
	for _, e := range events {
		if !seen[e.Symbol] {
			seen[e.Symbol] = true
			symbols = append(symbols, e.Symbol)
		}
	}
	return symbols
}
