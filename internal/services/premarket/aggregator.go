package premarket

import (
	"context"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/premarket/internal/common"
	"github.com/ternarybob/premarket/internal/interfaces"
	"github.com/ternarybob/premarket/internal/models"
)

// Aggregator fetches the session's minute bars and computes Metrics.
type Aggregator struct {
	bars         interfaces.BarSource
	sessionStart common.Clock
	loc          *time.Location
	logger       arbor.ILogger
}

// NewAggregator creates an aggregator. A nil bar source yields empty metrics.
func NewAggregator(bars interfaces.BarSource, sessionStart common.Clock, loc *time.Location, logger arbor.ILogger) *Aggregator {
	if loc == nil {
		loc = time.UTC
	}
	return &Aggregator{
		bars:         bars,
		sessionStart: sessionStart,
		loc:          loc,
		logger:       logger,
	}
}

// Metrics returns the metrics of symbol for [session start, now].
// An unavailable bar source degrades to the no-bars result.
func (a *Aggregator) Metrics(ctx context.Context, symbol string, prevClose float64, now time.Time) models.Metrics {
	if a.bars == nil {
		return Compute(prevClose, nil)
	}

	from := a.sessionStart.On(now, a.loc)
	if !now.After(from) {
		return Compute(prevClose, nil)
	}

	lookup := a.bars.MinuteBars(ctx, symbol, from, now)
	if !lookup.OK() {
		a.logger.Debug().
			Err(lookup.Err).
			Str("symbol", symbol).
			Str("source", a.bars.Name()).
			Str("status", lookup.Status.String()).
			Msg("Minute bars unavailable")
		return Compute(prevClose, nil)
	}

	return Compute(prevClose, lookup.Value)
}
