package badger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/premarket/internal/interfaces"
	"github.com/ternarybob/premarket/internal/models"
	"github.com/ternarybob/premarket/internal/telemetry"
	"github.com/timshannon/badgerhold/v4"
)

// ExchangeRecord is a cached listing lookup.
type ExchangeRecord struct {
	Symbol    string
	Name      string
	Code      string
	Source    string
	FetchedAt time.Time
}

// ExchangeCache wraps a ReferenceSource and keeps answered lookups for ttl.
// Listing venues rarely change, so they are reused across runs.
type ExchangeCache struct {
	db      *BadgerDB
	inner   interfaces.ReferenceSource
	ttl     time.Duration
	metrics *telemetry.Metrics
	logger  arbor.ILogger
	now     func() time.Time
}

// NewExchangeCache creates the caching decorator. metrics may be nil.
func NewExchangeCache(db *BadgerDB, inner interfaces.ReferenceSource, ttl time.Duration, metrics *telemetry.Metrics, logger arbor.ILogger) *ExchangeCache {
	return &ExchangeCache{
		db:      db,
		inner:   inner,
		ttl:     ttl,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// Name returns the wrapped source name.
func (c *ExchangeCache) Name() string {
	return c.inner.Name()
}

// Exchange returns a fresh cached value or asks the wrapped source.
// Only complete lookups are stored; failures and partial answers are
// retried on the next call.
func (c *ExchangeCache) Exchange(ctx context.Context, symbol string) models.Lookup[models.ExchangeInfo] {
	key := cacheKey(symbol)

	var rec ExchangeRecord
	err := c.db.Store().Get(key, &rec)
	switch {
	case err == nil && c.now().Sub(rec.FetchedAt) < c.ttl:
		c.metrics.RecordCache(true)
		return models.Found(models.ExchangeInfo{Name: rec.Name, Code: rec.Code})
	case err != nil && !errors.Is(err, badgerhold.ErrNotFound):
		c.logger.Warn().Err(err).Str("symbol", symbol).Msg("Exchange cache read failed")
	}
	c.metrics.RecordCache(false)

	lookup := c.inner.Exchange(ctx, symbol)
	if !lookup.Complete() {
		if lookup.OK() {
			c.logger.Debug().Err(lookup.Err).Str("symbol", symbol).Msg("Partial exchange lookup not cached")
		}
		return lookup
	}

	rec = ExchangeRecord{
		Symbol:    key,
		Name:      lookup.Value.Name,
		Code:      lookup.Value.Code,
		Source:    c.inner.Name(),
		FetchedAt: c.now(),
	}
	if err := c.db.Store().Upsert(key, &rec); err != nil {
		c.logger.Warn().Err(err).Str("symbol", symbol).Msg("Exchange cache write failed")
	}

	return lookup
}

// Purge deletes records older than the ttl and returns the count removed.
func (c *ExchangeCache) Purge(ctx context.Context) (int, error) {
	cutoff := c.now().Add(-c.ttl)

	var stale []ExchangeRecord
	if err := c.db.Store().Find(&stale, badgerhold.Where("FetchedAt").Lt(cutoff)); err != nil {
		return 0, fmt.Errorf("failed to find stale exchange records: %w", err)
	}
	if len(stale) == 0 {
		return 0, nil
	}

	if err := c.db.Store().DeleteMatching(&ExchangeRecord{}, badgerhold.Where("FetchedAt").Lt(cutoff)); err != nil {
		return 0, fmt.Errorf("failed to purge exchange records: %w", err)
	}

	c.logger.Debug().Int("purged", len(stale)).Msg("Purged stale exchange records")
	return len(stale), nil
}

func cacheKey(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
