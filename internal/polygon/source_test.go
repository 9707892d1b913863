package polygon

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/polygon-io/client-go/rest/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/ternarybob/premarket/internal/models"
)

type fakeAPI struct {
	prev    []models.Agg
	details models.Ticker
	aggs    []models.Agg
	err     error
	calls   int
}

func (f *fakeAPI) previousClose(ctx context.Context, ticker string) ([]models.Agg, error) {
	f.calls++
	return f.prev, f.err
}

func (f *fakeAPI) tickerDetails(ctx context.Context, ticker string) (models.Ticker, error) {
	f.calls++
	return f.details, f.err
}

func (f *fakeAPI) minuteAggs(ctx context.Context, ticker string, from, to time.Time) ([]models.Agg, error) {
	f.calls++
	return f.aggs, f.err
}

func TestSource_PreviousClose(t *testing.T) {
	tests := []struct {
		name   string
		api    *fakeAPI
		want   float64
		status domain.LookupStatus
	}{
		{"found", &fakeAPI{prev: []models.Agg{{Close: 1.95}}}, 1.95, domain.LookupFound},
		{"no results", &fakeAPI{}, 0, domain.LookupUnavailable},
		{"zero close", &fakeAPI{prev: []models.Agg{{Close: 0}}}, 0, domain.LookupUnavailable},
		{"error", &fakeAPI{err: errors.New("boom")}, 0, domain.LookupUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSource(tt.api, 100, nil)
			got := s.PreviousClose(context.Background(), "ABCD")
			assert.Equal(t, tt.status, got.Status)
			assert.Equal(t, tt.want, got.Value)
		})
	}
}

func TestSource_Exchange(t *testing.T) {
	s := newSource(&fakeAPI{details: models.Ticker{PrimaryExchange: "xnas"}}, 100, nil)
	got := s.Exchange(context.Background(), "ABCD")
	require.True(t, got.OK())
	assert.Equal(t, domain.ExchangeInfo{Code: "XNAS"}, got.Value)

	s = newSource(&fakeAPI{}, 100, nil)
	assert.Equal(t, domain.LookupUnavailable, s.Exchange(context.Background(), "ABCD").Status)
}

func TestSource_MinuteBars(t *testing.T) {
	from := time.Date(2025, 3, 14, 8, 0, 0, 0, time.UTC)
	to := from.Add(10 * time.Minute)
	api := &fakeAPI{aggs: []models.Agg{
		{Timestamp: models.Millis(from.Add(-time.Minute)), Close: 9},
		{Timestamp: models.Millis(from), High: 1.6, Close: 1.5, Volume: 1000, VWAP: 1.55},
		{Timestamp: models.Millis(from.Add(time.Minute)), High: 1.7, Close: 1.65, Volume: 2000},
		{Timestamp: models.Millis(to.Add(time.Minute)), Close: 9},
	}}

	got := newSource(api, 100, nil).MinuteBars(context.Background(), "ABCD", from, to)
	require.True(t, got.OK())
	require.Len(t, got.Value, 2)
	assert.Equal(t, 1.55, got.Value[0].VWAP)
	assert.Equal(t, 2000.0, got.Value[1].Volume)
	assert.True(t, got.Value[1].Timestamp.Equal(from.Add(time.Minute)))
}

func TestSource_MinuteBarsEmptyIsFound(t *testing.T) {
	got := newSource(&fakeAPI{}, 100, nil).MinuteBars(context.Background(), "ABCD", time.Now(), time.Now())
	assert.True(t, got.OK())
	assert.Empty(t, got.Value)
}

func TestSource_CancelledContext(t *testing.T) {
	api := &fakeAPI{prev: []models.Agg{{Close: 2}}}
	s := newSource(api, 1, nil)
	// Drain the single burst token
	_ = s.PreviousClose(context.Background(), "ABCD")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	got := s.PreviousClose(ctx, "ABCD")
	assert.Equal(t, domain.LookupUnavailable, got.Status)
	assert.Equal(t, 1, api.calls)
}
