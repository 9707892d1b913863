package pipeline

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/premarket/internal/common"
	"github.com/ternarybob/premarket/internal/interfaces"
	"github.com/ternarybob/premarket/internal/models"
	"github.com/ternarybob/premarket/internal/services/report"
	"github.com/ternarybob/premarket/internal/telemetry"
)

type fakeNews struct {
	name string
	rows []models.NewsRow
	err  error
}

func (f *fakeNews) Name() string { return f.name }

func (f *fakeNews) FetchNews(ctx context.Context, since time.Time) ([]models.NewsRow, error) {
	return f.rows, f.err
}

type fakeQuotes struct {
	prices map[string]float64
	panics map[string]bool
}

func (f *fakeQuotes) Name() string { return "quotes" }

func (f *fakeQuotes) PreviousClose(ctx context.Context, symbol string) models.Lookup[float64] {
	if f.panics[symbol] {
		panic("quote decoder exploded")
	}
	if p, ok := f.prices[symbol]; ok {
		return models.Found(p)
	}
	return models.Unavailable[float64](nil)
}

type fakeReference struct {
	info map[string]models.ExchangeInfo
}

func (f *fakeReference) Name() string { return "reference" }

func (f *fakeReference) Exchange(ctx context.Context, symbol string) models.Lookup[models.ExchangeInfo] {
	if info, ok := f.info[symbol]; ok {
		return models.Found(info)
	}
	return models.Unavailable[models.ExchangeInfo](errors.New("not found"))
}

type fakeBars struct {
	bars map[string][]models.MinuteBar
}

func (f *fakeBars) Name() string { return "bars" }

func (f *fakeBars) MinuteBars(ctx context.Context, symbol string, from, to time.Time) models.Lookup[[]models.MinuteBar] {
	if b, ok := f.bars[symbol]; ok {
		return models.Found(b)
	}
	return models.Found([]models.MinuteBar{})
}

func eastern(t *testing.T, hour, minute int) time.Time {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	return time.Date(2025, 3, 14, hour, minute, 0, 0, loc)
}

// liveBars returns 23 bars: a flat 20-bar baseline then three bars at
// 2.5x volume, ending at close 1.545 with 120K of five-minute dollar volume.
func liveBars() []models.MinuteBar {
	bars := make([]models.MinuteBar, 0, 23)
	for i := 0; i < 20; i++ {
		bars = append(bars, models.MinuteBar{High: 1.52, Close: 1.5, Volume: 10000})
	}
	for i := 0; i < 3; i++ {
		bars = append(bars, models.MinuteBar{High: 1.56, Close: 1.545, Volume: 25000})
	}
	// last five: 2*10000*1.5 + 3*25000*1.545 = 30000 + 115875 = 145875 -> 145
	return bars
}

const buyback = "XYZ Corp (NASDAQ: ABCD) Announces Stock Buyback"

func newPipeline(rows []models.NewsRow, prices map[string]float64, bars *fakeBars) *Pipeline {
	config := common.NewDefaultConfig()
	sources := Sources{
		PrimaryNews: &fakeNews{name: "benzinga", rows: rows},
		Quotes:      []interfaces.QuoteSource{&fakeQuotes{prices: prices}},
		Reference: &fakeReference{info: map[string]models.ExchangeInfo{
			"ABCD": {Name: "NASDAQ", Code: "XNAS"},
			"XYZ":  {Name: "OTC"},
		}},
	}
	if bars != nil {
		sources.Bars = bars
	}
	return New(config, sources, telemetry.New(), arbor.NewLogger())
}

func TestRun_PreScanScenario(t *testing.T) {
	now := eastern(t, 3, 40)
	rows := []models.NewsRow{{Headline: buyback, URL: "https://example.com/abcd", PublishedAt: now.Add(-time.Hour)}}

	result := newPipeline(rows, map[string]float64{"ABCD": 1.50, "XYZ": 1.00}, nil).Run(context.Background(), now)

	assert.Equal(t, models.PhasePreScan, result.Phase)
	assert.Equal(t, 55, result.Threshold)
	assert.True(t, strings.HasPrefix(result.RunID, "run_"))
	require.Len(t, result.Candidates, 1)

	c := result.Candidates[0]
	assert.Equal(t, "ABCD", c.Event.Symbol)
	assert.Equal(t, "NASDAQ", c.Exchange)
	assert.Equal(t, 35, c.EventScore)
	assert.Equal(t, []string{"buyback"}, c.Keywords)
	assert.Equal(t, 67, c.BaseProbability)
	assert.Equal(t, 67, c.FinalProbability)
	assert.Nil(t, c.Metrics)
}

func TestRun_PriceOutOfBand(t *testing.T) {
	now := eastern(t, 3, 40)
	rows := []models.NewsRow{{Headline: buyback, PublishedAt: now}}

	result := newPipeline(rows, map[string]float64{"ABCD": 5.00}, nil).Run(context.Background(), now)

	assert.True(t, result.Empty())
}

func TestRun_LiveScenario(t *testing.T) {
	now := eastern(t, 4, 30)
	rows := []models.NewsRow{{Headline: buyback, PublishedAt: now, Symbols: []string{"ABCD"}}}
	bars := &fakeBars{bars: map[string][]models.MinuteBar{"ABCD": liveBars()}}

	result := newPipeline(rows, map[string]float64{"ABCD": 1.50}, bars).Run(context.Background(), now)

	assert.Equal(t, models.PhaseLive, result.Phase)
	require.Len(t, result.Candidates, 1)
	c := result.Candidates[0]
	require.NotNil(t, c.Metrics)
	require.NotNil(t, c.Metrics.RVOL3)
	assert.InDelta(t, 2.5, *c.Metrics.RVOL3, 1e-9)
	require.NotNil(t, c.Metrics.DV5K)
	assert.Equal(t, 145, *c.Metrics.DV5K)
	assert.Equal(t, 22, c.Bonus)
	assert.Equal(t, 89, c.FinalProbability)
}

func TestRun_LiveZeroBarsNoBonus(t *testing.T) {
	now := eastern(t, 4, 30)
	rows := []models.NewsRow{{Headline: buyback, PublishedAt: now, Symbols: []string{"ABCD"}}}

	result := newPipeline(rows, map[string]float64{"ABCD": 1.50}, &fakeBars{}).Run(context.Background(), now)

	// base 67 with no bonus clears the live threshold of 65
	require.Len(t, result.Candidates, 1)
	assert.Equal(t, 0, result.Candidates[0].Bonus)
	assert.Equal(t, 0, result.Candidates[0].Metrics.Bars)
	assert.Equal(t, 1.50, result.Candidates[0].Metrics.Last)
}

func TestRun_WorkerPanicIsContained(t *testing.T) {
	now := eastern(t, 3, 40)
	config := common.NewDefaultConfig()
	sources := Sources{
		PrimaryNews: &fakeNews{name: "benzinga", rows: []models.NewsRow{
			{Headline: "Alpha (NASDAQ: ALFA) announces buyback", PublishedAt: now},
			{Headline: "Beta (NASDAQ: BETA) announces buyback", PublishedAt: now},
		}},
		Quotes: []interfaces.QuoteSource{&fakeQuotes{
			prices: map[string]float64{"ALFA": 1.0, "BETA": 1.0},
			panics: map[string]bool{"ALFA": true},
		}},
	}

	result := New(config, sources, nil, arbor.NewLogger()).Run(context.Background(), now)

	require.Len(t, result.Candidates, 1)
	assert.Equal(t, "BETA", result.Candidates[0].Event.Symbol)
}

func TestRun_NoNews(t *testing.T) {
	config := common.NewDefaultConfig()
	result := New(config, Sources{}, nil, arbor.NewLogger()).Run(context.Background(), eastern(t, 3, 40))

	assert.True(t, result.Empty())
	assert.Equal(t, 0, result.Considered)
}

func TestRun_SameSymbolManyEvents(t *testing.T) {
	now := eastern(t, 3, 40)
	rows := []models.NewsRow{
		{Headline: "ABCD wins contract award", PublishedAt: now, Symbols: []string{"ABCD"}},
		{Headline: "ABCD announces FDA approval", PublishedAt: now, Symbols: []string{"ABCD"}},
	}

	result := newPipeline(rows, map[string]float64{"ABCD": 1.50}, nil).Run(context.Background(), now)

	// contract+award = 48 -> 83; fda approval = 40 -> 73
	require.Len(t, result.Candidates, 2)
	assert.Equal(t, 83, result.Candidates[0].FinalProbability)
	assert.Equal(t, 73, result.Candidates[1].FinalProbability)
}

type failingSink struct{}

func (failingSink) Deliver(ctx context.Context, report string) error {
	return errors.New("disk full")
}

func TestRunAndDeliver(t *testing.T) {
	now := eastern(t, 3, 40)
	p := newPipeline([]models.NewsRow{{Headline: buyback, PublishedAt: now}}, map[string]float64{"ABCD": 1.5}, nil)
	formatter := report.NewFormatter(report.FormatText, now.Location(), nil)

	var buf bytes.Buffer
	result, err := p.RunAndDeliver(context.Background(), now, formatter, report.NewWriterSink(&buf))
	require.NoError(t, err)
	assert.False(t, result.Empty())
	assert.Contains(t, buf.String(), "1) ABCD  NASDAQ  $1.50")

	_, err = p.RunAndDeliver(context.Background(), now, formatter, failingSink{})
	assert.Error(t, err)
}
