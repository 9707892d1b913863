package report

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/premarket/internal/models"
)

func zones(t *testing.T) (*time.Location, *time.Location) {
	t.Helper()
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	seoul, err := time.LoadLocation("Asia/Seoul")
	require.NoError(t, err)
	return ny, seoul
}

func sampleRanking() models.Ranking {
	rvol3 := 2.5
	phl := 1.80
	dv := 120
	return models.Ranking{
		RunID:       "run-1",
		Phase:       models.PhaseLive,
		Threshold:   65,
		GeneratedAt: time.Date(2025, 3, 14, 8, 15, 0, 0, time.UTC),
		Considered:  4,
		Candidates: []models.ScoredCandidate{
			{
				Candidate: models.Candidate{
					Event: models.NewsEvent{
						Symbol:   "ABCD",
						Headline: "XYZ Corp (NASDAQ: ABCD) Announces Stock Buyback",
						URL:      "https://example.com/abcd",
					},
					Price:           decimal.RequireFromString("1.5"),
					Exchange:        "NASDAQ",
					EventScore:      35,
					Keywords:        []string{"buyback"},
					BaseProbability: 67,
				},
				Metrics:          &models.Metrics{PHL: &phl, RVOL3: &rvol3, DV5K: &dv, Last: 1.56, Bars: 30},
				Bonus:            22,
				FinalProbability: 89,
			},
		},
	}
}

func TestDualTime(t *testing.T) {
	ny, seoul := zones(t)
	f := NewFormatter(FormatText, ny, seoul)

	got := f.DualTime(time.Date(2025, 3, 14, 8, 15, 0, 0, time.UTC))
	assert.Equal(t, "2025-03-14 04:15 ET / 2025-03-14 17:15 KST", got)

	single := NewFormatter(FormatText, ny, nil)
	assert.Equal(t, "2025-03-14 04:15 ET", single.DualTime(time.Date(2025, 3, 14, 8, 15, 0, 0, time.UTC)))
}

func TestFormat_Text(t *testing.T) {
	ny, seoul := zones(t)
	out, err := NewFormatter(FormatText, ny, seoul).Format(sampleRanking())
	require.NoError(t, err)

	assert.Contains(t, out, "Premarket Scout | 2025-03-14 04:15 ET / 2025-03-14 17:15 KST")
	assert.Contains(t, out, "Phase: live | Threshold: 65 | Considered: 4")
	assert.Contains(t, out, "1) ABCD  NASDAQ  $1.50")
	assert.Contains(t, out, "Probability 89% (base 67 + bonus 22) | Event score 35 [buyback]")
	assert.Contains(t, out, "PHL 1.80 | VWAP - | Last 1.56 | RVOL 1/3/5 -/2.5/- | DV5K 120K")
	assert.Contains(t, out, "https://example.com/abcd")
}

func TestFormat_TextNoCandidates(t *testing.T) {
	ny, seoul := zones(t)
	r := sampleRanking()
	r.Candidates = nil

	out, err := NewFormatter(FormatText, ny, seoul).Format(r)
	require.NoError(t, err)

	assert.Contains(t, out, "No candidates cleared the live threshold (65).")
	assert.NotContains(t, out, "1)")
}

func TestFormat_JSON(t *testing.T) {
	ny, seoul := zones(t)
	r := sampleRanking()
	r.Candidates = nil

	out, err := NewFormatter(FormatJSON, ny, seoul).Format(r)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, true, decoded["no_candidates"])
	assert.Equal(t, "run-1", decoded["run_id"])
	assert.Equal(t, []interface{}{}, decoded["candidates"])
}

func TestFormat_UnknownFormat(t *testing.T) {
	_, err := NewFormatter("xml", nil, nil).Format(sampleRanking())
	assert.Error(t, err)
}

func TestWriterSink(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewWriterSink(&buf).Deliver(context.Background(), "report"))
	assert.Equal(t, "report\n", buf.String())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, NewWriterSink(&buf).Deliver(ctx, "report"))
}

func TestFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "report.txt")
	sink := NewFileSink(path)

	require.NoError(t, sink.Deliver(context.Background(), "first"))
	require.NoError(t, sink.Deliver(context.Background(), "second"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second\n", string(data))
}
