package telemetry

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestObserveRun(t *testing.T) {
	m := New()
	m.ObserveRun("live", 3*time.Second, 2, time.Unix(1700000000, 0))
	m.ObserveRun("live", time.Second, 0, time.Unix(1700000060, 0))

	out := scrape(t, m)
	assert.Contains(t, out, `premarket_runs_total{phase="live"} 2`)
	assert.Contains(t, out, "premarket_candidates 0")
	assert.Contains(t, out, "premarket_last_run_timestamp_seconds 1.70000006e+09")
	assert.Contains(t, out, "premarket_run_duration_seconds_count 2")
}

func TestRecorders(t *testing.T) {
	m := New()
	m.RecordNews("benzinga", 4)
	m.RecordNews("", 9)
	m.RecordLookup("price", "found")
	m.RecordLookup("price", "found")
	m.RecordDecision("no_price")
	m.RecordPanic()
	m.RecordCache(true)
	m.RecordCache(false)

	out := scrape(t, m)
	assert.Contains(t, out, `premarket_news_events_total{source="benzinga"} 4`)
	assert.NotContains(t, out, `premarket_news_events_total{source=""}`)
	assert.Contains(t, out, `premarket_lookups_total{kind="price",status="found"} 2`)
	assert.Contains(t, out, `premarket_eligibility_decisions_total{reason="no_price"} 1`)
	assert.Contains(t, out, "premarket_worker_panics_total 1")
	assert.Contains(t, out, `premarket_cache_requests_total{result="hit"} 1`)
	assert.Contains(t, out, `premarket_cache_requests_total{result="miss"} 1`)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRun("prescan", time.Second, 1, time.Now())
		m.RecordNews("rss", 1)
		m.RecordLookup("bars", "unavailable")
		m.RecordDecision("accepted")
		m.RecordPanic()
		m.RecordCache(true)
	})
}

func TestHandler_IncludesRuntimeCollectors(t *testing.T) {
	out := scrape(t, New())
	assert.Contains(t, out, "go_goroutines")
}
