// Package telemetry exposes run metrics in Prometheus format.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors for scan runs. A nil *Metrics is a no-op.
type Metrics struct {
	registry *prometheus.Registry

	Runs          *prometheus.CounterVec
	RunDuration   prometheus.Histogram
	NewsEvents    *prometheus.CounterVec
	Lookups       *prometheus.CounterVec
	Decisions     *prometheus.CounterVec
	Candidates    prometheus.Gauge
	LastRunUnix   prometheus.Gauge
	WorkerPanics  prometheus.Counter
	CacheRequests *prometheus.CounterVec
}

// New creates the collectors on a private registry, including Go runtime
// and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		Runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "premarket_runs_total",
				Help: "Total number of scan runs by phase",
			},
			[]string{"phase"},
		),

		RunDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "premarket_run_duration_seconds",
				Help:    "Duration of scan runs in seconds",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
			},
		),

		NewsEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "premarket_news_events_total",
				Help: "Deduplicated news events by source",
			},
			[]string{"source"},
		),

		Lookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "premarket_lookups_total",
				Help: "Collaborator lookups by kind and status",
			},
			[]string{"kind", "status"},
		),

		Decisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "premarket_eligibility_decisions_total",
				Help: "Eligibility decisions by reason",
			},
			[]string{"reason"},
		),

		Candidates: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "premarket_candidates",
				Help: "Candidates in the most recent ranking",
			},
		),

		LastRunUnix: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "premarket_last_run_timestamp_seconds",
				Help: "Unix time of the most recent completed run",
			},
		),

		WorkerPanics: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "premarket_worker_panics_total",
				Help: "Panics recovered in per-symbol workers",
			},
		),

		CacheRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "premarket_cache_requests_total",
				Help: "Exchange metadata cache requests by result",
			},
			[]string{"result"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.Runs,
		m.RunDuration,
		m.NewsEvents,
		m.Lookups,
		m.Decisions,
		m.Candidates,
		m.LastRunUnix,
		m.WorkerPanics,
		m.CacheRequests,
	)

	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRun records a completed run.
func (m *Metrics) ObserveRun(phase string, duration time.Duration, candidates int, finished time.Time) {
	if m == nil {
		return
	}
	m.Runs.WithLabelValues(phase).Inc()
	m.RunDuration.Observe(duration.Seconds())
	m.Candidates.Set(float64(candidates))
	m.LastRunUnix.Set(float64(finished.Unix()))
}

// RecordNews records events collected from source.
func (m *Metrics) RecordNews(source string, events int) {
	if m == nil || source == "" {
		return
	}
	m.NewsEvents.WithLabelValues(source).Add(float64(events))
}

// RecordLookup records one collaborator lookup (kind: price, exchange, bars).
func (m *Metrics) RecordLookup(kind, status string) {
	if m == nil {
		return
	}
	m.Lookups.WithLabelValues(kind, status).Inc()
}

// RecordDecision records one eligibility decision.
func (m *Metrics) RecordDecision(reason string) {
	if m == nil {
		return
	}
	m.Decisions.WithLabelValues(reason).Inc()
}

// RecordPanic records a recovered worker panic.
func (m *Metrics) RecordPanic() {
	if m == nil {
		return
	}
	m.WorkerPanics.Inc()
}

// RecordCache records a cache hit or miss.
func (m *Metrics) RecordCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheRequests.WithLabelValues(result).Inc()
}
