// Package metrics defines the Prometheus collectors for searches and refresh
// cycles and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Cache status label values for SearchLatency.
const (
	CacheHit  = "hit"
	CacheMiss = "miss"
)

// Metrics holds all Prometheus collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	SearchQueriesTotal *prometheus.CounterVec
	SearchLatency      *prometheus.HistogramVec
	SearchResultsCount prometheus.Histogram
	RefreshCyclesTotal *prometheus.CounterVec
	RefreshDuration    prometheus.Histogram
	RefreshLastSuccess prometheus.Gauge
	WalkErrorsTotal    prometheus.Counter
	WalkSkippedTotal   prometheus.Counter
	IndexEntries       prometheus.Gauge
	IndexReloadsTotal  *prometheus.CounterVec
}

// New creates all collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SearchQueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "findex_search_queries_total",
				Help: "Total search queries by result type (hit, zero_result, error).",
			},
			[]string{"result_type"},
		),
		SearchLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "findex_search_latency_seconds",
				Help:    "Search latency in seconds, excluding first-use index builds.",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"cache_status"},
		),
		SearchResultsCount: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "findex_search_results_count",
				Help:    "Number of results returned per search query.",
				Buckets: []float64{0, 1, 5, 10, 50, 100, 1000, 10000},
			},
		),
		RefreshCyclesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "findex_refresh_cycles_total",
				Help: "Total index rebuilds by status (success, error).",
			},
			[]string{"status"},
		),
		RefreshDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "findex_refresh_duration_seconds",
				Help:    "Duration of full walk-and-save rebuilds in seconds.",
				Buckets: prometheus.ExponentialBuckets(0.1, 4, 10),
			},
		),
		RefreshLastSuccess: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "findex_refresh_last_success_timestamp_seconds",
				Help: "Unix time of the last successful rebuild.",
			},
		),
		WalkErrorsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "findex_walk_errors_total",
				Help: "Total unreadable entries encountered while walking.",
			},
		),
		WalkSkippedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "findex_walk_skipped_total",
				Help: "Total entries left out by exclusions or undecodable names.",
			},
		),
		IndexEntries: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "findex_index_entries",
				Help: "Number of names in the resident index.",
			},
		),
		IndexReloadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "findex_index_reloads_total",
				Help: "Total loads of the persisted index by status (success, error).",
			},
			[]string{"status"},
		),
	}

	reg.MustRegister(
		m.SearchQueriesTotal,
		m.SearchLatency,
		m.SearchResultsCount,
		m.RefreshCyclesTotal,
		m.RefreshDuration,
		m.RefreshLastSuccess,
		m.WalkErrorsTotal,
		m.WalkSkippedTotal,
		m.IndexEntries,
		m.IndexReloadsTotal,
	)

	return m
}

// ObserveSearch records one search call.
func (m *Metrics) ObserveSearch(cacheStatus string, results int, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	switch {
	case err != nil:
		m.SearchQueriesTotal.WithLabelValues("error").Inc()
		return
	case results == 0:
		m.SearchQueriesTotal.WithLabelValues("zero_result").Inc()
	default:
		m.SearchQueriesTotal.WithLabelValues("hit").Inc()
	}
	m.SearchLatency.WithLabelValues(cacheStatus).Observe(elapsed.Seconds())
	m.SearchResultsCount.Observe(float64(results))
}

// ObserveRefresh records one rebuild.
func (m *Metrics) ObserveRefresh(entries, skipped, walkErrors int, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.WalkErrorsTotal.Add(float64(walkErrors))
	m.WalkSkippedTotal.Add(float64(skipped))
	if err != nil {
		m.RefreshCyclesTotal.WithLabelValues("error").Inc()
		return
	}
	m.RefreshCyclesTotal.WithLabelValues("success").Inc()
	m.RefreshDuration.Observe(elapsed.Seconds())
	m.RefreshLastSuccess.SetToCurrentTime()
	m.IndexEntries.Set(float64(entries))
}

// ObserveReload records one load of the persisted index.
func (m *Metrics) ObserveReload(entries int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.IndexReloadsTotal.WithLabelValues("error").Inc()
		return
	}
	m.IndexReloadsTotal.WithLabelValues("success").Inc()
	m.IndexEntries.Set(float64(entries))
}

// Handler returns the Prometheus scrape HTTP handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
