// Package metrics provides Prometheus metrics for chatvault.
//
// Every method is safe to call on a nil *Metrics, so components can take
// metrics as an optional dependency.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for chatvault
type Metrics struct {
	Registry *prometheus.Registry

	// Archive pipeline metrics
	ArchivesTotal        *prometheus.CounterVec
	ArchiveFailuresTotal *prometheus.CounterVec
	ArchiveDuration      *prometheus.HistogramVec
	ContentDedupTotal    prometheus.Counter
	TokensArchivedTotal  prometheus.Counter

	// Search metrics
	SearchesTotal       *prometheus.CounterVec
	SearchResultsTotal  prometheus.Counter
	SearchDuration      prometheus.Histogram

	// Worker pool metrics
	WorkerJobsTotal  *prometheus.CounterVec
	WorkerQueueDepth prometheus.Gauge
}

// New creates all metrics on a fresh registry that also carries the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(reg)
	m := &Metrics{Registry: reg}

	m.ArchivesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatvault_archives_total",
			Help: "Total number of archive operations",
		},
		[]string{"source", "status"},
	)

	m.ArchiveFailuresTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatvault_archive_failures_total",
			Help: "Total number of failed operations by error kind",
		},
		[]string{"kind"},
	)

	m.ArchiveDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chatvault_archive_duration_seconds",
			Help:    "Duration of archive operations in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"source"},
	)

	m.ContentDedupTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "chatvault_content_dedup_total",
			Help: "Archives whose content was already present in the content store",
		},
	)

	m.TokensArchivedTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "chatvault_tokens_archived_total",
			Help: "Approximate number of tokens archived",
		},
	)

	m.SearchesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatvault_searches_total",
			Help: "Total number of similarity searches",
		},
		[]string{"status"},
	)

	m.SearchResultsTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "chatvault_search_results_total",
			Help: "Total number of search hits returned",
		},
	)

	m.SearchDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chatvault_search_duration_seconds",
			Help:    "Duration of similarity searches in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	m.WorkerJobsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatvault_worker_jobs_total",
			Help: "Total number of worker pool jobs by outcome",
		},
		[]string{"status"},
	)

	m.WorkerQueueDepth = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "chatvault_worker_queue_depth",
			Help: "Number of conversations waiting in the worker queue",
		},
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

// RecordArchive records a completed archive attempt.
func (m *Metrics) RecordArchive(source, status string, duration time.Duration, tokens int, dedup bool) {
	if m == nil {
		return
	}
	m.ArchivesTotal.WithLabelValues(source, status).Inc()
	m.ArchiveDuration.WithLabelValues(source).Observe(duration.Seconds())
	if status != StatusSuccess {
		return
	}
	m.TokensArchivedTotal.Add(float64(tokens))
	if dedup {
		m.ContentDedupTotal.Inc()
	}
}

// RecordFailure counts a failure of the given kind.
func (m *Metrics) RecordFailure(kind string) {
	if m == nil {
		return
	}
	m.ArchiveFailuresTotal.WithLabelValues(kind).Inc()
}

// RecordSearch records a similarity search.
func (m *Metrics) RecordSearch(status string, results int, duration time.Duration) {
	if m == nil {
		return
	}
	m.SearchesTotal.WithLabelValues(status).Inc()
	m.SearchResultsTotal.Add(float64(results))
	m.SearchDuration.Observe(duration.Seconds())
}

// RecordJob counts a worker pool job outcome.
func (m *Metrics) RecordJob(status string) {
	if m == nil {
		return
	}
	m.WorkerJobsTotal.WithLabelValues(status).Inc()
}

// SetQueueDepth reports the worker queue length.
func (m *Metrics) SetQueueDepth(n int) {
	if m == nil {
		return
	}
	m.WorkerQueueDepth.Set(float64(n))
}

// Status label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusDropped = "dropped"
)
