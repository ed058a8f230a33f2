// Package metrics exposes Prometheus instrumentation for the ingestion pipeline.
// Collectors are registered once on the default registry at package init.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "waskita"

var (
	// ApifyRequests counts outbound scraping service calls by operation and outcome code
	ApifyRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "apify_requests_total",
		Help:      "Outbound scraping service requests by operation and outcome",
	}, []string{"operation", "outcome"})

	ApifyRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "apify_request_duration_seconds",
		Help:      "Latency of outbound scraping service requests",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"operation"})

	// ScrapeJobs counts finished scrape jobs by platform and final status
	ScrapeJobs = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scrape_jobs_total",
		Help:      "Scrape jobs by platform and outcome",
	}, []string{"platform", "outcome"})

	RecordsWritten = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "records_written_total",
		Help:      "Raw records written by source",
	}, []string{"source"})

	RecordsSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "records_skipped_total",
		Help:      "Raw records skipped by source and reason",
	}, []string{"source", "reason"})

	RecordsCleaned = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "records_cleaned_total",
		Help:      "Raw records promoted by the cleaning stage, by outcome",
	}, []string{"outcome"})

	Classifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "classifications_total",
		Help:      "Classification results by model and label",
	}, []string{"model", "label"})

	ClassificationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "classification_failures_total",
		Help:      "Per-model classification failures",
	}, []string{"model"})

	Unclassifiable = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "unclassifiable_total",
		Help:      "Texts that vectorized to the zero vector",
	})

	PendingStaged = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "pending_results",
		Help:      "Staged scrape result sets awaiting a column mapping",
	})
)

// Handler returns the Prometheus HTTP handler for the metrics endpoint
func Handler() http.Handler {
	return promhttp.Handler()
}
