// Package metrics provides Prometheus instrumentation for the ETL pipeline.
// Metrics are registered on the default registry so embedding applications
// and tests can scrape or inspect them directly.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FetchAttempts counts individual fetch attempts by outcome (success, error, timeout)
	FetchAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filterlists_etl_fetch_attempts_total",
			Help: "Total fetch attempts by outcome",
		},
		[]string{"outcome"},
	)

	// FetchExhausted counts fetches that failed after the full attempt budget
	FetchExhausted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "filterlists_etl_fetch_exhausted_total",
			Help: "Fetches that exhausted every attempt and degraded to empty",
		},
	)

	// FetchDuration tracks per-attempt request latency
	FetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "filterlists_etl_fetch_duration_seconds",
			Help:    "Latency of individual fetch attempts",
			Buckets: prometheus.DefBuckets,
		},
	)

	// RecordsExtracted counts raw records produced per endpoint
	RecordsExtracted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filterlists_etl_records_extracted_total",
			Help: "Raw records extracted per endpoint",
		},
		[]string{"endpoint"},
	)

	// RecordsLoaded counts documents inserted per collection
	RecordsLoaded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filterlists_etl_records_loaded_total",
			Help: "Documents inserted per collection",
		},
		[]string{"collection"},
	)

	// InsertFailures counts failed bulk inserts per collection
	InsertFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filterlists_etl_insert_failures_total",
			Help: "Failed bulk inserts per collection",
		},
		[]string{"collection"},
	)

	// EndpointFailures counts endpoints whose processing failed unexpectedly
	EndpointFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filterlists_etl_endpoint_failures_total",
			Help: "Endpoints whose processing failed unexpectedly",
		},
		[]string{"endpoint"},
	)
)
