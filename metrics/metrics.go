// Package metrics exposes Prometheus instruments for the memory engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// IngestTotal counts ingestion outcomes per tenant. Outcome is one of
	// "inserted" (no close neighbor found) or "merged".
	IngestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "recollect",
		Name:      "ingest_total",
		Help:      "Number of ingested summaries by tenant and outcome.",
	}, []string{"tenant", "outcome"})

	// RetireFailures counts failed retirements of absorbed summaries. A
	// failure here leaves a duplicate behind but never fails the ingest.
	RetireFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "recollect",
		Name:      "retire_failures_total",
		Help:      "Number of failed deletions of summaries absorbed by a merge.",
	})

	// SearchDuration observes search latency per mode.
	SearchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "recollect",
		Name:      "search_duration_seconds",
		Help:      "Search latency by mode.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"mode"})
)
