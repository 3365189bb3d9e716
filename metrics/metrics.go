// Package metrics provides Prometheus metrics for the ad monitor.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ad_monitor"

// Fetch outcomes.
const (
	OutcomeSuccess     = "success"
	OutcomeSoftBlocked = "soft_blocked"
	OutcomeFailed      = "failed"
)

var (
	// CyclesTotal counts discovery cycles by result.
	CyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Total number of discovery cycles",
		},
		[]string{"status"},
	)

	// CycleDuration measures a full discovery cycle.
	CycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Duration of discovery cycles in seconds",
			Buckets:   []float64{5, 15, 30, 60, 120, 300, 600, 1200},
		},
	)

	// FetchAttemptsTotal counts individual page fetch attempts.
	FetchAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_attempts_total",
			Help:      "Total number of page fetch attempts by outcome",
		},
		[]string{"outcome"},
	)

	// ListingsTotal counts stored listings, split into new and updated.
	ListingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listings_total",
			Help:      "Total number of listings upserted",
		},
		[]string{"kind"},
	)

	// ListingsFilteredTotal counts candidates rejected by keyword filters.
	ListingsFilteredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listings_filtered_total",
			Help:      "Total number of candidates rejected by keyword filters",
		},
	)

	// PrunedTotal counts listings removed by retention.
	PrunedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pruned_total",
			Help:      "Total number of listings removed by retention",
		},
	)

	// ActiveWorkers tracks fetch workers currently running.
	ActiveWorkers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_workers",
			Help:      "Number of fetch workers currently running",
		},
	)

	// ErrorsTotal counts errors by operation.
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Total number of errors",
		},
		[]string{"operation"},
	)
)

// RecordCycle records a finished discovery cycle.
func RecordCycle(status string, seconds float64) {
	CyclesTotal.WithLabelValues(status).Inc()
	CycleDuration.Observe(seconds)
}

// RecordFetch records one fetch attempt.
func RecordFetch(outcome string) {
	FetchAttemptsTotal.WithLabelValues(outcome).Inc()
}

// RecordListing records an upsert result.
func RecordListing(isNew bool) {
	if isNew {
		ListingsTotal.WithLabelValues("new").Inc()
		return
	}
	ListingsTotal.WithLabelValues("updated").Inc()
}

// RecordError records an error.
func RecordError(operation string) {
	ErrorsTotal.WithLabelValues(operation).Inc()
}
