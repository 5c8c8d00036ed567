// Package metrics defines the Prometheus collectors shared by the pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EnrichmentLookups counts resolutions by namespace (track, artist) and
	// outcome (cache, api, failed, skipped).
	EnrichmentLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listeningstats_enrichment_lookups_total",
			Help: "Total number of metadata resolutions by namespace and outcome",
		},
		[]string{"namespace", "outcome"},
	)

	// ProviderRequestDuration observes external lookup latency.
	ProviderRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "listeningstats_provider_request_duration_seconds",
			Help:    "Latency of metadata provider requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider", "method"},
	)

	// CircuitBreakerState is 0 closed, 1 half-open, 2 open.
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "listeningstats_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// ReportPages counts detail pages by kind (song, artist, tag) and outcome
	// (generated, existing, unavailable, collision, failed).
	ReportPages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listeningstats_report_pages_total",
			Help: "Detail pages handled by the report generator",
		},
		[]string{"kind", "outcome"},
	)

	// ChartsRendered counts chart renders by outcome (rendered, empty, failed).
	ChartsRendered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listeningstats_charts_total",
			Help: "Chart render attempts by outcome",
		},
		[]string{"outcome"},
	)
)
