// Kindred - Similar Items Aggregation for Home Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kindred

package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus Metrics Integration for Production Observability
// This package provides comprehensive instrumentation for:
// - Similar-items aggregation latency and result sizes
// - Per-provider fetch performance
// - Response cache efficiency (hits, misses, sweeps)
// - Circuit breaker state for remote providers
// - API endpoint latency and throughput

var (
	// Aggregation Metrics
	AggregationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "similar_aggregation_duration_seconds",
			Help:    "Duration of similar-items aggregations in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}, // Local-only lookups are sub-millisecond; remote fan-out can take seconds
		},
		[]string{"item_type"},
	)

	AggregationResults = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "similar_aggregation_results",
			Help:    "Number of items returned per aggregation",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 200},
		},
		[]string{"item_type"},
	)

	AggregationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "similar_aggregation_errors_total",
			Help: "Total number of aggregation errors",
		},
		[]string{"item_type", "error_type"}, // error_type: "canceled", "timeout", "other"
	)

	// Provider Metrics
	ProviderFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "similar_provider_fetch_duration_seconds",
			Help:    "Duration of per-provider similar-items fetches in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider", "item_type"},
	)

	ProviderFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "similar_provider_fetches_total",
			Help: "Total number of provider fetches",
		},
		[]string{"provider", "item_type", "result"}, // result: "success", "failure", "canceled"
	)

	// Response Cache Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "response_cache_hits_total",
			Help: "Total number of response cache hits",
		},
		[]string{"backend"}, // "filesystem", "badger", "memory"
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "response_cache_misses_total",
			Help: "Total number of response cache misses (including expired entries)",
		},
		[]string{"backend"},
	)

	CacheWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "response_cache_writes_total",
			Help: "Total number of response cache writes",
		},
		[]string{"backend"},
	)

	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "response_cache_errors_total",
			Help: "Total number of response cache backend errors",
		},
		[]string{"backend", "operation"}, // operation: "read", "write", "purge"
	)

	CacheEntriesPurged = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "response_cache_entries_purged_total",
			Help: "Total number of expired entries removed from the response cache",
		},
		[]string{"backend"},
	)

	CacheSweepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "response_cache_sweep_duration_seconds",
			Help:    "Duration of response cache expiry sweeps in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend"},
	)

	// Library Metrics
	LibraryItems = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "library_items",
			Help: "Current number of indexed library items",
		},
		[]string{"item_type"},
	)

	LibrarySnapshotLoadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "library_snapshot_load_duration_seconds",
			Help:    "Duration of library snapshot loads in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		},
	)

	LibrarySnapshotLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "library_snapshot_loads_total",
			Help: "Total number of library snapshot load attempts",
		},
		[]string{"result"}, // "success", "failure"
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}, // Optimized for API latency
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)
)

// RecordAggregation records the outcome of a similar-items aggregation.
// Result sizes are only observed for successful aggregations so partial
// counts from canceled runs do not skew the distribution.
func RecordAggregation(itemType string, duration time.Duration, results int, err error) {
	AggregationDuration.WithLabelValues(itemType).Observe(duration.Seconds())
	if err != nil {
		AggregationErrors.WithLabelValues(itemType, classifyError(err)).Inc()
		return
	}
	AggregationResults.WithLabelValues(itemType).Observe(float64(results))
}

// RecordProviderFetch records a single provider fetch within an aggregation.
func RecordProviderFetch(provider, itemType string, duration time.Duration, err error) {
	ProviderFetchDuration.WithLabelValues(provider, itemType).Observe(duration.Seconds())

	result := "success"
	if err != nil {
		result = "failure"
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			result = "canceled"
		}
	}
	ProviderFetches.WithLabelValues(provider, itemType, result).Inc()
}

// RecordCacheRead records a response cache lookup outcome.
func RecordCacheRead(backend string, hit bool) {
	if hit {
		CacheHits.WithLabelValues(backend).Inc()
	} else {
		CacheMisses.WithLabelValues(backend).Inc()
	}
}

// RecordCacheWrite records a response cache write attempt.
func RecordCacheWrite(backend string, err error) {
	if err != nil {
		CacheErrors.WithLabelValues(backend, "write").Inc()
		return
	}
	CacheWrites.WithLabelValues(backend).Inc()
}

// RecordCacheError records a non-write backend error (corrupt entry, IO failure).
func RecordCacheError(backend, operation string) {
	CacheErrors.WithLabelValues(backend, operation).Inc()
}

// RecordCacheSweep records an expiry sweep over the response cache.
func RecordCacheSweep(backend string, purged int, duration time.Duration) {
	CacheSweepDuration.WithLabelValues(backend).Observe(duration.Seconds())
	CacheEntriesPurged.WithLabelValues(backend).Add(float64(purged))
}

// RecordSnapshotLoad records a library snapshot load attempt.
func RecordSnapshotLoad(duration time.Duration, err error) {
	LibrarySnapshotLoadDuration.Observe(duration.Seconds())
	if err != nil {
		LibrarySnapshotLoads.WithLabelValues("failure").Inc()
		return
	}
	LibrarySnapshotLoads.WithLabelValues("success").Inc()
}

// UpdateLibrarySize updates the indexed item count gauge for an item type.
func UpdateLibrarySize(itemType string, count int) {
	LibraryItems.WithLabelValues(itemType).Set(float64(count))
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// classifyError maps an error to a low-cardinality label value.
func classifyError(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "other"
	}
}
