// Kindred - Similar Items Aggregation for Home Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kindred

/*
Package metrics provides Prometheus metrics collection and export for observability.

This package implements application instrumentation using the Prometheus client
library, exposing metrics for monitoring aggregation performance, provider health,
cache efficiency, and API throughput.

# Overview

The package provides metrics for:
  - Similar-items aggregation latency and result sizes
  - Per-provider fetch performance and failure rates
  - Response cache hit/miss rates, writes, and expiry sweeps
  - Circuit breaker state for remote providers
  - Library snapshot loads and index sizes
  - HTTP request latency and throughput

# Metrics Endpoint

Metrics are exposed at the /metrics endpoint in Prometheus text format:

	curl http://localhost:3858/metrics

# Available Metrics

Aggregation Metrics:
  - similar_aggregation_duration_seconds: Aggregation latency (histogram)
    Labels: item_type
  - similar_aggregation_results: Items returned per aggregation (histogram)
    Labels: item_type
  - similar_aggregation_errors_total: Failed aggregations (counter)
    Labels: item_type, error_type (canceled, timeout, other)

Provider Metrics:
  - similar_provider_fetch_duration_seconds: Per-provider fetch latency (histogram)
    Labels: provider, item_type
  - similar_provider_fetches_total: Provider fetch outcomes (counter)
    Labels: provider, item_type, result (success, failure, canceled)

Response Cache Metrics:
  - response_cache_hits_total / response_cache_misses_total: Lookup outcomes (counter)
    Labels: backend (filesystem, badger, memory)
  - response_cache_writes_total: Completed writes (counter)
    Labels: backend
  - response_cache_errors_total: Backend errors (counter)
    Labels: backend, operation (read, write, purge)
  - response_cache_entries_purged_total: Expired entries removed (counter)
    Labels: backend
  - response_cache_sweep_duration_seconds: Expiry sweep latency (histogram)
    Labels: backend

Library Metrics:
  - library_items: Indexed items per kind (gauge)
    Labels: item_type
  - library_snapshot_load_duration_seconds: Snapshot load latency (histogram)
  - library_snapshot_loads_total: Snapshot load outcomes (counter)
    Labels: result (success, failure)

Circuit Breaker Metrics:
  - circuit_breaker_state: Current state (gauge)
    Labels: name
    Values: 0=closed, 1=half-open, 2=open
  - circuit_breaker_requests_total: Requests through breaker (counter)
    Labels: name, result (success, failure, rejected)
  - circuit_breaker_state_transitions_total: State changes (counter)
    Labels: name, from_state, to_state

API Metrics:
  - api_requests_total: Total HTTP requests (counter)
    Labels: method, endpoint, status_code
  - api_request_duration_seconds: Request latency (histogram)
    Labels: method, endpoint
  - api_active_requests: In-flight requests (gauge)
  - api_rate_limit_hits_total: Rate limit rejections (counter)
    Labels: endpoint

# Usage Example

Recording an aggregation outcome:

	start := time.Now()
	items, err := agg.SimilarItems(ctx, item, query, opts)
	metrics.RecordAggregation(string(item.Kind), time.Since(start), len(items), err)

Recording cache lookups from a backend:

	pages, ok := store.Read(ctx, key)
	metrics.RecordCacheRead("badger", ok)

# Cardinality Management

Label values are restricted to low-cardinality sets: item types are a fixed
enum, provider names come from the registry, backends and error types are
predefined constants. Item IDs, user IDs, and raw error strings are never
used as label values.

# Thread Safety

All metric recording functions are thread-safe and designed for concurrent use
from multiple goroutines. The Prometheus client library handles synchronization
internally.

# See Also

  - internal/similar: aggregation and provider fetch recording
  - internal/respcache: cache backend instrumentation
  - internal/api: HTTP middleware with metrics integration
  - https://prometheus.io/docs/practices/naming/: Metric naming conventions
*/
package metrics
