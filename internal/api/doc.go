// Kindred - Similar Items Aggregation for Home Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kindred

/*
Package api exposes the aggregation engine over HTTP.

The surface is small and read-mostly:

	GET    /api/v1/items/{id}/similar   ranked similar items for a library item
	GET    /api/v1/providers            registered providers per item kind
	GET    /api/v1/cache/stats          response cache entry counts
	DELETE /api/v1/cache/expired        purge expired cache records
	GET    /api/v1/health               combined health summary
	GET    /api/v1/health/live          liveness probe
	GET    /api/v1/health/ready         readiness probe
	GET    /metrics                     Prometheus metrics

Every endpoint responds with the APIResponse envelope: a success flag,
the payload, and on failure a machine-readable error code plus the
request ID for tracing. Routing is chi with per-group middleware:
request-ID propagation into the logging context, real-IP resolution,
panic recovery, CORS, security headers, IP rate limits, and request
metrics.

Handlers depend on narrow consumer-side interfaces (SimilarEngine,
ItemSource, CacheAdmin, ProviderLister) so tests drive them with local
fakes instead of a full engine.
*/
package api
