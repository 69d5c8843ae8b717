// Kindred - Similar Items Aggregation for Home Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kindred

/*
Package services provides suture.Service wrappers for Kindred components.

Each wrapper adapts a component's own lifecycle pattern to suture's
context-aware Serve pattern:

	type Service interface {
	    Serve(ctx context.Context) error
	}

# Available Services

HTTP Server (HTTPServerService):
  - Wraps *http.Server with graceful shutdown
  - Converts the blocking ListenAndServe pattern to Serve
  - Configurable shutdown timeout for draining connections

Cache Sweeper (SweepService):
  - Periodically purges expired response-cache records
  - Optional purge on startup for records that expired during downtime
  - Reports purge counts and failures through internal/metrics

# Restart Semantics

Wrappers return ctx.Err() on cancellation (normal shutdown) and a non-nil
error on failure, which makes the supervisor restart them. Operational
errors that should not restart the service, such as a single failed sweep,
are logged and absorbed inside the wrapper instead of returned.
*/
package services
