// Kindred - Similar Items Aggregation for Home Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kindred

/*
Package providers implements the concrete similar-items providers the
aggregator fans out to.

# Local

GenreMatcher serves every kind from the in-process library index, scoring
candidates by genre/tag overlap (Jaccard) with a small year-proximity
component. It performs no I/O and needs no cache.

# Remote

TMDB serves movies and series from The Movie Database's paginated
recommendations endpoint; ListenBrainz serves artists from the Labs
similar-artists endpoint, which returns its full result in one page.
References carry ids in the "tmdb" and "musicbrainz" namespaces and are
resolved to library items by the aggregator.

Each remote provider paces its outbound requests with a client-side rate
limiter sized from *_RATE_LIMIT_RPS and runs every fetch through its own
circuit breaker, so a failing upstream is shed quickly instead of slowing
every aggregation that touches it. Breaker state, transitions, and request
outcomes are exported as Prometheus metrics per breaker name.

Remote responses declare the cache TTL configured for their provider; the
aggregator hands drained pages to the response cache under that TTL.
*/
package providers
