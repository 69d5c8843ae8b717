// Kindred - Similar Items Aggregation for Home Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kindred

/*
Package respcache persists remote provider responses so repeated
similar-items requests within a TTL window never re-contact the remote
service.

A record holds every page drained from one provider for one library item.
Records are written all-or-nothing after a complete drain; an interrupted
drain is never persisted, so a cached record always replays the same pages
a live fetch produced.

# Backends

Three Store implementations are selected by CACHE_BACKEND:

  - filesystem: one JSON file per record under
    <dir>/<provider>/<itemtype>/<hexid>.json, written to a temp file and
    renamed into place so readers never observe a torn record.
  - badger: an embedded BadgerDB keyed by
    similar:<provider>:<itemtype>:<hexid>.
  - memory: an in-process map for tests and ephemeral deployments.

Keys lower-case the provider and item-type names and render the item UUID
as 32 hex characters, so distinct keys never collide and casing
differences never split the cache.

# Failure Policy

Caching is a performance optimization, never a correctness dependency.
The Cache adapter absorbs every backend failure: missing, expired, and
corrupt records read as misses; write failures are logged and the
response is simply not cached. The aggregator falls through to a live
fetch either way.

# Expiry

Every record carries an absolute expiry computed at write time from the
provider's declared TTL (or CACHE_FALLBACK_TTL when the provider declares
none). Expired records read as misses immediately but stay in the backend
until SweepExpired removes them; the supervisor runs a sweep on
CACHE_SWEEP_INTERVAL and the admin API can trigger one on demand.

# Usage

	store, err := respcache.New(cfg.Cache)
	if err != nil {
		return err
	}
	defer store.Close()

	cache := respcache.NewCache(store, cfg.Cache.FallbackTTL, logger)
	agg, err := similar.NewAggregator(simCfg, registry, library, cache, logger)
*/
package respcache
