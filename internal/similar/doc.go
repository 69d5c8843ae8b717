// Kindred - Similar Items Aggregation for Home Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kindred

// Package similar implements the similar-items aggregation engine.
//
// # Architecture
//
// A single aggregation call fans out to the providers registered for the
// source item's kind, in a per-library configurable order:
//
//   - Local providers answer synchronously from library metadata
//   - Remote providers are drained page by page over the network, with
//     completed drains persisted to a response cache
//   - Provider references are resolved against the library store, deduped
//     through a monotonically growing exclusion set, scored on a single
//     normalized scale and ranked
//
// The source item never appears in its own results, no item appears twice,
// and a failing provider never takes down the whole aggregation.
//
// # Scoring
//
// Every candidate lands on one comparable scale in [0, 1]: the provider's
// declared match score when present, otherwise a positional decay from 1.0,
// plus a small boost for providers earlier in the effective order. The
// boost is a tie-breaking nudge and never overrides a genuinely higher
// match score. The constants are tunable through ScoreConfig.
//
// # Usage
//
//	registry := similar.NewRegistry()
//	registry.RegisterLocal(genreMatcher)
//	registry.RegisterRemote(tmdbMovies)
//
//	agg, err := similar.NewAggregator(similar.DefaultConfig(), registry, store, cache, logger)
//	items, err := agg.SimilarItems(ctx, item, similar.Query{Limit: 20}, opts)
//
// # Thread Safety
//
// The aggregator and registry are safe for concurrent use. Each aggregation
// call owns its accumulation state; the response cache is the only shared
// mutable resource and is keyed per (provider, kind, item).
package similar
