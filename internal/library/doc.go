// Kindred - Similar Items Aggregation for Home Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kindred

/*
Package library holds the in-memory media library index the aggregation
engine resolves against.

The index is built once at startup from a JSON snapshot file
(LIBRARY_SNAPSHOT_PATH) exported by a media server, then never mutated, so
every lookup is a lock-free map read. Three views are maintained:

  - by catalogue id, serving the aggregator's source-item lookups
  - by (kind, provider name, provider id), serving reference resolution
    with case-insensitive provider names and values
  - by kind, serving local providers that scan the whole catalogue

Per-library provider options (allow-list and ordering from
library.libraries[].type_options) are folded into the index at build time
and answered by OptionsFor; unknown libraries and unconfigured kinds yield
zero options, which admit every registered provider.

# Snapshot Format

	{
	  "generated_at": "2026-08-01T03:00:00Z",
	  "items": [
	    {
	      "id": "7c9d2e61-83b2-4a39-9f1e-2b3c4d5e6f70",
	      "kind": "movie",
	      "name": "Heat",
	      "library_id": "movies-main",
	      "year": 1995,
	      "genres": ["Crime", "Thriller"],
	      "provider_ids": {"Tmdb": "949", "Imdb": "tt0113277"}
	    }
	  ]
	}
*/
package library
