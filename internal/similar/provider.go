// Kindred - Similar Items Aggregation for Home Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kindred

package similar

import "context"

// LocalProvider produces similar items from the in-process library index.
// Implementations must not perform network I/O and return all of their
// matches in a single call, up to the query's limit. They are invoked
// synchronously on the aggregation flow.
type LocalProvider interface {
	// Name is the stable provider name used in allow-lists and ordering.
	Name() string

	// Kind is the item kind this provider serves.
	Kind() ItemKind

	// SimilarItems returns items similar to the source, ordered by the
	// provider's own relevance, respecting query.Limit and
	// query.ExcludeItemIDs.
	SimilarItems(item *Item, query Query) ([]*Item, error)
}

// RemoteProvider fetches similar-item references from an external service,
// one page per call. The page to fetch travels in query.Page.
//
// A nil response or a page with no matches means the provider has nothing
// further for this item (or the page did not advance); the aggregator
// treats both as fetch-termination, never as an error.
type RemoteProvider interface {
	// Name is the stable provider name used in allow-lists, ordering,
	// and cache keys.
	Name() string

	// Kind is the item kind this provider serves.
	Kind() ItemKind

	// FetchPage retrieves one page of references for the source item.
	FetchPage(ctx context.Context, item *Item, query Query) (*ProviderResponse, error)
}

// ProviderInfo describes one registered provider for listings.
type ProviderInfo struct {
	// Name is the provider's stable name.
	Name string `json:"name"`

	// Kind is the item kind the provider serves.
	Kind ItemKind `json:"kind"`

	// Remote is true for network-backed providers.
	Remote bool `json:"remote"`
}
