// Kindred - Similar Items Aggregation for Home Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kindred

package similar

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ItemKind identifies a media kind participating in similarity lookups.
// The set of kinds is closed and known at build time; providers register
// for exactly one kind and the aggregator dispatches on the source item's
// kind tag. No runtime type inspection is involved.
type ItemKind string

const (
	// KindMovie is a feature film.
	KindMovie ItemKind = "movie"

	// KindSeries is a television series.
	KindSeries ItemKind = "series"

	// KindArtist is a music artist.
	KindArtist ItemKind = "artist"

	// KindAlbum is a music album.
	KindAlbum ItemKind = "album"
)

// Kinds lists every supported item kind in a stable order.
var Kinds = []ItemKind{KindMovie, KindSeries, KindArtist, KindAlbum}

// String returns the kind's wire/config representation.
func (k ItemKind) String() string {
	return string(k)
}

// Valid reports whether the kind is one of the supported set.
func (k ItemKind) Valid() bool {
	switch k {
	case KindMovie, KindSeries, KindArtist, KindAlbum:
		return true
	default:
		return false
	}
}

// ParseItemKind converts a string to an ItemKind.
// Returns an error for unknown kinds.
func ParseItemKind(s string) (ItemKind, error) {
	k := ItemKind(s)
	if !k.Valid() {
		return "", fmt.Errorf("unknown item kind: %q", s)
	}
	return k, nil
}

// Sentinel errors returned by library stores and the aggregator.
var (
	// ErrItemNotFound indicates a lookup for an item id that is not catalogued.
	ErrItemNotFound = errors.New("item not found")

	// ErrNilItem indicates a nil source item was passed to the aggregator.
	ErrNilItem = errors.New("source item is nil")
)

// Item is a catalogued media entity. Items are owned by the library store;
// the aggregator and providers only read them.
type Item struct {
	// ID is the stable library-wide identity of the item.
	ID uuid.UUID `json:"id"`

	// Kind tags the item's media kind.
	Kind ItemKind `json:"kind"`

	// Name is the display title.
	Name string `json:"name"`

	// LibraryID identifies the library the item belongs to.
	// Per-library provider options are keyed by this value.
	LibraryID string `json:"library_id,omitempty"`

	// Year is the release/formation year, zero when unknown.
	Year int `json:"year,omitempty"`

	// Genres are the item's genre labels.
	Genres []string `json:"genres,omitempty"`

	// Tags are free-form labels beyond genres.
	Tags []string `json:"tags,omitempty"`

	// ProviderIDs maps an external provider name (e.g. "Tmdb",
	// "MusicBrainz") to the item's id in that provider's namespace.
	ProviderIDs map[string]string `json:"provider_ids,omitempty"`

	// ArtistIDs are the library ids of the artists an album belongs to.
	// Empty for non-music kinds.
	ArtistIDs []uuid.UUID `json:"artist_ids,omitempty"`
}

// ProviderID returns the item's external id for the named provider,
// matched case-insensitively, and whether it is present.
func (i *Item) ProviderID(name string) (string, bool) {
	if v, ok := i.ProviderIDs[name]; ok {
		return v, true
	}
	for k, v := range i.ProviderIDs {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}

// User identifies the requesting user. Optional on queries; providers may
// use it to scope results to content the user can access.
type User struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// Query carries one request's parameters through an aggregation pass.
// The aggregator hands providers a copy with Limit set to the remaining
// needed count, ExcludeItemIDs set to the current exclusion set, and Page
// set to the page being fetched. Queries are immutable per call.
type Query struct {
	// User is the requesting user, nil for anonymous lookups.
	User *User

	// Limit is the maximum number of results wanted. Zero means the
	// configured default.
	Limit int

	// ExcludeItemIDs are item ids that must not appear in results.
	ExcludeItemIDs []uuid.UUID

	// ExcludeArtistIDs are artist item ids to exclude; meaningful for
	// music kinds where results belonging to these artists are unwanted.
	ExcludeArtistIDs []uuid.UUID

	// Page is the remote page to fetch. The first drain call uses the
	// request's start page; subsequent calls follow NextPage cursors.
	Page int

	// Fields names the optional item fields to materialize in responses
	// (result shaping). An empty list means the default field set.
	Fields []string
}

// TypeOptions is the per-library provider configuration for one item kind.
type TypeOptions struct {
	// Providers is a case-insensitive allow-list of provider names. An
	// empty list admits every registered provider. Names that match no
	// registered provider are ignored; an allow-list matching nothing
	// yields an empty effective provider set.
	Providers []string

	// ProviderOrder ranks providers by name, case-insensitive. Providers
	// not named here sort after the named ones in registration order.
	ProviderOrder []string
}

// Reference is a lightweight match returned by a remote provider: a pointer
// into the provider's own namespace, not yet resolved to a library item.
type Reference struct {
	// ProviderName is the external provider namespace (e.g. "Tmdb").
	ProviderName string `json:"provider_name"`

	// ProviderID is the matched entity's id within that namespace.
	ProviderID string `json:"provider_id"`

	// Score is the provider's declared relevance in [0,1], nil when the
	// provider does not score its matches.
	Score *float64 `json:"score,omitempty"`
}

// ProviderResponse is one page of results from a remote provider.
type ProviderResponse struct {
	// Matches are the page's references in provider-declared order.
	Matches []Reference `json:"matches"`

	// NextPage is the cursor for the following page; nil means the
	// provider is exhausted.
	NextPage *int `json:"next_page,omitempty"`

	// CacheTTL is how long the aggregate of this fetch cycle may be
	// cached. Only the first page's value is honored; zero means the
	// provider declares no caching.
	CacheTTL time.Duration `json:"cache_ttl,omitempty"`
}

// CacheKey addresses one provider's cached pages for one source item.
type CacheKey struct {
	// Provider is the remote provider's stable name.
	Provider string

	// Kind is the source item's kind.
	Kind ItemKind

	// ItemID is the source item's library id.
	ItemID uuid.UUID
}

// LibraryStore is the library collaborator the aggregator consumes.
// Implementations live outside this package (see internal/library).
type LibraryStore interface {
	// Get returns the catalogued item with the given id.
	// Returns ErrItemNotFound when the id is unknown.
	Get(ctx context.Context, id uuid.UUID) (*Item, error)

	// FindByProviderIDs returns catalogued items of the given kind whose
	// external id for the named provider matches any of the values.
	// Matching is case-insensitive on both provider name and values.
	FindByProviderIDs(ctx context.Context, kind ItemKind, providerName string, values []string) ([]*Item, error)
}

// ResponseCache stores drained remote pages keyed per (provider, kind,
// item). Implementations absorb their own failures: a failed read is a
// miss, a failed write is logged and dropped. Caching is strictly a
// performance optimization, never a correctness dependency.
type ResponseCache interface {
	// Read returns the cached pages for the key and true, or nil and
	// false when the record is missing, corrupt, or expired.
	Read(ctx context.Context, key CacheKey) ([]ProviderResponse, bool)

	// Write persists the pages with an expiry of now + ttl, overwriting
	// any existing record for the key.
	Write(ctx context.Context, key CacheKey, pages []ProviderResponse, ttl time.Duration)
}
