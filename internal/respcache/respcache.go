// Kindred - Similar Items Aggregation for Home Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kindred

package respcache

import (
	"context"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/kindred/internal/similar"
)

var (
	// ErrRecordNotFound is returned when no record exists for a key.
	ErrRecordNotFound = errors.New("cache record not found")

	// ErrRecordExpired is returned when a record exists but its expiry
	// has passed. Expired records stay on disk until a sweep removes them.
	ErrRecordExpired = errors.New("cache record expired")
)

// Record is the persisted unit of the response cache: every page drained
// from one remote provider for one library item, plus the expiry computed
// at write time. Records are written whole after a complete drain; a
// partial fetch is never persisted.
type Record struct {
	Provider  string                     `json:"provider"`
	ItemType  string                     `json:"item_type"`
	ItemID    uuid.UUID                  `json:"item_id"`
	Pages     []similar.ProviderResponse `json:"pages"`
	CachedAt  time.Time                  `json:"cached_at"`
	ExpiresAt time.Time                  `json:"expires_at"`
}

// Key reconstructs the cache key the record was stored under.
func (r *Record) Key() similar.CacheKey {
	return similar.CacheKey{
		Provider: r.Provider,
		Kind:     similar.ItemKind(r.ItemType),
		ItemID:   r.ItemID,
	}
}

// IsExpired reports whether the record's expiry has passed.
func (r *Record) IsExpired() bool {
	return time.Now().After(r.ExpiresAt)
}

// Stats summarizes a store's contents for the admin endpoint.
type Stats struct {
	Backend string `json:"backend"`
	Entries int    `json:"entries"`
	Expired int    `json:"expired"`
}

// Store persists drained provider responses keyed by
// (provider, item type, item ID). Implementations report expired records
// from Get but do not remove them; SweepExpired is the only purge path.
type Store interface {
	// Backend returns the backend name used in metrics and stats.
	Backend() string

	// Get returns the record for the key.
	// Returns ErrRecordNotFound if no record exists and ErrRecordExpired
	// if one exists past its expiry.
	Get(ctx context.Context, key similar.CacheKey) (*Record, error)

	// Set stores the record, replacing any existing record for its key.
	Set(ctx context.Context, record *Record) error

	// Delete removes the record for the key. Deleting a missing record
	// is not an error.
	Delete(ctx context.Context, key similar.CacheKey) error

	// SweepExpired removes every expired record and reports how many
	// were purged. Records that can no longer be decoded are purged too.
	SweepExpired(ctx context.Context) (int, error)

	// Stats reports entry counts for the store.
	Stats(ctx context.Context) (Stats, error)

	// Close releases resources held by the store.
	Close() error
}

// keySegments returns the lower-cased provider and item-type names used in
// storage locations. Lower-casing keeps locations stable across callers
// that differ only in name casing.
func keySegments(key similar.CacheKey) (provider, kind string) {
	return strings.ToLower(key.Provider), strings.ToLower(string(key.Kind))
}

// keyID renders an item UUID as fixed-width lower-case hex.
func keyID(id uuid.UUID) string {
	return hex.EncodeToString(id[:])
}

// recordLocator maps a key to its canonical storage locator. Two distinct
// keys never share a locator; the same key always yields the same one.
func recordLocator(key similar.CacheKey) string {
	provider, kind := keySegments(key)
	return provider + ":" + kind + ":" + keyID(key.ItemID)
}
