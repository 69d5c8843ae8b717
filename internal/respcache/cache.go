// Kindred - Similar Items Aggregation for Home Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kindred

package respcache

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/kindred/internal/metrics"
	"github.com/tomtom215/kindred/internal/similar"
)

// Cache adapts a Store to the aggregator's ResponseCache contract. It
// absorbs every backend failure: a failed read is a miss and a failed
// write is logged and dropped, so the aggregator never sees cache errors.
type Cache struct {
	store       Store
	fallbackTTL time.Duration
	logger      zerolog.Logger
}

var _ similar.ResponseCache = (*Cache)(nil)

// NewCache wraps a store for use by the aggregator. fallbackTTL is
// applied to writes that carry no positive TTL.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewCache(store Store, fallbackTTL time.Duration, logger zerolog.Logger) *Cache {
	return &Cache{
		store:       store,
		fallbackTTL: fallbackTTL,
		logger:      logger.With().Str("component", "respcache").Logger(),
	}
}

// Read returns the cached pages for the key. Missing, expired, and
// unreadable records all report a miss; only unreadable records are
// logged.
func (c *Cache) Read(ctx context.Context, key similar.CacheKey) ([]similar.ProviderResponse, bool) {
	backend := c.store.Backend()

	record, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrRecordNotFound) && !errors.Is(err, ErrRecordExpired) {
			metrics.RecordCacheError(backend, "read")
			c.logger.Warn().
				Err(err).
				Str("provider", key.Provider).
				Str("item_type", string(key.Kind)).
				Str("item_id", key.ItemID.String()).
				Msg("cache read failed, treating as miss")
		}
		metrics.RecordCacheRead(backend, false)
		return nil, false
	}

	metrics.RecordCacheRead(backend, true)
	return record.Pages, true
}

// Write persists the drained pages under the key. Failures are logged
// and swallowed.
func (c *Cache) Write(ctx context.Context, key similar.CacheKey, pages []similar.ProviderResponse, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.fallbackTTL
	}

	now := time.Now()
	record := &Record{
		Provider:  key.Provider,
		ItemType:  string(key.Kind),
		ItemID:    key.ItemID,
		Pages:     pages,
		CachedAt:  now,
		ExpiresAt: now.Add(ttl),
	}

	err := c.store.Set(ctx, record)
	metrics.RecordCacheWrite(c.store.Backend(), err)
	if err != nil {
		c.logger.Warn().
			Err(err).
			Str("provider", key.Provider).
			Str("item_type", string(key.Kind)).
			Str("item_id", key.ItemID.String()).
			Msg("cache write failed, response not cached")
	}
}
