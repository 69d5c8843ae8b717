// Kindred - Similar Items Aggregation for Home Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kindred

package respcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/kindred/internal/similar"
)

// failingStore errors on every read and write so adapter absorption can
// be observed.
type failingStore struct {
	getErr error
	setErr error
}

func (f *failingStore) Backend() string { return "failing" }

func (f *failingStore) Get(_ context.Context, _ similar.CacheKey) (*Record, error) {
	return nil, f.getErr
}

func (f *failingStore) Set(_ context.Context, _ *Record) error { return f.setErr }

func (f *failingStore) Delete(_ context.Context, _ similar.CacheKey) error { return nil }

func (f *failingStore) SweepExpired(_ context.Context) (int, error) { return 0, nil }

func (f *failingStore) Stats(_ context.Context) (Stats, error) {
	return Stats{Backend: "failing"}, nil
}

func (f *failingStore) Close() error { return nil }

func TestCacheRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMemoryStore()
	cache := NewCache(store, time.Hour, zerolog.Nop())

	key := testKey()
	pages := testRecord(key, time.Hour).Pages

	if _, ok := cache.Read(ctx, key); ok {
		t.Error("Read() before write = hit, want miss")
	}

	cache.Write(ctx, key, pages, 30*time.Minute)

	got, ok := cache.Read(ctx, key)
	if !ok {
		t.Fatal("Read() after write = miss, want hit")
	}
	if len(got) != len(pages) {
		t.Errorf("Read() pages = %d, want %d", len(got), len(pages))
	}
	if got[0].Matches[0].ProviderID != pages[0].Matches[0].ProviderID {
		t.Errorf("Read() first match = %+v, want %+v", got[0].Matches[0], pages[0].Matches[0])
	}
}

func TestCacheReadExpired(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMemoryStore()
	cache := NewCache(store, time.Hour, zerolog.Nop())

	key := testKey()
	if err := store.Set(ctx, testRecord(key, -time.Minute)); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if _, ok := cache.Read(ctx, key); ok {
		t.Error("Read() of expired record = hit, want miss")
	}
}

func TestCacheAbsorbsBackendFailures(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := &failingStore{
		getErr: errors.New("disk read failed"),
		setErr: errors.New("disk write failed"),
	}
	cache := NewCache(store, time.Hour, zerolog.Nop())

	key := testKey()
	if _, ok := cache.Read(ctx, key); ok {
		t.Error("Read() on failing store = hit, want miss")
	}

	// Must not panic or surface the error.
	cache.Write(ctx, key, testRecord(key, time.Hour).Pages, time.Hour)
}

func TestCacheWriteTTL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		ttl     time.Duration
		wantTTL time.Duration
	}{
		{name: "declared TTL wins", ttl: 30 * time.Minute, wantTTL: 30 * time.Minute},
		{name: "zero TTL uses fallback", ttl: 0, wantTTL: 42 * time.Minute},
		{name: "negative TTL uses fallback", ttl: -time.Minute, wantTTL: 42 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			store := NewMemoryStore()
			cache := NewCache(store, 42*time.Minute, zerolog.Nop())

			key := testKey()
			cache.Write(ctx, key, testRecord(key, time.Hour).Pages, tt.ttl)

			record, err := store.Get(ctx, key)
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if got := record.ExpiresAt.Sub(record.CachedAt); got != tt.wantTTL {
				t.Errorf("record TTL = %v, want %v", got, tt.wantTTL)
			}
		})
	}
}
