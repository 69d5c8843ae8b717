// Kindred - Similar Items Aggregation for Home Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kindred

package library

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/kindred/internal/config"
	"github.com/tomtom215/kindred/internal/similar"
)

const snapshotJSON = `{
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
    },
    {
      "id": "91f4c3b8-0d2a-4f6e-8a1b-3c5d7e9f0a21",
      "kind": "artist",
      "name": "Radiohead",
      "library_id": "music-main",
      "provider_ids": {"MusicBrainz": "a74b1b7f-71a5-4011-9441-d0b5e4122711"}
    }
  ]
}`

func writeSnapshot(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "library.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestLoadSnapshot(t *testing.T) {
	t.Parallel()

	t.Run("valid snapshot", func(t *testing.T) {
		t.Parallel()

		snapshot, err := LoadSnapshot(writeSnapshot(t, snapshotJSON))
		if err != nil {
			t.Fatalf("LoadSnapshot() error = %v", err)
		}
		if len(snapshot.Items) != 2 {
			t.Fatalf("LoadSnapshot() items = %d, want 2", len(snapshot.Items))
		}

		heat := snapshot.Items[0]
		if heat.Name != "Heat" || heat.Kind != similar.KindMovie || heat.Year != 1995 {
			t.Errorf("LoadSnapshot() first item = %+v, want Heat movie 1995", heat)
		}
		if id, ok := heat.ProviderID("tmdb"); !ok || id != "949" {
			t.Errorf("ProviderID(tmdb) = (%q, %v), want (949, true)", id, ok)
		}

		want := time.Date(2026, 8, 1, 3, 0, 0, 0, time.UTC)
		if !snapshot.GeneratedAt.Equal(want) {
			t.Errorf("GeneratedAt = %v, want %v", snapshot.GeneratedAt, want)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		if _, err := LoadSnapshot(filepath.Join(t.TempDir(), "absent.json")); err == nil {
			t.Error("LoadSnapshot() on missing file error = nil, want error")
		}
	})

	t.Run("corrupt file", func(t *testing.T) {
		t.Parallel()

		if _, err := LoadSnapshot(writeSnapshot(t, "{broken")); err == nil {
			t.Error("LoadSnapshot() on corrupt file error = nil, want error")
		}
	})

	t.Run("empty path", func(t *testing.T) {
		t.Parallel()

		if _, err := LoadSnapshot(""); err == nil {
			t.Error("LoadSnapshot(\"\") error = nil, want error")
		}
	})
}

func TestNewFromSnapshot(t *testing.T) {
	t.Parallel()

	cfg := config.LibraryConfig{
		SnapshotPath: writeSnapshot(t, snapshotJSON),
		Libraries: []config.LibraryEntry{
			{
				ID: "movies-main",
				TypeOptions: map[string]config.TypeOptionsEntry{
					"movie": {Providers: []string{"tmdb"}},
				},
			},
		},
	}

	l, err := NewFromSnapshot(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewFromSnapshot() error = %v", err)
	}

	if l.Size() != 2 {
		t.Errorf("Size() = %d, want 2", l.Size())
	}
	if l.GeneratedAt().IsZero() {
		t.Error("GeneratedAt() = zero, want snapshot export time")
	}

	id := uuid.MustParse("7c9d2e61-83b2-4a39-9f1e-2b3c4d5e6f70")
	item, err := l.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if item.Name != "Heat" {
		t.Errorf("Get() name = %q, want Heat", item.Name)
	}

	opts := l.OptionsFor("movies-main", similar.KindMovie)
	if len(opts.Providers) != 1 || opts.Providers[0] != "tmdb" {
		t.Errorf("OptionsFor() = %+v, want configured allow-list", opts)
	}

	found, err := l.FindByProviderIDs(context.Background(), similar.KindArtist, "musicbrainz", []string{"A74B1B7F-71A5-4011-9441-D0B5E4122711"})
	if err != nil {
		t.Fatalf("FindByProviderIDs() error = %v", err)
	}
	if len(found) != 1 || found[0].Name != "Radiohead" {
		t.Errorf("FindByProviderIDs() = %v, want Radiohead", found)
	}

	if _, err := NewFromSnapshot(config.LibraryConfig{SnapshotPath: filepath.Join(t.TempDir(), "absent.json")}, zerolog.Nop()); err == nil {
		t.Error("NewFromSnapshot() on missing snapshot error = nil, want error")
	}
}
