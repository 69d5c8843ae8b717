// Kindred - Similar Items Aggregation for Home Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kindred

package respcache

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/kindred/internal/similar"
)

func TestNewFilesystemStore(t *testing.T) {
	t.Parallel()

	t.Run("creates nested directory", func(t *testing.T) {
		t.Parallel()

		dir := filepath.Join(t.TempDir(), "nested", "cache")
		if _, err := NewFilesystemStore(dir); err != nil {
			t.Fatalf("NewFilesystemStore() error = %v", err)
		}
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Errorf("cache directory not created: %v", err)
		}
	})

	t.Run("rejects empty directory", func(t *testing.T) {
		t.Parallel()

		if _, err := NewFilesystemStore(""); err == nil {
			t.Error("NewFilesystemStore(\"\") error = nil, want error")
		}
	})
}

func TestFilesystemLayout(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := NewFilesystemStore(dir)
	if err != nil {
		t.Fatalf("NewFilesystemStore() error = %v", err)
	}

	key := similar.CacheKey{Provider: "TMDb", Kind: similar.KindMovie, ItemID: uuid.New()}
	if err := store.Set(context.Background(), testRecord(key, time.Hour)); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	want := filepath.Join(dir, "tmdb", "movie", keyID(key.ItemID)+".json")
	if _, err := os.Stat(want); err != nil {
		t.Errorf("record file missing at %s: %v", want, err)
	}
}

func TestFilesystemCorruptRecord(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewFilesystemStore(dir)
	if err != nil {
		t.Fatalf("NewFilesystemStore() error = %v", err)
	}

	key := testKey()
	path := store.recordPath(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	_, err = store.Get(ctx, key)
	if err == nil {
		t.Fatal("Get() error = nil, want decode error")
	}
	if errors.Is(err, ErrRecordNotFound) || errors.Is(err, ErrRecordExpired) {
		t.Errorf("Get() error = %v, want a decode error, not a sentinel", err)
	}

	purged, err := store.SweepExpired(ctx)
	if err != nil {
		t.Fatalf("SweepExpired() error = %v", err)
	}
	if purged != 1 {
		t.Errorf("SweepExpired() purged = %d, want 1 corrupt record", purged)
	}
	if _, err := os.Stat(path); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("corrupt record still present after sweep: %v", err)
	}
}

func TestFilesystemAtomicWrite(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := NewFilesystemStore(dir)
	if err != nil {
		t.Fatalf("NewFilesystemStore() error = %v", err)
	}

	if err := store.Set(context.Background(), testRecord(testKey(), time.Hour)); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	err = filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".tmp") {
			t.Errorf("temp file left behind: %s", path)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WalkDir() error = %v", err)
	}
}

func TestFilesystemSweepCancelled(t *testing.T) {
	t.Parallel()

	store, err := NewFilesystemStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFilesystemStore() error = %v", err)
	}
	if err := store.Set(context.Background(), testRecord(testKey(), -time.Minute)); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := store.SweepExpired(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("SweepExpired() error = %v, want context.Canceled", err)
	}
}

func TestFilesystemSweepIgnoresForeignFiles(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewFilesystemStore(dir)
	if err != nil {
		t.Fatalf("NewFilesystemStore() error = %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "README"), []byte("not a record"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	purged, err := store.SweepExpired(ctx)
	if err != nil {
		t.Fatalf("SweepExpired() error = %v", err)
	}
	if purged != 0 {
		t.Errorf("SweepExpired() purged = %d, want 0", purged)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.Entries != 0 {
		t.Errorf("Stats() entries = %d, want 0 for foreign files", stats.Entries)
	}
}
