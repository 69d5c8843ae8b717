// Kindred - Similar Items Aggregation for Home Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kindred

package respcache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/kindred/internal/similar"
)

// recordFileExt is the extension of persisted cache records. Writes land
// under a ".tmp" suffix first and are renamed into place.
const recordFileExt = ".json"

// FilesystemStore keeps one JSON file per cache record under
// <dir>/<provider>/<itemtype>/<hexid>.json. Writes are atomic: the record
// is written to a temp file and renamed over the destination, so readers
// never observe a torn record.
type FilesystemStore struct {
	dir string
}

// NewFilesystemStore creates a filesystem-backed store rooted at dir,
// creating the directory if needed.
func NewFilesystemStore(dir string) (*FilesystemStore, error) {
	if dir == "" {
		return nil, errors.New("cache directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	return &FilesystemStore{dir: dir}, nil
}

// Backend returns the backend name used in metrics and stats.
func (s *FilesystemStore) Backend() string {
	return BackendFilesystem
}

// Get retrieves the record for the key.
func (s *FilesystemStore) Get(_ context.Context, key similar.CacheKey) (*Record, error) {
	data, err := os.ReadFile(s.recordPath(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("read cache record: %w", err)
	}

	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("decode cache record: %w", err)
	}

	if record.IsExpired() {
		return nil, ErrRecordExpired
	}

	return &record, nil
}

// Set stores the record, replacing any existing record for its key.
func (s *FilesystemStore) Set(_ context.Context, record *Record) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal cache record: %w", err)
	}

	path := s.recordPath(record.Key())
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create record directory: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write cache record: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("commit cache record: %w", err)
	}

	return nil
}

// Delete removes the record for the key.
func (s *FilesystemStore) Delete(_ context.Context, key similar.CacheKey) error {
	if err := os.Remove(s.recordPath(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete cache record: %w", err)
	}
	return nil
}

// SweepExpired removes every expired or undecodable record file.
func (s *FilesystemStore) SweepExpired(ctx context.Context) (int, error) {
	purged := 0

	err := filepath.WalkDir(s.dir, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), recordFileExt) {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil // removed concurrently
			}
			return fmt.Errorf("read cache record: %w", err)
		}

		var record Record
		if err := json.Unmarshal(data, &record); err == nil && !record.IsExpired() {
			return nil
		}

		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove cache record: %w", err)
		}
		purged++
		return nil
	})
	if err != nil {
		return purged, fmt.Errorf("sweep cache directory: %w", err)
	}

	return purged, nil
}

// Stats counts record files under the cache directory. Files that no
// longer decode count as entries but not as expired.
func (s *FilesystemStore) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{Backend: BackendFilesystem}

	err := filepath.WalkDir(s.dir, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), recordFileExt) {
			return nil
		}

		stats.Entries++

		data, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		var record Record
		if err := json.Unmarshal(data, &record); err == nil && record.IsExpired() {
			stats.Expired++
		}
		return nil
	})
	if err != nil {
		return stats, fmt.Errorf("scan cache directory: %w", err)
	}

	return stats, nil
}

// Close implements Store. The filesystem store holds no resources.
func (s *FilesystemStore) Close() error {
	return nil
}

// recordPath maps a key to its file under the cache directory.
func (s *FilesystemStore) recordPath(key similar.CacheKey) string {
	provider, kind := keySegments(key)
	return filepath.Join(s.dir, provider, kind, keyID(key.ItemID)+recordFileExt)
}
