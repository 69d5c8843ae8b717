// Kindred - Similar Items Aggregation for Home Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kindred

package library

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/kindred/internal/config"
	"github.com/tomtom215/kindred/internal/metrics"
	"github.com/tomtom215/kindred/internal/similar"
)

// Snapshot is the on-disk library export consumed at startup. Media
// servers (or an export job against one) produce it; kindred only reads
// it.
type Snapshot struct {
	// GeneratedAt is when the export was taken, zero when the exporter
	// does not record it.
	GeneratedAt time.Time `json:"generated_at,omitempty"`

	// Items are the catalogued media entities.
	Items []*similar.Item `json:"items"`
}

// LoadSnapshot reads and decodes the snapshot file at path. A missing
// file is an error: the library is source data, not a cache, and an
// instance without one cannot answer any request.
func LoadSnapshot(path string) (*Snapshot, error) {
	start := time.Now()
	snapshot, err := loadSnapshot(path)
	metrics.RecordSnapshotLoad(time.Since(start), err)
	return snapshot, err
}

func loadSnapshot(path string) (*Snapshot, error) {
	if path == "" {
		return nil, errors.New("snapshot path is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read library snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("decode library snapshot: %w", err)
	}

	return &snapshot, nil
}

// NewFromSnapshot loads the snapshot at cfg.SnapshotPath and builds the
// index from it.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewFromSnapshot(cfg config.LibraryConfig, logger zerolog.Logger) (*Library, error) {
	snapshot, err := LoadSnapshot(cfg.SnapshotPath)
	if err != nil {
		return nil, err
	}

	l := New(snapshot.Items, cfg, logger)
	l.generatedAt = snapshot.GeneratedAt

	logger.Info().
		Str("path", cfg.SnapshotPath).
		Int("items", l.Size()).
		Time("generated_at", snapshot.GeneratedAt).
		Msg("library snapshot loaded")

	return l, nil
}
