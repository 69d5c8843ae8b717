// Kindred - Similar Items Aggregation for Home Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kindred

package respcache

import (
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/kindred/internal/config"
)

// Backend names accepted by the factory, matching the CACHE_BACKEND
// configuration values.
const (
	// BackendFilesystem stores one JSON file per record. Survives restarts.
	BackendFilesystem = "filesystem"

	// BackendBadger stores records in an embedded BadgerDB. Survives
	// restarts and scales to large libraries.
	BackendBadger = "badger"

	// BackendMemory stores records in process memory. Lost on restart.
	BackendMemory = "memory"
)

// New creates the response cache store selected by cfg.Backend. The
// caller owns the returned store and must Close it.
func New(cfg config.CacheConfig) (Store, error) {
	switch cfg.Backend {
	case BackendFilesystem:
		return NewFilesystemStore(cfg.Dir)

	case BackendBadger:
		opts := badger.DefaultOptions(cfg.BadgerPath)
		opts.Logger = nil // Suppress BadgerDB logs

		db, err := badger.Open(opts)
		if err != nil {
			return nil, fmt.Errorf("open badger db for response cache: %w", err)
		}
		return NewBadgerStore(db), nil

	case BackendMemory:
		return NewMemoryStore(), nil

	default:
		return nil, fmt.Errorf("unknown cache backend: %s", cfg.Backend)
	}
}
