// Kindred - Similar Items Aggregation for Home Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kindred

package respcache

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/kindred/internal/similar"
)

// recordKeyPrefix namespaces response cache records inside the BadgerDB
// keyspace.
const recordKeyPrefix = "similar:"

// BadgerStore implements Store using BadgerDB for durable storage. It is
// suitable for production use with persistence across restarts.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore creates a BadgerDB-backed store. The store owns the
// database handle and closes it on Close.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

// Backend returns the backend name used in metrics and stats.
func (s *BadgerStore) Backend() string {
	return BackendBadger
}

// Get retrieves the record for the key.
func (s *BadgerStore) Get(_ context.Context, key similar.CacheKey) (*Record, error) {
	var record Record

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(recordKey(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrRecordNotFound
		}
		if err != nil {
			return fmt.Errorf("get cache record: %w", err)
		}

		return item.Value(func(val []byte) error {
			if err := json.Unmarshal(val, &record); err != nil {
				return fmt.Errorf("decode cache record: %w", err)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	if record.IsExpired() {
		return nil, ErrRecordExpired
	}

	return &record, nil
}

// Set stores the record, replacing any existing record for its key.
func (s *BadgerStore) Set(_ context.Context, record *Record) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal cache record: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(recordKey(record.Key()), data)
	})
}

// Delete removes the record for the key.
func (s *BadgerStore) Delete(_ context.Context, key similar.CacheKey) error {
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(recordKey(key)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("delete cache record: %w", err)
		}
		return nil
	})
}

// SweepExpired removes every expired or undecodable record.
func (s *BadgerStore) SweepExpired(_ context.Context) (int, error) {
	var staleKeys [][]byte

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(recordKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()

			var record Record
			err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &record)
			})
			if err != nil || record.IsExpired() {
				staleKeys = append(staleKeys, item.KeyCopy(nil))
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scan cache records: %w", err)
	}

	count := 0
	for _, key := range staleKeys {
		err := s.db.Update(func(txn *badger.Txn) error {
			return txn.Delete(key)
		})
		if err != nil {
			continue
		}
		count++
	}

	return count, nil
}

// Stats counts records under the cache prefix.
func (s *BadgerStore) Stats(_ context.Context) (Stats, error) {
	stats := Stats{Backend: BackendBadger}

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(recordKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			stats.Entries++

			var record Record
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &record)
			})
			if err == nil && record.IsExpired() {
				stats.Expired++
			}
		}
		return nil
	})
	if err != nil {
		return stats, fmt.Errorf("scan cache records: %w", err)
	}

	return stats, nil
}

// Close closes the underlying database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// recordKey maps a key to its BadgerDB key.
func recordKey(key similar.CacheKey) []byte {
	return []byte(recordKeyPrefix + recordLocator(key))
}
