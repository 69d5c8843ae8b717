// Kindred - Similar Items Aggregation for Home Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kindred

package respcache

import (
	"context"
	"sync"

	"github.com/tomtom215/kindred/internal/similar"
)

// MemoryStore implements Store with an in-process map. Records do not
// survive restarts; intended for tests and ephemeral deployments.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Record
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*Record),
	}
}

// Backend returns the backend name used in metrics and stats.
func (s *MemoryStore) Backend() string {
	return BackendMemory
}

// Get retrieves the record for the key.
func (s *MemoryStore) Get(_ context.Context, key similar.CacheKey) (*Record, error) {
	s.mu.RLock()
	record, ok := s.records[recordLocator(key)]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrRecordNotFound
	}
	if record.IsExpired() {
		return nil, ErrRecordExpired
	}
	return record, nil
}

// Set stores the record, replacing any existing record for its key.
func (s *MemoryStore) Set(_ context.Context, record *Record) error {
	s.mu.Lock()
	s.records[recordLocator(record.Key())] = record
	s.mu.Unlock()
	return nil
}

// Delete removes the record for the key.
func (s *MemoryStore) Delete(_ context.Context, key similar.CacheKey) error {
	s.mu.Lock()
	delete(s.records, recordLocator(key))
	s.mu.Unlock()
	return nil
}

// SweepExpired removes every expired record.
func (s *MemoryStore) SweepExpired(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for locator, record := range s.records {
		if record.IsExpired() {
			delete(s.records, locator)
			count++
		}
	}
	return count, nil
}

// Stats counts stored records.
func (s *MemoryStore) Stats(_ context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{Backend: BackendMemory}
	for _, record := range s.records {
		stats.Entries++
		if record.IsExpired() {
			stats.Expired++
		}
	}
	return stats, nil
}

// Close implements Store. The memory store holds no resources.
func (s *MemoryStore) Close() error {
	return nil
}
