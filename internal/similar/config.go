// Kindred - Similar Items Aggregation for Home Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kindred

package similar

import "fmt"

// Config contains all configuration for the aggregator.
type Config struct {
	// DefaultLimit is the result count used when a query does not ask
	// for a specific limit.
	// Default: 50.
	DefaultLimit int `json:"default_limit"`

	// MaxLimit caps the result count a single query may request.
	// Default: 200.
	MaxLimit int `json:"max_limit"`

	// Score contains the ranking constants.
	Score ScoreConfig `json:"score"`
}

// DefaultConfig returns the standard aggregator configuration.
func DefaultConfig() Config {
	return Config{
		DefaultLimit: 50,
		MaxLimit:     200,
		Score:        DefaultScoreConfig(),
	}
}

// Validate checks the configuration for consistency.
func (c Config) Validate() error {
	if c.DefaultLimit < 1 {
		return fmt.Errorf("default_limit must be positive, got %d", c.DefaultLimit)
	}
	if c.MaxLimit < c.DefaultLimit {
		return fmt.Errorf("max_limit must be >= default_limit, got %d < %d", c.MaxLimit, c.DefaultLimit)
	}
	return c.Score.Validate()
}

// normalizeLimit resolves the effective result limit for a query.
func (c Config) normalizeLimit(requested int) int {
	if requested <= 0 {
		return c.DefaultLimit
	}
	if requested > c.MaxLimit {
		return c.MaxLimit
	}
	return requested
}
