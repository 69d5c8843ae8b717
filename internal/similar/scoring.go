// Kindred - Similar Items Aggregation for Home Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kindred

package similar

import "fmt"

// ScoreConfig contains the tunable constants of the ranking formula.
type ScoreConfig struct {
	// PositionDecay is subtracted from the base score once per position
	// for candidates whose provider reported no match score.
	// Default: 0.02.
	PositionDecay float64 `json:"position_decay"`

	// PriorityBoost is the per-rank bonus granted to earlier providers
	// in the effective provider order.
	// Default: 0.005.
	PriorityBoost float64 `json:"priority_boost"`

	// PriorityCeiling is the provider order rank at which the priority
	// boost reaches zero. Providers ranked at or beyond it get no boost.
	// Default: 10.
	PriorityCeiling int `json:"priority_ceiling"`
}

// DefaultScoreConfig returns the standard ranking constants.
func DefaultScoreConfig() ScoreConfig {
	return ScoreConfig{
		PositionDecay:   0.02,
		PriorityBoost:   0.005,
		PriorityCeiling: 10,
	}
}

// Validate checks the scoring constants for consistency.
func (c ScoreConfig) Validate() error {
	if c.PositionDecay < 0 {
		return fmt.Errorf("score.position_decay must be non-negative, got %f", c.PositionDecay)
	}
	if c.PriorityBoost < 0 {
		return fmt.Errorf("score.priority_boost must be non-negative, got %f", c.PriorityBoost)
	}
	if c.PriorityCeiling < 0 {
		return fmt.Errorf("score.priority_ceiling must be non-negative, got %d", c.PriorityCeiling)
	}
	return nil
}

// Score computes the relevance score for one candidate.
//
// The base is the provider-reported match score when present, otherwise
// 1.0 decayed by the candidate's position within the provider's results.
// Providers earlier in the effective order add a small boost so that,
// between equally scored candidates, the better-trusted source wins.
// The result is clamped to [0, 1].
func (c ScoreConfig) Score(matchScore *float64, providerOrder, position int) float64 {
	var base float64
	if matchScore != nil {
		base = *matchScore
	} else {
		base = 1.0 - float64(position)*c.PositionDecay
	}

	boost := 0.0
	if providerOrder < c.PriorityCeiling {
		boost = float64(c.PriorityCeiling-providerOrder) * c.PriorityBoost
	}

	score := base + boost
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
