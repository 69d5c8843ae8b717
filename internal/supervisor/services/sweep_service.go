// Kindred - Similar Items Aggregation for Home Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kindred

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/kindred/internal/metrics"
)

// sweepTimeout bounds a single purge pass.
const sweepTimeout = 5 * time.Minute

// ExpiredSweeper is the cache store surface the sweeper needs. Satisfied by
// respcache.Store.
type ExpiredSweeper interface {
	// Backend returns the backend name used in metrics.
	Backend() string

	// SweepExpired removes expired records and reports how many were purged.
	SweepExpired(ctx context.Context) (int, error)
}

// SweepServiceConfig holds configuration for the cache sweep service.
type SweepServiceConfig struct {
	// Interval is how often expired records are purged.
	Interval time.Duration

	// SweepOnStartup triggers a purge as soon as the service starts,
	// clearing records that expired while the instance was down.
	SweepOnStartup bool
}

// SweepService periodically purges expired records from the response cache.
// Expired records are otherwise only skipped at read time, never removed,
// so without the sweeper the cache would grow monotonically.
type SweepService struct {
	store  ExpiredSweeper
	config SweepServiceConfig
	logger zerolog.Logger
	name   string
}

// NewSweepService creates a cache sweep service.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewSweepService(store ExpiredSweeper, cfg SweepServiceConfig, logger zerolog.Logger) *SweepService {
	return &SweepService{
		store:  store,
		config: cfg,
		logger: logger.With().Str("service", "cache-sweeper").Logger(),
		name:   "cache-sweeper",
	}
}

// Serve implements the suture.Service interface. It runs the purge loop
// until the context is canceled.
func (s *SweepService) Serve(ctx context.Context) error {
	if s.config.Interval <= 0 {
		s.config.Interval = time.Hour
	}

	s.logger.Info().
		Str("backend", s.store.Backend()).
		Dur("interval", s.config.Interval).
		Bool("sweep_on_startup", s.config.SweepOnStartup).
		Msg("cache sweep service starting")

	if s.config.SweepOnStartup {
		if err := s.sweep(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("initial sweep failed (will retry on schedule)")
		}
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("cache sweep service shutting down")
			return ctx.Err()

		case <-ticker.C:
			if err := s.sweep(ctx); err != nil {
				s.logger.Warn().Err(err).Msg("scheduled sweep failed")
			}
		}
	}
}

// sweep performs one purge pass with its own deadline.
func (s *SweepService) sweep(ctx context.Context) error {
	sweepCtx, cancel := context.WithTimeout(ctx, sweepTimeout)
	defer cancel()

	start := time.Now()
	purged, err := s.store.SweepExpired(sweepCtx)
	if err != nil {
		if ctx.Err() == nil {
			metrics.RecordCacheError(s.store.Backend(), "sweep")
		}
		return err
	}

	duration := time.Since(start)
	metrics.RecordCacheSweep(s.store.Backend(), purged, duration)
	s.logger.Info().
		Int("purged", purged).
		Dur("duration", duration).
		Msg("expired cache records purged")

	return nil
}

// String returns the service name for logging.
func (s *SweepService) String() string {
	return s.name
}
