// Kindred - Similar Items Aggregation for Home Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kindred

package main

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/tomtom215/kindred/internal/config"
	"github.com/tomtom215/kindred/internal/library"
	"github.com/tomtom215/kindred/internal/similar"
	"github.com/tomtom215/kindred/internal/similar/providers"
)

// providerRegistrar holds dependencies for provider registration.
type providerRegistrar struct {
	registry *similar.Registry
	lib      *library.Library
	cfg      *config.Config
	logger   zerolog.Logger
}

// initProviders builds the provider registry from configuration. Genre
// matchers are always registered for every kind the library holds items
// for; remote providers are registered only when enabled. A misconfigured
// enabled provider is an error, not a silent skip.
//
//nolint:gocritic // hugeParam: logger passed by value for zerolog chaining
func initProviders(cfg *config.Config, lib *library.Library, logger zerolog.Logger) (*similar.Registry, error) {
	r := &providerRegistrar{
		registry: similar.NewRegistry(),
		lib:      lib,
		cfg:      cfg,
		logger:   logger,
	}

	if err := r.registerGenreMatchers(); err != nil {
		return nil, err
	}
	if err := r.registerTMDB(); err != nil {
		return nil, err
	}
	if err := r.registerListenBrainz(); err != nil {
		return nil, err
	}

	logger.Info().
		Int("providers", len(r.registry.Providers())).
		Msg("similarity providers registered")

	return r.registry, nil
}

// registerGenreMatchers adds one local genre matcher per kind the library
// actually holds. Kinds without items are skipped so /providers does not
// advertise providers that can never return results.
func (r *providerRegistrar) registerGenreMatchers() error {
	counts := r.lib.Counts()
	for _, kind := range similar.Kinds {
		if counts[kind] == 0 {
			continue
		}
		matcher, err := providers.NewGenreMatcher(kind, r.lib, providers.GenreMatcherConfig{})
		if err != nil {
			return fmt.Errorf("genre matcher for %s: %w", kind, err)
		}
		r.registry.RegisterLocal(matcher)
		r.logger.Debug().
			Str("provider", providers.GenreMatcherName).
			Str("kind", string(kind)).
			Int("items", counts[kind]).
			Msg("registered genre matcher")
	}
	return nil
}

// registerTMDB adds the TMDb provider for movies and series when enabled.
func (r *providerRegistrar) registerTMDB() error {
	if !r.cfg.Providers.TMDB.Enabled {
		r.logger.Info().Msg("tmdb provider disabled (TMDB_ENABLED=false)")
		return nil
	}

	tmdbCfg := r.cfg.Providers.TMDB
	tmdbCfg.CacheTTL = effectiveTTL(tmdbCfg.CacheTTL, r.cfg.Cache.FallbackTTL)

	for _, kind := range []similar.ItemKind{similar.KindMovie, similar.KindSeries} {
		provider, err := providers.NewTMDB(kind, tmdbCfg, r.logger)
		if err != nil {
			return fmt.Errorf("tmdb provider for %s: %w", kind, err)
		}
		r.registry.RegisterRemote(provider)
		r.logger.Debug().
			Str("provider", providers.TMDBName).
			Str("kind", string(kind)).
			Dur("cache_ttl", tmdbCfg.CacheTTL).
			Msg("registered tmdb provider")
	}
	return nil
}

// registerListenBrainz adds the similar-artists provider when enabled.
func (r *providerRegistrar) registerListenBrainz() error {
	if !r.cfg.Providers.ListenBrainz.Enabled {
		r.logger.Info().Msg("listenbrainz provider disabled (LISTENBRAINZ_ENABLED=false)")
		return nil
	}

	lbCfg := r.cfg.Providers.ListenBrainz
	lbCfg.CacheTTL = effectiveTTL(lbCfg.CacheTTL, r.cfg.Cache.FallbackTTL)

	provider, err := providers.NewListenBrainz(lbCfg, r.logger)
	if err != nil {
		return fmt.Errorf("listenbrainz provider: %w", err)
	}
	r.registry.RegisterRemote(provider)
	r.logger.Debug().
		Str("provider", providers.ListenBrainzName).
		Str("kind", string(similar.KindArtist)).
		Dur("cache_ttl", lbCfg.CacheTTL).
		Msg("registered listenbrainz provider")
	return nil
}

// effectiveTTL resolves a provider cache TTL against the global fallback.
// Providers capture their TTL at construction, so the substitution has to
// happen here rather than at cache-write time.
func effectiveTTL(ttl, fallback time.Duration) time.Duration {
	if ttl <= 0 {
		return fallback
	}
	return ttl
}
