// Kindred - Similar Items Aggregation for Home Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kindred

// Package main is the entry point for the Kindred server.
//
// Kindred answers one question: given an item in a media library, which
// other items in that library are similar to it? Answers blend local
// metadata matching with remote similarity services (TMDb, ListenBrainz),
// resolved back against the library index so only items the user can
// actually play are returned.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: Load settings from environment variables and config files (Koanf v2)
//  2. Logging: Global zerolog logger (json or console format)
//  3. Library: Immutable in-memory index loaded from the snapshot file
//  4. Cache: Response cache store (filesystem, badger, or memory backend)
//  5. Providers: Genre matchers per library kind plus enabled remote providers
//  6. Aggregator: Fan-out, resolve, merge, and rank pipeline
//  7. HTTP Server: REST API with envelope responses and Prometheus metrics
//  8. Supervisor: Suture tree running the cache sweeper and the HTTP server
//
// The library snapshot and the cache backend are required; failure to
// initialize either is fatal. Remote providers are optional and disabled
// by default.
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins):
//   - Environment variables (see internal/config for the full list)
//   - Config file (config.yaml)
//   - Built-in defaults
//
// Remote providers are enabled per service:
//   - TMDb: TMDB_ENABLED=true, TMDB_API_KEY (movies and series)
//   - ListenBrainz: LISTENBRAINZ_ENABLED=true (artists, no key needed)
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM:
//   - Stops accepting new connections
//   - Waits for in-flight requests to complete (SHUTDOWN_TIMEOUT, default 10s)
//   - Stops the cache sweeper and closes the cache store
//
// # Example Usage
//
// Local-only matching over a Jellyfin snapshot:
//
//	export LIBRARY_SNAPSHOT_PATH=/data/library.json
//	export CACHE_DIR=/data/cache
//	./kindred
//
// With TMDb recommendations blended in:
//
//	export TMDB_ENABLED=true
//	export TMDB_API_KEY=your-tmdb-api-key
//	./kindred
//
// The server listens on HTTP_PORT (default 3858).
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/tomtom215/kindred/internal/api"
	"github.com/tomtom215/kindred/internal/config"
	"github.com/tomtom215/kindred/internal/library"
	"github.com/tomtom215/kindred/internal/logging"
	"github.com/tomtom215/kindred/internal/metrics"
	"github.com/tomtom215/kindred/internal/respcache"
	"github.com/tomtom215/kindred/internal/similar"
	"github.com/tomtom215/kindred/internal/supervisor"
	"github.com/tomtom215/kindred/internal/supervisor/services"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

const idleTimeout = 60 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logger := logging.Logger()

	metrics.AppInfo.WithLabelValues(version, runtime.Version()).Set(1)

	logging.Info().
		Str("version", version).
		Str("environment", cfg.Server.Environment).
		Msg("starting kindred")
	logging.Info().
		Str("snapshot_path", cfg.Library.SnapshotPath).
		Str("cache_backend", cfg.Cache.Backend).
		Int("port", cfg.Server.Port).
		Bool("tmdb_enabled", cfg.Providers.TMDB.Enabled).
		Bool("listenbrainz_enabled", cfg.Providers.ListenBrainz.Enabled).
		Msg("configuration loaded")

	if cfg.Cache.Backend == "memory" && !cfg.IsDevelopment() {
		logging.Warn().Msg("============================================================")
		logging.Warn().Msg("  NOTICE: Cache backend is set to 'memory' (CACHE_BACKEND=memory)")
		logging.Warn().Msg("  ")
		logging.Warn().Msg("  Cached provider responses will be lost when the server restarts,")
		logging.Warn().Msg("  and every remote provider will be re-queried from scratch.")
		logging.Warn().Msg("  This is fine for development, but for production consider:")
		logging.Warn().Msg("    CACHE_BACKEND=filesystem")
		logging.Warn().Msg("    CACHE_DIR=/data/cache")
		logging.Warn().Msg("============================================================")
	}

	// The snapshot is the source data; without it no request can be
	// answered, so a missing or malformed file is fatal.
	lib, err := library.NewFromSnapshot(cfg.Library, logger)
	if err != nil {
		logging.Fatal().
			Err(err).
			Str("path", cfg.Library.SnapshotPath).
			Msg("failed to load library snapshot")
	}

	store, err := respcache.New(cfg.Cache)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to initialize cache store")
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			logging.Error().Err(closeErr).Msg("failed to close cache store")
		}
	}()
	logging.Info().Str("backend", store.Backend()).Msg("cache store ready")

	cache := respcache.NewCache(store, cfg.Cache.FallbackTTL, logger)

	registry, err := initProviders(cfg, lib, logger)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to initialize providers")
	}

	aggregator, err := similar.NewAggregator(buildSimilarConfig(cfg), registry, lib, cache, logger)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to create aggregator")
	}

	handler, err := api.NewHandler(aggregator, lib, registry, store, version)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to create api handler")
	}
	router := api.NewRouter(handler, api.NewMiddleware(cfg.API))

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  idleTimeout,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// suture logs through slog; the adapter bridges it onto zerolog so
	// supervisor events share the process log stream.
	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to create supervisor tree")
	}

	tree.AddCacheService(services.NewSweepService(store, services.SweepServiceConfig{
		Interval:       cfg.Cache.SweepInterval,
		SweepOnStartup: true,
	}, logger))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("http server added to supervisor tree")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("shutdown signal received")
		cancel()
	}()

	logging.Info().Msg("starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("waiting for services to stop")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("supervisor tree failed")
		}
	}

	// ServeBackground closes the channel once the tree has fully stopped;
	// drain it so late service errors are not lost.
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("error during shutdown")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("service failed to stop")
		}
	}

	logging.Info().Msg("kindred stopped")
}

// buildSimilarConfig maps the flat app configuration onto the aggregator's
// config type.
func buildSimilarConfig(cfg *config.Config) similar.Config {
	return similar.Config{
		DefaultLimit: cfg.Similar.DefaultLimit,
		MaxLimit:     cfg.Similar.MaxLimit,
		Score: similar.ScoreConfig{
			PositionDecay:   cfg.Similar.PositionDecay,
			PriorityBoost:   cfg.Similar.PriorityBoost,
			PriorityCeiling: cfg.Similar.PriorityCeiling,
		},
	}
}
