// Kindred - Similar Items Aggregation for Home Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kindred

/*
Package config provides centralized configuration management for Kindred.

This package handles loading, validation, and parsing of configuration for
all application components. It ensures consistent configuration across the
similarity engine, cache, providers, and HTTP server, and provides sensible
defaults for every setting.

# Configuration Sources

Configuration is loaded in layers with later layers overriding earlier ones:

 1. Built-in defaults (defaultConfig)
 2. Optional YAML config file (config.yaml, config.yml, /etc/kindred/...,
    or the path in CONFIG_PATH)
 3. Environment variables

# Configuration Structure

The package organizes configuration into logical groups:

  - ServerConfig: HTTP server settings (host, port, timeouts)
  - LoggingConfig: Log level, format, and caller reporting
  - CacheConfig: Response cache backend for remote provider results
  - LibraryConfig: Library snapshot path and per-library provider options
  - SimilarConfig: Result limits and scoring constants
  - ProvidersConfig: Remote similarity sources (TMDB, ListenBrainz)
  - APIConfig: CORS and rate limiting

# Environment Variables

HTTP Server (ServerConfig):
  - HTTP_HOST: Bind address (default: 0.0.0.0)
  - HTTP_PORT: Listen port (default: 3858)
  - HTTP_READ_TIMEOUT: Request read timeout (default: 15s)
  - HTTP_WRITE_TIMEOUT: Response write timeout (default: 30s)
  - HTTP_SHUTDOWN_TIMEOUT: Graceful shutdown window (default: 10s)
  - ENVIRONMENT: development, staging, or production (default: development)

Response Cache (CacheConfig):
  - CACHE_BACKEND: filesystem, badger, or memory (default: filesystem)
  - CACHE_DIR: Filesystem backend root (default: /data/cache)
  - CACHE_BADGER_PATH: BadgerDB backend directory (default: /data/cache/badger)
  - CACHE_SWEEP_INTERVAL: Expired record purge interval (default: 1h)
  - CACHE_FALLBACK_TTL: TTL when a provider declares none (default: 24h)

Library (LibraryConfig):
  - LIBRARY_SNAPSHOT_PATH: Library snapshot JSON file (default: /data/library.json)

Similarity Engine (SimilarConfig):
  - SIMILAR_DEFAULT_LIMIT: Default result count (default: 50)
  - SIMILAR_MAX_LIMIT: Maximum result count (default: 200)
  - SIMILAR_POSITION_DECAY: Per-position score decay (default: 0.02)
  - SIMILAR_PRIORITY_BOOST: Per-rank provider boost (default: 0.005)
  - SIMILAR_PRIORITY_CEILING: Rank where the boost reaches zero (default: 10)

Remote Providers (ProvidersConfig):
  - TMDB_ENABLED, TMDB_BASE_URL, TMDB_API_KEY, TMDB_CACHE_TTL, TMDB_RATE_LIMIT_RPS
  - LISTENBRAINZ_ENABLED, LISTENBRAINZ_BASE_URL, LISTENBRAINZ_CACHE_TTL,
    LISTENBRAINZ_RATE_LIMIT_RPS

API (APIConfig):
  - CORS_ORIGINS: Comma-separated allowed origins (default: *)
  - API_RATE_LIMIT_RPM: Requests per minute per client (default: 300)
  - API_HEALTH_RATE_LIMIT_RPM: Health endpoint limit (default: 60)

Logging (LoggingConfig):
  - LOG_LEVEL: trace, debug, info, warn, error (default: info)
  - LOG_FORMAT: json, console (default: json)
  - LOG_CALLER: Include caller file:line (default: false)

# Usage Example

Basic configuration loading:

	import "github.com/tomtom215/kindred/internal/config"

	// Load configuration from defaults, file, and environment
	cfg, err := config.Load()
	if err != nil {
	    log.Fatalf("Failed to load config: %v", err)
	}

	// Access configuration values
	fmt.Printf("Starting server on %s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("Cache backend: %s\n", cfg.Cache.Backend)

Testing with custom configuration:

	// Override environment variables for testing
	t.Setenv("HTTP_PORT", "8080")
	t.Setenv("CACHE_BACKEND", "memory")

	cfg, err := config.Load()
	// Use cfg for testing

# Per-Library Provider Options

Library entries select and order the providers consulted per item type.
They can only be expressed in the config file:

	library:
	  snapshot_path: /data/library.json
	  libraries:
	    - id: movies-main
	      name: Movies
	      type_options:
	        movie:
	          providers: [genrematch, tmdb]
	          provider_order: [tmdb, genrematch]

A library or item type without options uses every registered provider in
registration order.

# Validation

The package performs comprehensive validation:

  - Required fields for enabled features: TMDB_API_KEY when TMDB_ENABLED=true
  - Numeric ranges: HTTP_PORT (1-65535), SIMILAR_MAX_LIMIT (1-1000)
  - Duration ranges: CACHE_SWEEP_INTERVAL (1m-24h), cache TTLs (1m-90d)
  - URL formats: provider base URLs must be valid HTTP(S) URLs
  - Enum values: CACHE_BACKEND, LOG_LEVEL, LOG_FORMAT, ENVIRONMENT

# Docker Deployment

For Docker deployments, use environment variables or docker-compose.yml:

	services:
	  kindred:
	    image: ghcr.io/tomtom215/kindred:latest
	    environment:
	      CACHE_BACKEND: badger
	      CACHE_BADGER_PATH: /data/cache/badger
	      LIBRARY_SNAPSHOT_PATH: /data/library.json
	      TMDB_ENABLED: "true"
	      TMDB_API_KEY: ${TMDB_API_KEY}
	    ports:
	      - "3858:3858"
	    volumes:
	      - ./data:/data

# Thread Safety

The Config struct is immutable after Load() returns, making it safe for
concurrent access from multiple goroutines without synchronization.

# See Also

  - README.md: User-facing configuration documentation
  - internal/respcache: Response cache backends configured here
  - internal/similar: Scoring constants consumed by the aggregator
*/
package config
