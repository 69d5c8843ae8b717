// Kindred - Similar Items Aggregation for Home Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kindred

package config

import (
	"time"
)

// Config holds all application configuration loaded from environment variables and config files.
// Provides centralized configuration management for all application components including
// the HTTP server, response cache, library snapshot, similarity scoring, remote providers,
// API behaviour, and logging.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: Built-in sensible defaults for all optional settings
//  2. Config File: Optional YAML config file (config.yaml) for persistent settings
//  3. Environment Variables: Override any setting via environment variables
//
// Configuration Categories:
//
//  1. Infrastructure:
//     - Server: HTTP server configuration (host, port, timeouts)
//     - Cache: Response cache backend for remote provider results
//     - Library: Media library snapshot and per-library provider options
//
//  2. Similarity Engine:
//     - Similar: Result limits and scoring constants
//     - Providers: Remote similarity sources (TMDB, ListenBrainz)
//
//  3. API & Observability:
//     - API: CORS and rate limiting
//     - Logging: Log levels and output formats
//
// Example - Load configuration from environment:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal("Failed to load config:", err)
//	}
//	// cfg.Cache.Backend, cfg.Providers.TMDB.APIKey, etc. are now populated
//
// Example - Access configuration values:
//
//	store, err := respcache.New(cfg.Cache)
//	server := http.Server{Addr: fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)}
//
// Validation:
// The Load() function validates all fields and returns an error if:
//   - Required values are missing for an enabled feature (e.g. TMDB_API_KEY)
//   - Values are malformed (invalid URL format, out-of-range numbers)
//   - Scoring constants fall outside their sensible ranges
//
// Thread Safety:
// Config is immutable after Load() and safe for concurrent read access from multiple goroutines.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
	Cache     CacheConfig     `koanf:"cache"`
	Library   LibraryConfig   `koanf:"library"`
	Similar   SimilarConfig   `koanf:"similar"`
	Providers ProvidersConfig `koanf:"providers"`
	API       APIConfig       `koanf:"api"`
}

// ServerConfig holds HTTP server settings.
//
// Environment Variables:
//   - HTTP_HOST: Listen address (default: 0.0.0.0)
//   - HTTP_PORT: Listen port (default: 3858)
//   - HTTP_READ_TIMEOUT: Maximum duration for reading a request (default: 15s)
//   - HTTP_WRITE_TIMEOUT: Maximum duration for writing a response (default: 30s)
//   - HTTP_SHUTDOWN_TIMEOUT: Grace period for in-flight requests on shutdown (default: 10s)
//   - ENVIRONMENT: Environment mode: development, staging, production (default: development)
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"` // Environment mode: "development", "staging", "production" (default: "development")
}

// LoggingConfig holds logging settings for zerolog.
//
// Environment Variables:
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json, console (default: json)
//   - LOG_CALLER: true/false - include caller file:line (default: false)
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	// Default: info
	Level string `koanf:"level"`

	// Format is the output format: json or console.
	// JSON is recommended for production (structured, machine-parseable).
	// Console is human-readable for development.
	// Default: json
	Format string `koanf:"format"`

	// Caller includes caller file and line number in logs.
	// Adds slight performance overhead.
	// Default: false
	Caller bool `koanf:"caller"`
}

// CacheConfig holds the remote response cache settings. The cache stores raw
// provider responses keyed by (provider, item type, item ID) so remote
// services are not re-queried on every request.
//
// Environment Variables:
//   - CACHE_BACKEND: Storage backend: filesystem, badger, memory (default: filesystem)
//   - CACHE_DIR: Root directory for the filesystem backend (default: /data/cache)
//   - CACHE_BADGER_PATH: Directory for the BadgerDB backend (default: /data/cache/badger)
//   - CACHE_SWEEP_INTERVAL: How often expired records are purged (default: 1h)
//   - CACHE_FALLBACK_TTL: Record lifetime when a provider declares no TTL (default: 24h)
type CacheConfig struct {
	// Backend selects the storage backend: "filesystem", "badger", or "memory".
	// The memory backend does not survive restarts; it is intended for tests
	// and small libraries.
	// Default: filesystem
	Backend string `koanf:"backend"`

	// Dir is the root directory for the filesystem backend. Records are
	// stored as <dir>/<provider>/<item-type>/<id>.json.
	// Default: /data/cache
	Dir string `koanf:"dir"`

	// BadgerPath is the directory for the BadgerDB backend.
	// Default: /data/cache/badger
	BadgerPath string `koanf:"badger_path"`

	// SweepInterval is how often the sweeper purges expired records.
	// Default: 1h
	SweepInterval time.Duration `koanf:"sweep_interval"`

	// FallbackTTL is the record lifetime applied when a provider response
	// does not carry its own TTL.
	// Default: 24h
	FallbackTTL time.Duration `koanf:"fallback_ttl"`
}

// LibraryConfig holds the media library snapshot settings.
//
// Environment Variables:
//   - LIBRARY_SNAPSHOT_PATH: Path to the library snapshot JSON file (default: /data/library.json)
//
// Per-library provider options (allow-lists and ordering) cannot be expressed
// as environment variables; configure them in config.yaml:
//
//	library:
//	  snapshot_path: /data/library.json
//	  libraries:
//	    - id: movies-main
//	      name: Movies
//	      type_options:
//	        movie:
//	          providers: [genrematch, tmdb]
//	          provider_order: [tmdb, genrematch]
type LibraryConfig struct {
	// SnapshotPath is the JSON file holding the media library index.
	// Default: /data/library.json
	SnapshotPath string `koanf:"snapshot_path"`

	// Libraries carries per-library provider options. Config file only.
	Libraries []LibraryEntry `koanf:"libraries"`
}

// LibraryEntry configures provider selection for a single library.
type LibraryEntry struct {
	// ID is the library identifier referenced by items in the snapshot.
	ID string `koanf:"id"`

	// Name is a human-readable label used in logs and API responses.
	Name string `koanf:"name"`

	// TypeOptions maps an item type (movie, series, artist, album) to its
	// provider selection options. Item types without an entry use all
	// registered providers in registration order.
	TypeOptions map[string]TypeOptionsEntry `koanf:"type_options"`
}

// TypeOptionsEntry restricts and orders the providers consulted for one item type.
type TypeOptionsEntry struct {
	// Providers is an allow-list of provider names. Empty means every
	// registered provider for the item type is eligible.
	Providers []string `koanf:"providers"`

	// ProviderOrder lists provider names in the order they should be
	// consulted. Providers not listed keep their registration order after
	// the listed ones.
	ProviderOrder []string `koanf:"provider_order"`
}

// SimilarConfig holds aggregation and scoring settings.
//
// Scores blend a position-based base score (earlier results score higher)
// with a provider priority boost (earlier providers score higher). The
// defaults match a 50-result page losing at most one full point of score
// and a top-priority provider gaining at most 0.05.
//
// Environment Variables:
//   - SIMILAR_DEFAULT_LIMIT: Result count when the request does not specify one (default: 50)
//   - SIMILAR_MAX_LIMIT: Hard cap on the requested result count (default: 200)
//   - SIMILAR_POSITION_DECAY: Score subtracted per result position (default: 0.02)
//   - SIMILAR_PRIORITY_BOOST: Score added per provider priority rank (default: 0.005)
//   - SIMILAR_PRIORITY_CEILING: Provider rank past which no boost applies (default: 10)
type SimilarConfig struct {
	// DefaultLimit is the result count used when a request does not ask
	// for a specific limit.
	// Default: 50
	DefaultLimit int `koanf:"default_limit"`

	// MaxLimit caps the result count a single request may ask for.
	// Default: 200
	MaxLimit int `koanf:"max_limit"`

	// PositionDecay is subtracted from the base score once per result
	// position when a provider does not report a match score.
	// Default: 0.02
	PositionDecay float64 `koanf:"position_decay"`

	// PriorityBoost is the per-rank bonus granted to earlier providers.
	// Default: 0.005
	PriorityBoost float64 `koanf:"priority_boost"`

	// PriorityCeiling is the provider order rank at which the priority
	// boost reaches zero.
	// Default: 10
	PriorityCeiling int `koanf:"priority_ceiling"`
}

// ProvidersConfig holds remote similarity provider settings.
type ProvidersConfig struct {
	TMDB         TMDBConfig         `koanf:"tmdb"`
	ListenBrainz ListenBrainzConfig `koanf:"listenbrainz"`
}

// TMDBConfig holds The Movie Database provider settings. TMDB serves
// recommendations for movies and series; items need a "tmdb" provider ID
// in the library snapshot to participate.
//
// Environment Variables:
//   - TMDB_ENABLED: Enable the TMDB provider (default: false)
//   - TMDB_BASE_URL: API base URL (default: https://api.themoviedb.org/3)
//   - TMDB_API_KEY: TMDB API key (required when enabled)
//   - TMDB_CACHE_TTL: How long responses stay cached; 0 inherits
//     CACHE_FALLBACK_TTL (default: 168h)
//   - TMDB_RATE_LIMIT_RPS: Outbound requests per second (default: 4)
type TMDBConfig struct {
	Enabled      bool          `koanf:"enabled"`
	BaseURL      string        `koanf:"base_url"`
	APIKey       string        `koanf:"api_key"`
	CacheTTL     time.Duration `koanf:"cache_ttl"`
	RateLimitRPS float64       `koanf:"rate_limit_rps"`
}

// ListenBrainzConfig holds the ListenBrainz similar-artists provider
// settings. Items need a "musicbrainz" provider ID in the library snapshot
// to participate. The endpoint is unauthenticated.
//
// Environment Variables:
//   - LISTENBRAINZ_ENABLED: Enable the ListenBrainz provider (default: false)
//   - LISTENBRAINZ_BASE_URL: API base URL (default: https://labs.api.listenbrainz.org)
//   - LISTENBRAINZ_CACHE_TTL: How long responses stay cached; 0 inherits
//     CACHE_FALLBACK_TTL (default: 168h)
//   - LISTENBRAINZ_RATE_LIMIT_RPS: Outbound requests per second (default: 1)
type ListenBrainzConfig struct {
	Enabled      bool          `koanf:"enabled"`
	BaseURL      string        `koanf:"base_url"`
	CacheTTL     time.Duration `koanf:"cache_ttl"`
	RateLimitRPS float64       `koanf:"rate_limit_rps"`
}

// APIConfig holds REST API settings.
//
// Environment Variables:
//   - CORS_ORIGINS: Comma-separated list of allowed origins (default: *)
//   - API_RATE_LIMIT_RPM: Requests per minute per client IP (default: 300)
//   - API_HEALTH_RATE_LIMIT_RPM: Requests per minute for health endpoints (default: 60)
type APIConfig struct {
	CORSOrigins        []string `koanf:"cors_origins"`
	RateLimitRPM       int      `koanf:"rate_limit_rpm"`
	HealthRateLimitRPM int      `koanf:"health_rate_limit_rpm"`
}

// Load reads configuration using layered sources with the following
// precedence (highest wins):
//  1. Built-in defaults
//  2. Config file (config.yaml if exists, or path specified in CONFIG_PATH env var)
//  3. Environment variables
//
// This function uses Koanf v2 for flexible, layered configuration management.
//
// See LoadWithKoanf() for the underlying implementation.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
