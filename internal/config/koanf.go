// Kindred - Similar Items Aggregation for Home Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kindred

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/kindred/config.yaml",
	"/etc/kindred/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all sensible default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            3858,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			Environment:     "development", // Default to development; set ENVIRONMENT=production for production checks
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Cache: CacheConfig{
			Backend:       "filesystem",
			Dir:           "/data/cache",
			BadgerPath:    "/data/cache/badger",
			SweepInterval: time.Hour,
			FallbackTTL:   24 * time.Hour,
		},
		Library: LibraryConfig{
			SnapshotPath: "/data/library.json",
			Libraries:    nil, // Per-library options come from the config file only
		},
		Similar: SimilarConfig{
			DefaultLimit:    50,
			MaxLimit:        200,
			PositionDecay:   0.02,
			PriorityBoost:   0.005,
			PriorityCeiling: 10,
		},
		Providers: ProvidersConfig{
			TMDB: TMDBConfig{
				Enabled:      false,
				BaseURL:      "https://api.themoviedb.org/3",
				APIKey:       "",
				CacheTTL:     168 * time.Hour, // 7 days; TMDB recommendations shift slowly
				RateLimitRPS: 4,
			},
			ListenBrainz: ListenBrainzConfig{
				Enabled:      false,
				BaseURL:      "https://labs.api.listenbrainz.org",
				CacheTTL:     168 * time.Hour,
				RateLimitRPS: 1, // ListenBrainz asks for at most 1 req/s from unauthenticated clients
			},
		},
		API: APIConfig{
			CORSOrigins:        []string{"*"},
			RateLimitRPM:       300,
			HealthRateLimitRPM: 60,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in sensible defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any setting
//
// This function is the preferred way to load configuration and provides:
//   - Type-safe configuration unmarshaling
//   - Clear precedence: ENV > File > Defaults
//   - Support for nested configuration via koanf struct tags
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	configPath := findConfigFile()
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	// Transform environment variable names to koanf paths:
	// HTTP_PORT -> server.port
	// TMDB_API_KEY -> providers.tmdb.api_key
	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Post-process slice fields from comma-separated strings
	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	// Unmarshal into Config struct
	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	// Check environment variable first
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	// Search default paths
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"api.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// This is necessary because env vars come in as strings, but the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		// If it's already a slice (from YAML file), skip
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		// If it's a string, split by comma
		if strVal, ok := val.(string); ok {
			if strVal == "" {
				continue
			}
			parts := strings.Split(strVal, ",")
			trimmed := make([]string, 0, len(parts))
			for _, p := range parts {
				p = strings.TrimSpace(p)
				if p != "" {
					trimmed = append(trimmed, p)
				}
			}
			if len(trimmed) > 0 {
				if err := k.Set(path, trimmed); err != nil {
					return fmt.Errorf("failed to set %s: %w", path, err)
				}
			}
		}
	}
	return nil
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - HTTP_PORT -> server.port
//   - CACHE_BACKEND -> cache.backend
//   - TMDB_API_KEY -> providers.tmdb.api_key
//   - SIMILAR_MAX_LIMIT -> similar.max_limit
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	// Map environment variable names to config sections
	envMappings := map[string]string{
		// Server mappings
		"http_port":             "server.port",
		"http_host":             "server.host",
		"http_read_timeout":     "server.read_timeout",
		"http_write_timeout":    "server.write_timeout",
		"http_shutdown_timeout": "server.shutdown_timeout",
		"environment":           "server.environment",

		// Logging mappings
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",

		// Cache mappings
		"cache_backend":        "cache.backend",
		"cache_dir":            "cache.dir",
		"cache_badger_path":    "cache.badger_path",
		"cache_sweep_interval": "cache.sweep_interval",
		"cache_fallback_ttl":   "cache.fallback_ttl",

		// Library mappings
		"library_snapshot_path": "library.snapshot_path",

		// Similarity scoring mappings
		"similar_default_limit":    "similar.default_limit",
		"similar_max_limit":        "similar.max_limit",
		"similar_position_decay":   "similar.position_decay",
		"similar_priority_boost":   "similar.priority_boost",
		"similar_priority_ceiling": "similar.priority_ceiling",

		// TMDB provider mappings
		"tmdb_enabled":        "providers.tmdb.enabled",
		"tmdb_base_url":       "providers.tmdb.base_url",
		"tmdb_api_key":        "providers.tmdb.api_key",
		"tmdb_cache_ttl":      "providers.tmdb.cache_ttl",
		"tmdb_rate_limit_rps": "providers.tmdb.rate_limit_rps",

		// ListenBrainz provider mappings
		"listenbrainz_enabled":        "providers.listenbrainz.enabled",
		"listenbrainz_base_url":       "providers.listenbrainz.base_url",
		"listenbrainz_cache_ttl":      "providers.listenbrainz.cache_ttl",
		"listenbrainz_rate_limit_rps": "providers.listenbrainz.rate_limit_rps",

		// API mappings
		"cors_origins":              "api.cors_origins",
		"api_rate_limit_rpm":        "api.rate_limit_rpm",
		"api_health_rate_limit_rpm": "api.health_rate_limit_rpm",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	// For unmapped keys, return empty string to skip them
	// This prevents random environment variables from polluting config
	return ""
}

// GetKoanfInstance returns a new Koanf instance for advanced usage.
// This is useful for:
//   - Hot-reload scenarios (with proper mutex protection)
//   - Custom configuration sources
//   - Testing with mock configurations
func GetKoanfInstance() *koanf.Koanf {
	return koanf.New(".")
}

// WatchConfigFile sets up a file watcher for hot-reload capability.
// Note: The caller is responsible for mutex protection when accessing
// configuration during reloads.
//
// Example usage:
//
//	var cfgMu sync.RWMutex
//	var cfg *Config
//
//	err := WatchConfigFile(configPath, func() {
//	    cfgMu.Lock()
//	    defer cfgMu.Unlock()
//	    newCfg, err := LoadWithKoanf()
//	    if err != nil {
//	        log.Printf("Config reload failed: %v", err)
//	        return
//	    }
//	    cfg = newCfg
//	    log.Println("Configuration reloaded successfully")
//	})
func WatchConfigFile(path string, callback func()) error {
	provider := file.Provider(path)

	// Start watching the file for changes
	return provider.Watch(func(event interface{}, err error) {
		if err != nil {
			return
		}
		callback()
	})
}
