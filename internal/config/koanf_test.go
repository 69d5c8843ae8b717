// Kindred - Similar Items Aggregation for Home Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kindred

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestDefaultConfig verifies that defaultConfig() returns proper defaults
func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	// Server defaults
	if cfg.Server.Port != 3858 {
		t.Errorf("Server.Port = %d, want 3858", cfg.Server.Port)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want 0.0.0.0", cfg.Server.Host)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("Server.ReadTimeout = %v, want 15s", cfg.Server.ReadTimeout)
	}
	if cfg.Server.ShutdownTimeout != 10*time.Second {
		t.Errorf("Server.ShutdownTimeout = %v, want 10s", cfg.Server.ShutdownTimeout)
	}
	if cfg.Server.Environment != "development" {
		t.Errorf("Server.Environment = %q, want development", cfg.Server.Environment)
	}

	// Cache defaults
	if cfg.Cache.Backend != "filesystem" {
		t.Errorf("Cache.Backend = %q, want filesystem", cfg.Cache.Backend)
	}
	if cfg.Cache.Dir != "/data/cache" {
		t.Errorf("Cache.Dir = %q, want /data/cache", cfg.Cache.Dir)
	}
	if cfg.Cache.SweepInterval != time.Hour {
		t.Errorf("Cache.SweepInterval = %v, want 1h", cfg.Cache.SweepInterval)
	}
	if cfg.Cache.FallbackTTL != 24*time.Hour {
		t.Errorf("Cache.FallbackTTL = %v, want 24h", cfg.Cache.FallbackTTL)
	}

	// Library defaults
	if cfg.Library.SnapshotPath != "/data/library.json" {
		t.Errorf("Library.SnapshotPath = %q, want /data/library.json", cfg.Library.SnapshotPath)
	}
	if len(cfg.Library.Libraries) != 0 {
		t.Errorf("Library.Libraries should be empty by default, got %d entries", len(cfg.Library.Libraries))
	}

	// Similarity defaults
	if cfg.Similar.DefaultLimit != 50 {
		t.Errorf("Similar.DefaultLimit = %d, want 50", cfg.Similar.DefaultLimit)
	}
	if cfg.Similar.MaxLimit != 200 {
		t.Errorf("Similar.MaxLimit = %d, want 200", cfg.Similar.MaxLimit)
	}
	if cfg.Similar.PositionDecay != 0.02 {
		t.Errorf("Similar.PositionDecay = %v, want 0.02", cfg.Similar.PositionDecay)
	}
	if cfg.Similar.PriorityBoost != 0.005 {
		t.Errorf("Similar.PriorityBoost = %v, want 0.005", cfg.Similar.PriorityBoost)
	}
	if cfg.Similar.PriorityCeiling != 10 {
		t.Errorf("Similar.PriorityCeiling = %d, want 10", cfg.Similar.PriorityCeiling)
	}

	// Provider defaults (disabled)
	if cfg.Providers.TMDB.Enabled {
		t.Errorf("Providers.TMDB.Enabled should be false by default")
	}
	if cfg.Providers.TMDB.BaseURL != "https://api.themoviedb.org/3" {
		t.Errorf("Providers.TMDB.BaseURL = %q, want https://api.themoviedb.org/3", cfg.Providers.TMDB.BaseURL)
	}
	if cfg.Providers.TMDB.CacheTTL != 168*time.Hour {
		t.Errorf("Providers.TMDB.CacheTTL = %v, want 168h", cfg.Providers.TMDB.CacheTTL)
	}
	if cfg.Providers.TMDB.RateLimitRPS != 4 {
		t.Errorf("Providers.TMDB.RateLimitRPS = %v, want 4", cfg.Providers.TMDB.RateLimitRPS)
	}
	if cfg.Providers.ListenBrainz.Enabled {
		t.Errorf("Providers.ListenBrainz.Enabled should be false by default")
	}
	if cfg.Providers.ListenBrainz.RateLimitRPS != 1 {
		t.Errorf("Providers.ListenBrainz.RateLimitRPS = %v, want 1", cfg.Providers.ListenBrainz.RateLimitRPS)
	}

	// API defaults
	if len(cfg.API.CORSOrigins) != 1 || cfg.API.CORSOrigins[0] != "*" {
		t.Errorf("API.CORSOrigins = %v, want [*]", cfg.API.CORSOrigins)
	}
	if cfg.API.RateLimitRPM != 300 {
		t.Errorf("API.RateLimitRPM = %d, want 300", cfg.API.RateLimitRPM)
	}
	if cfg.API.HealthRateLimitRPM != 60 {
		t.Errorf("API.HealthRateLimitRPM = %d, want 60", cfg.API.HealthRateLimitRPM)
	}

	// Logging defaults
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format = %q, want json", cfg.Logging.Format)
	}

	// Defaults must validate cleanly
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaultConfig().Validate() error = %v", err)
	}
}

// TestEnvTransformFunc verifies environment variable name transformations
func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		// Server
		{"HTTP_PORT", "server.port"},
		{"HTTP_HOST", "server.host"},
		{"HTTP_READ_TIMEOUT", "server.read_timeout"},
		{"HTTP_WRITE_TIMEOUT", "server.write_timeout"},
		{"HTTP_SHUTDOWN_TIMEOUT", "server.shutdown_timeout"},
		{"ENVIRONMENT", "server.environment"},

		// Logging
		{"LOG_LEVEL", "logging.level"},
		{"LOG_FORMAT", "logging.format"},
		{"LOG_CALLER", "logging.caller"},

		// Cache
		{"CACHE_BACKEND", "cache.backend"},
		{"CACHE_DIR", "cache.dir"},
		{"CACHE_BADGER_PATH", "cache.badger_path"},
		{"CACHE_SWEEP_INTERVAL", "cache.sweep_interval"},
		{"CACHE_FALLBACK_TTL", "cache.fallback_ttl"},

		// Library
		{"LIBRARY_SNAPSHOT_PATH", "library.snapshot_path"},

		// Similarity
		{"SIMILAR_DEFAULT_LIMIT", "similar.default_limit"},
		{"SIMILAR_MAX_LIMIT", "similar.max_limit"},
		{"SIMILAR_POSITION_DECAY", "similar.position_decay"},
		{"SIMILAR_PRIORITY_BOOST", "similar.priority_boost"},
		{"SIMILAR_PRIORITY_CEILING", "similar.priority_ceiling"},

		// Providers
		{"TMDB_ENABLED", "providers.tmdb.enabled"},
		{"TMDB_BASE_URL", "providers.tmdb.base_url"},
		{"TMDB_API_KEY", "providers.tmdb.api_key"},
		{"TMDB_CACHE_TTL", "providers.tmdb.cache_ttl"},
		{"TMDB_RATE_LIMIT_RPS", "providers.tmdb.rate_limit_rps"},
		{"LISTENBRAINZ_ENABLED", "providers.listenbrainz.enabled"},
		{"LISTENBRAINZ_BASE_URL", "providers.listenbrainz.base_url"},
		{"LISTENBRAINZ_CACHE_TTL", "providers.listenbrainz.cache_ttl"},
		{"LISTENBRAINZ_RATE_LIMIT_RPS", "providers.listenbrainz.rate_limit_rps"},

		// API
		{"CORS_ORIGINS", "api.cors_origins"},
		{"API_RATE_LIMIT_RPM", "api.rate_limit_rpm"},
		{"API_HEALTH_RATE_LIMIT_RPM", "api.health_rate_limit_rpm"},

		// Unknown (should return empty)
		{"RANDOM_VAR", ""},
		{"PATH", ""},
		{"HOME", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := envTransformFunc(tt.input)
			if result != tt.expected {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

// TestFindConfigFile verifies config file discovery
func TestFindConfigFile(t *testing.T) {
	tmpDir := t.TempDir()

	// Save original working directory
	origDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	defer func() {
		if err := os.Chdir(origDir); err != nil {
			t.Errorf("Failed to restore working directory: %v", err)
		}
	}()

	// Change to temp directory
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("Failed to change to temp directory: %v", err)
	}

	t.Run("no config file exists", func(t *testing.T) {
		os.Unsetenv(ConfigPathEnvVar)
		result := findConfigFile()
		if result != "" {
			t.Errorf("findConfigFile() = %q, want empty string", result)
		}
	})

	t.Run("config.yaml exists", func(t *testing.T) {
		configPath := filepath.Join(tmpDir, "config.yaml")
		if err := os.WriteFile(configPath, []byte("test: true"), 0644); err != nil {
			t.Fatalf("Failed to create config file: %v", err)
		}
		defer os.Remove(configPath)

		os.Unsetenv(ConfigPathEnvVar)
		result := findConfigFile()
		if result != "config.yaml" {
			t.Errorf("findConfigFile() = %q, want config.yaml", result)
		}
	})

	t.Run("CONFIG_PATH env var takes precedence", func(t *testing.T) {
		customPath := filepath.Join(tmpDir, "custom_config.yaml")
		if err := os.WriteFile(customPath, []byte("test: true"), 0644); err != nil {
			t.Fatalf("Failed to create custom config file: %v", err)
		}
		defer os.Remove(customPath)

		os.Setenv(ConfigPathEnvVar, customPath)
		defer os.Unsetenv(ConfigPathEnvVar)

		result := findConfigFile()
		if result != customPath {
			t.Errorf("findConfigFile() = %q, want %q", result, customPath)
		}
	})

	t.Run("CONFIG_PATH env var with non-existent file", func(t *testing.T) {
		os.Setenv(ConfigPathEnvVar, "/non/existent/config.yaml")
		defer os.Unsetenv(ConfigPathEnvVar)

		result := findConfigFile()
		// Should fall back to default paths (which don't exist in temp dir)
		if result != "" {
			t.Errorf("findConfigFile() = %q, want empty string", result)
		}
	})
}

// TestLoadWithKoanfEnvVars tests loading configuration from environment variables
func TestLoadWithKoanfEnvVars(t *testing.T) {
	os.Clearenv()

	os.Setenv("HTTP_PORT", "9000")
	os.Setenv("LOG_LEVEL", "debug")
	os.Setenv("CACHE_BACKEND", "memory")
	os.Setenv("SIMILAR_MAX_LIMIT", "500")
	os.Setenv("TMDB_ENABLED", "true")
	os.Setenv("TMDB_API_KEY", "abc123def456")
	os.Setenv("TMDB_RATE_LIMIT_RPS", "2.5")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	// Verify custom overrides
	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.Cache.Backend != "memory" {
		t.Errorf("Cache.Backend = %q, want memory", cfg.Cache.Backend)
	}
	if cfg.Similar.MaxLimit != 500 {
		t.Errorf("Similar.MaxLimit = %d, want 500", cfg.Similar.MaxLimit)
	}
	if !cfg.Providers.TMDB.Enabled {
		t.Errorf("Providers.TMDB.Enabled = false, want true")
	}
	if cfg.Providers.TMDB.APIKey != "abc123def456" {
		t.Errorf("Providers.TMDB.APIKey = %q, want abc123def456", cfg.Providers.TMDB.APIKey)
	}
	if cfg.Providers.TMDB.RateLimitRPS != 2.5 {
		t.Errorf("Providers.TMDB.RateLimitRPS = %v, want 2.5", cfg.Providers.TMDB.RateLimitRPS)
	}

	// Verify defaults are still applied for unset values
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want 0.0.0.0 (default)", cfg.Server.Host)
	}
	if cfg.Cache.FallbackTTL != 24*time.Hour {
		t.Errorf("Cache.FallbackTTL = %v, want 24h (default)", cfg.Cache.FallbackTTL)
	}
	if cfg.Similar.DefaultLimit != 50 {
		t.Errorf("Similar.DefaultLimit = %d, want 50 (default)", cfg.Similar.DefaultLimit)
	}
}

// TestLoadWithKoanfConfigFile tests loading configuration from a YAML file,
// including the nested per-library provider options that have no env form.
func TestLoadWithKoanfConfigFile(t *testing.T) {
	tmpDir := t.TempDir()

	configContent := `
server:
  port: 8888
  host: "127.0.0.1"

cache:
  backend: memory
  sweep_interval: 30m

library:
  snapshot_path: /tmp/library.json
  libraries:
    - id: movies-main
      name: Movies
      type_options:
        movie:
          providers: [genrematch, tmdb]
          provider_order: [tmdb, genrematch]
    - id: music-main
      name: Music
      type_options:
        artist:
          providers: [listenbrainz]

logging:
  level: "warn"
`
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to create config file: %v", err)
	}

	os.Clearenv()
	os.Setenv(ConfigPathEnvVar, configPath)

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Server.Port != 8888 {
		t.Errorf("Server.Port = %d, want 8888", cfg.Server.Port)
	}
	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Server.Host = %q, want 127.0.0.1", cfg.Server.Host)
	}
	if cfg.Cache.Backend != "memory" {
		t.Errorf("Cache.Backend = %q, want memory", cfg.Cache.Backend)
	}
	if cfg.Cache.SweepInterval != 30*time.Minute {
		t.Errorf("Cache.SweepInterval = %v, want 30m", cfg.Cache.SweepInterval)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q, want warn", cfg.Logging.Level)
	}

	// Per-library options
	if len(cfg.Library.Libraries) != 2 {
		t.Fatalf("len(Library.Libraries) = %d, want 2", len(cfg.Library.Libraries))
	}
	movies := cfg.Library.Libraries[0]
	if movies.ID != "movies-main" || movies.Name != "Movies" {
		t.Errorf("Libraries[0] = %+v, want id movies-main name Movies", movies)
	}
	movieOpts, ok := movies.TypeOptions["movie"]
	if !ok {
		t.Fatalf("Libraries[0].TypeOptions missing movie entry")
	}
	if len(movieOpts.Providers) != 2 || movieOpts.Providers[0] != "genrematch" {
		t.Errorf("movie providers = %v, want [genrematch tmdb]", movieOpts.Providers)
	}
	if len(movieOpts.ProviderOrder) != 2 || movieOpts.ProviderOrder[0] != "tmdb" {
		t.Errorf("movie provider_order = %v, want [tmdb genrematch]", movieOpts.ProviderOrder)
	}
	music := cfg.Library.Libraries[1]
	if got := music.TypeOptions["artist"].Providers; len(got) != 1 || got[0] != "listenbrainz" {
		t.Errorf("artist providers = %v, want [listenbrainz]", got)
	}

	// Verify defaults are still applied for unset values
	if cfg.Similar.MaxLimit != 200 {
		t.Errorf("Similar.MaxLimit = %d, want 200 (default)", cfg.Similar.MaxLimit)
	}
}

// TestLoadWithKoanfEnvOverridesFile tests that env vars override config file
func TestLoadWithKoanfEnvOverridesFile(t *testing.T) {
	tmpDir := t.TempDir()

	configContent := `
server:
  port: 8888

cache:
  backend: filesystem
  dir: /file/cache

logging:
  level: "warn"
`
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to create config file: %v", err)
	}

	os.Clearenv()
	os.Setenv(ConfigPathEnvVar, configPath)
	os.Setenv("HTTP_PORT", "9999")         // Override port from config file
	os.Setenv("LOG_LEVEL", "error")        // Override log level from config file
	os.Setenv("CACHE_DIR", "/env/cache")   // Override cache dir from config file
	os.Setenv("SIMILAR_MAX_LIMIT", "1000") // Override a default value

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	// Verify values from config file (not overridden by env)
	if cfg.Cache.Backend != "filesystem" {
		t.Errorf("Cache.Backend = %q, want filesystem (from file)", cfg.Cache.Backend)
	}

	// Verify env vars override config file
	if cfg.Server.Port != 9999 {
		t.Errorf("Server.Port = %d, want 9999 (env override)", cfg.Server.Port)
	}
	if cfg.Logging.Level != "error" {
		t.Errorf("Logging.Level = %q, want error (env override)", cfg.Logging.Level)
	}
	if cfg.Cache.Dir != "/env/cache" {
		t.Errorf("Cache.Dir = %q, want /env/cache (env override)", cfg.Cache.Dir)
	}

	// Verify env vars override defaults
	if cfg.Similar.MaxLimit != 1000 {
		t.Errorf("Similar.MaxLimit = %d, want 1000 (env override)", cfg.Similar.MaxLimit)
	}
}

// TestLoadWithKoanfCORSOrigins tests comma-separated slice parsing from env
func TestLoadWithKoanfCORSOrigins(t *testing.T) {
	os.Clearenv()
	os.Setenv("CORS_ORIGINS", "https://app.example.com, https://admin.example.com")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	want := []string{"https://app.example.com", "https://admin.example.com"}
	if len(cfg.API.CORSOrigins) != len(want) {
		t.Fatalf("API.CORSOrigins = %v, want %v", cfg.API.CORSOrigins, want)
	}
	for i, origin := range want {
		if cfg.API.CORSOrigins[i] != origin {
			t.Errorf("API.CORSOrigins[%d] = %q, want %q", i, cfg.API.CORSOrigins[i], origin)
		}
	}
}

// TestLoadWithKoanfValidation tests that validation still works
func TestLoadWithKoanfValidation(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		wantErr bool
	}{
		{
			name:    "defaults are valid",
			envVars: map[string]string{},
			wantErr: false,
		},
		{
			name: "missing TMDB_API_KEY when enabled",
			envVars: map[string]string{
				"TMDB_ENABLED": "true",
			},
			wantErr: true,
		},
		{
			name: "invalid cache backend",
			envVars: map[string]string{
				"CACHE_BACKEND": "redis",
			},
			wantErr: true,
		},
		{
			name: "invalid port",
			envVars: map[string]string{
				"HTTP_PORT": "99999",
			},
			wantErr: true,
		},
		{
			name: "invalid log level",
			envVars: map[string]string{
				"LOG_LEVEL": "verbose",
			},
			wantErr: true,
		},
		{
			name: "valid TMDB configuration",
			envVars: map[string]string{
				"TMDB_ENABLED": "true",
				"TMDB_API_KEY": "abc123def456",
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			for k, v := range tt.envVars {
				os.Setenv(k, v)
			}

			_, err := LoadWithKoanf()

			if tt.wantErr && err == nil {
				t.Errorf("LoadWithKoanf() expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("LoadWithKoanf() unexpected error = %v", err)
			}
		})
	}
}

// TestLoad verifies Load() delegates to the koanf loader
func TestLoad(t *testing.T) {
	os.Clearenv()
	os.Setenv("HTTP_PORT", "8080")
	os.Setenv("CACHE_BACKEND", "memory")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Cache.Backend != "memory" {
		t.Errorf("Cache.Backend = %q, want memory", cfg.Cache.Backend)
	}
}

// TestGetKoanfInstance verifies we can get a Koanf instance for custom use
func TestGetKoanfInstance(t *testing.T) {
	k := GetKoanfInstance()
	if k == nil {
		t.Error("GetKoanfInstance() returned nil")
	}
}
