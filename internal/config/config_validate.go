// Kindred - Similar Items Aggregation for Home Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kindred

package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}

	if err := c.validateCache(); err != nil {
		return err
	}

	if err := c.validateLibrary(); err != nil {
		return err
	}

	if err := c.validateSimilar(); err != nil {
		return err
	}

	if err := c.validateProviders(); err != nil {
		return err
	}

	if err := c.validateAPI(); err != nil {
		return err
	}

	return c.validateLogging()
}

// Server timeout bounds
const (
	minServerTimeout = time.Second
	maxServerTimeout = 10 * time.Minute
)

// validateServer validates server configuration
func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}

	if err := c.validateServerTimeouts(); err != nil {
		return err
	}
	return c.validateEnvironment()
}

// validateServerTimeouts validates the HTTP server timeout settings
func (c *Config) validateServerTimeouts() error {
	timeouts := []struct {
		name  string
		value time.Duration
	}{
		{"HTTP_READ_TIMEOUT", c.Server.ReadTimeout},
		{"HTTP_WRITE_TIMEOUT", c.Server.WriteTimeout},
		{"HTTP_SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout},
	}

	for _, t := range timeouts {
		if t.value < minServerTimeout || t.value > maxServerTimeout {
			return fmt.Errorf("%s must be between %v and %v", t.name, minServerTimeout, maxServerTimeout)
		}
	}
	return nil
}

// validEnvironments defines the allowed environment modes
var validEnvironments = map[string]bool{
	"":            true, // Treated as development
	"development": true,
	"dev":         true,
	"staging":     true,
	"production":  true,
	"prod":        true,
}

// validateEnvironment checks the environment mode setting
func (c *Config) validateEnvironment() error {
	if !validEnvironments[strings.ToLower(c.Server.Environment)] {
		return fmt.Errorf("ENVIRONMENT must be one of: development, staging, production")
	}
	return nil
}

// validCacheBackends defines the allowed cache backends
var validCacheBackends = map[string]bool{
	"filesystem": true,
	"badger":     true,
	"memory":     true,
}

// Cache tuning bounds
const (
	minSweepInterval = time.Minute
	maxSweepInterval = 24 * time.Hour
	minCacheTTL      = time.Minute
	maxCacheTTL      = 90 * 24 * time.Hour // 90 days
)

// validateCache validates the response cache configuration
func (c *Config) validateCache() error {
	if !validCacheBackends[c.Cache.Backend] {
		return fmt.Errorf("CACHE_BACKEND must be one of: filesystem, badger, memory")
	}

	if c.Cache.Backend == "filesystem" && c.Cache.Dir == "" {
		return fmt.Errorf("CACHE_DIR is required when CACHE_BACKEND=filesystem")
	}
	if c.Cache.Backend == "badger" && c.Cache.BadgerPath == "" {
		return fmt.Errorf("CACHE_BADGER_PATH is required when CACHE_BACKEND=badger")
	}

	if c.Cache.SweepInterval < minSweepInterval || c.Cache.SweepInterval > maxSweepInterval {
		return fmt.Errorf("CACHE_SWEEP_INTERVAL must be between %v and %v", minSweepInterval, maxSweepInterval)
	}
	if c.Cache.FallbackTTL < minCacheTTL || c.Cache.FallbackTTL > maxCacheTTL {
		return fmt.Errorf("CACHE_FALLBACK_TTL must be between %v and %v", minCacheTTL, maxCacheTTL)
	}
	return nil
}

// validItemTypes defines the item types accepted in library type_options
var validItemTypes = map[string]bool{
	"movie":  true,
	"series": true,
	"artist": true,
	"album":  true,
}

// validateLibrary validates the library snapshot configuration
func (c *Config) validateLibrary() error {
	if c.Library.SnapshotPath == "" {
		return fmt.Errorf("LIBRARY_SNAPSHOT_PATH is required")
	}
	return c.validateLibraryEntries()
}

// validateLibraryEntries validates per-library provider options
func (c *Config) validateLibraryEntries() error {
	seen := make(map[string]bool, len(c.Library.Libraries))
	for i, lib := range c.Library.Libraries {
		if lib.ID == "" {
			return fmt.Errorf("library.libraries[%d].id is required", i)
		}
		if seen[lib.ID] {
			return fmt.Errorf("library.libraries[%d].id %q is duplicated", i, lib.ID)
		}
		seen[lib.ID] = true

		for itemType := range lib.TypeOptions {
			if !validItemTypes[itemType] {
				return fmt.Errorf("library %q: item type %q must be one of: movie, series, artist, album", lib.ID, itemType)
			}
		}
	}
	return nil
}

// Similarity scoring bounds
const (
	maxSimilarLimit    = 1000
	maxPriorityCeiling = 100
)

// validateSimilar validates aggregation and scoring configuration.
// Scoring constants are bounded so a misconfiguration cannot invert the
// ranking (e.g. a decay above 1.0 would zero every result past the first).
func (c *Config) validateSimilar() error {
	if c.Similar.DefaultLimit < 1 || c.Similar.DefaultLimit > maxSimilarLimit {
		return fmt.Errorf("SIMILAR_DEFAULT_LIMIT must be between 1 and %d", maxSimilarLimit)
	}
	if c.Similar.MaxLimit < c.Similar.DefaultLimit || c.Similar.MaxLimit > maxSimilarLimit {
		return fmt.Errorf("SIMILAR_MAX_LIMIT must be between SIMILAR_DEFAULT_LIMIT and %d", maxSimilarLimit)
	}
	if c.Similar.PositionDecay < 0 || c.Similar.PositionDecay > 1 {
		return fmt.Errorf("SIMILAR_POSITION_DECAY must be between 0 and 1")
	}
	if c.Similar.PriorityBoost < 0 || c.Similar.PriorityBoost > 1 {
		return fmt.Errorf("SIMILAR_PRIORITY_BOOST must be between 0 and 1")
	}
	if c.Similar.PriorityCeiling < 0 || c.Similar.PriorityCeiling > maxPriorityCeiling {
		return fmt.Errorf("SIMILAR_PRIORITY_CEILING must be between 0 and %d", maxPriorityCeiling)
	}
	return nil
}

// validateProviders validates remote provider configuration
func (c *Config) validateProviders() error {
	if err := c.validateTMDB(); err != nil {
		return err
	}
	return c.validateListenBrainz()
}

// validateTMDB validates TMDB configuration (only if enabled)
func (c *Config) validateTMDB() error {
	if !c.Providers.TMDB.Enabled {
		return nil
	}

	if c.Providers.TMDB.APIKey == "" {
		return fmt.Errorf("TMDB_API_KEY is required when TMDB_ENABLED=true")
	}
	if containsPlaceholder(c.Providers.TMDB.APIKey) {
		return fmt.Errorf("TMDB_API_KEY contains a placeholder value - set a real API key from themoviedb.org")
	}
	if err := validateBaseURL(c.Providers.TMDB.BaseURL, "TMDB_BASE_URL"); err != nil {
		return err
	}
	return validateProviderTuning("TMDB", c.Providers.TMDB.CacheTTL, c.Providers.TMDB.RateLimitRPS)
}

// validateListenBrainz validates ListenBrainz configuration (only if enabled)
func (c *Config) validateListenBrainz() error {
	if !c.Providers.ListenBrainz.Enabled {
		return nil
	}

	if err := validateBaseURL(c.Providers.ListenBrainz.BaseURL, "LISTENBRAINZ_BASE_URL"); err != nil {
		return err
	}
	return validateProviderTuning("LISTENBRAINZ", c.Providers.ListenBrainz.CacheTTL, c.Providers.ListenBrainz.RateLimitRPS)
}

// Remote provider tuning bounds
const maxProviderRPS = 100

// validateProviderTuning validates the cache TTL and rate limit for one remote provider.
// envPrefix names the provider's environment variables in error messages.
// A zero cache TTL is accepted; the provider then inherits CACHE_FALLBACK_TTL.
func validateProviderTuning(envPrefix string, cacheTTL time.Duration, rps float64) error {
	if cacheTTL != 0 && (cacheTTL < minCacheTTL || cacheTTL > maxCacheTTL) {
		return fmt.Errorf("%s_CACHE_TTL must be 0 or between %v and %v", envPrefix, minCacheTTL, maxCacheTTL)
	}
	if rps <= 0 || rps > maxProviderRPS {
		return fmt.Errorf("%s_RATE_LIMIT_RPS must be greater than 0 and at most %d", envPrefix, maxProviderRPS)
	}
	return nil
}

// validateBaseURL validates that a provider base URL is properly formatted.
// Supports: HTTP/HTTPS with optional paths (e.g. https://api.themoviedb.org/3).
func validateBaseURL(rawURL, fieldName string) error {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%s failed to parse URL: %w", fieldName, err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("%s scheme must be http or https, got: %s", fieldName, parsedURL.Scheme)
	}

	if parsedURL.Host == "" {
		return fmt.Errorf("%s host is required", fieldName)
	}

	if parsedURL.RawQuery != "" {
		return fmt.Errorf("%s should not contain query parameters, remove: ?%s", fieldName, parsedURL.RawQuery)
	}

	return nil
}

// Rate limit constants
const (
	minRateLimitRPM = 1      // Minimum 1 request per minute
	maxRateLimitRPM = 100000 // Maximum 100K requests per minute
)

// validateAPI validates API rate limiting and CORS configuration
func (c *Config) validateAPI() error {
	if c.API.RateLimitRPM < minRateLimitRPM || c.API.RateLimitRPM > maxRateLimitRPM {
		return fmt.Errorf("API_RATE_LIMIT_RPM must be between %d and %d", minRateLimitRPM, maxRateLimitRPM)
	}
	if c.API.HealthRateLimitRPM < minRateLimitRPM || c.API.HealthRateLimitRPM > maxRateLimitRPM {
		return fmt.Errorf("API_HEALTH_RATE_LIMIT_RPM must be between %d and %d", minRateLimitRPM, maxRateLimitRPM)
	}

	if len(c.API.CORSOrigins) == 0 {
		return fmt.Errorf("CORS_ORIGINS must not be empty; use * to allow all origins")
	}
	return nil
}

// validLogLevels defines the allowed log levels
var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validLogFormats defines the allowed log formats
var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

// validateLogging validates logging configuration
func (c *Config) validateLogging() error {
	if err := c.validateLogLevel(); err != nil {
		return err
	}
	return c.validateLogFormat()
}

// validateLogLevel validates the log level configuration
func (c *Config) validateLogLevel() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	return nil
}

// validateLogFormat validates the log format configuration
func (c *Config) validateLogFormat() error {
	if c.Logging.Format == "" {
		return nil
	}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

// IsProduction returns true if the application is running in production mode.
// Production mode is determined by the ENVIRONMENT environment variable.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Server.Environment)
	return env == "production" || env == "prod"
}

// IsDevelopment returns true if the application is running in development mode.
func (c *Config) IsDevelopment() bool {
	env := strings.ToLower(c.Server.Environment)
	return env == "" || env == "development" || env == "dev"
}

// placeholderPatterns defines common placeholder patterns that indicate
// the user forgot to set a real value.
var placeholderPatterns = []string{
	"REPLACE",
	"CHANGEME",
	"CHANGE_ME",
	"YOUR_KEY",
	"YOUR_API_KEY",
	"PLACEHOLDER",
	"EXAMPLE",
}

// containsPlaceholder checks if a value contains common placeholder patterns
// that indicate the user forgot to set a real value.
func containsPlaceholder(value string) bool {
	upperValue := strings.ToUpper(value)
	for _, pattern := range placeholderPatterns {
		if strings.Contains(upperValue, pattern) {
			return true
		}
	}
	return false
}
