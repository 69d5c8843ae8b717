// Kindred - Similar Items Aggregation for Home Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kindred

package providers

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tomtom215/kindred/internal/config"
	"github.com/tomtom215/kindred/internal/similar"
)

// TMDBName is the registered name of the TMDb recommendations provider.
// It is also the provider-ID namespace references resolve under, matching
// the "Tmdb" external ids media servers store on movies and series.
const TMDBName = "tmdb"

// tmdbResult is a single recommendation entry. Movies carry Title, series
// carry Name; only the id participates in resolution.
type tmdbResult struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Name  string `json:"name"`
}

// tmdbPage models the paginated recommendations payload.
type tmdbPage struct {
	Page         int          `json:"page"`
	Results      []tmdbResult `json:"results"`
	TotalPages   int          `json:"total_pages"`
	TotalResults int          `json:"total_results"`
}

// TMDB fetches similar-item recommendations from The Movie Database, one
// page per call via /{movie|tv}/{id}/recommendations. Requests are paced by
// a client-side rate limiter and guarded by a circuit breaker; matches
// reference the "tmdb" id namespace and are resolved against the library by
// the aggregator.
type TMDB struct {
	kind       similar.ItemKind
	path       string
	baseURL    string
	apiKey     string
	cacheTTL   time.Duration
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *breaker
	logger     zerolog.Logger
}

var _ similar.RemoteProvider = (*TMDB)(nil)

// TMDBOption configures a TMDB provider.
type TMDBOption func(*TMDB)

// WithTMDBHTTPClient overrides the default HTTP client.
func WithTMDBHTTPClient(client *http.Client) TMDBOption {
	return func(t *TMDB) {
		if client != nil {
			t.httpClient = client
		}
	}
}

// NewTMDB creates a TMDb provider for the given kind. TMDb serves movies
// and series; other kinds are rejected.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewTMDB(kind similar.ItemKind, cfg config.TMDBConfig, logger zerolog.Logger, opts ...TMDBOption) (*TMDB, error) {
	var path string
	switch kind {
	case similar.KindMovie:
		path = "movie"
	case similar.KindSeries:
		path = "tv"
	default:
		return nil, fmt.Errorf("tmdb does not serve kind %q", kind)
	}

	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("tmdb api key is required")
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		return nil, errors.New("tmdb base url is required")
	}
	if cfg.RateLimitRPS <= 0 {
		return nil, errors.New("tmdb rate limit must be positive")
	}

	name := TMDBName + "-" + string(kind)
	t := &TMDB{
		kind:     kind,
		path:     path,
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiKey:   apiKey,
		cacheTTL: cfg.CacheTTL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), burstFor(cfg.RateLimitRPS)),
		breaker: newBreaker(name, logger),
		logger:  logger.With().Str("provider", name).Logger(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Name returns the provider's registered name.
func (t *TMDB) Name() string {
	return TMDBName
}

// Kind returns the item kind this provider serves.
func (t *TMDB) Kind() similar.ItemKind {
	return t.kind
}

// FetchPage retrieves one page of recommendations for the source item.
// Items without a TMDb id yield a nil response, which the aggregator treats
// as this provider having nothing for the item. TMDb pages are 1-based;
// page cursors below 1 fetch the first page.
func (t *TMDB) FetchPage(ctx context.Context, item *similar.Item, query similar.Query) (*similar.ProviderResponse, error) {
	if item == nil {
		return nil, similar.ErrNilItem
	}

	tmdbID, ok := item.ProviderID(TMDBName)
	if !ok || strings.TrimSpace(tmdbID) == "" {
		return nil, nil
	}

	page := query.Page
	if page < 1 {
		page = 1
	}

	if err := t.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	return t.breaker.execute(func() (*similar.ProviderResponse, error) {
		return t.fetchPage(ctx, tmdbID, page)
	})
}

func (t *TMDB) fetchPage(ctx context.Context, tmdbID string, page int) (*similar.ProviderResponse, error) {
	endpoint, err := url.Parse(fmt.Sprintf("%s/%s/%s/recommendations", t.baseURL, t.path, url.PathEscape(tmdbID)))
	if err != nil {
		return nil, fmt.Errorf("parse tmdb url: %w", err)
	}
	params := url.Values{}
	params.Set("api_key", t.apiKey)
	params.Set("page", strconv.Itoa(page))
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tmdb recommendations returned status %d", resp.StatusCode)
	}

	var payload tmdbPage
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode tmdb response: %w", err)
	}

	matches := make([]similar.Reference, 0, len(payload.Results))
	for _, r := range payload.Results {
		if r.ID <= 0 {
			continue
		}
		matches = append(matches, similar.Reference{
			ProviderName: TMDBName,
			ProviderID:   strconv.FormatInt(r.ID, 10),
		})
	}

	out := &similar.ProviderResponse{
		Matches:  matches,
		CacheTTL: t.cacheTTL,
	}
	if payload.Page >= 1 && payload.Page < payload.TotalPages {
		next := payload.Page + 1
		out.NextPage = &next
	}
	return out, nil
}

// burstFor sizes the limiter burst to roughly one second of requests, never
// below one.
func burstFor(rps float64) int {
	burst := int(math.Ceil(rps))
	if burst < 1 {
		return 1
	}
	return burst
}
