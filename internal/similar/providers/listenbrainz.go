// Kindred - Similar Items Aggregation for Home Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kindred

package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tomtom215/kindred/internal/config"
	"github.com/tomtom215/kindred/internal/similar"
)

// ListenBrainzName is the registered name of the ListenBrainz
// similar-artists provider.
const ListenBrainzName = "listenbrainz"

// MusicBrainzNamespace is the provider-ID namespace ListenBrainz matches
// resolve under. Artists are identified by MusicBrainz id, not by a
// ListenBrainz-specific id.
const MusicBrainzNamespace = "musicbrainz"

// listenBrainzAlgorithm selects the precomputed similarity dataset served
// by the Labs API.
const listenBrainzAlgorithm = "session_based_days_7500_session_300_contribution_5_threshold_10_limit_100_filter_True_skip_30"

// listenBrainzArtist is one similar-artist entry. Score is a raw
// co-listening count, unbounded and only comparable within one response.
type listenBrainzArtist struct {
	ArtistMBID string `json:"artist_mbid"`
	Name       string `json:"name"`
	Score      int64  `json:"score"`
}

// ListenBrainz fetches similar artists from the ListenBrainz Labs API.
// The endpoint is not paginated: every fetch returns the full similarity
// list and no next-page cursor, so the aggregator drains it in one call.
// Raw scores are normalized against the response's maximum so references
// carry comparable relevance in [0,1].
type ListenBrainz struct {
	baseURL    string
	cacheTTL   time.Duration
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *breaker
	logger     zerolog.Logger
}

var _ similar.RemoteProvider = (*ListenBrainz)(nil)

// ListenBrainzOption configures a ListenBrainz provider.
type ListenBrainzOption func(*ListenBrainz)

// WithListenBrainzHTTPClient overrides the default HTTP client.
func WithListenBrainzHTTPClient(client *http.Client) ListenBrainzOption {
	return func(l *ListenBrainz) {
		if client != nil {
			l.httpClient = client
		}
	}
}

// NewListenBrainz creates a similar-artists provider backed by the
// ListenBrainz Labs API. No API key is required.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewListenBrainz(cfg config.ListenBrainzConfig, logger zerolog.Logger, opts ...ListenBrainzOption) (*ListenBrainz, error) {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		return nil, errors.New("listenbrainz base url is required")
	}
	if cfg.RateLimitRPS <= 0 {
		return nil, errors.New("listenbrainz rate limit must be positive")
	}

	l := &ListenBrainz{
		baseURL:  strings.TrimRight(baseURL, "/"),
		cacheTTL: cfg.CacheTTL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), burstFor(cfg.RateLimitRPS)),
		breaker: newBreaker(ListenBrainzName, logger),
		logger:  logger.With().Str("provider", ListenBrainzName).Logger(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Name returns the provider's registered name.
func (l *ListenBrainz) Name() string {
	return ListenBrainzName
}

// Kind returns the item kind this provider serves.
func (l *ListenBrainz) Kind() similar.ItemKind {
	return similar.KindArtist
}

// FetchPage retrieves the full similar-artists list for the source artist.
// Artists without a MusicBrainz id yield a nil response. The page cursor is
// ignored; the response never advertises a next page.
func (l *ListenBrainz) FetchPage(ctx context.Context, item *similar.Item, _ similar.Query) (*similar.ProviderResponse, error) {
	if item == nil {
		return nil, similar.ErrNilItem
	}

	mbid, ok := item.ProviderID(MusicBrainzNamespace)
	if !ok || strings.TrimSpace(mbid) == "" {
		return nil, nil
	}

	if err := l.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	return l.breaker.execute(func() (*similar.ProviderResponse, error) {
		return l.fetchSimilar(ctx, mbid)
	})
}

func (l *ListenBrainz) fetchSimilar(ctx context.Context, mbid string) (*similar.ProviderResponse, error) {
	endpoint, err := url.Parse(l.baseURL + "/similar-artists/json")
	if err != nil {
		return nil, fmt.Errorf("parse listenbrainz url: %w", err)
	}
	params := url.Values{}
	params.Set("artist_mbids", mbid)
	params.Set("algorithm", listenBrainzAlgorithm)
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("listenbrainz similar artists returned status %d", resp.StatusCode)
	}

	var artists []listenBrainzArtist
	if err := json.NewDecoder(resp.Body).Decode(&artists); err != nil {
		return nil, fmt.Errorf("decode listenbrainz response: %w", err)
	}

	var maxScore int64
	for _, a := range artists {
		if a.Score > maxScore {
			maxScore = a.Score
		}
	}

	matches := make([]similar.Reference, 0, len(artists))
	for _, a := range artists {
		if strings.TrimSpace(a.ArtistMBID) == "" {
			continue
		}
		ref := similar.Reference{
			ProviderName: MusicBrainzNamespace,
			ProviderID:   a.ArtistMBID,
		}
		if maxScore > 0 && a.Score > 0 {
			score := float64(a.Score) / float64(maxScore)
			ref.Score = &score
		}
		matches = append(matches, ref)
	}

	return &similar.ProviderResponse{
		Matches:  matches,
		CacheTTL: l.cacheTTL,
	}, nil
}
