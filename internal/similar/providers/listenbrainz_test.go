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
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/kindred/internal/config"
	"github.com/tomtom215/kindred/internal/similar"
)

const radioheadMBID = "a74b1b7f-71a5-4011-9441-d0b5e4122711"

func listenBrainzConfig(baseURL string) config.ListenBrainzConfig {
	return config.ListenBrainzConfig{
		Enabled:      true,
		BaseURL:      baseURL,
		CacheTTL:     7 * 24 * time.Hour,
		RateLimitRPS: 100,
	}
}

func newListenBrainzForTest(t *testing.T, handler http.HandlerFunc) *ListenBrainz {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p, err := NewListenBrainz(listenBrainzConfig(srv.URL), testLogger(), WithListenBrainzHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("NewListenBrainz() error = %v", err)
	}
	return p
}

func artistWithMBID(mbid string) *similar.Item {
	return &similar.Item{
		ID:          uuid.New(),
		Kind:        similar.KindArtist,
		Name:        "Radiohead",
		ProviderIDs: map[string]string{"MusicBrainz": mbid},
	}
}

func TestNewListenBrainz(t *testing.T) {
	t.Parallel()

	t.Run("rejects missing base url", func(t *testing.T) {
		t.Parallel()
		cfg := listenBrainzConfig("")
		if _, err := NewListenBrainz(cfg, testLogger()); err == nil {
			t.Error("NewListenBrainz() = nil error, want base url error")
		}
	})

	t.Run("rejects zero rate limit", func(t *testing.T) {
		t.Parallel()
		cfg := listenBrainzConfig("https://labs.api.listenbrainz.org")
		cfg.RateLimitRPS = 0
		if _, err := NewListenBrainz(cfg, testLogger()); err == nil {
			t.Error("NewListenBrainz() = nil error, want rate limit error")
		}
	})

	t.Run("reports name and kind", func(t *testing.T) {
		t.Parallel()
		p, err := NewListenBrainz(listenBrainzConfig("https://labs.api.listenbrainz.org"), testLogger())
		if err != nil {
			t.Fatalf("NewListenBrainz() error = %v", err)
		}
		if p.Name() != ListenBrainzName {
			t.Errorf("Name() = %s, want %s", p.Name(), ListenBrainzName)
		}
		if p.Kind() != similar.KindArtist {
			t.Errorf("Kind() = %s, want artist", p.Kind())
		}
	})
}

func TestListenBrainzFetchPage(t *testing.T) {
	t.Parallel()

	p := newListenBrainzForTest(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/similar-artists/json" {
			t.Errorf("request path = %s, want /similar-artists/json", r.URL.Path)
		}
		if got := r.URL.Query().Get("artist_mbids"); got != radioheadMBID {
			t.Errorf("artist_mbids = %s, want %s", got, radioheadMBID)
		}
		if got := r.URL.Query().Get("algorithm"); got == "" {
			t.Error("algorithm parameter missing")
		}
		fmt.Fprint(w, `[
			{"artist_mbid": "aaaa1111-0000-0000-0000-000000000001", "name": "Portishead", "score": 400},
			{"artist_mbid": "aaaa1111-0000-0000-0000-000000000002", "name": "Massive Attack", "score": 200},
			{"artist_mbid": "aaaa1111-0000-0000-0000-000000000003", "name": "Björk", "score": 100},
			{"artist_mbid": "", "name": "Phantom", "score": 50}
		]`)
	})

	resp, err := p.FetchPage(context.Background(), artistWithMBID(radioheadMBID), similar.Query{})
	if err != nil {
		t.Fatalf("FetchPage() error = %v", err)
	}
	if resp == nil {
		t.Fatal("FetchPage() = nil response, want matches")
	}

	if resp.NextPage != nil {
		t.Errorf("NextPage = %d, want nil (single-page endpoint)", *resp.NextPage)
	}
	if resp.CacheTTL != 7*24*time.Hour {
		t.Errorf("CacheTTL = %v, want 168h", resp.CacheTTL)
	}

	wantScores := []float64{1.0, 0.5, 0.25}
	if len(resp.Matches) != len(wantScores) {
		t.Fatalf("FetchPage() returned %d matches, want %d", len(resp.Matches), len(wantScores))
	}
	for i, want := range wantScores {
		m := resp.Matches[i]
		if m.ProviderName != MusicBrainzNamespace {
			t.Errorf("match[%d].ProviderName = %s, want %s", i, m.ProviderName, MusicBrainzNamespace)
		}
		if m.Score == nil {
			t.Errorf("match[%d].Score = nil, want %f", i, want)
			continue
		}
		if *m.Score != want {
			t.Errorf("match[%d].Score = %f, want %f", i, *m.Score, want)
		}
	}
}

func TestListenBrainzFetchPageZeroScores(t *testing.T) {
	t.Parallel()

	p := newListenBrainzForTest(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[
			{"artist_mbid": "aaaa1111-0000-0000-0000-000000000001", "name": "Portishead", "score": 0},
			{"artist_mbid": "aaaa1111-0000-0000-0000-000000000002", "name": "Massive Attack", "score": 0}
		]`)
	})

	resp, err := p.FetchPage(context.Background(), artistWithMBID(radioheadMBID), similar.Query{})
	if err != nil {
		t.Fatalf("FetchPage() error = %v", err)
	}
	if len(resp.Matches) != 2 {
		t.Fatalf("FetchPage() returned %d matches, want 2", len(resp.Matches))
	}
	for i, m := range resp.Matches {
		if m.Score != nil {
			t.Errorf("match[%d].Score = %f, want nil when the page has no usable scores", i, *m.Score)
		}
	}
}

func TestListenBrainzFetchPageMissingMBID(t *testing.T) {
	t.Parallel()

	requests := 0
	p := newListenBrainzForTest(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
	})

	item := &similar.Item{ID: uuid.New(), Kind: similar.KindArtist, Name: "Unknown"}

	resp, err := p.FetchPage(context.Background(), item, similar.Query{})
	if err != nil {
		t.Fatalf("FetchPage() error = %v", err)
	}
	if resp != nil {
		t.Errorf("FetchPage() = %+v, want nil for an artist without an mbid", resp)
	}
	if requests != 0 {
		t.Errorf("remote was contacted %d times, want 0", requests)
	}
}

func TestListenBrainzFetchPageServerError(t *testing.T) {
	t.Parallel()

	p := newListenBrainzForTest(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	})

	if _, err := p.FetchPage(context.Background(), artistWithMBID(radioheadMBID), similar.Query{}); err == nil {
		t.Fatal("FetchPage() = nil error, want status error")
	}
}

func TestListenBrainzFetchPageCorruptPayload(t *testing.T) {
	t.Parallel()

	p := newListenBrainzForTest(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"artist_mbid":`)
	})

	if _, err := p.FetchPage(context.Background(), artistWithMBID(radioheadMBID), similar.Query{}); err == nil {
		t.Fatal("FetchPage() = nil error, want decode error")
	}
}

func TestListenBrainzFetchPageNilItem(t *testing.T) {
	t.Parallel()

	p := newListenBrainzForTest(t, func(w http.ResponseWriter, r *http.Request) {})

	if _, err := p.FetchPage(context.Background(), nil, similar.Query{}); !errors.Is(err, similar.ErrNilItem) {
		t.Errorf("FetchPage(nil) error = %v, want ErrNilItem", err)
	}
}
