// Kindred - Similar Items Aggregation for Home Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kindred

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tomtom215/kindred/internal/logging"
	"github.com/tomtom215/kindred/internal/metrics"
	"github.com/tomtom215/kindred/internal/respcache"
	"github.com/tomtom215/kindred/internal/similar"
)

// similarItemsTimeout bounds one aggregation including remote fan-out.
const similarItemsTimeout = 30 * time.Second

// SimilarEngine aggregates similar items; satisfied by *similar.Aggregator.
type SimilarEngine interface {
	SimilarItems(ctx context.Context, item *similar.Item, query similar.Query, opts similar.TypeOptions) ([]*similar.Item, error)
}

// ItemSource resolves library items and their per-library provider
// options; satisfied by *library.Library.
type ItemSource interface {
	Get(ctx context.Context, id uuid.UUID) (*similar.Item, error)
	OptionsFor(libraryID string, kind similar.ItemKind) similar.TypeOptions
	Counts() map[similar.ItemKind]int
	Size() int
}

// ProviderLister lists registered providers; satisfied by *similar.Registry.
type ProviderLister interface {
	Providers() []similar.ProviderInfo
}

// CacheAdmin exposes the response cache's admin operations; satisfied by
// any respcache.Store.
type CacheAdmin interface {
	Backend() string
	Stats(ctx context.Context) (respcache.Stats, error)
	SweepExpired(ctx context.Context) (int, error)
}

// Handler implements the HTTP endpoints.
type Handler struct {
	engine    SimilarEngine
	items     ItemSource
	providers ProviderLister
	cache     CacheAdmin
	version   string
	startTime time.Time
}

// NewHandler creates the endpoint handler. All collaborators are required.
func NewHandler(engine SimilarEngine, items ItemSource, providers ProviderLister, cache CacheAdmin, version string) (*Handler, error) {
	if engine == nil {
		return nil, errors.New("similar engine is required")
	}
	if items == nil {
		return nil, errors.New("item source is required")
	}
	if providers == nil {
		return nil, errors.New("provider lister is required")
	}
	if cache == nil {
		return nil, errors.New("cache admin is required")
	}

	return &Handler{
		engine:    engine,
		items:     items,
		providers: providers,
		cache:     cache,
		version:   version,
		startTime: time.Now(),
	}, nil
}

// SimilarItems handles GET /api/v1/items/{id}/similar.
//
// Query parameters:
//   - limit: maximum results, 1..1000; omitted means the engine default.
//   - fields: comma-separated optional item fields to include beyond
//     id, kind, and name (library_id, year, genres, tags, provider_ids,
//     artist_ids); omitted means full items.
func (h *Handler) SimilarItems(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		rw.BadRequest("item id must be a valid UUID")
		return
	}

	req := similarItemsRequest{
		Limit:  getIntParam(r, "limit", 0),
		Fields: parseCommaSeparated(r.URL.Query().Get("fields")),
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), similarItemsTimeout)
	defer cancel()

	item, err := h.items.Get(ctx, id)
	if err != nil {
		if errors.Is(err, similar.ErrItemNotFound) {
			rw.NotFound("item not found")
			return
		}
		logging.CtxErr(ctx, err).Str("item_id", id.String()).Msg("item lookup failed")
		rw.InternalError("item lookup failed")
		return
	}

	query := similar.Query{
		Limit:  req.Limit,
		Fields: req.Fields,
	}
	opts := h.items.OptionsFor(item.LibraryID, item.Kind)

	results, err := h.engine.SimilarItems(ctx, item, query, opts)
	if err != nil {
		logging.CtxErr(ctx, err).
			Str("item_id", id.String()).
			Str("kind", string(item.Kind)).
			Msg("similar items aggregation failed")
		rw.Error(http.StatusInternalServerError, ErrCodeAggregationFailed, "failed to aggregate similar items")
		return
	}

	rw.Success(map[string]interface{}{
		"item_id": item.ID,
		"kind":    item.Kind,
		"items":   shapeItems(results, req.Fields),
		"count":   len(results),
	})
}

// Providers handles GET /api/v1/providers.
func (h *Handler) Providers(w http.ResponseWriter, r *http.Request) {
	infos := h.providers.Providers()
	if infos == nil {
		infos = []similar.ProviderInfo{}
	}

	NewResponseWriter(w, r).Success(map[string]interface{}{
		"providers": infos,
		"count":     len(infos),
	})
}

// CacheStats handles GET /api/v1/cache/stats.
func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	stats, err := h.cache.Stats(r.Context())
	if err != nil {
		logging.CtxErr(r.Context(), err).Str("backend", h.cache.Backend()).Msg("cache stats failed")
		rw.Error(http.StatusInternalServerError, ErrCodeCacheError, "failed to read cache stats")
		return
	}

	rw.Success(stats)
}

// CacheSweep handles DELETE /api/v1/cache/expired, purging every expired
// record on demand. The periodic sweeper covers the steady state; this
// endpoint exists for operators who want the space back now.
func (h *Handler) CacheSweep(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	backend := h.cache.Backend()

	start := time.Now()
	purged, err := h.cache.SweepExpired(r.Context())
	if err != nil {
		metrics.RecordCacheError(backend, "purge")
		logging.CtxErr(r.Context(), err).Str("backend", backend).Msg("cache sweep failed")
		rw.Error(http.StatusInternalServerError, ErrCodeCacheError, "failed to purge expired cache records")
		return
	}
	metrics.RecordCacheSweep(backend, purged, time.Since(start))

	logging.Ctx(r.Context()).Info().
		Str("backend", backend).
		Int("purged", purged).
		Msg("expired cache records purged on request")

	rw.Success(map[string]interface{}{
		"backend": backend,
		"purged":  purged,
	})
}

// Health handles GET /api/v1/health with a combined summary.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	_, cacheErr := h.cache.Stats(r.Context())
	cacheConnected := cacheErr == nil

	status := "healthy"
	if !cacheConnected {
		status = "degraded"
	}

	NewResponseWriter(w, r).Success(map[string]interface{}{
		"status":          status,
		"version":         h.version,
		"cache_backend":   h.cache.Backend(),
		"cache_connected": cacheConnected,
		"library_items":   h.items.Size(),
		"library_counts":  h.items.Counts(),
		"uptime_seconds":  time.Since(h.startTime).Seconds(),
	})
}

// HealthLive handles GET /api/v1/health/live. It reports only that the
// process is serving, regardless of dependencies.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]interface{}{
		"alive":          true,
		"uptime_seconds": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady handles GET /api/v1/health/ready. Readiness requires the
// cache backend to answer; the library index is loaded before the server
// starts, so it is always present here.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	_, cacheErr := h.cache.Stats(r.Context())
	ready := cacheErr == nil

	data := map[string]interface{}{
		"ready":           ready,
		"cache_connected": cacheErr == nil,
		"library_items":   h.items.Size(),
		"uptime_seconds":  time.Since(h.startTime).Seconds(),
	}

	if !ready {
		rw.ErrorWithDetails(http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "service not ready", data)
		return
	}
	rw.Success(data)
}

// shapeItems applies the requested field selection. Without a selection
// the items pass through whole; with one, each item is reduced to id,
// kind, name, and the named optional fields.
func shapeItems(items []*similar.Item, fields []string) interface{} {
	if len(fields) == 0 {
		if items == nil {
			return []*similar.Item{}
		}
		return items
	}

	selected := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		selected[f] = struct{}{}
	}

	shaped := make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		m := map[string]interface{}{
			"id":   item.ID,
			"kind": item.Kind,
			"name": item.Name,
		}
		if _, ok := selected["library_id"]; ok {
			m["library_id"] = item.LibraryID
		}
		if _, ok := selected["year"]; ok {
			m["year"] = item.Year
		}
		if _, ok := selected["genres"]; ok {
			m["genres"] = item.Genres
		}
		if _, ok := selected["tags"]; ok {
			m["tags"] = item.Tags
		}
		if _, ok := selected["provider_ids"]; ok {
			m["provider_ids"] = item.ProviderIDs
		}
		if _, ok := selected["artist_ids"]; ok {
			m["artist_ids"] = item.ArtistIDs
		}
		shaped = append(shaped, m)
	}
	return shaped
}
