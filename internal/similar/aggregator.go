// Kindred - Similar Items Aggregation for Home Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kindred

package similar

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/kindred/internal/metrics"
)

// Aggregator fans a similar-items request out to the providers registered
// for the item's kind, resolves provider references against the library,
// dedupes, scores and ranks the results. It is safe for concurrent use:
// one aggregation call shares no mutable state with another beyond the
// response cache, which is keyed per (provider, kind, item).
type Aggregator struct {
	config   Config
	registry *Registry
	store    LibraryStore
	cache    ResponseCache
	logger   zerolog.Logger
}

// NewAggregator creates an aggregator. The cache may be nil, which
// disables response caching and makes every remote visit a live fetch.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewAggregator(cfg Config, registry *Registry, store LibraryStore, cache ResponseCache, logger zerolog.Logger) (*Aggregator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if registry == nil {
		return nil, errors.New("registry is required")
	}
	if store == nil {
		return nil, errors.New("library store is required")
	}

	return &Aggregator{
		config:   cfg,
		registry: registry,
		store:    store,
		cache:    cache,
		logger:   logger.With().Str("component", "similar").Logger(),
	}, nil
}

// SimilarItems returns up to the query's limit of items similar to the
// source item, ranked by score descending. The source item never appears
// in its own results and no item appears twice.
//
// Provider failures are logged and skipped; the call only errors when the
// context is cancelled or the source item is nil. An item kind with no
// usable providers yields an empty result, not an error.
func (a *Aggregator) SimilarItems(ctx context.Context, item *Item, query Query, opts TypeOptions) ([]*Item, error) {
	if item == nil {
		return nil, ErrNilItem
	}

	start := time.Now()
	logger := a.logger.With().
		Str("item_id", item.ID.String()).
		Str("kind", string(item.Kind)).
		Logger()

	if !item.Kind.Valid() {
		logger.Warn().Msg("unknown item kind, returning no similar items")
		return []*Item{}, nil
	}

	limit := a.config.normalizeLimit(query.Limit)
	st := newAggState(limit)
	st.excludeID(item.ID)
	for _, id := range query.ExcludeItemIDs {
		st.excludeID(id)
	}
	for _, id := range query.ExcludeArtistIDs {
		st.excludeID(id)
	}

	providers := a.registry.selectProviders(item.Kind, opts)
	if len(providers) == 0 {
		logger.Debug().Msg("no providers registered for kind")
		return []*Item{}, nil
	}

	logger.Debug().
		Int("providers", len(providers)).
		Int("limit", limit).
		Msg("aggregating similar items")

	for order, ref := range providers {
		if err := ctx.Err(); err != nil {
			metrics.RecordAggregation(string(item.Kind), time.Since(start), st.count(), err)
			return nil, err
		}
		if st.full() {
			break
		}

		var err error
		if ref.local != nil {
			err = a.collectLocal(st, ref.local, order, item, query)
		} else {
			err = a.collectRemote(ctx, st, ref.remote, order, item, query)
		}
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				metrics.RecordAggregation(string(item.Kind), time.Since(start), st.count(), err)
				return nil, err
			}
			logger.Warn().
				Err(err).
				Str("provider", ref.name).
				Msg("similar items provider failed, continuing with remaining providers")
			continue
		}
	}

	items := st.finalize()
	metrics.RecordAggregation(string(item.Kind), time.Since(start), len(items), nil)

	logger.Debug().
		Int("returned", len(items)).
		Int64("latency_ms", time.Since(start).Milliseconds()).
		Msg("similar items aggregation complete")

	return items, nil
}

// collectLocal invokes a local provider with the remaining needed count and
// the current exclusion set, then scores and accepts its results in order.
func (a *Aggregator) collectLocal(st *aggState, p LocalProvider, order int, item *Item, query Query) error {
	q := query
	q.Limit = st.remaining()
	q.ExcludeItemIDs = st.excludedIDs()

	start := time.Now()
	results, err := p.SimilarItems(item, q)
	metrics.RecordProviderFetch(p.Name(), string(item.Kind), time.Since(start), err)
	if err != nil {
		return fmt.Errorf("local provider %s: %w", p.Name(), err)
	}

	for pos, res := range results {
		if res == nil || st.isExcluded(res.ID) {
			continue
		}
		st.accept(res, a.config.Score.Score(nil, order, pos))
	}
	return nil
}

// collectRemote serves a remote provider from the response cache when a
// live record exists, otherwise drains pages from the provider.
func (a *Aggregator) collectRemote(ctx context.Context, st *aggState, p RemoteProvider, order int, item *Item, query Query) error {
	key := CacheKey{Provider: p.Name(), Kind: item.Kind, ItemID: item.ID}

	if a.cache != nil {
		if pages, ok := a.cache.Read(ctx, key); ok {
			return a.replayCached(ctx, st, p.Name(), order, item, pages)
		}
	}
	return a.drainRemote(ctx, st, p, order, item, query, key)
}

// replayCached resolves previously cached pages as if they had just been
// fetched. The remote service is not contacted.
func (a *Aggregator) replayCached(ctx context.Context, st *aggState, providerName string, order int, item *Item, pages []ProviderResponse) error {
	for _, page := range pages {
		if st.full() {
			break
		}
		if err := a.resolveAndMerge(ctx, st, providerName, order, item, page.Matches); err != nil {
			return err
		}
	}
	return nil
}

// drainRemote fetches pages from a remote provider until the limit is
// reached, the provider signals exhaustion, or the context is cancelled.
// Each page is resolved and merged as it arrives. After a complete drain
// the collected pages are written to the cache under the first response's
// declared duration; an interrupted drain is never cached.
func (a *Aggregator) drainRemote(ctx context.Context, st *aggState, p RemoteProvider, order int, item *Item, query Query, key CacheKey) error {
	var (
		pages []ProviderResponse
		ttl   time.Duration
	)
	page := query.Page

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if st.full() {
			break
		}

		q := query
		q.Page = page

		start := time.Now()
		resp, err := p.FetchPage(ctx, item, q)
		metrics.RecordProviderFetch(p.Name(), string(item.Kind), time.Since(start), err)
		if err != nil {
			return fmt.Errorf("remote provider %s page %d: %w", p.Name(), page, err)
		}
		if resp == nil || len(resp.Matches) == 0 {
			break
		}

		if len(pages) == 0 {
			ttl = resp.CacheTTL
		}
		pages = append(pages, *resp)

		if err := a.resolveAndMerge(ctx, st, p.Name(), order, item, resp.Matches); err != nil {
			return err
		}

		if resp.NextPage == nil {
			break
		}
		page = *resp.NextPage
	}

	if a.cache != nil && len(pages) > 0 && ttl > 0 {
		a.cache.Write(ctx, key, pages, ttl)
	}
	return nil
}

// refCandidate is one surviving match with its original page position.
type refCandidate struct {
	ref      Reference
	position int
}

// resolveAndMerge turns one page of provider references into accepted
// library items.
//
// Matches are first reduced to the single best entry per distinct
// (providerName, providerId) pair: highest declared score wins, absent
// scores rank lowest, ties keep the earliest position. Survivors are
// grouped by provider name and resolved against the library scoped to the
// source item's kind. A resolved item already excluded before this page is
// discarded; one accepted earlier within this same page keeps whichever
// score is strictly higher. Accepted items join the exclusion set
// immediately so later pages and providers cannot reintroduce them.
func (a *Aggregator) resolveAndMerge(ctx context.Context, st *aggState, providerName string, order int, item *Item, matches []Reference) error {
	if len(matches) == 0 {
		return nil
	}

	best := make(map[string]refCandidate, len(matches))
	keys := make([]string, 0, len(matches))
	for pos, m := range matches {
		if m.ProviderName == "" || m.ProviderID == "" {
			continue
		}
		k := strings.ToLower(m.ProviderName) + "\x00" + strings.ToLower(m.ProviderID)
		cur, ok := best[k]
		if !ok {
			best[k] = refCandidate{ref: m, position: pos}
			keys = append(keys, k)
			continue
		}
		if higherScore(m.Score, cur.ref.Score) {
			best[k] = refCandidate{ref: m, position: pos}
		}
	}

	groups := make(map[string][]refCandidate)
	groupOrder := make([]string, 0, len(keys))
	for _, k := range keys {
		c := best[k]
		name := strings.ToLower(c.ref.ProviderName)
		if _, ok := groups[name]; !ok {
			groupOrder = append(groupOrder, name)
		}
		groups[name] = append(groups[name], c)
	}

	stepSeen := make(map[uuid.UUID]struct{})
	for _, name := range groupOrder {
		candidates := groups[name]
		values := make([]string, 0, len(candidates))
		for _, c := range candidates {
			values = append(values, c.ref.ProviderID)
		}

		found, err := a.store.FindByProviderIDs(ctx, item.Kind, name, values)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			a.logger.Warn().
				Err(err).
				Str("provider", providerName).
				Str("reference_provider", name).
				Msg("library lookup failed, skipping references")
			continue
		}

		byValue := make(map[string]*Item, len(found))
		for _, f := range found {
			if f == nil {
				continue
			}
			if v, ok := f.ProviderID(name); ok {
				byValue[strings.ToLower(v)] = f
			}
		}

		for _, c := range candidates {
			resolved, ok := byValue[strings.ToLower(c.ref.ProviderID)]
			if !ok {
				continue
			}
			score := a.config.Score.Score(c.ref.Score, order, c.position)
			if _, seen := stepSeen[resolved.ID]; seen {
				st.upgrade(resolved.ID, score)
				continue
			}
			if st.isExcluded(resolved.ID) {
				continue
			}
			stepSeen[resolved.ID] = struct{}{}
			st.accept(resolved, score)
		}
	}
	return nil
}

// higherScore reports whether a beats b, treating nil as lowest.
func higherScore(a, b *float64) bool {
	if a == nil {
		return false
	}
	if b == nil {
		return true
	}
	return *a > *b
}

// entry is one accepted item with its current score.
type entry struct {
	item  *Item
	score float64
}

// aggState carries the accumulated results and exclusion set of a single
// aggregation call. It is not safe for concurrent use; each call owns one.
type aggState struct {
	limit   int
	exclude map[uuid.UUID]struct{}
	entries map[uuid.UUID]*entry
	order   []*entry
}

func newAggState(limit int) *aggState {
	return &aggState{
		limit:   limit,
		exclude: make(map[uuid.UUID]struct{}),
		entries: make(map[uuid.UUID]*entry),
	}
}

func (st *aggState) excludeID(id uuid.UUID) {
	st.exclude[id] = struct{}{}
}

func (st *aggState) isExcluded(id uuid.UUID) bool {
	_, ok := st.exclude[id]
	return ok
}

// accept appends an item with its score and excludes it from later steps.
func (st *aggState) accept(item *Item, score float64) {
	e := &entry{item: item, score: score}
	st.entries[item.ID] = e
	st.order = append(st.order, e)
	st.exclude[item.ID] = struct{}{}
}

// upgrade raises an accepted item's score when the new one is strictly higher.
func (st *aggState) upgrade(id uuid.UUID, score float64) {
	if e, ok := st.entries[id]; ok && score > e.score {
		e.score = score
	}
}

func (st *aggState) count() int {
	return len(st.order)
}

func (st *aggState) full() bool {
	return len(st.order) >= st.limit
}

func (st *aggState) remaining() int {
	if r := st.limit - len(st.order); r > 0 {
		return r
	}
	return 0
}

// excludedIDs snapshots the exclusion set for handing to a local provider.
func (st *aggState) excludedIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(st.exclude))
	for id := range st.exclude {
		ids = append(ids, id)
	}
	return ids
}

// finalize sorts accepted entries by score descending and returns at most
// limit items. The sort is stable so equal scores keep acceptance order.
func (st *aggState) finalize() []*Item {
	sort.SliceStable(st.order, func(i, j int) bool {
		return st.order[i].score > st.order[j].score
	})

	n := len(st.order)
	if n > st.limit {
		n = st.limit
	}
	items := make([]*Item, 0, n)
	for _, e := range st.order[:n] {
		items = append(items, e.item)
	}
	return items
}
