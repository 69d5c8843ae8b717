// Kindred - Similar Items Aggregation for Home Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kindred

package providers

import (
	"errors"
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/tomtom215/kindred/internal/similar"
)

// GenreMatcherName is the registered name of the local genre/tag matcher.
const GenreMatcherName = "genrematch"

// ItemSource yields the library items the matcher scans. The library index
// satisfies this; tests substitute a fixture.
type ItemSource interface {
	ItemsByKind(kind similar.ItemKind) []*similar.Item
}

// GenreMatcherConfig tunes how candidate items are scored against the
// source item. Zero weights fall back to defaults; weights are normalized
// to sum to 1 so scores stay in [0,1].
type GenreMatcherConfig struct {
	GenreWeight       float64
	TagWeight         float64
	YearWeight        float64
	MaxYearDifference int
}

// GenreMatcher is a local provider that scores items of one kind by their
// genre and tag overlap with the source item, with a small year-proximity
// component. It scans the in-process library index and performs no I/O.
//
// The similarity between the source s and a candidate c is
//
//	sim(s, c) = w_genre * jaccard(genres_s, genres_c) +
//	            w_tag   * jaccard(tags_s, tags_c) +
//	            w_year  * year_similarity(year_s, year_c)
//
// Candidates with zero similarity are dropped rather than ranked last, so
// an item sharing nothing with the source never pads the results.
type GenreMatcher struct {
	kind   similar.ItemKind
	source ItemSource

	genreWeight       float64
	tagWeight         float64
	yearWeight        float64
	maxYearDifference int
}

var _ similar.LocalProvider = (*GenreMatcher)(nil)

// NewGenreMatcher creates a genre/tag matcher for one item kind.
func NewGenreMatcher(kind similar.ItemKind, source ItemSource, cfg GenreMatcherConfig) (*GenreMatcher, error) {
	if !kind.Valid() {
		return nil, errors.New("genre matcher: item kind is required")
	}
	if source == nil {
		return nil, errors.New("genre matcher: item source is required")
	}

	if cfg.GenreWeight == 0 {
		cfg.GenreWeight = 0.6
	}
	if cfg.TagWeight == 0 {
		cfg.TagWeight = 0.3
	}
	if cfg.YearWeight == 0 {
		cfg.YearWeight = 0.1
	}
	if cfg.MaxYearDifference == 0 {
		cfg.MaxYearDifference = 20
	}

	total := cfg.GenreWeight + cfg.TagWeight + cfg.YearWeight
	if total > 0 {
		cfg.GenreWeight /= total
		cfg.TagWeight /= total
		cfg.YearWeight /= total
	}

	return &GenreMatcher{
		kind:              kind,
		source:            source,
		genreWeight:       cfg.GenreWeight,
		tagWeight:         cfg.TagWeight,
		yearWeight:        cfg.YearWeight,
		maxYearDifference: cfg.MaxYearDifference,
	}, nil
}

// Name returns the matcher's registered provider name.
func (g *GenreMatcher) Name() string {
	return GenreMatcherName
}

// Kind returns the item kind this matcher serves.
func (g *GenreMatcher) Kind() similar.ItemKind {
	return g.kind
}

// SimilarItems scans the library for items of the matcher's kind, scores
// each candidate against the source and returns the best matches ordered
// by similarity descending. Excluded ids and items belonging to excluded
// artists are skipped before scoring.
func (g *GenreMatcher) SimilarItems(item *similar.Item, query similar.Query) ([]*similar.Item, error) {
	if item == nil {
		return nil, similar.ErrNilItem
	}

	exclude := make(map[uuid.UUID]struct{}, len(query.ExcludeItemIDs)+1)
	exclude[item.ID] = struct{}{}
	for _, id := range query.ExcludeItemIDs {
		exclude[id] = struct{}{}
	}
	excludeArtists := make(map[uuid.UUID]struct{}, len(query.ExcludeArtistIDs))
	for _, id := range query.ExcludeArtistIDs {
		excludeArtists[id] = struct{}{}
	}

	sourceGenres := labelSet(item.Genres)
	sourceTags := labelSet(item.Tags)

	type scored struct {
		item  *similar.Item
		score float64
	}

	candidates := g.source.ItemsByKind(g.kind)
	matches := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		if c == nil {
			continue
		}
		if _, ok := exclude[c.ID]; ok {
			continue
		}
		if belongsToExcludedArtist(c, excludeArtists) {
			continue
		}

		score := g.genreWeight*jaccard(sourceGenres, labelSet(c.Genres)) +
			g.tagWeight*jaccard(sourceTags, labelSet(c.Tags)) +
			g.yearWeight*g.yearSimilarity(item.Year, c.Year)
		if score <= 0 {
			continue
		}
		matches = append(matches, scored{item: c, score: score})
	}

	// Stable so equal scores keep library order.
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})

	n := len(matches)
	if query.Limit > 0 && n > query.Limit {
		n = query.Limit
	}
	results := make([]*similar.Item, 0, n)
	for _, m := range matches[:n] {
		results = append(results, m.item)
	}
	return results, nil
}

// yearSimilarity maps the year gap onto [0,1]: identical years score 1,
// gaps at or beyond the configured maximum score 0. Unknown years on
// either side contribute nothing.
func (g *GenreMatcher) yearSimilarity(a, b int) float64 {
	if a <= 0 || b <= 0 {
		return 0
	}
	diff := math.Abs(float64(a - b))
	sim := 1.0 - diff/float64(g.maxYearDifference)
	if sim < 0 {
		return 0
	}
	return sim
}

// belongsToExcludedArtist reports whether any of the item's artists is in
// the exclusion set.
func belongsToExcludedArtist(item *similar.Item, excluded map[uuid.UUID]struct{}) bool {
	if len(excluded) == 0 {
		return false
	}
	for _, id := range item.ArtistIDs {
		if _, ok := excluded[id]; ok {
			return true
		}
	}
	return false
}

// labelSet folds labels to lower case so matching ignores the casing
// differences between media servers.
func labelSet(labels []string) map[string]struct{} {
	if len(labels) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		l = strings.TrimSpace(strings.ToLower(l))
		if l == "" {
			continue
		}
		set[l] = struct{}{}
	}
	return set
}

// jaccard computes Jaccard similarity between two label sets.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	intersection := 0
	for s := range a {
		if _, ok := b[s]; ok {
			intersection++
		}
	}

	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}

	return float64(intersection) / float64(union)
}
