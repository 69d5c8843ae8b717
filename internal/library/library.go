// Kindred - Similar Items Aggregation for Home Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kindred

package library

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/kindred/internal/config"
	"github.com/tomtom215/kindred/internal/metrics"
	"github.com/tomtom215/kindred/internal/similar"
)

// Library is the in-memory media library index. It is built once at
// startup and immutable afterwards, so lookups need no locking and are
// safe for concurrent use.
//
// The index satisfies similar.LibraryStore and additionally serves
// per-library provider options and full kind scans for local providers.
type Library struct {
	items  map[uuid.UUID]*similar.Item
	byKind map[similar.ItemKind][]*similar.Item

	// byProvider maps kind -> lower(provider name) -> lower(provider id)
	// -> catalogue ids. Values are slices because the same external entity
	// may be catalogued in more than one library.
	byProvider map[similar.ItemKind]map[string]map[string][]uuid.UUID

	// options maps library id -> kind -> per-library provider options.
	options map[string]map[similar.ItemKind]similar.TypeOptions

	generatedAt time.Time
}

var _ similar.LibraryStore = (*Library)(nil)

// New builds the index from catalogued items and the per-library options
// in cfg. Items with no id, an unknown kind, or an id already indexed are
// skipped with a warning; the first occurrence of a duplicated id wins.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func New(items []*similar.Item, cfg config.LibraryConfig, logger zerolog.Logger) *Library {
	log := logger.With().Str("component", "library").Logger()

	l := &Library{
		items:      make(map[uuid.UUID]*similar.Item, len(items)),
		byKind:     make(map[similar.ItemKind][]*similar.Item),
		byProvider: make(map[similar.ItemKind]map[string]map[string][]uuid.UUID),
		options:    buildOptions(cfg),
	}

	for _, item := range items {
		if item == nil {
			continue
		}
		if item.ID == uuid.Nil {
			log.Warn().Str("name", item.Name).Msg("skipping item without id")
			continue
		}
		if !item.Kind.Valid() {
			log.Warn().
				Str("item_id", item.ID.String()).
				Str("kind", string(item.Kind)).
				Msg("skipping item with unknown kind")
			continue
		}
		if _, dup := l.items[item.ID]; dup {
			log.Warn().Str("item_id", item.ID.String()).Msg("skipping duplicate item id")
			continue
		}

		l.items[item.ID] = item
		l.byKind[item.Kind] = append(l.byKind[item.Kind], item)
		l.indexProviderIDs(item)
	}

	for _, kind := range similar.Kinds {
		metrics.UpdateLibrarySize(string(kind), len(l.byKind[kind]))
	}

	return l
}

// indexProviderIDs adds one item's external ids to the provider index.
func (l *Library) indexProviderIDs(item *similar.Item) {
	for provider, value := range item.ProviderIDs {
		if provider == "" || value == "" {
			continue
		}

		byProvider := l.byProvider[item.Kind]
		if byProvider == nil {
			byProvider = make(map[string]map[string][]uuid.UUID)
			l.byProvider[item.Kind] = byProvider
		}

		p := strings.ToLower(provider)
		byValue := byProvider[p]
		if byValue == nil {
			byValue = make(map[string][]uuid.UUID)
			byProvider[p] = byValue
		}

		v := strings.ToLower(value)
		byValue[v] = append(byValue[v], item.ID)
	}
}

// buildOptions converts the configured library entries into the options
// lookup map. Kind names were validated at config load.
func buildOptions(cfg config.LibraryConfig) map[string]map[similar.ItemKind]similar.TypeOptions {
	options := make(map[string]map[similar.ItemKind]similar.TypeOptions, len(cfg.Libraries))
	for _, entry := range cfg.Libraries {
		if entry.ID == "" {
			continue
		}
		byKind := make(map[similar.ItemKind]similar.TypeOptions, len(entry.TypeOptions))
		for kindName, opts := range entry.TypeOptions {
			kind, err := similar.ParseItemKind(kindName)
			if err != nil {
				continue
			}
			byKind[kind] = similar.TypeOptions{
				Providers:     opts.Providers,
				ProviderOrder: opts.ProviderOrder,
			}
		}
		options[entry.ID] = byKind
	}
	return options
}

// Get returns the catalogued item with the given id.
// Returns similar.ErrItemNotFound when the id is unknown.
func (l *Library) Get(_ context.Context, id uuid.UUID) (*similar.Item, error) {
	item, ok := l.items[id]
	if !ok {
		return nil, similar.ErrItemNotFound
	}
	return item, nil
}

// FindByProviderIDs returns catalogued items of the given kind whose
// external id for the named provider matches any of the values. Provider
// names and values match case-insensitively; each item appears once even
// when several values resolve to it.
func (l *Library) FindByProviderIDs(_ context.Context, kind similar.ItemKind, providerName string, values []string) ([]*similar.Item, error) {
	byValue := l.byProvider[kind][strings.ToLower(providerName)]
	if len(byValue) == 0 || len(values) == 0 {
		return nil, nil
	}

	seen := make(map[uuid.UUID]struct{}, len(values))
	var found []*similar.Item
	for _, value := range values {
		for _, id := range byValue[strings.ToLower(value)] {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			found = append(found, l.items[id])
		}
	}
	return found, nil
}

// ItemsByKind returns every catalogued item of the kind, in catalogue
// order. The returned slice is shared; callers must not mutate it.
func (l *Library) ItemsByKind(kind similar.ItemKind) []*similar.Item {
	return l.byKind[kind]
}

// OptionsFor returns the per-library provider options for one item kind.
// Unknown library ids and unconfigured kinds yield zero options, which
// admit every registered provider in registration order.
func (l *Library) OptionsFor(libraryID string, kind similar.ItemKind) similar.TypeOptions {
	if byKind, ok := l.options[libraryID]; ok {
		return byKind[kind]
	}
	return similar.TypeOptions{}
}

// Counts reports the number of catalogued items per kind.
func (l *Library) Counts() map[similar.ItemKind]int {
	counts := make(map[similar.ItemKind]int, len(similar.Kinds))
	for _, kind := range similar.Kinds {
		counts[kind] = len(l.byKind[kind])
	}
	return counts
}

// Size reports the total number of catalogued items.
func (l *Library) Size() int {
	return len(l.items)
}

// GeneratedAt reports when the loaded snapshot was exported, zero when the
// index was not built from a snapshot file.
func (l *Library) GeneratedAt() time.Time {
	return l.generatedAt
}
