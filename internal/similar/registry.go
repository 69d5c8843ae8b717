// Kindred - Similar Items Aggregation for Home Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kindred

package similar

import (
	"sort"
	"strings"
	"sync"
)

// providerRef is one registered provider with its registration index.
// Exactly one of local/remote is non-nil.
type providerRef struct {
	name   string
	local  LocalProvider
	remote RemoteProvider
	index  int
}

// Registry collects the providers available per item kind. Providers are
// registered once at startup and read for every aggregation; registration
// order is the final ordering tie-break during provider selection.
type Registry struct {
	mu        sync.RWMutex
	providers map[ItemKind][]providerRef
	nextIndex int
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[ItemKind][]providerRef),
	}
}

// RegisterLocal adds a local provider for its kind.
func (r *Registry) RegisterLocal(p LocalProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Kind()] = append(r.providers[p.Kind()], providerRef{
		name:  p.Name(),
		local: p,
		index: r.nextIndex,
	})
	r.nextIndex++
}

// RegisterRemote adds a remote provider for its kind.
func (r *Registry) RegisterRemote(p RemoteProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Kind()] = append(r.providers[p.Kind()], providerRef{
		name:   p.Name(),
		remote: p,
		index:  r.nextIndex,
	})
	r.nextIndex++
}

// Providers lists every registered provider, grouped by kind in the stable
// Kinds order, each group in effective registration order.
func (r *Registry) Providers() []ProviderInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []ProviderInfo
	for _, kind := range Kinds {
		for _, ref := range r.providers[kind] {
			out = append(out, ProviderInfo{
				Name:   ref.name,
				Kind:   kind,
				Remote: ref.remote != nil,
			})
		}
	}
	return out
}

// selectProviders returns the effective ordered provider list for a kind
// under the given per-library options.
//
// Selection applies the allow-list first (case-insensitive; empty list
// admits all), then orders by the options' ProviderOrder ranks. Providers
// not named in ProviderOrder rank after all named ones; ties keep
// registration order (stable sort).
func (r *Registry) selectProviders(kind ItemKind, opts TypeOptions) []providerRef {
	r.mu.RLock()
	registered := r.providers[kind]
	r.mu.RUnlock()

	selected := make([]providerRef, 0, len(registered))
	for _, ref := range registered {
		if !allowed(ref.name, opts.Providers) {
			continue
		}
		selected = append(selected, ref)
	}

	unlistedRank := len(opts.ProviderOrder)
	rank := func(name string) int {
		for i, ordered := range opts.ProviderOrder {
			if strings.EqualFold(ordered, name) {
				return i
			}
		}
		return unlistedRank
	}

	sort.SliceStable(selected, func(i, j int) bool {
		ri, rj := rank(selected[i].name), rank(selected[j].name)
		if ri != rj {
			return ri < rj
		}
		return selected[i].index < selected[j].index
	})

	return selected
}

// allowed reports whether the provider name passes the allow-list.
func allowed(name string, allowList []string) bool {
	if len(allowList) == 0 {
		return true
	}
	for _, a := range allowList {
		if strings.EqualFold(a, name) {
			return true
		}
	}
	return false
}
