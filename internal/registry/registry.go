// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package registry deduplicates evidence sources across a research session
// and assigns each distinct URL a stable reference number.
package registry

import (
	"github.com/pdiddy/deepresearch/pkg/types"
)

// Registry maps source URLs to reference numbers in first-seen order. The
// mapping is a bijection onto 1..N for the lifetime of a session: a number,
// once assigned, is never reassigned or reused. Sources with an empty URL
// all share the single degenerate empty-string key.
//
// The registry is not safe for concurrent use; the research loop mutates it
// only from its control goroutine after each search batch has joined.
type Registry struct {
	numbers map[string]int
	sources []types.Source // indexed by ref-1, in assignment order
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{numbers: make(map[string]int)}
}

// Register assigns or reuses reference numbers for each source by URL and
// returns the sources annotated with their numbers. Registration is
// idempotent: a URL seen before gets its existing number back and the stored
// source is left untouched.
func (r *Registry) Register(sources []types.Source) []types.Source {
	out := make([]types.Source, len(sources))
	for i, src := range sources {
		if ref, ok := r.numbers[src.URL]; ok {
			src.Ref = ref
		} else {
			src.Ref = len(r.sources) + 1
			r.numbers[src.URL] = src.Ref
			r.sources = append(r.sources, src)
		}
		out[i] = src
	}
	return out
}

// Dedupe removes sources whose URL has already appeared earlier in the
// evidence set, scanning in encounter order and keeping only the first
// occurrence. Query entries are preserved even when all of their sources
// are removed. The input is not mutated.
func (r *Registry) Dedupe(evidence types.EvidenceSet) types.EvidenceSet {
	seen := make(map[string]bool)
	out := make(types.EvidenceSet, 0, len(evidence))
	for _, qr := range evidence {
		kept := make([]types.Source, 0, len(qr.Sources))
		for _, src := range qr.Sources {
			if seen[src.URL] {
				continue
			}
			seen[src.URL] = true
			kept = append(kept, src)
		}
		out = append(out, types.QueryResult{Query: qr.Query, Sources: kept, Failed: qr.Failed})
	}
	return out
}

// Lookup returns the source registered under reference number n.
func (r *Registry) Lookup(n int) (types.Source, bool) {
	if n < 1 || n > len(r.sources) {
		return types.Source{}, false
	}
	return r.sources[n-1], true
}

// Sources returns all registered sources in ascending reference-number
// order. The returned slice is a copy.
func (r *Registry) Sources() []types.Source {
	out := make([]types.Source, len(r.sources))
	copy(out, r.sources)
	return out
}

// Len returns the number of registered sources.
func (r *Registry) Len() int {
	return len(r.sources)
}
