// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the deepresearch
// orchestrator: evidence sources, session state, draft state, and
// configuration.
package types

// Source is one evidence document returned by a web search. Once registered
// it carries a stable reference number used for inline citations.
type Source struct {
	// URL is the document location and the identity key for deduplication.
	URL string `json:"url" yaml:"url"`

	// Title is the document title as returned by the search provider.
	Title string `json:"title" yaml:"title"`

	// Domain is the host part of the URL (e.g. "arxiv.org").
	Domain string `json:"domain" yaml:"domain"`

	// Content is the document text, either the search provider's extract or
	// the fetched page body.
	Content string `json:"content" yaml:"content"`

	// Snippets are short relevant extracts returned alongside the result.
	Snippets []string `json:"snippets,omitempty" yaml:"snippets,omitempty"`

	// Ref is the reference number assigned by the source registry on first
	// registration. Zero means not yet registered.
	Ref int `json:"ref" yaml:"ref"`
}

// QueryResult pairs one issued query with the sources it returned. A failed
// query keeps its entry with an empty source list so the evidence set always
// has one entry per query.
type QueryResult struct {
	// Query is the search string as issued.
	Query string `json:"query" yaml:"query"`

	// Sources are the documents the query returned, registry-annotated.
	Sources []Source `json:"sources" yaml:"sources"`

	// Failed reports that the query exhausted its retries and was downgraded
	// to an empty result.
	Failed bool `json:"failed,omitempty" yaml:"failed,omitempty"`
}

// EvidenceSet is the ordered, append-only sequence of query results
// accumulated across all iterations of a session.
type EvidenceSet []QueryResult

// SourceCount returns the total number of sources across all entries.
func (e EvidenceSet) SourceCount() int {
	n := 0
	for _, qr := range e {
		n += len(qr.Sources)
	}
	return n
}
