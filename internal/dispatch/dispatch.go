// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dispatch executes a batch of search queries concurrently with
// per-query retry and failure isolation: one bad query never blocks or
// invalidates the others.
package dispatch

import (
	"context"
	"fmt"
	"io"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/deepresearch/internal/websearch"
	"github.com/pdiddy/deepresearch/pkg/types"
)

// backoffBase controls the base duration for exponential backoff between
// attempts. Tests override this to avoid real sleeps.
var backoffBase = time.Second

const defaultMaxAttempts = 3

// ContentEnricher fills in missing source content after a successful query.
// Enrichment errors are absorbed by the implementation.
type ContentEnricher interface {
	Enrich(ctx context.Context, sources []types.Source)
}

// Dispatcher fans a query batch out to the search provider.
type Dispatcher struct {
	provider    websearch.Provider
	maxAttempts int
	limit       int
	enricher    ContentEnricher // optional
	w           io.Writer
}

// New constructs a Dispatcher. limit bounds concurrent in-flight queries;
// enricher may be nil. Progress and per-query failure warnings go to w.
func New(provider websearch.Provider, cfg types.SearchConfig, limit int, enricher ContentEnricher, w io.Writer) *Dispatcher {
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	if limit < 1 {
		limit = 1
	}
	if w == nil {
		w = io.Discard
	}
	return &Dispatcher{
		provider:    provider,
		maxAttempts: maxAttempts,
		limit:       limit,
		enricher:    enricher,
		w:           w,
	}
}

// Dispatch executes every query concurrently and returns one QueryResult per
// query, in query order. A query whose attempts are all exhausted is
// downgraded to an empty, Failed entry rather than an error: partial results
// from the other queries always survive. Dispatch itself never fails; the
// caller checks its context at the next state-machine boundary.
func (d *Dispatcher) Dispatch(ctx context.Context, queries []string) types.EvidenceSet {
	results := make(types.EvidenceSet, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.limit)

	for i, query := range queries {
		i, query := i, query
		g.Go(func() error {
			sources, err := d.searchWithRetry(gctx, query)
			if err != nil {
				fmt.Fprintf(d.w, "warning: %s query %q failed after %d attempts: %v\n",
					d.provider.Name(), query, d.maxAttempts, err)
				results[i] = types.QueryResult{Query: query, Sources: []types.Source{}, Failed: true}
				return nil
			}
			if d.enricher != nil {
				d.enricher.Enrich(gctx, sources)
			}
			results[i] = types.QueryResult{Query: query, Sources: sources}
			return nil
		})
	}

	// Goroutines only ever return nil; Wait is the batch join point.
	g.Wait()

	return results
}

// searchWithRetry runs one query with exponential backoff between attempts.
func (d *Dispatcher) searchWithRetry(ctx context.Context, query string) ([]types.Source, error) {
	var lastErr error
	for attempt := 0; attempt < d.maxAttempts; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		sources, err := d.provider.Search(ctx, query)
		if err == nil {
			return sources, nil
		}
		lastErr = err
	}
	return nil, lastErr
}
