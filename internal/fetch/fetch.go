// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch retrieves full page content for sources whose search extract
// is empty. Fetching is best-effort enrichment: failures leave the source
// unchanged and never abort a search batch.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pdiddy/deepresearch/internal/httputil"
	"github.com/pdiddy/deepresearch/pkg/types"
)

const (
	// maxBodyBytes bounds how much of a page body is kept.
	maxBodyBytes = 64 * 1024

	defaultTimeout = 20 * time.Second
)

// Fetcher downloads page content over HTTP with a shared timeout and
// User-Agent.
type Fetcher struct {
	client    *http.Client
	userAgent string
}

// New constructs a Fetcher from the shared HTTP configuration.
func New(cfg types.HTTPConfig) *Fetcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Fetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: cfg.UserAgent,
	}
}

// Fetch retrieves rawURL and returns up to maxBodyBytes of the body.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, f.client, req, 2)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetching %s: status %d", rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", rawURL, err)
	}
	return string(body), nil
}

// Enrich fills in Content for sources that have none. Errors are absorbed;
// a source that cannot be fetched keeps its empty content.
func (f *Fetcher) Enrich(ctx context.Context, sources []types.Source) {
	for i := range sources {
		if sources[i].Content != "" || sources[i].URL == "" {
			continue
		}
		body, err := f.Fetch(ctx, sources[i].URL)
		if err != nil {
			continue
		}
		sources[i].Content = body
	}
}
