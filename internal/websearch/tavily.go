// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pdiddy/deepresearch/internal/httputil"
	"github.com/pdiddy/deepresearch/pkg/types"
)

// tavilyAPIURL is the Tavily search endpoint. Package-level var for test substitution.
var tavilyAPIURL = "https://api.tavily.com/search"

const defaultMaxResults = 5

// Tavily queries the Tavily search API. Rate-limit responses are retried
// with backoff by httputil.DoWithRetry.
type Tavily struct {
	apiKey     string
	depth      string
	maxResults int
	client     *http.Client
}

// NewTavily constructs a Tavily provider from the search configuration.
func NewTavily(cfg types.SearchConfig) *Tavily {
	depth := cfg.Depth
	if depth == "" {
		depth = "basic"
	}
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Tavily{
		apiKey:     cfg.APIKey,
		depth:      depth,
		maxResults: maxResults,
		client:     &http.Client{Timeout: timeout},
	}
}

// Name identifies the provider in progress output.
func (t *Tavily) Name() string { return "tavily" }

// tavilyRequest is the request body for the Tavily search API.
type tavilyRequest struct {
	Query       string `json:"query"`
	APIKey      string `json:"api_key"`
	SearchDepth string `json:"search_depth"`
	MaxResults  int    `json:"max_results"`
}

// tavilyResponse is the response body from the Tavily search API.
type tavilyResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

// Search posts the query and maps results to Sources. Reference numbers are
// not assigned here; that is the registry's job.
func (t *Tavily) Search(ctx context.Context, query string) ([]types.Source, error) {
	if t.apiKey == "" {
		return nil, fmt.Errorf("tavily: API key is missing")
	}

	bodyBytes, err := json.Marshal(tavilyRequest{
		Query:       query,
		APIKey:      t.apiKey,
		SearchDepth: t.depth,
		MaxResults:  t.maxResults,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tavilyAPIURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httputil.DoWithRetry(ctx, t.client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("calling tavily: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("tavily returned %d: %s", resp.StatusCode, string(body))
	}

	var tResp tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&tResp); err != nil {
		return nil, fmt.Errorf("decoding tavily response: %w", err)
	}

	sources := make([]types.Source, 0, len(tResp.Results))
	for _, r := range tResp.Results {
		sources = append(sources, types.Source{
			URL:     r.URL,
			Title:   r.Title,
			Domain:  hostOf(r.URL),
			Content: r.Content,
		})
		if len(sources) >= t.maxResults {
			break
		}
	}
	return sources, nil
}

// hostOf returns the host part of rawURL, or "" when it does not parse.
func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}
