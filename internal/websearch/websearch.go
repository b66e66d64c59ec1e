// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package websearch defines the web-search collaborator interface and its
// Tavily implementation.
package websearch

import (
	"context"

	"github.com/pdiddy/deepresearch/pkg/types"
)

// Provider executes one query against a web-search API. Implementations may
// fail transiently (network, rate limit); the search dispatcher owns the
// retry policy.
type Provider interface {
	Name() string
	Search(ctx context.Context, query string) ([]types.Source, error)
}
