// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ai defines the model collaborator interface and its Claude API
// implementation. The model is bound once at construction; callers never
// select a model at call time.
package ai

import (
	"context"

	"github.com/pdiddy/deepresearch/pkg/types"
)

// TextResult carries generated text and the token usage of the call.
type TextResult struct {
	Text  string
	Usage types.TokenUsage
}

// Client is the model collaborator. Implementations may fail with transient
// or permanent errors; callers own any retry policy.
type Client interface {
	// GenerateText returns the model's free-form response to prompt.
	GenerateText(ctx context.Context, prompt string) (TextResult, error)

	// GenerateStructured asks the model for a JSON object matching out and
	// unmarshals the response into it. A response that does not parse is an
	// error; no repair is attempted here.
	GenerateStructured(ctx context.Context, prompt string, out any) (types.TokenUsage, error)
}
