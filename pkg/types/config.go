// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"time"
)

// HTTPConfig holds shared HTTP settings used by components that make
// network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "deepresearch/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// SearchConfig holds settings for the search dispatcher and its provider.
type SearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// APIKey authenticates against the search provider.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Depth selects the provider's search depth ("basic" or "advanced").
	Depth string `json:"depth" yaml:"depth"`

	// MaxResults caps the number of sources kept per query (default 5).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// MaxAttempts is the per-query attempt cap, backoff doubling between
	// attempts (default 3).
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts"`

	// FetchContent enables fetching full page content for sources whose
	// search extract is empty.
	FetchContent bool `json:"fetch_content" yaml:"fetch_content"`
}

// AIConfig holds shared settings for components that call the model API.
type AIConfig struct {
	// Model is the model identifier (e.g. "claude-sonnet-4-5-20250929").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the model API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxTokensPerCall bounds a single model response (default 8192).
	MaxTokensPerCall int `json:"max_tokens_per_call" yaml:"max_tokens_per_call"`
}

// ResearchConfig holds settings for the research loop.
type ResearchConfig struct {
	// MaxDepth is the hard cap on plan/search/reason/decide cycles (≥1).
	MaxDepth int `json:"max_depth" yaml:"max_depth"`

	// MaxParallelTopics bounds the number of queries planned and dispatched
	// per iteration (≥1).
	MaxParallelTopics int `json:"max_parallel_topics" yaml:"max_parallel_topics"`

	// ConfidenceThreshold is the sufficiency bar the decision gate applies,
	// in [0,1].
	ConfidenceThreshold float64 `json:"confidence_threshold" yaml:"confidence_threshold"`
}

// ReportConfig holds settings for the report drafter.
type ReportConfig struct {
	// TargetOutputTokens is the approximate desired report length.
	TargetOutputTokens int `json:"target_output_tokens" yaml:"target_output_tokens"`

	// MaxOutputTokens is the hard report length ceiling. Must be at least
	// TargetOutputTokens.
	MaxOutputTokens int `json:"max_output_tokens" yaml:"max_output_tokens"`
}

// StoreConfig holds settings for the session store.
type StoreConfig struct {
	// Dir is the directory holding the session database and YAML exports.
	Dir string `json:"dir" yaml:"dir"`
}

// Config groups all component configurations.
type Config struct {
	Search   SearchConfig   `json:"search" yaml:"search"`
	AI       AIConfig       `json:"ai" yaml:"ai"`
	Research ResearchConfig `json:"research" yaml:"research"`
	Report   ReportConfig   `json:"report" yaml:"report"`
	Store    StoreConfig    `json:"store" yaml:"store"`
}

// Validate checks the configuration preconditions. It is called at session
// construction, before any collaborator call is made.
func (c Config) Validate() error {
	if c.Research.MaxDepth < 1 {
		return fmt.Errorf("research.max_depth must be >= 1, got %d", c.Research.MaxDepth)
	}
	if c.Research.MaxParallelTopics < 1 {
		return fmt.Errorf("research.max_parallel_topics must be >= 1, got %d", c.Research.MaxParallelTopics)
	}
	if c.Research.ConfidenceThreshold < 0 || c.Research.ConfidenceThreshold > 1 {
		return fmt.Errorf("research.confidence_threshold must be in [0,1], got %g", c.Research.ConfidenceThreshold)
	}
	if c.Report.TargetOutputTokens < 1 {
		return fmt.Errorf("report.target_output_tokens must be >= 1, got %d", c.Report.TargetOutputTokens)
	}
	if c.Report.MaxOutputTokens < c.Report.TargetOutputTokens {
		return fmt.Errorf("report.max_output_tokens (%d) must be >= report.target_output_tokens (%d)",
			c.Report.MaxOutputTokens, c.Report.TargetOutputTokens)
	}
	return nil
}
