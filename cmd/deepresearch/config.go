// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/deepresearch/pkg/types"
)

const defaultUserAgent = "deepresearch/0.1"

func setConfigDefaults() {
	viper.SetDefault("search.timeout", 30*time.Second)
	viper.SetDefault("search.depth", "basic")
	viper.SetDefault("search.max_results", 5)
	viper.SetDefault("search.max_attempts", 3)
	viper.SetDefault("search.fetch_content", false)

	viper.SetDefault("ai.model", "claude-sonnet-4-5-20250929")
	viper.SetDefault("ai.max_tokens_per_call", 8192)

	viper.SetDefault("research.max_depth", 3)
	viper.SetDefault("research.max_parallel_topics", 3)
	viper.SetDefault("research.confidence_threshold", 0.7)

	viper.SetDefault("report.target_output_tokens", 2000)
	viper.SetDefault("report.max_output_tokens", 4000)

	viper.SetDefault("store.dir", "sessions")
}

// buildConfig assembles the full configuration from viper (config file,
// environment, defaults) with API keys falling back to loaded secrets.
func buildConfig() types.Config {
	return types.Config{
		Search: types.SearchConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("search.timeout"),
				UserAgent: defaultUserAgent,
			},
			APIKey:       secretDefault("tavily-api-key", viper.GetString("search.api_key")),
			Depth:        viper.GetString("search.depth"),
			MaxResults:   viper.GetInt("search.max_results"),
			MaxAttempts:  viper.GetInt("search.max_attempts"),
			FetchContent: viper.GetBool("search.fetch_content"),
		},
		AI: types.AIConfig{
			Model:            viper.GetString("ai.model"),
			APIKey:           secretDefault("anthropic-api-key", viper.GetString("ai.api_key")),
			MaxTokensPerCall: viper.GetInt("ai.max_tokens_per_call"),
		},
		Research: types.ResearchConfig{
			MaxDepth:            viper.GetInt("research.max_depth"),
			MaxParallelTopics:   viper.GetInt("research.max_parallel_topics"),
			ConfidenceThreshold: viper.GetFloat64("research.confidence_threshold"),
		},
		Report: types.ReportConfig{
			TargetOutputTokens: viper.GetInt("report.target_output_tokens"),
			MaxOutputTokens:    viper.GetInt("report.max_output_tokens"),
		},
		Store: types.StoreConfig{
			Dir: viper.GetString("store.dir"),
		},
	}
}
