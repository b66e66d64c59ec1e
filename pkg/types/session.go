// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Stop reasons recorded on a session when the research loop terminates.
const (
	// StopMaxDepth means the hard iteration cap was reached. It takes
	// priority over a completion decision made in the same iteration.
	StopMaxDepth = "max_depth_reached"

	// StopSufficient means the decision gate judged the evidence sufficient.
	StopSufficient = "sufficient_info"
)

// TokenUsage accumulates model token counts across calls.
type TokenUsage struct {
	InputTokens  int `json:"input_tokens" yaml:"input_tokens"`
	OutputTokens int `json:"output_tokens" yaml:"output_tokens"`
}

// Add accumulates another usage record into u.
func (u *TokenUsage) Add(other TokenUsage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
}

// Total returns the combined input and output token count.
func (u TokenUsage) Total() int {
	return u.InputTokens + u.OutputTokens
}

// Decision is the decision gate's verdict for one iteration, derived fresh
// each time from the current reasoning trace.
type Decision struct {
	// IsComplete reports whether the gathered evidence suffices to draft.
	IsComplete bool `json:"is_complete" yaml:"is_complete"`

	// Reason is the model's justification for the verdict.
	Reason string `json:"reason" yaml:"reason"`
}

// ResearchSession aggregates everything the research loop accumulates for
// one topic. The loop mutates it; the report drafter reads it.
type ResearchSession struct {
	// ID identifies the session in the session store.
	ID string `json:"id" yaml:"id"`

	// Topic is the immutable research goal, set once at session start.
	Topic string `json:"topic" yaml:"topic"`

	// MaxDepth is the hard iteration cap.
	MaxDepth int `json:"max_depth" yaml:"max_depth"`

	// Depth counts completed plan/search/reason/decide cycles.
	Depth int `json:"depth" yaml:"depth"`

	// Plan is the latest planning text, replaced each iteration.
	Plan string `json:"plan" yaml:"plan"`

	// Queries is the append-only log of every query issued, in order.
	Queries []string `json:"queries" yaml:"queries"`

	// Evidence is the accumulated, deduplicated evidence set.
	Evidence EvidenceSet `json:"evidence" yaml:"evidence"`

	// Reasoning is the latest evidence evaluation, replaced each iteration.
	Reasoning string `json:"reasoning" yaml:"reasoning"`

	// Decision is the latest gate verdict.
	Decision Decision `json:"decision" yaml:"decision"`

	// StopReason records why the loop terminated: StopMaxDepth or
	// StopSufficient. Empty while the loop is running or after a failure.
	StopReason string `json:"stop_reason,omitempty" yaml:"stop_reason,omitempty"`

	// Usage accumulates token usage across all model calls of the loop.
	Usage TokenUsage `json:"usage" yaml:"usage"`

	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty" yaml:"finished_at,omitempty"`
}
