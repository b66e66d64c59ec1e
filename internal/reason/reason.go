// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package reason evaluates accumulated evidence against the research topic
// and converts that evaluation into a continue/stop decision. Failures here
// are fatal to the current iteration: a guessed sufficiency verdict would
// corrupt the loop's budget and termination logic, so nothing is defaulted.
package reason

import (
	"context"
	"fmt"
	"strings"

	"github.com/pdiddy/deepresearch/internal/ai"
	"github.com/pdiddy/deepresearch/pkg/types"
)

// evidenceExcerptLen bounds how much of each source's content is quoted in
// the reasoning prompt.
const evidenceExcerptLen = 600

// Reasoner produces a natural-language evaluation of evidence coverage.
type Reasoner struct {
	model ai.Client
}

// NewReasoner constructs a Reasoner using the given model collaborator.
func NewReasoner(model ai.Client) *Reasoner {
	return &Reasoner{model: model}
}

// Reason asks the model to decompose the topic into sub-aspects, map each to
// supporting evidence or flag it missing, and end with a structured
// sufficiency verdict. The returned trace replaces the previous iteration's.
func (r *Reasoner) Reason(ctx context.Context, topic, plan string, evidence types.EvidenceSet, queries []string) (string, types.TokenUsage, error) {
	prompt, err := renderReasonPrompt(reasonPromptData{
		Topic:    topic,
		Plan:     plan,
		Queries:  queries,
		Evidence: formatEvidence(evidence),
	})
	if err != nil {
		return "", types.TokenUsage{}, fmt.Errorf("rendering reasoning prompt: %w", err)
	}

	res, err := r.model.GenerateText(ctx, prompt)
	if err != nil {
		return "", res.Usage, fmt.Errorf("reasoning over evidence: %w", err)
	}
	if strings.TrimSpace(res.Text) == "" {
		return "", res.Usage, fmt.Errorf("reasoning over evidence: model returned empty trace")
	}
	return res.Text, res.Usage, nil
}

// Gate converts a reasoning trace into a boolean completion decision.
type Gate struct {
	model      ai.Client
	confidence float64
}

// NewGate constructs a Gate. confidence is the sufficiency bar in [0,1]
// included in the decision prompt.
func NewGate(model ai.Client, confidence float64) *Gate {
	return &Gate{model: model, confidence: confidence}
}

// decisionResponse is the structured model output for one gate call.
type decisionResponse struct {
	IsComplete bool   `json:"is_complete"`
	Reason     string `json:"reason"`
}

// Decide derives a fresh Decision from the current trace and the target
// output budget. A model or parse failure propagates; there is no repair.
func (g *Gate) Decide(ctx context.Context, trace string, targetTokens int) (types.Decision, types.TokenUsage, error) {
	prompt, err := renderDecidePrompt(decidePromptData{
		Trace:        trace,
		TargetTokens: targetTokens,
		Confidence:   g.confidence,
	})
	if err != nil {
		return types.Decision{}, types.TokenUsage{}, fmt.Errorf("rendering decision prompt: %w", err)
	}

	var resp decisionResponse
	usage, err := g.model.GenerateStructured(ctx, prompt, &resp)
	if err != nil {
		return types.Decision{}, usage, fmt.Errorf("deciding sufficiency: %w", err)
	}
	if resp.Reason == "" {
		return types.Decision{}, usage, fmt.Errorf("deciding sufficiency: verdict missing justification")
	}
	return types.Decision{IsComplete: resp.IsComplete, Reason: resp.Reason}, usage, nil
}

// formatEvidence renders the evidence set as numbered reference blocks for
// the reasoning prompt.
func formatEvidence(evidence types.EvidenceSet) string {
	var b strings.Builder
	for _, qr := range evidence {
		fmt.Fprintf(&b, "Query: %s\n", qr.Query)
		if len(qr.Sources) == 0 {
			b.WriteString("  (no results)\n")
			continue
		}
		for _, src := range qr.Sources {
			fmt.Fprintf(&b, "  [%d] %s — %s\n", src.Ref, src.Title, src.URL)
			if body := excerpt(src.Content, evidenceExcerptLen); body != "" {
				fmt.Fprintf(&b, "      %s\n", body)
			}
			for _, sn := range src.Snippets {
				fmt.Fprintf(&b, "      %s\n", excerpt(sn, evidenceExcerptLen))
			}
		}
	}
	return b.String()
}

// excerpt returns up to max characters of s with internal newlines collapsed.
func excerpt(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > max {
		s = s[:max] + "..."
	}
	return s
}
