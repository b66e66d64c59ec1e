// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"bytes"
	"context"
	"fmt"
	"text/template"

	"github.com/pdiddy/deepresearch/internal/ai"
	"github.com/pdiddy/deepresearch/pkg/types"
)

// planPromptTmpl asks the model for the next batch of search queries. On the
// first iteration PreviousReasoning is empty and the model plans from the
// topic alone; later iterations plan against the flagged gaps.
var planPromptTmpl = template.Must(template.New("plan").Parse(`You are planning web searches for a research report.

Research topic:
{{.Topic}}
{{if .PreviousReasoning}}
Evaluation of the evidence gathered so far (target the MISSING aspects):
{{.PreviousReasoning}}
{{end}}
Propose at most {{.MaxQueries}} web search queries that together best advance coverage of the topic. Prefer specific, answerable queries over broad ones. Do not repeat a query that has already been issued.

Respond with a JSON object and nothing else:
{"plan": "<a short paragraph describing the search strategy>", "queries": ["<query>", ...]}
`))

// planResponse is the structured model output for one planning call.
type planResponse struct {
	Plan    string   `json:"plan"`
	Queries []string `json:"queries"`
}

// Planner produces the next iteration's plan text and query batch.
type Planner struct {
	model ai.Client
}

// NewPlanner constructs a Planner using the given model collaborator.
func NewPlanner(model ai.Client) *Planner {
	return &Planner{model: model}
}

// Plan asks the model for up to maxQueries search queries. A model or parse
// failure propagates: planning output is never guessed, since a fabricated
// query batch would distort the loop's evidence and termination behavior.
func (p *Planner) Plan(ctx context.Context, topic, previousReasoning string, maxQueries int) (string, []string, types.TokenUsage, error) {
	var buf bytes.Buffer
	err := planPromptTmpl.Execute(&buf, struct {
		Topic             string
		PreviousReasoning string
		MaxQueries        int
	}{topic, previousReasoning, maxQueries})
	if err != nil {
		return "", nil, types.TokenUsage{}, fmt.Errorf("rendering planning prompt: %w", err)
	}

	var resp planResponse
	usage, err := p.model.GenerateStructured(ctx, buf.String(), &resp)
	if err != nil {
		return "", nil, usage, fmt.Errorf("planning queries: %w", err)
	}

	queries := make([]string, 0, len(resp.Queries))
	for _, q := range resp.Queries {
		if q != "" {
			queries = append(queries, q)
		}
	}
	if len(queries) == 0 {
		return "", nil, usage, fmt.Errorf("planning queries: model proposed no queries")
	}
	if len(queries) > maxQueries {
		queries = queries[:maxQueries]
	}
	return resp.Plan, queries, usage, nil
}
