// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/pdiddy/deepresearch/pkg/types"
)

// turnPromptTmpl is rendered once per drafting turn. Continuation turns see
// the draft so far and are told to extend it, not restart it.
var turnPromptTmpl = template.Must(template.New("turn").Parse(`You are writing a long-form research report with inline citations.

Topic:
{{.Topic}}

Research plan:
{{.Plan}}

Evidence evaluation:
{{.Reasoning}}

Sources (cite them inline as [n] or [n, m] using these reference numbers):
{{.Sources}}

The finished report should be roughly {{.TargetTokens}} tokens and must not exceed {{.MaxTokens}} tokens.
{{if .Draft}}
Draft so far ({{.DraftChars}} characters written):
---
{{.Draft}}
---

Continue the report from where the draft ends. Do not restart it, do not summarize it, and never repeat a heading that already appears above.{{else}}
Begin the report with a title and an introduction, then work through the evidence.{{end}}

Respond with a JSON object and nothing else:
{"text": "<the next portion of the report, Markdown>", "phase": "<continuation if more remains to write, done if the report is complete>"}
`))

type turnPromptData struct {
	Topic        string
	Plan         string
	Reasoning    string
	Sources      string
	TargetTokens int
	MaxTokens    int
	Draft        string
	DraftChars   int
}

func renderTurnPrompt(sess *types.ResearchSession, state types.DraftState, target, max int) (string, error) {
	var buf bytes.Buffer
	err := turnPromptTmpl.Execute(&buf, turnPromptData{
		Topic:        sess.Topic,
		Plan:         sess.Plan,
		Reasoning:    sess.Reasoning,
		Sources:      formatSourceSummary(sess.Evidence),
		TargetTokens: target,
		MaxTokens:    max,
		Draft:        state.Text,
		DraftChars:   len(state.Text),
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// formatSourceSummary lists each query with its registered sources, one
// reference per line.
func formatSourceSummary(evidence types.EvidenceSet) string {
	var b strings.Builder
	for _, qr := range evidence {
		fmt.Fprintf(&b, "Query: %s\n", qr.Query)
		for _, src := range qr.Sources {
			title := src.Title
			if title == "" {
				title = src.URL
			}
			fmt.Fprintf(&b, "  [%d] %s (%s)\n", src.Ref, title, src.Domain)
		}
	}
	return b.String()
}
