// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package reason

import (
	"bytes"
	"text/template"
)

// reasonPromptTmpl instructs the model to evaluate evidence coverage. The
// trace must decompose the topic, map each sub-aspect to evidence, and end
// with an explicit sufficiency verdict.
var reasonPromptTmpl = template.Must(template.New("reason").Parse(`You are evaluating research evidence gathered for a report.

Research topic:
{{.Topic}}

Current research plan:
{{.Plan}}

Queries issued so far:
{{range .Queries}}- {{.}}
{{end}}
Accumulated evidence (numbered references):
{{.Evidence}}

Write an evaluation that:
1. Decomposes the topic into the sub-aspects a complete report must cover.
2. Maps each sub-aspect to the reference numbers that support it, or flags it as MISSING when no gathered evidence covers it.
3. Ends with a line of the form "VERDICT: sufficient" or "VERDICT: insufficient", followed by one sentence naming the most important remaining gap (or stating that coverage is complete).

Cite evidence only by its reference number. Do not invent sources.
`))

// decidePromptTmpl converts a reasoning trace into a boolean decision.
var decidePromptTmpl = template.Must(template.New("decide").Parse(`You are deciding whether research evidence is sufficient to draft a report of roughly {{.TargetTokens}} tokens.

Evidence evaluation:
{{.Trace}}

Declare the evidence sufficient only if you are at least {{.Confidence}} confident that every sub-aspect flagged above is either covered or immaterial to a report of this length. A longer report needs broader coverage; a short report tolerates minor gaps.

Respond with a JSON object and nothing else:
{"is_complete": <bool>, "reason": "<one-sentence justification>"}
`))

type reasonPromptData struct {
	Topic    string
	Plan     string
	Queries  []string
	Evidence string
}

type decidePromptData struct {
	Trace        string
	TargetTokens int
	Confidence   float64
}

func renderReasonPrompt(data reasonPromptData) (string, error) {
	var buf bytes.Buffer
	if err := reasonPromptTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func renderDecidePrompt(data decidePromptData) (string, error) {
	var buf bytes.Buffer
	if err := decidePromptTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
