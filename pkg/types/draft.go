// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// DraftPhase tracks the report drafter's state machine.
type DraftPhase string

const (
	// PhaseInitial is the state before the first drafting turn completes.
	PhaseInitial DraftPhase = "initial"

	// PhaseContinuation means the draft is growing and further turns follow.
	PhaseContinuation DraftPhase = "continuation"

	// PhaseDone is terminal; no further model turns are issued.
	PhaseDone DraftPhase = "done"
)

// DraftState is the report drafter's working state, mutated once per turn
// and immutable once Phase is PhaseDone.
type DraftState struct {
	// Text is the draft accumulated so far. Its length never decreases.
	Text string `json:"text" yaml:"text"`

	// Phase is the current state-machine phase.
	Phase DraftPhase `json:"phase" yaml:"phase"`

	// Turns counts completed drafting turns.
	Turns int `json:"turns" yaml:"turns"`
}

// Report is the final artifact: resolved text, the rendered bibliography,
// and the token usage accumulated while drafting.
type Report struct {
	Text         string     `json:"text" yaml:"text"`
	Bibliography []string   `json:"bibliography" yaml:"bibliography"`
	Usage        TokenUsage `json:"usage" yaml:"usage"`
}
