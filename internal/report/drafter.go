// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report produces the final long-form document through repeated
// budget-aware drafting turns. Each model call is capped to a bounded output
// size, so the drafter appends turn by turn until the target length is
// reached, forcing completion at the hard ceiling even if the model never
// reports being done.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/deepresearch/internal/ai"
	"github.com/pdiddy/deepresearch/pkg/types"
)

// charsPerToken is the approximation used to convert token budgets into
// draft-length thresholds.
const charsPerToken = 4

// Drafter runs the initial → continuation* → done drafting state machine.
type Drafter struct {
	model  ai.Client
	target int // tokens
	max    int // tokens, >= target
	w      io.Writer
}

// NewDrafter validates the length budget and constructs a Drafter. The
// max ≥ target precondition is checked here so a bad budget surfaces before
// any model call.
func NewDrafter(model ai.Client, cfg types.ReportConfig, w io.Writer) (*Drafter, error) {
	if cfg.TargetOutputTokens < 1 {
		return nil, fmt.Errorf("target_output_tokens must be >= 1, got %d", cfg.TargetOutputTokens)
	}
	if cfg.MaxOutputTokens < cfg.TargetOutputTokens {
		return nil, fmt.Errorf("max_output_tokens (%d) must be >= target_output_tokens (%d)",
			cfg.MaxOutputTokens, cfg.TargetOutputTokens)
	}
	if w == nil {
		w = io.Discard
	}
	return &Drafter{
		model:  model,
		target: cfg.TargetOutputTokens,
		max:    cfg.MaxOutputTokens,
		w:      w,
	}, nil
}

// turnResponse is the structured model output for one drafting turn. The
// model self-reports its phase; the drafter trusts it for forward progress
// but overrides it at the hard length ceiling.
type turnResponse struct {
	Text  string `json:"text"`
	Phase string `json:"phase"`
}

// Draft runs drafting turns against the completed session until the state
// machine reaches done. Draft length never decreases across turns, and the
// turn count is bounded whenever the ceiling is finite. On a turn error the
// partial state accumulated so far is returned alongside the error.
func (d *Drafter) Draft(ctx context.Context, sess *types.ResearchSession) (types.DraftState, types.TokenUsage, error) {
	state := types.DraftState{Phase: types.PhaseInitial}
	var usage types.TokenUsage

	for state.Phase != types.PhaseDone {
		if err := ctx.Err(); err != nil {
			return state, usage, err
		}

		prompt, err := renderTurnPrompt(sess, state, d.target, d.max)
		if err != nil {
			return state, usage, fmt.Errorf("rendering draft prompt: %w", err)
		}

		res, err := d.model.GenerateText(ctx, prompt)
		usage.Add(res.Usage)
		if err != nil {
			return state, usage, fmt.Errorf("draft turn %d: %w", state.Turns+1, err)
		}

		turn, err := parseTurn(res.Text)
		if err != nil {
			return state, usage, fmt.Errorf("draft turn %d: %w", state.Turns+1, err)
		}

		appended := turn.Text
		if state.Text != "" && appended != "" {
			state.Text += "\n\n"
		}
		state.Text += appended
		state.Turns++

		state.Phase = d.nextPhase(state, turn, appended)
		fmt.Fprintf(d.w, "draft turn %d: %d chars (%s)\n", state.Turns, len(state.Text), state.Phase)
	}

	return state, usage, nil
}

// nextPhase applies the transition rules after one completed turn.
func (d *Drafter) nextPhase(state types.DraftState, turn turnResponse, appended string) types.DraftPhase {
	// The hard ceiling overrides everything, including the model's own
	// phase and the first-turn rule: the loop must not run unbounded.
	if len(state.Text) >= d.max*charsPerToken {
		return types.PhaseDone
	}

	// Below the ceiling the first turn always continues, whatever its
	// length or self-reported phase.
	if state.Phase == types.PhaseInitial {
		return types.PhaseContinuation
	}

	// The target is the designed stopping point.
	if len(state.Text) >= d.target*charsPerToken {
		return types.PhaseDone
	}

	// A turn that contributed nothing cannot make progress; stop rather
	// than reissue the same prompt forever.
	if appended == "" {
		return types.PhaseDone
	}

	if turn.Phase == string(types.PhaseDone) {
		return types.PhaseDone
	}
	return types.PhaseContinuation
}

// parseTurn unmarshals one turn's structured response, attempting exactly
// one structural repair before giving up.
func parseTurn(raw string) (turnResponse, error) {
	start := strings.Index(raw, "{")
	if start < 0 {
		return turnResponse{}, fmt.Errorf("malformed turn response: no JSON object found")
	}

	var turn turnResponse

	// Well-formed case: the outermost braces bound a valid object, possibly
	// with prose around it.
	if end := strings.LastIndex(raw, "}"); end > start {
		if err := json.Unmarshal([]byte(raw[start:end+1]), &turn); err == nil {
			return turn, nil
		}
	}

	// Truncated case: repair from the first brace to the cut point.
	repaired, ok := repairJSON(raw[start:])
	if !ok {
		return turnResponse{}, fmt.Errorf("malformed turn response and repair not applicable")
	}
	if err := json.Unmarshal([]byte(repaired), &turn); err != nil {
		return turnResponse{}, fmt.Errorf("malformed turn response after repair: %w", err)
	}
	return turn, nil
}
