// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/pdiddy/deepresearch/internal/ai"
	"github.com/pdiddy/deepresearch/pkg/types"
)

// turnModel replays scripted raw responses, one per drafting turn.
type turnModel struct {
	responses []string
	calls     int
	err       error
}

func (m *turnModel) GenerateText(_ context.Context, _ string) (ai.TextResult, error) {
	if m.err != nil {
		return ai.TextResult{}, m.err
	}
	if m.calls >= len(m.responses) {
		return ai.TextResult{}, fmt.Errorf("unexpected turn %d", m.calls+1)
	}
	raw := m.responses[m.calls]
	m.calls++
	return ai.TextResult{Text: raw, Usage: types.TokenUsage{InputTokens: 100, OutputTokens: 50}}, nil
}

func (m *turnModel) GenerateStructured(_ context.Context, _ string, _ any) (types.TokenUsage, error) {
	return types.TokenUsage{}, fmt.Errorf("not used")
}

func turnJSON(t *testing.T, text, phase string) string {
	t.Helper()
	b, err := json.Marshal(turnResponse{Text: text, Phase: phase})
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func testSession() *types.ResearchSession {
	return &types.ResearchSession{
		Topic:     "test topic",
		Plan:      "test plan",
		Reasoning: "VERDICT: sufficient",
		Evidence: types.EvidenceSet{
			{Query: "q", Sources: []types.Source{{Ref: 1, URL: "https://a.com", Title: "A", Domain: "a.com"}}},
		},
	}
}

func TestDraftSingleTurnAtCeiling(t *testing.T) {
	// target = max = 100 tokens (400 chars); the first turn already reaches
	// the hard ceiling, so the drafter moves directly to done after turn 1.
	m := &turnModel{responses: []string{
		turnJSON(t, strings.Repeat("x", 450), "continuation"),
	}}
	d, err := NewDrafter(m, types.ReportConfig{TargetOutputTokens: 100, MaxOutputTokens: 100}, nil)
	if err != nil {
		t.Fatalf("NewDrafter: %v", err)
	}

	state, usage, err := d.Draft(context.Background(), testSession())
	if err != nil {
		t.Fatalf("Draft: %v", err)
	}
	if m.calls != 1 {
		t.Errorf("turns issued = %d, want 1", m.calls)
	}
	if state.Phase != types.PhaseDone {
		t.Errorf("Phase = %q, want done", state.Phase)
	}
	if usage.Total() != 150 {
		t.Errorf("usage = %d, want 150", usage.Total())
	}
}

func TestDraftAccumulatesMonotonically(t *testing.T) {
	m := &turnModel{responses: []string{
		turnJSON(t, strings.Repeat("a", 100), "continuation"),
		turnJSON(t, strings.Repeat("b", 100), "continuation"),
		turnJSON(t, strings.Repeat("c", 300), "continuation"),
	}}
	// target 120 tokens = 480 chars; three turns needed.
	d, err := NewDrafter(m, types.ReportConfig{TargetOutputTokens: 120, MaxOutputTokens: 500}, nil)
	if err != nil {
		t.Fatalf("NewDrafter: %v", err)
	}

	state, _, err := d.Draft(context.Background(), testSession())
	if err != nil {
		t.Fatalf("Draft: %v", err)
	}
	if state.Turns != 3 {
		t.Errorf("Turns = %d, want 3", state.Turns)
	}
	if state.Phase != types.PhaseDone {
		t.Errorf("Phase = %q, want done", state.Phase)
	}
	for _, part := range []string{"aaa", "bbb", "ccc"} {
		if !strings.Contains(state.Text, part) {
			t.Errorf("draft missing %q segment", part)
		}
	}
}

func TestDraftFirstTurnNeverConcludesOnModelSayso(t *testing.T) {
	// The model reports done on turn 1 while far below target; the drafter
	// must keep going.
	m := &turnModel{responses: []string{
		turnJSON(t, "short intro", "done"),
		turnJSON(t, strings.Repeat("y", 500), "continuation"),
	}}
	d, err := NewDrafter(m, types.ReportConfig{TargetOutputTokens: 100, MaxOutputTokens: 200}, nil)
	if err != nil {
		t.Fatalf("NewDrafter: %v", err)
	}

	state, _, err := d.Draft(context.Background(), testSession())
	if err != nil {
		t.Fatalf("Draft: %v", err)
	}
	if m.calls != 2 {
		t.Errorf("turns = %d, want 2", m.calls)
	}
	if state.Phase != types.PhaseDone {
		t.Errorf("Phase = %q, want done", state.Phase)
	}
}

func TestDraftFirstTurnAtTargetBelowCeilingContinues(t *testing.T) {
	// The first turn crosses the target (400 chars) but stays below the hard
	// ceiling (800 chars); the drafter must still issue a second turn before
	// concluding.
	m := &turnModel{responses: []string{
		turnJSON(t, strings.Repeat("x", 450), "continuation"),
		turnJSON(t, strings.Repeat("y", 100), "continuation"),
	}}
	d, err := NewDrafter(m, types.ReportConfig{TargetOutputTokens: 100, MaxOutputTokens: 200}, nil)
	if err != nil {
		t.Fatalf("NewDrafter: %v", err)
	}

	state, _, err := d.Draft(context.Background(), testSession())
	if err != nil {
		t.Fatalf("Draft: %v", err)
	}
	if m.calls != 2 {
		t.Errorf("turns issued = %d, want 2 (initial must always transition to continuation below the ceiling)", m.calls)
	}
	if state.Phase != types.PhaseDone {
		t.Errorf("Phase = %q, want done", state.Phase)
	}
}

func TestDraftTrustsModelDoneInContinuation(t *testing.T) {
	m := &turnModel{responses: []string{
		turnJSON(t, strings.Repeat("a", 50), "continuation"),
		turnJSON(t, strings.Repeat("b", 50), "done"),
	}}
	d, err := NewDrafter(m, types.ReportConfig{TargetOutputTokens: 1000, MaxOutputTokens: 2000}, nil)
	if err != nil {
		t.Fatalf("NewDrafter: %v", err)
	}

	state, _, err := d.Draft(context.Background(), testSession())
	if err != nil {
		t.Fatalf("Draft: %v", err)
	}
	if m.calls != 2 {
		t.Errorf("turns = %d, want 2", m.calls)
	}
	if state.Phase != types.PhaseDone {
		t.Errorf("Phase = %q, want done", state.Phase)
	}
}

func TestDraftForcesDoneAtHardCeiling(t *testing.T) {
	// The model never reports done; the ceiling must end the loop anyway.
	long := turnJSON(t, strings.Repeat("z", 300), "continuation")
	m := &turnModel{responses: []string{long, long, long, long, long, long, long, long}}
	// target == max == 500 tokens (2000 chars): 7 turns of 300 chars (plus
	// separators) cross it.
	d, err := NewDrafter(m, types.ReportConfig{TargetOutputTokens: 500, MaxOutputTokens: 500}, nil)
	if err != nil {
		t.Fatalf("NewDrafter: %v", err)
	}

	state, _, err := d.Draft(context.Background(), testSession())
	if err != nil {
		t.Fatalf("Draft: %v", err)
	}
	if state.Phase != types.PhaseDone {
		t.Errorf("Phase = %q, want done", state.Phase)
	}
	if len(state.Text) < 500*charsPerToken {
		t.Errorf("draft ended below the ceiling without the model reporting done: %d chars", len(state.Text))
	}
}

func TestDraftEmptyTurnForcesDone(t *testing.T) {
	m := &turnModel{responses: []string{
		turnJSON(t, "some text", "continuation"),
		turnJSON(t, "", "continuation"),
	}}
	d, err := NewDrafter(m, types.ReportConfig{TargetOutputTokens: 1000, MaxOutputTokens: 2000}, nil)
	if err != nil {
		t.Fatalf("NewDrafter: %v", err)
	}

	state, _, err := d.Draft(context.Background(), testSession())
	if err != nil {
		t.Fatalf("Draft: %v", err)
	}
	if m.calls != 2 {
		t.Errorf("turns = %d, want 2", m.calls)
	}
	if state.Phase != types.PhaseDone {
		t.Errorf("Phase = %q, want done", state.Phase)
	}
}

func TestDraftRepairsTruncatedTurn(t *testing.T) {
	// The first response is cut off mid-string; the one repair attempt must
	// recover the text written so far.
	m := &turnModel{responses: []string{
		`{"text": "The findings so far are subst`,
		turnJSON(t, strings.Repeat("m", 500), "continuation"),
	}}
	d, err := NewDrafter(m, types.ReportConfig{TargetOutputTokens: 100, MaxOutputTokens: 200}, nil)
	if err != nil {
		t.Fatalf("NewDrafter: %v", err)
	}

	state, _, err := d.Draft(context.Background(), testSession())
	if err != nil {
		t.Fatalf("Draft: %v", err)
	}
	if !strings.Contains(state.Text, "The findings so far are subst") {
		t.Errorf("repaired turn text lost: %q", state.Text[:min(80, len(state.Text))])
	}
}

func TestDraftUnrepairableTurnFails(t *testing.T) {
	m := &turnModel{responses: []string{"no json here at all"}}
	d, err := NewDrafter(m, types.ReportConfig{TargetOutputTokens: 100, MaxOutputTokens: 200}, nil)
	if err != nil {
		t.Fatalf("NewDrafter: %v", err)
	}

	if _, _, err := d.Draft(context.Background(), testSession()); err == nil {
		t.Fatal("expected error for unrepairable response")
	}
}

func TestDraftModelErrorReturnsPartialState(t *testing.T) {
	m := &turnModel{err: fmt.Errorf("model down")}
	d, err := NewDrafter(m, types.ReportConfig{TargetOutputTokens: 100, MaxOutputTokens: 200}, nil)
	if err != nil {
		t.Fatalf("NewDrafter: %v", err)
	}

	state, _, err := d.Draft(context.Background(), testSession())
	if err == nil {
		t.Fatal("expected error")
	}
	if state.Phase == types.PhaseDone {
		t.Error("failed draft must not report done")
	}
}

func TestNewDrafterRejectsBadBudget(t *testing.T) {
	m := &turnModel{}
	if _, err := NewDrafter(m, types.ReportConfig{TargetOutputTokens: 200, MaxOutputTokens: 100}, nil); err == nil {
		t.Fatal("expected error for max < target")
	}
	if _, err := NewDrafter(m, types.ReportConfig{TargetOutputTokens: 0, MaxOutputTokens: 100}, nil); err == nil {
		t.Fatal("expected error for zero target")
	}
}
