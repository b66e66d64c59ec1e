// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package research drives the depth-bounded plan/search/reason/decide loop.
// Depth is an unconditional upper bound: the loop terminates within MaxDepth
// iterations regardless of what any model call returns.
package research

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/deepresearch/internal/dispatch"
	"github.com/pdiddy/deepresearch/internal/reason"
	"github.com/pdiddy/deepresearch/internal/registry"
	"github.com/pdiddy/deepresearch/pkg/types"
)

// Loop composes the planner, dispatcher, registry, reasoner, and gate into
// the research state machine. All collaborators are injected at
// construction; the loop owns no global state.
type Loop struct {
	planner    *Planner
	dispatcher *dispatch.Dispatcher
	registry   *registry.Registry
	reasoner   *reason.Reasoner
	gate       *reason.Gate
	cfg        types.ResearchConfig
	target     int // report target tokens, passed to the gate
	w          io.Writer
}

// NewLoop validates the configuration and wires the loop. Validation runs
// here, before any collaborator call: a bad budget or depth is a
// construction error, never a runtime surprise.
func NewLoop(
	cfg types.Config,
	planner *Planner,
	dispatcher *dispatch.Dispatcher,
	reg *registry.Registry,
	reasoner *reason.Reasoner,
	gate *reason.Gate,
	w io.Writer,
) (*Loop, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if w == nil {
		w = io.Discard
	}
	return &Loop{
		planner:    planner,
		dispatcher: dispatcher,
		registry:   reg,
		reasoner:   reasoner,
		gate:       gate,
		cfg:        cfg.Research,
		target:     cfg.Report.TargetOutputTokens,
		w:          w,
	}, nil
}

// Registry returns the loop's source registry for citation resolution and
// bibliography generation.
func (l *Loop) Registry() *registry.Registry {
	return l.registry
}

// Run executes the research loop for topic. On failure the partially
// populated session is returned alongside the error so callers can inspect
// the evidence gathered up to the failing phase.
//
// Each iteration runs PLANNING → SEARCHING → REASONING → DECIDING, then
// stops on exactly one of two conditions, checked in priority order:
// depth ≥ MaxDepth (StopMaxDepth), then Decision.IsComplete
// (StopSufficient). Cancellation is checked at iteration boundaries, not
// mid-call.
func (l *Loop) Run(ctx context.Context, topic string) (*types.ResearchSession, error) {
	sess := &types.ResearchSession{
		ID:        uuid.NewString(),
		Topic:     topic,
		MaxDepth:  l.cfg.MaxDepth,
		StartedAt: time.Now().UTC(),
	}

	for {
		if err := ctx.Err(); err != nil {
			return l.finish(sess), err
		}

		// PLANNING: new queries are appended, never replacing prior ones.
		plan, queries, usage, err := l.planner.Plan(ctx, topic, sess.Reasoning, l.cfg.MaxParallelTopics)
		sess.Usage.Add(usage)
		if err != nil {
			return l.finish(sess), fmt.Errorf("planning (depth %d): %w", sess.Depth+1, err)
		}
		sess.Plan = plan
		sess.Queries = append(sess.Queries, queries...)
		fmt.Fprintf(l.w, "depth %d: searching %d queries\n", sess.Depth+1, len(queries))

		// SEARCHING: the batch joins inside Dispatch; the registry is only
		// touched after that join, from this goroutine.
		batch := l.dispatcher.Dispatch(ctx, queries)
		for i := range batch {
			batch[i].Sources = l.registry.Register(batch[i].Sources)
		}
		sess.Evidence = l.registry.Dedupe(append(sess.Evidence, batch...))
		fmt.Fprintf(l.w, "depth %d: %d sources in evidence\n", sess.Depth+1, sess.Evidence.SourceCount())

		// REASONING: a failure here is fatal. Continuing with unknown
		// sufficiency would break the termination contract.
		trace, usage2, err := l.reasoner.Reason(ctx, topic, sess.Plan, sess.Evidence, sess.Queries)
		sess.Usage.Add(usage2)
		if err != nil {
			return l.finish(sess), fmt.Errorf("reasoning (depth %d): %w", sess.Depth+1, err)
		}
		sess.Reasoning = trace

		// DECIDING: recomputed fresh each iteration from the current trace.
		decision, usage3, err := l.gate.Decide(ctx, trace, l.target)
		sess.Usage.Add(usage3)
		if err != nil {
			return l.finish(sess), fmt.Errorf("deciding (depth %d): %w", sess.Depth+1, err)
		}
		sess.Decision = decision
		sess.Depth++

		// The depth cap outranks the model's verdict.
		if sess.Depth >= sess.MaxDepth {
			sess.StopReason = types.StopMaxDepth
			break
		}
		if decision.IsComplete {
			sess.StopReason = types.StopSufficient
			break
		}
	}

	fmt.Fprintf(l.w, "research complete after depth %d (%s)\n", sess.Depth, sess.StopReason)
	return l.finish(sess), nil
}

func (l *Loop) finish(sess *types.ResearchSession) *types.ResearchSession {
	sess.FinishedAt = time.Now().UTC()
	return sess
}
