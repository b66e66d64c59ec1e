// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/deepresearch/internal/ai"
	"github.com/pdiddy/deepresearch/internal/cite"
	"github.com/pdiddy/deepresearch/internal/dispatch"
	"github.com/pdiddy/deepresearch/internal/fetch"
	"github.com/pdiddy/deepresearch/internal/reason"
	"github.com/pdiddy/deepresearch/internal/registry"
	"github.com/pdiddy/deepresearch/internal/report"
	"github.com/pdiddy/deepresearch/internal/research"
	"github.com/pdiddy/deepresearch/internal/session"
	"github.com/pdiddy/deepresearch/internal/websearch"
	"github.com/pdiddy/deepresearch/pkg/types"
)

// modelCallTimeout bounds a single model API round trip. Drafting turns can
// run long, so this is independent of the search timeout.
const modelCallTimeout = 5 * time.Minute

var runCmd = &cobra.Command{
	Use:   "run [topic...]",
	Short: "Run a research session and draft a cited report",
	Long: `Run executes a full research session for the given topic: it plans search
queries, dispatches them in parallel, reasons over the evidence, and repeats
until the evidence is judged sufficient or the depth bound is reached. It
then drafts a report in budgeted turns, resolves citation markers against
the source registry, and persists everything to the session store.

The report is written to stdout; progress goes to stderr.`,
	RunE: runSession,
}

func init() {
	runCmd.Flags().Int("max-depth", 0, "override research.max_depth")
	runCmd.Flags().Int("parallel", 0, "override research.max_parallel_topics")
	runCmd.Flags().Int("target-tokens", 0, "override report.target_output_tokens")
	runCmd.Flags().Int("max-tokens", 0, "override report.max_output_tokens")
	runCmd.Flags().String("model", "", "override ai.model")
	runCmd.Flags().Bool("fetch-content", false, "fetch full page content for sources with empty extracts")
	runCmd.Flags().Bool("no-save", false, "skip persisting the session")

	rootCmd.AddCommand(runCmd)
}

func runSession(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide a research topic")
	}
	topic := strings.Join(args, " ")

	cfg := buildConfig()
	applyRunOverrides(cmd, &cfg)

	if cfg.AI.APIKey == "" {
		return fmt.Errorf("no model API key: set ai.api_key or provide .secrets/anthropic-api-key")
	}
	if cfg.Search.APIKey == "" {
		return fmt.Errorf("no search API key: set search.api_key or provide .secrets/tavily-api-key")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	model := ai.NewClaude(cfg.AI, &http.Client{Timeout: modelCallTimeout})
	provider := websearch.NewTavily(cfg.Search)

	var enricher dispatch.ContentEnricher
	if cfg.Search.FetchContent {
		enricher = fetch.New(cfg.Search.HTTPConfig)
	}
	dispatcher := dispatch.New(provider, cfg.Search, cfg.Research.MaxParallelTopics, enricher, os.Stderr)

	loop, err := research.NewLoop(
		cfg,
		research.NewPlanner(model),
		dispatcher,
		registry.New(),
		reason.NewReasoner(model),
		reason.NewGate(model, cfg.Research.ConfidenceThreshold),
		os.Stderr,
	)
	if err != nil {
		return err
	}

	sess, runErr := loop.Run(ctx, topic)

	noSave, _ := cmd.Flags().GetBool("no-save")
	var store *session.Store
	if !noSave {
		store, err = session.NewStore(cfg.Store)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.Save(ctx, sess, loop.Registry().Sources()); err != nil {
			return err
		}
	}
	if runErr != nil {
		return fmt.Errorf("session %s: %w", sess.ID, runErr)
	}

	fmt.Fprintf(os.Stderr, "research done: %d sources, stop reason %s\n",
		loop.Registry().Len(), sess.StopReason)

	drafter, err := report.NewDrafter(model, cfg.Report, os.Stderr)
	if err != nil {
		return err
	}
	state, usage, err := drafter.Draft(ctx, sess)
	sess.Usage.Add(usage)
	if err != nil {
		return fmt.Errorf("drafting report for session %s: %w", sess.ID, err)
	}

	res := cite.Resolve(state.Text, loop.Registry())
	rep := types.Report{Text: res.Text, Bibliography: res.Bibliography, Usage: usage}

	if store != nil {
		if err := store.Save(ctx, sess, loop.Registry().Sources()); err != nil {
			return err
		}
		if err := store.SaveReport(ctx, sess.ID, rep); err != nil {
			return err
		}
		if err := store.ExportYAML(sess, loop.Registry().Sources(), &rep); err != nil {
			return err
		}
	}

	fmt.Println(rep.Text)
	if len(rep.Bibliography) > 0 {
		fmt.Println("\n## References")
		for _, line := range rep.Bibliography {
			fmt.Println(line)
		}
	}
	fmt.Fprintf(os.Stderr, "session %s: %d turns, %d tokens total\n",
		sess.ID, state.Turns, sess.Usage.Total())
	return nil
}

func applyRunOverrides(cmd *cobra.Command, cfg *types.Config) {
	if v, _ := cmd.Flags().GetInt("max-depth"); v > 0 {
		cfg.Research.MaxDepth = v
	}
	if v, _ := cmd.Flags().GetInt("parallel"); v > 0 {
		cfg.Research.MaxParallelTopics = v
	}
	if v, _ := cmd.Flags().GetInt("target-tokens"); v > 0 {
		cfg.Report.TargetOutputTokens = v
	}
	if v, _ := cmd.Flags().GetInt("max-tokens"); v > 0 {
		cfg.Report.MaxOutputTokens = v
	}
	if v, _ := cmd.Flags().GetString("model"); v != "" {
		cfg.AI.Model = v
	}
	if cmd.Flags().Changed("fetch-content") {
		v, _ := cmd.Flags().GetBool("fetch-content")
		cfg.Search.FetchContent = v
	}
}
