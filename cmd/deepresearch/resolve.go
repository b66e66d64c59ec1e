// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/deepresearch/internal/cite"
	"github.com/pdiddy/deepresearch/internal/registry"
	"github.com/pdiddy/deepresearch/internal/session"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [session-id]",
	Short: "Resolve citation markers in a draft against a stored session",
	Long: `Resolve rebuilds the source registry of a stored session and rewrites the
reference markers of a draft against it. With --draft it reads the draft from
a file; otherwise it reads from stdin. Resolution is idempotent: already
resolved markers are left untouched, and unknown reference numbers survive
as bare bracketed numbers.`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().String("draft", "", "draft file to resolve (default: stdin)")

	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	cfg := buildConfig()

	store, err := session.NewStore(cfg.Store)
	if err != nil {
		return err
	}
	defer store.Close()

	_, sources, err := store.Load(context.Background(), args[0])
	if err != nil {
		return err
	}

	draft, err := readDraft(cmd)
	if err != nil {
		return err
	}

	reg := registry.New()
	reg.Register(sources)

	res := cite.Resolve(draft, reg)

	fmt.Println(res.Text)
	if len(res.Bibliography) > 0 {
		fmt.Println("\n## References")
		for _, line := range res.Bibliography {
			fmt.Println(line)
		}
	}
	return nil
}

func readDraft(cmd *cobra.Command) (string, error) {
	path, _ := cmd.Flags().GetString("draft")
	if path == "" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("reading draft from stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading draft file: %w", err)
	}
	return string(data), nil
}
