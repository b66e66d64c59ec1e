// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/deepresearch/internal/session"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List stored research sessions",
	Long: `Sessions lists every research session in the store, most recent first,
with its topic, reached depth, and stop reason.`,
	RunE: runSessions,
}

func init() {
	sessionsCmd.Flags().Bool("json", false, "output sessions as JSON")

	rootCmd.AddCommand(sessionsCmd)
}

func runSessions(cmd *cobra.Command, args []string) error {
	cfg := buildConfig()

	store, err := session.NewStore(cfg.Store)
	if err != nil {
		return err
	}
	defer store.Close()

	summaries, err := store.List(context.Background())
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summaries)
	}

	if len(summaries) == 0 {
		fmt.Println("No sessions stored.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-36s  %-19s  %-5s  %-18s  %s\n",
		"ID", "Started", "Depth", "Stop", "Topic")
	for _, s := range summaries {
		topic := s.Topic
		if len(topic) > 60 {
			topic = topic[:57] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-36s  %-19s  %-5d  %-18s  %s\n",
			s.ID, s.StartedAt.Format("2006-01-02 15:04:05"), s.Depth, s.StopReason, topic)
	}
	fmt.Fprintf(os.Stdout, "\n%d sessions\n", len(summaries))
	return nil
}
