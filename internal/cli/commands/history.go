package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapguard/internal/history"
)

// NewHistoryCommand creates the history command group.
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect the assessment history",
		Long:  `List and prune past assessments recorded in the history database.`,
	}

	cmd.AddCommand(newHistoryListCommand())
	cmd.AddCommand(newHistoryPruneCommand())
	return cmd
}

func openHistory(cmd *cobra.Command) (*history.SQLiteStore, error) {
	cfg := ConfigFrom(cmd.Context())
	if _, err := os.Stat(cfg.HistoryPath); err != nil {
		return nil, fmt.Errorf("no history database at %s", cfg.HistoryPath)
	}
	store := history.NewSQLiteStore()
	if err := store.Open(cfg.HistoryPath); err != nil {
		return nil, err
	}
	return store, nil
}

func newHistoryListCommand() *cobra.Command {
	var (
		sourceName string
		limit      int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent assessments, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			r := RendererFrom(ctx)

			store, err := openHistory(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			var entries []*history.Entry
			if sourceName != "" {
				entries, err = store.ListSource(ctx, sourceName, limit)
			} else {
				entries, err = store.List(ctx, limit)
			}
			if err != nil {
				return err
			}

			if r.JSONMode() {
				return r.JSON(entries)
			}

			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{
					e.CreatedAt.Format(time.RFC3339),
					e.SourceName,
					e.Mode,
					fmt.Sprintf("%.1f", e.OverallScore),
					e.Readiness,
				})
			}
			r.Table([]string{"When", "Source", "Mode", "Score", "Readiness"}, rows)
			return nil
		},
	}
	cmd.Flags().StringVar(&sourceName, "source", "", "Filter by source name")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum entries to list")
	return cmd
}

func newHistoryPruneCommand() *cobra.Command {
	var olderThan time.Duration
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete assessments older than a cutoff",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			r := RendererFrom(ctx)

			store, err := openHistory(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			n, err := store.Prune(ctx, time.Now().Add(-olderThan))
			if err != nil {
				return err
			}
			r.Printf("Pruned %d assessments\n", n)
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "Delete entries older than this")
	return cmd
}
