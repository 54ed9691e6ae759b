package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/edaconf/edaconf/pkg/stores"
)

func newHistoryCommand() *cobra.Command {
	var (
		dbPath string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Inspect past runs",
		Long: `List past reconcile runs, or show the per-resource results of one run.

Runs are recorded by apply, destroy, and watch unless history is
disabled with an empty --history-db.`,
		Example: `  # List recent runs
  edactl history

  # Show one run's results
  edactl history 6f1c9a1e-85b3-4f6e-9a57-1de2f9c3c2a1`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := stores.NewHistoryStore(dbPath)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if err := store.Init(ctx); err != nil {
				return err
			}
			defer store.Close()

			if len(args) == 1 {
				return showRun(cmd, store, args[0])
			}

			runs, err := store.ListRuns(ctx, limit, 0)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(runs)
			}
			for _, run := range runs {
				fmt.Printf("%-36s  %-9s  %s  %s\n",
					run.ID, run.Status, run.StartedAt.Format(time.RFC3339), run.ManifestPath)
				if run.Error != nil {
					fmt.Printf("  error: %s\n", *run.Error)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "history-db", "edaconf-history.db", "run history database path")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum runs to list")

	return cmd
}

func showRun(cmd *cobra.Command, store *stores.HistoryStore, runID string) error {
	ctx := cmd.Context()
	run, err := store.GetRun(ctx, runID)
	if err != nil {
		return err
	}
	results, err := store.ListResultsByRun(ctx, runID)
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(map[string]any{"run": run, "results": results})
	}

	fmt.Printf("Run %s (%s) started %s\n", run.ID, run.Status, run.StartedAt.Format(time.RFC3339))
	if run.Error != nil {
		fmt.Printf("Error: %s\n", *run.Error)
	}
	for _, r := range results {
		marker := " "
		if r.Changed {
			marker = "~"
		}
		fmt.Printf("%s %-10s %-12s %s\n", marker, r.Outcome, r.ResourceType, r.Key)
		if r.Diff != nil {
			fmt.Printf("  diff: %s\n", *r.Diff)
		}
	}
	return nil
}
