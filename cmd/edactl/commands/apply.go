package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newApplyCommand() *cobra.Command {
	var (
		dryRun    bool
		historyDB string
	)

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Converge the controller to the manifest",
		Long: `Reconcile every resource the manifest declares against the controller.

Resources are applied in manifest order, activations before users, so
resolvable references exist before the resources that use them. Each
resource is planned (reads only) and then applied; a failure stops the
run, leaving already-applied resources in place.

Activations cannot be updated in place by the controller: a changed
activation is deleted and recreated, and the run reports a warning.`,
		Example: `  # Converge the default manifest
  edactl apply

  # Show what would happen without doing it
  edactl apply --dry-run

  # Record the run in a specific history database
  edactl apply --history-db /var/lib/edaconf/history.db`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			defer rt.shutdown()

			ctx := cmd.Context()
			specs := rt.manifest.Specs()

			if dryRun {
				plans, err := rt.planAll(ctx, specs)
				if err != nil {
					return err
				}
				if jsonOutput {
					return printJSON(plans)
				}
				printPlans(plans)
				return nil
			}

			summary := rt.reconcileAll(ctx, specs)
			status := "completed"
			if summary.Failed {
				status = "failed"
			}
			rt.tel.Metrics.ObserveRun(status)
			recordRun(ctx, historyDB, summary, rt.tel.Logger)

			if jsonOutput {
				if err := printJSON(summary); err != nil {
					return err
				}
			} else {
				printSummary(summary)
			}
			if summary.Failed {
				return fmt.Errorf("apply failed: %s", summary.Error)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "plan only, perform no API writes")
	cmd.Flags().StringVar(&historyDB, "history-db", "edaconf-history.db", "run history database path (empty disables history)")

	return cmd
}

func printSummary(summary *runSummary) {
	for _, r := range summary.Results {
		marker := " "
		if r.Changed {
			marker = "~"
		}
		fmt.Printf("%s %-10s %-12s %s\n", marker, r.Outcome, r.ResourceType, r.Key)
		for _, w := range r.Warnings {
			fmt.Printf("  warning: %s\n", w)
		}
	}
	fmt.Printf("\nRun %s: %d changed, %d total\n", summary.RunID, summary.Changed, len(summary.Results))
	if summary.Failed {
		fmt.Printf("Error: %s\n", summary.Error)
	}
}
