package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/edaconf/edaconf/pkg/engine"
)

func newDestroyCommand() *cobra.Command {
	var (
		yes       bool
		historyDB string
	)

	cmd := &cobra.Command{
		Use:   "destroy",
		Short: "Remove every resource the manifest declares",
		Long: `Reconcile the manifest with every resource's desired state forced to
absent, deleting whatever exists on the controller. Resources the
controller does not have are reported unchanged.

Users are removed before activations, the reverse of apply order.`,
		Example: `  # Remove everything the manifest declares
  edactl destroy --yes`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("destroy removes controller resources; re-run with --yes to confirm")
			}

			rt, err := newRuntime()
			if err != nil {
				return err
			}
			defer rt.shutdown()

			for i := range rt.manifest.Activations {
				rt.manifest.Activations[i].State = engine.StateAbsent
			}
			for i := range rt.manifest.Users {
				rt.manifest.Users[i].State = engine.StateAbsent
			}

			// Dependents go first so nothing is removed out from under
			// a resource that still references it.
			specs := rt.manifest.Specs()
			for i, j := 0, len(specs)-1; i < j; i, j = i+1, j-1 {
				specs[i], specs[j] = specs[j], specs[i]
			}

			ctx := cmd.Context()
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
				return fmt.Errorf("destroy failed: %s", summary.Error)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm destruction")
	cmd.Flags().StringVar(&historyDB, "history-db", "edaconf-history.db", "run history database path (empty disables history)")

	return cmd
}
