package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/edaconf/edaconf/pkg/engine"
)

func newPlanCommand() *cobra.Command {
	var (
		outFile          string
		detailedExitCode bool
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show what apply would change",
		Long: `Compare the manifest's desired state with the controller's actual state
and report the operation each resource needs, without performing any of
them.

The plan phase performs only reads: existing resources are looked up,
referenced objects are resolved to identifiers, and the per-field diff is
computed. A resolution failure (missing or ambiguous reference) fails the
plan before any mutation would have happened.`,
		Example: `  # Show the plan
  edactl plan

  # Save the plan as JSON
  edactl plan --out plan.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			defer rt.shutdown()

			plans, err := rt.planAll(cmd.Context(), rt.manifest.Specs())
			if err != nil {
				return err
			}

			if outFile != "" {
				data, err := json.MarshalIndent(plans, "", "  ")
				if err != nil {
					return err
				}
				if err := os.WriteFile(outFile, data, 0o644); err != nil {
					return fmt.Errorf("write plan file: %w", err)
				}
			}

			if jsonOutput {
				if err := printJSON(plans); err != nil {
					return err
				}
			} else {
				printPlans(plans)
			}

			if detailedExitCode {
				for _, p := range plans {
					if p.Changed() {
						rt.shutdown()
						os.Exit(2)
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outFile, "out", "o", "", "write the plan as JSON to this file")
	cmd.Flags().BoolVar(&detailedExitCode, "detailed-exitcode", false, "exit 2 when changes are pending")

	return cmd
}

func printPlans(plans []*engine.Plan) {
	changes := 0
	for _, p := range plans {
		if p.Changed() {
			changes++
		}
		fmt.Printf("%-10s %-12s %-30s %s\n", p.Operation, p.ResourceType, p.Key, diffSummary(p.Diff))
		for _, w := range p.Warnings {
			fmt.Printf("  warning: %s\n", w)
		}
		for _, c := range p.Diff {
			fmt.Printf("  %s: %v -> %v\n", c.Field, c.Before, c.After)
		}
	}
	fmt.Printf("\nPlan: %d to change, %d unchanged\n", changes, len(plans)-changes)
}

func diffSummary(diff []engine.FieldChange) string {
	if len(diff) == 0 {
		return ""
	}
	return fmt.Sprintf("(%d field(s) differ)", len(diff))
}
