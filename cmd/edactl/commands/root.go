package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	manifestPath string
	verbose      bool
	jsonOutput   bool

	// Build metadata, set by Execute.
	buildVersion = "dev"
)

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	buildVersion = version
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "edactl",
		Short: "edaconf - declarative configuration for event-driven automation controllers",
		Long: `edactl reconciles a declarative manifest against an event-driven
automation controller's REST API.

The manifest declares rulebook activations and controller users by name.
edactl looks up what already exists, resolves referenced objects (projects,
decision environments, rulebooks, roles) to their identifiers, computes the
difference, and performs only the API calls needed to converge:

  - plan     show what would change, without touching the controller
  - apply    converge the controller to the manifest
  - destroy  remove everything the manifest declares
  - watch    re-apply whenever the manifest file changes
  - history  inspect past runs`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	}

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().StringVarP(&manifestPath, "manifest", "m", "edaconf.yaml", "manifest file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")

	rootCmd.AddCommand(newValidateCommand())
	rootCmd.AddCommand(newPlanCommand())
	rootCmd.AddCommand(newApplyCommand())
	rootCmd.AddCommand(newDestroyCommand())
	rootCmd.AddCommand(newWatchCommand())
	rootCmd.AddCommand(newHistoryCommand())

	return rootCmd
}
