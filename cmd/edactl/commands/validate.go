package commands

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/edaconf/edaconf/pkg/config"
)

func newValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the manifest",
		Long: `Validate the manifest without contacting the controller.

Checks that the manifest parses, rejects unknown fields, and enforces
per-resource constraints (required fields, restart policy values, at
least one role per user).`,
		Example: `  # Validate the default manifest
  edactl validate

  # Validate a specific manifest
  edactl validate -m production.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			manifest, err := config.NewLoader().Load(manifestPath)
			if err != nil {
				return err
			}

			log.Info().
				Str("manifest", manifestPath).
				Int("activations", len(manifest.Activations)).
				Int("users", len(manifest.Users)).
				Msg("Manifest is valid")

			if jsonOutput {
				return printJSON(map[string]any{
					"valid":       true,
					"manifest":    manifestPath,
					"activations": len(manifest.Activations),
					"users":       len(manifest.Users),
				})
			}
			fmt.Printf("%s: valid (%d activations, %d users)\n",
				manifestPath, len(manifest.Activations), len(manifest.Users))
			return nil
		},
	}
	return cmd
}
