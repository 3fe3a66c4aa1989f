package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/spotbuild/cmd/spotbuild/handlers"
	"github.com/imamik/spotbuild/internal/config"
)

// Cleanup returns the command that terminates every instance spotbuild
// launched that is still alive, e.g. after the process was killed mid-run.
func Cleanup() *cobra.Command {
	var (
		configPath string
		dryRun     bool
	)

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Terminate leftover build instances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Cleanup(cmd.Context(), configPath, dryRun, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Path to configuration file")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List leftover instances without terminating them")

	return cmd
}
