package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/spotbuild/cmd/spotbuild/handlers"
	"github.com/imamik/spotbuild/internal/config"
)

// Validate returns the command that checks a configuration file and prints
// the remote command sequence it would run. Secrets are never printed.
func Validate() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration and show the remote commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Validate(cmd.Context(), configPath, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Path to configuration file")

	return cmd
}
