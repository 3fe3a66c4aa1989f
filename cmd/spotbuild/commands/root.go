// Package commands defines the CLI command structure and flag bindings.
//
// This package contains cobra command definitions that handle argument parsing,
// flag binding, and validation. Command execution is delegated to handler
// functions in the handlers package.
package commands

import (
	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"github.com/imamik/spotbuild/internal/logging"
)

// Root returns the root command for the spotbuild CLI.
//
// The root command installs the logger into the command context before any
// subcommand runs. Handlers read it back with logr.FromContextOrDiscard.
func Root() *cobra.Command {
	var verbosity int

	cmd := &cobra.Command{
		Use:           "spotbuild",
		Short:         "Build and push container images on spot instances",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			log := logging.New(logging.Options{
				Output:    cmd.ErrOrStderr(),
				Verbosity: verbosity,
			})
			cmd.SetContext(logr.NewContext(cmd.Context(), log))
		},
	}

	cmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (repeatable)")

	cmd.AddCommand(Run())
	cmd.AddCommand(Validate())
	cmd.AddCommand(Cleanup())
	cmd.AddCommand(Version())

	return cmd
}
