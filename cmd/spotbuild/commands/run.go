package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/spotbuild/cmd/spotbuild/handlers"
	"github.com/imamik/spotbuild/internal/config"
)

// Run returns the command that performs one build.
//
// A failed build is logged and, unless --strict is set, does not change the
// exit code. Configuration errors always exit non-zero.
//
// Flags:
//
//	--config: Path to the configuration file (default: "spotbuild.yaml")
//	--strict: Exit non-zero when the build fails
//	--metrics-file: Write run metrics in Prometheus text format to this file
//
// Environment variables:
//
//	REGISTRY_PASSWORD: Registry password, delivered to the instance on stdin
//	HCLOUD_TOKEN: Hetzner Cloud API token (provider hcloud)
//	AWS_*: Standard AWS SDK credentials and region (provider ec2)
func Run() *cobra.Command {
	opts := handlers.RunOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Provision an instance, build and push the image, then terminate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Run(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", config.DefaultPath, "Path to configuration file")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "Exit with a non-zero status when the build fails")
	cmd.Flags().StringVar(&opts.MetricsFile, "metrics-file", "", "Write Prometheus metrics to this file after the run")

	return cmd
}
