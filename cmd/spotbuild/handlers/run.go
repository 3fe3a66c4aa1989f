package handlers

import (
	"context"
	"fmt"
	"io"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/imamik/spotbuild/internal/provisioning/image"
)

// RunOptions holds the flags of the run command.
type RunOptions struct {
	ConfigPath string
	// Strict turns a failed build into a non-zero exit code.
	Strict bool
	// MetricsFile receives the run metrics in Prometheus text format.
	MetricsFile string
}

// Run performs one provision, build and terminate cycle.
//
// Configuration and client setup errors are always returned. A failed
// build has already been logged by the builder and is only returned when
// opts.Strict is set.
func Run(ctx context.Context, opts RunOptions, out io.Writer) error {
	log := logr.FromContextOrDiscard(ctx)

	cfg, err := loadConfig(opts.ConfigPath)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	if err := image.RegisterMetrics(reg); err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	var commit string
	if cfg.Source.PinCommit {
		commit, err = resolveCommit(ctx, cfg.Source.RepoURL, cfg.Source.Ref)
		if err != nil {
			err = fmt.Errorf("failed to pin commit: %w", err)
			log.Error(err, "build aborted before provisioning")
			return buildResult(opts, reg, err)
		}
		log.Info("pinned source commit", "ref", cfg.Source.Ref, "commit", commit)
	}

	provisioner, err := newProvisioner(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create provisioner: %w", err)
	}
	dialer, err := newDialer(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create ssh dialer: %w", err)
	}

	builderOpts := []image.Option{
		image.WithBootGrace(cfg.Timeouts.BootGrace),
		image.WithCommandTimeout(cfg.Timeouts.Command),
		image.WithTerminateTimeout(cfg.Timeouts.Terminate),
		image.WithCommit(commit),
	}
	if cfg.Artifacts.Enabled() {
		archiver, err := newArchiver(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to create archiver: %w", err)
		}
		builderOpts = append(builderOpts, image.WithArchiver(archiver))
	}

	builder := image.NewBuilder(provisioner, dialer, image.NewScript(scriptOptions(cfg, commit)), builderOpts...)
	report, runErr := builder.Run(ctx)
	if report != nil {
		fmt.Fprint(out, renderReport(report, runErr))
	}

	return buildResult(opts, reg, runErr)
}

// buildResult writes the metrics file and applies the strict policy.
func buildResult(opts RunOptions, reg prometheus.Gatherer, runErr error) error {
	if opts.MetricsFile != "" {
		if err := prometheus.WriteToTextfile(opts.MetricsFile, reg); err != nil {
			return fmt.Errorf("failed to write metrics file: %w", err)
		}
	}
	if runErr != nil && opts.Strict {
		return fmt.Errorf("build failed: %w", runErr)
	}
	return nil
}
