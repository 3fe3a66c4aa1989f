package handlers

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/go-logr/logr"

	"github.com/imamik/spotbuild/internal/util/async"
)

// Cleanup terminates every live instance that carries the managed tag.
// With dryRun the instances are only listed.
func Cleanup(ctx context.Context, configPath string, dryRun bool, out io.Writer) error {
	log := logr.FromContextOrDiscard(ctx)

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	provisioner, err := newProvisioner(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create provisioner: %w", err)
	}

	ids, err := provisioner.ListManaged(ctx)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		fmt.Fprintln(out, "No leftover instances found")
		return nil
	}

	if dryRun {
		for _, id := range ids {
			fmt.Fprintf(out, "Would terminate %s\n", id)
		}
		return nil
	}

	var mu sync.Mutex
	tasks := make([]async.Task, 0, len(ids))
	for _, id := range ids {
		tasks = append(tasks, async.Task{
			Name: id,
			Func: func(ctx context.Context) error {
				ctx, cancel := context.WithTimeout(ctx, cfg.Timeouts.Terminate)
				defer cancel()
				if err := provisioner.Terminate(ctx, id); err != nil {
					log.Error(err, "failed to terminate instance", "instanceID", id)
					return err
				}
				mu.Lock()
				defer mu.Unlock()
				fmt.Fprintf(out, "Terminated %s\n", id)
				return nil
			},
		})
	}
	return async.RunParallel(ctx, tasks)
}
