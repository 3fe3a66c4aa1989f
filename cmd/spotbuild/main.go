// Package main is the entry point for the spotbuild CLI.
//
// spotbuild provisions a single spot instance, builds a container image
// on it from a git repository, pushes the image to a registry and
// terminates the instance again.
//
// Commands: run, validate, cleanup, version.
//
// For detailed usage information, run:
//
//	spotbuild --help
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/imamik/spotbuild/cmd/spotbuild/commands"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	commands.SetVersionInfo(version, commit, date)
	err := commands.Root().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
