package handlers

import (
	"context"
	"fmt"
	"io"

	"github.com/imamik/spotbuild/internal/provisioning/image"
)

// Validate loads the configuration and prints the remote command sequence.
// The registry password is delivered on stdin and never part of the output.
func Validate(_ context.Context, configPath string, out io.Writer) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	script := image.NewScript(scriptOptions(cfg, ""))

	fmt.Fprintf(out, "Configuration %s is valid (provider %s)\n", configPath, cfg.Provider)
	if cfg.Source.PinCommit {
		fmt.Fprintln(out, "Source ref is pinned to a commit at run time")
	}
	fmt.Fprintln(out, "Remote commands:")
	for i, c := range script.Commands() {
		fmt.Fprintf(out, "  %2d. %s\n", i+1, c)
	}
	fmt.Fprintln(out, "Images:")
	for _, ref := range script.Images() {
		fmt.Fprintf(out, "  - %s\n", ref)
	}
	return nil
}
