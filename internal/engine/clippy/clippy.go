// Package clippy runs `cargo clippy` and captures its diagnostics.
package clippy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
)

// ErrCargoNotFound is returned when the cargo binary cannot be located.
var ErrCargoNotFound = errors.New("cargo binary not found")

// Runner invokes clippy against one manifest.
type Runner struct {
	// Cargo is the cargo executable; "cargo" when empty.
	Cargo string
	// Args are appended after the manifest path.
	Args []string
}

func (r *Runner) binary() string {
	if r.Cargo == "" {
		return "cargo"
	}
	return r.Cargo
}

// Run writes clippy's stderr to w. Lint findings make clippy exit non-zero,
// so an exit status is not an error; failing to start the process is.
func (r *Runner) Run(ctx context.Context, manifest string, w io.Writer) error {
	bin, err := exec.LookPath(r.binary())
	if err != nil {
		return fmt.Errorf("%w: %s", ErrCargoNotFound, r.binary())
	}
	args := append([]string{"clippy", "--manifest-path", manifest}, r.Args...)
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stderr = w
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && ctx.Err() == nil {
			return nil
		}
		return fmt.Errorf("running %s clippy: %w", r.binary(), err)
	}
	return nil
}
