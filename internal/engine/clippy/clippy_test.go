package clippy_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/open-rust-Initiative/cargo-plugins/internal/engine/clippy"
	"github.com/stretchr/testify/require"
)

func fakeCargo(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fake requires a unix shell")
	}
	path := filepath.Join(t.TempDir(), "cargo")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0755))
	return path
}

func TestRunCapturesStderr(t *testing.T) {
	bin := fakeCargo(t, `echo "args: $*" >&2
echo "= note: #[warn(clippy::todo)] on by default" >&2
echo "stdout is ignored"
exit 101
`)
	var buf bytes.Buffer
	r := &clippy.Runner{Cargo: bin}
	require.NoError(t, r.Run(context.Background(), "/p/Cargo.toml", &buf))
	require.Contains(t, buf.String(), "args: clippy --manifest-path /p/Cargo.toml")
	require.Contains(t, buf.String(), "#[warn(clippy::todo)]")
	require.NotContains(t, buf.String(), "stdout")
}

func TestRunExtraArgs(t *testing.T) {
	bin := fakeCargo(t, `echo "$*" >&2`)
	var buf bytes.Buffer
	r := &clippy.Runner{Cargo: bin, Args: []string{"--all-targets"}}
	require.NoError(t, r.Run(context.Background(), "Cargo.toml", &buf))
	require.Equal(t, "clippy --manifest-path Cargo.toml --all-targets\n", buf.String())
}

func TestRunMissingBinary(t *testing.T) {
	r := &clippy.Runner{Cargo: filepath.Join(t.TempDir(), "no-such-cargo")}
	err := r.Run(context.Background(), "Cargo.toml", &bytes.Buffer{})
	require.ErrorIs(t, err, clippy.ErrCargoNotFound)
}
