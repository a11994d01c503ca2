package source_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/open-rust-Initiative/cargo-plugins/internal/source"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func relPaths(files []*source.File) []string {
	var out []string
	for _, f := range files {
		out = append(out, f.RelPath)
	}
	return out
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "src/main.rs", "fn main() {}")
	writeFile(t, dir, "src/util/mod.rs", "")
	writeFile(t, dir, "crates/core/src/lib.rs", "")
	writeFile(t, dir, "build.rs", "")
	writeFile(t, dir, "src/notes.md", "")
	writeFile(t, dir, "target/debug/build/src/gen.rs", "")
	writeFile(t, dir, "tests/src/it.rs", "")
	writeFile(t, dir, ".git/src/x.rs", "")

	d := &source.Discovery{Exclude: []string{"target", "tests"}}
	files, err := d.Discover(dir)
	require.NoError(t, err)
	require.Equal(t, []string{"crates/core/src/lib.rs", "src/main.rs", "src/util/mod.rs"}, relPaths(files))

	require.NoError(t, files[1].Load())
	require.Equal(t, "fn main() {}", string(files[1].Content))
}

func TestDiscoverGlobExclude(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "src/lib.rs", "")
	writeFile(t, dir, "src/generated/proto.rs", "")
	writeFile(t, dir, "src/bin/tool.rs", "")

	d := &source.Discovery{Exclude: []string{"**/generated/**", "", "src/bin/*.rs"}}
	files, err := d.Discover(dir)
	require.NoError(t, err)
	require.Equal(t, []string{"src/lib.rs"}, relPaths(files))
}

func TestDiscoverIgnoreFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "src/lib.rs", "")
	writeFile(t, dir, "src/legacy.rs", "")
	writeFile(t, dir, source.IgnoreFileName, "# old code\nsrc/legacy.rs\n")

	d := &source.Discovery{}
	files, err := d.Discover(dir)
	require.NoError(t, err)
	require.Equal(t, []string{"src/lib.rs"}, relPaths(files))
}

func TestDiscoverEmpty(t *testing.T) {
	d := &source.Discovery{}
	files, err := d.Discover(t.TempDir())
	require.NoError(t, err)
	require.Empty(t, files)
}

func TestDiscoverFragmentsMatchDirectoriesOnly(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "src/lib.rs", "")
	writeFile(t, dir, "src/tests.rs", "")
	writeFile(t, dir, "src/latest.rs", "")
	writeFile(t, dir, "src/examples/demo.rs", "")
	writeFile(t, dir, "benches/src/bench.rs", "")

	d := &source.Discovery{Exclude: []string{"target", "tests", "benches", "examples"}}
	files, err := d.Discover(dir)
	require.NoError(t, err)
	require.Equal(t, []string{"src/latest.rs", "src/lib.rs", "src/tests.rs"}, relPaths(files))
}
