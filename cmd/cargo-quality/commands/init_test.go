package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/open-rust-Initiative/cargo-plugins/internal/config"
)

func resetInitFlags(t *testing.T) {
	t.Helper()
	flagInitProject, flagInitConfig = "", ""
	t.Cleanup(func() { flagInitProject, flagInitConfig = "", "" })
}

func TestInitCreatesConfig(t *testing.T) {
	resetInitFlags(t)
	dir := t.TempDir()

	require.NoError(t, runInit(nil, []string{dir}))

	data, err := os.ReadFile(filepath.Join(dir, config.DefaultFileName))
	require.NoError(t, err)
	require.Equal(t, config.Template, string(data))

	_, err = config.Load(filepath.Join(dir, config.DefaultFileName), nil)
	require.NoError(t, err)
}

func TestInitProjectFlag(t *testing.T) {
	resetInitFlags(t)
	dir := filepath.Join(t.TempDir(), "crate")
	flagInitProject = dir

	require.NoError(t, runInit(nil, nil))
	require.FileExists(t, filepath.Join(dir, config.DefaultFileName))
}

func TestInitConfigFlag(t *testing.T) {
	resetInitFlags(t)
	path := filepath.Join(t.TempDir(), "custom.toml")
	flagInitConfig = path

	require.NoError(t, runInit(nil, nil))
	require.FileExists(t, path)
}

func TestInitRefusesExisting(t *testing.T) {
	resetInitFlags(t)
	dir := t.TempDir()
	existing := filepath.Join(dir, config.DefaultFileName)
	require.NoError(t, os.WriteFile(existing, []byte("custom = true\n"), 0o644))

	err := runInit(nil, []string{dir})
	require.ErrorIs(t, err, ErrConfigExists)

	data, err := os.ReadFile(existing)
	require.NoError(t, err)
	require.Equal(t, "custom = true\n", string(data))
}

func TestInitRefusesInvalidFilename(t *testing.T) {
	resetInitFlags(t)
	base := t.TempDir()
	for _, p := range []string{
		filepath.Join(base, "newdir") + string(filepath.Separator),
		base + string(filepath.Separator) + "sub" + string(filepath.Separator) + "..",
		".",
	} {
		flagInitConfig = p
		err := runInit(nil, nil)
		require.ErrorIs(t, err, ErrInvalidFilename, p)
	}
	_, err := os.Stat(filepath.Join(base, "newdir"))
	require.True(t, os.IsNotExist(err), "no directory should be created")
}

func TestInitDefaultDir(t *testing.T) {
	resetInitFlags(t)
	orig, err := os.Getwd()
	require.NoError(t, err)
	defer func() { _ = os.Chdir(orig) }()

	dir := t.TempDir()
	require.NoError(t, os.Chdir(dir))

	require.NoError(t, runInit(nil, []string{}))
	require.FileExists(t, filepath.Join(dir, config.DefaultFileName))
}
