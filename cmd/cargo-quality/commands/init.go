package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/open-rust-Initiative/cargo-plugins/internal/config"
)

var (
	// ErrConfigExists is returned when init would overwrite a file.
	ErrConfigExists = errors.New("config already exists")
	// ErrInvalidFilename is returned when the target path has no usable base name.
	ErrInvalidFilename = errors.New("invalid config filename")
)

var (
	flagInitProject string
	flagInitConfig  string
)

var initCmd = &cobra.Command{
	Use:   "init [project]",
	Short: "Write a quality-evaluation.toml template",
	Long: `Writes a starter quality-evaluation.toml into the project directory
(default: current directory). Use --config to choose the file path directly.
An existing file is never overwritten.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringVarP(&flagInitProject, "project", "p", "", "Project directory to write the config into")
	initCmd.Flags().StringVarP(&flagInitConfig, "config", "c", "", "Config file path (overrides --project)")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	path, err := initTarget(args)
	if err != nil {
		return err
	}

	if err := validConfigName(path); err != nil {
		return err
	}
	if _, err := os.Lstat(path); err == nil {
		return fmt.Errorf("%w: %s", ErrConfigExists, path)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("checking %s: %w", path, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(config.Template), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	fmt.Printf("  create %s\n", path)
	return nil
}

func initTarget(args []string) (string, error) {
	if flagInitConfig != "" {
		return flagInitConfig, nil
	}
	dir := flagInitProject
	if len(args) > 0 {
		if dir != "" && dir != args[0] {
			return "", fmt.Errorf("project given twice: %s and %s", dir, args[0])
		}
		dir = args[0]
	}
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, config.DefaultFileName), nil
}

func validConfigName(path string) error {
	if path == "" || strings.HasSuffix(path, "/") || strings.HasSuffix(path, string(filepath.Separator)) {
		return fmt.Errorf("%w: %q", ErrInvalidFilename, path)
	}
	switch filepath.Base(path) {
	case ".", "..", string(filepath.Separator):
		return fmt.Errorf("%w: %q", ErrInvalidFilename, path)
	}
	return nil
}
