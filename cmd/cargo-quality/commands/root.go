package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	flagFormat  string
	flagOutput  string
	flagNoColor bool
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "cargo-quality",
	Short: "Quality evaluation for Rust projects",
	Long: `cargo-quality runs clippy, inspects dependency licenses and measures code
complexity, then scores each against quality-evaluation.toml and prints one
weighted report.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "json", "Output format (json, yaml, terminal, markdown, html)")
	rootCmd.PersistentFlags().StringVarP(&flagOutput, "output", "o", "", "Output file path (default: stdout)")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Debug logging and zero counters in terminal output")
}

// Execute runs the root command. Arguments are accepted both as
// `cargo-quality <cmd>` and as `cargo quality <cmd>`.
func Execute() error {
	rootCmd.SetArgs(cargoArgs(os.Args[1:]))
	err := rootCmd.Execute()
	checkPathHint(os.Stderr)
	return err
}

func newLogger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if flagVerbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func stderrLogger() *slog.Logger {
	return newLogger(os.Stderr)
}
