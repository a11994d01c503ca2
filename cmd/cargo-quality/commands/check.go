package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/open-rust-Initiative/cargo-plugins/internal/analyzer"
	"github.com/open-rust-Initiative/cargo-plugins/internal/config"
	"github.com/open-rust-Initiative/cargo-plugins/internal/output"
	"github.com/open-rust-Initiative/cargo-plugins/internal/pipeline"
	"github.com/open-rust-Initiative/cargo-plugins/internal/publish"
	"github.com/open-rust-Initiative/cargo-plugins/internal/state"
	"github.com/open-rust-Initiative/cargo-plugins/internal/types"
)

// reportFileName is written into the result root next to the analyzer dirs.
const reportFileName = "report.json"

// trendRuns is how many recorded totals --history prints.
const trendRuns = 5

var (
	flagConfig      string
	flagProject     string
	flagAnalyzers   []string
	flagResultDir   string
	flagFailUnder   int
	flagHistory     bool
	flagHistoryPath string
	flagUpload      bool
)

// Swapped in tests.
var (
	checkDeps analyzer.Deps
	exitFunc  = os.Exit
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Evaluate a Rust project",
	Long: `Runs the configured analyzers (static_check, license, measure) against
the project, writes their artifacts under the result directory and prints the
scored report.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringVarP(&flagConfig, "config", "c", "", "Config file (default: ./quality-evaluation.toml)")
	checkCmd.Flags().StringVarP(&flagProject, "project", "p", "", "Project directory (default: current directory)")
	checkCmd.Flags().StringSliceVar(&flagAnalyzers, "analyzers", nil, "Analyzers to run, overriding check_quality_item (comma-separated)")
	checkCmd.Flags().StringVar(&flagResultDir, "result-dir", "", "Artifact directory (default: ./quality_evaluation)")
	checkCmd.Flags().IntVar(&flagFailUnder, "fail-under", 0, "Exit with code 1 if the total score is below this value")
	checkCmd.Flags().BoolVar(&flagHistory, "history", false, "Record the run and report the previous total")
	checkCmd.Flags().StringVar(&flagHistoryPath, "history-path", "", "History database for --history (default: ~/.cargo-quality/history.db)")
	checkCmd.Flags().BoolVar(&flagUpload, "upload", false, "Upload the result directory to the bucket set by CARGO_QUALITY_S3_* variables")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	if flagFailUnder < 0 {
		return fmt.Errorf("invalid --fail-under: %d", flagFailUnder)
	}
	loadDotEnv()

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("resolving working directory: %w", err)
	}
	cfgPath := flagConfig
	if cfgPath == "" {
		cfgPath = filepath.Join(cwd, config.DefaultFileName)
	}
	projectDir := flagProject
	if projectDir == "" {
		projectDir = cwd
	}
	resultRoot := flagResultDir
	if resultRoot == "" {
		resultRoot = filepath.Join(cwd, pipeline.DefaultResultDirName)
	}

	cfg, err := config.Load(cfgPath, analyzerOverrides())
	if err != nil {
		return err
	}

	if os.Getenv("NO_COLOR") != "" {
		flagNoColor = true
	}

	ctx, cancel := contextWithInterrupt()
	defer cancel()

	logger := stderrLogger()
	var progress *output.Progress
	if strings.EqualFold(flagFormat, "terminal") && !flagVerbose {
		progress = output.NewProgress(os.Stderr, flagNoColor)
	}
	report, err := pipeline.Run(ctx, projectDir, cfg, pipeline.Options{
		ResultRoot: resultRoot,
		Deps:       checkDeps,
		Logger:     logger,
		OnAnalyzer: func(kind types.AnalyzerKind, index, total int) {
			if progress != nil {
				progress.Begin(kind, index, total)
			}
		},
	})
	if progress != nil {
		progress.Finish(report)
	}
	if err != nil {
		return err
	}

	if flagHistory {
		recordHistory(report)
	}

	if err := writeReportFile(filepath.Join(resultRoot, reportFileName), report); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
	if flagUpload {
		uploadResults(ctx, resultRoot, report.RunID)
	}

	if err := writeOutput(report); err != nil {
		return err
	}

	if belowThreshold(report, flagFailUnder) {
		exitFunc(1)
	}
	return nil
}

func analyzerOverrides() map[string]any {
	if len(flagAnalyzers) == 0 {
		return nil
	}
	names := make([]string, 0, len(flagAnalyzers))
	for _, a := range flagAnalyzers {
		if a = strings.TrimSpace(a); a != "" {
			names = append(names, a)
		}
	}
	return map[string]any{"check_quality_item": names}
}

// loadDotEnv reads ./.env if present. Variables already set win.
func loadDotEnv() {
	if _, err := os.Stat(".env"); err != nil {
		return
	}
	if err := godotenv.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: loading .env: %v\n", err)
	}
}

func recordHistory(report *types.Report) {
	path := flagHistoryPath
	if path == "" {
		path = state.DefaultPath()
	}
	store, err := state.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: opening history: %v\n", err)
		return
	}
	defer func() { _ = store.Close() }()

	prev, ok, err := store.Last(report.Project)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: reading history: %v\n", err)
	} else if ok {
		total := prev.Total
		report.PreviousTotal = &total
	}
	if err := store.Record(report); err != nil {
		fmt.Fprintf(os.Stderr, "warning: saving history: %v\n", err)
		return
	}
	runs, err := store.History(report.Project, trendRuns)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: reading history: %v\n", err)
		return
	}
	if line := trendLine(runs); line != "" {
		fmt.Fprintln(os.Stderr, line)
	}
}

// trendLine renders totals oldest to newest from runs given newest first.
// A single run has no trend.
func trendLine(runs []state.Entry) string {
	if len(runs) < 2 {
		return ""
	}
	totals := make([]string, len(runs))
	for i, r := range runs {
		totals[len(runs)-1-i] = strconv.FormatUint(r.Total, 10)
	}
	return fmt.Sprintf("history: %s (last %d runs)", strings.Join(totals, " -> "), len(runs))
}

func writeReportFile(path string, report *types.Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func uploadResults(ctx context.Context, root, runID string) {
	cfg, err := publish.ConfigFromEnv()
	if err != nil {
		if errors.Is(err, publish.ErrNotConfigured) {
			fmt.Fprintf(os.Stderr, "warning: --upload ignored: %v\n", err)
			return
		}
		fmt.Fprintf(os.Stderr, "warning: upload: %v\n", err)
		return
	}
	p, err := publish.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: upload: %v\n", err)
		return
	}
	keys, err := p.UploadDir(ctx, root, runID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: upload: %v\n", err)
		return
	}
	fmt.Fprintf(os.Stderr, "uploaded %d objects to %s/%s\n", len(keys), cfg.Bucket, publish.ObjectKey(cfg.Prefix, runID, ""))
}

func contextWithInterrupt() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}

func writeOutput(report *types.Report) error {
	formatter, err := output.New(flagFormat, flagNoColor, flagVerbose)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if flagOutput != "" {
		f, err := os.Create(flagOutput)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer func() { _ = f.Close() }()
		w = f
	}

	return formatter.Format(w, report)
}

func belowThreshold(report *types.Report, min int) bool {
	return min > 0 && report.Total() < uint64(min)
}
