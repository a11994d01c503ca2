package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/open-rust-Initiative/cargo-plugins/internal/config"
	"github.com/open-rust-Initiative/cargo-plugins/internal/types"
)

var analyzersCmd = &cobra.Command{
	Use:   "analyzers",
	Short: "List analyzers and their configuration status",
	Long: `Lists every analyzer with its result directory. When a config file is
found (--config, default ./quality-evaluation.toml) it also shows whether the
analyzer is selected and whether its scoring table is complete.`,
	Args: cobra.NoArgs,
	RunE: runAnalyzers,
}

func init() {
	analyzersCmd.Flags().StringVarP(&flagConfig, "config", "c", "", "Config file (default: ./quality-evaluation.toml)")
	rootCmd.AddCommand(analyzersCmd)
}

func runAnalyzers(cmd *cobra.Command, args []string) error {
	path := flagConfig
	if path == "" {
		path = config.DefaultFileName
	}
	cfg, err := config.Load(path, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		cfg = nil
	}
	return printAnalyzers(os.Stdout, cfg)
}

func printAnalyzers(w io.Writer, cfg *config.Config) error {
	var selected []types.AnalyzerKind
	if cfg != nil {
		selected, _ = cfg.Kinds()
	}
	t := tablewriter.NewWriter(w)
	t.Header("Analyzer", "Result dir", "Selected", "Scoring")
	for _, k := range types.AllKinds() {
		sel, scoring := "-", "-"
		if cfg != nil {
			sel = yesNo(slices.Contains(selected, k))
			scoring = scoringStatus(cfg, k)
		}
		if err := t.Append([]string{k.String(), filepath.Join(".", k.ResultDirName()), sel, scoring}); err != nil {
			return err
		}
	}
	return t.Render()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// scoringStatus reports whether the analyzer's config table exists and has
// every field its score needs.
func scoringStatus(cfg *config.Config, k types.AnalyzerKind) string {
	var fields []*uint64
	q := cfg.QualityEvaluation
	switch k {
	case types.KindStatic:
		if q.StaticCheck == nil {
			return "missing"
		}
		s := q.StaticCheck
		fields = []*uint64{s.ErrorScore, s.WarnScore, s.StaticCheckScore, s.StaticCheckWeight}
	case types.KindLicense:
		if q.License == nil {
			return "missing"
		}
		l := q.License
		fields = []*uint64{l.DenyLicenseScore, l.DefaultLicenseScore, l.UnlicenseScore, l.LicenseEvalScore, l.LicenseEvalWeight}
	case types.KindMeasure:
		if q.Measure == nil {
			return "missing"
		}
		m := q.Measure
		fields = []*uint64{
			m.LargeCyclomaticComplexity, m.LargeCyclomaticComplexityScore,
			m.LargeCognitiveComplexity, m.LargeCognitiveComplexityScore,
			m.LargeNumRowsFunction, m.LargeNumRowsFunctionScore,
			m.LargeNumRowsFile, m.LargeNumRowsFileScore,
			m.MeasureScore, m.MeasureWeight,
		}
	}
	for _, f := range fields {
		if f == nil {
			return "incomplete"
		}
	}
	return "complete"
}
