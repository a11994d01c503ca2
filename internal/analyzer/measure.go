package analyzer

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/open-rust-Initiative/cargo-plugins/internal/classify"
	"github.com/open-rust-Initiative/cargo-plugins/internal/config"
	"github.com/open-rust-Initiative/cargo-plugins/internal/engine/metrics"
	"github.com/open-rust-Initiative/cargo-plugins/internal/score"
	"github.com/open-rust-Initiative/cargo-plugins/internal/source"
	"github.com/open-rust-Initiative/cargo-plugins/internal/types"
)

type measureAnalyzer struct {
	base
	cfg     *config.MeasureConfig
	exclude []string
	engine  MetricsEngine
	acc     *metrics.Accumulator

	units     []types.CodeUnit
	collected bool
}

type measureRaw struct {
	Units []types.CodeUnit `toml:"unit"`
}

type measureFindings struct {
	Summary types.MeasureFinding `toml:"summary"`
	Flagged []types.CodeUnit     `toml:"flagged"`
}

// Collect discovers sources under src directories and runs the metrics
// engine over them. The accumulator is drained once the engine has joined.
func (a *measureAnalyzer) Collect(ctx context.Context) error {
	if err := a.expect(PhaseIdle, "collect"); err != nil {
		return err
	}
	d := &source.Discovery{Exclude: a.exclude}
	files, err := d.Discover(a.project.Dir)
	if err != nil {
		a.logger.Warn("source discovery failed", "error", err)
		a.phase = PhaseCollected
		return nil
	}
	skipped, runErr := a.engine.Run(ctx, files, a.acc)
	units := a.acc.Drain()
	if runErr != nil {
		a.logger.Warn("metrics engine failed", "error", runErr)
		a.phase = PhaseCollected
		return nil
	}
	for _, s := range skipped {
		a.logger.Debug("skipped source file", "file", s)
	}
	sort.SliceStable(units, func(i, j int) bool {
		if units[i].Path != units[j].Path {
			return units[i].Path < units[j].Path
		}
		return units[i].StartLine < units[j].StartLine
	})
	a.units = units
	if err := writeTOML(a.rawArtifact(".txt"), measureRaw{Units: units}); err != nil {
		return err
	}
	a.collected = true
	a.phase = PhaseCollected
	a.logger.Debug("collected", "files", len(files), "units", len(units))
	return nil
}

func (a *measureAnalyzer) thresholds() classify.MeasureThresholds {
	if a.cfg == nil {
		return classify.MeasureThresholds{}
	}
	return classify.MeasureThresholds{
		Cyclomatic:    a.cfg.LargeCyclomaticComplexity,
		Cognitive:     a.cfg.LargeCognitiveComplexity,
		FunctionLines: a.cfg.LargeNumRowsFunction,
		FileLines:     a.cfg.LargeNumRowsFile,
	}
}

func (a *measureAnalyzer) Classify(ctx context.Context) error {
	if err := a.expect(PhaseCollected, "classify"); err != nil {
		return err
	}
	if !a.collected {
		return fmt.Errorf("%s: %w", a.kind, ErrNoRawOutput)
	}
	units, finding := classify.ClassifyUnits(a.units, a.thresholds())

	var flagged []types.CodeUnit
	byFile := make(map[string][]types.CodeUnit)
	for _, u := range units {
		if u.IfLargeFile || u.IfLargeFunction || u.IfLargeCognitive || u.IfLargeCyclomatic {
			flagged = append(flagged, u)
		}
		byFile[u.Path] = append(byFile[u.Path], u)
	}
	if err := writeTOML(a.path(findingsFile), measureFindings{Summary: finding, Flagged: flagged}); err != nil {
		return err
	}
	for path, fileUnits := range byFile {
		out := filepath.Join(a.path(detailsDir), filepath.FromSlash(path)+".toml")
		if err := writeTOML(out, measureRaw{Units: fileUnits}); err != nil {
			return err
		}
	}
	a.finding = finding
	a.phase = PhaseClassified
	a.logger.Debug("classified", "units", len(units), "flagged", len(flagged))
	return nil
}

func (a *measureAnalyzer) Score() error {
	if err := a.expect(PhaseClassified, "score"); err != nil {
		return err
	}
	if a.cfg == nil {
		return fmt.Errorf("%w: measure_cfg table missing", ErrIncompleteConfig)
	}
	c := a.cfg
	v, err := resolve("measure_cfg",
		field{"large_cyclomatic_complexity", c.LargeCyclomaticComplexity},
		field{"large_cyclomatic_complexity_score", c.LargeCyclomaticComplexityScore},
		field{"large_cognitive_complexity", c.LargeCognitiveComplexity},
		field{"large_cognitive_complexity_score", c.LargeCognitiveComplexityScore},
		field{"large_num_rows_function", c.LargeNumRowsFunction},
		field{"large_num_rows_function_score", c.LargeNumRowsFunctionScore},
		field{"large_num_rows_file", c.LargeNumRowsFile},
		field{"large_num_rows_file_score", c.LargeNumRowsFileScore},
		field{"measure_score", c.MeasureScore},
		field{"measure_weight", c.MeasureWeight},
	)
	if err != nil {
		return err
	}
	f := a.finding.(types.MeasureFinding)
	return a.scoreWith(score.Params{
		Base:   v[8],
		Weight: v[9],
		Penalties: []score.Penalty{
			{Count: f.LargeCyclomatic, PerFinding: v[1]},
			{Count: f.LargeCognitive, PerFinding: v[3]},
			{Count: f.LargeFunction, PerFinding: v[5]},
			{Count: f.LargeFile, PerFinding: v[7]},
		},
	})
}
