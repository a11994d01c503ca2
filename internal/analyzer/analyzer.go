// Package analyzer implements the four-phase protocol every quality check
// follows: collect raw engine output, classify it into findings, score the
// findings, and merge the score into the report.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/open-rust-Initiative/cargo-plugins/internal/config"
	"github.com/open-rust-Initiative/cargo-plugins/internal/score"
	"github.com/open-rust-Initiative/cargo-plugins/internal/types"
)

var (
	// ErrPhaseOrder is returned when a phase is called out of sequence.
	ErrPhaseOrder = errors.New("analyzer phase out of order")
	// ErrNoRawOutput is returned by Classify when the engine failed during
	// Collect and left nothing to classify.
	ErrNoRawOutput = errors.New("engine produced no raw output")
	// ErrIncompleteConfig is returned by Score when a required configuration
	// field is missing. The analyzer's report slot stays empty.
	ErrIncompleteConfig = errors.New("scoring configuration incomplete")
)

// Phase is the position of an analyzer in Idle → Collected → Classified →
// Scored → Merged. Phases only move forward.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseCollected
	PhaseClassified
	PhaseScored
	PhaseMerged
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseCollected:
		return "collected"
	case PhaseClassified:
		return "classified"
	case PhaseScored:
		return "scored"
	case PhaseMerged:
		return "merged"
	default:
		return "unknown"
	}
}

// Analyzer is one quality check, used once per run.
type Analyzer interface {
	Kind() types.AnalyzerKind
	Phase() Phase
	Collect(ctx context.Context) error
	Classify(ctx context.Context) error
	Score() error
	Merge(report *types.Report) error
}

// Project locates the crate under evaluation and the analyzer's own result
// directory.
type Project struct {
	Dir       string
	Manifest  string
	ResultDir string
}

// New returns the analyzer for kind.
func New(kind types.AnalyzerKind, project Project, cfg *config.Config, deps Deps) (Analyzer, error) {
	if cfg == nil {
		return nil, errors.New("analyzer: nil config")
	}
	deps = deps.withDefaults()
	b := base{kind: kind, project: project, logger: deps.Logger.With("analyzer", kind.String())}
	switch kind {
	case types.KindStatic:
		return &staticAnalyzer{base: b, cfg: cfg.QualityEvaluation.StaticCheck, lint: deps.Lint}, nil
	case types.KindLicense:
		return &licenseAnalyzer{
			base:      b,
			cfg:       cfg.QualityEvaluation.License,
			resolver:  deps.Resolver,
			loadStore: deps.LoadStore,
		}, nil
	case types.KindMeasure:
		return &measureAnalyzer{
			base:    b,
			cfg:     cfg.QualityEvaluation.Measure,
			exclude: cfg.ExcludeDir,
			engine:  deps.Metrics,
			acc:     deps.Accumulator,
		}, nil
	default:
		return nil, fmt.Errorf("analyzer: unsupported kind %d", int(kind))
	}
}

// base carries the state shared by every analyzer.
type base struct {
	kind    types.AnalyzerKind
	project Project
	logger  *slog.Logger
	phase   Phase
	finding types.Finding
	result  *types.ScoreResult
}

func (b *base) Kind() types.AnalyzerKind { return b.kind }

func (b *base) Phase() Phase { return b.phase }

func (b *base) expect(want Phase, op string) error {
	if b.phase != want {
		return fmt.Errorf("%w: %s %s requires %s, analyzer is %s", ErrPhaseOrder, b.kind, op, want, b.phase)
	}
	return nil
}

func (b *base) path(name string) string {
	return filepath.Join(b.project.ResultDir, name)
}

func (b *base) rawArtifact(ext string) string {
	return b.path(b.kind.ResultDirName() + ext)
}

// scoreWith runs the scorer and advances to Scored.
func (b *base) scoreWith(p score.Params) error {
	res, err := score.Compute(p)
	if err != nil {
		return fmt.Errorf("%s: %w", b.kind, err)
	}
	b.result = &res
	b.phase = PhaseScored
	b.logger.Debug("scored", "score", res.Score, "normalized", res.NormalizedScore)
	return nil
}

func (b *base) Merge(report *types.Report) error {
	if err := b.expect(PhaseScored, "merge"); err != nil {
		return err
	}
	if report == nil {
		return errors.New("analyzer: nil report")
	}
	if err := report.Set(b.kind, types.Section{ScoreResult: *b.result, Counts: b.finding.Counts()}); err != nil {
		return err
	}
	b.phase = PhaseMerged
	return nil
}

// field names a configuration value for missing-field reporting.
type field struct {
	name  string
	value *uint64
}

// resolve returns the values in order, or ErrIncompleteConfig naming every
// missing field.
func resolve(table string, fields ...field) ([]uint64, error) {
	var missing []string
	vals := make([]uint64, len(fields))
	for i, f := range fields {
		if f.value == nil {
			missing = append(missing, f.name)
			continue
		}
		vals[i] = *f.value
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s missing %v", ErrIncompleteConfig, table, missing)
	}
	return vals, nil
}
