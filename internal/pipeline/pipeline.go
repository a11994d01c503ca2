// Package pipeline drives the configured analyzers, one after another,
// through all four phases and collects their scores into a report.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/open-rust-Initiative/cargo-plugins/internal/analyzer"
	"github.com/open-rust-Initiative/cargo-plugins/internal/config"
	"github.com/open-rust-Initiative/cargo-plugins/internal/engine/metrics"
	"github.com/open-rust-Initiative/cargo-plugins/internal/types"
)

// DefaultResultDirName is created under the working directory when no
// result root is given.
const DefaultResultDirName = "quality_evaluation"

// ManifestName is the crate manifest looked up in the project directory.
const ManifestName = "Cargo.toml"

// Options tune one run.
type Options struct {
	// ResultRoot holds one subdirectory per analyzer.
	ResultRoot string
	// Kinds overrides the configured analyzer list when non-empty.
	Kinds []types.AnalyzerKind
	// Deps replaces the real engines, mostly for tests. The accumulator is
	// always owned by the run.
	Deps   analyzer.Deps
	Logger *slog.Logger
	// OnAnalyzer is called before each analyzer starts.
	OnAnalyzer func(kind types.AnalyzerKind, index, total int)
	// Now defaults to time.Now.
	Now func() time.Time
}

// Run evaluates the project in projectDir. Only failures to create result
// directories or to select analyzers are returned; an analyzer that fails
// leaves its report slot empty.
func Run(ctx context.Context, projectDir string, cfg *config.Config, opts Options) (*types.Report, error) {
	if cfg == nil {
		return nil, errors.New("pipeline: nil config")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	dir, err := filepath.Abs(projectDir)
	if err != nil {
		return nil, fmt.Errorf("resolving project %s: %w", projectDir, err)
	}
	root := opts.ResultRoot
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolving working directory: %w", err)
		}
		root = filepath.Join(cwd, DefaultResultDirName)
	}

	kinds := opts.Kinds
	if len(kinds) == 0 {
		kinds, err = cfg.Kinds()
		if err != nil {
			return nil, err
		}
	}

	start := now()
	report := &types.Report{
		RunID:       ulid.Make().String(),
		Project:     dir,
		GeneratedAt: start.UTC(),
	}

	deps := opts.Deps
	deps.Logger = logger
	deps.Accumulator = metrics.NewAccumulator()

	logger.Info("evaluation started", "project", dir, "analyzers", len(kinds), "run_id", report.RunID)
	for i, kind := range kinds {
		if opts.OnAnalyzer != nil {
			opts.OnAnalyzer(kind, i, len(kinds))
		}
		resultDir := filepath.Join(root, kind.ResultDirName())
		if err := os.MkdirAll(resultDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating result directory %s: %w", resultDir, err)
		}
		project := analyzer.Project{
			Dir:       dir,
			Manifest:  filepath.Join(dir, ManifestName),
			ResultDir: resultDir,
		}
		a, err := analyzer.New(kind, project, cfg, deps)
		if err != nil {
			return nil, err
		}
		if err := drive(ctx, a, report); err != nil {
			level := slog.LevelWarn
			if errors.Is(err, analyzer.ErrIncompleteConfig) {
				level = slog.LevelInfo
			}
			logger.Log(ctx, level, "analyzer skipped", "analyzer", kind.String(), "phase", a.Phase().String(), "error", err)
			continue
		}
		s, _ := report.Get(kind)
		logger.Info("analyzer finished", "analyzer", kind.String(), "score", s.Score, "normalized", s.NormalizedScore)
	}
	report.Duration = now().Sub(start)
	logger.Info("evaluation finished", "total", report.Total(), "duration", report.Duration)
	return report, nil
}

func drive(ctx context.Context, a analyzer.Analyzer, report *types.Report) error {
	if err := a.Collect(ctx); err != nil {
		return err
	}
	if err := a.Classify(ctx); err != nil {
		return err
	}
	if err := a.Score(); err != nil {
		return err
	}
	return a.Merge(report)
}
