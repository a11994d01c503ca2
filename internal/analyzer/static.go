package analyzer

import (
	"context"
	"fmt"
	"os"

	"github.com/open-rust-Initiative/cargo-plugins/internal/classify"
	"github.com/open-rust-Initiative/cargo-plugins/internal/config"
	"github.com/open-rust-Initiative/cargo-plugins/internal/score"
	"github.com/open-rust-Initiative/cargo-plugins/internal/types"
)

type staticAnalyzer struct {
	base
	cfg  *config.StaticCheckConfig
	lint LintRunner

	rawPath string // empty when the engine failed
}

type staticFindings struct {
	Summary types.StaticFinding `toml:"summary"`
	Lints   []classify.LintBlock `toml:"lint"`
}

// Collect runs clippy with its stderr going to static_check.txt.
func (a *staticAnalyzer) Collect(ctx context.Context) error {
	if err := a.expect(PhaseIdle, "collect"); err != nil {
		return err
	}
	path := a.rawArtifact(".txt")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	runErr := a.lint.Run(ctx, a.project.Manifest, f)
	if err := f.Close(); err != nil && runErr == nil {
		runErr = err
	}
	if runErr != nil {
		a.logger.Warn("lint engine failed", "error", runErr)
	} else {
		a.rawPath = path
	}
	a.phase = PhaseCollected
	return nil
}

func (a *staticAnalyzer) Classify(ctx context.Context) error {
	if err := a.expect(PhaseCollected, "classify"); err != nil {
		return err
	}
	if a.rawPath == "" {
		return fmt.Errorf("%s: %w", a.kind, ErrNoRawOutput)
	}
	f, err := os.Open(a.rawPath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", a.rawPath, err)
	}
	defer f.Close()

	blocks, err := classify.ScanLint(f)
	if err != nil {
		return err
	}
	finding := classify.CountLint(blocks)
	if err := writeTOML(a.path(findingsFile), staticFindings{Summary: finding, Lints: blocks}); err != nil {
		return err
	}
	a.finding = finding
	a.phase = PhaseClassified
	a.logger.Debug("classified", "blocks", len(blocks), "errors", finding.Errors, "warnings", finding.Warnings)
	return nil
}

func (a *staticAnalyzer) Score() error {
	if err := a.expect(PhaseClassified, "score"); err != nil {
		return err
	}
	if a.cfg == nil {
		return fmt.Errorf("%w: static_check_cfg table missing", ErrIncompleteConfig)
	}
	v, err := resolve("static_check_cfg",
		field{"error_score", a.cfg.ErrorScore},
		field{"warn_score", a.cfg.WarnScore},
		field{"static_check_score", a.cfg.StaticCheckScore},
		field{"static_check_weight", a.cfg.StaticCheckWeight},
	)
	if err != nil {
		return err
	}
	f := a.finding.(types.StaticFinding)
	return a.scoreWith(score.Params{
		Base:   v[2],
		Weight: v[3],
		Penalties: []score.Penalty{
			{Count: f.Errors, PerFinding: v[0]},
			{Count: f.Warnings, PerFinding: v[1]},
		},
	})
}
