// Package quality evaluates the quality of a Rust project: clippy lint
// findings, dependency licenses and code measures, each scored against a
// quality-evaluation.toml and folded into one weighted report.
//
// This is the library entry point. For the CLI tool, see cmd/cargo-quality/.
package quality

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/open-rust-Initiative/cargo-plugins/internal/analyzer"
	"github.com/open-rust-Initiative/cargo-plugins/internal/config"
	"github.com/open-rust-Initiative/cargo-plugins/internal/engine/cargometa"
	"github.com/open-rust-Initiative/cargo-plugins/internal/engine/clippy"
	"github.com/open-rust-Initiative/cargo-plugins/internal/engine/metrics"
	"github.com/open-rust-Initiative/cargo-plugins/internal/pipeline"
	"github.com/open-rust-Initiative/cargo-plugins/internal/types"
)

// Re-export the report types so consumers don't need to import internal
// packages.
type (
	Report       = types.Report
	Section      = types.Section
	ScoreResult  = types.ScoreResult
	AnalyzerKind = types.AnalyzerKind
	Config       = config.Config
)

const (
	KindStatic  = types.KindStatic
	KindLicense = types.KindLicense
	KindMeasure = types.KindMeasure
)

// DefaultConfigName is looked up in the project directory when neither
// WithConfig nor WithConfigPath is given.
const DefaultConfigName = config.DefaultFileName

// ConfigTemplate is the starter configuration written by `cargo-quality init`.
const ConfigTemplate = config.Template

// LoadConfig reads a quality-evaluation.toml, applying CARGO_QUALITY_*
// environment overrides.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path, nil)
}

// Evaluate runs the configured analyzers against the project in projectDir
// and returns the aggregate report. Analyzers that fail or lack configuration
// leave their section empty; only setup failures are returned as errors.
func Evaluate(ctx context.Context, projectDir string, opts ...Option) (*Report, error) {
	o := applyOpts(opts)

	cfg := o.config
	if cfg == nil {
		path := o.configPath
		if path == "" {
			path = filepath.Join(projectDir, DefaultConfigName)
		}
		var err error
		cfg, err = config.Load(path, nil)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	}

	kinds, err := types.ParseAnalyzerKinds(o.analyzers)
	if err != nil {
		return nil, err
	}

	return pipeline.Run(ctx, projectDir, cfg, pipeline.Options{
		ResultRoot: o.resultDir,
		Kinds:      kinds,
		Deps:       o.deps(),
		Logger:     o.logger,
		OnAnalyzer: o.onAnalyzer,
	})
}

// deps builds the engines the options ask for; zero fields fall back to the
// defaults inside the analyzers.
func (o *evalConfig) deps() analyzer.Deps {
	var d analyzer.Deps
	if o.cargo != "" {
		d.Lint = &clippy.Runner{Cargo: o.cargo}
		d.Resolver = &cargometa.Resolver{Cargo: o.cargo}
	}
	if o.workers > 0 {
		d.Metrics = metrics.New(o.workers)
	}
	return d
}

func applyOpts(opts []Option) *evalConfig {
	cfg := &evalConfig{}
	for _, o := range opts {
		o(cfg)
	}
	return cfg
}
