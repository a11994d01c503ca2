package analyzer

import (
	"context"
	"io"
	"log/slog"

	"github.com/open-rust-Initiative/cargo-plugins/internal/engine/cargometa"
	"github.com/open-rust-Initiative/cargo-plugins/internal/engine/clippy"
	"github.com/open-rust-Initiative/cargo-plugins/internal/engine/metrics"
	"github.com/open-rust-Initiative/cargo-plugins/internal/source"
)

// LintRunner runs the lint engine and writes its diagnostics to w.
type LintRunner interface {
	Run(ctx context.Context, manifest string, w io.Writer) error
}

// GraphResolver resolves the dependency graph of a manifest.
type GraphResolver interface {
	Resolve(ctx context.Context, manifest string) (*cargometa.Metadata, error)
}

// StoreLoader loads the license text store.
type StoreLoader func() (cargometa.Identifier, error)

// MetricsEngine computes code units for files, appending them to acc.
type MetricsEngine interface {
	Run(ctx context.Context, files []*source.File, acc *metrics.Accumulator) ([]string, error)
}

// Deps are the external engines an analyzer delegates to. Zero fields are
// filled with the real engines.
type Deps struct {
	Logger      *slog.Logger
	Lint        LintRunner
	Resolver    GraphResolver
	LoadStore   StoreLoader
	Metrics     MetricsEngine
	Accumulator *metrics.Accumulator
}

func loadLicenseStore() (cargometa.Identifier, error) {
	s, err := cargometa.LoadStore()
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		d.Logger = slog.New(slog.DiscardHandler)
	}
	if d.Lint == nil {
		d.Lint = &clippy.Runner{}
	}
	if d.Resolver == nil {
		d.Resolver = &cargometa.Resolver{}
	}
	if d.LoadStore == nil {
		d.LoadStore = loadLicenseStore
	}
	if d.Metrics == nil {
		d.Metrics = metrics.New(0)
	}
	if d.Accumulator == nil {
		d.Accumulator = metrics.NewAccumulator()
	}
	return d
}
