// Package metrics computes per-file and per-function code metrics for Rust
// sources with tree-sitter.
package metrics

import (
	"context"
	"runtime"
	"sync"

	"github.com/open-rust-Initiative/cargo-plugins/internal/source"
	"github.com/open-rust-Initiative/cargo-plugins/internal/types"
	"golang.org/x/sync/errgroup"
)

// Accumulator collects code units from concurrent workers. One accumulator
// belongs to one run; Drain hands its contents to the caller and resets it.
type Accumulator struct {
	mu    sync.Mutex
	units []types.CodeUnit
}

// NewAccumulator returns an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// Add appends units.
func (a *Accumulator) Add(units ...types.CodeUnit) {
	a.mu.Lock()
	a.units = append(a.units, units...)
	a.mu.Unlock()
}

// Len returns the number of units collected so far.
func (a *Accumulator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.units)
}

// Drain returns everything collected and empties the accumulator.
func (a *Accumulator) Drain() []types.CodeUnit {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := a.units
	a.units = nil
	return out
}

// DefaultWorkers is max(2, NumCPU) - 1.
func DefaultWorkers() int {
	return max(2, runtime.NumCPU()) - 1
}

// Engine parses files on a bounded worker pool.
type Engine struct {
	Workers int
}

// New returns an engine with the given worker count, or DefaultWorkers when
// workers <= 0.
func New(workers int) *Engine {
	if workers <= 0 {
		workers = DefaultWorkers()
	}
	return &Engine{Workers: workers}
}

// Run analyzes every file and appends its units to acc. Files that cannot be
// read or parsed are skipped and returned in skipped.
func (e *Engine) Run(ctx context.Context, files []*source.File, acc *Accumulator) (skipped []string, err error) {
	workers := e.Workers
	if workers <= 0 {
		workers = DefaultWorkers()
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, f := range files {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			content := f.Content
			if content == nil {
				if err := f.Load(); err != nil {
					mu.Lock()
					skipped = append(skipped, f.RelPath)
					mu.Unlock()
					return nil
				}
				content = f.Content
			}
			units, ok := AnalyzeFile(f.RelPath, content)
			if !ok {
				mu.Lock()
				skipped = append(skipped, f.RelPath)
				mu.Unlock()
				return nil
			}
			acc.Add(units...)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return skipped, err
	}
	// gctx is always cancelled once Wait returns; only the caller's context
	// tells whether the run was interrupted.
	return skipped, ctx.Err()
}
