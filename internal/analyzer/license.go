package analyzer

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/open-rust-Initiative/cargo-plugins/internal/classify"
	"github.com/open-rust-Initiative/cargo-plugins/internal/config"
	"github.com/open-rust-Initiative/cargo-plugins/internal/engine/cargometa"
	"github.com/open-rust-Initiative/cargo-plugins/internal/score"
	"github.com/open-rust-Initiative/cargo-plugins/internal/types"
	"golang.org/x/sync/errgroup"
)

type licenseAnalyzer struct {
	base
	cfg       *config.LicenseConfig
	resolver  GraphResolver
	loadStore StoreLoader

	deps      []types.Dependency
	collected bool
}

type licenseFindings struct {
	Summary      types.LicenseFinding     `toml:"summary"`
	Dependencies []classify.LicenseRecord `toml:"dependency"`
}

// Collect resolves the dependency graph and loads the license store
// concurrently, then joins them into per-package license lists.
func (a *licenseAnalyzer) Collect(ctx context.Context) error {
	if err := a.expect(PhaseIdle, "collect"); err != nil {
		return err
	}
	var (
		md    *cargometa.Metadata
		store cargometa.Identifier
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		md, err = a.resolver.Resolve(gctx, a.project.Manifest)
		if err != nil {
			return fmt.Errorf("gathering crates: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		store, err = a.loadStore()
		return err
	})
	if err := g.Wait(); err != nil {
		a.logger.Warn("license engine failed", "error", err)
		a.phase = PhaseCollected
		return nil
	}

	a.deps = cargometa.Dependencies(md, store)
	if err := a.writeRaw(); err != nil {
		return err
	}
	a.collected = true
	a.phase = PhaseCollected
	a.logger.Debug("collected", "packages", len(a.deps))
	return nil
}

func (a *licenseAnalyzer) writeRaw() error {
	path := a.rawArtifact(".txt")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	w := bufio.NewWriter(f)
	for _, d := range a.deps {
		lic := "(unlicensed)"
		if len(d.Licenses) > 0 {
			lic = strings.Join(d.Licenses, ", ")
		}
		fmt.Fprintf(w, "%s %s: %s\n", d.Name, d.Version, lic)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

func (a *licenseAnalyzer) Classify(ctx context.Context) error {
	if err := a.expect(PhaseCollected, "classify"); err != nil {
		return err
	}
	if !a.collected {
		return fmt.Errorf("%s: %w", a.kind, ErrNoRawOutput)
	}
	var allow, deny []string
	if a.cfg != nil {
		allow, deny = a.cfg.AllowLicenses, a.cfg.DenyLicenses
	}
	records, finding := classify.ClassifyLicenses(a.deps, classify.NewLicensePolicy(allow, deny))
	if err := writeTOML(a.path(findingsFile), licenseFindings{Summary: finding, Dependencies: records}); err != nil {
		return err
	}
	a.finding = finding
	a.phase = PhaseClassified
	a.logger.Debug("classified", "deny", finding.Denied, "unlicensed", finding.Unlicensed, "default", finding.Default)
	return nil
}

func (a *licenseAnalyzer) Score() error {
	if err := a.expect(PhaseClassified, "score"); err != nil {
		return err
	}
	if a.cfg == nil {
		return fmt.Errorf("%w: license_cfg table missing", ErrIncompleteConfig)
	}
	v, err := resolve("license_cfg",
		field{"deny_license_score", a.cfg.DenyLicenseScore},
		field{"unlicense_score", a.cfg.UnlicenseScore},
		field{"default_license_score", a.cfg.DefaultLicenseScore},
		field{"license_eval_score", a.cfg.LicenseEvalScore},
		field{"license_eval_weight", a.cfg.LicenseEvalWeight},
	)
	if err != nil {
		return err
	}
	f := a.finding.(types.LicenseFinding)
	return a.scoreWith(score.Params{
		Base:   v[3],
		Weight: v[4],
		Penalties: []score.Penalty{
			{Count: f.Denied, PerFinding: v[0]},
			{Count: f.Unlicensed, PerFinding: v[1]},
			{Count: f.Default, PerFinding: v[2]},
		},
	})
}
