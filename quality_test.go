package quality_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	quality "github.com/open-rust-Initiative/cargo-plugins"
	"github.com/open-rust-Initiative/cargo-plugins/internal/config"
)

func writeProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	if err := os.MkdirAll(src, 0o755); err != nil {
		t.Fatal(err)
	}
	code := "fn main() {\n    println!(\"hi\");\n}\n"
	if err := os.WriteFile(filepath.Join(src, "main.rs"), []byte(code), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, quality.DefaultConfigName), []byte(quality.ConfigTemplate), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestEvaluateMeasureOnly(t *testing.T) {
	dir := writeProject(t)
	results := filepath.Join(t.TempDir(), "out")

	var seen []quality.AnalyzerKind
	report, err := quality.Evaluate(context.Background(), dir,
		quality.WithAnalyzers("measure"),
		quality.WithResultDir(results),
		quality.WithProgress(func(k quality.AnalyzerKind, _, _ int) { seen = append(seen, k) }),
	)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if len(seen) != 1 || seen[0] != quality.KindMeasure {
		t.Fatalf("progress = %v, want [measure]", seen)
	}
	s, ok := report.Get(quality.KindMeasure)
	if !ok {
		t.Fatal("measure section missing")
	}
	if s.Score != 100 || s.NormalizedScore != 40 {
		t.Errorf("score = %d/%d, want 100/40", s.Score, s.NormalizedScore)
	}
	if report.Total() != 40 {
		t.Errorf("Total = %d, want 40", report.Total())
	}
	if _, ok := report.Get(quality.KindStatic); ok {
		t.Error("static section should be absent")
	}
	if _, err := os.Stat(filepath.Join(results, quality.KindMeasure.ResultDirName())); err != nil {
		t.Errorf("result dir not created: %v", err)
	}
}

func TestEvaluateWithConfig(t *testing.T) {
	dir := writeProject(t)
	cfg, err := quality.LoadConfig(filepath.Join(dir, quality.DefaultConfigName))
	if err != nil {
		t.Fatal(err)
	}
	cfg.CheckQualityItem = []string{"measure"}

	report, err := quality.Evaluate(context.Background(), dir,
		quality.WithConfig(cfg),
		quality.WithResultDir(t.TempDir()),
	)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if got := report.Populated(); len(got) != 1 || got[0] != quality.KindMeasure {
		t.Errorf("Populated = %v, want [measure]", got)
	}
}

func TestEvaluateMissingConfig(t *testing.T) {
	_, err := quality.Evaluate(context.Background(), t.TempDir(),
		quality.WithConfigPath(filepath.Join(t.TempDir(), "nope.toml")))
	if !errors.Is(err, config.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestEvaluateUnknownAnalyzer(t *testing.T) {
	dir := writeProject(t)
	_, err := quality.Evaluate(context.Background(), dir,
		quality.WithAnalyzers("bogus"),
		quality.WithResultDir(t.TempDir()),
	)
	if err == nil {
		t.Fatal("expected error for unknown analyzer")
	}
}

func TestEvaluateMissingCargo(t *testing.T) {
	dir := writeProject(t)
	report, err := quality.Evaluate(context.Background(), dir,
		quality.WithAnalyzers("static_check", "measure"),
		quality.WithCargo(filepath.Join(t.TempDir(), "no-cargo")),
		quality.WithWorkers(1),
		quality.WithResultDir(t.TempDir()),
	)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if _, ok := report.Get(quality.KindStatic); ok {
		t.Error("static section should be absent without cargo")
	}
	if _, ok := report.Get(quality.KindMeasure); !ok {
		t.Error("measure section should still be present")
	}
}
