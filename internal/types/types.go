// Package types defines shared data structures (AnalyzerKind, Finding,
// ScoreResult, Report) used across the analyzer, pipeline, and output
// packages to prevent import cycles.
package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// AnalyzerKind identifies one pluggable quality check.
type AnalyzerKind int

const (
	KindStatic AnalyzerKind = iota
	KindLicense
	KindMeasure
)

// AllKinds returns every analyzer kind in default execution order.
func AllKinds() []AnalyzerKind {
	return []AnalyzerKind{KindStatic, KindLicense, KindMeasure}
}

func (k AnalyzerKind) String() string {
	switch k {
	case KindStatic:
		return "static_check"
	case KindLicense:
		return "license"
	case KindMeasure:
		return "measure"
	default:
		return "unknown"
	}
}

// ResultDirName is the per-analyzer subdirectory under the result root.
func (k AnalyzerKind) ResultDirName() string {
	switch k {
	case KindStatic:
		return "static_check"
	case KindLicense:
		return "license_check"
	case KindMeasure:
		return "measure_check"
	default:
		return "unknown_check"
	}
}

// ErrReservedAnalyzer is returned for report slots that are named but have no
// analyzer yet.
var ErrReservedAnalyzer = errors.New("analyzer reserved but not implemented")

// reservedKinds are the report sections planned beside the implemented ones.
// Adding one means a Kind constant, a Report field, a case in slot and an
// analyzer adapter.
var reservedKinds = map[string]bool{
	"code_duplication":          true,
	"dependent_crate":           true,
	"security_check":            true,
	"dynamic_check":             true,
	"vulnerability_scan":        true,
	"compile_build_info_check":  true,
	"doc_check":                 true,
	"test_check":                true,
	"architecture_design_check": true,
}

// ParseAnalyzerKind converts a configuration name to an AnalyzerKind.
func ParseAnalyzerKind(s string) (AnalyzerKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "static_check", "static":
		return KindStatic, nil
	case "license", "license_check":
		return KindLicense, nil
	case "measure", "measure_check":
		return KindMeasure, nil
	default:
		if reservedKinds[strings.ToLower(strings.TrimSpace(s))] {
			return 0, fmt.Errorf("%w: %q", ErrReservedAnalyzer, s)
		}
		return 0, fmt.Errorf("unknown analyzer: %q", s)
	}
}

// ParseAnalyzerKinds parses a list of names, dropping duplicates while
// keeping the first occurrence's position.
func ParseAnalyzerKinds(names []string) ([]AnalyzerKind, error) {
	seen := make(map[AnalyzerKind]bool, len(names))
	kinds := make([]AnalyzerKind, 0, len(names))
	for _, n := range names {
		k, err := ParseAnalyzerKind(n)
		if err != nil {
			return nil, err
		}
		if seen[k] {
			continue
		}
		seen[k] = true
		kinds = append(kinds, k)
	}
	return kinds, nil
}

// Finding is the classified output of one analyzer: a set of named counters.
type Finding interface {
	Kind() AnalyzerKind
	// Counts returns every counter keyed by its report name.
	Counts() map[string]uint64
}

// StaticFinding counts lint blocks by severity.
type StaticFinding struct {
	Errors   uint64 `json:"error" toml:"error"`
	Warnings uint64 `json:"warn" toml:"warn"`
}

func (StaticFinding) Kind() AnalyzerKind { return KindStatic }

func (f StaticFinding) Counts() map[string]uint64 {
	return map[string]uint64{"error": f.Errors, "warn": f.Warnings}
}

// LicenseFinding counts dependencies by license category. The three counters
// are mutually exclusive per dependency.
type LicenseFinding struct {
	Denied     uint64 `json:"deny_license" toml:"deny_license"`
	Unlicensed uint64 `json:"unlicense" toml:"unlicense"`
	Default    uint64 `json:"default_license" toml:"default_license"`
}

func (LicenseFinding) Kind() AnalyzerKind { return KindLicense }

func (f LicenseFinding) Counts() map[string]uint64 {
	return map[string]uint64{
		"deny_license":    f.Denied,
		"unlicense":       f.Unlicensed,
		"default_license": f.Default,
	}
}

// MeasureFinding holds independent threshold-violation tallies.
type MeasureFinding struct {
	LargeCyclomatic uint64 `json:"large_cyclomatic_complexity" toml:"large_cyclomatic_complexity"`
	LargeCognitive  uint64 `json:"large_cognitive_complexity" toml:"large_cognitive_complexity"`
	LargeFile       uint64 `json:"large_num_rows_file" toml:"large_num_rows_file"`
	LargeFunction   uint64 `json:"large_num_rows_function" toml:"large_num_rows_function"`
}

func (MeasureFinding) Kind() AnalyzerKind { return KindMeasure }

func (f MeasureFinding) Counts() map[string]uint64 {
	return map[string]uint64{
		"large_cyclomatic_complexity": f.LargeCyclomatic,
		"large_cognitive_complexity":  f.LargeCognitive,
		"large_num_rows_file":         f.LargeFile,
		"large_num_rows_function":     f.LargeFunction,
	}
}

// ScoreResult is a 0-100 raw score and its weight-normalized contribution.
type ScoreResult struct {
	Score           uint64 `json:"score" yaml:"score"`
	NormalizedScore uint64 `json:"normalized_score" yaml:"normalized_score"`
}

// Section is one populated analyzer slot of a Report.
type Section struct {
	ScoreResult `yaml:",inline"`
	Counts      map[string]uint64 `json:"counts,omitempty" yaml:"counts,omitempty"`
}

// Report is the aggregate result of one evaluation run. A slot is non-nil
// only when its analyzer ran every phase without error.
type Report struct {
	RunID         string        `json:"run_id" yaml:"run_id"`
	Project       string        `json:"project" yaml:"project"`
	GeneratedAt   time.Time     `json:"generated_at" yaml:"generated_at"`
	Duration      time.Duration `json:"-" yaml:"-"`
	StaticCheck   *Section      `json:"static_check" yaml:"static_check"`
	LicenseCheck  *Section      `json:"license_check" yaml:"license_check"`
	CodeMeasure   *Section      `json:"code_measure" yaml:"code_measure"`
	PreviousTotal *uint64       `json:"previous_total,omitempty" yaml:"previous_total,omitempty"`
}

func (r *Report) slot(kind AnalyzerKind) **Section {
	switch kind {
	case KindStatic:
		return &r.StaticCheck
	case KindLicense:
		return &r.LicenseCheck
	case KindMeasure:
		return &r.CodeMeasure
	default:
		return nil
	}
}

// Set stores the section for kind, replacing any previous value.
func (r *Report) Set(kind AnalyzerKind, s Section) error {
	p := r.slot(kind)
	if p == nil {
		return fmt.Errorf("report has no slot for analyzer %s", kind)
	}
	*p = &s
	return nil
}

// Get returns the section for kind and whether it is populated.
func (r *Report) Get(kind AnalyzerKind) (*Section, bool) {
	p := r.slot(kind)
	if p == nil || *p == nil {
		return nil, false
	}
	return *p, true
}

// Populated returns the kinds whose slots are set, in default order.
func (r *Report) Populated() []AnalyzerKind {
	var kinds []AnalyzerKind
	for _, k := range AllKinds() {
		if _, ok := r.Get(k); ok {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// Total sums the normalized scores of the populated slots.
func (r *Report) Total() uint64 {
	var total uint64
	for _, k := range r.Populated() {
		s, _ := r.Get(k)
		total += s.NormalizedScore
	}
	return total
}

// MarshalJSON adds the derived total and the duration in milliseconds.
func (r Report) MarshalJSON() ([]byte, error) {
	type Alias Report
	return json.Marshal(struct {
		Alias
		Total      uint64 `json:"total"`
		DurationMS int64  `json:"duration_ms"`
	}{
		Alias:      Alias(r),
		Total:      r.Total(),
		DurationMS: r.Duration.Milliseconds(),
	})
}

// MarshalYAML mirrors MarshalJSON for the yaml output format.
func (r Report) MarshalYAML() (any, error) {
	type Alias Report
	return struct {
		Alias      `yaml:",inline"`
		Total      uint64 `yaml:"total"`
		DurationMS int64  `yaml:"duration_ms"`
	}{
		Alias:      Alias(r),
		Total:      r.Total(),
		DurationMS: r.Duration.Milliseconds(),
	}, nil
}

// Dependency is one resolved package with the SPDX license identifiers it is
// offered under. An empty Licenses slice means the package is unlicensed.
type Dependency struct {
	Name     string
	Version  string
	Licenses []string
}

// UnitKind distinguishes whole-file records from function records.
type UnitKind string

const (
	UnitFile     UnitKind = "unit"
	UnitFunction UnitKind = "function"
)

// CodeUnit is one span reported by the metrics engine, plus the threshold
// flags set during classification.
type CodeUnit struct {
	Name              string   `toml:"name" json:"name"`
	Path              string   `toml:"path" json:"path"`
	StartLine         uint64   `toml:"start_line" json:"start_line"`
	EndLine           uint64   `toml:"end_line" json:"end_line"`
	Kind              UnitKind `toml:"kind" json:"kind"`
	Cognitive         uint64   `toml:"cognitive" json:"cognitive"`
	Cyclomatic        uint64   `toml:"cyclomatic" json:"cyclomatic"`
	IfLargeFile       bool     `toml:"if_large_file" json:"if_large_file"`
	IfLargeFunction   bool     `toml:"if_large_function" json:"if_large_function"`
	IfLargeCognitive  bool     `toml:"if_large_cognitive" json:"if_large_cognitive"`
	IfLargeCyclomatic bool     `toml:"if_large_cyclomatic" json:"if_large_cyclomatic"`
}

// Span is the number of lines between the start and end of the unit.
func (u CodeUnit) Span() uint64 {
	if u.EndLine < u.StartLine {
		return 0
	}
	return u.EndLine - u.StartLine
}
