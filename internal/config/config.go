// Package config loads quality-evaluation.toml: which analyzers run, which
// directories are skipped, and the per-analyzer thresholds, penalties, base
// scores and weights.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/open-rust-Initiative/cargo-plugins/internal/types"
)

// DefaultFileName is the config file looked up in the working directory.
const DefaultFileName = "quality-evaluation.toml"

// EnvPrefix marks environment variables that override file values.
// Nesting levels are separated by a double underscore.
const EnvPrefix = "CARGO_QUALITY_"

const maxFileSize = 1 << 20

// ErrNotFound is returned when the config file does not exist.
var ErrNotFound = errors.New("config file not found")

// Config represents quality-evaluation.toml.
type Config struct {
	CheckQualityItem  []string                `koanf:"check_quality_item"`
	ExcludeDir        []string                `koanf:"exclude_dir"`
	QualityEvaluation QualityEvaluationConfig `koanf:"quality_evaluation_cfg"`
}

// QualityEvaluationConfig holds one optional table per analyzer kind.
type QualityEvaluationConfig struct {
	StaticCheck *StaticCheckConfig `koanf:"static_check_cfg"`
	License     *LicenseConfig     `koanf:"license_cfg"`
	Measure     *MeasureConfig     `koanf:"measure_cfg"`
	// Older templates spelled the measure table "measeure_cfg".
	LegacyMeasure *MeasureConfig `koanf:"measeure_cfg"`
}

// StaticCheckConfig scores lint output. Nil fields disable scoring.
type StaticCheckConfig struct {
	ErrorScore        *uint64 `koanf:"error_score"`
	WarnScore         *uint64 `koanf:"warn_score"`
	StaticCheckScore  *uint64 `koanf:"static_check_score"`
	StaticCheckWeight *uint64 `koanf:"static_check_weight"`
}

// LicenseConfig classifies and scores dependency licenses.
type LicenseConfig struct {
	AllowLicenses       []string `koanf:"allow_licenses"`
	DenyLicenses        []string `koanf:"deny_licenses"`
	DenyLicenseScore    *uint64  `koanf:"deny_license_score"`
	DefaultLicenseScore *uint64  `koanf:"default_license_score"`
	UnlicenseScore      *uint64  `koanf:"unlicense_score"`
	LicenseEvalScore    *uint64  `koanf:"license_eval_score"`
	LicenseEvalWeight   *uint64  `koanf:"license_eval_weight"`
}

// MeasureConfig holds code-measure thresholds and penalties.
type MeasureConfig struct {
	LargeCyclomaticComplexity      *uint64 `koanf:"large_cyclomatic_complexity"`
	LargeCyclomaticComplexityScore *uint64 `koanf:"large_cyclomatic_complexity_score"`
	LargeCognitiveComplexity       *uint64 `koanf:"large_cognitive_complexity"`
	LargeCognitiveComplexityScore  *uint64 `koanf:"large_cognitive_complexity_score"`
	LargeNumRowsFunction           *uint64 `koanf:"large_num_rows_function"`
	LargeNumRowsFunctionScore      *uint64 `koanf:"large_num_rows_function_score"`
	LargeNumRowsFile               *uint64 `koanf:"large_num_rows_file"`
	LargeNumRowsFileScore          *uint64 `koanf:"large_num_rows_file_score"`
	MeasureScore                   *uint64 `koanf:"measure_score"`
	MeasureWeight                  *uint64 `koanf:"measure_weight"`
}

// Load reads the config file at path, then applies CARGO_QUALITY_* env vars
// and finally overrides (flat "a.b.c" keys, typically from CLI flags).
func Load(path string, overrides map[string]any) (*Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("reading %s: is a directory", path)
	}
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %s (%d bytes, max 1 MB)", path, info.Size())
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := k.Load(env.Provider(".", env.Opt{
		Prefix:        EnvPrefix,
		TransformFunc: envTransform,
	}), nil); err != nil {
		return nil, fmt.Errorf("reading environment overrides: %w", err)
	}
	if len(overrides) > 0 {
		if err := k.Load(confmap.Provider(overrides, "."), nil); err != nil {
			return nil, fmt.Errorf("applying overrides: %w", err)
		}
	}

	if err := rejectNegative(k); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if cfg.QualityEvaluation.Measure == nil {
		cfg.QualityEvaluation.Measure = cfg.QualityEvaluation.LegacyMeasure
	}
	cfg.QualityEvaluation.LegacyMeasure = nil

	if _, err := cfg.Kinds(); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &cfg, nil
}

// Kinds returns the analyzers selected by check_quality_item, or all of them
// when the key is absent or empty.
func (c *Config) Kinds() ([]types.AnalyzerKind, error) {
	if len(c.CheckQualityItem) == 0 {
		return types.AllKinds(), nil
	}
	return types.ParseAnalyzerKinds(c.CheckQualityItem)
}

// envTransform maps CARGO_QUALITY_A__B_C=v to the key "a.b_c". List keys
// accept comma-separated values. Upload settings share the prefix but are
// not part of the file schema.
func envTransform(k, v string) (string, any) {
	key := strings.ToLower(strings.TrimPrefix(k, EnvPrefix))
	if strings.HasPrefix(key, "s3_") {
		return "", nil
	}
	key = strings.ReplaceAll(key, "__", ".")
	if isListKey(key) {
		return key, splitList(v)
	}
	return key, v
}

func isListKey(key string) bool {
	switch key {
	case "check_quality_item", "exclude_dir",
		"quality_evaluation_cfg.license_cfg.allow_licenses",
		"quality_evaluation_cfg.license_cfg.deny_licenses":
		return true
	}
	return false
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// rejectNegative fails on negative integers, which the weakly typed decoder
// would otherwise wrap into huge unsigned values.
func rejectNegative(k *koanf.Koanf) error {
	for key, v := range k.All() {
		switch n := v.(type) {
		case int64:
			if n < 0 {
				return fmt.Errorf("%s: negative value %d", key, n)
			}
		case int:
			if n < 0 {
				return fmt.Errorf("%s: negative value %d", key, n)
			}
		case float64:
			if n < 0 {
				return fmt.Errorf("%s: negative value %v", key, n)
			}
		}
	}
	return nil
}
