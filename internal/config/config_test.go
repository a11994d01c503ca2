package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/open-rust-Initiative/cargo-plugins/internal/config"
	"github.com/open-rust-Initiative/cargo-plugins/internal/types"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), config.DefaultFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
check_quality_item = ["license", "measure"]
exclude_dir = ["target", "vendor"]

[quality_evaluation_cfg.static_check_cfg]
error_score = 10
warn_score = 2
static_check_score = 100
static_check_weight = 30

[quality_evaluation_cfg.license_cfg]
allow_licenses = ["MIT", "Apache-2.0"]
deny_licenses = ["GPL-3.0"]
deny_license_score = 20
license_eval_score = 100
license_eval_weight = 50
`)

	cfg, err := config.Load(path, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"target", "vendor"}, cfg.ExcludeDir)

	kinds, err := cfg.Kinds()
	require.NoError(t, err)
	require.Equal(t, []types.AnalyzerKind{types.KindLicense, types.KindMeasure}, kinds)

	sc := cfg.QualityEvaluation.StaticCheck
	require.NotNil(t, sc)
	require.Equal(t, uint64(10), *sc.ErrorScore)
	require.Equal(t, uint64(30), *sc.StaticCheckWeight)

	lc := cfg.QualityEvaluation.License
	require.NotNil(t, lc)
	require.Equal(t, []string{"MIT", "Apache-2.0"}, lc.AllowLicenses)
	require.Equal(t, uint64(20), *lc.DenyLicenseScore)
	require.Nil(t, lc.DefaultLicenseScore)
	require.Nil(t, lc.UnlicenseScore)

	require.Nil(t, cfg.QualityEvaluation.Measure)
}

func TestLoadConfigDefaultsToAllKinds(t *testing.T) {
	path := writeConfig(t, "exclude_dir = []\n")
	cfg, err := config.Load(path, nil)
	require.NoError(t, err)
	kinds, err := cfg.Kinds()
	require.NoError(t, err)
	require.Equal(t, types.AllKinds(), kinds)
}

func TestLoadConfigMissing(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.toml"), nil)
	require.ErrorIs(t, err, config.ErrNotFound)
}

func TestLoadConfigInvalid(t *testing.T) {
	path := writeConfig(t, "check_quality_item = [\n")
	_, err := config.Load(path, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "parsing")
}

func TestLoadConfigUnknownAnalyzer(t *testing.T) {
	path := writeConfig(t, `check_quality_item = ["static_check", "community"]`)
	_, err := config.Load(path, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "community")
}

func TestLoadConfigNegativeValue(t *testing.T) {
	path := writeConfig(t, `
[quality_evaluation_cfg.static_check_cfg]
warn_score = -1
`)
	_, err := config.Load(path, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "negative")
}

func TestLoadConfigLegacyMeasureTable(t *testing.T) {
	path := writeConfig(t, `
[quality_evaluation_cfg.measeure_cfg]
measure_score = 100
measure_weight = 40
`)
	cfg, err := config.Load(path, nil)
	require.NoError(t, err)
	require.NotNil(t, cfg.QualityEvaluation.Measure)
	require.Equal(t, uint64(40), *cfg.QualityEvaluation.Measure.MeasureWeight)
	require.Nil(t, cfg.QualityEvaluation.LegacyMeasure)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	path := writeConfig(t, `
check_quality_item = ["static_check"]
[quality_evaluation_cfg.static_check_cfg]
warn_score = 2
`)
	t.Setenv("CARGO_QUALITY_QUALITY_EVALUATION_CFG__STATIC_CHECK_CFG__WARN_SCORE", "7")
	t.Setenv("CARGO_QUALITY_CHECK_QUALITY_ITEM", "license, measure")
	t.Setenv("CARGO_QUALITY_S3_ENDPOINT", "localhost:9000")

	cfg, err := config.Load(path, nil)
	require.NoError(t, err)
	require.Equal(t, uint64(7), *cfg.QualityEvaluation.StaticCheck.WarnScore)
	require.Equal(t, []string{"license", "measure"}, cfg.CheckQualityItem)
}

func TestLoadConfigOverridesWin(t *testing.T) {
	path := writeConfig(t, `check_quality_item = ["static_check"]`)
	t.Setenv("CARGO_QUALITY_CHECK_QUALITY_ITEM", "measure")

	cfg, err := config.Load(path, map[string]any{
		"check_quality_item": []string{"license"},
	})
	require.NoError(t, err)
	kinds, err := cfg.Kinds()
	require.NoError(t, err)
	require.Equal(t, []types.AnalyzerKind{types.KindLicense}, kinds)
}

func TestTemplateLoads(t *testing.T) {
	path := writeConfig(t, config.Template)
	cfg, err := config.Load(path, nil)
	require.NoError(t, err)

	kinds, err := cfg.Kinds()
	require.NoError(t, err)
	require.Equal(t, types.AllKinds(), kinds)

	qe := cfg.QualityEvaluation
	require.NotNil(t, qe.StaticCheck)
	require.NotNil(t, qe.License)
	require.NotNil(t, qe.Measure)
	require.NotNil(t, qe.Measure.MeasureScore)
	require.NotNil(t, qe.License.UnlicenseScore)
	require.Contains(t, qe.License.DenyLicenses, "GPL-3.0")
}
