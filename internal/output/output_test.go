package output_test

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/open-rust-Initiative/cargo-plugins/internal/output"
	"github.com/open-rust-Initiative/cargo-plugins/internal/types"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sampleReport() *types.Report {
	prev := uint64(60)
	return &types.Report{
		RunID:       "01JC0000000000000000000000",
		Project:     "/work/demo",
		GeneratedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Duration:    1500 * time.Millisecond,
		StaticCheck: &types.Section{
			ScoreResult: types.ScoreResult{Score: 94, NormalizedScore: 28},
			Counts:      map[string]uint64{"error": 1, "warn": 1},
		},
		LicenseCheck: &types.Section{
			ScoreResult: types.ScoreResult{Score: 60, NormalizedScore: 18},
			Counts:      map[string]uint64{"deny_license": 2, "unlicense": 0, "default_license": 0},
		},
		PreviousTotal: &prev,
	}
}

func TestTerminalFormatter(t *testing.T) {
	f := &output.TerminalFormatter{NoColor: true}
	var buf bytes.Buffer
	require.NoError(t, f.Format(&buf, sampleReport()))
	out := buf.String()
	require.Contains(t, out, "CARGO QUALITY REPORT")
	require.Contains(t, out, "Project: /work/demo")
	require.Contains(t, out, "Static check")
	require.Contains(t, out, "deny_license")
	require.NotContains(t, out, "unlicense")
	require.Contains(t, out, "skipped")
	require.Contains(t, out, "Total: 46")
	require.Contains(t, out, "previous 60, -14")
	require.NotContains(t, out, "\033[")
}

func TestTerminalFormatterVerbose(t *testing.T) {
	f := &output.TerminalFormatter{NoColor: true, Verbose: true}
	var buf bytes.Buffer
	require.NoError(t, f.Format(&buf, sampleReport()))
	require.Contains(t, buf.String(), "unlicense")
	require.Contains(t, buf.String(), "run 01JC0000000000000000000000")
}

func TestTerminalFormatterEmpty(t *testing.T) {
	f := &output.TerminalFormatter{NoColor: true}
	var buf bytes.Buffer
	require.NoError(t, f.Format(&buf, &types.Report{}))
	require.Contains(t, buf.String(), "No analyzer produced a score")
	require.Contains(t, buf.String(), "Total: 0")
}

func TestTerminalFormatterColor(t *testing.T) {
	t.Setenv("NO_COLOR", "")
	f := &output.TerminalFormatter{}
	var buf bytes.Buffer
	require.NoError(t, f.Format(&buf, sampleReport()))
	require.Contains(t, buf.String(), "\033[")
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&output.JSONFormatter{}).Format(&buf, sampleReport()))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	require.Nil(t, doc["code_measure"])
	require.Equal(t, float64(46), doc["total"])
	require.Equal(t, float64(1500), doc["duration_ms"])
	static := doc["static_check"].(map[string]any)
	require.Equal(t, float64(94), static["score"])
	require.Equal(t, float64(28), static["normalized_score"])
}

func TestYAMLFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&output.YAMLFormatter{}).Format(&buf, sampleReport()))

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	require.Equal(t, 46, doc["total"])
	static := doc["static_check"].(map[string]any)
	require.Equal(t, 94, static["score"])
}

func TestMarkdownFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&output.MarkdownFormatter{}).Format(&buf, sampleReport()))
	out := buf.String()
	require.Contains(t, out, "Cargo Quality Report: 46")
	require.Contains(t, out, ":warning:")
	require.Contains(t, out, "| Static check | 94 | 28 | error=1 warn=1 |")
	require.Contains(t, out, "| Code measure | - | - | _skipped_ |")
	require.Contains(t, out, "<summary>License check</summary>")
	require.Contains(t, out, "previous total 60 (-14)")
}

func TestHTMLFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&output.HTMLFormatter{}).Format(&buf, sampleReport()))
	out := buf.String()
	require.Contains(t, out, "<!DOCTYPE html>")
	require.Contains(t, out, "<table>")
	require.Contains(t, out, "<title>Cargo Quality Report: /work/demo</title>")
}

func TestNew(t *testing.T) {
	for _, name := range output.Formats {
		f, err := output.New(name, true, false)
		require.NoError(t, err, name)
		require.NotNil(t, f)
	}
	f, err := output.New("", false, false)
	require.NoError(t, err)
	require.IsType(t, &output.JSONFormatter{}, f)

	_, err = output.New("sarif", false, false)
	require.Error(t, err)
}
