// Package output formats evaluation reports for the terminal (ANSI), JSON,
// YAML, Markdown, and HTML.
package output

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/open-rust-Initiative/cargo-plugins/internal/types"
)

// Formatter is the interface for outputting reports.
type Formatter interface {
	Format(w io.Writer, report *types.Report) error
}

// Formats lists the names accepted by New.
var Formats = []string{"json", "yaml", "terminal", "markdown", "html"}

// New returns the formatter registered under name.
func New(name string, noColor, verbose bool) (Formatter, error) {
	switch strings.ToLower(name) {
	case "", "json":
		return &JSONFormatter{}, nil
	case "yaml", "yml":
		return &YAMLFormatter{}, nil
	case "terminal", "text":
		return &TerminalFormatter{NoColor: noColor, Verbose: verbose}, nil
	case "markdown", "md":
		return &MarkdownFormatter{}, nil
	case "html":
		return &HTMLFormatter{}, nil
	default:
		return nil, fmt.Errorf("unknown format %q (valid: %s)", name, strings.Join(Formats, ", "))
	}
}

// sectionTitle is the human label of an analyzer slot.
func sectionTitle(k types.AnalyzerKind) string {
	switch k {
	case types.KindStatic:
		return "Static check"
	case types.KindLicense:
		return "License check"
	case types.KindMeasure:
		return "Code measure"
	default:
		return k.String()
	}
}

type countEntry struct {
	name  string
	value uint64
}

// sortedCounts orders counters by name for stable rendering.
func sortedCounts(m map[string]uint64) []countEntry {
	out := make([]countEntry, 0, len(m))
	for k, v := range m {
		out = append(out, countEntry{k, v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

func countsSummary(m map[string]uint64) string {
	var parts []string
	for _, c := range sortedCounts(m) {
		parts = append(parts, fmt.Sprintf("%s=%d", c.name, c.value))
	}
	return strings.Join(parts, " ")
}
