package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/olekukonko/tablewriter"
	"github.com/open-rust-Initiative/cargo-plugins/internal/types"
)

// ANSI color codes
const (
	reset  = "\033[0m"
	bold   = "\033[1m"
	dim    = "\033[2m"
	red    = "\033[31m"
	green  = "\033[32m"
	yellow = "\033[33m"
	cyan   = "\033[36m"
)

const (
	barWidth  = 30
	lineWidth = 72
)

// TerminalFormatter outputs a score dashboard followed by a findings table.
type TerminalFormatter struct {
	NoColor bool
	Verbose bool
}

func (f *TerminalFormatter) color(code, text string) string {
	if f.NoColor {
		return text
	}
	return code + text + reset
}

func (f *TerminalFormatter) Format(w io.Writer, report *types.Report) error {
	if os.Getenv("NO_COLOR") != "" {
		f.NoColor = true
	}

	f.printHeader(w, report)
	if len(report.Populated()) == 0 {
		fmt.Fprintf(w, "\n  %s No analyzer produced a score.\n", f.color(yellow, "!"))
	} else {
		f.printDashboard(w, report)
	}
	if err := f.printTable(w, report); err != nil {
		return err
	}
	f.printFooter(w, report)
	return nil
}

func (f *TerminalFormatter) separator() string {
	return strings.Repeat("─", lineWidth)
}

func (f *TerminalFormatter) sectionHeader(title string) string {
	prefix := "── " + title + " "
	remaining := max(lineWidth-utf8.RuneCountInString(prefix), 0)
	return prefix + strings.Repeat("─", remaining)
}

func (f *TerminalFormatter) printHeader(w io.Writer, r *types.Report) {
	sep := f.separator()
	fmt.Fprintf(w, "\n%s\n", f.color(dim, sep))
	fmt.Fprintf(w, "  %s\n", f.color(bold, "CARGO QUALITY REPORT"))

	parts := []string{}
	if r.Project != "" {
		parts = append(parts, fmt.Sprintf("Project: %s", r.Project))
	}
	parts = append(parts, fmt.Sprintf("%d analyzers", len(r.Populated())))
	if r.Duration > 0 {
		parts = append(parts, fmt.Sprintf("%.2fs", r.Duration.Seconds()))
	}
	fmt.Fprintf(w, "  %s\n", strings.Join(parts, "  ·  "))
	fmt.Fprintf(w, "%s\n", f.color(dim, sep))
}

func (f *TerminalFormatter) scoreColor(score uint64) string {
	switch {
	case score >= 80:
		return green
	case score >= 50:
		return yellow
	default:
		return red
	}
}

func (f *TerminalFormatter) printDashboard(w io.Writer, r *types.Report) {
	fmt.Fprintln(w)
	for _, k := range types.AllKinds() {
		s, ok := r.Get(k)
		if !ok {
			fmt.Fprintf(w, "  %-14s %s\n", sectionTitle(k), f.color(dim, "skipped"))
			continue
		}
		filled := int(min(s.Score, 100) * barWidth / 100)
		bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
		fmt.Fprintf(w, "  %-14s %s %3d  %s\n", sectionTitle(k),
			f.color(f.scoreColor(s.Score), bar), s.Score,
			f.color(dim, fmt.Sprintf("(+%d)", s.NormalizedScore)))
	}
}

func (f *TerminalFormatter) printTable(w io.Writer, r *types.Report) error {
	if len(r.Populated()) == 0 {
		return nil
	}
	fmt.Fprintf(w, "\n%s\n", f.color(dim, f.sectionHeader("Findings")))
	table := tablewriter.NewWriter(w)
	table.Header("Analyzer", "Finding", "Count")
	for _, k := range r.Populated() {
		s, _ := r.Get(k)
		for _, c := range sortedCounts(s.Counts) {
			if c.value == 0 && !f.Verbose {
				continue
			}
			if err := table.Append([]string{sectionTitle(k), c.name, fmt.Sprintf("%d", c.value)}); err != nil {
				return err
			}
		}
	}
	return table.Render()
}

func (f *TerminalFormatter) printFooter(w io.Writer, r *types.Report) {
	fmt.Fprintf(w, "\n%s\n", f.color(dim, f.separator()))
	total := fmt.Sprintf("Total: %d", r.Total())
	line := "  " + f.color(bold, total)
	if r.PreviousTotal != nil {
		line += "  " + f.color(cyan, fmt.Sprintf("(previous %d, %s)", *r.PreviousTotal, delta(r.Total(), *r.PreviousTotal)))
	}
	fmt.Fprintln(w, line)
	if f.Verbose && r.RunID != "" {
		fmt.Fprintf(w, "  %s\n", f.color(dim, "run "+r.RunID))
	}
}
