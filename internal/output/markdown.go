package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/open-rust-Initiative/cargo-plugins/internal/types"
)

// MarkdownFormatter outputs the report as GitHub-flavored markdown,
// designed for GitHub Actions Job Summaries and PR comments.
type MarkdownFormatter struct{}

func (f *MarkdownFormatter) Format(w io.Writer, report *types.Report) error {
	f.printSummary(w, report)
	f.printTable(w, report)
	f.printDetails(w, report)
	f.printFooter(w, report)
	return nil
}

func (f *MarkdownFormatter) printSummary(w io.Writer, r *types.Report) {
	fmt.Fprintf(w, "### %s Cargo Quality Report: %d\n\n", scoreEmoji(r), r.Total())
	parts := []string{fmt.Sprintf("**Project:** `%s`", r.Project)}
	if r.Duration > 0 {
		parts = append(parts, fmt.Sprintf("%.2fs", r.Duration.Seconds()))
	}
	if r.PreviousTotal != nil {
		parts = append(parts, fmt.Sprintf("previous total %d (%s)", *r.PreviousTotal, delta(r.Total(), *r.PreviousTotal)))
	}
	fmt.Fprintf(w, "> %s\n\n", strings.Join(parts, " · "))
}

func (f *MarkdownFormatter) printTable(w io.Writer, r *types.Report) {
	fmt.Fprintln(w, "| Analyzer | Score | Weighted | Findings |")
	fmt.Fprintln(w, "|----------|------:|---------:|----------|")
	for _, k := range types.AllKinds() {
		s, ok := r.Get(k)
		if !ok {
			fmt.Fprintf(w, "| %s | - | - | _skipped_ |\n", sectionTitle(k))
			continue
		}
		fmt.Fprintf(w, "| %s | %d | %d | %s |\n", sectionTitle(k), s.Score, s.NormalizedScore, countsSummary(s.Counts))
	}
	fmt.Fprintf(w, "| **Total** | | **%d** | |\n\n", r.Total())
}

func (f *MarkdownFormatter) printDetails(w io.Writer, r *types.Report) {
	for _, k := range r.Populated() {
		s, _ := r.Get(k)
		fmt.Fprintf(w, "<details>\n<summary>%s</summary>\n\n", sectionTitle(k))
		for _, c := range sortedCounts(s.Counts) {
			fmt.Fprintf(w, "- `%s`: %d\n", c.name, c.value)
		}
		fmt.Fprint(w, "\n</details>\n\n")
	}
}

func (f *MarkdownFormatter) printFooter(w io.Writer, r *types.Report) {
	fmt.Fprintf(w, "---\n<sub>run `%s` · generated %s</sub>\n", r.RunID, r.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
}

func scoreEmoji(r *types.Report) string {
	populated := len(r.Populated())
	if populated == 0 {
		return ":grey_question:"
	}
	// healthy: every populated raw score is at least 80
	for _, k := range r.Populated() {
		s, _ := r.Get(k)
		if s.Score < 80 {
			return ":warning:"
		}
	}
	return ":white_check_mark:"
}

func delta(now, prev uint64) string {
	switch {
	case now > prev:
		return fmt.Sprintf("+%d", now-prev)
	case now < prev:
		return fmt.Sprintf("-%d", prev-now)
	default:
		return "±0"
	}
}
