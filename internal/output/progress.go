package output

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/open-rust-Initiative/cargo-plugins/internal/types"
)

var progressFrames = []rune("⠋⠙⠹⠸⠼⠴⠦⠧⠇⠏")

const progressTick = 80 * time.Millisecond

// analyzerRun is one started analyzer and how long it took.
type analyzerRun struct {
	kind    types.AnalyzerKind
	started time.Time
	elapsed time.Duration
}

// Progress animates the analyzer currently running on w (typically stderr)
// and, once the run is over, prints one line per analyzer with its elapsed
// time and score. Begin and Finish may be called from any goroutine.
type Progress struct {
	mu      sync.Mutex
	w       io.Writer
	noColor bool
	now     func() time.Time

	runs  []analyzerRun
	total int
	line  string
	done  chan struct{}
}

// NewProgress returns an idle progress display.
func NewProgress(w io.Writer, noColor bool) *Progress {
	return &Progress{w: w, noColor: noColor, now: time.Now}
}

// Begin marks the previous analyzer finished and starts animating kind.
// index counts from zero.
func (p *Progress) Begin(kind types.AnalyzerKind, index, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := p.now()
	p.closeLast(now)
	p.runs = append(p.runs, analyzerRun{kind: kind, started: now})
	p.total = total
	p.line = fmt.Sprintf("[%d/%d] %s", index+1, total, kind)
	if p.done == nil {
		p.done = make(chan struct{})
		go p.loop(p.done)
	}
}

// Finish stops the animation, clears its line and prints the summary. A nil
// report prints elapsed times only. Finish is idempotent.
func (p *Progress) Finish(report *types.Report) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done != nil {
		close(p.done)
		p.done = nil
		fmt.Fprintf(p.w, "\r%s\r", strings.Repeat(" ", len(p.line)+4))
	}
	if p.runs == nil {
		return
	}
	p.closeLast(p.now())
	for _, r := range p.runs {
		fmt.Fprintln(p.w, p.summaryLine(r, report))
	}
	p.runs = nil
}

func (p *Progress) closeLast(now time.Time) {
	if n := len(p.runs); n > 0 && p.runs[n-1].elapsed == 0 {
		p.runs[n-1].elapsed = max(now.Sub(p.runs[n-1].started), time.Millisecond)
	}
}

func (p *Progress) summaryLine(r analyzerRun, report *types.Report) string {
	elapsed := r.elapsed.Round(time.Millisecond)
	if report == nil {
		return fmt.Sprintf("  %-13s %s", r.kind, elapsed)
	}
	if s, ok := report.Get(r.kind); ok {
		return fmt.Sprintf("  %s %-13s %3d/100  %s", p.paint(green, "✓"), r.kind, s.Score, elapsed)
	}
	return fmt.Sprintf("  %s %-13s skipped  %s", p.paint(yellow, "-"), r.kind, elapsed)
}

func (p *Progress) paint(code, text string) string {
	if p.noColor {
		return text
	}
	return code + text + reset
}

func (p *Progress) loop(done chan struct{}) {
	tick := time.NewTicker(progressTick)
	defer tick.Stop()
	for i := 0; ; i++ {
		select {
		case <-done:
			return
		case <-tick.C:
			p.mu.Lock()
			if p.done == done {
				frame := progressFrames[i%len(progressFrames)]
				fmt.Fprintf(p.w, "%-80s", fmt.Sprintf("\r%c %s", frame, p.line))
			}
			p.mu.Unlock()
		}
	}
}
