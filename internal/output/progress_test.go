package output

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-rust-Initiative/cargo-plugins/internal/types"
)

// syncBuffer guards a buffer shared with the animation goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func fakeClock(step time.Duration) func() time.Time {
	t := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(step)
		return t
	}
}

func TestProgressAnimatesCurrentAnalyzer(t *testing.T) {
	var out syncBuffer
	p := NewProgress(&out, true)
	p.Begin(types.KindStatic, 0, 2)
	time.Sleep(3 * progressTick)
	p.Begin(types.KindLicense, 1, 2)
	time.Sleep(3 * progressTick)
	p.Finish(nil)

	s := out.String()
	assert.Contains(t, s, "[1/2] static_check")
	assert.Contains(t, s, "[2/2] license")
}

func TestProgressSummary(t *testing.T) {
	var out syncBuffer
	p := NewProgress(&out, true)
	p.now = fakeClock(time.Second)

	p.Begin(types.KindStatic, 0, 2)
	p.Begin(types.KindMeasure, 1, 2)
	report := &types.Report{CodeMeasure: &types.Section{ScoreResult: types.ScoreResult{Score: 98, NormalizedScore: 39}}}
	p.Finish(report)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.GreaterOrEqual(t, len(lines), 2)
	static, measure := lines[len(lines)-2], lines[len(lines)-1]
	assert.Contains(t, static, "- static_check")
	assert.Contains(t, static, "skipped")
	assert.Contains(t, static, "1s")
	assert.Contains(t, measure, "✓ measure")
	assert.Contains(t, measure, " 98/100")
}

func TestProgressFinishIdempotent(t *testing.T) {
	var out syncBuffer
	p := NewProgress(&out, true)
	p.Begin(types.KindMeasure, 0, 1)
	p.Finish(nil)
	n := len(out.String())
	p.Finish(nil)
	p.Finish(&types.Report{})
	assert.Len(t, out.String(), n)
}

func TestProgressFinishWithoutBegin(t *testing.T) {
	var out syncBuffer
	NewProgress(&out, true).Finish(nil)
	assert.Empty(t, out.String())
}

func TestProgressColor(t *testing.T) {
	var out syncBuffer
	p := NewProgress(&out, false)
	p.Begin(types.KindLicense, 0, 1)
	p.Finish(&types.Report{LicenseCheck: &types.Section{}})
	assert.Contains(t, out.String(), green+"✓"+reset)
}
