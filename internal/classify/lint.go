// Package classify turns raw analyzer output into findings: lint blocks from
// clippy's stderr, license categories per dependency, and threshold flags per
// code unit.
package classify

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/open-rust-Initiative/cargo-plugins/internal/types"
)

// LintKind is the severity tag of a lint block.
type LintKind int

const (
	LintNone LintKind = iota
	LintRustWarn
	LintRustDeny
	LintClippyWarn
	LintClippyDeny
)

func (k LintKind) String() string {
	switch k {
	case LintRustWarn:
		return "rust_warn"
	case LintRustDeny:
		return "rust_deny"
	case LintClippyWarn:
		return "clippy_warn"
	case LintClippyDeny:
		return "clippy_deny"
	default:
		return "none"
	}
}

// MarshalText lets structured artifacts carry the kind name.
func (k LintKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// IsError reports whether the kind counts as an error rather than a warning.
func (k LintKind) IsError() bool {
	return k == LintRustDeny || k == LintClippyDeny
}

// LintBlock is one blank-line-delimited diagnostic carrying a severity tag.
type LintBlock struct {
	Index   int      `toml:"index" json:"index"`
	Kind    LintKind `toml:"kind" json:"kind"`
	Lint    string   `toml:"lint" json:"lint"`
	Content []string `toml:"content" json:"content"`
}

type lintState int

const (
	// stateAwaitingTag: inside a block (or between blocks), no tag seen yet.
	stateAwaitingTag lintState = iota
	// stateInBlock: the current block has its tag; later tags are ignored.
	stateInBlock
)

const clippyPrefix = "clippy::"

var lintMarkers = []struct {
	marker string
	deny   bool
}{
	{"#[warn(", false},
	{"#[deny(", true},
}

// LintScanner classifies lint output line by line. A block ends at a blank
// line or at Finish; blocks that never matched a tag are dropped.
type LintScanner struct {
	state   lintState
	next    int
	kind    LintKind
	lint    string
	content []string
	blocks  []LintBlock
}

// NewLintScanner returns a scanner positioned before the first block.
func NewLintScanner() *LintScanner {
	return &LintScanner{state: stateAwaitingTag}
}

// Feed consumes one line (without its trailing newline).
func (s *LintScanner) Feed(line string) {
	line = strings.TrimRight(line, "\r")
	if strings.TrimSpace(line) == "" {
		s.endBlock()
		return
	}
	s.content = append(s.content, line)
	if s.state == stateAwaitingTag {
		if kind, lint, ok := matchLintTag(line); ok {
			s.kind, s.lint = kind, lint
			s.state = stateInBlock
		}
	}
}

// Finish closes the trailing block and returns every tagged block in input order.
func (s *LintScanner) Finish() []LintBlock {
	s.endBlock()
	return s.blocks
}

func (s *LintScanner) endBlock() {
	if len(s.content) == 0 {
		return
	}
	s.next++
	if s.state == stateInBlock {
		s.blocks = append(s.blocks, LintBlock{
			Index:   s.next,
			Kind:    s.kind,
			Lint:    s.lint,
			Content: s.content,
		})
	}
	s.state = stateAwaitingTag
	s.kind, s.lint = LintNone, ""
	s.content = nil
}

// matchLintTag finds the leftmost well-formed warn/deny annotation in line.
// The clippy:: path of the lint decides between the rust and clippy kinds.
func matchLintTag(line string) (LintKind, string, bool) {
	bestPos := -1
	var bestKind LintKind
	var bestLint string
	for _, m := range lintMarkers {
		search := line
		offset := 0
		for {
			p := strings.Index(search, m.marker)
			if p < 0 {
				break
			}
			start := offset + p + len(m.marker)
			end := strings.IndexByte(line[start:], ')')
			if end <= 0 {
				// unterminated or empty; keep looking further right
				offset = start
				search = line[start:]
				continue
			}
			if bestPos < 0 || offset+p < bestPos {
				bestPos = offset + p
				bestLint = line[start : start+end]
				bestKind = lintKind(bestLint, m.deny)
			}
			break
		}
	}
	return bestKind, bestLint, bestPos >= 0
}

func lintKind(lint string, deny bool) LintKind {
	clippy := strings.HasPrefix(lint, clippyPrefix)
	switch {
	case clippy && deny:
		return LintClippyDeny
	case clippy:
		return LintClippyWarn
	case deny:
		return LintRustDeny
	default:
		return LintRustWarn
	}
}

// ScanLint runs a LintScanner over r.
func ScanLint(r io.Reader) ([]LintBlock, error) {
	s := NewLintScanner()
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		s.Feed(sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading lint output: %w", err)
	}
	return s.Finish(), nil
}

// CountLint tallies blocks into error and warning counts.
func CountLint(blocks []LintBlock) types.StaticFinding {
	var f types.StaticFinding
	for _, b := range blocks {
		switch {
		case b.Kind == LintNone:
		case b.Kind.IsError():
			f.Errors++
		default:
			f.Warnings++
		}
	}
	return f
}
