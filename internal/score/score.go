// Package score turns finding counters into a 0-100 score and a
// weight-normalized contribution.
package score

import (
	"errors"
	"math"
	"math/bits"

	"github.com/open-rust-Initiative/cargo-plugins/internal/types"
)

// ErrZeroBase is returned when the base score is zero, which would make the
// percentage undefined.
var ErrZeroBase = errors.New("base score must be greater than zero")

// Penalty is one finding category: how many occurrences and the deduction
// applied per occurrence.
type Penalty struct {
	Count      uint64
	PerFinding uint64
}

// Params is a fully resolved scoring configuration for one analyzer.
type Params struct {
	Base      uint64
	Weight    uint64
	Penalties []Penalty
}

// Compute applies
//
//	score      = max(0, base - Σ count*penalty) * 100 / base
//	normalized = score * weight / 100
//
// with saturating arithmetic, so any deduction total at or above base yields
// exactly 0 and the score never exceeds 100.
func Compute(p Params) (types.ScoreResult, error) {
	if p.Base == 0 {
		return types.ScoreResult{}, ErrZeroBase
	}
	remaining := p.Base
	for _, pen := range p.Penalties {
		remaining = saturatingSub(remaining, saturatingMul(pen.Count, pen.PerFinding))
	}
	raw := percentOf(remaining, p.Base)
	return types.ScoreResult{
		Score:           raw,
		NormalizedScore: Normalize(raw, p.Weight),
	}, nil
}

// Normalize scales a raw score by weight percent, truncating.
func Normalize(raw, weight uint64) uint64 {
	hi, lo := bits.Mul64(raw, weight)
	if hi >= 100 {
		return math.MaxUint64
	}
	q, _ := bits.Div64(hi, lo, 100)
	return q
}

// percentOf returns part*100/whole for part <= whole without overflowing.
func percentOf(part, whole uint64) uint64 {
	hi, lo := bits.Mul64(part, 100)
	q, _ := bits.Div64(hi, lo, whole)
	return q
}

func saturatingSub(a, b uint64) uint64 {
	if b >= a {
		return 0
	}
	return a - b
}

func saturatingMul(a, b uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return math.MaxUint64
	}
	return lo
}
