package classify

import "github.com/open-rust-Initiative/cargo-plugins/internal/types"

// MeasureThresholds are the limits a code unit must exceed to be flagged.
// A nil threshold disables its check.
type MeasureThresholds struct {
	Cyclomatic    *uint64
	Cognitive     *uint64
	FunctionLines *uint64
	FileLines     *uint64
}

func exceeds(v uint64, limit *uint64) bool {
	return limit != nil && v > *limit
}

// ClassifyUnits returns copies of units with their threshold flags set, and
// the per-flag counts. File units only ever carry the large-file flag.
func ClassifyUnits(units []types.CodeUnit, th MeasureThresholds) ([]types.CodeUnit, types.MeasureFinding) {
	var f types.MeasureFinding
	out := make([]types.CodeUnit, 0, len(units))
	for _, u := range units {
		u.IfLargeFile, u.IfLargeFunction = false, false
		u.IfLargeCognitive, u.IfLargeCyclomatic = false, false
		switch u.Kind {
		case types.UnitFile:
			if exceeds(u.Span(), th.FileLines) {
				u.IfLargeFile = true
				f.LargeFile++
			}
		case types.UnitFunction:
			if exceeds(u.Span(), th.FunctionLines) {
				u.IfLargeFunction = true
				f.LargeFunction++
			}
			if exceeds(u.Cognitive, th.Cognitive) {
				u.IfLargeCognitive = true
				f.LargeCognitive++
			}
			if exceeds(u.Cyclomatic, th.Cyclomatic) {
				u.IfLargeCyclomatic = true
				f.LargeCyclomatic++
			}
		}
		out = append(out, u)
	}
	return out, f
}
