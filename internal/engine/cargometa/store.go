package cargometa

import (
	"fmt"
	"sort"

	"github.com/google/licensecheck"
)

// DefaultConfidence is the minimum share of a license text that must match
// known licenses before its identifiers are accepted.
const DefaultConfidence = 0.8

// Store identifies license texts against the builtin license corpus.
type Store struct {
	scanner    *licensecheck.Scanner
	confidence float64
}

// LoadStore builds the license corpus. It is the slow half of license
// collection and runs alongside Resolve.
func LoadStore() (*Store, error) {
	s, err := licensecheck.NewScanner(licensecheck.BuiltinLicenses())
	if err != nil {
		return nil, fmt.Errorf("loading license store: %w", err)
	}
	return &Store{scanner: s, confidence: DefaultConfidence}, nil
}

// Identify returns the sorted identifiers matched in text, or nil when the
// coverage falls below the confidence threshold.
func (s *Store) Identify(text []byte) []string {
	cov := s.scanner.Scan(text)
	if cov.Percent < s.confidence*100 {
		return nil
	}
	seen := make(map[string]bool)
	var ids []string
	for _, m := range cov.Match {
		if !seen[m.ID] {
			seen[m.ID] = true
			ids = append(ids, m.ID)
		}
	}
	sort.Strings(ids)
	return ids
}
