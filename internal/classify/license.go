package classify

import (
	"strings"

	"github.com/open-rust-Initiative/cargo-plugins/internal/types"
)

// LicensePolicy holds the allow and deny sets, matched case-insensitively.
type LicensePolicy struct {
	allow map[string]struct{}
	deny  map[string]struct{}
}

// NewLicensePolicy builds a policy from SPDX identifier lists.
func NewLicensePolicy(allow, deny []string) LicensePolicy {
	return LicensePolicy{allow: toSet(allow), deny: toSet(deny)}
}

func toSet(ids []string) map[string]struct{} {
	m := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.ToLower(strings.TrimSpace(id))
		if id != "" {
			m[id] = struct{}{}
		}
	}
	return m
}

// LicenseRecord is the per-dependency classification kept in artifacts.
type LicenseRecord struct {
	Name                string   `toml:"name" json:"name"`
	Version             string   `toml:"version,omitempty" json:"version,omitempty"`
	License             []string `toml:"license" json:"license"`
	IfHasAllowLicense   bool     `toml:"if_has_allow_license" json:"if_has_allow_license"`
	IfHasDenyLicense    bool     `toml:"if_has_deny_license" json:"if_has_deny_license"`
	IfHasDefaultLicense bool     `toml:"if_has_default_license" json:"if_has_default_license"`
	IfUnlicense         bool     `toml:"if_unlicense" json:"if_unlicense"`
}

// Classify flags each license of dep against the policy.
func (p LicensePolicy) Classify(dep types.Dependency) LicenseRecord {
	rec := LicenseRecord{Name: dep.Name, Version: dep.Version, License: dep.Licenses}
	if len(dep.Licenses) == 0 {
		rec.IfUnlicense = true
		return rec
	}
	for _, l := range dep.Licenses {
		id := strings.ToLower(l)
		_, denied := p.deny[id]
		_, allowed := p.allow[id]
		if denied {
			rec.IfHasDenyLicense = true
		}
		if allowed {
			rec.IfHasAllowLicense = true
		}
		if !denied && !allowed {
			rec.IfHasDefaultLicense = true
		}
	}
	return rec
}

// ClassifyLicenses classifies every dependency and counts it into at most one
// category. A denied license dominates anything else; a default license only
// counts when nothing in the dependency is allowed.
func ClassifyLicenses(deps []types.Dependency, p LicensePolicy) ([]LicenseRecord, types.LicenseFinding) {
	var f types.LicenseFinding
	records := make([]LicenseRecord, 0, len(deps))
	for _, d := range deps {
		rec := p.Classify(d)
		switch {
		case rec.IfUnlicense:
			f.Unlicensed++
		case rec.IfHasDenyLicense:
			f.Denied++
		case rec.IfHasDefaultLicense && !rec.IfHasAllowLicense:
			f.Default++
		}
		records = append(records, rec)
	}
	return records, f
}
