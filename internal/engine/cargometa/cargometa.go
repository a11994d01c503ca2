// Package cargometa resolves a crate's dependency graph through
// `cargo metadata` and works out the licenses each package is offered under.
package cargometa

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/github/go-spdx/v2/spdxexp"
	"github.com/open-rust-Initiative/cargo-plugins/internal/types"
)

// ErrCargoNotFound is returned when the cargo binary cannot be located.
var ErrCargoNotFound = errors.New("cargo binary not found")

// Package is the subset of a `cargo metadata` package entry we use.
type Package struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Version      string  `json:"version"`
	License      *string `json:"license"`
	LicenseFile  *string `json:"license_file"`
	ManifestPath string  `json:"manifest_path"`
	Source       *string `json:"source"`
}

// Metadata is the decoded `cargo metadata --format-version 1` document.
type Metadata struct {
	Packages         []Package `json:"packages"`
	WorkspaceMembers []string  `json:"workspace_members"`
	WorkspaceRoot    string    `json:"workspace_root"`
}

// Decode parses metadata JSON.
func Decode(data []byte) (*Metadata, error) {
	var md Metadata
	if err := json.Unmarshal(data, &md); err != nil {
		return nil, fmt.Errorf("decoding cargo metadata: %w", err)
	}
	return &md, nil
}

// Resolver shells out to cargo.
type Resolver struct {
	// Cargo is the cargo executable; "cargo" when empty.
	Cargo string
}

// Resolve runs `cargo metadata` for manifest with all features enabled.
func (r *Resolver) Resolve(ctx context.Context, manifest string) (*Metadata, error) {
	name := r.Cargo
	if name == "" {
		name = "cargo"
	}
	bin, err := exec.LookPath(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCargoNotFound, name)
	}
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, "metadata", "--format-version", "1", "--all-features", "--manifest-path", manifest)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("running cargo metadata: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return Decode(stdout.Bytes())
}

// Identifier names the licenses found in a license text.
type Identifier interface {
	Identify(text []byte) []string
}

// ParseExpression returns the distinct SPDX identifiers named by a Cargo
// license expression. The legacy "MIT/Apache-2.0" form is read as OR.
func ParseExpression(expr string) ([]string, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, nil
	}
	normalized := strings.ReplaceAll(expr, "/", " OR ")
	ids, err := spdxexp.ExtractLicenses(normalized)
	if err != nil {
		return nil, fmt.Errorf("parsing license expression %q: %w", expr, err)
	}
	return dedup(ids), nil
}

// Dependencies converts every package into a Dependency. The license field
// wins; otherwise the declared license file, then LICENSE*/COPYING* files next
// to the manifest, are identified with id. Unparseable expressions are kept
// verbatim so they classify as default rather than vanishing.
func Dependencies(md *Metadata, id Identifier) []types.Dependency {
	deps := make([]types.Dependency, 0, len(md.Packages))
	for _, p := range md.Packages {
		deps = append(deps, types.Dependency{
			Name:     p.Name,
			Version:  p.Version,
			Licenses: packageLicenses(p, id),
		})
	}
	sort.SliceStable(deps, func(i, j int) bool {
		if deps[i].Name != deps[j].Name {
			return deps[i].Name < deps[j].Name
		}
		return deps[i].Version < deps[j].Version
	})
	return deps
}

func packageLicenses(p Package, id Identifier) []string {
	if p.License != nil && strings.TrimSpace(*p.License) != "" {
		ids, err := ParseExpression(*p.License)
		if err != nil {
			return []string{strings.TrimSpace(*p.License)}
		}
		return ids
	}
	if id == nil {
		return nil
	}
	dir := filepath.Dir(p.ManifestPath)
	var candidates []string
	if p.LicenseFile != nil && *p.LicenseFile != "" {
		f := *p.LicenseFile
		if !filepath.IsAbs(f) {
			f = filepath.Join(dir, f)
		}
		candidates = append(candidates, f)
	} else if p.ManifestPath != "" {
		candidates = licenseFiles(dir)
	}
	var ids []string
	for _, c := range candidates {
		text, err := os.ReadFile(c)
		if err != nil {
			continue
		}
		ids = append(ids, id.Identify(text)...)
	}
	return dedup(ids)
}

func licenseFiles(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		upper := strings.ToUpper(e.Name())
		if strings.HasPrefix(upper, "LICENSE") || strings.HasPrefix(upper, "LICENCE") || strings.HasPrefix(upper, "COPYING") {
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	return out
}

func dedup(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
