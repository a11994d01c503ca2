// Package source discovers the Rust source files a project's measure pass
// analyzes.
package source

import (
	"bufio"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// IgnoreFileName lists extra glob patterns, one per line, relative to the
// project root.
const IgnoreFileName = ".qualityignore"

// File is one discovered Rust source file.
type File struct {
	Path    string
	RelPath string
	Content []byte
}

// Load reads the file content into memory.
func (f *File) Load() error {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return err
	}
	f.Content = data
	return nil
}

// Discovery walks a project and returns the .rs files that live under a
// src directory.
type Discovery struct {
	// Exclude holds directory name fragments or doublestar patterns.
	// A directory whose relative path contains a fragment is skipped; a
	// pattern is matched against the full relative path.
	Exclude []string
}

// Discover walks root. Paths are sorted for stable output.
func (d *Discovery) Discover(root string) ([]*File, error) {
	excl := newExcludeSet(d.Exclude, loadIgnoreFile(root))

	var files []*File
	err := filepath.WalkDir(root, func(fp string, e os.DirEntry, err error) error {
		if err != nil {
			return nil // skip unreadable entries
		}
		rel, relErr := filepath.Rel(root, fp)
		if relErr != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if e.IsDir() {
			if e.Name() == ".git" || excl.match(rel, rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(fp) != ".rs" || !underSrc(rel) || excl.match(rel, path.Dir(rel)) {
			return nil
		}
		files = append(files, &File{Path: fp, RelPath: rel})
		return nil
	})
	sort.Slice(files, func(i, j int) bool { return files[i].RelPath < files[j].RelPath })
	return files, err
}

func underSrc(rel string) bool {
	parts := strings.Split(rel, "/")
	for _, p := range parts[:len(parts)-1] {
		if p == "src" {
			return true
		}
	}
	return false
}

// excludeSet splits exclusions into directory fragments and path globs.
// Fragments only ever match the directory part of a path, so src/tests.rs
// survives a "tests" fragment. Ignore-file lines are always globs.
type excludeSet struct {
	fragments []string
	globs     []string
}

func newExcludeSet(exclude, ignore []string) excludeSet {
	var s excludeSet
	for _, p := range exclude {
		switch {
		case p == "":
		case strings.ContainsAny(p, "*?[{"):
			s.globs = append(s.globs, p)
		default:
			s.fragments = append(s.fragments, p)
		}
	}
	for _, p := range ignore {
		if p != "" {
			s.globs = append(s.globs, p)
		}
	}
	return s
}

func (s excludeSet) match(rel, dir string) bool {
	for _, g := range s.globs {
		if ok, _ := doublestar.Match(g, rel); ok {
			return true
		}
	}
	if dir == "." {
		return false
	}
	for _, f := range s.fragments {
		if strings.Contains(dir, f) {
			return true
		}
	}
	return false
}

func loadIgnoreFile(root string) []string {
	f, err := os.Open(filepath.Join(root, IgnoreFileName))
	if err != nil {
		return nil
	}
	defer f.Close()
	var patterns []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line != "" && !strings.HasPrefix(line, "#") {
			patterns = append(patterns, line)
		}
	}
	return patterns
}
