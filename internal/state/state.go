// Package state keeps a per-project history of evaluation totals in a bbolt
// database, so a run can be compared with the previous one.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/open-rust-Initiative/cargo-plugins/internal/types"
	bolt "go.etcd.io/bbolt"
)

var runsBucket = []byte("runs")

// Entry is one recorded run.
type Entry struct {
	RunID       string            `json:"run_id"`
	Total       uint64            `json:"total"`
	GeneratedAt time.Time         `json:"generated_at"`
	Sections    map[string]uint64 `json:"sections"`
}

// EntryFromReport captures the totals of r. Sections maps analyzer names to
// normalized scores.
func EntryFromReport(r *types.Report) Entry {
	e := Entry{
		RunID:       r.RunID,
		Total:       r.Total(),
		GeneratedAt: r.GeneratedAt,
		Sections:    make(map[string]uint64),
	}
	for _, k := range r.Populated() {
		s, _ := r.Get(k)
		e.Sections[k.String()] = s.NormalizedScore
	}
	return e
}

// Store is the history database.
type Store struct {
	db *bolt.DB
}

// DefaultPath returns ~/.cargo-quality/history.db.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".cargo-quality", "history.db")
	}
	return filepath.Join(home, ".cargo-quality", "history.db")
}

// Open opens or creates the database. Directories are created with 0o700,
// the file with 0o600. Symlinks are rejected.
func Open(path string) (*Store, error) {
	if info, err := os.Lstat(path); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return nil, fmt.Errorf("history file is a symlink (rejected for security): %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening history %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close releases the database lock.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record appends the run under r.Project. Run IDs are ULIDs, so key order is
// chronological.
func (s *Store) Record(r *types.Report) error {
	if r.RunID == "" || r.Project == "" {
		return errors.New("state: report needs a run id and a project")
	}
	data, err := json.Marshal(EntryFromReport(r))
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		runs, err := tx.CreateBucketIfNotExists(runsBucket)
		if err != nil {
			return err
		}
		b, err := runs.CreateBucketIfNotExists([]byte(r.Project))
		if err != nil {
			return err
		}
		return b.Put([]byte(r.RunID), data)
	})
}

// Last returns the most recent run of project.
func (s *Store) Last(project string) (Entry, bool, error) {
	entries, err := s.History(project, 1)
	if err != nil || len(entries) == 0 {
		return Entry{}, false, err
	}
	return entries[0], true, nil
}

// History returns up to limit runs of project, newest first. limit <= 0
// returns everything.
func (s *Store) History(project string, limit int) ([]Entry, error) {
	var out []Entry
	err := s.db.View(func(tx *bolt.Tx) error {
		runs := tx.Bucket(runsBucket)
		if runs == nil {
			return nil
		}
		b := runs.Bucket([]byte(project))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			var e Entry
			if err := json.Unmarshal(v, &e); err != nil {
				return fmt.Errorf("decoding run %s: %w", k, err)
			}
			out = append(out, e)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
		return nil
	})
	return out, err
}
