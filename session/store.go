// Package session records detached agent runs (screen sessions and docker
// containers) so they can be listed and stopped later from another
// process.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gofrs/flock"
)

const (
	fileName = "sessions.json"
	lockName = "sessions.lock"
)

// Record describes one detached run.
type Record struct {
	Name             string    `json:"name"`
	Isolation        string    `json:"isolation"`
	Tool             string    `json:"tool"`
	WorkingDirectory string    `json:"working_directory"`
	Command          string    `json:"command"`
	PID              int       `json:"pid,omitempty"`
	RunID            string    `json:"run_id,omitempty"`
	StartedAt        time.Time `json:"started_at"`
}

// Key identifies a record; names are unique per isolation mode.
func (r Record) Key() string {
	return r.Isolation + "/" + r.Name
}

// Store is a JSON file of records guarded by a cross-process file lock.
type Store struct {
	dir string
}

// NewStore returns a store rooted at dir. The directory is created on
// first write.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// DefaultDir returns ~/.agent-commander.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".agent-commander"), nil
}

// Dir returns the store directory.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) path() string     { return filepath.Join(s.dir, fileName) }
func (s *Store) lockPath() string { return filepath.Join(s.dir, lockName) }

// Add inserts rec, replacing any record with the same key.
func (s *Store) Add(rec Record) error {
	if rec.Name == "" {
		return errors.New("session name is required")
	}
	if rec.StartedAt.IsZero() {
		rec.StartedAt = time.Now()
	}

	return s.update(func(records map[string]Record) {
		records[rec.Key()] = rec
	})
}

// Remove deletes the record for isolation/name. It reports whether a
// record existed.
func (s *Store) Remove(isolation, name string) (bool, error) {
	var found bool
	err := s.update(func(records map[string]Record) {
		key := Record{Isolation: isolation, Name: name}.Key()
		_, found = records[key]
		delete(records, key)
	})
	return found, err
}

// Get returns the record for isolation/name.
func (s *Store) Get(isolation, name string) (Record, bool, error) {
	records, err := s.List()
	if err != nil {
		return Record{}, false, err
	}
	for _, r := range records {
		if r.Isolation == isolation && r.Name == name {
			return r, true, nil
		}
	}
	return Record{}, false, nil
}

// List returns all records, oldest first.
func (s *Store) List() ([]Record, error) {
	if _, err := os.Stat(s.dir); os.IsNotExist(err) {
		return nil, nil
	}

	lock := flock.New(s.lockPath())
	if err := lock.RLock(); err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	records, err := s.load()
	if err != nil {
		return nil, err
	}

	out := make([]Record, 0, len(records))
	for _, r := range records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].Key() < out[j].Key()
		}
		return out[i].StartedAt.Before(out[j].StartedAt)
	})
	return out, nil
}

func (s *Store) update(fn func(map[string]Record)) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	lock := flock.New(s.lockPath())
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	records, err := s.load()
	if err != nil {
		return err
	}
	fn(records)
	return s.save(records)
}

// load reads the records file. Caller must hold the lock.
func (s *Store) load() (map[string]Record, error) {
	records := make(map[string]Record)

	data, err := os.ReadFile(s.path())
	if err != nil {
		if os.IsNotExist(err) {
			return records, nil
		}
		return nil, fmt.Errorf("read sessions: %w", err)
	}
	if len(data) == 0 {
		return records, nil
	}

	var list []Record
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parse sessions: %w", err)
	}
	for _, r := range list {
		records[r.Key()] = r
	}
	return records, nil
}

// save writes records through a temp file and rename. Caller must hold
// the lock.
func (s *Store) save(records map[string]Record) error {
	list := make([]Record, 0, len(records))
	for _, r := range records {
		list = append(list, r)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Key() < list[j].Key() })

	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal sessions: %w", err)
	}

	tmp := s.path() + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write sessions: %w", err)
	}
	if err := os.Rename(tmp, s.path()); err != nil {
		return fmt.Errorf("replace sessions: %w", err)
	}
	return nil
}
