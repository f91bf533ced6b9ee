// Package history persists completed summarization runs and implements the
// backup export/import format.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// Record is the terminal artifact of one summarization run. It is immutable
// once saved.
type Record struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Filename  string    `json:"filename"`
	Language  string    `json:"language"`
	Summary   string    `json:"summary"`
	Model     string    `json:"model"`
	Tokens    int       `json:"tokens"`
	Partial   bool      `json:"partial,omitempty"`
}

// Store is a mutex-guarded run history backed by a JSON file. Records are
// kept ordered by creation time, newest first.
type Store struct {
	mu      sync.Mutex
	path    string
	records []Record
}

// Open loads the history file at path, or starts empty if it doesn't exist.
func Open(path string) (*Store, error) {
	s := &Store{path: path}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	if err := json.Unmarshal(data, &s.records); err != nil {
		return nil, fmt.Errorf("decode history %s: %w", path, err)
	}
	s.sortLocked()
	return s, nil
}

// Save appends a completed run record and persists the history.
func (s *Store) Save(rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, rec)
	s.sortLocked()
	return s.persistLocked()
}

// List returns all records ordered by recency, newest first.
func (s *Store) List() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

// Get returns the record with the given ID, or false.
func (s *Store) Get(id string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.records {
		if r.ID == id {
			return r, true
		}
	}
	return Record{}, false
}

// Delete removes the record with the given ID. Deleting an unknown ID is
// not an error.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	writeIdx := 0
	for _, r := range s.records {
		if r.ID != id {
			s.records[writeIdx] = r
			writeIdx++
		}
	}
	if writeIdx == len(s.records) {
		return nil
	}
	s.records = s.records[:writeIdx]
	return s.persistLocked()
}

// Merge unions imported records into the history, keyed by record ID.
// Existing records always win over imported ones with the same ID. Returns
// the number of records actually added.
func (s *Store) Merge(imported []Record) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := make(map[string]bool, len(s.records))
	for _, r := range s.records {
		existing[r.ID] = true
	}

	added := 0
	for _, r := range imported {
		if r.ID == "" || existing[r.ID] {
			continue
		}
		existing[r.ID] = true
		s.records = append(s.records, r)
		added++
	}
	if added == 0 {
		return 0, nil
	}

	s.sortLocked()
	return added, s.persistLocked()
}

func (s *Store) sortLocked() {
	sort.SliceStable(s.records, func(i, j int) bool {
		return s.records[i].CreatedAt.After(s.records[j].CreatedAt)
	})
}

// persistLocked writes the history atomically: temp file in the same
// directory, then rename over the old one.
func (s *Store) persistLocked() error {
	data, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".history-*.json")
	if err != nil {
		return fmt.Errorf("create temp history: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close history: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace history: %w", err)
	}
	return nil
}
