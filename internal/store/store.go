// Package store persists the briefing corpus as one human-readable JSON
// array, rewritten whole on every merge.
package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"briefing-mail-archive/internal/models"
)

type Store struct {
	path string
}

func New(path string) *Store {
	return &Store{path: path}
}

// Load returns every persisted record in stored order. A missing or
// structurally invalid file means zero records, never an error.
func (s *Store) Load() []models.Record {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil
	}

	var records []models.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil
	}
	return records
}

// KnownIDs returns the set of identifiers already persisted, for the
// ingestion pipeline's dedup check.
func (s *Store) KnownIDs() map[string]struct{} {
	records := s.Load()
	ids := make(map[string]struct{}, len(records))
	for _, r := range records {
		ids[r.ID] = struct{}{}
	}
	return ids
}

// Merge appends newRecords to the stored set, sorts descending by send time
// (Unknown/Malformed order last), deduplicates by identifier keeping the
// first occurrence in sorted order, and persists atomically. It returns the
// number of records merged and the resulting total. An empty input is a
// no-op that leaves the file untouched.
func (s *Store) Merge(newRecords []models.Record) (merged, total int, err error) {
	existing := s.Load()
	if len(newRecords) == 0 {
		return 0, len(existing), nil
	}

	combined := make([]models.Record, 0, len(existing)+len(newRecords))
	combined = append(combined, existing...)
	combined = append(combined, newRecords...)

	sort.SliceStable(combined, func(i, j int) bool {
		return combined[j].SendTime.Before(combined[i].SendTime)
	})

	// Identifiers are unique by construction; the dedup pass is defensive.
	seen := make(map[string]struct{}, len(combined))
	unique := make([]models.Record, 0, len(combined))
	for _, r := range combined {
		if _, ok := seen[r.ID]; ok {
			continue
		}
		seen[r.ID] = struct{}{}
		unique = append(unique, r)
	}

	if err := s.persist(unique); err != nil {
		return 0, 0, err
	}
	return len(newRecords), len(unique), nil
}

// persist writes the full record set to a temp file in the store directory
// and renames it into place, so a crash mid-write cannot clobber the
// previously durable state.
func (s *Store) persist(records []models.Record) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".briefings-*.json")
	if err != nil {
		return err
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), s.path)
}
