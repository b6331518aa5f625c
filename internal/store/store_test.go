package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"briefing-mail-archive/internal/models"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "briefings.json"))
}

func known(t *testing.T, value string) models.SendTime {
	t.Helper()
	parsed, err := time.ParseInLocation("2006-01-02 15:04:05", value, time.Local)
	if err != nil {
		t.Fatalf("bad test time %q: %v", value, err)
	}
	return models.KnownTime(parsed)
}

func TestLoadMissingFile(t *testing.T) {
	s := testStore(t)
	if got := s.Load(); len(got) != 0 {
		t.Errorf("Load() on missing file = %d records, want 0", len(got))
	}
}

func TestLoadCorruptFile(t *testing.T) {
	s := testStore(t)
	if err := os.WriteFile(s.path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}
	if got := s.Load(); len(got) != 0 {
		t.Errorf("Load() on corrupt file = %d records, want 0", len(got))
	}
}

func TestMergeRoundTrip(t *testing.T) {
	s := testStore(t)

	records := []models.Record{
		{ID: "id1", SendTime: known(t, "2024-06-10 09:00:00"), Subject: "Weekly Brief 2024-06-10", Content: "Hello"},
		{ID: "id2", SendTime: known(t, "2024-06-11 09:00:00"), Subject: "Weekly Brief 2024-06-11", Content: "World"},
	}

	merged, total, err := s.Merge(records)
	if err != nil {
		t.Fatalf("Merge() error: %v", err)
	}
	if merged != 2 || total != 2 {
		t.Errorf("Merge() = (%d, %d), want (2, 2)", merged, total)
	}

	loaded := s.Load()
	ids := make(map[string]bool)
	for _, r := range loaded {
		ids[r.ID] = true
	}
	for _, want := range []string{"id1", "id2"} {
		if !ids[want] {
			t.Errorf("Load() missing record %q", want)
		}
	}
}

func TestMergeSortsDescendingSentinelsLast(t *testing.T) {
	s := testStore(t)

	records := []models.Record{
		{ID: "old", SendTime: known(t, "2024-06-01 08:00:00")},
		{ID: "none", SendTime: models.SendTime{Kind: models.SendTimeUnknown}},
		{ID: "new", SendTime: known(t, "2024-06-12 08:00:00")},
		{ID: "bad", SendTime: models.SendTime{Kind: models.SendTimeMalformed}},
	}

	if _, _, err := s.Merge(records); err != nil {
		t.Fatalf("Merge() error: %v", err)
	}

	loaded := s.Load()
	order := make([]string, 0, len(loaded))
	for _, r := range loaded {
		order = append(order, r.ID)
	}

	if len(order) != 4 || order[0] != "new" || order[1] != "old" {
		t.Fatalf("stored order = %v, want [new old <sentinels>]", order)
	}
	// Stable sort keeps the sentinel records in input order at the tail.
	if order[2] != "none" || order[3] != "bad" {
		t.Errorf("sentinel order = %v, want [none bad]", order[2:])
	}
}

func TestMergeDeduplicatesByID(t *testing.T) {
	s := testStore(t)

	first := []models.Record{
		{ID: "id1", SendTime: known(t, "2024-06-10 09:00:00"), Subject: "a"},
		{ID: "id2", SendTime: known(t, "2024-06-10 10:00:00"), Subject: "b"},
	}
	if _, _, err := s.Merge(first); err != nil {
		t.Fatalf("Merge() error: %v", err)
	}

	// Same identifier again: the total must stay 2.
	dup := []models.Record{
		{ID: "id1", SendTime: known(t, "2024-06-10 09:00:00"), Subject: "a again"},
	}
	_, total, err := s.Merge(dup)
	if err != nil {
		t.Fatalf("Merge() error: %v", err)
	}
	if total != 2 {
		t.Errorf("total after duplicate merge = %d, want 2", total)
	}

	seen := make(map[string]int)
	for _, r := range s.Load() {
		seen[r.ID]++
	}
	for id, n := range seen {
		if n != 1 {
			t.Errorf("identifier %q stored %d times", id, n)
		}
	}
}

func TestMergeEmptyInputIsNoOp(t *testing.T) {
	s := testStore(t)

	merged, total, err := s.Merge(nil)
	if err != nil {
		t.Fatalf("Merge(nil) error: %v", err)
	}
	if merged != 0 || total != 0 {
		t.Errorf("Merge(nil) = (%d, %d), want (0, 0)", merged, total)
	}
	if _, err := os.Stat(s.path); !os.IsNotExist(err) {
		t.Error("Merge(nil) created the store file")
	}
}

func TestMergeIdempotentViaLoad(t *testing.T) {
	s := testStore(t)

	records := []models.Record{
		{ID: "id1", SendTime: known(t, "2024-06-10 09:00:00"), Subject: "Weekly Brief 2024-06-10", Content: "Hello"},
	}
	if _, _, err := s.Merge(records); err != nil {
		t.Fatalf("Merge() error: %v", err)
	}
	before, err := os.ReadFile(s.path)
	if err != nil {
		t.Fatalf("read store: %v", err)
	}

	if _, total, err := s.Merge(records); err != nil || total != 1 {
		t.Fatalf("second Merge() = total %d, err %v; want 1, nil", total, err)
	}
	after, err := os.ReadFile(s.path)
	if err != nil {
		t.Fatalf("read store: %v", err)
	}
	if string(before) != string(after) {
		t.Error("re-merging identical records changed the stored file")
	}
}

func TestKnownIDs(t *testing.T) {
	s := testStore(t)
	records := []models.Record{
		{ID: "id1", SendTime: known(t, "2024-06-10 09:00:00")},
		{ID: "id2", SendTime: known(t, "2024-06-11 09:00:00")},
	}
	if _, _, err := s.Merge(records); err != nil {
		t.Fatalf("Merge() error: %v", err)
	}

	ids := s.KnownIDs()
	if len(ids) != 2 {
		t.Fatalf("KnownIDs() size = %d, want 2", len(ids))
	}
	if _, ok := ids["id1"]; !ok {
		t.Error("KnownIDs() missing id1")
	}
}
