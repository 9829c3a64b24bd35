package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCheckpointStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "load.json")
	store := NewCheckpointStore(path)

	if _, ok, err := store.Load(); err != nil || ok {
		t.Fatalf("expected no checkpoint, got ok=%v err=%v", ok, err)
	}

	if err := store.Save(date(2025, 3, 9)); err != nil {
		t.Fatalf("save: %v", err)
	}
	day, ok, err := store.Load()
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if !day.Equal(date(2025, 3, 9)) {
		t.Fatalf("unexpected day %v", day)
	}
}

func TestCheckpointStoreDisabled(t *testing.T) {
	var store *CheckpointStore
	if err := store.Save(date(2025, 3, 9)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, ok, err := NewCheckpointStore("").Load(); err != nil || ok {
		t.Fatalf("expected disabled checkpoint")
	}
}

func TestCheckpointStoreCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "load.json")
	if err := os.WriteFile(path, []byte(`{"last_day":"yesterday"}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, _, err := NewCheckpointStore(path).Load(); err == nil {
		t.Fatalf("expected parse error")
	}
}
