package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"protocolLens/internal/model"
)

// Checkpoint records the newest day already loaded into a sink.
type Checkpoint struct {
	LastDay   string `json:"last_day"`
	UpdatedAt string `json:"updated_at"`
}

// CheckpointStore persists a Checkpoint as a JSON file. An empty path
// disables it.
type CheckpointStore struct {
	path string
}

func NewCheckpointStore(path string) *CheckpointStore {
	return &CheckpointStore{path: path}
}

// Load returns the last loaded day. ok is false when there is no checkpoint.
func (c *CheckpointStore) Load() (time.Time, bool, error) {
	if c == nil || c.path == "" {
		return time.Time{}, false, nil
	}

	data, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("read checkpoint: %w", err)
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return time.Time{}, false, fmt.Errorf("parse checkpoint: %w", err)
	}
	day, err := model.ParseDate(cp.LastDay)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse checkpoint: %w", err)
	}
	return day, true, nil
}

// Save writes the checkpoint through a temp file and rename.
func (c *CheckpointStore) Save(day time.Time) error {
	if c == nil || c.path == "" {
		return nil
	}

	dir := filepath.Dir(c.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create checkpoint dir: %w", err)
		}
	}

	data, err := json.Marshal(Checkpoint{
		LastDay:   model.FormatDate(day),
		UpdatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}

	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write checkpoint tmp: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("rename checkpoint: %w", err)
	}
	return nil
}
