package snapshot

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/armash/log-analyzer/internal/index"
	"github.com/armash/log-analyzer/internal/types"
)

const Version = 1

type Metadata struct {
	Version     int       `json:"version"`
	CreatedAt   time.Time `json:"createdAt"`
	RecordCount int       `json:"recordCount"`
	Sources     []string  `json:"sources"`
}

type Snapshot struct {
	Metadata Metadata            `json:"metadata"`
	Records  []types.Record      `json:"records"`
	Index    index.SnapshotIndex `json:"index"`
}

// Create writes an atomic snapshot of the record batch and its level/day
// index. The file is written to a temp path and renamed into place.
func Create(path string, records []types.Record, sources []string) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	snap := Snapshot{
		Metadata: Metadata{
			Version:     Version,
			CreatedAt:   time.Now().UTC(),
			RecordCount: len(records),
			Sources:     sources,
		},
		Records: records,
		Index:   index.ToSnapshotIndex(records),
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil {
		_ = os.Remove(path)
	}
	return os.Rename(tmp, path)
}

// Load reads a snapshot back from disk.
func Load(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0755)
}
