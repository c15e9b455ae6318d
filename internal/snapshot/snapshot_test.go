package snapshot

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armash/log-analyzer/internal/index"
	"github.com/armash/log-analyzer/internal/types"
)

func TestCreateAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshots", "batch.json")
	records := []types.Record{
		{Timestamp: time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC), Level: "ERROR", Service: "payment", Host: "host1", Message: "Payment failed"},
		{Timestamp: time.Date(2025, 1, 2, 9, 0, 0, 0, time.UTC), Level: "INFO", Service: "web", Host: "host2", Message: "started"},
	}

	require.NoError(t, Create(path, records, []string{"app.log"}))

	snap, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Version, snap.Metadata.Version)
	assert.Equal(t, 2, snap.Metadata.RecordCount)
	assert.Equal(t, []string{"app.log"}, snap.Metadata.Sources)
	assert.Equal(t, records, snap.Records)

	idx := index.FromSnapshotIndex(snap.Index, snap.Records)
	assert.Equal(t, []string{"ERROR", "INFO"}, idx.Levels)
	assert.Equal(t, []string{"2025-01-01", "2025-01-02"}, idx.Days)

	// no temp file left behind
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestCreateOverwritesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.json")
	first := []types.Record{{Timestamp: time.Now().UTC(), Level: "INFO", Service: "a", Host: "h", Message: "one"}}
	second := []types.Record{
		{Timestamp: time.Now().UTC(), Level: "INFO", Service: "a", Host: "h", Message: "one"},
		{Timestamp: time.Now().UTC(), Level: "WARN", Service: "b", Host: "h", Message: "two"},
	}

	require.NoError(t, Create(path, first, nil))
	require.NoError(t, Create(path, second, nil))

	snap, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Metadata.RecordCount)
}
