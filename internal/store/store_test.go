package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armash/log-analyzer/internal/types"
)

func TestAppendAndLoadJSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "records.jsonl")
	records := []types.Record{
		{Timestamp: time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC), Level: "ERROR", Service: "payment", Host: "host1", Message: "Payment failed"},
		{Timestamp: time.Date(2025, 1, 2, 11, 0, 0, 0, time.UTC), Level: "INFO", Service: "auth", Host: "host2", Message: "Login ok"},
	}

	require.NoError(t, AppendJSONL(path, records[:1]))
	require.NoError(t, AppendJSONL(path, records[1:]))

	loaded, err := LoadJSONL(path)
	require.NoError(t, err)
	assert.Equal(t, records, loaded)
}

func TestLoadJSONLSkipsBadLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.jsonl")
	content := `{"timestamp":"2025-01-01T10:00:00Z","level":"ERROR","service":"payment","host":"host1","message":"ok"}
not json

{"timestamp":"2025-01-02T10:00:00Z","level":"INFO","service":"web","host":"host2","message":"also ok"}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	loaded, err := LoadJSONL(path)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "payment", loaded[0].Service)
	assert.Equal(t, "web", loaded[1].Service)
}
