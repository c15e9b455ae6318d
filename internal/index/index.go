package index

import (
	"sort"

	"github.com/armash/log-analyzer/internal/types"
)

// Index buckets a record batch by level and by calendar day. Level keys
// are the verbatim level strings; day keys use the 2006-01-02 layout.
// Levels and Days are the bucket keys in sorted order, so iteration over
// the buckets is deterministic.
type Index struct {
	ByLevel map[string][]types.Record
	ByDay   map[string][]types.Record
	Levels  []string
	Days    []string
}

// SnapshotIndex stores index buckets as record positions for snapshot
// persistence.
type SnapshotIndex struct {
	ByLevel map[string][]int `json:"byLevel"`
	ByDay   map[string][]int `json:"byDay"`
	Levels  []string         `json:"levels"`
	Days    []string         `json:"days"`
}

// Build creates in-memory indexes by level and day bucket.
func Build(records []types.Record) *Index {
	idx := &Index{
		ByLevel: make(map[string][]types.Record),
		ByDay:   make(map[string][]types.Record),
	}

	for _, r := range records {
		idx.ByLevel[r.Level] = append(idx.ByLevel[r.Level], r)
		idx.ByDay[r.Day()] = append(idx.ByDay[r.Day()], r)
	}

	idx.Levels = sortedKeys(idx.ByLevel)
	idx.Days = sortedKeys(idx.ByDay)
	return idx
}

// ToSnapshotIndex converts an in-memory index into a snapshot-friendly index.
func ToSnapshotIndex(records []types.Record) SnapshotIndex {
	si := SnapshotIndex{
		ByLevel: make(map[string][]int),
		ByDay:   make(map[string][]int),
	}

	for i, r := range records {
		si.ByLevel[r.Level] = append(si.ByLevel[r.Level], i)
		si.ByDay[r.Day()] = append(si.ByDay[r.Day()], i)
	}

	si.Levels = sortedKeys(si.ByLevel)
	si.Days = sortedKeys(si.ByDay)
	return si
}

// FromSnapshotIndex rebuilds an in-memory index from a snapshot index.
func FromSnapshotIndex(si SnapshotIndex, records []types.Record) *Index {
	idx := &Index{
		ByLevel: make(map[string][]types.Record),
		ByDay:   make(map[string][]types.Record),
		Levels:  append([]string(nil), si.Levels...),
		Days:    append([]string(nil), si.Days...),
	}

	for level, positions := range si.ByLevel {
		for _, i := range positions {
			if i >= 0 && i < len(records) {
				idx.ByLevel[level] = append(idx.ByLevel[level], records[i])
			}
		}
	}
	for day, positions := range si.ByDay {
		for _, i := range positions {
			if i >= 0 && i < len(records) {
				idx.ByDay[day] = append(idx.ByDay[day], records[i])
			}
		}
	}

	return idx
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
