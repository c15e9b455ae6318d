// Package report writes the CSV outputs of an analysis run: a daily
// per-level summary and one CSV per distinct level.
package report

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"

	"github.com/armash/log-analyzer/internal/index"
	"github.com/armash/log-analyzer/internal/types"
)

// SummaryFile is the name of the daily summary written into the output dir.
const SummaryFile = "daily_summary.csv"

// WriteDailySummary writes date,level,count rows for the batch, sorted by
// date then level. The summary is written (header included) even for an
// empty batch.
func WriteDailySummary(dir string, records []types.Record) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	path := filepath.Join(dir, SummaryFile)
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"date", "level", "count"}); err != nil {
		return "", err
	}

	idx := index.Build(records)
	for _, day := range idx.Days {
		counts := make(map[string]int)
		for _, r := range idx.ByDay[day] {
			counts[r.Level]++
		}
		for _, level := range idx.Levels {
			n, ok := counts[level]
			if !ok {
				continue
			}
			if err := w.Write([]string{day, level, strconv.Itoa(n)}); err != nil {
				return "", err
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return path, nil
}

type levelSink struct {
	file   *os.File
	writer *csv.Writer
}

// WriteLevelCSVs writes one <LEVEL>.csv per distinct level in the batch,
// each holding timestamp,service,host,message rows in input order. Files
// are opened lazily on the first record of a level and all closed before
// return. An empty batch writes nothing and returns no paths.
func WriteLevelCSVs(dir string, records []types.Record) ([]string, error) {
	if len(records) == 0 {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	sinks := make(map[string]*levelSink)
	paths := make([]string, 0)

	for _, r := range records {
		sink, ok := sinks[r.Level]
		if !ok {
			path := filepath.Join(dir, r.Level+".csv")
			f, err := os.Create(path)
			if err != nil {
				closeSinks(sinks)
				return nil, err
			}
			sink = &levelSink{file: f, writer: csv.NewWriter(f)}
			if err := sink.writer.Write([]string{"timestamp", "service", "host", "message"}); err != nil {
				closeSinks(sinks)
				f.Close()
				return nil, err
			}
			sinks[r.Level] = sink
			paths = append(paths, path)
		}

		row := []string{
			r.Timestamp.Format(types.TextTimeLayout),
			r.Service,
			r.Host,
			r.Message,
		}
		if err := sink.writer.Write(row); err != nil {
			closeSinks(sinks)
			return nil, err
		}
	}

	var firstErr error
	for _, sink := range sinks {
		sink.writer.Flush()
		if err := sink.writer.Error(); err != nil && firstErr == nil {
			firstErr = err
		}
		if err := sink.file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return paths, nil
}

func closeSinks(sinks map[string]*levelSink) {
	for _, sink := range sinks {
		sink.writer.Flush()
		_ = sink.file.Close()
	}
}
