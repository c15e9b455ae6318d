package ingest

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/armash/log-analyzer/internal/types"
)

// ErrNoSource is returned by Load when no input source is configured.
var ErrNoSource = errors.New("at least one input source must be provided")

// Layouts accepted for structured-source timestamps, tried in order.
var structuredLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
}

// Sources names the input files for one load. Either path may be empty,
// but not both.
type Sources struct {
	TextPath string
	JSONPath string
}

// LoadStats counts records contributed by each source kind.
type LoadStats struct {
	Structured int
	Text       int
}

// Total returns the combined record count.
func (s LoadStats) Total() int {
	return s.Structured + s.Text
}

// ParseTextLine parses a single plain-text log line of the form
//
//	<date> <time> <level> <service> <host> <message...>
//
// where <date> <time> form one timestamp in the 2006-01-02 15:04:05
// layout and the message is the remainder of the line. Lines that do not
// decompose into exactly this shape yield an error.
func ParseTextLine(line string) (types.Record, error) {
	parts := strings.SplitN(line, " ", 6)
	if len(parts) < 6 {
		return types.Record{}, fmt.Errorf("expected 6 fields, got %d", len(parts))
	}
	for _, p := range parts[:5] {
		if p == "" {
			return types.Record{}, fmt.Errorf("empty field")
		}
	}
	if parts[5] == "" {
		return types.Record{}, fmt.Errorf("empty message")
	}

	ts, err := time.Parse(types.TextTimeLayout, parts[0]+" "+parts[1])
	if err != nil {
		return types.Record{}, fmt.Errorf("parse timestamp: %w", err)
	}

	return types.Record{
		Timestamp: ts,
		Level:     parts[2],
		Service:   parts[3],
		Host:      parts[4],
		Message:   parts[5],
	}, nil
}

// ReadTextFile reads a plain-text log file line-by-line. Malformed lines
// are expected noise and are dropped without a trace; only I/O failures
// surface as errors.
func ReadTextFile(path string) ([]types.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	records := make([]types.Record, 0)

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if strings.TrimSpace(line) == "" {
			continue
		}
		rec, err := ParseTextLine(line)
		if err != nil {
			// skip malformed lines
			continue
		}
		records = append(records, rec)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

type structuredEntry struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Service   string `json:"service"`
	Host      string `json:"host"`
	Message   string `json:"message"`
}

func (e structuredEntry) toRecord() (types.Record, error) {
	ts, err := parseStructuredTime(e.Timestamp)
	if err != nil {
		return types.Record{}, err
	}
	return types.Record{
		Timestamp: ts,
		Level:     e.Level,
		Service:   e.Service,
		Host:      e.Host,
		Message:   e.Message,
	}, nil
}

func parseStructuredTime(value string) (time.Time, error) {
	for _, layout := range structuredLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}

// ReadJSONFile reads a structured log source: a JSON array of entries with
// timestamp, level, service, host and message keys (extra keys ignored).
// Structured input is trusted to be well-formed, so a shape or timestamp
// failure is fatal for the whole source rather than skipped.
func ReadJSONFile(path string) ([]types.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var entries []structuredEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	records := make([]types.Record, 0, len(entries))
	for i, e := range entries {
		rec, err := e.toRecord()
		if err != nil {
			return nil, fmt.Errorf("entry %d in %s: %w", i, path, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// Load reads all configured sources and returns one combined sequence:
// structured-source records first, text-source records after, each in
// original order. A nonexistent source is skipped with a warning; having
// no source at all is an error raised before any I/O.
func Load(logger *zap.Logger, src Sources) ([]types.Record, LoadStats, error) {
	var stats LoadStats

	if src.TextPath == "" && src.JSONPath == "" {
		return nil, stats, ErrNoSource
	}

	records := make([]types.Record, 0)

	if src.JSONPath != "" {
		if _, err := os.Stat(src.JSONPath); os.IsNotExist(err) {
			logger.Warn("structured source not found, skipping",
				zap.String("path", src.JSONPath))
		} else {
			loaded, err := ReadJSONFile(src.JSONPath)
			if err != nil {
				return nil, stats, err
			}
			records = append(records, loaded...)
			stats.Structured = len(loaded)
		}
	}

	if src.TextPath != "" {
		if _, err := os.Stat(src.TextPath); os.IsNotExist(err) {
			logger.Warn("text source not found, skipping",
				zap.String("path", src.TextPath))
		} else {
			loaded, err := ReadTextFile(src.TextPath)
			if err != nil {
				return nil, stats, err
			}
			records = append(records, loaded...)
			stats.Text = len(loaded)
		}
	}

	return records, stats, nil
}
