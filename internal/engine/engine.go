// Package engine orchestrates one analysis run: load the sources, filter
// the combined batch, write reports, run both detectors and persist the
// batch where asked to.
package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/armash/log-analyzer/internal/database"
	"github.com/armash/log-analyzer/internal/detect"
	"github.com/armash/log-analyzer/internal/ingest"
	"github.com/armash/log-analyzer/internal/query"
	"github.com/armash/log-analyzer/internal/report"
	"github.com/armash/log-analyzer/internal/snapshot"
	"github.com/armash/log-analyzer/internal/store"
	"github.com/armash/log-analyzer/internal/types"
)

// Options configures one run. Sources are ignored when LoadPath or
// SnapshotLoad replays a previously stored batch.
type Options struct {
	Sources      ingest.Sources
	Filters      query.Filters
	OutDir       string
	StorePath    string
	LoadPath     string
	SnapshotPath string
	SnapshotLoad string
	DBHost       string
}

// Metrics describes a completed run.
type Metrics struct {
	RunID           string    `json:"run_id"`
	StartedAt       time.Time `json:"started_at"`
	FinishedAt      time.Time `json:"finished_at"`
	RecordsLoaded   int       `json:"records_loaded"`
	RecordsAnalyzed int       `json:"records_analyzed"`
	BurstsFound     int       `json:"bursts_found"`
	RecurringFound  int       `json:"recurring_found"`
}

func (m Metrics) Duration() time.Duration {
	return m.FinishedAt.Sub(m.StartedAt)
}

// Result is the full outcome of a run.
type Result struct {
	Records   []types.Record
	Bursts    []detect.Window
	Recurring map[string][]string
	Metrics   Metrics
}

// Run executes the pipeline over the configured sources.
func Run(ctx context.Context, logger *zap.Logger, opts Options) (*Result, error) {
	metrics := Metrics{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
	}

	records, err := loadBatch(logger, opts)
	if err != nil {
		return nil, err
	}
	metrics.RecordsLoaded = len(records)

	filtered := query.Apply(records, opts.Filters)
	metrics.RecordsAnalyzed = len(filtered)
	logger.Info("batch loaded",
		zap.String("run_id", metrics.RunID),
		zap.Int("loaded", metrics.RecordsLoaded),
		zap.Int("after_filters", metrics.RecordsAnalyzed))

	if opts.OutDir != "" {
		if _, err := report.WriteDailySummary(opts.OutDir, filtered); err != nil {
			return nil, err
		}
		if _, err := report.WriteLevelCSVs(opts.OutDir, filtered); err != nil {
			return nil, err
		}
	}

	if opts.StorePath != "" {
		if err := store.AppendJSONL(opts.StorePath, filtered); err != nil {
			return nil, err
		}
	}

	if opts.SnapshotPath != "" {
		if err := snapshot.Create(opts.SnapshotPath, filtered, sourceList(opts)); err != nil {
			return nil, err
		}
	}

	if opts.DBHost != "" {
		if err := insertBatch(ctx, opts.DBHost, filtered); err != nil {
			return nil, err
		}
		logger.Info("batch persisted to clickhouse", zap.Int("records", len(filtered)))
	}

	bursts := detect.Bursts(filtered)
	recurring := detect.Recurring(filtered)
	metrics.BurstsFound = len(bursts)
	metrics.RecurringFound = len(recurring)
	metrics.FinishedAt = time.Now()

	logger.Info("detection finished",
		zap.String("run_id", metrics.RunID),
		zap.Int("bursts", metrics.BurstsFound),
		zap.Int("recurring", metrics.RecurringFound),
		zap.Duration("took", metrics.Duration()))

	return &Result{
		Records:   filtered,
		Bursts:    bursts,
		Recurring: recurring,
		Metrics:   metrics,
	}, nil
}

func loadBatch(logger *zap.Logger, opts Options) ([]types.Record, error) {
	switch {
	case opts.SnapshotLoad != "":
		snap, err := snapshot.Load(opts.SnapshotLoad)
		if err != nil {
			return nil, err
		}
		return snap.Records, nil
	case opts.LoadPath != "":
		return store.LoadJSONL(opts.LoadPath)
	default:
		records, _, err := ingest.Load(logger, opts.Sources)
		return records, err
	}
}

func insertBatch(ctx context.Context, host string, records []types.Record) error {
	db, err := database.Connect(host)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.EnsureSchema(db); err != nil {
		return err
	}
	return database.InsertRecords(ctx, db, records)
}

func sourceList(opts Options) []string {
	var sources []string
	if opts.Sources.JSONPath != "" {
		sources = append(sources, opts.Sources.JSONPath)
	}
	if opts.Sources.TextPath != "" {
		sources = append(sources, opts.Sources.TextPath)
	}
	return sources
}
