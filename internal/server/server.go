// Package server exposes an analyzed record batch over HTTP: query,
// burst and recurrence endpoints plus health, metrics and a structured
// ingest endpoint for appending to the batch.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/armash/log-analyzer/internal/detect"
	"github.com/armash/log-analyzer/internal/engine"
	"github.com/armash/log-analyzer/internal/query"
	"github.com/armash/log-analyzer/internal/types"
)

type Server struct {
	mu      sync.RWMutex
	logger  *zap.Logger
	records []types.Record
	metrics engine.Metrics
	apiKey  string
}

func New(logger *zap.Logger, records []types.Record, metrics engine.Metrics, apiKey string) *Server {
	return &Server{
		logger:  logger,
		records: records,
		metrics: metrics,
		apiKey:  apiKey,
	}
}

// Router builds the HTTP routes.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/query", s.handleQuery).Methods(http.MethodGet)
	r.HandleFunc("/bursts", s.handleBursts).Methods(http.MethodGet)
	r.HandleFunc("/recurring", s.handleRecurring).Methods(http.MethodGet)
	r.HandleFunc("/metrics", s.handleMetrics).Methods(http.MethodGet)
	r.HandleFunc("/ingest", s.handleIngest).Methods(http.MethodPost)
	return r
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("serving analyzed batch", zap.String("addr", addr))
	err := srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// filtersFromRequest reads service/host/level/search/since params plus the
// q= query DSL.
func filtersFromRequest(r *http.Request) (query.Filters, error) {
	params := r.URL.Query()

	var f query.Filters
	if q := params.Get("q"); q != "" {
		parsed, err := query.Parse(q)
		if err != nil {
			return query.Filters{}, err
		}
		f = parsed
	}

	if v := params.Get("service"); v != "" {
		f.Service = v
	}
	if v := params.Get("host"); v != "" {
		f.Host = v
	}
	if v := params.Get("level"); v != "" {
		f.Level = v
	}
	if v := params.Get("search"); v != "" {
		f.Search = v
	}
	if v := params.Get("since"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return query.Filters{}, fmt.Errorf("invalid since duration")
		}
		f.After = time.Now().Add(-d)
	}
	return f, nil
}

func (s *Server) filtered(r *http.Request) ([]types.Record, error) {
	f, err := filtersFromRequest(r)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return query.Apply(s.records, f), nil
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	results, err := s.filtered(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		if len(results) > limit {
			results = results[:limit]
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(results),
		"records": results,
	})
}

func (s *Server) handleBursts(w http.ResponseWriter, r *http.Request) {
	records, err := s.filtered(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	windows := detect.Bursts(records)
	if windows == nil {
		windows = []detect.Window{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":  len(windows),
		"bursts": windows,
	})
}

func (s *Server) handleRecurring(w http.ResponseWriter, r *http.Request) {
	records, err := s.filtered(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"recurring": detect.Recurring(records),
	})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	metrics := s.metrics
	total := len(s.records)
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"run_id":           metrics.RunID,
		"started_at":       metrics.StartedAt.UTC().Format(time.RFC3339),
		"finished_at":      metrics.FinishedAt.UTC().Format(time.RFC3339),
		"duration_ms":      metrics.Duration().Milliseconds(),
		"records_loaded":   metrics.RecordsLoaded,
		"records_analyzed": metrics.RecordsAnalyzed,
		"bursts_found":     metrics.BurstsFound,
		"recurring_found":  metrics.RecurringFound,
		"records_held":     total,
	})
}

type ingestPayload struct {
	Entry   *ingestEntry  `json:"entry"`
	Entries []ingestEntry `json:"entries"`
}

type ingestEntry struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Service   string `json:"service"`
	Host      string `json:"host"`
	Message   string `json:"message"`
}

func (e ingestEntry) toRecord() (types.Record, error) {
	if e.Timestamp == "" || e.Level == "" || e.Service == "" || e.Host == "" || e.Message == "" {
		return types.Record{}, fmt.Errorf("missing fields")
	}
	ts, err := time.Parse(time.RFC3339, e.Timestamp)
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

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	if s.apiKey != "" {
		if r.Header.Get("X-API-Key") != s.apiKey {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
	}

	var payload ingestPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	items := payload.Entries
	if len(items) == 0 && payload.Entry != nil {
		items = []ingestEntry{*payload.Entry}
	}
	if len(items) == 0 {
		http.Error(w, "missing entry", http.StatusBadRequest)
		return
	}

	records := make([]types.Record, 0, len(items))
	for _, item := range items {
		rec, err := item.toRecord()
		if err != nil {
			http.Error(w, "invalid entry", http.StatusBadRequest)
			return
		}
		records = append(records, rec)
	}

	s.mu.Lock()
	s.records = append(s.records, records...)
	held := len(s.records)
	s.mu.Unlock()

	s.logger.Info("ingested entries over http",
		zap.Int("ingested", len(records)),
		zap.Int("records_held", held))

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ingested": len(records),
	})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
