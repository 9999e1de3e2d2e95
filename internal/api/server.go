// Package api exposes the sync engine over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/nhle/engineer-metrics/internal/model"
	"github.com/nhle/engineer-metrics/internal/sync"
)

// maxBodyBytes bounds the POST /api/sync request body.
const maxBodyBytes = 1 << 20

// Syncer is the part of the orchestrator the API drives.
type Syncer interface {
	Run(ctx context.Context, req sync.Request) (*sync.Response, error)
	Status(ctx context.Context) (*sync.StatusReport, error)
}

var _ Syncer = (*sync.Orchestrator)(nil)

// Server serves the sync status and trigger endpoints.
type Server struct {
	syncer     Syncer
	logger     *slog.Logger
	mux        *http.ServeMux
	httpServer *http.Server
}

// NewServer creates a Server and registers its routes.
func NewServer(syncer Syncer, logger *slog.Logger) *Server {
	s := &Server{
		syncer: syncer,
		logger: logger,
		mux:    http.NewServeMux(),
	}

	s.mux.HandleFunc("GET /api/sync/status", s.handleStatus)
	s.mux.HandleFunc("POST /api/sync", s.handleSync)
	s.mux.HandleFunc("GET /health", s.handleHealth)

	return s
}

// Start serves on addr until Shutdown.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// Handler returns the HTTP handler for use with custom servers.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// EntityStatusBody is one entity in the status response.
type EntityStatusBody struct {
	LastSync *time.Time         `json:"lastSync"`
	IsStale  bool               `json:"isStale"`
	Count    int                `json:"count"`
	Status   model.LedgerStatus `json:"status,omitempty"`
	Error    string             `json:"error,omitempty"`
}

// StatusBody is the GET /api/sync/status response.
type StatusBody struct {
	Entities map[sync.EntityType]EntityStatusBody `json:"entities"`
	IsStale  bool                                 `json:"isStale"`
	LastSync *time.Time                           `json:"lastSync"`
}

// SyncRequestBody is the POST /api/sync request.
type SyncRequestBody struct {
	Force    bool     `json:"force"`
	Entities []string `json:"entities"`
}

// SyncResponseBody is the POST /api/sync response.
type SyncResponseBody struct {
	RunID    string              `json:"runId"`
	Results  []sync.EntityResult `json:"results"`
	SyncedAt time.Time           `json:"syncedAt"`
}

type errorBody struct {
	Error string `json:"error"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	report, err := s.syncer.Status(r.Context())
	if err != nil {
		s.logger.Error("reading sync status failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "reading sync status failed")
		return
	}

	body := StatusBody{
		Entities: make(map[sync.EntityType]EntityStatusBody, len(report.Entities)),
		IsStale:  report.IsStale,
		LastSync: report.LastSync,
	}
	for _, e := range report.Entities {
		body.Entities[e.Entity] = EntityStatusBody{
			LastSync: e.LastSync,
			IsStale:  e.IsStale,
			Count:    e.Count,
			Status:   e.Status,
			Error:    e.Error,
		}
	}
	s.writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	defer func() { _ = r.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	var req SyncRequestBody
	if len(data) > 0 {
		if err := json.Unmarshal(data, &req); err != nil {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
			return
		}
	}

	entities, err := sync.ParseEntities(req.Entities)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := s.syncer.Run(r.Context(), sync.Request{Force: req.Force, Entities: entities})
	if errors.Is(err, sync.ErrSyncInProgress) {
		s.writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		s.logger.Error("sync request failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "sync failed")
		return
	}

	// Per-entity failures are reported in the results, not as an HTTP error.
	s.writeJSON(w, http.StatusOK, SyncResponseBody{
		RunID:    resp.RunID,
		Results:  resp.Results,
		SyncedAt: resp.SyncedAt,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug("writing response failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorBody{Error: msg})
}
