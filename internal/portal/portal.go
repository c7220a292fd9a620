// ABOUTME: Local HTTP surface for the student-portal front end
// ABOUTME: Serves student CRUD as JSON, the CASS entry trigger and the roster report

package portal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/2389/student-portal/internal/cass"
	"github.com/2389/student-portal/internal/dedupe"
	"github.com/2389/student-portal/internal/report"
	"github.com/2389/student-portal/internal/store"
)

const (
	// RequestIDHeader carries the per-request id on responses.
	RequestIDHeader = "X-Request-ID"

	// IdempotencyKeyHeader lets the front end mark repeated add submissions.
	IdempotencyKeyHeader = "Idempotency-Key"
)

// Config holds portal server configuration
type Config struct {
	HTTPAddr        string
	EntryPage       string
	ShutdownTimeout time.Duration

	// IdempotencyTTL is how long an add submission key is remembered.
	IdempotencyTTL time.Duration
}

// Server exposes the student store over HTTP.
type Server struct {
	store      store.Store
	trigger    *cass.Trigger
	config     Config
	logger     *slog.Logger
	httpServer *http.Server

	submitMu    sync.Mutex
	submissions *dedupe.Cache
}

// New creates a portal server backed by st.
func New(st store.Store, cfg Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 5 * time.Second
	}

	s := &Server{
		store:       st,
		trigger:     cass.NewTrigger(st, cfg.EntryPage, logger),
		config:      cfg,
		logger:      logger.With("component", "portal"),
		submissions: dedupe.New(cfg.IdempotencyTTL, dedupe.DefaultMaxSize),
	}

	mux := http.NewServeMux()
	s.RegisterRoutes(mux)

	s.httpServer = &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           s.withRequestLog(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the server's root handler, including middleware.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// RegisterRoutes registers all portal routes on the given mux
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("POST /api/students", s.handleAddStudent)
	mux.HandleFunc("GET /api/students", s.handleListStudents)
	mux.HandleFunc("GET /api/students/{id}", s.handleGetStudent)
	mux.HandleFunc("PUT /api/students/{id}", s.handleUpdateStudent)
	mux.HandleFunc("DELETE /api/students/{id}", s.handleDeleteStudent)

	mux.Handle("GET /cass/enter", s.trigger)
	mux.HandleFunc("GET /report", s.handleReport)
}

// Run serves on the configured address until ctx is canceled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.config.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.config.HTTPAddr, err)
	}
	return s.Serve(ctx, listener)
}

// Serve accepts connections on listener until ctx is canceled.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", listener.Addr().String())
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serverErr error
	select {
	case <-ctx.Done():
		s.logger.Info("context canceled, initiating shutdown")
	case err, ok := <-errCh:
		if ok {
			s.logger.Error("server error", "error", err)
			serverErr = err
		}
	}

	// The original context is already canceled; shut down on a fresh one.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	shutdownErr := s.httpServer.Shutdown(shutdownCtx)
	s.submissions.Close()

	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// withRequestLog tags each request with an id and logs it once served.
func (s *Server) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		s.logger.Debug("request",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// handleHealth returns 200 OK if the server is running.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	body, err := report.RosterHTML(r.Context(), s.store)
	if err != nil {
		s.sendStoreError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, "<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>Student roster</title></head><body>\n")
	_, _ = w.Write(body)
	fmt.Fprint(w, "</body></html>\n")
}

// sendJSON writes v as a JSON response.
func (s *Server) sendJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

// sendJSONError writes a JSON error response.
func (s *Server) sendJSONError(w http.ResponseWriter, status int, message string) {
	s.sendJSON(w, status, map[string]string{"error": message})
}

// sendStoreError maps store failures onto HTTP statuses.
func (s *Server) sendStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrStoreUnavailable):
		s.sendJSONError(w, http.StatusServiceUnavailable, "could not open database")
	case errors.Is(err, store.ErrWrite):
		s.logger.Error("store write failed", "error", err)
		s.sendJSONError(w, http.StatusInternalServerError, err.Error())
	default:
		s.logger.Error("store read failed", "error", err)
		s.sendJSONError(w, http.StatusInternalServerError, err.Error())
	}
}
