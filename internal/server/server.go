package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"MarketPulse/internal/model"
)

// Source provides the most recent board along with the run that produced it.
// board is nil before the first run completes.
type Source interface {
	Latest() (board *model.Board, runID string, at time.Time)
}

// Server exposes the latest board, health and metrics over HTTP.
type Server struct {
	source  Source
	metrics http.Handler
	logger  *zap.Logger
	srv     *http.Server
}

// New builds the router. metrics may be nil to omit /metrics.
func New(addr string, source Source, metrics http.Handler, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{source: source, metrics: metrics, logger: logger}
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Router returns the HTTP routes.
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/snapshot", s.handleBoard).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/snapshot/{key}", s.handleInstrument).Methods(http.MethodGet)
	if s.metrics != nil {
		router.Handle("/metrics", s.metrics).Methods(http.MethodGet)
	}
	return router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", s.srv.Addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("http server stopped")
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	_, runID, at := s.source.Latest()
	resp := map[string]any{"status": "ok", "run_id": runID}
	if !at.IsZero() {
		resp["updated_at"] = at.UTC().Format(time.RFC3339)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleBoard(w http.ResponseWriter, _ *http.Request) {
	board, runID, _ := s.source.Latest()
	if board == nil {
		writeError(w, http.StatusServiceUnavailable, "no snapshot yet")
		return
	}
	w.Header().Set("X-Run-ID", runID)
	writeJSON(w, http.StatusOK, board)
}

func (s *Server) handleInstrument(w http.ResponseWriter, r *http.Request) {
	board, runID, _ := s.source.Latest()
	if board == nil {
		writeError(w, http.StatusServiceUnavailable, "no snapshot yet")
		return
	}
	key := mux.Vars(r)["key"]
	snap, ok := board.Get(key)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown instrument "+key)
		return
	}
	w.Header().Set("X-Run-ID", runID)
	writeJSON(w, http.StatusOK, snap)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
