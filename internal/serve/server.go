// Package serve exposes read-only batch run status over HTTP.
package serve

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/arpalab/resolvit/internal/monitoring"
)

// Server answers run status queries from the checkpoint store. It is
// strictly read-only; batches are started from the CLI, never over HTTP.
type Server struct {
	collector *monitoring.Collector
}

// New creates a status server over the given collector.
func New(collector *monitoring.Collector) *Server {
	return &Server{collector: collector}
}

// Routes builds the chi router.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet},
	}))

	r.Get("/healthz", s.handleHealth)
	r.Get("/runs", s.handleRuns)
	r.Get("/runs/{runID}", s.handleRun)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.collector.Runs(r.Context())
	if err != nil {
		zap.L().Error("serve: list runs", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "store query failed"})
		return
	}
	if runs == nil {
		runs = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	snap, err := s.collector.Collect(r.Context(), runID)
	if err != nil {
		zap.L().Error("serve: collect run", zap.String("run_id", runID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "store query failed"})
		return
	}
	if snap.Total == 0 && len(snap.Waves) == 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown run"})
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("serve: encode response", zap.Error(err))
	}
}
