package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/hazard-claim-verifier/internal/domain"
	"github.com/couchcryptid/hazard-claim-verifier/internal/verification"
)

// ClaimReader loads a persisted claim.
type ClaimReader interface {
	GetClaim(ctx context.Context, id string) (domain.Claim, error)
}

// ConfidenceReader computes a claim's current confidence without mutating it.
type ConfidenceReader interface {
	GetConfidence(ctx context.Context, claimID string) (verification.ConfidenceReport, error)
}

// Server exposes health, readiness, metrics, and read-only claim endpoints.
type Server struct {
	httpServer *http.Server
	claims     ClaimReader
	confidence ConfidenceReader
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics,
// /claims/{id} and /claims/{id}/confidence routes.
func NewServer(addr string, ready sharedobs.ReadinessChecker, claims ClaimReader, confidence ConfidenceReader, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		claims:     claims,
		confidence: confidence,
		logger:     logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /claims/{id}", s.handleClaim)
	mux.HandleFunc("GET /claims/{id}/confidence", s.handleConfidence)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleClaim(w http.ResponseWriter, r *http.Request) {
	claim, err := s.claims.GetClaim(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, claim)
}

func (s *Server) handleConfidence(w http.ResponseWriter, r *http.Request) {
	report, err := s.confidence.GetConfidence(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, domain.ErrClaimNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "claim not found"})
		return
	}
	s.logger.Error("request failed", "path", r.URL.Path, "error", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
