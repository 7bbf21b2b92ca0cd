// Package api exposes the classification engine over HTTP:
// POST /v1/classify, GET /v1/policy/version, GET /healthz.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/registrar-ops/triage/pkg/engine"
)

const maxQueryBytes = 8 << 10

// Server holds the HTTP handlers.
type Server struct {
	engine  *engine.Engine
	limiter *RateLimiter
	log     *slog.Logger
}

// NewServer creates a Server. limiter may be nil to disable limiting.
func NewServer(eng *engine.Engine, limiter *RateLimiter, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{engine: eng, limiter: limiter, log: log}
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/classify", s.handleClassify)
	mux.HandleFunc("GET /v1/policy/version", s.handlePolicyVersion)
	mux.HandleFunc("GET /healthz", s.handleHealthz)

	var h http.Handler = mux
	if s.limiter != nil {
		h = s.limiter.Middleware(h)
	}
	return h
}

type classifyRequest struct {
	DomainID string `json:"domain_id"`
	Query    string `json:"query"`
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var req classifyRequest
	body := http.MaxBytesReader(w, r.Body, maxQueryBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "query must be non-empty")
		return
	}
	if req.DomainID == "" {
		writeError(w, http.StatusBadRequest, "domain_id must be non-empty")
		return
	}

	d, err := s.engine.Classify(r.Context(), req.DomainID, req.Query)
	if err != nil {
		if errors.Is(err, engine.ErrNoKnowledgeBase) {
			writeError(w, http.StatusServiceUnavailable, "no policy bundle loaded")
			return
		}
		s.log.ErrorContext(r.Context(), "classify failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handlePolicyVersion(w http.ResponseWriter, r *http.Request) {
	version, err := s.engine.PolicyVersion()
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "no policy bundle loaded")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"version": version})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
