// Package chi implements the HTTP API: question answering, cache
// administration, breaker introspection, health and metrics.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	chirouter "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/parklens/parklens/internal/breaker"
	"github.com/parklens/parklens/internal/domain"
	"github.com/parklens/parklens/internal/repository/semcache"
	"github.com/parklens/parklens/internal/usecase/ask"
)

const maxQuestionLen = 2000

// Asker answers a question end to end.
type Asker interface {
	Ask(ctx context.Context, question string) (ask.Answer, error)
}

// CacheAdmin exposes the semantic cache management operations.
type CacheAdmin interface {
	GetStats(ctx context.Context) (semcache.Stats, error)
	Clear(ctx context.Context) (int, error)
}

// HealthReport describes readiness and which capabilities are degraded.
type HealthReport struct {
	Status         string `json:"status"` // ok, degraded, unavailable
	ReviewsLoaded  int    `json:"reviews_loaded"`
	SemanticSearch bool   `json:"semantic_search"`
	SemanticCache  bool   `json:"semantic_cache"`
}

// HealthFunc reports current service health.
type HealthFunc func(ctx context.Context) HealthReport

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server holds the HTTP handlers. cache is nil when the cache store is
// not configured; the cache endpoints then answer 503.
type Server struct {
	ask           Asker
	cache         CacheAdmin
	breakers      *breaker.Registry
	health        HealthFunc
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(asker Asker, cache CacheAdmin, breakers *breaker.Registry, health HealthFunc, logger *zap.Logger) *Server {
	s := &Server{
		ask:      asker,
		cache:    cache,
		breakers: breakers,
		health:   health,
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrStoreNotLoaded, http.StatusServiceUnavailable, "store_not_loaded"),
		sentinelHandler(domain.ErrCircuitOpen, http.StatusServiceUnavailable, "circuit_open"),
		sentinelHandler(domain.ErrCacheUnavailable, http.StatusServiceUnavailable, "cache_unavailable"),
		sentinelHandler(domain.ErrGenerationFailed, http.StatusBadGateway, "generation_failed"),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, "embedding_provider_error"),
		sentinelHandler(domain.ErrBreakerNotFound, http.StatusNotFound, "breaker_not_found"),
	}
	return s
}

// Routes mounts every handler on the given router.
func (s *Server) Routes(r chirouter.Router) {
	r.Post("/query", s.handleQuery)
	r.Get("/health", s.handleHealth)
	r.Get("/cache/stats", s.handleCacheStats)
	r.Delete("/cache", s.handleCacheClear)
	r.Get("/breakers", s.handleBreakers)
	r.Post("/breakers/{name}/reset", s.handleBreakerReset)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
}

type queryRequest struct {
	Question string `json:"question"`
}

// handleQuery handles POST /query.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}

	question := strings.TrimSpace(req.Question)
	if question == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "question is required")
		return
	}
	if len(question) > maxQuestionLen {
		writeError(w, http.StatusBadRequest, "validation_failed", "question is too long")
		return
	}

	answer, err := s.ask.Ask(r.Context(), question)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, answer)
}

// handleHealth handles GET /health. Degraded capabilities still answer
// 200: keyword-only search is a working service.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health(r.Context())

	status := http.StatusOK
	if report.Status == "unavailable" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

// handleCacheStats handles GET /cache/stats.
func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	if s.cache == nil {
		s.handleDomainError(w, domain.ErrCacheUnavailable)
		return
	}

	stats, err := s.cache.GetStats(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// handleCacheClear handles DELETE /cache.
func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	if s.cache == nil {
		s.handleDomainError(w, domain.ErrCacheUnavailable)
		return
	}

	cleared, err := s.cache.Clear(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"cleared": cleared})
}

type breakerView struct {
	Name             string    `json:"name"`
	State            string    `json:"state"`
	Failures         int       `json:"failures"`
	Successes        int       `json:"successes"`
	FailureRate      float64   `json:"failure_rate"`
	LastTransitionAt time.Time `json:"last_transition_at"`
}

// handleBreakers handles GET /breakers.
func (s *Server) handleBreakers(w http.ResponseWriter, _ *http.Request) {
	snaps := s.breakers.Snapshots()

	views := make([]breakerView, len(snaps))
	for i, snap := range snaps {
		views[i] = breakerView{
			Name:             snap.Name,
			State:            snap.State.String(),
			Failures:         snap.Failures,
			Successes:        snap.Successes,
			FailureRate:      snap.FailureRate,
			LastTransitionAt: snap.LastTransitionAt,
		}
	}
	writeJSON(w, http.StatusOK, map[string][]breakerView{"breakers": views})
}

// handleBreakerReset handles POST /breakers/{name}/reset.
func (s *Server) handleBreakerReset(w http.ResponseWriter, r *http.Request) {
	name := chirouter.URLParam(r, "name")

	b, ok := s.breakers.Get(name)
	if !ok {
		s.handleDomainError(w, domain.ErrBreakerNotFound)
		return
	}

	b.Reset()
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrStoreNotLoaded,
		domain.ErrCircuitOpen,
		domain.ErrCacheUnavailable,
		domain.ErrGenerationFailed,
		domain.ErrEmbeddingProviderError,
		domain.ErrBreakerNotFound,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			s.logger.Warn("domain error", zap.Error(err))
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
}
