// internal/server/server.go

// Package server exposes the answer engine over HTTP: /ask resolves a
// question, /health reports liveness, /metrics serves Prometheus. Answers
// are cached in Redis keyed on the exact question text so repeated
// questions skip the backend entirely.
package server

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"

	"dealbot/internal/audit"
	"dealbot/internal/backend"
	"dealbot/internal/common/config"
	"dealbot/internal/common/database"
	"dealbot/internal/common/logger"
	"dealbot/internal/common/metrics"
	"dealbot/internal/common/observability"
	"dealbot/internal/models"
)

// Server wires one Answerer behind the HTTP surface. Cache, audit sink
// and tracing are optional; a nil cache disables caching and the noop
// sink disables auditing.
type Server struct {
	cfg     config.ServerConfig
	backend backend.Answerer
	cache   *database.RedisClient
	sink    audit.Sink
	tracing *observability.Tracing
	obs     *observability.Observability
	info    Info
	log     logger.Logger

	started time.Time
	httpSrv *http.Server
}

// Info is the static deployment metadata /health reports alongside
// liveness.
type Info struct {
	AppVersion   string
	BrainVersion string
	BrainSize    int
	Records      int
}

type askRequest struct {
	Question string `json:"question"`
	OCRText  string `json:"ocrText,omitempty"`
	DealID   string `json:"dealId,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func New(cfg config.ServerConfig, answerer backend.Answerer, cache *database.RedisClient,
	sink audit.Sink, tracing *observability.Tracing, obs *observability.Observability, info Info, log logger.Logger) *Server {
	if sink == nil {
		sink = audit.NewNoopSink()
	}
	s := &Server{
		cfg:     cfg,
		backend: answerer,
		cache:   cache,
		sink:    sink,
		tracing: tracing,
		obs:     obs,
		info:    info,
		log:     log,
		started: time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ask", s.handleAsk)
	mux.Handle("/metrics", promhttp.Handler())

	s.httpSrv = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      mux,
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Millisecond,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Millisecond,
	}
	return s
}

// Handler exposes the routing mux, primarily for httptest.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

// Start blocks serving HTTP until Shutdown is called or the listener fails.
func (s *Server) Start() error {
	s.log.Info("Answer server listening", map[string]interface{}{
		"addr":    s.httpSrv.Addr,
		"backend": s.backend.Name(),
	})
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":        "healthy",
		"backend":       s.backend.Name(),
		"version":       s.info.AppVersion,
		"brain_version": s.info.BrainVersion,
		"brain_size":    s.info.BrainSize,
		"records":       s.info.Records,
		"uptime":        time.Since(s.started).Round(time.Second).String(),
		"time":          time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "POST required"})
		return
	}

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	if req.Question == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "question is required"})
		return
	}

	q := models.Question{RawText: req.Question, OCRText: req.OCRText}
	// An explicit deal id pins record selection; entity extraction treats
	// it like any other reference carried by supplementary text.
	if req.DealID != "" {
		q.OCRText = strings.TrimSpace(q.OCRText + " " + req.DealID)
	}

	ctx := r.Context()
	if s.tracing != nil {
		spanCtx, span := s.tracing.StartSpan(ctx, "ask")
		span.SetAttributes(
			attribute.String("question", req.Question),
			attribute.String("backend", s.backend.Name()),
		)
		defer span.End()
		ctx = spanCtx
	}

	if cached, ok := s.cacheLookup(ctx, q); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	start := time.Now()
	result, err := s.backend.Answer(ctx, q)
	elapsed := time.Since(start)

	status := "error"
	if err == nil {
		status = string(result.Status)
	}
	metrics.QuestionsTotal.WithLabelValues(status).Inc()
	metrics.QuestionDuration.WithLabelValues(status).Observe(elapsed.Seconds())
	if s.obs != nil {
		s.obs.RecordQuestion(ctx, status)
		s.obs.RecordQuestionDuration(ctx, elapsed, status)
	}

	if err != nil {
		s.log.WithError(err).Error("Backend failed to answer", map[string]interface{}{
			"question": req.Question,
			"backend":  s.backend.Name(),
		})
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to answer question"})
		return
	}

	s.sink.Record(ctx, audit.Interaction{
		Question:    req.Question,
		OCRText:     req.OCRText,
		Status:      result.Status,
		Value:       result.Value,
		RecordID:    result.RecordID,
		FieldID:     result.FieldID,
		Explanation: result.Explanation,
		Backend:     s.backend.Name(),
		LatencyMs:   float64(elapsed.Microseconds()) / 1000.0,
	})

	s.cacheStore(ctx, q, result)
	writeJSON(w, http.StatusOK, result)
}

// cacheKey hashes the full question so arbitrarily long OCR text still
// produces a bounded Redis key.
func cacheKey(q models.Question) string {
	sum := sha256.Sum256([]byte(q.RawText + "\x00" + q.OCRText))
	return fmt.Sprintf("dealbot:answer:%x", sum)
}

func (s *Server) cacheLookup(ctx context.Context, q models.Question) (models.AnswerResult, bool) {
	if s.cache == nil || s.cfg.CacheTTL <= 0 {
		return models.AnswerResult{}, false
	}

	raw, err := s.cache.Get(ctx, cacheKey(q))
	if err != nil {
		metrics.AnswerCacheHits.WithLabelValues("miss").Inc()
		return models.AnswerResult{}, false
	}

	var result models.AnswerResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		metrics.AnswerCacheHits.WithLabelValues("miss").Inc()
		return models.AnswerResult{}, false
	}

	metrics.AnswerCacheHits.WithLabelValues("hit").Inc()
	return result, true
}

func (s *Server) cacheStore(ctx context.Context, q models.Question, result models.AnswerResult) {
	if s.cache == nil || s.cfg.CacheTTL <= 0 {
		return
	}

	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	ttl := time.Duration(s.cfg.CacheTTL) * time.Second
	if err := s.cache.Set(ctx, cacheKey(q), string(data), ttl); err != nil {
		s.log.WithError(err).Warn("Failed to cache answer", nil)
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
