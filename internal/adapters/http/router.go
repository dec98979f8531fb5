package httpadapter

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/localai-community/ai-assistant-tobee-sub000/internal/core/domain"
	"github.com/localai-community/ai-assistant-tobee-sub000/internal/core/ports"
	"github.com/localai-community/ai-assistant-tobee-sub000/internal/observability/metrics"
)

const serviceName = "api"

type Router struct {
	retrieval ports.RetrievalService
	auditLog  ports.RetrievalLogReader
	metrics   *metrics.RetrievalMetrics

	defaultTopK     int
	rateLimitRPS    float64
	rateLimitBurst  int
	maxConcurrent   int
	concurrencyWait time.Duration
}

type RouterOptions struct {
	DefaultTopK     int
	RateLimitRPS    float64
	RateLimitBurst  int
	MaxConcurrent   int
	ConcurrencyWait time.Duration
}

func NewRouter(
	retrieval ports.RetrievalService,
	auditLog ports.RetrievalLogReader,
	retrievalMetrics *metrics.RetrievalMetrics,
	options RouterOptions,
) *Router {
	if options.DefaultTopK <= 0 {
		options.DefaultTopK = 4
	}
	return &Router{
		retrieval:       retrieval,
		auditLog:        auditLog,
		metrics:         retrievalMetrics,
		defaultTopK:     options.DefaultTopK,
		rateLimitRPS:    options.RateLimitRPS,
		rateLimitBurst:  options.RateLimitBurst,
		maxConcurrent:   options.MaxConcurrent,
		concurrencyWait: options.ConcurrencyWait,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/retrieve", rt.retrieve)
	mux.HandleFunc("/v1/retrievals/recent", rt.recentRetrievals)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	if rt.maxConcurrent > 0 {
		handler = backpressureMiddleware(handler, rt.maxConcurrent, rt.concurrencyWait)
	}
	if rt.rateLimitRPS > 0 {
		handler = rateLimitMiddleware(handler, rt.rateLimitRPS, rt.rateLimitBurst)
	}
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type retrieveRequest struct {
	Query   string                    `json:"query"`
	History []domain.ConversationTurn `json:"history"`
	K       int                       `json:"k"`
}

type retrieveResponse struct {
	GateMode  domain.GateMode      `json:"gate_mode"`
	Results   []domain.FusedResult `json:"results"`
	NoContext bool                 `json:"no_context"`
}

func (rt *Router) retrieve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req retrieveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query is required"})
		return
	}
	if req.K <= 0 {
		req.K = rt.defaultTopK
	}

	start := time.Now()
	results, mode, err := rt.retrieval.GetRelevantPassages(r.Context(), domain.RetrievalRequest{
		Query:   req.Query,
		History: req.History,
		K:       req.K,
	})
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}

	annotateRequestLog(r.Context(),
		"gate_mode", string(mode),
		"result_count", len(results),
		"no_context", len(results) == 0,
	)
	if rt.metrics != nil {
		rt.metrics.RecordRetrieval(serviceName, string(mode), len(results), time.Since(start))
		for _, result := range results {
			for strategy := range result.PerStrategyScores {
				rt.metrics.RecordStrategyHits(serviceName, string(strategy), 1)
			}
		}
	}

	writeJSON(w, http.StatusOK, retrieveResponse{
		GateMode:  mode,
		Results:   results,
		NoContext: len(results) == 0,
	})
}

func (rt *Router) recentRetrievals(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	if rt.auditLog == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "audit log is not configured"})
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	records, err := rt.auditLog.RecentRecords(r.Context(), limit)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": records})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
