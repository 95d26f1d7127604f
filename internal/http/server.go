// Package http exposes the gateway over an OpenAI-compatible HTTP API.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"promptgate/internal/cache/semantic"
	"promptgate/internal/domain"
	"promptgate/internal/gateway"
	"promptgate/internal/telemetry"
)

// InteractionLister reads back recorded interactions for the admin
// surface.
type InteractionLister interface {
	ListByUser(ctx context.Context, userID string, limit int) ([]*domain.InteractionRecord, error)
}

// Server serves the chat completion, cache admin and operational
// endpoints.
type Server struct {
	gateway      *gateway.Service
	cache        *semantic.Service
	interactions InteractionLister
	metrics      *telemetry.Metrics
	logger       *slog.Logger
	mux          *http.ServeMux
	readTimeout  time.Duration
	writeTimeout time.Duration
}

// NewServer creates a new HTTP server. interactions may be nil, which
// disables the interactions endpoint.
func NewServer(
	gw *gateway.Service,
	cache *semantic.Service,
	interactions InteractionLister,
	metrics *telemetry.Metrics,
	logger *slog.Logger,
	readTimeout, writeTimeout time.Duration,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		gateway:      gw,
		cache:        cache,
		interactions: interactions,
		metrics:      metrics,
		logger:       logger,
		mux:          http.NewServeMux(),
		readTimeout:  readTimeout,
		writeTimeout: writeTimeout,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("POST /v1/chat/completions", s.handleChatCompletions)

	s.mux.HandleFunc("GET /v1/cache/stats", s.handleCacheStats)
	s.mux.HandleFunc("POST /v1/cache/clear", s.handleCacheClear)
	s.mux.HandleFunc("GET /v1/interactions", s.handleListInteractions)

	s.mux.HandleFunc("GET /health", s.handleHealth)
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics.Handler())
	}
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start runs the server until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.readTimeout,
		WriteTimeout: s.writeTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("HTTP server listening", "addr", addr)
	return server.ListenAndServe()
}

func (s *Server) handleChatCompletions(w http.ResponseWriter, r *http.Request) {
	var req ChatCompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}
	if req.Model == "" {
		s.writeError(w, http.StatusBadRequest, "invalid_request", "model is required")
		return
	}
	if len(req.Messages) == 0 {
		s.writeError(w, http.StatusBadRequest, "invalid_request", "messages must not be empty")
		return
	}

	domainReq := &domain.ChatRequest{
		Model:    req.Model,
		Messages: make([]domain.Message, 0, len(req.Messages)),
	}
	if req.User != nil {
		domainReq.UserID = *req.User
	}
	for _, msg := range req.Messages {
		domainReq.Messages = append(domainReq.Messages, domain.Message{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}

	resp, err := s.gateway.HandleChat(r.Context(), domainReq)
	if err != nil {
		s.logger.Error("chat completion failed",
			"error", err,
			"model", req.Model,
			"request_id", domainReq.RequestID)
		s.writeError(w, http.StatusBadGateway, "upstream_error", err.Error())
		return
	}

	out := ChatCompletionResponse{
		ID:      "chatcmpl-" + domainReq.RequestID,
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   resp.Model,
		Choices: []Choice{{
			Index: 0,
			Message: ChatMessage{
				Role:    domain.RoleAssistant,
				Content: resp.Content,
			},
			FinishReason: "stop",
		}},
	}
	if resp.Usage != nil {
		out.Usage = &Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
	}

	if resp.Cached {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	if s.cache == nil {
		s.writeError(w, http.StatusNotFound, "not_found", "cache is disabled")
		return
	}
	stats := s.cache.GetStats(r.Context())
	s.writeJSON(w, http.StatusOK, CacheStatsResponse{
		Entries: stats.Entries,
		Hits:    stats.Hits,
		Misses:  stats.Misses,
		HitRate: stats.HitRate,
	})
}

func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	if s.cache == nil {
		s.writeError(w, http.StatusNotFound, "not_found", "cache is disabled")
		return
	}
	cleared := s.cache.Clear(r.Context())
	s.writeJSON(w, http.StatusOK, map[string]int{"cleared": cleared})
}

func (s *Server) handleListInteractions(w http.ResponseWriter, r *http.Request) {
	if s.interactions == nil {
		s.writeError(w, http.StatusNotFound, "not_found", "interaction recording is disabled")
		return
	}

	userID := r.URL.Query().Get("user")
	if userID == "" {
		s.writeError(w, http.StatusBadRequest, "invalid_request", "user query parameter is required")
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.writeError(w, http.StatusBadRequest, "invalid_request", "limit must be a positive integer")
			return
		}
		limit = n
	}

	records, err := s.interactions.ListByUser(r.Context(), userID, limit)
	if err != nil {
		s.logger.Error("failed to list interactions", "error", err, "user", userID)
		s.writeError(w, http.StatusInternalServerError, "internal_error", "failed to list interactions")
		return
	}
	if records == nil {
		records = []*domain.InteractionRecord{}
	}
	s.writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (s *Server) writeError(w http.ResponseWriter, status int, errType, message string) {
	s.writeJSON(w, status, ErrorResponse{
		Error: ErrorDetail{
			Type:    errType,
			Message: message,
		},
	})
}
