// Package gateway orchestrates compression, caching and upstream calls.
package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"promptgate/internal/cache/semantic"
	"promptgate/internal/compress"
	"promptgate/internal/domain"
	"promptgate/internal/llm"
	"promptgate/internal/telemetry"

	"github.com/google/uuid"
)

// Recorder persists completed interactions. The gateway invokes it on
// every served request; failures are logged and never fail the request.
type Recorder interface {
	Record(ctx context.Context, rec *domain.InteractionRecord) error
}

// Service is the request orchestrator: compress, consult the cache,
// fall through to the provider, store, record.
type Service struct {
	compressor *compress.Compressor
	cache      *semantic.Service
	completer  llm.Completer
	recorder   Recorder
	metrics    *telemetry.Metrics
	logger     *slog.Logger
	useGzip    bool
}

// NewService creates a new gateway service. cache and recorder may be
// nil, which disables the corresponding step.
func NewService(
	compressor *compress.Compressor,
	cache *semantic.Service,
	completer llm.Completer,
	recorder Recorder,
	metrics *telemetry.Metrics,
	logger *slog.Logger,
	useGzip bool,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		compressor: compressor,
		cache:      cache,
		completer:  completer,
		recorder:   recorder,
		metrics:    metrics,
		logger:     logger,
		useGzip:    useGzip,
	}
}

// HandleChat handles a non-streaming chat completion. Cache failures
// degrade to a miss and compression failures degrade to identity; only
// the provider call can fail the request.
func (s *Service) HandleChat(ctx context.Context, req *domain.ChatRequest) (*domain.ChatResponse, error) {
	startTime := time.Now()

	if req.RequestID == "" {
		req.RequestID = uuid.New().String()
	}
	if req.Model == "" {
		return nil, fmt.Errorf("model is required")
	}
	if len(req.Messages) == 0 {
		return nil, fmt.Errorf("at least one message is required")
	}

	compressed := s.compressMessages(req.Messages)
	key := semantic.MakeCacheKey(compressed, req.Model)
	normalized := semantic.NormalizePrompt(compressed)

	if s.cache != nil {
		if content, hit := s.cache.GetSimilarResponse(ctx, key, req.Model, normalized); hit {
			response := &domain.ChatResponse{
				Content:   content,
				Model:     req.Model,
				Cached:    true,
				LatencyMs: time.Since(startTime).Milliseconds(),
			}

			s.logger.Info("semantic cache hit",
				"request_id", req.RequestID,
				"model", req.Model)
			if s.metrics != nil {
				s.metrics.RequestsTotal.WithLabelValues(req.Model, "hit").Inc()
				s.metrics.RequestDuration.WithLabelValues(req.Model).Observe(time.Since(startTime).Seconds())
			}

			s.recordInteraction(req, compressed, response)
			return response, nil
		}
	}

	// The provider sees natural language: undo the lossy token-saving
	// rewrites before the prompt leaves the gateway.
	upstream := s.decompressMessages(compressed)

	if s.metrics != nil {
		s.metrics.ProviderRequests.WithLabelValues(s.completer.ProviderName()).Inc()
	}

	response, err := s.completer.Complete(ctx, req.Model, upstream)
	if err != nil {
		if s.metrics != nil {
			s.metrics.ProviderErrors.WithLabelValues(s.completer.ProviderName()).Inc()
		}
		return nil, fmt.Errorf("provider request failed: %w", err)
	}

	response.Cached = false
	response.LatencyMs = time.Since(startTime).Milliseconds()

	if s.cache != nil {
		s.cache.StoreResponse(ctx, key, req.Model, normalized, response)
	}

	if s.metrics != nil {
		s.metrics.RequestsTotal.WithLabelValues(req.Model, "miss").Inc()
		s.metrics.RequestDuration.WithLabelValues(req.Model).Observe(time.Since(startTime).Seconds())
	}

	s.recordInteraction(req, compressed, response)
	return response, nil
}

// compressMessages applies the compression facade to user and system
// content. Assistant turns pass through untouched so cached assistant
// context stays verbatim.
func (s *Service) compressMessages(messages []domain.Message) []domain.Message {
	out := make([]domain.Message, len(messages))
	copy(out, messages)

	if s.compressor == nil {
		return out
	}

	var originalLen, compressedLen int
	for i, msg := range out {
		if msg.Role != domain.RoleUser && msg.Role != domain.RoleSystem {
			continue
		}
		originalLen += len(msg.Content)
		out[i].Content = s.compressor.CompressPrompt(msg.Content, s.useGzip, nil)
		compressedLen += len(out[i].Content)
	}

	if s.metrics != nil && originalLen > 0 {
		s.metrics.CompressionRatio.Observe(float64(compressedLen) / float64(originalLen))
	}
	return out
}

// decompressMessages restores compressed user and system content using
// pipeline auto-detection.
func (s *Service) decompressMessages(messages []domain.Message) []domain.Message {
	out := make([]domain.Message, len(messages))
	copy(out, messages)

	if s.compressor == nil {
		return out
	}

	for i, msg := range out {
		if msg.Role != domain.RoleUser && msg.Role != domain.RoleSystem {
			continue
		}
		out[i].Content = s.compressor.DecompressPrompt(msg.Content, nil)
	}
	return out
}

// recordInteraction persists the served interaction in the background.
func (s *Service) recordInteraction(req *domain.ChatRequest, compressed []domain.Message, resp *domain.ChatResponse) {
	if s.recorder == nil {
		return
	}

	rec := &domain.InteractionRecord{
		UserID:             req.UserID,
		Model:              req.Model,
		CompressedMessages: compressed,
		Response:           resp.Content,
		CacheHit:           resp.Cached,
		CreatedAt:          time.Now(),
	}

	go func() {
		if err := s.recorder.Record(context.Background(), rec); err != nil {
			s.logger.Warn("failed to record interaction",
				"error", err,
				"request_id", req.RequestID)
		}
	}()
}
