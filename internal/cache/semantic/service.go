package semantic

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"promptgate/internal/domain"
	"promptgate/internal/telemetry"
)

// Service provides semantic caching over a Store backend. Backend errors are
// contained here: a failing lookup degrades to a miss and a failing store is
// dropped, so cache trouble never surfaces to callers.
type Service struct {
	store   Store
	metrics *telemetry.Metrics // nil disables metric emission
	logger  *slog.Logger

	hits   atomic.Uint64
	misses atomic.Uint64
}

// Stats describes cache effectiveness.
type Stats struct {
	Entries int     `json:"entries"`
	Hits    uint64  `json:"hits"`
	Misses  uint64  `json:"misses"`
	HitRate float64 `json:"hit_rate"`
}

// NewService creates a semantic cache service.
func NewService(store Store, metrics *telemetry.Metrics, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, metrics: metrics, logger: logger}
}

// GetSimilarResponse returns the cached response for an equal or
// approximately-equal key, and whether the lookup hit.
func (s *Service) GetSimilarResponse(ctx context.Context, key Fingerprint, model, normalizedPrompt string) (string, bool) {
	start := time.Now()
	entry, sim, err := s.store.Get(ctx, key, model, normalizedPrompt)
	if s.metrics != nil {
		s.metrics.CacheLookupLatency.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		s.logger.Warn("cache lookup failed, treating as miss", "model", model, "error", err)
		entry = nil
	}

	if entry == nil {
		s.misses.Add(1)
		if s.metrics != nil {
			s.metrics.CacheMisses.WithLabelValues(model).Inc()
		}
		return "", false
	}

	s.hits.Add(1)
	if s.metrics != nil {
		s.metrics.CacheHits.WithLabelValues(model).Inc()
		s.metrics.CacheTokensSaved.WithLabelValues(model).Add(float64(entry.InputTokens + entry.OutputTokens))
	}
	s.logger.Debug("cache hit", "model", model, "similarity", sim, "entry_id", entry.ID)
	return entry.Response, true
}

// StoreResponse inserts or overwrites the cached response for key. Last
// write wins for concurrent stores of the same key.
func (s *Service) StoreResponse(ctx context.Context, key Fingerprint, model, normalizedPrompt string, resp *domain.ChatResponse) {
	entry := &Entry{
		ID:               uuid.NewString(),
		Key:              key,
		Model:            model,
		NormalizedPrompt: normalizedPrompt,
		Response:         resp.Content,
		Provider:         resp.Provider,
	}
	if resp.Usage != nil {
		entry.InputTokens = resp.Usage.PromptTokens
		entry.OutputTokens = resp.Usage.CompletionTokens
	}

	if err := s.store.Set(ctx, entry); err != nil {
		s.logger.Warn("cache store failed", "model", model, "error", err)
		return
	}
	if s.metrics != nil {
		if n, err := s.store.Len(ctx); err == nil {
			s.metrics.CacheEntries.Set(float64(n))
		}
	}
}

// Clear removes all entries and returns the count removed.
func (s *Service) Clear(ctx context.Context) int {
	n, err := s.store.Clear(ctx)
	if err != nil {
		s.logger.Warn("cache clear failed", "error", err)
		return 0
	}
	if s.metrics != nil {
		s.metrics.CacheEntries.Set(0)
	}
	return n
}

// GetStats reports entry count, hit/miss counters, and the derived hit rate.
func (s *Service) GetStats(ctx context.Context) Stats {
	stats := Stats{
		Hits:   s.hits.Load(),
		Misses: s.misses.Load(),
	}
	if n, err := s.store.Len(ctx); err == nil {
		stats.Entries = n
	}
	if total := stats.Hits + stats.Misses; total > 0 {
		stats.HitRate = float64(stats.Hits) / float64(total)
	}
	return stats
}
