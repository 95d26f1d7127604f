package semantic

import (
	"context"
	"sync"
	"time"

	"github.com/agnivade/levenshtein"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// MemoryStoreConfig configures the in-memory cache backend.
type MemoryStoreConfig struct {
	// Capacity bounds the number of entries; the least recently used entry
	// is evicted at the bound. Zero means unbounded.
	Capacity int
	// TTL expires entries after a fixed duration. Zero disables expiry.
	TTL time.Duration
	// FuzzyThreshold enables approximate matching on normalized prompts when
	// above zero: an entry whose Levenshtein similarity meets the threshold
	// counts as a hit. Zero keeps the cache exact-key only.
	FuzzyThreshold float64
}

// MemoryStore is the in-memory Store: an expirable LRU for the exact-key
// path, with an optional linear fuzzy scan over same-model entries. Suitable
// for a single process serving many concurrent requests.
type MemoryStore struct {
	mu  sync.RWMutex
	lru *expirable.LRU[Fingerprint, *Entry]
	cfg MemoryStoreConfig
}

// NewMemoryStore creates an in-memory cache backend.
func NewMemoryStore(cfg MemoryStoreConfig) *MemoryStore {
	return &MemoryStore{
		lru: expirable.NewLRU[Fingerprint, *Entry](cfg.Capacity, nil, cfg.TTL),
		cfg: cfg,
	}
}

func (s *MemoryStore) Get(ctx context.Context, key Fingerprint, model, normalizedPrompt string) (*Entry, float64, error) {
	now := time.Now()

	s.mu.Lock()
	if entry, ok := s.lru.Get(key); ok && !entry.Expired(now) {
		entry.HitCount++
		s.mu.Unlock()
		return entry, 1.0, nil
	}
	s.mu.Unlock()

	if s.cfg.FuzzyThreshold <= 0 || normalizedPrompt == "" {
		return nil, 0, nil
	}
	return s.fuzzyGet(model, normalizedPrompt, now)
}

// fuzzyGet scans live same-model entries for the closest normalized prompt
// at or above the threshold.
func (s *MemoryStore) fuzzyGet(model, normalizedPrompt string, now time.Time) (*Entry, float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var best *Entry
	bestSim := 0.0
	for _, entry := range s.lru.Values() {
		if entry.Model != model || entry.Expired(now) || entry.NormalizedPrompt == "" {
			continue
		}
		sim := similarity(normalizedPrompt, entry.NormalizedPrompt)
		if sim >= s.cfg.FuzzyThreshold && sim > bestSim {
			best = entry
			bestSim = sim
		}
	}
	if best == nil {
		return nil, 0, nil
	}
	best.HitCount++
	return best, bestSim, nil
}

func (s *MemoryStore) Set(ctx context.Context, entry *Entry) error {
	now := time.Now()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	if entry.ExpiresAt.IsZero() && s.cfg.TTL > 0 {
		entry.ExpiresAt = now.Add(s.cfg.TTL)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lru.Add(entry.Key, entry)
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.lru.Len()
	s.lru.Purge()
	return n, nil
}

func (s *MemoryStore) Len(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lru.Len(), nil
}

// similarity is 1 - normalized Levenshtein distance, 1.0 for equal strings.
func similarity(s1, s2 string) float64 {
	if s1 == s2 {
		return 1.0
	}
	distance := levenshtein.ComputeDistance(s1, s2)
	maxLen := len(s1)
	if len(s2) > maxLen {
		maxLen = len(s2)
	}
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(distance)/float64(maxLen)
}
