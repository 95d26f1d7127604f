package semantic

import (
	"context"
	"time"
)

// Entry is a cached response. The cache owns entries exclusively; callers
// receive copies of the response text, never shared mutable state.
type Entry struct {
	ID               string
	Key              Fingerprint
	Model            string
	NormalizedPrompt string // for approximate matching
	Response         string
	Provider         string
	InputTokens      int32
	OutputTokens     int32
	HitCount         int
	CreatedAt        time.Time
	ExpiresAt        time.Time
}

// Expired reports whether the entry's TTL has lapsed. A zero ExpiresAt means
// no expiry.
func (e *Entry) Expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && now.After(e.ExpiresAt)
}

// Store persists cache entries. Implementations must never return an expired
// entry from Get.
type Store interface {
	// Get returns the entry for key, or an approximately matching entry for
	// the same model when the backend supports it. A nil entry with nil
	// error is a miss. The similarity is 1.0 for exact matches.
	Get(ctx context.Context, key Fingerprint, model, normalizedPrompt string) (*Entry, float64, error)

	// Set inserts or overwrites the entry for entry.Key. Concurrent writes
	// to the same key race benevolently: last write wins.
	Set(ctx context.Context, entry *Entry) error

	// Clear removes all entries and returns the count removed.
	Clear(ctx context.Context) (int, error)

	// Len returns the number of live entries.
	Len(ctx context.Context) (int, error)
}
