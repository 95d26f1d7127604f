// Package storage provides interaction record persistence.
package storage

import (
	"context"
	"sync"

	"promptgate/internal/domain"

	"github.com/google/uuid"
)

// MemoryRecorder keeps interaction records in memory for
// development and testing.
type MemoryRecorder struct {
	mu      sync.RWMutex
	records []*domain.InteractionRecord
}

// NewMemoryRecorder creates a new in-memory recorder.
func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{}
}

// Record appends an interaction, assigning an ID when missing.
func (r *MemoryRecorder) Record(ctx context.Context, rec *domain.InteractionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	r.records = append(r.records, rec)
	return nil
}

// List returns a copy of all recorded interactions, oldest first.
func (r *MemoryRecorder) List(ctx context.Context) ([]*domain.InteractionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.InteractionRecord, len(r.records))
	copy(out, r.records)
	return out, nil
}

// ListByUser returns the most recent interactions for a user, newest
// first.
func (r *MemoryRecorder) ListByUser(ctx context.Context, userID string, limit int) ([]*domain.InteractionRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domain.InteractionRecord
	for i := len(r.records) - 1; i >= 0 && len(out) < limit; i-- {
		if r.records[i].UserID == userID {
			out = append(out, r.records[i])
		}
	}
	return out, nil
}

// Len returns the number of recorded interactions.
func (r *MemoryRecorder) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}
