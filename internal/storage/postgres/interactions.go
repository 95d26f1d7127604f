package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"promptgate/internal/domain"

	"github.com/google/uuid"
)

// Recorder persists interaction records to PostgreSQL.
type Recorder struct {
	db *sql.DB
}

// NewRecorder creates a new PostgreSQL-backed recorder.
func NewRecorder(db *sql.DB) *Recorder {
	return &Recorder{db: db}
}

// EnsureSchema creates the interactions table if it does not exist.
func (r *Recorder) EnsureSchema(ctx context.Context) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS interactions (
			id UUID PRIMARY KEY,
			user_id TEXT NOT NULL DEFAULT '',
			model TEXT NOT NULL,
			compressed_messages JSONB NOT NULL,
			response TEXT NOT NULL,
			cache_hit BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_interactions_user_created
			ON interactions (user_id, created_at DESC);`

	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create interactions schema: %w", err)
	}
	return nil
}

// Record inserts an interaction record.
func (r *Recorder) Record(ctx context.Context, rec *domain.InteractionRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	messages, err := json.Marshal(rec.CompressedMessages)
	if err != nil {
		return fmt.Errorf("failed to marshal messages: %w", err)
	}

	const query = `
		INSERT INTO interactions (id, user_id, model, compressed_messages, response, cache_hit, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	if _, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.UserID, rec.Model, messages, rec.Response, rec.CacheHit, rec.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to insert interaction: %w", err)
	}
	return nil
}

// ListByUser returns the most recent interactions for a user.
func (r *Recorder) ListByUser(ctx context.Context, userID string, limit int) ([]*domain.InteractionRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	const query = `
		SELECT id, user_id, model, compressed_messages, response, cache_hit, created_at
		FROM interactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query interactions: %w", err)
	}
	defer rows.Close()

	var records []*domain.InteractionRecord
	for rows.Next() {
		var rec domain.InteractionRecord
		var messages []byte
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Model, &messages, &rec.Response, &rec.CacheHit, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan interaction: %w", err)
		}
		if err := json.Unmarshal(messages, &rec.CompressedMessages); err != nil {
			return nil, fmt.Errorf("failed to unmarshal messages: %w", err)
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}
