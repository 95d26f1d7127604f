package semantic

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/pgvector/pgvector-go"

	"promptgate/internal/cache/embedding"
)

// Repository is the PostgreSQL Store backend. Exact-key lookups go through
// the fingerprint column; when an embedding service is configured, misses
// fall back to pgvector cosine similarity over the normalized prompt.
type Repository struct {
	db                  *sql.DB
	embedder            *embedding.Service // nil disables similarity search
	similarityThreshold float64
	ttl                 time.Duration
}

// NewRepository creates a Postgres-backed cache store. A nil embedder keeps
// the store exact-key only.
func NewRepository(db *sql.DB, embedder *embedding.Service, similarityThreshold float64, ttl time.Duration) *Repository {
	return &Repository{
		db:                  db,
		embedder:            embedder,
		similarityThreshold: similarityThreshold,
		ttl:                 ttl,
	}
}

// EnsureSchema creates the cache table and indexes if missing. The vector
// column is only usable when the pgvector extension is installed.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS semantic_cache (
			id TEXT PRIMARY KEY,
			fingerprint TEXT NOT NULL,
			model TEXT NOT NULL,
			normalized_prompt TEXT NOT NULL DEFAULT '',
			response TEXT NOT NULL,
			provider TEXT NOT NULL DEFAULT '',
			input_tokens INT NOT NULL DEFAULT 0,
			output_tokens INT NOT NULL DEFAULT 0,
			embedding vector(1536),
			hit_count INT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			expires_at TIMESTAMPTZ NOT NULL,
			UNIQUE (model, fingerprint)
		)`,
		`CREATE INDEX IF NOT EXISTS semantic_cache_expiry_idx ON semantic_cache (expires_at)`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensuring cache schema: %w", err)
		}
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, key Fingerprint, model, normalizedPrompt string) (*Entry, float64, error) {
	entry, err := r.getByFingerprint(ctx, key, model)
	if err != nil {
		return nil, 0, err
	}
	if entry != nil {
		go r.incrementHitCount(context.Background(), entry.ID)
		return entry, 1.0, nil
	}

	if r.embedder == nil || normalizedPrompt == "" {
		return nil, 0, nil
	}

	vec, err := r.embedder.Embed(ctx, normalizedPrompt)
	if err != nil {
		// Similarity search is an enhancement on top of the exact path;
		// embedding outages degrade to a miss.
		slog.Warn("embedding generation failed, treating as cache miss", "error", err)
		return nil, 0, nil
	}
	return r.searchBySimilarity(ctx, model, vec)
}

func (r *Repository) getByFingerprint(ctx context.Context, key Fingerprint, model string) (*Entry, error) {
	const query = `
		SELECT id, normalized_prompt, response, provider, input_tokens, output_tokens,
		       hit_count, created_at, expires_at
		FROM semantic_cache
		WHERE model = $1
		  AND fingerprint = $2
		  AND expires_at > NOW()
		LIMIT 1
	`

	entry := Entry{Key: key, Model: model}
	err := r.db.QueryRowContext(ctx, query, model, string(key)).Scan(
		&entry.ID, &entry.NormalizedPrompt, &entry.Response, &entry.Provider,
		&entry.InputTokens, &entry.OutputTokens, &entry.HitCount,
		&entry.CreatedAt, &entry.ExpiresAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil // cache miss
	}
	if err != nil {
		return nil, fmt.Errorf("cache lookup: %w", err)
	}
	return &entry, nil
}

func (r *Repository) searchBySimilarity(ctx context.Context, model string, vec pgvector.Vector) (*Entry, float64, error) {
	const query = `
		SELECT id, fingerprint, normalized_prompt, response, provider, input_tokens,
		       output_tokens, hit_count, created_at, expires_at,
		       1 - (embedding <=> $1::vector) AS similarity
		FROM semantic_cache
		WHERE model = $2
		  AND expires_at > NOW()
		  AND embedding IS NOT NULL
		  AND 1 - (embedding <=> $1::vector) >= $3
		ORDER BY similarity DESC
		LIMIT 1
	`

	entry := Entry{Model: model}
	var key string
	var sim float64
	err := r.db.QueryRowContext(ctx, query, vec, model, r.similarityThreshold).Scan(
		&entry.ID, &key, &entry.NormalizedPrompt, &entry.Response, &entry.Provider,
		&entry.InputTokens, &entry.OutputTokens, &entry.HitCount,
		&entry.CreatedAt, &entry.ExpiresAt, &sim,
	)
	if err == sql.ErrNoRows {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("similarity search: %w", err)
	}

	entry.Key = Fingerprint(key)
	go r.incrementHitCount(context.Background(), entry.ID)
	return &entry, sim, nil
}

func (r *Repository) Set(ctx context.Context, entry *Entry) error {
	now := time.Now()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	if entry.ExpiresAt.IsZero() {
		ttl := r.ttl
		if ttl <= 0 {
			ttl = time.Hour
		}
		entry.ExpiresAt = now.Add(ttl)
	}

	var vec any
	if r.embedder != nil && entry.NormalizedPrompt != "" {
		if v, err := r.embedder.Embed(ctx, entry.NormalizedPrompt); err == nil {
			vec = v
		} else {
			slog.Warn("embedding generation failed, storing entry without vector", "error", err)
		}
	}

	const query = `
		INSERT INTO semantic_cache
			(id, fingerprint, model, normalized_prompt, response, provider,
			 input_tokens, output_tokens, embedding, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (model, fingerprint) DO UPDATE SET
			response = EXCLUDED.response,
			provider = EXCLUDED.provider,
			input_tokens = EXCLUDED.input_tokens,
			output_tokens = EXCLUDED.output_tokens,
			embedding = EXCLUDED.embedding,
			created_at = EXCLUDED.created_at,
			expires_at = EXCLUDED.expires_at
	`
	_, err := r.db.ExecContext(ctx, query,
		entry.ID, string(entry.Key), entry.Model, entry.NormalizedPrompt,
		entry.Response, entry.Provider, entry.InputTokens, entry.OutputTokens,
		vec, entry.CreatedAt, entry.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("cache store: %w", err)
	}
	return nil
}

func (r *Repository) Clear(ctx context.Context) (int, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM semantic_cache`)
	if err != nil {
		return 0, fmt.Errorf("cache clear: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (r *Repository) Len(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM semantic_cache WHERE expires_at > NOW()`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("cache count: %w", err)
	}
	return n, nil
}

func (r *Repository) incrementHitCount(ctx context.Context, id string) {
	_, err := r.db.ExecContext(ctx, `UPDATE semantic_cache SET hit_count = hit_count + 1 WHERE id = $1`, id)
	if err != nil {
		slog.Debug("failed to update cache hit count", "id", id, "error", err)
	}
}
