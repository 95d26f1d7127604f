// Package embedding generates embedding vectors for approximate cache
// matching. The embedding call itself is an external collaborator behind the
// Client interface.
package embedding

import (
	"context"
	"fmt"

	"github.com/pgvector/pgvector-go"
)

// Client generates embeddings for a batch of texts.
type Client interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Service wraps a Client for single-prompt embedding.
type Service struct {
	client Client
	model  string
}

// NewService creates an embedding service. An empty model falls back to a
// small default suitable for cache similarity.
func NewService(client Client, model string) *Service {
	if model == "" {
		model = "text-embedding-3-small"
	}
	return &Service{client: client, model: model}
}

// Model returns the configured embedding model name.
func (s *Service) Model() string { return s.model }

// Embed creates an embedding vector for a prompt.
func (s *Service) Embed(ctx context.Context, prompt string) (pgvector.Vector, error) {
	if s.client == nil {
		return pgvector.Vector{}, fmt.Errorf("embedding client not configured")
	}

	embeddings, err := s.client.Embed(ctx, []string{prompt})
	if err != nil {
		return pgvector.Vector{}, fmt.Errorf("generating embedding: %w", err)
	}
	if len(embeddings) == 0 || len(embeddings[0]) == 0 {
		return pgvector.Vector{}, fmt.Errorf("empty embedding returned")
	}
	return pgvector.NewVector(embeddings[0]), nil
}
