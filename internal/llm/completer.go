// Package llm implements upstream model provider clients.
package llm

import (
	"context"

	"promptgate/internal/domain"
)

// Completer performs a non-streaming chat completion against an
// upstream model provider. Implementations must honor ctx cancellation.
type Completer interface {
	// Complete sends the messages to the given model and returns the
	// assistant response together with token usage when the provider
	// reports it.
	Complete(ctx context.Context, model string, messages []domain.Message) (*domain.ChatResponse, error)

	// ProviderName identifies the upstream, e.g. "openai" or "bedrock".
	ProviderName() string
}
