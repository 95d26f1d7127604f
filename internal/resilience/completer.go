package resilience

import (
	"context"

	"promptgate/internal/domain"
	"promptgate/internal/llm"
)

// Completer decorates an llm.Completer with retry and circuit breaking.
type Completer struct {
	inner   llm.Completer
	retry   RetryConfig
	breaker *CircuitBreaker
}

// NewCompleter wraps inner with the given retry and breaker settings.
func NewCompleter(inner llm.Completer, retry RetryConfig, breaker CircuitBreakerConfig) *Completer {
	return &Completer{
		inner:   inner,
		retry:   retry,
		breaker: NewCircuitBreaker(breaker),
	}
}

// ProviderName returns the wrapped provider's identifier.
func (c *Completer) ProviderName() string {
	return c.inner.ProviderName()
}

// Complete forwards to the wrapped completer, retrying transient
// failures. The circuit breaker rejects immediately while open.
func (c *Completer) Complete(ctx context.Context, model string, messages []domain.Message) (*domain.ChatResponse, error) {
	if err := c.breaker.AllowRequest(); err != nil {
		return nil, err
	}

	var resp *domain.ChatResponse
	err := Retry(ctx, c.retry, func() error {
		var callErr error
		resp, callErr = c.inner.Complete(ctx, model, messages)
		return callErr
	})
	if err != nil {
		c.breaker.RecordFailure()
		return nil, err
	}

	c.breaker.RecordSuccess()
	return resp, nil
}
