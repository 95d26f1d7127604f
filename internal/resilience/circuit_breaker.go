package resilience

import (
	"fmt"
	"sync"
	"time"
)

// CircuitState represents the circuit breaker state
type CircuitState string

const (
	StateClosed   CircuitState = "closed"    // Normal operation
	StateOpen     CircuitState = "open"      // Failures exceeded threshold
	StateHalfOpen CircuitState = "half_open" // Testing if recovered
)

// CircuitBreakerConfig tunes the breaker.
type CircuitBreakerConfig struct {
	FailureThreshold int           // consecutive failures before opening
	OpenTimeout      time.Duration // how long to stay open before probing
}

// DefaultCircuitBreakerConfig returns conservative breaker settings.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold: 5,
		OpenTimeout:      30 * time.Second,
	}
}

// CircuitBreaker guards a single upstream provider. It opens after a
// run of consecutive failures and probes with one request after the
// open timeout elapses.
type CircuitBreaker struct {
	mu           sync.Mutex
	cfg          CircuitBreakerConfig
	state        CircuitState
	failureCount int
	openedAt     time.Time
}

// NewCircuitBreaker creates a closed circuit breaker.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = DefaultCircuitBreakerConfig().FailureThreshold
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = DefaultCircuitBreakerConfig().OpenTimeout
	}
	return &CircuitBreaker{cfg: cfg, state: StateClosed}
}

// AllowRequest reports whether a request may proceed.
func (cb *CircuitBreaker) AllowRequest() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateOpen:
		if time.Since(cb.openedAt) > cb.cfg.OpenTimeout {
			cb.state = StateHalfOpen
			return nil
		}
		return fmt.Errorf("circuit breaker open")
	default:
		return nil
	}
}

// RecordSuccess resets the failure run and closes a half-open circuit.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failureCount = 0
	cb.state = StateClosed
}

// RecordFailure counts a failure, opening the circuit at the threshold.
// A failed half-open probe reopens immediately.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failureCount++
	if cb.state == StateHalfOpen || cb.failureCount >= cb.cfg.FailureThreshold {
		cb.state = StateOpen
		cb.openedAt = time.Now()
	}
}

// State returns the current circuit state.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}
