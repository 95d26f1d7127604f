// Package domain defines core domain types for the promptgate proxy.
package domain

import "time"

// Message roles understood by the proxy.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a chat message
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest represents a chat completion request
type ChatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`

	// Request context
	RequestID string `json:"request_id,omitempty"`
	UserID    string `json:"user,omitempty"`
}

// Usage contains token usage information
type Usage struct {
	PromptTokens     int32 `json:"prompt_tokens"`
	CompletionTokens int32 `json:"completion_tokens"`
	TotalTokens      int32 `json:"total_tokens"`
}

// ChatResponse is the full response for a chat completion
type ChatResponse struct {
	Content   string `json:"content,omitempty"`
	Model     string `json:"model,omitempty"`
	Usage     *Usage `json:"usage,omitempty"`
	Provider  string `json:"provider,omitempty"`
	Cached    bool   `json:"cached,omitempty"`     // True if response was served from cache
	LatencyMs int64  `json:"latency_ms,omitempty"` // Request latency in milliseconds
}

// InteractionRecord is handed to the persistence collaborator after a
// response is produced. Durable storage of these records is outside the
// proxy core.
type InteractionRecord struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"user_id,omitempty"`
	Model              string    `json:"model"`
	CompressedMessages []Message `json:"compressed_messages"`
	Response           string    `json:"response"`
	CacheHit           bool      `json:"cache_hit"`
	CreatedAt          time.Time `json:"created_at"`
}
