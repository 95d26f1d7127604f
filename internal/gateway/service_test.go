package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"promptgate/internal/cache/semantic"
	"promptgate/internal/compress"
	"promptgate/internal/domain"
	"promptgate/internal/telemetry"
)

type fakeCompleter struct {
	mu    sync.Mutex
	calls int
	fail  bool
}

func (f *fakeCompleter) Complete(ctx context.Context, model string, messages []domain.Message) (*domain.ChatResponse, error) {
	f.mu.Lock()
	f.calls++
	n := f.calls
	f.mu.Unlock()

	if f.fail {
		return nil, fmt.Errorf("upstream unavailable")
	}
	return &domain.ChatResponse{
		Content:  fmt.Sprintf("response %d", n),
		Model:    model,
		Provider: "fake",
		Usage:    &domain.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}, nil
}

func (f *fakeCompleter) ProviderName() string { return "fake" }

func (f *fakeCompleter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeRecorder struct {
	records chan *domain.InteractionRecord
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{records: make(chan *domain.InteractionRecord, 16)}
}

func (r *fakeRecorder) Record(ctx context.Context, rec *domain.InteractionRecord) error {
	r.records <- rec
	return nil
}

func (r *fakeRecorder) wait(t *testing.T) *domain.InteractionRecord {
	t.Helper()
	select {
	case rec := <-r.records:
		return rec
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for interaction record")
		return nil
	}
}

func newTestService(t *testing.T, completer *fakeCompleter, recorder Recorder) *Service {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(discardWriter{}, &slog.HandlerOptions{Level: slog.LevelError}))
	metrics := telemetry.NewMetrics()

	compressor := compress.NewCompressor(compress.NewDefaultRegistry(), compress.Config{
		Enabled: true,
		Level:   compress.LevelMedium,
	}, logger)

	store := semantic.NewMemoryStore(semantic.MemoryStoreConfig{
		Capacity: 128,
		TTL:      time.Minute,
	})
	cache := semantic.NewService(store, metrics, logger)

	return NewService(compressor, cache, completer, recorder, metrics, logger, false)
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func chatRequest(model, prompt string) *domain.ChatRequest {
	return &domain.ChatRequest{
		Model:  model,
		UserID: "u1",
		Messages: []domain.Message{
			{Role: domain.RoleSystem, Content: "You are a helpful assistant."},
			{Role: domain.RoleUser, Content: prompt},
		},
	}
}

func TestHandleChatCacheRoundTrip(t *testing.T) {
	completer := &fakeCompleter{}
	svc := newTestService(t, completer, nil)
	ctx := context.Background()

	first, err := svc.HandleChat(ctx, chatRequest("gpt-4o", "What is the capital of France?"))
	if err != nil {
		t.Fatalf("HandleChat: %v", err)
	}
	if first.Cached {
		t.Error("first request should not be served from cache")
	}
	if completer.callCount() != 1 {
		t.Fatalf("expected 1 provider call, got %d", completer.callCount())
	}

	second, err := svc.HandleChat(ctx, chatRequest("gpt-4o", "What is the capital of France?"))
	if err != nil {
		t.Fatalf("HandleChat: %v", err)
	}
	if !second.Cached {
		t.Error("identical request should be served from cache")
	}
	if second.Content != first.Content {
		t.Errorf("cached content = %q, want %q", second.Content, first.Content)
	}
	if completer.callCount() != 1 {
		t.Errorf("cache hit must not call the provider, got %d calls", completer.callCount())
	}
}

func TestHandleChatModelIsolation(t *testing.T) {
	completer := &fakeCompleter{}
	svc := newTestService(t, completer, nil)
	ctx := context.Background()

	if _, err := svc.HandleChat(ctx, chatRequest("gpt-4o", "Explain quicksort")); err != nil {
		t.Fatalf("HandleChat: %v", err)
	}
	resp, err := svc.HandleChat(ctx, chatRequest("claude-sonnet", "Explain quicksort"))
	if err != nil {
		t.Fatalf("HandleChat: %v", err)
	}
	if resp.Cached {
		t.Error("same prompt on a different model must miss the cache")
	}
	if completer.callCount() != 2 {
		t.Errorf("expected 2 provider calls, got %d", completer.callCount())
	}
}

func TestHandleChatProviderError(t *testing.T) {
	completer := &fakeCompleter{fail: true}
	svc := newTestService(t, completer, nil)

	if _, err := svc.HandleChat(context.Background(), chatRequest("gpt-4o", "hello")); err == nil {
		t.Fatal("expected error when the provider fails")
	}
}

func TestHandleChatValidation(t *testing.T) {
	svc := newTestService(t, &fakeCompleter{}, nil)
	ctx := context.Background()

	if _, err := svc.HandleChat(ctx, &domain.ChatRequest{Messages: []domain.Message{{Role: domain.RoleUser, Content: "hi"}}}); err == nil {
		t.Error("expected error for missing model")
	}
	if _, err := svc.HandleChat(ctx, &domain.ChatRequest{Model: "gpt-4o"}); err == nil {
		t.Error("expected error for empty messages")
	}
}

func TestHandleChatRecordsInteractions(t *testing.T) {
	recorder := newFakeRecorder()
	svc := newTestService(t, &fakeCompleter{}, recorder)
	ctx := context.Background()

	if _, err := svc.HandleChat(ctx, chatRequest("gpt-4o", "The function implementation returns the value")); err != nil {
		t.Fatalf("HandleChat: %v", err)
	}
	rec := recorder.wait(t)
	if rec.CacheHit {
		t.Error("first interaction should record a miss")
	}
	if rec.UserID != "u1" || rec.Model != "gpt-4o" {
		t.Errorf("record identity = %q/%q, want u1/gpt-4o", rec.UserID, rec.Model)
	}
	if len(rec.CompressedMessages) != 2 {
		t.Fatalf("expected 2 compressed messages, got %d", len(rec.CompressedMessages))
	}
	// medium level abbreviates: the stored prompt is the compressed form.
	if rec.CompressedMessages[1].Content == "The function implementation returns the value" {
		t.Error("recorded user message should be compressed")
	}

	if _, err := svc.HandleChat(ctx, chatRequest("gpt-4o", "The function implementation returns the value")); err != nil {
		t.Fatalf("HandleChat: %v", err)
	}
	if rec := recorder.wait(t); !rec.CacheHit {
		t.Error("second interaction should record a hit")
	}
}

func TestHandleChatWithoutCache(t *testing.T) {
	completer := &fakeCompleter{}
	logger := slog.New(slog.NewTextHandler(discardWriter{}, nil))
	svc := NewService(nil, nil, completer, nil, nil, logger, false)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		resp, err := svc.HandleChat(ctx, chatRequest("gpt-4o", "hello"))
		if err != nil {
			t.Fatalf("HandleChat: %v", err)
		}
		if resp.Cached {
			t.Error("cacheless gateway must never report a cached response")
		}
	}
	if completer.callCount() != 2 {
		t.Errorf("expected 2 provider calls, got %d", completer.callCount())
	}
}
