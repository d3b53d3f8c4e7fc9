package extract

import (
	"context"
	"sync"
	"time"

	"readaloud-api/core/domain"
	"readaloud-api/core/interfaces"

	openai "github.com/sashabaranov/go-openai"
)

// mockLogger discards log lines but remembers messages
type mockLogger struct {
	mu       sync.Mutex
	messages []string
}

func (m *mockLogger) record(msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
}

func (m *mockLogger) Debug(msg string, fields map[string]interface{}) { m.record(msg) }
func (m *mockLogger) Info(msg string, fields map[string]interface{})  { m.record(msg) }
func (m *mockLogger) Warn(msg string, fields map[string]interface{})  { m.record(msg) }
func (m *mockLogger) Error(msg string, fields map[string]interface{}) { m.record(msg) }

// mockExtractor is a func-backed interfaces.Extractor that counts calls
type mockExtractor struct {
	extractFunc func(ctx context.Context, markup, sourceURL string) (domain.Extraction, error)
	calls       int
}

func (m *mockExtractor) Extract(ctx context.Context, markup, sourceURL string) (domain.Extraction, error) {
	m.calls++
	if m.extractFunc != nil {
		return m.extractFunc(ctx, markup, sourceURL)
	}
	return domain.Extraction{}, nil
}

// mockChatClient is a func-backed ChatClient that records requests
type mockChatClient struct {
	createFunc func(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
	requests   []openai.ChatCompletionRequest
}

func (m *mockChatClient) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	m.requests = append(m.requests, req)
	if m.createFunc != nil {
		return m.createFunc(ctx, req)
	}
	return openai.ChatCompletionResponse{}, nil
}

func chatResponse(content string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content}},
		},
	}
}

// mockCache is an in-memory interfaces.Cache
type mockCache struct {
	data map[string][]byte
}

func newMockCache() *mockCache {
	return &mockCache{data: make(map[string][]byte)}
}

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	v, ok := m.data[key]
	if !ok {
		return nil, interfaces.ErrCacheMiss
	}
	return v, nil
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.data[key] = value
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}

// mockMetrics records extraction tiers
type mockMetrics struct {
	interfaces.NopMetrics
	tiers []string
}

func (m *mockMetrics) ExtractionTier(tier string) {
	m.tiers = append(m.tiers, tier)
}
