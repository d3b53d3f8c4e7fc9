package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"readaloud-api/core/extract"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Debug(string, map[string]interface{}) {}
func (nopLogger) Info(string, map[string]interface{})  {}
func (nopLogger) Warn(string, map[string]interface{})  {}
func (nopLogger) Error(string, map[string]interface{}) {}

func TestNewClient_MissingKey(t *testing.T) {
	_, err := NewClient(Config{APIKey: "  "})

	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestNewClient_ExtractsThroughBaseURL(t *testing.T) {
	var gotAuth string
	var gotReq openai.ChatCompletionRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			ID: "chatcmpl-1",
			Choices: []openai.ChatCompletionChoice{{
				Message: openai.ChatCompletionMessage{
					Role:    openai.ChatMessageRoleAssistant,
					Content: `{"title":"From API","content":"Body text"}`,
				},
			}},
		})
	}))
	defer server.Close()

	client, err := NewClient(Config{APIKey: "sk-test", BaseURL: server.URL + "/v1/", Timeout: 5 * time.Second})
	require.NoError(t, err)

	extractor := extract.NewModelExtractor(client, extract.ModelConfig{Model: "gpt-4o-mini"}, nil, nopLogger{})
	got, err := extractor.Extract(context.Background(), "<p>page</p>", "https://example.com")

	require.NoError(t, err)
	assert.Equal(t, "From API", got.Title)
	assert.Equal(t, "Body text", got.Content)
	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "gpt-4o-mini", gotReq.Model)
}

func TestNewClient_APIErrorPropagates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"Rate limit reached","type":"requests"}}`))
	}))
	defer server.Close()

	client, err := NewClient(Config{APIKey: "sk-test", BaseURL: server.URL + "/v1"})
	require.NoError(t, err)

	extractor := extract.NewModelExtractor(client, extract.ModelConfig{Model: "m"}, nil, nopLogger{})
	_, err = extractor.Extract(context.Background(), "x", "https://example.com")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Rate limit reached")
}
