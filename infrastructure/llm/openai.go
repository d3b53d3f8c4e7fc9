// ABOUTME: OpenAI-compatible chat client construction for model-based extraction
// ABOUTME: Supports a base URL override for self-hosted or proxy endpoints

package llm

import (
	"errors"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// ErrMissingAPIKey is returned when no API key is configured
var ErrMissingAPIKey = errors.New("language model API key is not configured")

// Config configures the chat client
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// NewClient creates an OpenAI chat client. The returned client satisfies
// extract.ChatClient.
func NewClient(cfg Config) (*openai.Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.Timeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	return openai.NewClientWithConfig(clientCfg), nil
}
