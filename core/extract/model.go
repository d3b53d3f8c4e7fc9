// ABOUTME: Model-based extractor asks a language model for the article title and body
// ABOUTME: Fallback tier used when cheaper extraction fails the quality gate

package extract

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"readaloud-api/core/domain"
	"readaloud-api/core/interfaces"
	htmlutil "readaloud-api/pkg/utils/html"

	openai "github.com/sashabaranov/go-openai"
)

// TierModel names the language-model extractor
const TierModel = "model"

// ContentUnavailable replaces a missing content field in the model response
const ContentUnavailable = "Content could not be extracted from this page."

// DefaultMaxInputChars bounds the page text sent to the model
const DefaultMaxInputChars = 8000

const systemInstruction = "You extract readable articles from web pages. Respond with strict JSON only, no narration. " +
	"The JSON schema is {\"title\": string, \"content\": string}. " +
	"title is the article headline. content is the full article body as clean plain text suitable for reading aloud: " +
	"no navigation, ads, cookie notices, comments, bylines or share prompts."

// ChatClient is the subset of the OpenAI client the extractor needs
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// ModelConfig configures the model-based extractor
type ModelConfig struct {
	// Model is the chat model name
	Model string

	// MaxInputChars truncates page text; zero means DefaultMaxInputChars
	MaxInputChars int

	// CacheTTL keeps successful responses; zero disables caching
	CacheTTL time.Duration
}

// ModelExtractor implements interfaces.Extractor by prompting a chat model
type ModelExtractor struct {
	client ChatClient
	cfg    ModelConfig
	cache  interfaces.Cache
	logger interfaces.Logger
}

// NewModelExtractor creates a model-based extractor. cache may be nil.
func NewModelExtractor(client ChatClient, cfg ModelConfig, cache interfaces.Cache, logger interfaces.Logger) *ModelExtractor {
	if cfg.MaxInputChars <= 0 {
		cfg.MaxInputChars = DefaultMaxInputChars
	}
	return &ModelExtractor{
		client: client,
		cfg:    cfg,
		cache:  cache,
		logger: logger,
	}
}

type modelResponse struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

// Extract implements interfaces.Extractor. Call failures are returned
// unchanged; missing response fields are replaced with placeholders.
func (m *ModelExtractor) Extract(ctx context.Context, markup string, sourceURL string) (domain.Extraction, error) {
	if m.client == nil || m.cfg.Model == "" {
		return domain.Extraction{}, errors.New("model extractor not configured")
	}

	text := htmlutil.Truncate(htmlutil.StripHTML(markup), m.cfg.MaxInputChars)
	prompt := buildUserPrompt(sourceURL, text)
	key := cacheKey(m.cfg.Model, prompt)

	if raw, ok := m.cached(ctx, key); ok {
		if result, err := parseModelResponse(raw); err == nil {
			m.logger.Debug("Model extraction served from cache", map[string]interface{}{
				"url": sourceURL,
			})
			return result, nil
		}
	}

	m.logger.Debug("Requesting model extraction", map[string]interface{}{
		"url":      sourceURL,
		"model":    m.cfg.Model,
		"text_len": len(text),
	})

	resp, err := m.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: m.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemInstruction},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
		Temperature:    0.1,
		N:              1,
	})
	if err != nil {
		return domain.Extraction{}, fmt.Errorf("model extraction call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return domain.Extraction{}, errors.New("model extraction returned no choices")
	}

	raw := resp.Choices[0].Message.Content
	result, err := parseModelResponse(raw)
	if err != nil {
		return domain.Extraction{}, err
	}

	if m.cache != nil && m.cfg.CacheTTL > 0 {
		if err := m.cache.Set(ctx, key, []byte(raw), m.cfg.CacheTTL); err != nil {
			m.logger.Warn("Failed to cache model extraction", map[string]interface{}{
				"url":   sourceURL,
				"error": err.Error(),
			})
		}
	}
	return result, nil
}

func (m *ModelExtractor) cached(ctx context.Context, key string) (string, bool) {
	if m.cache == nil || m.cfg.CacheTTL <= 0 {
		return "", false
	}
	data, err := m.cache.Get(ctx, key)
	if err != nil || len(data) == 0 {
		return "", false
	}
	return string(data), true
}

func buildUserPrompt(sourceURL, text string) string {
	var sb strings.Builder
	sb.WriteString("Extract the main article from this web page.\n")
	sb.WriteString("URL: ")
	sb.WriteString(sourceURL)
	sb.WriteString("\n\nPage text:\n")
	sb.WriteString(text)
	return sb.String()
}

// parseModelResponse decodes the model's JSON, tolerating code fences and
// missing fields
func parseModelResponse(raw string) (domain.Extraction, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	var resp modelResponse
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &resp); err != nil {
		return domain.Extraction{}, fmt.Errorf("parse model extraction json: %w", err)
	}

	result := domain.Extraction{
		Title:   UntitledArticle,
		Content: ContentUnavailable,
		Tier:    TierModel,
	}
	if resp.Title != nil && strings.TrimSpace(*resp.Title) != "" {
		result.Title = strings.TrimSpace(*resp.Title)
	}
	if resp.Content != nil && strings.TrimSpace(*resp.Content) != "" {
		result.Content = strings.TrimSpace(*resp.Content)
	}
	return result, nil
}

func cacheKey(model, prompt string) string {
	h := sha256.Sum256([]byte(model + "\n\n" + systemInstruction + "\n\n" + prompt))
	return "extract:" + hex.EncodeToString(h[:])
}
