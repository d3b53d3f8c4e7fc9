// ABOUTME: ElevenLabs text-to-speech provider using the streaming endpoint
// ABOUTME: Exposes the chunked HTTP response body as a speech.ChunkReader

package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	apperrors "readaloud-api/core/errors"
	"readaloud-api/core/speech"
)

const (
	// DefaultBaseURL is the public ElevenLabs API
	DefaultBaseURL = "https://api.elevenlabs.io"

	// DefaultVoiceID is the "Rachel" premade voice
	DefaultVoiceID = "21m00Tcm4TlvDq8ikWAM"

	// DefaultModelID is the multilingual model
	DefaultModelID = "eleven_multilingual_v2"

	DefaultStability       = 0.5
	DefaultSimilarityBoost = 0.75

	chunkSize = 32 << 10
)

// DefaultVoice returns the default voice parameters
func DefaultVoice() speech.Voice {
	return speech.Voice{
		VoiceID:         DefaultVoiceID,
		ModelID:         DefaultModelID,
		Stability:       DefaultStability,
		SimilarityBoost: DefaultSimilarityBoost,
	}
}

// Provider implements speech.Provider against the ElevenLabs API
type Provider struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewProvider creates an ElevenLabs provider. An empty baseURL means
// DefaultBaseURL.
func NewProvider(apiKey, baseURL string, timeout time.Duration) *Provider {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Provider{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Name implements speech.Provider
func (p *Provider) Name() string { return "elevenlabs" }

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

type synthesisRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

// Stream implements speech.Provider
func (p *Provider) Stream(ctx context.Context, req speech.Request) (speech.ChunkReader, error) {
	if p.apiKey == "" {
		return nil, speech.ErrMissingCredentials
	}

	payload, err := json.Marshal(synthesisRequest{
		Text:    req.Text,
		ModelID: req.ModelID,
		VoiceSettings: voiceSettings{
			Stability:       req.Stability,
			SimilarityBoost: req.SimilarityBoost,
		},
	})
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/v1/text-to-speech/%s/stream", p.baseURL, req.VoiceID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("xi-api-key", p.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "audio/mpeg")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, &apperrors.ExternalAPIError{
			StatusCode: resp.StatusCode,
			Message:    errorDetail(body, resp.Status),
			API:        "ElevenLabs",
		}
	}

	return &bodyReader{body: resp.Body, buf: make([]byte, chunkSize)}, nil
}

// errorDetail pulls the message out of an ElevenLabs error body
func errorDetail(body []byte, fallback string) string {
	var parsed struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && len(parsed.Detail) > 0 {
		var msg string
		if json.Unmarshal(parsed.Detail, &msg) == nil && msg != "" {
			return msg
		}
		var obj struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(parsed.Detail, &obj) == nil && obj.Message != "" {
			return obj.Message
		}
	}
	if s := strings.TrimSpace(string(body)); s != "" {
		return s
	}
	return fallback
}

// bodyReader yields the streamed body in arrival order
type bodyReader struct {
	body io.ReadCloser
	buf  []byte
}

func (r *bodyReader) Next() ([]byte, error) {
	for {
		n, err := r.body.Read(r.buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, r.buf[:n])
			return chunk, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

func (r *bodyReader) Close() error {
	return r.body.Close()
}
