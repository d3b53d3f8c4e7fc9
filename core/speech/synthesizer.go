// ABOUTME: Speech synthesizer consumes a provider's streamed audio into one buffer
// ABOUTME: Voice parameters are fixed at construction and passed to every request

package speech

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"readaloud-api/core/interfaces"
)

// ErrMissingCredentials is returned when a provider has no API credentials
var ErrMissingCredentials = errors.New("speech synthesis credentials are not configured")

// Voice holds the fixed synthesis parameters
type Voice struct {
	VoiceID         string  `yaml:"voice_id"`
	ModelID         string  `yaml:"model_id"`
	Stability       float64 `yaml:"stability"`
	SimilarityBoost float64 `yaml:"similarity_boost"`
}

// Request is one synthesis call sent to a provider
type Request struct {
	Text string
	Voice
}

// ChunkReader yields audio chunks in arrival order. Next returns io.EOF
// after the last chunk.
type ChunkReader interface {
	Next() ([]byte, error)
	Close() error
}

// Provider opens a streamed synthesis response
type Provider interface {
	Name() string
	Stream(ctx context.Context, req Request) (ChunkReader, error)
}

// Synthesizer implements interfaces.SpeechSynthesizer over a Provider
type Synthesizer struct {
	provider Provider
	voice    Voice
	logger   interfaces.Logger
}

// NewSynthesizer creates a synthesizer bound to one provider and voice
func NewSynthesizer(provider Provider, voice Voice, logger interfaces.Logger) *Synthesizer {
	return &Synthesizer{
		provider: provider,
		voice:    voice,
		logger:   logger,
	}
}

// Synthesize implements interfaces.SpeechSynthesizer. The whole stream is
// consumed before returning; callers never see partial audio.
func (s *Synthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("no text to synthesize")
	}

	stream, err := s.provider.Stream(ctx, Request{Text: text, Voice: s.voice})
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	var audio bytes.Buffer
	chunks := 0
	for {
		chunk, err := stream.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s audio stream: %w", s.provider.Name(), err)
		}
		audio.Write(chunk)
		chunks++
	}

	if audio.Len() == 0 {
		return nil, fmt.Errorf("%s returned no audio", s.provider.Name())
	}

	s.logger.Debug("Speech synthesized", map[string]interface{}{
		"provider": s.provider.Name(),
		"chunks":   chunks,
		"bytes":    audio.Len(),
		"text_len": len(text),
	})
	return audio.Bytes(), nil
}

// SliceReader is a ChunkReader over chunks already in memory
type SliceReader struct {
	chunks [][]byte
	pos    int
}

// NewSliceReader creates a reader that yields chunks in order
func NewSliceReader(chunks ...[]byte) *SliceReader {
	return &SliceReader{chunks: chunks}
}

// Next implements ChunkReader
func (r *SliceReader) Next() ([]byte, error) {
	if r.pos >= len(r.chunks) {
		return nil, io.EOF
	}
	chunk := r.chunks[r.pos]
	r.pos++
	return chunk, nil
}

// Close implements ChunkReader
func (r *SliceReader) Close() error { return nil }
