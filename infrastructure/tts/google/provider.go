// ABOUTME: Google Cloud text-to-speech provider
// ABOUTME: Splits long text into request-sized chunks and synthesizes them one by one

package google

import (
	"context"
	"fmt"
	"io"
	"strings"

	"readaloud-api/core/speech"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
)

const (
	// DefaultVoiceName is used when the voice has no id
	DefaultVoiceName = "en-US-Neural2-J"

	// DefaultChunkSize keeps each request under the API input limit
	DefaultChunkSize = 1000
)

// SynthesisClient is the subset of the Google client the provider needs
type SynthesisClient interface {
	SynthesizeSpeech(ctx context.Context, req *texttospeechpb.SynthesizeSpeechRequest) (*texttospeechpb.SynthesizeSpeechResponse, error)
}

// clientAdapter drops the variadic call options from the generated client
type clientAdapter struct {
	client *texttospeech.Client
}

func (a clientAdapter) SynthesizeSpeech(ctx context.Context, req *texttospeechpb.SynthesizeSpeechRequest) (*texttospeechpb.SynthesizeSpeechResponse, error) {
	return a.client.SynthesizeSpeech(ctx, req)
}

// Provider implements speech.Provider with Google Cloud Text-to-Speech
type Provider struct {
	client    SynthesisClient
	closer    io.Closer
	chunkSize int
}

// NewProvider dials the Google API with application default credentials
func NewProvider(ctx context.Context, chunkSize int) (*Provider, error) {
	client, err := texttospeech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", speech.ErrMissingCredentials, err)
	}
	p := NewProviderWithClient(clientAdapter{client: client}, chunkSize)
	p.closer = client
	return p, nil
}

// NewProviderWithClient creates a provider over an existing client
func NewProviderWithClient(client SynthesisClient, chunkSize int) *Provider {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Provider{client: client, chunkSize: chunkSize}
}

// Name implements speech.Provider
func (p *Provider) Name() string { return "google" }

// Close releases the underlying connection
func (p *Provider) Close() error {
	if p.closer == nil {
		return nil
	}
	return p.closer.Close()
}

// Stream implements speech.Provider. Each text chunk becomes one audio chunk,
// requested when the reader asks for it.
func (p *Provider) Stream(ctx context.Context, req speech.Request) (speech.ChunkReader, error) {
	if p.client == nil {
		return nil, speech.ErrMissingCredentials
	}

	name := req.VoiceID
	if name == "" {
		name = DefaultVoiceName
	}

	return &chunkReader{
		ctx:    ctx,
		client: p.client,
		chunks: splitTextIntoChunks(req.Text, p.chunkSize),
		voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: languageCode(name),
			Name:         name,
		},
	}, nil
}

type chunkReader struct {
	ctx    context.Context
	client SynthesisClient
	chunks []string
	voice  *texttospeechpb.VoiceSelectionParams
	pos    int
}

func (r *chunkReader) Next() ([]byte, error) {
	if r.pos >= len(r.chunks) {
		return nil, io.EOF
	}
	text := r.chunks[r.pos]
	r.pos++

	resp, err := r.client.SynthesizeSpeech(r.ctx, &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: text},
		},
		Voice: r.voice,
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding: texttospeechpb.AudioEncoding_MP3,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("google synthesize chunk %d/%d: %w", r.pos, len(r.chunks), err)
	}
	return resp.AudioContent, nil
}

func (r *chunkReader) Close() error { return nil }

// languageCode derives "en-US" from a voice name like "en-US-Neural2-J"
func languageCode(voiceName string) string {
	parts := strings.SplitN(voiceName, "-", 3)
	if len(parts) < 2 {
		return "en-US"
	}
	return parts[0] + "-" + parts[1]
}

// splitTextIntoChunks packs whole words into chunks of at most maxChunkSize
// bytes. A single word longer than the limit becomes its own chunk.
func splitTextIntoChunks(text string, maxChunkSize int) []string {
	var chunks []string
	var chunk strings.Builder

	for _, word := range strings.Fields(text) {
		if chunk.Len() > 0 && chunk.Len()+len(word)+1 > maxChunkSize {
			chunks = append(chunks, chunk.String())
			chunk.Reset()
		}
		if chunk.Len() > 0 {
			chunk.WriteByte(' ')
		}
		chunk.WriteString(word)
	}
	if chunk.Len() > 0 {
		chunks = append(chunks, chunk.String())
	}

	return chunks
}
