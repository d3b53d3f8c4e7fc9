// ABOUTME: Audio handler serves synthesized speech from the blob store
// ABOUTME: Audio references are immutable so responses are cacheable

package handlers

import (
	"context"
	"net/http"
	"strconv"

	"readaloud-api/core/interfaces"

	"github.com/danielgtaylor/huma/v2"
)

// AudioContentType is the media type of synthesized audio
const AudioContentType = "audio/mpeg"

// AudioHandler serves stored audio
type AudioHandler struct {
	service interfaces.ArticleService
}

// NewAudioHandler creates a new audio handler
func NewAudioHandler(service interfaces.ArticleService) *AudioHandler {
	return &AudioHandler{service: service}
}

// RegisterRoutes registers the audio route
func (h *AudioHandler) RegisterRoutes(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "getAudio",
		Method:      http.MethodGet,
		Path:        "/audio/{ref}",
		Summary:     "Download article audio",
		Tags:        []string{"Audio"},
	}, h.GetAudio)
}

// AudioInput identifies stored audio
type AudioInput struct {
	Ref string `path:"ref" doc:"Audio reference from the article's audio URL"`
}

// AudioOutput is the raw audio body
type AudioOutput struct {
	ContentType   string `header:"Content-Type"`
	ContentLength string `header:"Content-Length"`
	CacheControl  string `header:"Cache-Control"`
	Body          []byte
}

// GetAudio returns the audio bytes for a reference
func (h *AudioHandler) GetAudio(ctx context.Context, input *AudioInput) (*AudioOutput, error) {
	data, err := h.service.Audio(ctx, input.Ref)
	if err != nil {
		return nil, toHumaError(err)
	}
	return &AudioOutput{
		ContentType:   AudioContentType,
		ContentLength: strconv.Itoa(len(data)),
		CacheControl:  "public, max-age=31536000, immutable",
		Body:          data,
	}, nil
}
