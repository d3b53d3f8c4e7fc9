// ABOUTME: Article handler for the Huma API
// ABOUTME: Provides submit, retry, list and get endpoints over the article service

package handlers

import (
	"context"
	"net/http"

	"readaloud-api/api/dto/mappers"
	"readaloud-api/api/dto/requests"
	"readaloud-api/api/dto/responses"
	"readaloud-api/core/interfaces"

	"github.com/danielgtaylor/huma/v2"
)

// ArticleHandler handles article requests
type ArticleHandler struct {
	service interfaces.ArticleService
}

// NewArticleHandler creates a new article handler
func NewArticleHandler(service interfaces.ArticleService) *ArticleHandler {
	return &ArticleHandler{service: service}
}

// RegisterRoutes registers all article routes
func (h *ArticleHandler) RegisterRoutes(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID:   "submitArticle",
		Method:        http.MethodPost,
		Path:          "/articles",
		Summary:       "Submit an article",
		Description:   "Creates an article for the URL and starts processing it in the background",
		Tags:          []string{"Articles"},
		DefaultStatus: http.StatusAccepted,
	}, h.Submit)

	huma.Register(api, huma.Operation{
		OperationID:   "retryArticle",
		Method:        http.MethodPost,
		Path:          "/articles/{id}/retry",
		Summary:       "Retry an article",
		Description:   "Clears the article's results and processes it again",
		Tags:          []string{"Articles"},
		DefaultStatus: http.StatusAccepted,
	}, h.Retry)

	huma.Register(api, huma.Operation{
		OperationID: "listArticles",
		Method:      http.MethodGet,
		Path:        "/articles",
		Summary:     "List articles",
		Description: "Returns every article, newest first",
		Tags:        []string{"Articles"},
	}, h.List)

	huma.Register(api, huma.Operation{
		OperationID: "getArticle",
		Method:      http.MethodGet,
		Path:        "/articles/{id}",
		Summary:     "Get an article",
		Tags:        []string{"Articles"},
	}, h.Get)
}

// SubmitInput defines the input for the Submit operation
type SubmitInput struct {
	Body requests.SubmitArticleRequest
}

// AcceptedOutput acknowledges a scheduled run
type AcceptedOutput struct {
	Body responses.AcceptedResponse
}

// ArticleIDInput identifies an article by path
type ArticleIDInput struct {
	ID string `path:"id" doc:"Article identifier"`
}

// ListOutput defines the output for the List operation
type ListOutput struct {
	Body []responses.ArticleResponse
}

// ArticleOutput defines the output for the Get operation
type ArticleOutput struct {
	Body responses.ArticleResponse
}

// Submit creates an article and schedules its first run
func (h *ArticleHandler) Submit(ctx context.Context, input *SubmitInput) (*AcceptedOutput, error) {
	id, err := h.service.Submit(ctx, input.Body.URL)
	if err != nil {
		return nil, toHumaError(err)
	}
	return &AcceptedOutput{Body: responses.AcceptedResponse{ID: id}}, nil
}

// Retry resets an article and schedules a new run
func (h *ArticleHandler) Retry(ctx context.Context, input *ArticleIDInput) (*AcceptedOutput, error) {
	id, err := h.service.Retry(ctx, input.ID)
	if err != nil {
		return nil, toHumaError(err)
	}
	return &AcceptedOutput{Body: responses.AcceptedResponse{ID: id}}, nil
}

// List returns all articles
func (h *ArticleHandler) List(ctx context.Context, _ *struct{}) (*ListOutput, error) {
	views, err := h.service.List(ctx)
	if err != nil {
		return nil, toHumaError(err)
	}
	return &ListOutput{Body: mappers.ToArticleResponses(views)}, nil
}

// Get returns one article
func (h *ArticleHandler) Get(ctx context.Context, input *ArticleIDInput) (*ArticleOutput, error) {
	view, err := h.service.Get(ctx, input.ID)
	if err != nil {
		return nil, toHumaError(err)
	}
	return &ArticleOutput{Body: mappers.ToArticleResponse(view)}, nil
}
