// ABOUTME: Mappers for converting article views to API DTOs
// ABOUTME: Hides fields that are not meaningful in the article's current status

package mappers

import (
	"readaloud-api/api/dto/responses"
	"readaloud-api/core/domain"
)

// ToArticleResponse converts a domain ArticleView to an ArticleResponse.
// The error message is only exposed in the error state and the audio URL
// only once completed.
func ToArticleResponse(view domain.ArticleView) responses.ArticleResponse {
	response := responses.ArticleResponse{
		ID:        view.ID,
		URL:       view.URL,
		Title:     view.Title,
		Content:   view.Content,
		Status:    string(view.Status),
		Attempt:   view.Attempt,
		CreatedAt: view.CreatedAt,
		UpdatedAt: view.UpdatedAt,
	}

	switch view.Status {
	case domain.StatusError:
		response.ErrorMessage = view.ErrorMessage
	case domain.StatusCompleted:
		response.AudioURL = view.AudioURL
	}

	return response
}

// ToArticleResponses converts views in order
func ToArticleResponses(views []domain.ArticleView) []responses.ArticleResponse {
	out := make([]responses.ArticleResponse, 0, len(views))
	for _, v := range views {
		out = append(out, ToArticleResponse(v))
	}
	return out
}
