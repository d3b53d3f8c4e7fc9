// ABOUTME: Request DTOs for article API endpoints
// ABOUTME: Defines the body of an article submission

package requests

// SubmitArticleRequest submits a page to be read aloud
type SubmitArticleRequest struct {
	URL string `json:"url" required:"true" minLength:"1" maxLength:"2048" example:"https://example.com/article" doc:"Absolute http or https URL of the article"`
}
