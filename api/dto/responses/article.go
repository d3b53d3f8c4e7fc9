// ABOUTME: Response DTOs for article API endpoints
// ABOUTME: Defines the article resource and the accepted-run acknowledgement

package responses

import "time"

// ArticleResponse is an article as seen by clients
type ArticleResponse struct {
	ID           string    `json:"id" doc:"Article identifier"`
	URL          string    `json:"url" doc:"Source page"`
	Title        *string   `json:"title" doc:"Extracted title, once available"`
	Content      *string   `json:"content" doc:"Extracted plain text, once available"`
	Status       string    `json:"status" enum:"processing,completed,error" doc:"Processing state"`
	ErrorMessage *string   `json:"errorMessage" doc:"Why the last run failed; only set in the error state"`
	AudioURL     *string   `json:"audioUrl" doc:"Playable audio URL; only set once completed"`
	Attempt      int       `json:"attempt" doc:"Processing attempt, starting at 1"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// AcceptedResponse acknowledges that a run was scheduled
type AcceptedResponse struct {
	ID string `json:"id" doc:"Article identifier to poll"`
}
