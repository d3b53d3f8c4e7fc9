// ABOUTME: Extraction result model shared by every extraction strategy
// ABOUTME: Holds the cleaned title and plain-text body of an article

package domain

// Extraction is the normalized output of an extractor
type Extraction struct {
	Title   string `json:"title"`
	Content string `json:"content"`

	// Tier names the extractor that produced the result (heuristic, readability, model)
	Tier string `json:"-"`
}
