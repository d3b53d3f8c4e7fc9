package extract

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"readaloud-api/core/domain"
	htmlutil "readaloud-api/pkg/utils/html"

	readability "github.com/go-shiori/go-readability"
)

// TierReadability names the go-readability extractor
const TierReadability = "readability"

// ReadabilityExtractor implements interfaces.Extractor with Mozilla's
// readability algorithm
type ReadabilityExtractor struct{}

// Extract implements interfaces.Extractor
func (ReadabilityExtractor) Extract(_ context.Context, markup string, sourceURL string) (domain.Extraction, error) {
	pageURL, err := url.Parse(sourceURL)
	if err != nil {
		return domain.Extraction{}, fmt.Errorf("parse source url: %w", err)
	}

	article, err := readability.FromReader(strings.NewReader(markup), pageURL)
	if err != nil {
		return domain.Extraction{}, fmt.Errorf("readability: %w", err)
	}

	title := strings.TrimSpace(article.Title)
	if title == "" {
		title = UntitledArticle
	}
	return domain.Extraction{
		Title:   title,
		Content: htmlutil.CollapseWhitespace(article.TextContent),
		Tier:    TierReadability,
	}, nil
}
