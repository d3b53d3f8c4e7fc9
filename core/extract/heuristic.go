// ABOUTME: Heuristic extractor pulls title and body text from markup with CSS selectors
// ABOUTME: Cheap first tier of extraction; never fails and never calls out of process

package extract

import (
	"context"
	"strings"

	"readaloud-api/core/domain"
	htmlutil "readaloud-api/pkg/utils/html"

	"github.com/PuerkitoBio/goquery"
)

// UntitledArticle is the title used when no title can be found
const UntitledArticle = "Untitled Article"

// TierHeuristic names the selector-based extractor
const TierHeuristic = "heuristic"

// contentSelectors are tried in order; the first one present wins
var contentSelectors = []string{
	"article",
	"[role='main']",
	".post-content",
	".entry-content",
	".article-content",
	".content",
	"[class*='content']",
	"main",
}

// HeuristicExtractor implements interfaces.Extractor with structural
// selector matching
type HeuristicExtractor struct{}

// Extract implements interfaces.Extractor. The error is always nil.
func (HeuristicExtractor) Extract(_ context.Context, markup string, _ string) (domain.Extraction, error) {
	return FromMarkup(markup), nil
}

// FromMarkup runs the heuristic extraction over raw markup
func FromMarkup(markup string) domain.Extraction {
	cleaned := htmlutil.StripScripts(markup)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(cleaned))
	if err != nil {
		return domain.Extraction{
			Title:   UntitledArticle,
			Content: htmlutil.CollapseWhitespace(htmlutil.StripTags(cleaned)),
			Tier:    TierHeuristic,
		}
	}

	return domain.Extraction{
		Title:   findTitle(doc),
		Content: htmlutil.CollapseWhitespace(htmlutil.StripTags(findContent(doc, cleaned))),
		Tier:    TierHeuristic,
	}
}

func findTitle(doc *goquery.Document) string {
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return title
	}
	if og, ok := doc.Find("meta[property='og:title']").First().Attr("content"); ok {
		if og = strings.TrimSpace(og); og != "" {
			return og
		}
	}
	return UntitledArticle
}

// findContent returns the inner markup of the best content container
func findContent(doc *goquery.Document, cleaned string) string {
	for _, selector := range contentSelectors {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		if inner, err := sel.Html(); err == nil {
			return inner
		}
	}

	// the parser synthesizes <body> for fragments, so only trust it when the
	// source really had one
	if htmlutil.HasBody(cleaned) {
		if inner, err := doc.Find("body").First().Html(); err == nil {
			return inner
		}
	}
	return cleaned
}
