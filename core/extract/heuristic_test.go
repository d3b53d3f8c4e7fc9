package extract

import (
	"context"
	"strings"
	"testing"

	"readaloud-api/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var longParagraph = strings.Repeat("The quick brown fox jumps over the lazy dog. ", 10)

func TestFromMarkup_ArticleAndTitle(t *testing.T) {
	markup := `<!doctype html>
	<html>
	  <head><title>Foo</title></head>
	  <body>
	    <nav>Home | About</nav>
	    <article><p>` + longParagraph + `</p></article>
	    <footer>Copyright</footer>
	  </body>
	</html>`

	got := FromMarkup(markup)

	assert.Equal(t, "Foo", got.Title)
	assert.Equal(t, strings.TrimSpace(longParagraph), got.Content)
	assert.True(t, Sufficient(got))
	assert.Equal(t, TierHeuristic, got.Tier)
}

func TestFromMarkup_StripsScriptsAndStyles(t *testing.T) {
	markup := `<html><head><title>T</title><style>.a{}</style></head>
	<body><article>Visible <script>document.write("hidden")</script>text</article></body></html>`

	got := FromMarkup(markup)

	assert.Equal(t, "Visible text", got.Content)
}

func TestFromMarkup_OpenGraphTitleFallback(t *testing.T) {
	markup := `<html><head><meta property="og:title" content="From OG"></head><body><p>x</p></body></html>`

	got := FromMarkup(markup)

	assert.Equal(t, "From OG", got.Title)
}

func TestFromMarkup_EmptyTitleFallsBackToDefault(t *testing.T) {
	markup := `<html><head><title></title></head><body>` + strings.Repeat("a", 50) + `</body></html>`

	got := FromMarkup(markup)

	assert.Equal(t, UntitledArticle, got.Title)
	assert.Equal(t, strings.Repeat("a", 50), got.Content)
	assert.False(t, Sufficient(got))
}

func TestFromMarkup_SelectorOrder(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		expect string
	}{
		{
			name:   "article wins over main",
			body:   `<main>main text</main><article>article text</article>`,
			expect: "article text",
		},
		{
			name:   "role main",
			body:   `<div role="main">role text</div><main>main text</main>`,
			expect: "role text",
		},
		{
			name:   "post-content class",
			body:   `<div class="wrapper post-content">post text</div><div class="content">generic</div>`,
			expect: "post text",
		},
		{
			name:   "entry-content class",
			body:   `<div class="entry-content">entry text</div>`,
			expect: "entry text",
		},
		{
			name:   "article-content class",
			body:   `<section class="article-content">section text</section><main>m</main>`,
			expect: "section text",
		},
		{
			name:   "generic content class before main",
			body:   `<div class="content">generic text</div><main>main text</main>`,
			expect: "generic text",
		},
		{
			name:   "class containing content",
			body:   `<nav>nav</nav><div class="main-content">real body</div><footer>f</footer>`,
			expect: "real body",
		},
		{
			name:   "exact content class before partial match",
			body:   `<div class="sidebar-content">aside</div><div class="content">generic text</div>`,
			expect: "generic text",
		},
		{
			name:   "main container",
			body:   `<div>chrome</div><main>main text</main>`,
			expect: "main text",
		},
		{
			name:   "first match only",
			body:   `<article>first</article><article>second</article>`,
			expect: "first",
		},
		{
			name:   "body fallback",
			body:   `<div>just</div><p>body text</p>`,
			expect: "just body text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromMarkup(`<html><head><title>T</title></head><body>` + tt.body + `</body></html>`)
			assert.Equal(t, tt.expect, got.Content)
		})
	}
}

func TestFromMarkup_CollapsesNonBreakingSpaces(t *testing.T) {
	got := FromMarkup(`<html><body><article>a&nbsp; &nbsp;b</article></body></html>`)

	assert.Equal(t, "a b", got.Content)
}

func TestFromMarkup_NoBodyUsesWholeMarkup(t *testing.T) {
	got := FromMarkup(`<title>Lonely</title><div>fragment</div>`)

	assert.Equal(t, "Lonely", got.Title)
	// title text is never part of the body
	assert.Equal(t, "fragment", got.Content)
}

func TestFromMarkup_CollapsesWhitespace(t *testing.T) {
	got := FromMarkup("<article>\n\n  line one \n\t line   two  </article>")

	assert.Equal(t, "line one line two", got.Content)
}

func TestHeuristicExtractor_NeverFails(t *testing.T) {
	for _, markup := range []string{"", "<<<>>>", "plain text"} {
		got, err := HeuristicExtractor{}.Extract(context.Background(), markup, "https://example.com")
		require.NoError(t, err)
		assert.Equal(t, UntitledArticle, got.Title)
	}
}

func TestSufficient(t *testing.T) {
	assert.True(t, Sufficient(domainExtraction("T", strings.Repeat("x", MinContentLength))))
	assert.False(t, Sufficient(domainExtraction("T", strings.Repeat("x", MinContentLength-1))))
	assert.False(t, Sufficient(domainExtraction("", strings.Repeat("x", 500))))
	assert.False(t, Sufficient(domainExtraction("   ", strings.Repeat("x", 500))))
}

func domainExtraction(title, content string) domain.Extraction {
	return domain.Extraction{Title: title, Content: content}
}
