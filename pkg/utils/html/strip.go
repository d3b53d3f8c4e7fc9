// ABOUTME: HTML utilities for stripping tags and normalizing extracted text
// ABOUTME: Provides the markup cleanup shared by every extraction strategy

package html

import (
	stdhtml "html"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

var (
	scriptStyleRe = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script\s*>|<style\b[^>]*>.*?</style\s*>`)
	bodyTagRe     = regexp.MustCompile(`(?i)<body[\s>]`)

	// bluemonday policies are safe for concurrent use once configured
	stripPolicy = func() *bluemonday.Policy {
		p := bluemonday.StrictPolicy()
		p.AddSpaceWhenStrippingTag(true)
		return p
	}()
)

// StripScripts removes <script> and <style> blocks including their content
func StripScripts(markup string) string {
	return scriptStyleRe.ReplaceAllString(markup, "")
}

// StripTags removes every tag, leaving a space where a tag stood, and
// decodes entities
func StripTags(markup string) string {
	return stdhtml.UnescapeString(stripPolicy.Sanitize(markup))
}

// CollapseWhitespace turns every whitespace run into a single space and trims.
// Unicode spaces count too, so a decoded &nbsp; collapses like any other.
func CollapseWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// StripHTML removes scripts, styles and tags and normalizes whitespace
func StripHTML(markup string) string {
	return CollapseWhitespace(StripTags(StripScripts(markup)))
}

// HasBody reports whether markup contains an opening <body> tag
func HasBody(markup string) bool {
	return bodyTagRe.MatchString(markup)
}

// Truncate returns at most max characters of text
func Truncate(text string, max int) string {
	if max <= 0 || utf8.RuneCountInString(text) <= max {
		return text
	}
	runes := []rune(text)
	return string(runes[:max])
}
