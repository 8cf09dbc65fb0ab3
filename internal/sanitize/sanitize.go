package sanitize

import (
	"regexp"
	"strings"
)

var (
	htmlTags    = regexp.MustCompile(`<[^>]+>`)
	markupRunes = regexp.MustCompile("[*_`~>#]")
	listMarkers = regexp.MustCompile(`\b\d+\.\s*`)
	whitespace  = regexp.MustCompile(`\s+`)
)

// Clean strips HTML-like tags, markdown punctuation and numbered list
// markers from a backend answer and collapses whitespace. Raw markup must
// never reach the speech synthesizer, and text replies get the same
// treatment so both modes read identically.
func Clean(text string) string {
	if text == "" {
		return ""
	}

	text = htmlTags.ReplaceAllString(text, " ")
	text = markupRunes.ReplaceAllString(text, " ")
	text = listMarkers.ReplaceAllString(text, "")
	text = whitespace.ReplaceAllString(text, " ")

	return strings.TrimSpace(text)
}
