package tmdb

import (
	"html"
	"regexp"
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/microcosm-cc/bluemonday"
)

var (
	strictPolicy = bluemonday.StrictPolicy()
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// cleanText makes remote text safe to print in a terminal: escape sequences
// and HTML markup are removed, entities decoded, whitespace collapsed.
func cleanText(s string) string {
	s = ansi.Strip(s)
	s = strictPolicy.Sanitize(s)
	s = html.UnescapeString(s)
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}
