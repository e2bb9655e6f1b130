// Package htmlsanitize strips markup from free-text fields before they are
// stored. Names, notes and descriptions are plain text; any HTML in them is
// removed rather than escaped.
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// Text removes all tags (and the bodies of script/style elements) and
// returns the trimmed plain text.
func Text(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}
