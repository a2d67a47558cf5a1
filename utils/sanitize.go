package utils

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var textPolicy = bluemonday.StrictPolicy()

// SanitizeText strips all markup from free text and collapses whitespace.
func SanitizeText(input string) string {
	// StrictPolicy escapes entities; names are rendered through html/template which escapes again
	cleaned := html.UnescapeString(textPolicy.Sanitize(input))
	return strings.Join(strings.Fields(cleaned), " ")
}
