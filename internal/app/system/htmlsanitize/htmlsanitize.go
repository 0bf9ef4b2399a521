// Package htmlsanitize strips markup from text that did not come from us:
// form fields and messages relayed from the upstream API.
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// strict removes every element. Script and style bodies are dropped too.
var strict = bluemonday.StrictPolicy()

// StripTags returns s as plain text with all markup removed and entities
// decoded, so templates can escape it once on output.
func StripTags(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

// IsPlainText reports whether s looks free of tags.
func IsPlainText(s string) bool {
	return !(strings.Contains(s, "<") && strings.Contains(s, ">"))
}
