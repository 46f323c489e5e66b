package core

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

var strictPolicy = bluemonday.StrictPolicy()

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// Normalize trims and upper-cases `s`; names of classes and subjects are compared this way.
func Normalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Truncate cuts `s` down to at most n runes.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// maxStripPasses bounds StripTags on input nesting escaped markup.
const maxStripPasses = 5

// StripTags removes every HTML element from free text such as remarks.
// Entities are unescaped for readability, then the result is sanitized again until it
// stops changing, so escaped markup never comes back as live tags.
func StripTags(s string) string {
	for i := 0; i < maxStripPasses; i++ {
		clean := html.UnescapeString(strictPolicy.Sanitize(s))
		if clean == s {
			return strings.TrimSpace(clean)
		}
		s = clean
	}
	// still unstable: keep the escaped form
	return strings.TrimSpace(strictPolicy.Sanitize(s))
}
