// Package tokenizer turns field values and free-text queries into the
// lowercase tokens the field index stores. Both sides of a match must run
// through the same tokenizer or lookups would miss.
package tokenizer

import (
	"regexp"
	"strings"
)

var (
	// "HTTPRequest" -> "HTTP Request"
	acronymBoundary = regexp.MustCompile(`([A-Z]+)([A-Z][a-z])`)
	// "theOffice" -> "the Office", "v1Beta" -> "v1 Beta"
	caseBoundary = regexp.MustCompile(`([a-z0-9])([A-Z])`)
	separators   = regexp.MustCompile(`[^a-zA-Z0-9]+`)
)

// Tokenize splits text into lowercase alphanumeric tokens. Case boundaries
// inside camelCase and PascalCase words split first, so "performHTTPRequest"
// yields "perform", "http", "request". Always returns a non-nil slice.
func Tokenize(text string) []string {
	text = acronymBoundary.ReplaceAllString(text, "$1 $2")
	text = caseBoundary.ReplaceAllString(text, "$1 $2")

	tokens := make([]string, 0)
	for _, part := range separators.Split(strings.ToLower(text), -1) {
		if part != "" {
			tokens = append(tokens, part)
		}
	}
	return tokens
}

// TokenFrequencies tokenizes the text and counts how often each token
// occurs. The indexing service stores these counts as term frequencies.
func TokenFrequencies(text string) map[string]int {
	frequencies := make(map[string]int)
	for _, token := range Tokenize(text) {
		frequencies[token]++
	}
	return frequencies
}
