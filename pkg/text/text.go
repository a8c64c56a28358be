// Package text handles user-authored strings: sanitizing and @mentions.
package text

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

var (
	mentionPattern = regexp.MustCompile(`@(\w+)`)
	strictPolicy   = bluemonday.StrictPolicy()
)

// Sanitize strips every HTML element from s and trims surrounding space.
// Entities produced by the policy are decoded again, so the result is plain
// text rather than escaped HTML.
func Sanitize(s string) string {
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(s)))
}

// Mentions returns the distinct usernames mentioned as @name, in order of
// first appearance, lowercased.
func Mentions(s string) []string {
	matches := mentionPattern.FindAllStringSubmatch(s, -1)
	seen := make(map[string]struct{}, len(matches))
	var out []string
	for _, m := range matches {
		name := strings.ToLower(m[1])
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

func Length(s string) int {
	return utf8.RuneCountInString(s)
}
