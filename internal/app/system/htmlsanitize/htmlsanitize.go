// Package htmlsanitize scrubs free text typed by users before it is sent to
// the backend or shown back to other users.
package htmlsanitize

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html/atom"
)

var strict = bluemonday.StrictPolicy()

// maxPasses bounds how many layers of entity encoding are peeled.
const maxPasses = 4

// bareTag matches an attribute-free opening tag such as <B2>.
var bareTag = regexp.MustCompile(`<([A-Za-z][A-Za-z0-9]*)>`)

// PlainText strips every HTML element (and the contents of script/style
// elements) and returns the remaining text unescaped and trimmed.
//
// Entities are decoded before sanitizing and the pass repeats until the
// text stops changing, so encoded markup cannot come back out as live
// markup. Input still changing after maxPasses yields "". Bracketed words
// that name no HTML element and carry no attributes ("bin <B2>") are kept
// as text.
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	clean := s
	for pass := 0; ; pass++ {
		next := strict.Sanitize(protectBareWords(html.UnescapeString(clean)))
		if next == clean {
			break
		}
		if pass == maxPasses {
			return ""
		}
		clean = next
	}
	return strings.TrimSpace(html.UnescapeString(clean))
}

// protectBareWords escapes bracketed words that are not HTML elements so
// the sanitizer treats them as text.
func protectBareWords(s string) string {
	return bareTag.ReplaceAllStringFunc(s, func(m string) string {
		name := m[1 : len(m)-1]
		if atom.Lookup([]byte(strings.ToLower(name))) != 0 {
			return m
		}
		return "&lt;" + name + "&gt;"
	})
}

// OptionalPlainText is PlainText for optional fields: blank input yields nil.
func OptionalPlainText(s string) *string {
	clean := PlainText(s)
	if clean == "" {
		return nil
	}
	return &clean
}
