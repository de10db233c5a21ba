// Package format turns raw chat text into display-ready markup.
package format

import (
	"html"
	"regexp"
	"strings"
)

var (
	strongRe = regexp.MustCompile(`\*\*(.*?)\*\*`)
	emRe     = regexp.MustCompile(`\*(.*?)\*`)
)

var newlines = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// Escape returns s with HTML special characters escaped.
func Escape(s string) string {
	return html.EscapeString(s)
}

// Content escapes raw message text, renders **strong** and *em* markers,
// and converts line breaks to <br>.
func Content(raw string) string {
	out := Escape(newlines.Replace(raw))
	out = strongRe.ReplaceAllString(out, "<strong>$1</strong>")
	out = emRe.ReplaceAllString(out, "<em>$1</em>")
	return strings.ReplaceAll(out, "\n", "<br>")
}

// Plain drops emphasis markers and normalises line breaks, for terminals.
func Plain(raw string) string {
	out := newlines.Replace(raw)
	out = strongRe.ReplaceAllString(out, "$1")
	return emRe.ReplaceAllString(out, "$1")
}
