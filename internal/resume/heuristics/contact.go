package heuristics

import (
	"regexp"
	"strings"
)

var (
	emailRe = regexp.MustCompile(`[\w.-]+@[\w.-]+\.\w+`)
	phoneRe = regexp.MustCompile(`\b(?:\+?91)?\s*\d{10}\b`)
)

// Email returns the first address-shaped token
func Email(text string) string {
	return orSentinel(emailRe.FindString(text))
}

// Phone returns the first ten digit number, with an optional +91 prefix
func Phone(text string) string {
	return orSentinel(strings.TrimSpace(phoneRe.FindString(text)))
}
