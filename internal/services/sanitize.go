package services

import (
	"regexp"
	"strings"
)

// disallowed matches everything outside letters, word characters, space, hyphen and apostrophe
var disallowed = regexp.MustCompile(`[^\p{L}\w '-]`)

// Sanitize replaces disallowed characters with spaces and trims the result
func Sanitize(text string) string {
	return strings.TrimSpace(disallowed.ReplaceAllString(text, " "))
}
