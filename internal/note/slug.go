package note

import (
	"regexp"
	"strings"
)

var (
	// Matches runs of non-alphanumeric characters (for replacement with hyphens).
	nonAlphanumericRe = regexp.MustCompile(`[^a-z0-9]+`)
	// Matches multiple consecutive hyphens.
	multipleHyphenRe = regexp.MustCompile(`-+`)
)

// Slugify converts a note title to its URL-safe share identifier.
//
// Rules:
//  1. Trim whitespace and lowercase
//  2. Collapse runs of non-alphanumeric characters to single hyphens
//  3. Trim leading/trailing hyphens
//
// Examples:
//
//	"Trip plan"       → "trip-plan"
//	"Hello, World!"   → "hello-world"
//	"  spaced   out " → "spaced-out"
//	"--edges--"       → "edges"
func Slugify(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = nonAlphanumericRe.ReplaceAllString(s, "-")
	s = multipleHyphenRe.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
