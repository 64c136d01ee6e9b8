package utils

import (
	"regexp"
	"strings"
)

var (
	slugWhitespace = regexp.MustCompile(`[\s\p{Z}]+`)
	slugInvalid    = regexp.MustCompile(`[^\w-]+`)
	slugHyphens    = regexp.MustCompile(`-+`)
)

// GenerateSlug maps a display name to a URL-safe identifier.
// "Tesla Model S!!" → "tesla-model-s"
func GenerateSlug(input string) string {
	// Step 1: Lowercase
	lower := strings.ToLower(input)

	// Step 2: Whitespace runs become a single hyphen
	hyphenated := slugWhitespace.ReplaceAllString(lower, "-")

	// Step 3: Keep only ASCII word characters and hyphens
	cleaned := slugInvalid.ReplaceAllString(hyphenated, "")

	// Step 4: Collapse consecutive hyphens
	normalized := slugHyphens.ReplaceAllString(cleaned, "-")

	// Step 5: Trim leading/trailing hyphens
	return strings.Trim(normalized, "-")
}
