// Package slug derives URL-safe identifiers from display names.
package slug

import (
	"regexp"
	"strings"
)

var nonAlnumRE = regexp.MustCompile(`[^a-z0-9]+`)

// Make converts a name into a slug: lowercase, runs of non-alphanumeric
// characters collapsed to a single hyphen, leading and trailing hyphens
// stripped. The function is pure and idempotent.
//
//	Make("Acme & Sons, Inc.") == "acme-sons-inc"
func Make(name string) string {
	s := strings.ToLower(name)
	s = nonAlnumRE.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
