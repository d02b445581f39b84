package library

import "strings"

var slugReplacer = strings.NewReplacer(" ", "-", "/", "-")

// Slug derives the catalog identifier for a directory name: lowercase,
// with spaces and slashes turned into hyphens. Slug(Slug(s)) == Slug(s).
// Distinct names may collide; the reconciler keeps the last one.
func Slug(name string) string {
	return slugReplacer.Replace(strings.ToLower(name))
}
