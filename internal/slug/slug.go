// Package slug derives unique, URL-safe identifiers from memory titles.
package slug

import (
	"github.com/google/uuid"
	gosimpleslug "github.com/gosimple/slug"
)

// Generate derives a slug from a title deterministically: lowercased, ASCII,
// hyphen-separated, punctuation stripped. A title that yields nothing (all
// punctuation, all emoji) falls back to a random UUID so the result is never
// empty. Uniqueness is enforced by the store, not pre-checked here.
func Generate(title string) string {
	s := gosimpleslug.Make(title)
	if s == "" {
		return uuid.NewString()
	}
	return s
}
