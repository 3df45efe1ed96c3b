// Package generation writes, rewrites, SEO-packages and translates articles with an LLM.
package generation

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const maxSlugLen = 80

// Slugify lowercases s, folds accents, and joins alphanumeric runs with hyphens
func Slugify(s string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(folded)

	var sb strings.Builder
	pendingDash := false
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingDash && sb.Len() > 0 {
				sb.WriteByte('-')
			}
			pendingDash = false
			sb.WriteRune(r)
		case r == '\'' || r == '’':
			// elisions join: "l'agent" -> "lagent"
		default:
			pendingDash = true
		}
	}

	slug := sb.String()
	if len(slug) > maxSlugLen {
		slug = strings.TrimRight(slug[:maxSlugLen], "-")
	}
	return slug
}

// EnglishSlug derives the slug of a translation: the English slug when usable,
// else the French one, always ending in "-en"
func EnglishSlug(english, french string) string {
	slug := Slugify(english)
	if slug == "" {
		slug = Slugify(french)
	}
	if slug == "" {
		slug = "article"
	}
	if !strings.HasSuffix(slug, "-en") {
		slug += "-en"
	}
	return slug
}
