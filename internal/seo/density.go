// Package seo computes keyword density, readability, length, link and
// structure checks over a finished article, and folds them into one score.
package seo

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"
)

// KeywordDensity returns, per keyword, the percentage of words in text taken by
// whole-word, case-insensitive occurrences of that keyword, rounded to 2 decimals.
// An empty text yields 0 for every keyword.
func KeywordDensity(text string, keywords []string) map[string]float64 {
	densities := make(map[string]float64, len(keywords))
	total := len(strings.Fields(text))
	lower := strings.ToLower(text)

	for _, kw := range keywords {
		if total == 0 {
			densities[kw] = 0
			continue
		}
		count := countWholeWord(lower, strings.ToLower(kw))
		densities[kw] = round(100*float64(count)/float64(total), 2)
	}
	return densities
}

// countWholeWord counts non-overlapping occurrences of needle in haystack that
// are not glued to a letter, digit or underscore on either side
func countWholeWord(haystack, needle string) int {
	if strings.TrimSpace(needle) == "" {
		return 0
	}

	count := 0
	for offset := 0; offset <= len(haystack)-len(needle); {
		i := strings.Index(haystack[offset:], needle)
		if i < 0 {
			break
		}
		start := offset + i
		end := start + len(needle)

		if boundaryBefore(haystack, start) && boundaryAfter(haystack, end) {
			count++
			offset = end
			continue
		}
		_, size := utf8.DecodeRuneInString(haystack[start:])
		offset = start + size
	}
	return count
}

func boundaryBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return !isWordRune(r)
}

func boundaryAfter(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return !isWordRune(r)
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
