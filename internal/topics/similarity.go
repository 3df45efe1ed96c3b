// Package topics keeps track of already published articles and flags new
// topics that would duplicate one of them.
package topics

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultThreshold is the similarity above which a topic counts as already covered
const DefaultThreshold = 0.35

var stopWords = map[string]struct{}{
	"le": {}, "la": {}, "les": {}, "un": {}, "une": {}, "des": {}, "de": {}, "du": {},
	"et": {}, "ou": {}, "à": {}, "en": {}, "pour": {}, "avec": {}, "sur": {}, "dans": {},
	"par": {}, "comment": {}, "pourquoi": {}, "quand": {}, "que": {}, "qui": {}, "quoi": {},
}

// Match is an existing title close to a candidate topic
type Match struct {
	Title      string  `json:"title"`
	Similarity float64 `json:"similarity"`
}

// significantWords lowercases s and keeps words longer than two characters
// that are not stop words
func significantWords(s string) map[string]struct{} {
	words := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(s)) {
		w = strings.TrimFunc(w, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if utf8.RuneCountInString(w) <= 2 {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		words[w] = struct{}{}
	}
	return words
}

// Similarity is the share of significant words two titles have in common,
// relative to the larger of the two word sets
func Similarity(a, b string) float64 {
	wa, wb := significantWords(a), significantWords(b)
	if len(wa) == 0 || len(wb) == 0 {
		return 0
	}
	overlap := 0
	for w := range wa {
		if _, ok := wb[w]; ok {
			overlap++
		}
	}
	return float64(overlap) / float64(max(len(wa), len(wb)))
}

// CheckExists returns the titles whose similarity to topic exceeds threshold,
// most similar first. A non-positive threshold uses DefaultThreshold.
func CheckExists(topic string, titles []string, threshold float64) []Match {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	var matches []Match
	for _, title := range titles {
		if sim := Similarity(topic, title); sim > threshold {
			matches = append(matches, Match{Title: title, Similarity: sim})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})
	return matches
}
