// Package seo computes keyword density, readability, length, link and
// structure checks over a finished article, and folds them into one score.
package seo

import (
	"regexp"
	"sort"
	"strings"
)

// DefaultLSISuggestions caps LSISuggestions when max is unset
const DefaultLSISuggestions = 5

var lsiWordPattern = regexp.MustCompile(`\p{L}{4,}`)

var lsiStopWords = map[string]struct{}{
	"pour": {}, "avec": {}, "dans": {}, "sont": {}, "cette": {}, "leur": {},
	"leurs": {}, "plus": {}, "tout": {}, "tous": {}, "toutes": {}, "être": {},
	"avoir": {}, "faire": {}, "peut": {}, "peuvent": {}, "doit": {}, "doivent": {},
	"comme": {}, "quand": {},
}

// LSISuggestions proposes related terms from the words that most often share a
// sentence with mainKeyword. Each frequent word yields "<mainKeyword> <word>"
// and the word itself.
func LSISuggestions(text, mainKeyword string, maxSuggestions int) []string {
	if maxSuggestions <= 0 {
		maxSuggestions = DefaultLSISuggestions
	}
	main := strings.ToLower(strings.TrimSpace(mainKeyword))
	if main == "" {
		return nil
	}

	mainTokens := make(map[string]struct{})
	for _, tok := range lsiWordPattern.FindAllString(main, -1) {
		mainTokens[tok] = struct{}{}
	}

	counts := make(map[string]int)
	var order []string
	for _, sentence := range sentenceSplitPattern.Split(text, -1) {
		lower := strings.ToLower(sentence)
		if !strings.Contains(lower, main) {
			continue
		}
		for _, w := range lsiWordPattern.FindAllString(lower, -1) {
			if _, stop := lsiStopWords[w]; stop || w == main {
				continue
			}
			if _, own := mainTokens[w]; own {
				continue
			}
			if counts[w] == 0 {
				order = append(order, w)
			}
			counts[w]++
		}
	}

	// most frequent first, first appearance breaks ties
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	var suggestions []string
	seen := make(map[string]struct{})
	add := func(s string) {
		if _, ok := seen[s]; ok || len(suggestions) >= maxSuggestions {
			return
		}
		seen[s] = struct{}{}
		suggestions = append(suggestions, s)
	}
	for i, w := range order {
		if i >= maxSuggestions {
			break
		}
		if len([]rune(w)) <= 4 {
			continue
		}
		add(mainKeyword + " " + w)
		add(w)
	}
	return suggestions
}
