// Package keywords picks the target keywords of an article from a catalog.
package keywords

import (
	"regexp"
	"sort"
	"strings"
)

// Default selection bounds
const (
	DefaultMin = 2
	DefaultMax = 4
)

// tokenPattern matches word tokens, accented letters and digits included
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}]+`)

// Tokenize returns the lowercase word tokens of s in order
func Tokenize(s string) []string {
	return tokenPattern.FindAllString(strings.ToLower(s), -1)
}

type candidate struct {
	keyword string
	score   int
}

// Select returns between min and max keywords from all, most relevant to topic first.
// Relevance is the number of shared word tokens, plus one when the keyword or any
// of its tokens appears verbatim in the topic. Ties keep catalog order.
// When fewer than min keywords are relevant, the best remaining ones fill the gap.
func Select(topic string, all []string, min, max int) []string {
	if max <= 0 {
		max = DefaultMax
	}
	if min < 0 {
		min = 0
	}
	if min > max {
		min = max
	}

	catalog := dedupe(all)
	if strings.TrimSpace(topic) == "" || len(catalog) == 0 {
		return head(catalog, max)
	}

	topicLower := strings.ToLower(topic)
	topicTokens := make(map[string]struct{})
	for _, tok := range Tokenize(topic) {
		topicTokens[tok] = struct{}{}
	}

	scored := make([]candidate, 0, len(catalog))
	for _, kw := range catalog {
		scored = append(scored, candidate{keyword: kw, score: relevance(kw, topicLower, topicTokens)})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	selected := make([]string, 0, max)
	for _, c := range scored {
		if c.score <= 0 || len(selected) >= max {
			break
		}
		selected = append(selected, c.keyword)
	}

	// scored is sorted, so the backfill only ever adds keywords not taken above
	for i := len(selected); i < len(scored) && len(selected) < min; i++ {
		selected = append(selected, scored[i].keyword)
	}
	return selected
}

func relevance(keyword, topicLower string, topicTokens map[string]struct{}) int {
	kwLower := strings.ToLower(keyword)
	kwTokens := Tokenize(keyword)

	score := 0
	seen := make(map[string]struct{}, len(kwTokens))
	for _, tok := range kwTokens {
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		if _, ok := topicTokens[tok]; ok {
			score++
		}
	}

	if strings.Contains(topicLower, kwLower) {
		return score + 1
	}
	for tok := range seen {
		if strings.Contains(topicLower, tok) {
			return score + 1
		}
	}
	return score
}

// dedupe drops blank and repeated keywords, keeping first occurrences
func dedupe(all []string) []string {
	out := make([]string, 0, len(all))
	seen := make(map[string]struct{}, len(all))
	for _, kw := range all {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		if _, ok := seen[kw]; ok {
			continue
		}
		seen[kw] = struct{}{}
		out = append(out, kw)
	}
	return out
}

func head(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
