// Package seo computes keyword density, readability, length, link and
// structure checks over a finished article, and folds them into one score.
package seo

import (
	"regexp"
	"strings"
)

// Readability levels, from easiest to hardest
const (
	LevelVeryEasy        = "very easy"
	LevelEasy            = "easy"
	LevelFairlyEasy      = "fairly easy"
	LevelStandard        = "standard"
	LevelFairlyDifficult = "fairly difficult"
	LevelDifficult       = "difficult"
	LevelVeryDifficult   = "very difficult"
	LevelNotComputable   = "not computable"
)

var (
	sentenceSplitPattern = regexp.MustCompile(`[.!?]+\s+`)
	wordPattern          = regexp.MustCompile(`\p{L}+`)
)

const vowels = "aeiouyàâäéèêëïîôùûüÿ"

// ReadabilityReport is a Flesch reading-ease estimate adapted to French text
type ReadabilityReport struct {
	Score               float64 `json:"score"`
	Level               string  `json:"level"`
	Sentences           int     `json:"sentences"`
	Words               int     `json:"words"`
	Syllables           int     `json:"syllables"`
	AvgSentenceLength   float64 `json:"avg_sentence_length"`
	AvgSyllablesPerWord float64 `json:"avg_syllables_per_word"`
}

// Readability scores text with 206.835 - 1.015*ASL - 84.6*ASW clamped to [0,100].
// Text without sentences or words is "not computable" with a score of 0.
func Readability(text string) ReadabilityReport {
	sentences := 0
	for _, s := range sentenceSplitPattern.Split(text, -1) {
		if strings.TrimSpace(s) != "" {
			sentences++
		}
	}
	words := wordPattern.FindAllString(strings.ToLower(text), -1)

	if sentences == 0 || len(words) == 0 {
		return ReadabilityReport{Level: LevelNotComputable}
	}

	syllables := 0
	for _, w := range words {
		syllables += countSyllables(w)
	}

	asl := float64(len(words)) / float64(sentences)
	asw := float64(syllables) / float64(len(words))
	score := 206.835 - 1.015*asl - 84.6*asw
	score = min(max(score, 0), 100)

	return ReadabilityReport{
		Score:               round(score, 1),
		Level:               readabilityLevel(score),
		Sentences:           sentences,
		Words:               len(words),
		Syllables:           syllables,
		AvgSentenceLength:   round(asl, 1),
		AvgSyllablesPerWord: round(asw, 2),
	}
}

// countSyllables counts vowel groups, with a floor of one per word
func countSyllables(word string) int {
	count := 0
	prevVowel := false
	for _, r := range word {
		isVowel := strings.ContainsRune(vowels, r)
		if isVowel && !prevVowel {
			count++
		}
		prevVowel = isVowel
	}
	return max(count, 1)
}

func readabilityLevel(score float64) string {
	switch {
	case score >= 90:
		return LevelVeryEasy
	case score >= 80:
		return LevelEasy
	case score >= 70:
		return LevelFairlyEasy
	case score >= 60:
		return LevelStandard
	case score >= 50:
		return LevelFairlyDifficult
	case score >= 30:
		return LevelDifficult
	default:
		return LevelVeryDifficult
	}
}
