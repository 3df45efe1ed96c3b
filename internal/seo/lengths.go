// Package seo computes keyword density, readability, length, link and
// structure checks over a finished article, and folds them into one score.
package seo

import (
	"fmt"
	"unicode/utf8"
)

// Limits is an inclusive character range
type Limits struct {
	Min int
	Max int
}

// Optimal ranges for search-result display
var (
	TitleLimits           = Limits{Min: 30, Max: 65}
	MetaTitleLimits       = Limits{Min: 50, Max: 60}
	MetaDescriptionLimits = Limits{Min: 155, Max: 160}
)

// LengthCheck reports how a field's length compares to its optimal range
type LengthCheck struct {
	Length         int    `json:"length"`
	Optimal        bool   `json:"optimal"`
	Recommendation string `json:"recommendation"`
	Min            int    `json:"min"`
	Max            int    `json:"max"`
}

// Lengths groups the three checked fields
type Lengths struct {
	Title           LengthCheck `json:"title"`
	MetaTitle       LengthCheck `json:"meta_title"`
	MetaDescription LengthCheck `json:"meta_description"`
}

// CheckLength measures text in characters against limits
func CheckLength(text string, limits Limits) LengthCheck {
	n := utf8.RuneCountInString(text)
	check := LengthCheck{
		Length:  n,
		Optimal: n >= limits.Min && n <= limits.Max,
		Min:     limits.Min,
		Max:     limits.Max,
	}

	switch {
	case n < limits.Min:
		check.Recommendation = fmt.Sprintf("too short (%d chars): add at least %s", n, characters(limits.Min-n))
	case n > limits.Max:
		check.Recommendation = fmt.Sprintf("too long (%d chars): remove %s", n, characters(n-limits.Max))
	default:
		check.Recommendation = fmt.Sprintf("optimal length (%d chars)", n)
	}
	return check
}

// CheckLengths runs CheckLength on the title and meta fields
func CheckLengths(title, metaTitle, metaDescription string) Lengths {
	return Lengths{
		Title:           CheckLength(title, TitleLimits),
		MetaTitle:       CheckLength(metaTitle, MetaTitleLimits),
		MetaDescription: CheckLength(metaDescription, MetaDescriptionLimits),
	}
}

func characters(n int) string {
	if n == 1 {
		return "1 character"
	}
	return fmt.Sprintf("%d characters", n)
}
