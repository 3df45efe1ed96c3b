// Package seo computes keyword density, readability, length, link and
// structure checks over a finished article, and folds them into one score.
package seo

import (
	"fmt"
	"strconv"
)

// Input is the finished article to analyze. Text is markdown.
type Input struct {
	Text            string   `json:"text"`
	Title           string   `json:"title"`
	MetaTitle       string   `json:"meta_title"`
	MetaDescription string   `json:"meta_description"`
	Keywords        []string `json:"keywords"`
	// MainKeyword defaults to the first keyword
	MainKeyword string `json:"main_keyword,omitempty"`
}

// Options tunes the analysis
type Options struct {
	BaseDomain     string
	LSISuggestions int
}

// Report is the full analysis of one article
type Report struct {
	MainKeyword     string             `json:"main_keyword"`
	KeywordDensity  map[string]float64 `json:"keyword_density"`
	LSISuggestions  []string           `json:"lsi_suggestions"`
	Readability     ReadabilityReport  `json:"readability"`
	Lengths         Lengths            `json:"lengths"`
	Links           LinkReport         `json:"links"`
	Structure       Structure          `json:"structure"`
	OverallScore    int                `json:"overall_score"`
	Recommendations []string           `json:"recommendations"`
}

// Analyze runs every check on in and scores the result out of 100:
// density 30, readability 20, lengths 20, internal links 15, structure 15.
func Analyze(in Input, opts Options) *Report {
	main := in.MainKeyword
	if main == "" && len(in.Keywords) > 0 {
		main = in.Keywords[0]
	}

	keywords := in.Keywords
	if main != "" && !contains(keywords, main) {
		keywords = append(append([]string{}, keywords...), main)
	}

	report := &Report{
		MainKeyword:    main,
		KeywordDensity: KeywordDensity(in.Text, keywords),
		LSISuggestions: LSISuggestions(in.Text, main, opts.LSISuggestions),
		Readability:    Readability(in.Text),
		Lengths:        CheckLengths(in.Title, in.MetaTitle, in.MetaDescription),
		Links:          DetectLinks(in.Text, opts.BaseDomain),
		Structure:      CountStructure(in.Text),
	}

	report.OverallScore = densityPoints(report) +
		readabilityPoints(report.Readability.Score) +
		lengthPoints(report.Lengths) +
		linkPoints(report.Links.InternalCount) +
		structurePoints(report.Structure)
	report.Recommendations = recommendations(report)
	return report
}

func densityPoints(r *Report) int {
	if len(r.KeywordDensity) == 0 {
		return 0
	}
	d := r.KeywordDensity[r.MainKeyword]
	switch {
	case d >= 1 && d <= 2:
		return 30
	case (d >= 0.5 && d < 1) || (d > 2 && d <= 3):
		return 20
	default:
		return 10
	}
}

func readabilityPoints(score float64) int {
	switch {
	case score >= 60:
		return 20
	case score >= 50:
		return 15
	case score >= 40:
		return 10
	default:
		return 5
	}
}

func lengthPoints(l Lengths) int {
	points := 0
	if l.Title.Optimal {
		points += 7
	}
	if l.MetaTitle.Optimal {
		points += 7
	}
	if l.MetaDescription.Optimal {
		points += 6
	}
	return points
}

func linkPoints(internal int) int {
	switch {
	case internal >= 3:
		return 15
	case internal >= 2:
		return 10
	case internal >= 1:
		return 5
	default:
		return 0
	}
}

func structurePoints(s Structure) int {
	switch {
	case s.H2 >= 3 && s.H3 >= 2:
		return 15
	case s.H2 >= 2:
		return 10
	case s.H2 >= 1:
		return 5
	default:
		return 0
	}
}

func recommendations(r *Report) []string {
	recs := []string{}

	if len(r.KeywordDensity) > 0 {
		d := r.KeywordDensity[r.MainKeyword]
		pct := strconv.FormatFloat(d, 'f', -1, 64)
		switch {
		case d < 1:
			recs = append(recs, fmt.Sprintf("increase the density of the main keyword '%s' (currently %s%%, target 1-2%%)", r.MainKeyword, pct))
		case d > 2.5:
			recs = append(recs, fmt.Sprintf("reduce the density of the main keyword '%s' (currently %s%%, risk of over-optimization)", r.MainKeyword, pct))
		}
	}

	if r.Readability.Score < 50 {
		recs = append(recs, fmt.Sprintf("improve readability (score %.1f, %s): use shorter sentences", r.Readability.Score, r.Readability.Level))
	}

	if !r.Lengths.Title.Optimal {
		recs = append(recs, "title: "+r.Lengths.Title.Recommendation)
	}
	if !r.Lengths.MetaTitle.Optimal {
		recs = append(recs, "meta title: "+r.Lengths.MetaTitle.Recommendation)
	}
	if !r.Lengths.MetaDescription.Optimal {
		recs = append(recs, "meta description: "+r.Lengths.MetaDescription.Recommendation)
	}

	if r.Links.InternalCount < 2 {
		recs = append(recs, r.Links.Recommendation)
	}

	if r.Structure.H2 < 2 {
		recs = append(recs, "add at least 2-3 H2 headings to improve structure")
	}
	return recs
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
