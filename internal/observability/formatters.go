// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/blog-autopilot/internal/improve"
	"github.com/jonathan/blog-autopilot/internal/seo"
	"github.com/jonathan/blog-autopilot/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to max runes, ending with "..." when cut
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max-3]) + "..."
}

// PrintKeywords outputs the keywords selected for a topic.
func (p *Printer) PrintKeywords(topic string, keywords []string) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Topic: %s\n\n", topic))
	if len(keywords) == 0 {
		sb.WriteString("No keyword selected")
	}
	for i, kw := range keywords {
		sb.WriteString(fmt.Sprintf("  %d. %s", i+1, kw))
		if i < len(keywords)-1 {
			sb.WriteString("\n")
		}
	}
	p.printBox("SELECTED KEYWORDS", sb.String())
}

// PrintResearch outputs the size of the research and its first sources.
func (p *Printer) PrintResearch(research *types.SearchResult) {
	if research.IsEmpty() {
		p.printBox("WEB RESEARCH", "No research available")
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Content: %d characters\n", utf8.RuneCountInString(research.Content)))
	sb.WriteString(fmt.Sprintf("Sources: %d\n", len(research.Sources)))

	count := min(len(research.Sources), maxItemsToShow)
	for i := 0; i < count; i++ {
		src := research.Sources[i]
		label := src.Title
		if label == "" {
			label = src.URL
		}
		sb.WriteString(fmt.Sprintf("  • %s", label))
		if src.Domain != "" {
			sb.WriteString(fmt.Sprintf(" (%s)", src.Domain))
		}
		sb.WriteString("\n")
	}
	if len(research.Sources) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(research.Sources)-maxItemsToShow))
	}

	p.printBox("WEB RESEARCH", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintScoreReport outputs the global score and each dimension against its maximum.
func (p *Printer) PrintScoreReport(title string, report types.ScoreReport) {
	var sb strings.Builder
	if report.HasScore() {
		sb.WriteString(fmt.Sprintf("Global: %d/%d\n", *report.GlobalScore, types.MaxGlobalScore))
	} else {
		sb.WriteString("Global: not available\n")
	}

	if len(report.DimensionScores) > 0 {
		sb.WriteString("\n")
		for _, dim := range types.Dimensions() {
			score, ok := report.DimensionScores[dim]
			if !ok {
				continue
			}
			sb.WriteString(fmt.Sprintf("  %-12s %3d/%d\n", dim, score, types.DimensionMax[dim]))
		}
	}

	p.printBox(title, strings.TrimSuffix(sb.String(), "\n"))
}

// PrintImprovement outputs every improvement attempt and whether it raised the score.
func (p *Printer) PrintImprovement(initial types.ScoreReport, result *improve.Result) {
	if result == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Baseline: %s\n", scoreText(initial)))
	for _, a := range result.Attempts {
		verdict := "no gain"
		if a.Improved {
			verdict = "improved"
		}
		sb.WriteString(fmt.Sprintf("  Iteration %d: %s (%s)\n", a.Iteration, scoreText(a.Score), verdict))
	}
	sb.WriteString(fmt.Sprintf("Final: %s", scoreText(result.Score)))

	p.printBox("IMPROVEMENT LOOP", sb.String())
}

func scoreText(r types.ScoreReport) string {
	if !r.HasScore() {
		return "n/a"
	}
	return fmt.Sprintf("%d/%d", *r.GlobalScore, types.MaxGlobalScore)
}

// PrintSEOReport outputs the SEO analysis with its recommendations.
func (p *Printer) PrintSEOReport(report *seo.Report) {
	if report == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Score: %d/100\n", report.OverallScore))
	if report.MainKeyword != "" {
		sb.WriteString(fmt.Sprintf("Main keyword: %s\n", report.MainKeyword))
	}

	keywords := make([]string, 0, len(report.KeywordDensity))
	for kw := range report.KeywordDensity {
		keywords = append(keywords, kw)
	}
	sort.Strings(keywords)
	for _, kw := range keywords {
		sb.WriteString(fmt.Sprintf("  %-30s %5.2f%%\n", truncate(kw, 30), report.KeywordDensity[kw]))
	}

	sb.WriteString(fmt.Sprintf("Readability: %.1f (%s)\n", report.Readability.Score, report.Readability.Level))
	sb.WriteString(fmt.Sprintf("Words: %d  H2: %d  H3: %d\n", report.Readability.Words, report.Structure.H2, report.Structure.H3))
	sb.WriteString(fmt.Sprintf("Links: %d internal, %d external\n", report.Links.InternalCount, report.Links.ExternalCount))

	if len(report.LSISuggestions) > 0 {
		sb.WriteString(fmt.Sprintf("Related terms: %s\n", strings.Join(report.LSISuggestions, ", ")))
	}
	if len(report.Recommendations) > 0 {
		sb.WriteString("\nRecommendations:\n")
		for _, rec := range report.Recommendations {
			sb.WriteString(fmt.Sprintf("  • %s\n", rec))
		}
	}

	p.printBox("SEO ANALYSIS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintWarnings outputs the degraded capabilities of a run.
func (p *Printer) PrintWarnings(warnings []string) {
	if len(warnings) == 0 {
		return
	}
	lines := make([]string, 0, len(warnings))
	for _, w := range warnings {
		lines = append(lines, "⚠ "+w)
	}
	p.printBox(fmt.Sprintf("WARNINGS (%d)", len(warnings)), strings.Join(lines, "\n"))
}
