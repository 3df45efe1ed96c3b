// Package seo computes keyword density, readability, length, link and
// structure checks over a finished article, and folds them into one score.
package seo

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultBaseDomain marks links as internal when their URL contains it
const DefaultBaseDomain = "callrounded.com"

var (
	markdownLinkPattern = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
	h2LinePattern       = regexp.MustCompile(`(?m)^##\s+`)
	h3LinePattern       = regexp.MustCompile(`(?m)^###\s+`)
)

// Link is one markdown link found in the text
type Link struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

// LinkReport splits an article's links into internal and external ones
type LinkReport struct {
	Internal       []Link `json:"internal_links"`
	External       []Link `json:"external_links"`
	Total          int    `json:"total_links"`
	InternalCount  int    `json:"internal_count"`
	ExternalCount  int    `json:"external_count"`
	Recommendation string `json:"recommendation"`
}

// DetectLinks extracts [text](url) links and classifies them against baseDomain
func DetectLinks(text, baseDomain string) LinkReport {
	if baseDomain == "" {
		baseDomain = DefaultBaseDomain
	}
	domain := strings.ToLower(baseDomain)

	var report LinkReport
	for _, m := range markdownLinkPattern.FindAllStringSubmatch(text, -1) {
		link := Link{Text: m[1], URL: m[2]}
		if strings.Contains(strings.ToLower(link.URL), domain) {
			report.Internal = append(report.Internal, link)
		} else {
			report.External = append(report.External, link)
		}
	}
	report.InternalCount = len(report.Internal)
	report.ExternalCount = len(report.External)
	report.Total = report.InternalCount + report.ExternalCount

	switch report.InternalCount {
	case 0:
		report.Recommendation = "no internal links detected: add links to other blog articles"
	case 1:
		report.Recommendation = "only 1 internal link: add 2-3 internal links to improve SEO"
	default:
		report.Recommendation = fmt.Sprintf("%d internal links detected: good for SEO", report.InternalCount)
	}
	return report
}

// Structure counts markdown section headings
type Structure struct {
	H2 int `json:"h2_count"`
	H3 int `json:"h3_count"`
}

// CountStructure counts lines opening with "## " and "### "
func CountStructure(text string) Structure {
	return Structure{
		H2: len(h2LinePattern.FindAllStringIndex(text, -1)),
		H3: len(h3LinePattern.FindAllStringIndex(text, -1)),
	}
}
