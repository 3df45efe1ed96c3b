// Package topics keeps track of already published articles and flags new
// topics that would duplicate one of them.
package topics

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/blog-autopilot/internal/fetch"
	"github.com/jonathan/blog-autopilot/internal/logger"
)

// minTitleLength filters out card labels and category chips
const minTitleLength = 10

// ScrapeTitles collects article titles from the h2 and h3 headings of a blog
// listing page
func ScrapeTitles(ctx context.Context, blogURL string, opts *fetch.Options, log *logger.Logger) ([]string, error) {
	if opts == nil {
		opts = fetch.DefaultOptions()
	}
	opts.CacheBust = true

	page, err := fetch.Page(ctx, blogURL, opts, log)
	if err != nil {
		return nil, err
	}
	return ExtractTitles(page.HTML)
}

// ExtractTitles returns the distinct h2/h3 texts longer than ten characters
func ExtractTitles(html string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse blog listing: %w", err)
	}

	var titles []string
	seen := make(map[string]bool)
	doc.Find("h2, h3").Each(func(_ int, s *goquery.Selection) {
		title := strings.Join(strings.Fields(s.Text()), " ")
		if utf8.RuneCountInString(title) <= minTitleLength || seen[title] {
			return
		}
		seen[title] = true
		titles = append(titles, title)
	})
	return titles, nil
}

// Guard checks candidate topics against the catalog and the live blog
type Guard struct {
	Catalog   *Catalog
	BlogURL   string
	Threshold float64
	Fetch     *fetch.Options
	Log       *logger.Logger
}

// Report is the outcome of a topic check
type Report struct {
	Topic   string  `json:"topic"`
	Known   int     `json:"known_titles"`
	Similar []Match `json:"similar"`
}

// Exists reports whether any known title is too close to the topic
func (r *Report) Exists() bool {
	return len(r.Similar) > 0
}

// Titles merges catalog titles with scraped ones. A scraping failure only
// logs a warning.
func (g *Guard) Titles(ctx context.Context) []string {
	log := logger.OrNop(g.Log)

	var titles []string
	if g.Catalog != nil {
		titles = append(titles, g.Catalog.Titles()...)
	}
	if g.BlogURL != "" {
		var opts *fetch.Options
		if g.Fetch != nil {
			copied := *g.Fetch
			opts = &copied
		}
		scraped, err := ScrapeTitles(ctx, g.BlogURL, opts, log)
		if err != nil {
			log.Warn("blog scraping failed, using the local catalog only", "url", g.BlogURL, "error", err)
		}
		titles = append(titles, scraped...)
	}

	out := make([]string, 0, len(titles))
	seen := make(map[string]bool, len(titles))
	for _, t := range titles {
		t = strings.TrimSpace(t)
		if utf8.RuneCountInString(t) <= minTitleLength || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// Check compares topic with every known title
func (g *Guard) Check(ctx context.Context, topic string) *Report {
	titles := g.Titles(ctx)
	return &Report{
		Topic:   topic,
		Known:   len(titles),
		Similar: CheckExists(topic, titles, g.Threshold),
	}
}
