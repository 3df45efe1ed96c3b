// Package generation writes, rewrites, SEO-packages and translates articles with an LLM.
package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/jonathan/blog-autopilot/internal/document"
	"github.com/jonathan/blog-autopilot/internal/llm"
	"github.com/jonathan/blog-autopilot/internal/prompts"
	"github.com/jonathan/blog-autopilot/internal/schemas"
	"github.com/jonathan/blog-autopilot/internal/types"
)

const (
	maxTitle           = 60
	maxMetaTitle       = 60
	maxSummary         = 155
	maxMetaDescription = 160
	wordsPerMinute     = 200
	defaultTag         = "actualites-tendances"
	defaultReadTime    = "5 min"
)

// OptimizeSEO packages a French article with its SEO metadata. It never fails:
// when the LLM is unavailable or replies with unusable JSON, the metadata is
// derived locally from the article text.
func (w *Writer) OptimizeSEO(ctx context.Context, article string, keywords []string) types.ArticleMetadata {
	meta, err := w.optimizeWithLLM(ctx, article, keywords)
	if err != nil {
		w.log.Warn("SEO optimization fell back to local metadata", "error", err)
		meta = w.fallbackMetadata(article)
	}
	w.normalize(&meta, article, keywords)
	return meta
}

func (w *Writer) optimizeWithLLM(ctx context.Context, article string, keywords []string) (types.ArticleMetadata, error) {
	var meta types.ArticleMetadata
	if w.client == nil {
		return meta, errors.New("no LLM client configured")
	}

	prompt := prompts.MustGet("seo.json", "optimize-seo").Render("optimize_seo", map[string]string{
		"Keywords":   strings.Join(keywords, ", "),
		"Article":    article,
		"BaseDomain": w.baseDomain,
	})
	prompt.Temperature = llm.Temp(0.3)

	raw, err := w.client.GenerateStructured(ctx, prompt, llm.TierStandard)
	if err != nil {
		return meta, fmt.Errorf("failed to optimize SEO: %w", err)
	}
	if err := schemas.Validate(schemas.ArticleMetadata, raw); err != nil {
		var verr *schemas.ValidationError
		if errors.As(err, &verr) {
			w.log.Warn("SEO reply violates contract", "fields", verr.Fields())
		}
	}
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return meta, fmt.Errorf("failed to parse SEO reply: %w", err)
	}
	if strings.TrimSpace(meta.Title) == "" || strings.TrimSpace(meta.BodyHTML) == "" {
		return meta, errors.New("SEO reply has no title or body")
	}
	return meta, nil
}

// fallbackMetadata derives the minimum publishable metadata from the article itself
func (w *Writer) fallbackMetadata(article string) types.ArticleMetadata {
	plain := document.Text(document.ToDocument(article, document.FormatAuto))
	title := truncateRunes(strings.TrimSpace(strings.TrimLeft(firstLine(article), "# ")), maxTitle)
	if title == "" {
		title = "Article"
	}

	return types.ArticleMetadata{
		Title:    title,
		Summary:  truncateRunes(collapse(plain), maxSummary),
		BodyHTML: markdownToHTML(article),
		Slug:     Slugify(truncateRunes(article, 50)),
		ReadTime: defaultReadTime,
		Tag:      defaultTag,
	}
}

// normalize enforces the invariants every published metadata set must satisfy
func (w *Writer) normalize(meta *types.ArticleMetadata, article string, keywords []string) {
	meta.Title = collapse(meta.Title)
	meta.Summary = collapse(meta.Summary)

	meta.Slug = Slugify(meta.Slug)
	if meta.Slug == "" {
		meta.Slug = Slugify(meta.Title)
	}
	if meta.Slug == "" {
		meta.Slug = "article"
	}

	if meta.MetaTitle == "" {
		meta.MetaTitle = meta.Title
	}
	meta.MetaTitle = truncateRunes(collapse(meta.MetaTitle), maxMetaTitle)
	if meta.MetaDescription == "" {
		meta.MetaDescription = meta.Summary
	}
	meta.MetaDescription = truncateRunes(collapse(meta.MetaDescription), maxMetaDescription)
	if meta.OGTitle == "" {
		meta.OGTitle = meta.MetaTitle
	}
	if meta.OGDescription == "" {
		meta.OGDescription = meta.MetaDescription
	}

	meta.CanonicalURL = w.CanonicalURL(meta.Slug)
	meta.TranslationGroup = meta.Slug
	meta.Keywords = mergeKeywords(keywords, meta.Keywords)
	if meta.FocusKeyword == "" && len(keywords) > 0 {
		meta.FocusKeyword = keywords[0]
	}
	if meta.Tag == "" {
		meta.Tag = defaultTag
	}

	meta.BodyMarkdown = article
	meta.Language = types.LanguageFR
	if meta.ReadTime == "" {
		meta.ReadTime = EstimateReadTime(article)
	}
}

// CanonicalURL returns the public blog URL for slug
func (w *Writer) CanonicalURL(slug string) string {
	return fmt.Sprintf("https://%s/blog/%s", w.baseDomain, slug)
}

// EstimateReadTime reports reading time at 200 words per minute, at least one minute
func EstimateReadTime(text string) string {
	words := len(strings.Fields(text))
	minutes := (words + wordsPerMinute - 1) / wordsPerMinute
	if minutes < 1 {
		minutes = 1
	}
	return fmt.Sprintf("%d min", minutes)
}

// mergeKeywords puts the selected keywords first, then the LLM's, without case-insensitive duplicates
func mergeKeywords(selected, suggested []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, list := range [][]string{selected, suggested} {
		for _, k := range list {
			k = strings.TrimSpace(k)
			key := strings.ToLower(k)
			if k == "" || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, k)
		}
	}
	return out
}

func markdownToHTML(md string) string {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return md
	}
	return buf.String()
}

func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if t := strings.TrimSpace(line); t != "" {
			return t
		}
	}
	return ""
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n]))
}
