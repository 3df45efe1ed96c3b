// Package review writes generated articles to markdown files for human review and
// reads reviewed files back for publishing.
package review

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/yuin/goldmark"

	"github.com/jonathan/blog-autopilot/internal/types"
)

const timestampLayout = "20060102_150405"

// Draft is one article awaiting review, with its optional translation
type Draft struct {
	Topic        string
	FR           types.ArticleMetadata
	EN           *types.ArticleMetadata
	QualityScore *int
	SEOScore     *int
	GeneratedAt  time.Time
}

// ParseError is returned when a review file cannot be read back
type ParseError struct {
	Path    string
	Message string
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("review parse error: %s", e.Message)
	}
	return fmt.Sprintf("review parse error in %s: %s", e.Path, e.Message)
}

// field labels, shared by Render and Parse
const (
	labelTopic            = "Topic"
	labelGenerated        = "Generated"
	labelQuality          = "Quality score"
	labelSEO              = "SEO score"
	labelTitle            = "Title"
	labelSlug             = "Slug"
	labelTag              = "Tag"
	labelReadTime         = "Read time"
	labelFocusKeyword     = "Focus keyword"
	labelMetaTitle        = "Meta title"
	labelMetaDescription  = "Meta description"
	labelOGTitle          = "OG title"
	labelOGDescription    = "OG description"
	labelCanonicalURL     = "Canonical URL"
	labelTranslationGroup = "Translation group"
	labelKeywords         = "Keywords"
)

var (
	fieldPattern = regexp.MustCompile(`(?m)^\*\*([^*]+?):\*\*[ \t]*(.*?)[ \t]*$`)
	scorePattern = regexp.MustCompile(`^(\d+)\s*/\s*100$`)
)

// Filename returns the review file name for d: "{timestamp}_{slug}.md"
func Filename(d Draft) string {
	slug := d.FR.Slug
	if slug == "" {
		slug = "article"
	}
	at := d.GeneratedAt
	if at.IsZero() {
		at = time.Now()
	}
	return at.Format(timestampLayout) + "_" + slug + ".md"
}

// Write renders d into dir and returns the file path
func Write(dir string, d Draft) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create review directory: %w", err)
	}
	if d.GeneratedAt.IsZero() {
		d.GeneratedAt = time.Now()
	}
	path := filepath.Join(dir, Filename(d))
	if err := os.WriteFile(path, []byte(Render(d)), 0o644); err != nil {
		return "", fmt.Errorf("failed to write review file: %w", err)
	}
	return path, nil
}

// Render returns the review markdown for d
func Render(d Draft) string {
	var sb strings.Builder

	title := d.FR.Title
	if title == "" {
		title = "Article"
	}
	fmt.Fprintf(&sb, "# %s\n\n", title)
	writeField(&sb, labelTopic, d.Topic)
	if !d.GeneratedAt.IsZero() {
		writeField(&sb, labelGenerated, d.GeneratedAt.Format(time.RFC3339))
	}
	if d.QualityScore != nil {
		writeField(&sb, labelQuality, fmt.Sprintf("%d/100", *d.QualityScore))
	}
	if d.SEOScore != nil {
		writeField(&sb, labelSEO, fmt.Sprintf("%d/100", *d.SEOScore))
	}

	writeArticle(&sb, types.LanguageFR, d.FR)
	if d.EN != nil {
		writeArticle(&sb, types.LanguageEN, *d.EN)
	}
	return sb.String()
}

func writeArticle(sb *strings.Builder, lang types.Language, m types.ArticleMetadata) {
	fmt.Fprintf(sb, "\n---\n\n<!-- article:%s -->\n## Version %s\n\n", lang, strings.ToUpper(string(lang)))
	writeField(sb, labelTitle, m.Title)
	writeField(sb, labelSlug, m.Slug)
	writeField(sb, labelTag, m.Tag)
	writeField(sb, labelReadTime, m.ReadTime)
	writeField(sb, labelFocusKeyword, m.FocusKeyword)
	writeField(sb, labelMetaTitle, m.MetaTitle)
	writeField(sb, labelMetaDescription, m.MetaDescription)
	writeField(sb, labelOGTitle, m.OGTitle)
	writeField(sb, labelOGDescription, m.OGDescription)
	writeField(sb, labelCanonicalURL, m.CanonicalURL)
	writeField(sb, labelTranslationGroup, m.TranslationGroup)
	writeField(sb, labelKeywords, strings.Join(m.Keywords, ", "))

	sb.WriteString("\n### SEO summary\n\n")
	writeBlock(sb, "summary", m.Summary)
	sb.WriteString("\n### HTML content\n\n")
	writeBlock(sb, "html", m.BodyHTML)
	sb.WriteString("\n### Markdown content\n\n")
	writeBlock(sb, "markdown", m.BodyMarkdown)
	fmt.Fprintf(sb, "<!-- /article:%s -->\n", lang)
}

func writeField(sb *strings.Builder, label, value string) {
	value = strings.Join(strings.Fields(value), " ")
	if value == "" {
		return
	}
	fmt.Fprintf(sb, "**%s:** %s  \n", label, value)
}

func writeBlock(sb *strings.Builder, name, content string) {
	fmt.Fprintf(sb, "<!-- %s -->\n%s\n<!-- /%s -->\n", name, strings.TrimSpace(content), name)
}

// Parse reads a review file written by Write
func Parse(path string) (*Draft, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read review file: %w", err)
	}
	d, err := ParseContent(string(data))
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			pe.Path = path
		}
		return nil, err
	}
	return d, nil
}

// ParseContent parses review markdown. The French section is required.
func ParseContent(content string) (*Draft, error) {
	content = strings.ReplaceAll(content, "\r\n", "\n")

	frText, ok := between(content, "article:fr")
	if !ok {
		return nil, &ParseError{Message: "missing French article section"}
	}
	fr := parseArticle(frText, types.LanguageFR)
	if fr.Title == "" || fr.Body() == "" {
		return nil, &ParseError{Message: "French article needs a title and a body"}
	}

	header := content
	if i := strings.Index(content, "<!-- article:"); i >= 0 {
		header = content[:i]
	}
	fields := parseFields(header)

	d := &Draft{
		Topic:        fields[labelTopic],
		FR:           fr,
		QualityScore: parseScore(fields[labelQuality]),
		SEOScore:     parseScore(fields[labelSEO]),
	}
	if at, err := time.Parse(time.RFC3339, fields[labelGenerated]); err == nil {
		d.GeneratedAt = at
	}

	if enText, ok := between(content, "article:en"); ok {
		en := parseArticle(enText, types.LanguageEN)
		if en.Title != "" && en.Body() != "" {
			d.EN = &en
		}
	}
	return d, nil
}

func parseArticle(text string, lang types.Language) types.ArticleMetadata {
	// fields live above the first content block
	head := text
	if i := strings.Index(text, "<!-- summary -->"); i >= 0 {
		head = text[:i]
	}
	f := parseFields(head)

	m := types.ArticleMetadata{
		Title:            f[labelTitle],
		Slug:             f[labelSlug],
		Tag:              f[labelTag],
		ReadTime:         f[labelReadTime],
		FocusKeyword:     f[labelFocusKeyword],
		MetaTitle:        f[labelMetaTitle],
		MetaDescription:  f[labelMetaDescription],
		OGTitle:          f[labelOGTitle],
		OGDescription:    f[labelOGDescription],
		CanonicalURL:     f[labelCanonicalURL],
		TranslationGroup: f[labelTranslationGroup],
		Language:         lang,
	}
	for _, kw := range strings.Split(f[labelKeywords], ",") {
		if kw = strings.TrimSpace(kw); kw != "" {
			m.Keywords = append(m.Keywords, kw)
		}
	}
	m.Summary, _ = between(text, "summary")
	m.BodyHTML, _ = between(text, "html")
	m.BodyMarkdown, _ = between(text, "markdown")
	return m
}

func parseFields(text string) map[string]string {
	out := map[string]string{}
	for _, m := range fieldPattern.FindAllStringSubmatch(text, -1) {
		if _, seen := out[m[1]]; !seen {
			out[m[1]] = m[2]
		}
	}
	return out
}

func parseScore(s string) *int {
	m := scorePattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return nil
	}
	v, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	return &v
}

// between returns the trimmed text enclosed by <!-- name --> and <!-- /name -->
func between(text, name string) (string, bool) {
	open := "<!-- " + name + " -->"
	end := "<!-- /" + name + " -->"
	start := strings.Index(text, open)
	if start < 0 {
		return "", false
	}
	rest := text[start+len(open):]
	stop := strings.Index(rest, end)
	if stop < 0 {
		return "", false
	}
	return strings.TrimSpace(rest[:stop]), true
}

// Preview renders article markdown to HTML
func Preview(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("failed to render preview: %w", err)
	}
	return buf.String(), nil
}
