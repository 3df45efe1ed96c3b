// Package cms publishes articles to a Sanity dataset.
package cms

import (
	"errors"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/blog-autopilot/internal/document"
	"github.com/jonathan/blog-autopilot/internal/types"
)

const (
	maxMetaTitle       = 60
	maxMetaDescription = 160
	publishBackdate    = 24 * time.Hour
)

// Slug is the Sanity slug object
type Slug struct {
	Type    string `json:"_type"`
	Current string `json:"current" validate:"required"`
}

// Reference points at another Sanity document
type Reference struct {
	Key  string `json:"_key,omitempty"`
	Type string `json:"_type"`
	Ref  string `json:"_ref"`
}

// Post is the Sanity "post" document written by a publish
type Post struct {
	ID               string          `json:"_id"`
	Type             string          `json:"_type"`
	Title            string          `json:"title" validate:"required"`
	Slug             Slug            `json:"slug"`
	Excerpt          string          `json:"excerpt,omitempty"`
	Body             []PortableBlock `json:"body" validate:"required,min=1"`
	PublishedAt      string          `json:"publishedAt"`
	MetaTitle        string          `json:"metaTitle,omitempty"`
	MetaDescription  string          `json:"metaDescription,omitempty"`
	CanonicalURL     string          `json:"canonicalUrl,omitempty"`
	TranslationGroup string          `json:"translationGroup,omitempty"`
	Language         types.Language  `json:"language,omitempty"`
	Author           *Reference      `json:"author,omitempty"`
	Categories       []Reference     `json:"categories,omitempty"`
}

// Validate checks the publish contract and names the first missing field
func (p *Post) Validate() error {
	err := validator.New().Struct(p)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return &MissingFieldError{Field: fieldName(verrs[0].Namespace())}
	}
	return err
}

func fieldName(namespace string) string {
	switch namespace {
	case "Post.Title":
		return "title"
	case "Post.Slug.Current":
		return "slug"
	case "Post.Body":
		return "body"
	default:
		return namespace
	}
}

// PostOptions carries the site-level values a post needs besides its content
type PostOptions struct {
	SiteURL string
	Now     time.Time
	NewKey  func() string
}

// BuildPost maps a document and its metadata onto a Sanity post. It does not validate.
func BuildPost(doc types.Document, meta types.ArticleMetadata, lang types.Language, refs types.References, opts PostOptions) *Post {
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	if opts.NewKey == nil {
		opts.NewKey = NewKey
	}
	siteURL := strings.TrimRight(opts.SiteURL, "/")
	if siteURL == "" {
		siteURL = DefaultSiteURL
	}

	slug := strings.TrimSpace(meta.Slug)
	if lang == types.LanguageEN {
		if s := slugFromCanonical(meta.CanonicalURL); strings.HasSuffix(s, "-en") {
			slug = s
		}
	}

	canonical := meta.CanonicalURL
	if canonical == "" && slug != "" {
		canonical = siteURL + "/blog/" + slug
	}
	group := meta.TranslationGroup
	if group == "" {
		group = slug
	}

	metaDescription := meta.MetaDescription
	if metaDescription == "" {
		metaDescription = meta.Summary
	}

	post := &Post{
		ID:               strings.ReplaceAll(slug, "-", "_"),
		Type:             "post",
		Title:            strings.Join(strings.Fields(meta.Title), " "),
		Slug:             Slug{Type: "slug", Current: slug},
		Excerpt:          strings.TrimSpace(meta.Summary),
		Body:             ToPortableText(doc, opts.NewKey),
		PublishedAt:      opts.Now.Add(-publishBackdate).UTC().Format(time.RFC3339),
		MetaTitle:        truncateRunes(meta.MetaTitle, maxMetaTitle),
		MetaDescription:  truncateRunes(metaDescription, maxMetaDescription),
		CanonicalURL:     canonical,
		TranslationGroup: group,
		Language:         lang,
	}
	if doc.IsEmpty() {
		post.Body = nil
	}
	if refs.Author != "" {
		post.Author = &Reference{Type: "reference", Ref: refs.Author}
	}
	if refs.Category != "" {
		post.Categories = []Reference{{Key: opts.NewKey(), Type: "reference", Ref: refs.Category}}
	}
	return post
}

// DocumentFromMetadata converts the article body into a document, linking the
// call to action when the body mentions it without its target.
func DocumentFromMetadata(meta types.ArticleMetadata) types.Document {
	body := meta.Body()
	if strings.Contains(body, "Découvrir Donna") && !strings.Contains(body, document.CallToActionURL) {
		body = document.NormalizeCallToAction(body)
	}
	return document.ToDocument(body, document.FormatAuto)
}

func slugFromCanonical(canonical string) string {
	if canonical == "" {
		return ""
	}
	u, err := url.Parse(canonical)
	if err != nil {
		return ""
	}
	path := strings.TrimRight(u.Path, "/")
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}

func truncateRunes(s string, n int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
