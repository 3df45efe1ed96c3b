// Package types provides type definitions for structured data used throughout the blog pipeline.
//
//nolint:revive // types is a standard Go package name pattern
package types

// Language is a publication language
type Language string

const (
	LanguageFR Language = "fr"
	LanguageEN Language = "en"
)

// ArticleMetadata is the SEO metadata and content of one language version of an article
type ArticleMetadata struct {
	Title            string   `json:"title"`
	Summary          string   `json:"summary"`
	BodyHTML         string   `json:"blog_post"`
	BodyMarkdown     string   `json:"original_content,omitempty"`
	Slug             string   `json:"slug"`
	ReadTime         string   `json:"readTime,omitempty"`
	Tag              string   `json:"tag,omitempty"`
	Keywords         []string `json:"keywords"`
	FocusKeyword     string   `json:"focusKeyword,omitempty"`
	MetaTitle        string   `json:"metaTitle"`
	MetaDescription  string   `json:"metaDescription"`
	OGTitle          string   `json:"ogTitle,omitempty"`
	OGDescription    string   `json:"ogDescription,omitempty"`
	CanonicalURL     string   `json:"canonicalUrl"`
	TranslationGroup string   `json:"translationGroup"`
	Language         Language `json:"language,omitempty"`
}

// Body returns the HTML body when present, otherwise the markdown body
func (m ArticleMetadata) Body() string {
	if m.BodyHTML != "" {
		return m.BodyHTML
	}
	return m.BodyMarkdown
}

// MainKeyword returns the focus keyword, or the first keyword when no focus is set
func (m ArticleMetadata) MainKeyword() string {
	if m.FocusKeyword != "" {
		return m.FocusKeyword
	}
	if len(m.Keywords) > 0 {
		return m.Keywords[0]
	}
	return ""
}
