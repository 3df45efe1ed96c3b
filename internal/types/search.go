// Package types provides type definitions for structured data used throughout the blog pipeline.
//
//nolint:revive // types is a standard Go package name pattern
package types

// Source is one web reference returned by a search provider
type Source struct {
	URL         string `json:"url"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Domain      string `json:"domain,omitempty"`
	Name        string `json:"name,omitempty"`
}

// SearchResult is the synthesized content and sources for a query
type SearchResult struct {
	Content string   `json:"content"`
	Sources []Source `json:"sources"`
}

// IsEmpty reports whether the result carries neither content nor sources
func (r *SearchResult) IsEmpty() bool {
	return r == nil || (r.Content == "" && len(r.Sources) == 0)
}

// References are CMS document ids attached to a published post. Empty means absent.
type References struct {
	Category string `json:"category,omitempty"`
	Author   string `json:"author,omitempty"`
}
