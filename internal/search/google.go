// Package search gathers research material for an article from a web search provider.
package search

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"

	"github.com/jonathan/blog-autopilot/internal/types"
)

// googleResults is the number of results requested per query
const googleResults = 8

// Google searches with the Custom Search JSON API. Content is assembled from
// result titles and snippets since the API does not synthesize an answer.
type Google struct {
	svc *customsearch.Service
	cx  string
}

// NewGoogle creates a Google Custom Search provider
func NewGoogle(ctx context.Context, apiKey, cx string, opts ...option.ClientOption) (*Google, error) {
	if apiKey == "" || cx == "" {
		return nil, &Error{Provider: ProviderGoogle, Message: "API key and search engine id are required"}
	}
	svc, err := customsearch.NewService(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create customsearch service: %w", err)
	}
	return &Google{svc: svc, cx: cx}, nil
}

// Search runs query against the configured search engine
func (g *Google) Search(ctx context.Context, query string) (*types.SearchResult, error) {
	resp, err := g.svc.Cse.List().Context(ctx).Cx(g.cx).Q(query).Num(googleResults).Do()
	if err != nil {
		return nil, &Error{Provider: ProviderGoogle, Message: "request failed", Cause: err}
	}

	var content strings.Builder
	sources := make([]types.Source, 0, len(resp.Items))
	for _, item := range resp.Items {
		snippet := strings.Join(strings.Fields(item.Snippet), " ")
		if content.Len() > 0 {
			content.WriteString("\n\n")
		}
		_, _ = fmt.Fprintf(&content, "%s\n%s\nSource: %s", item.Title, snippet, item.Link)

		sources = append(sources, types.Source{
			URL:         item.Link,
			Title:       item.Title,
			Description: snippet,
			Domain:      strings.TrimPrefix(item.DisplayLink, "www."),
		})
	}

	return &types.SearchResult{Content: content.String(), Sources: NormalizeSources(sources)}, nil
}
