// Package search gathers research material for an article from a web search provider.
package search

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/jonathan/blog-autopilot/internal/logger"
	"github.com/jonathan/blog-autopilot/internal/types"
)

// Provider answers a research query with synthesized content and its sources
type Provider interface {
	Search(ctx context.Context, query string) (*types.SearchResult, error)
}

// Provider names accepted by New
const (
	ProviderPerplexity = "perplexity"
	ProviderGoogle     = "google"
)

// Config selects and configures a provider
type Config struct {
	Provider         string
	PerplexityAPIKey string
	PerplexityModel  string
	GoogleAPIKey     string
	GoogleCX         string
}

// New builds the configured provider. An unset provider picks Perplexity when
// its key is present, else Google when its key and engine id are present.
func New(ctx context.Context, cfg Config) (Provider, error) {
	name := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if name == "" {
		switch {
		case cfg.PerplexityAPIKey != "":
			name = ProviderPerplexity
		case cfg.GoogleAPIKey != "" && cfg.GoogleCX != "":
			name = ProviderGoogle
		default:
			return nil, &Error{Message: "no search provider credentials configured"}
		}
	}

	switch name {
	case ProviderPerplexity:
		return NewPerplexity(PerplexityConfig{APIKey: cfg.PerplexityAPIKey, Model: cfg.PerplexityModel})
	case ProviderGoogle:
		return NewGoogle(ctx, cfg.GoogleAPIKey, cfg.GoogleCX)
	default:
		return nil, &Error{Message: fmt.Sprintf("unknown search provider %q", cfg.Provider)}
	}
}

type degraded struct {
	provider Provider
	log      *logger.Logger
}

// Degraded wraps provider so that a missing provider or a failed search yields an
// empty result and a warning instead of an error
func Degraded(provider Provider, log *logger.Logger) Provider {
	return &degraded{provider: provider, log: logger.OrNop(log)}
}

func (d *degraded) Search(ctx context.Context, query string) (*types.SearchResult, error) {
	if d.provider == nil {
		d.log.Warn("web search unavailable: no provider configured")
		return &types.SearchResult{}, nil
	}
	result, err := d.provider.Search(ctx, query)
	if err != nil {
		d.log.Warn("web search failed, continuing without research", "error", err)
		return &types.SearchResult{}, nil
	}
	if result == nil {
		return &types.SearchResult{}, nil
	}
	return result, nil
}

var contentURLPattern = regexp.MustCompile(`https?://[^\s)\]>]+`)

// ExtractURLs returns the distinct URLs cited inline in text, trailing punctuation removed
func ExtractURLs(text string) []string {
	var urls []string
	seen := make(map[string]bool)
	for _, u := range contentURLPattern.FindAllString(text, -1) {
		u = strings.TrimRight(u, ".,;:!?)")
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		urls = append(urls, u)
	}
	return urls
}

// NormalizeSources drops sources without a URL and repeated URLs, and fills in
// the domain and, for untitled sources, a display name
func NormalizeSources(sources []types.Source) []types.Source {
	out := make([]types.Source, 0, len(sources))
	seen := make(map[string]bool, len(sources))
	for _, s := range sources {
		s.URL = strings.TrimSpace(s.URL)
		if s.URL == "" || seen[s.URL] {
			continue
		}
		seen[s.URL] = true

		if s.Domain == "" {
			s.Domain = domainOf(s.URL)
		}
		if s.Title == "" && s.Name == "" {
			s.Name = s.Domain
			if s.Name == "" {
				s.Name = "Source"
			}
		}
		out = append(out, s)
	}
	return out
}

func domainOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}
