// Package search gathers research material for an article from a web search provider.
package search

import (
	"context"
	"encoding/json"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/jonathan/blog-autopilot/internal/types"
)

// Perplexity defaults
const (
	DefaultPerplexityBaseURL = "https://api.perplexity.ai/"
	DefaultPerplexityModel   = "sonar-pro"
	DefaultPerplexitySystem  = "You are a helpful assistant specialized in medical practices, healthcare technology, and voice AI assistants."
)

// PerplexityConfig configures the Perplexity provider
type PerplexityConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	System  string
}

// Perplexity searches through Perplexity's OpenAI-compatible chat endpoint
type Perplexity struct {
	client openai.Client
	model  string
	system string
}

// NewPerplexity creates a Perplexity provider
func NewPerplexity(cfg PerplexityConfig) (*Perplexity, error) {
	if cfg.APIKey == "" {
		return nil, &Error{Provider: ProviderPerplexity, Message: "API key is required"}
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultPerplexityBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultPerplexityModel
	}
	if cfg.System == "" {
		cfg.System = DefaultPerplexitySystem
	}

	return &Perplexity{
		client: openai.NewClient(
			option.WithAPIKey(cfg.APIKey),
			option.WithBaseURL(cfg.BaseURL),
			option.WithMaxRetries(1),
		),
		model:  cfg.Model,
		system: cfg.System,
	}, nil
}

// Search asks Perplexity the query and collects the citations it returns
func (p *Perplexity) Search(ctx context.Context, query string) (*types.SearchResult, error) {
	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(p.system),
			openai.UserMessage(query),
		},
	})
	if err != nil {
		return nil, &Error{Provider: ProviderPerplexity, Message: "request failed", Cause: err}
	}
	if len(resp.Choices) == 0 {
		return nil, &Error{Provider: ProviderPerplexity, Message: "no choices in response"}
	}

	content := resp.Choices[0].Message.Content
	sources := citations(resp.RawJSON())
	if len(sources) == 0 {
		for _, u := range ExtractURLs(content) {
			sources = append(sources, types.Source{URL: u})
		}
	}

	return &types.SearchResult{Content: content, Sources: NormalizeSources(sources)}, nil
}

// citationReply covers the places Perplexity models put their sources
type citationReply struct {
	Citations     []citation `json:"citations"`
	SearchResults []citation `json:"search_results"`
	Choices       []struct {
		Citations []citation `json:"citations"`
		Message   struct {
			Citations []citation `json:"citations"`
		} `json:"message"`
	} `json:"choices"`
}

// citation is either a bare URL string or an object with a url field
type citation types.Source

func (c *citation) UnmarshalJSON(data []byte) error {
	var u string
	if err := json.Unmarshal(data, &u); err == nil {
		*c = citation{URL: u}
		return nil
	}
	var obj struct {
		URL         string `json:"url"`
		Title       string `json:"title"`
		Description string `json:"description"`
		Snippet     string `json:"snippet"`
		Domain      string `json:"domain"`
		Name        string `json:"name"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	if obj.Description == "" {
		obj.Description = obj.Snippet
	}
	*c = citation{URL: obj.URL, Title: obj.Title, Description: obj.Description, Domain: obj.Domain, Name: obj.Name}
	return nil
}

func citations(raw string) []types.Source {
	var reply citationReply
	if err := json.Unmarshal([]byte(raw), &reply); err != nil {
		return nil
	}

	found := reply.Citations
	if len(found) == 0 && len(reply.Choices) > 0 {
		found = reply.Choices[0].Message.Citations
		if len(found) == 0 {
			found = reply.Choices[0].Citations
		}
	}
	if len(found) == 0 {
		found = reply.SearchResults
	}

	sources := make([]types.Source, 0, len(found))
	for _, c := range found {
		sources = append(sources, types.Source(c))
	}
	return sources
}
