package search

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/jonathan/blog-autopilot/internal/types"
)

func chatReply(content string, extra map[string]any) map[string]any {
	reply := map[string]any{
		"id":      "cmpl-1",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "sonar-pro",
		"choices": []any{
			map[string]any{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			},
		},
		"usage": map[string]any{"prompt_tokens": 10, "completion_tokens": 20, "total_tokens": 30},
	}
	for k, v := range extra {
		reply[k] = v
	}
	return reply
}

func perplexityServer(t *testing.T, status int, reply map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer pplx-test", r.Header.Get("Authorization"))

		var body struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, DefaultPerplexityModel, body.Model)
		if assert.Len(t, body.Messages, 2) {
			assert.Equal(t, "secrétariat médical", body.Messages[1].Content)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(reply)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestPerplexity_Search(t *testing.T) {
	tests := []struct {
		name        string
		reply       map[string]any
		wantSources []types.Source
	}{
		{
			name: "top-level citations",
			reply: chatReply("Le marché progresse [1].", map[string]any{
				"citations": []string{"https://www.example.com/a", "https://b.test/b", "https://b.test/b"},
			}),
			wantSources: []types.Source{
				{URL: "https://www.example.com/a", Domain: "example.com", Name: "example.com"},
				{URL: "https://b.test/b", Domain: "b.test", Name: "b.test"},
			},
		},
		{
			name: "search results objects",
			reply: chatReply("Réponse.", map[string]any{
				"search_results": []any{map[string]any{"title": "Étude", "url": "https://c.test/etude", "snippet": "résumé"}},
			}),
			wantSources: []types.Source{
				{URL: "https://c.test/etude", Title: "Étude", Description: "résumé", Domain: "c.test"},
			},
		},
		{
			name:  "urls in content",
			reply: chatReply("Voir https://d.test/x. et (https://e.test/y)", nil),
			wantSources: []types.Source{
				{URL: "https://d.test/x", Domain: "d.test", Name: "d.test"},
				{URL: "https://e.test/y", Domain: "e.test", Name: "e.test"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := perplexityServer(t, http.StatusOK, tt.reply)
			p, err := NewPerplexity(PerplexityConfig{APIKey: "pplx-test", BaseURL: srv.URL + "/"})
			require.NoError(t, err)

			result, err := p.Search(context.Background(), "secrétariat médical")
			require.NoError(t, err)
			assert.NotEmpty(t, result.Content)
			assert.Equal(t, tt.wantSources, result.Sources)
		})
	}
}

func TestPerplexity_Errors(t *testing.T) {
	_, err := NewPerplexity(PerplexityConfig{})
	assert.Error(t, err)

	srv := perplexityServer(t, http.StatusBadRequest, map[string]any{"error": map[string]any{"message": "bad request"}})
	p, err := NewPerplexity(PerplexityConfig{APIKey: "pplx-test", BaseURL: srv.URL + "/"})
	require.NoError(t, err)

	_, err = p.Search(context.Background(), "secrétariat médical")
	var serr *Error
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, ProviderPerplexity, serr.Provider)
}

func TestGoogle_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/customsearch/v1", r.URL.Path)
		assert.Equal(t, "cx-test", r.URL.Query().Get("cx"))
		assert.Equal(t, "agent vocal", r.URL.Query().Get("q"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items": [
			{"title": "Agent vocal IA", "link": "https://www.a.test/agent", "snippet": "Un agent\n vocal répond.", "displayLink": "www.a.test"},
			{"title": "Doublon", "link": "https://www.a.test/agent", "snippet": "x", "displayLink": "www.a.test"}
		]}`))
	}))
	defer srv.Close()

	g, err := NewGoogle(context.Background(), "key", "cx-test", option.WithEndpoint(srv.URL+"/"))
	require.NoError(t, err)

	result, err := g.Search(context.Background(), "agent vocal")
	require.NoError(t, err)
	assert.Contains(t, result.Content, "Un agent vocal répond.")
	assert.Contains(t, result.Content, "Source: https://www.a.test/agent")
	require.Len(t, result.Sources, 1)
	assert.Equal(t, types.Source{
		URL:         "https://www.a.test/agent",
		Title:       "Agent vocal IA",
		Description: "Un agent vocal répond.",
		Domain:      "a.test",
	}, result.Sources[0])
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	p, err := New(ctx, Config{PerplexityAPIKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &Perplexity{}, p)

	p, err = New(ctx, Config{GoogleAPIKey: "k", GoogleCX: "cx"})
	require.NoError(t, err)
	assert.IsType(t, &Google{}, p)

	_, err = New(ctx, Config{})
	assert.Error(t, err)

	_, err = New(ctx, Config{Provider: "bing", PerplexityAPIKey: "k"})
	assert.Error(t, err)
}

type failingProvider struct{}

func (failingProvider) Search(context.Context, string) (*types.SearchResult, error) {
	return nil, errors.New("timeout")
}

func TestDegraded(t *testing.T) {
	tests := []struct {
		name     string
		provider Provider
	}{
		{name: "nil provider", provider: nil},
		{name: "failing provider", provider: failingProvider{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Degraded(tt.provider, nil).Search(context.Background(), "q")
			require.NoError(t, err)
			assert.True(t, result.IsEmpty())
		})
	}
}

func TestNormalizeSources(t *testing.T) {
	got := NormalizeSources([]types.Source{
		{URL: ""},
		{URL: " https://www.Example.com/a "},
		{URL: "https://www.Example.com/a"},
		{URL: "https://x.test", Title: "Titre"},
		{URL: "not a url"},
	})
	assert.Equal(t, []types.Source{
		{URL: "https://www.Example.com/a", Domain: "example.com", Name: "example.com"},
		{URL: "https://x.test", Title: "Titre", Domain: "x.test"},
		{URL: "not a url", Name: "Source"},
	}, got)
}

func TestExtractURLs(t *testing.T) {
	got := ExtractURLs("Sources : https://a.test/x, [lien](https://b.test/y) et https://a.test/x.")
	assert.Equal(t, []string{"https://a.test/x", "https://b.test/y"}, got)
}
