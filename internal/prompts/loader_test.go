package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_ValidPrompt(t *testing.T) {
	ClearCache()

	tmpl, err := Get("scoring.json", "score-article")
	require.NoError(t, err)
	assert.Contains(t, tmpl.System, "global_score")
	assert.Contains(t, tmpl.User, "{{.Article}}")
}

func TestGet_InvalidFile(t *testing.T) {
	ClearCache()

	_, err := Get("nonexistent.json", "some-key")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read prompt file")
}

func TestGet_InvalidKey(t *testing.T) {
	ClearCache()

	_, err := Get("scoring.json", "nonexistent-key")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestMustGet_Panics(t *testing.T) {
	ClearCache()

	assert.Panics(t, func() {
		MustGet("nonexistent.json", "some-key")
	})
}

func TestShippedPromptsLoad(t *testing.T) {
	ClearCache()

	tests := []struct {
		name string
		file string
		key  string
	}{
		{name: "generate", file: "article.json", key: "generate-article"},
		{name: "regenerate", file: "article.json", key: "regenerate-with-feedback"},
		{name: "score", file: "scoring.json", key: "score-article"},
		{name: "seo", file: "seo.json", key: "optimize-seo"},
		{name: "translate", file: "translation.json", key: "translate-article"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				tmpl := MustGet(tt.file, tt.key)
				assert.NotEmpty(t, tmpl.System)
				assert.NotEmpty(t, tmpl.User)
			})
		})
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		template string
		data     map[string]string
		want     string
	}{
		{
			name:     "replaces placeholders",
			template: "Sujet {{.Topic}} pour {{.Audience}}",
			data:     map[string]string{"Topic": "agent vocal", "Audience": "médecins"},
			want:     "Sujet agent vocal pour médecins",
		},
		{
			name:     "no placeholders",
			template: "rien",
			data:     map[string]string{"Key": "Value"},
			want:     "rien",
		},
		{
			name:     "missing data keeps placeholder",
			template: "Bonjour {{.Name}}",
			data:     map[string]string{},
			want:     "Bonjour {{.Name}}",
		},
		{
			name:     "value containing a placeholder is not expanded twice",
			template: "{{.A}}",
			data:     map[string]string{"A": "{{.B}}", "B": "x"},
			want:     "{{.B}}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(tt.template, tt.data))
		})
	}
}

func TestTemplate_Render(t *testing.T) {
	tmpl := Template{System: "Sys {{.X}}", User: "User {{.X}}"}
	p := tmpl.Render("op", map[string]string{"X": "1"})

	assert.Equal(t, "Sys 1", p.System)
	assert.Equal(t, "User 1", p.User)
	assert.Equal(t, "op", p.Operation)
	assert.Nil(t, p.Temperature)
}

func TestList(t *testing.T) {
	ClearCache()

	keys, err := List("article.json")
	require.NoError(t, err)
	assert.Equal(t, []string{"generate-article", "regenerate-with-feedback"}, keys)
}

func TestCaching(t *testing.T) {
	ClearCache()

	first, err := Get("seo.json", "optimize-seo")
	require.NoError(t, err)

	second, err := Get("seo.json", "optimize-seo")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
