package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/blog-autopilot/internal/llm"
)

func validConfig() *Config {
	return &Config{
		LogMode: "dev",
		LLM:     LLM{Provider: "openai"},
		Pipeline: Pipeline{
			MaxIterations:       3,
			MinKeywords:         2,
			MaxKeywords:         4,
			SimilarityThreshold: 0.35,
		},
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("OPENAI_API_KEY", "sk-env")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "sk-env", cfg.LLM.OpenAIAPIKey)
	assert.Equal(t, 3, cfg.Pipeline.MaxIterations)
	assert.Equal(t, 2, cfg.Pipeline.MinKeywords)
	assert.Equal(t, 4, cfg.Pipeline.MaxKeywords)
	assert.Equal(t, 0.35, cfg.Pipeline.SimilarityThreshold)
	assert.Equal(t, "callrounded.com", cfg.Site.BaseDomain)
	assert.Equal(t, "production", cfg.Sanity.Dataset)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.True(t, cfg.Server.RateLimit)
}

func TestLoad_FileAndEnvironment(t *testing.T) {
	content := `
llm:
  provider: gemini
  advanced_model: gemini-custom
pipeline:
  max_iterations: 5
sanity:
  project_id: from-file
`
	path := filepath.Join(t.TempDir(), "blog_agent.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("SANITY_PROJECT_ID", "from-env")
	t.Setenv("GEMINI_API_KEY", "g-key")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, 5, cfg.Pipeline.MaxIterations)
	assert.Equal(t, "from-env", cfg.Sanity.ProjectID)
	assert.Equal(t, "g-key", cfg.LLMAPIKey())

	llmCfg := cfg.LLMConfig()
	assert.Equal(t, llm.ProviderGemini, llmCfg.Provider)
	assert.Equal(t, "gemini-custom", llmCfg.GetModel(llm.TierAdvanced))
	assert.Equal(t, "gemini-2.5-flash-lite", llmCfg.GetModel(llm.TierLite))
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"pipeline": {"max_iterations": 0}}`), 0o644))

	_, err := Load(path)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "pipeline.max_iterations", verr.Field)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*Config)
		field string
	}{
		{name: "valid", edit: func(*Config) {}},
		{name: "unknown llm provider", edit: func(c *Config) { c.LLM.Provider = "anthropic" }, field: "llm.provider"},
		{name: "unknown search provider", edit: func(c *Config) { c.Search.Provider = "bing" }, field: "search.provider"},
		{name: "bad log mode", edit: func(c *Config) { c.LogMode = "verbose" }, field: "log_mode"},
		{name: "zero iterations", edit: func(c *Config) { c.Pipeline.MaxIterations = 0 }, field: "pipeline.max_iterations"},
		{name: "negative min keywords", edit: func(c *Config) { c.Pipeline.MinKeywords = -1 }, field: "pipeline.min_keywords"},
		{name: "max below min", edit: func(c *Config) { c.Pipeline.MaxKeywords = 1 }, field: "pipeline.max_keywords"},
		{name: "threshold out of range", edit: func(c *Config) { c.Pipeline.SimilarityThreshold = 1.5 }, field: "pipeline.similarity_threshold"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.edit(cfg)
			err := cfg.Validate()
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestRequireLLM(t *testing.T) {
	cfg := validConfig()
	var verr *ValidationError
	require.True(t, errors.As(cfg.RequireLLM(), &verr))
	assert.Equal(t, "llm.openai_api_key", verr.Field)

	cfg.LLM.Provider = "gemini"
	require.True(t, errors.As(cfg.RequireLLM(), &verr))
	assert.Equal(t, "llm.gemini_api_key", verr.Field)

	cfg.LLM.GeminiAPIKey = "k"
	assert.NoError(t, cfg.RequireLLM())
}

func TestRequireSanity(t *testing.T) {
	cfg := validConfig()
	var verr *ValidationError
	require.True(t, errors.As(cfg.RequireSanity(), &verr))
	assert.Equal(t, "sanity.project_id", verr.Field)

	cfg.Sanity.ProjectID = "p"
	require.True(t, errors.As(cfg.RequireSanity(), &verr))
	assert.Equal(t, "sanity.token", verr.Field)

	cfg.Sanity.Token = "t"
	assert.NoError(t, cfg.RequireSanity())
}

func TestSanityAndSearchConfig(t *testing.T) {
	cfg := validConfig()
	cfg.Sanity = Sanity{ProjectID: "p", Token: "t", AuthorName: "Jane"}
	cfg.Site.URL = "https://example.test"
	cfg.Search = Search{Provider: "google", GoogleAPIKey: "g", GoogleCX: "cx"}

	sc := cfg.SanityConfig()
	assert.Equal(t, "p", sc.ProjectID)
	assert.Equal(t, "Jane", sc.AuthorName)
	assert.Equal(t, "https://example.test", sc.SiteURL)

	search := cfg.SearchConfig()
	assert.Equal(t, "google", search.Provider)
	assert.Equal(t, "cx", search.GoogleCX)
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	assert.NoError(t, LoadEnv())

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("BLOG_AGENT_TEST_VAR=hello\n"), 0o644))
	t.Setenv("BLOG_AGENT_TEST_VAR", "")
	require.NoError(t, os.Unsetenv("BLOG_AGENT_TEST_VAR"))
	require.NoError(t, LoadEnv())
	assert.Equal(t, "hello", os.Getenv("BLOG_AGENT_TEST_VAR"))
}
