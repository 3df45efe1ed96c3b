// Package config loads application settings from an optional file, the environment, and .env.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/jonathan/blog-autopilot/internal/cms"
	"github.com/jonathan/blog-autopilot/internal/improve"
	"github.com/jonathan/blog-autopilot/internal/keywords"
	"github.com/jonathan/blog-autopilot/internal/llm"
	"github.com/jonathan/blog-autopilot/internal/search"
	"github.com/jonathan/blog-autopilot/internal/seo"
	"github.com/jonathan/blog-autopilot/internal/topics"
)

// Config holds all application configuration
type Config struct {
	LogMode     string   `mapstructure:"log_mode"`
	DatabaseURL string   `mapstructure:"database_url"`
	LLM         LLM      `mapstructure:"llm"`
	Search      Search   `mapstructure:"search"`
	Sanity      Sanity   `mapstructure:"sanity"`
	Site        Site     `mapstructure:"site"`
	Pipeline    Pipeline `mapstructure:"pipeline"`
	Server      Server   `mapstructure:"server"`
}

// LLM selects the completion provider and its models
type LLM struct {
	Provider      string `mapstructure:"provider"`
	OpenAIAPIKey  string `mapstructure:"openai_api_key"`
	GeminiAPIKey  string `mapstructure:"gemini_api_key"`
	BaseURL       string `mapstructure:"base_url"`
	LiteModel     string `mapstructure:"lite_model"`
	StandardModel string `mapstructure:"standard_model"`
	AdvancedModel string `mapstructure:"advanced_model"`
}

// Search configures web research
type Search struct {
	Provider         string `mapstructure:"provider"`
	PerplexityAPIKey string `mapstructure:"perplexity_api_key"`
	PerplexityModel  string `mapstructure:"perplexity_model"`
	GoogleAPIKey     string `mapstructure:"google_api_key"`
	GoogleCX         string `mapstructure:"google_cx"`
}

// Sanity configures the CMS publisher
type Sanity struct {
	ProjectID     string `mapstructure:"project_id"`
	Dataset       string `mapstructure:"dataset"`
	Token         string `mapstructure:"token"`
	APIVersion    string `mapstructure:"api_version"`
	RevalidateURL string `mapstructure:"revalidate_url"`
	AuthorName    string `mapstructure:"author_name"`
	CategorySlug  string `mapstructure:"category_slug"`
}

// Site describes the blog being written for
type Site struct {
	BaseDomain string `mapstructure:"base_domain"`
	URL        string `mapstructure:"url"`
	BlogURL    string `mapstructure:"blog_url"`
}

// Pipeline tunes the generation run
type Pipeline struct {
	MaxIterations       int     `mapstructure:"max_iterations"`
	MinKeywords         int     `mapstructure:"min_keywords"`
	MaxKeywords         int     `mapstructure:"max_keywords"`
	SimilarityThreshold float64 `mapstructure:"similarity_threshold"`
	ReviewDir           string  `mapstructure:"review_dir"`
	CatalogPath         string  `mapstructure:"catalog_path"`
	KeywordsPath        string  `mapstructure:"keywords_path"`
	UsagePath           string  `mapstructure:"usage_path"`
}

// Server configures the HTTP API
type Server struct {
	Addr string `mapstructure:"addr"`
	// RateLimit enables per-client request limits
	RateLimit bool `mapstructure:"rate_limit"`
	// RateLimitWhitelist lists client IPs that are never limited
	RateLimitWhitelist []string `mapstructure:"rate_limit_whitelist"`
}

// ValidationError names the setting that is missing or out of range
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config error: %s: %s", e.Field, e.Message)
}

// envBindings maps config keys to the environment variables that may set them, first match wins
var envBindings = map[string][]string{
	"log_mode":                  {"LOG_MODE"},
	"database_url":              {"DATABASE_URL"},
	"llm.provider":              {"LLM_PROVIDER"},
	"llm.openai_api_key":        {"OPENAI_API_KEY"},
	"llm.gemini_api_key":        {"GEMINI_API_KEY", "GOOGLE_AI_API_KEY"},
	"llm.base_url":              {"LLM_BASE_URL", "OPENAI_BASE_URL"},
	"search.provider":           {"SEARCH_PROVIDER"},
	"search.perplexity_api_key": {"PERPLEXITY_API_KEY"},
	"search.perplexity_model":   {"PERPLEXITY_MODEL"},
	"search.google_api_key":     {"GOOGLE_CSE_API_KEY", "GOOGLE_SEARCH_API_KEY"},
	"search.google_cx":          {"GOOGLE_CSE_ID", "GOOGLE_SEARCH_ENGINE_ID"},
	"sanity.project_id":         {"SANITY_PROJECT_ID"},
	"sanity.dataset":            {"SANITY_DATASET"},
	"sanity.token":              {"SANITY_TOKEN"},
	"sanity.api_version":        {"SANITY_API_VERSION"},
	"sanity.revalidate_url":     {"REVALIDATE_URL"},
	"sanity.author_name":        {"SANITY_AUTHOR_NAME"},
	"sanity.category_slug":      {"SANITY_CATEGORY_SLUG"},
	"site.base_domain":          {"SITE_BASE_DOMAIN"},
	"site.url":                  {"SITE_URL"},
	"site.blog_url":             {"BLOG_URL"},
	"pipeline.review_dir":       {"REVIEW_DIR"},
	"server.addr":               {"SERVER_ADDR"},
	"server.rate_limit":         {"RATE_LIMIT_ENABLED"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_mode", "dev")
	v.SetDefault("llm.provider", string(llm.ProviderOpenAI))
	v.SetDefault("search.perplexity_model", search.DefaultPerplexityModel)
	v.SetDefault("sanity.dataset", cms.DefaultDataset)
	v.SetDefault("sanity.api_version", cms.DefaultAPIVersion)
	v.SetDefault("sanity.category_slug", "secretariat-medical")
	v.SetDefault("site.base_domain", seo.DefaultBaseDomain)
	v.SetDefault("site.url", cms.DefaultSiteURL)
	v.SetDefault("site.blog_url", cms.DefaultSiteURL+"/blog")
	v.SetDefault("pipeline.max_iterations", improve.DefaultMaxIterations)
	v.SetDefault("pipeline.min_keywords", keywords.DefaultMin)
	v.SetDefault("pipeline.max_keywords", keywords.DefaultMax)
	v.SetDefault("pipeline.similarity_threshold", topics.DefaultThreshold)
	v.SetDefault("pipeline.review_dir", "articles")
	v.SetDefault("pipeline.catalog_path", "data/articles.json")
	v.SetDefault("pipeline.keywords_path", "data/keywords.json")
	v.SetDefault("pipeline.usage_path", "data/token_history.json")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.rate_limit", true)
}

// LoadEnv loads .env from the working directory when present
func LoadEnv() error {
	if _, err := os.Stat(".env"); err != nil {
		return nil
	}
	if err := godotenv.Load(".env"); err != nil {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

// Load reads configFile (YAML or JSON, optional) and the environment, then validates.
// An empty configFile looks for blog_agent.yaml in the working directory.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("blog_agent")
		v.SetConfigType("yaml")
	}

	for key, envs := range envBindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and enumerations. Credentials are checked by the Require methods.
func (c *Config) Validate() error {
	if _, err := llm.ParseProvider(c.LLM.Provider); err != nil {
		return &ValidationError{Field: "llm.provider", Message: err.Error()}
	}
	switch strings.ToLower(strings.TrimSpace(c.Search.Provider)) {
	case "", search.ProviderPerplexity, search.ProviderGoogle:
	default:
		return &ValidationError{Field: "search.provider", Message: fmt.Sprintf("unknown provider %q", c.Search.Provider)}
	}
	switch strings.ToLower(c.LogMode) {
	case "", "dev", "development", "prod", "production":
	default:
		return &ValidationError{Field: "log_mode", Message: fmt.Sprintf("expected dev or prod, got %q", c.LogMode)}
	}

	p := c.Pipeline
	if p.MaxIterations < 1 {
		return &ValidationError{Field: "pipeline.max_iterations", Message: "must be at least 1"}
	}
	if p.MinKeywords < 0 {
		return &ValidationError{Field: "pipeline.min_keywords", Message: "must be non-negative"}
	}
	if p.MaxKeywords < 1 || p.MaxKeywords < p.MinKeywords {
		return &ValidationError{Field: "pipeline.max_keywords", Message: "must be at least 1 and not below min_keywords"}
	}
	if p.SimilarityThreshold <= 0 || p.SimilarityThreshold > 1 {
		return &ValidationError{Field: "pipeline.similarity_threshold", Message: "must be in (0, 1]"}
	}
	return nil
}

// RequireLLM checks that the selected LLM provider has an API key
func (c *Config) RequireLLM() error {
	if c.LLMAPIKey() == "" {
		provider, _ := llm.ParseProvider(c.LLM.Provider)
		field := "llm.openai_api_key"
		if provider == llm.ProviderGemini {
			field = "llm.gemini_api_key"
		}
		return &ValidationError{Field: field, Message: "API key is required"}
	}
	return nil
}

// RequireSanity checks the settings needed to publish
func (c *Config) RequireSanity() error {
	if c.Sanity.ProjectID == "" {
		return &ValidationError{Field: "sanity.project_id", Message: "is required to publish"}
	}
	if c.Sanity.Token == "" {
		return &ValidationError{Field: "sanity.token", Message: "is required to publish"}
	}
	return nil
}

// LLMConfig builds the llm configuration, overriding default models where set
func (c *Config) LLMConfig() *llm.Config {
	provider, err := llm.ParseProvider(c.LLM.Provider)
	if err != nil {
		provider = llm.ProviderOpenAI
	}
	cfg := llm.ConfigFor(provider)
	cfg.BaseURL = c.LLM.BaseURL
	overrides := map[llm.ModelTier]string{
		llm.TierLite:     c.LLM.LiteModel,
		llm.TierStandard: c.LLM.StandardModel,
		llm.TierAdvanced: c.LLM.AdvancedModel,
	}
	for tier, model := range overrides {
		if model != "" {
			cfg = cfg.WithModel(tier, model)
		}
	}
	return cfg
}

// LLMAPIKey returns the key of the selected LLM provider
func (c *Config) LLMAPIKey() string {
	if provider, _ := llm.ParseProvider(c.LLM.Provider); provider == llm.ProviderGemini {
		return c.LLM.GeminiAPIKey
	}
	return c.LLM.OpenAIAPIKey
}

// SearchConfig builds the search provider configuration
func (c *Config) SearchConfig() search.Config {
	return search.Config{
		Provider:         c.Search.Provider,
		PerplexityAPIKey: c.Search.PerplexityAPIKey,
		PerplexityModel:  c.Search.PerplexityModel,
		GoogleAPIKey:     c.Search.GoogleAPIKey,
		GoogleCX:         c.Search.GoogleCX,
	}
}

// SanityConfig builds the CMS client configuration
func (c *Config) SanityConfig() cms.Config {
	return cms.Config{
		ProjectID:     c.Sanity.ProjectID,
		Dataset:       c.Sanity.Dataset,
		Token:         c.Sanity.Token,
		APIVersion:    c.Sanity.APIVersion,
		RevalidateURL: c.Sanity.RevalidateURL,
		AuthorName:    c.Sanity.AuthorName,
		CategorySlug:  c.Sanity.CategorySlug,
		SiteURL:       c.Site.URL,
	}
}
