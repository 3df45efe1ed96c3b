// Package llm provides centralized LLM configuration and client abstractions.
// Callers pick a model tier; the provider configuration maps tiers to concrete models.
package llm

import (
	"context"
	"fmt"
	"time"
)

// DefaultTemperature is used when a prompt does not set one
const DefaultTemperature = 0.7

// Prompt is one completion request
type Prompt struct {
	System string
	User   string
	// Temperature is used as-is when non-nil
	Temperature *float64
	// Operation labels the call in usage records (e.g. "score_article")
	Operation string
}

// Temp returns a temperature pointer for Prompt literals
func Temp(v float64) *float64 {
	return &v
}

func (p Prompt) temperature() float64 {
	if p.Temperature == nil {
		return DefaultTemperature
	}
	return *p.Temperature
}

// Client is an abstraction over LLM providers
type Client interface {
	// GenerateText returns a free-text completion
	GenerateText(ctx context.Context, prompt Prompt, tier ModelTier) (string, error)
	// GenerateStructured returns a JSON object completion with code fences removed
	GenerateStructured(ctx context.Context, prompt Prompt, tier ModelTier) (string, error)
	// GetModel returns the underlying provider model for a tier
	GetModel(tier ModelTier) string
	// Close releases any resources held by the client
	Close() error
}

// Usage is the token accounting of one completion
type Usage struct {
	Provider         Provider  `json:"provider"`
	Model            string    `json:"model"`
	Operation        string    `json:"operation"`
	PromptTokens     int64     `json:"prompt_tokens"`
	CompletionTokens int64     `json:"completion_tokens"`
	TotalTokens      int64     `json:"total_tokens"`
	Timestamp        time.Time `json:"timestamp"`
}

// UsageRecorder receives the usage of every successful completion
type UsageRecorder interface {
	RecordUsage(u Usage)
}

// NewClient creates a new LLM client based on configuration.
// recorder may be nil.
func NewClient(ctx context.Context, config *Config, apiKey string, recorder UsageRecorder) (Client, error) {
	if config == nil {
		config = DefaultConfig()
	}

	switch config.Provider {
	case ProviderOpenAI:
		return NewOpenAIClient(config, apiKey, recorder)
	case ProviderGemini:
		return NewGeminiClient(ctx, config, apiKey, recorder)
	default:
		return nil, fmt.Errorf("unsupported LLM provider %q", config.Provider)
	}
}

func record(recorder UsageRecorder, u Usage) {
	if recorder == nil {
		return
	}
	if u.Timestamp.IsZero() {
		u.Timestamp = time.Now().UTC()
	}
	recorder.RecordUsage(u)
}
