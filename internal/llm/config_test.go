package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, ProviderOpenAI, config.Provider)
	assert.Equal(t, "gpt-4o-mini", config.GetModel(TierLite))
	assert.Equal(t, "gpt-4o", config.GetModel(TierStandard))
	assert.Equal(t, "gpt-4o", config.GetModel(TierAdvanced))
}

func TestConfigFor(t *testing.T) {
	gemini := ConfigFor(ProviderGemini)
	assert.Equal(t, ProviderGemini, gemini.Provider)
	assert.Equal(t, "gemini-2.5-pro", gemini.GetModel(TierAdvanced))

	assert.Equal(t, ProviderOpenAI, ConfigFor(ProviderOpenAI).Provider)
}

func TestGetModel_Fallback(t *testing.T) {
	config := &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierLite: "fallback-model",
		},
	}

	// Unknown tier should fallback to TierStandard, then TierLite
	assert.Equal(t, "fallback-model", config.GetModel("unknown"))
}

func TestGetModel_EmptyConfig(t *testing.T) {
	config := &Config{
		Provider: ProviderGemini,
		Models:   map[ModelTier]string{},
	}

	// Empty config should return empty string
	assert.Equal(t, "", config.GetModel(TierAdvanced))
}

func TestWithModel(t *testing.T) {
	config := DefaultGeminiConfig()
	config.BaseURL = "https://gateway.test/v1"
	newConfig := config.WithModel(TierAdvanced, "custom-model")

	// Original should be unchanged
	assert.Equal(t, "gemini-2.5-pro", config.GetModel(TierAdvanced))

	// New config should have custom model
	assert.Equal(t, "custom-model", newConfig.GetModel(TierAdvanced))

	// Other tiers and the endpoint should be copied
	assert.Equal(t, "gemini-2.5-flash-lite", newConfig.GetModel(TierLite))
	assert.Equal(t, config.BaseURL, newConfig.BaseURL)
}

func TestModelTierConstants(t *testing.T) {
	assert.Equal(t, ModelTier("lite"), TierLite)
	assert.Equal(t, ModelTier("standard"), TierStandard)
	assert.Equal(t, ModelTier("advanced"), TierAdvanced)
}

func TestParseProvider(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Provider
		wantErr bool
	}{
		{name: "openai", input: "openai", want: ProviderOpenAI},
		{name: "gemini mixed case", input: " Gemini ", want: ProviderGemini},
		{name: "empty defaults to openai", input: "", want: ProviderOpenAI},
		{name: "unknown", input: "anthropic", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseProvider(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewClient_RequiresAPIKey(t *testing.T) {
	_, err := NewClient(context.Background(), DefaultOpenAIConfig(), "", nil)
	assert.Error(t, err)

	_, err = NewClient(context.Background(), &Config{Provider: "unknown"}, "key", nil)
	assert.Error(t, err)
}

func TestNewClient_OpenAI(t *testing.T) {
	client, err := NewClient(context.Background(), nil, "sk-test", nil)
	assert.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", client.GetModel(TierLite))
	assert.NoError(t, client.Close())
}

type recordingSink struct {
	got []Usage
}

func (r *recordingSink) RecordUsage(u Usage) {
	r.got = append(r.got, u)
}

func TestRecord(t *testing.T) {
	record(nil, Usage{Model: "ignored"})

	sink := &recordingSink{}
	record(sink, Usage{Model: "gpt-4o-mini", TotalTokens: 42})
	assert.Len(t, sink.got, 1)
	assert.False(t, sink.got[0].Timestamp.IsZero())
	assert.Equal(t, int64(42), sink.got[0].TotalTokens)
}

func TestPromptTemperature(t *testing.T) {
	assert.Equal(t, DefaultTemperature, Prompt{}.temperature())
	assert.Equal(t, 0.2, Prompt{Temperature: Temp(0.2)}.temperature())
}
