package config

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aschepis/backscratcher/study/llm"
)

// NewClient resolves the first enabled and configured provider from llm_providers and builds its client.
func NewClient(cfg *Config, logger zerolog.Logger) (llm.Client, *llm.ClientKey, error) {
	registry := llm.NewProviderRegistry(cfg.ProviderConfig(), cfg.LLMProviders)
	key, err := registry.Resolve(nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve llm provider: %w", err)
	}

	var client llm.Client
	switch key.Provider {
	case llm.ProviderAnthropic:
		client, err = NewAnthropicClient(cfg, key.Model, logger)
	case llm.ProviderOpenAI:
		client, err = NewOpenAIClient(cfg, key.Model)
	case llm.ProviderOllama:
		client, err = NewOllamaClient(cfg, key.Model)
	default:
		err = fmt.Errorf("unknown provider: %s", key.Provider)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create %s client: %w", key.Provider, err)
	}
	return client, key, nil
}
