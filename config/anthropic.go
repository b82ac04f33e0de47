package config

import (
	"github.com/rs/zerolog"

	llmanthropic "github.com/aschepis/backscratcher/study/llm/anthropic"
)

// NewAnthropicClient creates a new Anthropic LLM client from the configuration.
// A non-empty model overrides anthropic.model.
func NewAnthropicClient(cfg *Config, model string, logger zerolog.Logger) (*llmanthropic.AnthropicClient, error) {
	if model == "" {
		model = cfg.Anthropic.Model
	}
	return llmanthropic.NewAnthropicClient(cfg.Anthropic.APIKey, model, logger)
}
