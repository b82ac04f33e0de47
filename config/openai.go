package config

import (
	llmopenai "github.com/aschepis/backscratcher/study/llm/openai"
)

const huggingFaceRouterURL = llmopenai.HuggingFaceRouterURL

// NewOpenAIClient creates a new OpenAI-compatible LLM client from the configuration.
// A non-empty model overrides openai.model.
func NewOpenAIClient(cfg *Config, model string) (*llmopenai.OpenAIClient, error) {
	if model == "" {
		model = cfg.OpenAI.Model
	}
	return llmopenai.NewOpenAIClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, model, cfg.OpenAI.Organization)
}
