package config

import (
	"fmt"

	llmollama "github.com/aschepis/backscratcher/study/llm/ollama"
	"github.com/aschepis/backscratcher/study/retrieval"
	retrievalollama "github.com/aschepis/backscratcher/study/retrieval/ollama"
)

// NewOllamaClient creates a new Ollama LLM client from the configuration.
// A non-empty model overrides ollama.model.
func NewOllamaClient(cfg *Config, model string) (*llmollama.OllamaClient, error) {
	if model == "" {
		model = cfg.Ollama.Model
	}
	return llmollama.NewOllamaClient(cfg.Ollama.Host, model)
}

// NewEmbedder returns the embedder selected by retrieval.embedder.
func NewEmbedder(cfg *Config) (retrieval.Embedder, error) {
	switch cfg.Retrieval.Embedder {
	case EmbedderOllama:
		return retrievalollama.NewEmbedder(cfg.Ollama.Host, retrievalollama.Model(cfg.Ollama.EmbeddingModel))
	case EmbedderHash:
		return retrieval.HashEmbedder{Dimensions: 1024}, nil
	default:
		return nil, fmt.Errorf("unknown embedder %q", cfg.Retrieval.Embedder)
	}
}
