// Package ollama provides a retrieval.Embedder backed by an Ollama server.
package ollama

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	llmollama "github.com/aschepis/backscratcher/study/llm/ollama"
	"github.com/aschepis/backscratcher/study/retrieval"
	"github.com/ollama/ollama/api"
)

type Model string

const (
	ModelMXBAI      Model = "mxbai-embed-large"
	ModelNomicEmbed Model = "nomic-embed-text"
)

type embedder struct {
	client *api.Client
	model  Model
}

// NewEmbedder creates an embedder for model. If host is empty the client is
// configured from OLLAMA_HOST.
func NewEmbedder(host string, model Model) (retrieval.Embedder, error) {
	if model == "" {
		return nil, errors.New("embedding model is required")
	}
	if host == "" {
		cli, err := api.ClientFromEnvironment()
		if err != nil {
			return nil, err
		}
		return &embedder{client: cli, model: model}, nil
	}
	baseURL, err := llmollama.ParseHost(host)
	if err != nil {
		return nil, fmt.Errorf("invalid host: %w", err)
	}
	return &embedder{client: api.NewClient(baseURL, &http.Client{}), model: model}, nil
}

func (e *embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.Embed(ctx, &api.EmbedRequest{
		Model: string(e.model),
		Input: text,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to embed text: %w", err)
	}
	if len(resp.Embeddings) == 0 {
		return nil, errors.New("no embeddings returned")
	}
	return resp.Embeddings[0], nil
}
