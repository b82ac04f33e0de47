// Package retrieval holds the document side of the study assistant:
// chunking ingested text, embedding the chunks and ranking them for a query.
package retrieval

import "context"

// Passage is a retrieved piece of document text. Score is zero when the
// retriever does not rank.
type Passage struct {
	Text  string
	Score float64
}

// Retriever returns up to k passages for query, most relevant first.
// An empty result is not an error.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]Passage, error)
}

// Embedder is a pluggable interface for getting embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
