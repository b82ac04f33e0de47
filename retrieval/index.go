package retrieval

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

type indexEntry struct {
	text      string
	embedding []float32
}

// Index is an in-memory vector index over document chunks. Safe for
// concurrent use.
type Index struct {
	mu       sync.RWMutex
	embedder Embedder
	entries  []indexEntry
	logger   zerolog.Logger
}

// NewIndex creates an empty index that embeds with embedder.
func NewIndex(embedder Embedder, logger zerolog.Logger) (*Index, error) {
	if embedder == nil {
		return nil, errors.New("embedder is required")
	}
	return &Index{
		embedder: embedder,
		logger:   logger.With().Str("component", "retrieval_index").Logger(),
	}, nil
}

// Add embeds and stores chunks. Nothing is stored if any embedding fails.
func (ix *Index) Add(ctx context.Context, chunks []Chunk) error {
	entries := make([]indexEntry, 0, len(chunks))
	for _, c := range chunks {
		vec, err := ix.embedder.Embed(ctx, c.Text)
		if err != nil {
			return fmt.Errorf("embed chunk %d: %w", c.Index, err)
		}
		entries = append(entries, indexEntry{text: c.Text, embedding: vec})
	}

	ix.mu.Lock()
	ix.entries = append(ix.entries, entries...)
	total := len(ix.entries)
	ix.mu.Unlock()

	ix.logger.Debug().Int("added", len(entries)).Int("total", total).Msg("indexed chunks")
	return nil
}

// Ingest chunks text and adds the chunks. It returns the number of chunks.
func (ix *Index) Ingest(ctx context.Context, text string, cfg ChunkerConfig, count TokenCounter) (int, error) {
	chunks := ChunkText(text, cfg, count)
	if err := ix.Add(ctx, chunks); err != nil {
		return 0, err
	}
	return len(chunks), nil
}

// Len returns the number of indexed chunks.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries)
}

// Retrieve implements Retriever using cosine similarity. Ties keep
// insertion order.
func (ix *Index) Retrieve(ctx context.Context, query string, k int) ([]Passage, error) {
	if k <= 0 {
		return nil, nil
	}
	qvec, err := ix.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	ix.mu.RLock()
	scored := lo.Map(ix.entries, func(e indexEntry, _ int) Passage {
		return Passage{Text: e.text, Score: CosineSimilarity(qvec, e.embedding)}
	})
	ix.mu.RUnlock()

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

// HashEmbedder is a deterministic bag-of-words embedder. Texts sharing words
// get similar vectors. It needs no model server, which makes it suitable for
// offline use and tests.
type HashEmbedder struct {
	Dimensions int
}

// Embed implements Embedder.
func (e HashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	dims := e.Dimensions
	if dims <= 0 {
		dims = 256
	}
	vec := make([]float32, dims)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, word := range words {
		h := fnv.New32a()
		_, _ = h.Write([]byte(word))
		vec[h.Sum32()%uint32(dims)]++ // nolint:gosec // dims is positive
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		n := float32(math.Sqrt(norm))
		for i := range vec {
			vec[i] /= n
		}
	}
	return vec, nil
}

var (
	_ Retriever = (*Index)(nil)
	_ Embedder  = HashEmbedder{}
)
