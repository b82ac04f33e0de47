package retrieval

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wordCount keeps tests independent of tiktoken's downloadable ranks.
func wordCount(text string) int { return len(strings.Fields(text)) }

func TestChunkText_Empty(t *testing.T) {
	assert.Nil(t, ChunkText("   \n\n ", DefaultChunkerConfig(), wordCount))
}

func TestChunkText_RespectsMaxTokens(t *testing.T) {
	text := "One two three. Four five six. Seven eight nine.\n\nTen eleven twelve."
	chunks := ChunkText(text, ChunkerConfig{MaxTokens: 6}, wordCount)

	require.Len(t, chunks, 2)
	assert.Equal(t, "One two three. Four five six.", chunks[0].Text)
	assert.Equal(t, "Seven eight nine. Ten eleven twelve.", chunks[1].Text)
	for i, c := range chunks {
		assert.LessOrEqual(t, c.TokenSize, 6)
		assert.Equal(t, i, c.Index)
	}
}

func TestChunkText_Overlap(t *testing.T) {
	text := "A b. C d. E f. G h."
	chunks := ChunkText(text, ChunkerConfig{MaxTokens: 4, OverlapTokens: 2}, wordCount)

	require.Len(t, chunks, 3)
	assert.Equal(t, "A b. C d.", chunks[0].Text)
	assert.Equal(t, "C d. E f.", chunks[1].Text)
	assert.Equal(t, "E f. G h.", chunks[2].Text)
}

func TestChunkText_SplitsLongSentence(t *testing.T) {
	text := "um dois tres quatro cinco seis sete"
	chunks := ChunkText(text, ChunkerConfig{MaxTokens: 3}, wordCount)

	require.Len(t, chunks, 3)
	assert.Equal(t, "um dois tres", chunks[0].Text)
	assert.Equal(t, "quatro cinco seis", chunks[1].Text)
	assert.Equal(t, "sete", chunks[2].Text)
}

func TestChunkText_SoftWrapsJoin(t *testing.T) {
	chunks := ChunkText("linha um\nlinha dois.", DefaultChunkerConfig(), nil)
	require.Len(t, chunks, 1)
	assert.Equal(t, "linha um linha dois.", chunks[0].Text)
}

func TestApproxTokens(t *testing.T) {
	assert.Equal(t, 0, ApproxTokens(""))
	assert.Equal(t, 1, ApproxTokens("abc"))
	assert.Equal(t, 3, ApproxTokens("abcdefghij"))
	assert.Equal(t, 1, ApproxTokens("çã"))
}
