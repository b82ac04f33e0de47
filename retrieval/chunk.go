package retrieval

import (
	"strings"
	"unicode"
)

// Chunk is a contiguous piece of a document.
type Chunk struct {
	Text      string
	TokenSize int
	Index     int
}

// ChunkerConfig bounds chunk sizes in tokens.
type ChunkerConfig struct {
	MaxTokens     int
	OverlapTokens int
}

// DefaultChunkerConfig suits small embedding models with a 512 token context.
func DefaultChunkerConfig() ChunkerConfig {
	return ChunkerConfig{
		MaxTokens:     400,
		OverlapTokens: 50,
	}
}

var sentenceEnders = map[rune]bool{
	'.': true, '!': true, '?': true, '…': true,
}

// ChunkText splits text into sentence-aligned chunks of at most
// cfg.MaxTokens tokens as measured by count. Consecutive chunks share up to
// cfg.OverlapTokens tokens of trailing sentences. Sentences longer than the
// limit are split on word boundaries.
func ChunkText(text string, cfg ChunkerConfig, count TokenCounter) []Chunk {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if count == nil {
		count = ApproxTokens
	}
	if cfg.MaxTokens <= 0 {
		cfg = DefaultChunkerConfig()
	}

	sentences := splitSentences(text)

	var (
		chunks  []Chunk
		current strings.Builder
		tokens  int
	)
	flush := func() {
		if current.Len() == 0 {
			return
		}
		chunks = append(chunks, Chunk{
			Text:      strings.TrimSpace(current.String()),
			TokenSize: tokens,
			Index:     len(chunks),
		})
		current.Reset()
		tokens = 0
	}

	for i, sentence := range sentences {
		sentenceTokens := count(sentence)

		if sentenceTokens > cfg.MaxTokens {
			flush()
			for _, part := range splitLongSentence(sentence, cfg.MaxTokens, count) {
				chunks = append(chunks, Chunk{
					Text:      part,
					TokenSize: count(part),
					Index:     len(chunks),
				})
			}
			continue
		}

		if tokens+sentenceTokens > cfg.MaxTokens && current.Len() > 0 {
			flush()
			overlap := overlapFrom(sentences, i, cfg.OverlapTokens, count)
			if overlap != "" && count(overlap)+sentenceTokens <= cfg.MaxTokens {
				current.WriteString(overlap)
				tokens = count(overlap)
			}
		}

		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(sentence)
		tokens += sentenceTokens
	}
	flush()

	return chunks
}

// splitLongSentence packs words greedily into parts of at most maxTokens.
// A single word over the limit becomes its own part.
func splitLongSentence(sentence string, maxTokens int, count TokenCounter) []string {
	var (
		parts   []string
		current []string
	)
	for _, word := range strings.Fields(sentence) {
		candidate := strings.Join(append(current, word), " ")
		if len(current) > 0 && count(candidate) > maxTokens {
			parts = append(parts, strings.Join(current, " "))
			current = []string{word}
			continue
		}
		current = append(current, word)
	}
	if len(current) > 0 {
		parts = append(parts, strings.Join(current, " "))
	}
	return parts
}

func splitSentences(text string) []string {
	var sentences []string
	for _, para := range splitParagraphs(text) {
		var current strings.Builder
		runes := []rune(para)
		for i, r := range runes {
			current.WriteRune(r)
			if sentenceEnders[r] && (i+1 >= len(runes) || unicode.IsSpace(runes[i+1])) {
				if s := strings.TrimSpace(current.String()); s != "" {
					sentences = append(sentences, s)
				}
				current.Reset()
			}
		}
		if s := strings.TrimSpace(current.String()); s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

func splitParagraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var result []string
	for _, p := range strings.Split(text, "\n\n") {
		// soft wraps inside a paragraph
		p = strings.TrimSpace(strings.ReplaceAll(p, "\n", " "))
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

func overlapFrom(sentences []string, idx, target int, count TokenCounter) string {
	if idx == 0 || target <= 0 {
		return ""
	}
	var (
		overlap []string
		tokens  int
	)
	for i := idx - 1; i >= 0; i-- {
		t := count(sentences[i])
		if tokens+t > target {
			break
		}
		overlap = append([]string{sentences[i]}, overlap...)
		tokens += t
	}
	return strings.Join(overlap, " ")
}
