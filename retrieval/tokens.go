package retrieval

import (
	"fmt"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
	"github.com/rs/zerolog"
)

// DefaultEncoding is the tiktoken encoding used for budgets and chunking.
const DefaultEncoding = "cl100k_base"

// TokenCounter reports how many model tokens text occupies.
type TokenCounter func(text string) int

// ApproxTokens estimates tokens as one per four bytes of UTF-8, rounded up.
func ApproxTokens(text string) int {
	if text == "" {
		return 0
	}
	n := (len(text) + 3) / 4
	if runes := utf8.RuneCountInString(text); n > runes {
		n = runes
	}
	return n
}

// NewTiktokenCounter loads encoding and counts with it. Loading may fetch
// the BPE ranks over the network on first use.
func NewTiktokenCounter(encoding string) (TokenCounter, error) {
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("load tiktoken encoding %q: %w", encoding, err)
	}
	return func(text string) int {
		if text == "" {
			return 0
		}
		return len(enc.Encode(text, nil, nil))
	}, nil
}

// DefaultTokenCounter returns a tiktoken counter, or ApproxTokens when the
// encoding cannot be loaded.
func DefaultTokenCounter(logger zerolog.Logger) TokenCounter {
	counter, err := NewTiktokenCounter(DefaultEncoding)
	if err != nil {
		logger.Warn().Err(err).Msg("tiktoken unavailable, using approximate token counts")
		return ApproxTokens
	}
	return counter
}
