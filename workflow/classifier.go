package workflow

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Generator turns a prompt into model text. llm.Gateway implements it.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// IntentClassifier picks the intent for a question. Implementations must be
// total: every question maps to a valid intent.
type IntentClassifier interface {
	Classify(ctx context.Context, question string) Intent
}

// Classifier asks the model for a label with a single call and parses the
// reply with ParseIntent. Generation errors fall back to DefaultIntent.
type Classifier struct {
	gen    Generator
	logger zerolog.Logger
}

// NewClassifier creates a Classifier over gen.
func NewClassifier(gen Generator, logger zerolog.Logger) *Classifier {
	return &Classifier{
		gen:    gen,
		logger: logger.With().Str("component", "classifier").Logger(),
	}
}

// ClassificationPrompt is the fixed instruction sent to the model.
func ClassificationPrompt(question string) string {
	return fmt.Sprintf(
		"Você é um classificador de mensagens. Analise a seguinte mensagem de um estudante: '%s'. "+
			"Responda apenas com uma destas palavras: %s, %s ou %s.",
		question, IntentExplain, IntentGenerateQuestion, IntentEvaluate,
	)
}

// Classify implements IntentClassifier.
func (c *Classifier) Classify(ctx context.Context, question string) Intent {
	if c.gen == nil {
		return DefaultIntent
	}
	reply, err := c.gen.Generate(ctx, ClassificationPrompt(question))
	if err != nil {
		c.logger.Warn().Err(err).Msg("classification failed, using default intent")
		return DefaultIntent
	}
	intent := ParseIntent(reply)
	c.logger.Debug().
		Str("reply", truncate(reply, 40)).
		Str("intent", intent.String()).
		Msg("classified")
	return intent
}

func truncate(s string, n int) string {
	rs := []rune(s)
	if len(rs) > n {
		return string(rs[:n]) + "..."
	}
	return s
}
