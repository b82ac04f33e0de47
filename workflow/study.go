package workflow

import (
	"github.com/aschepis/backscratcher/study/retrieval"
	"github.com/rs/zerolog"
)

// Deps are the collaborators of the study assistant. The host constructs
// them once and passes them in; the engine keeps no global state.
type Deps struct {
	Generator Generator
	Retriever retrieval.Retriever
	Memory    Memory
	Logger    zerolog.Logger

	// TopK defaults to DefaultTopK.
	TopK int
	// QuizLimit defaults to DefaultQuizCap.
	QuizLimit int
	// ContextTokens bounds assembled context; zero means unbounded.
	ContextTokens int
	// TokenCounter measures ContextTokens; defaults to retrieval.ApproxTokens.
	TokenCounter retrieval.TokenCounter

	Observers []Observer
}

// NewStudyEngine wires the classifier and the three default handlers.
func NewStudyEngine(d Deps) (*Engine, error) {
	topK := d.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}
	assembler := NewContextAssembler(d.Retriever, d.Memory, d.Logger,
		WithTopK(topK),
		WithTokenBudget(d.ContextTokens, d.TokenCounter),
	)

	handlers := map[Intent]Handler{
		IntentExplain:          NewExplainHandler(d.Generator, assembler, d.Memory, d.Logger),
		IntentGenerateQuestion: NewQuizHandler(d.Generator, assembler, d.Memory, d.QuizLimit, d.Logger),
		IntentEvaluate:         NewEvaluateHandler(d.Generator, assembler, d.Memory, d.Logger),
	}

	opts := []EngineOption{WithLogger(d.Logger)}
	for _, o := range d.Observers {
		opts = append(opts, WithObserver(o))
	}
	return New(NewClassifier(d.Generator, d.Logger), handlers, opts...)
}
