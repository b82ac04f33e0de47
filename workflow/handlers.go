package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

const (
	// QuizPassageQuery samples representative document content for quizzes.
	QuizPassageQuery = "Conteúdo Importante!"
	// QuizMemoryQuery recalls earlier quiz generation.
	QuizMemoryQuery = "gerar perguntas"
	// QuizUserMessage is stored as the user side of a generated quiz.
	QuizUserMessage = "Me pergunte algo"
)

// Handler executes one intent. A returned error means the request failed;
// a failed memory write is reported through Result.Persisted instead.
type Handler interface {
	Handle(ctx context.Context, req Request) (Result, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, req Request) (Result, error)

func (f HandlerFunc) Handle(ctx context.Context, req Request) (Result, error) {
	return f(ctx, req)
}

func generate(ctx context.Context, gen Generator, prompt string) (string, error) {
	if gen == nil {
		return "", fmt.Errorf("%w: no generator configured", ErrGeneration)
	}
	out, err := gen.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrGeneration, err)
	}
	return strings.TrimSpace(out), nil
}

func persist(ctx context.Context, mem Memory, logger zerolog.Logger, user, assistant string) bool {
	if mem == nil {
		return false
	}
	ok := mem.SaveExchange(ctx, user, assistant)
	if !ok {
		logger.Warn().Msg("answer delivered without persistence")
	}
	return ok
}

// ExplainHandler answers a question from retrieved passages and recent memory.
type ExplainHandler struct {
	gen       Generator
	assembler *ContextAssembler
	memory    Memory
	logger    zerolog.Logger
}

// NewExplainHandler creates an ExplainHandler.
func NewExplainHandler(gen Generator, assembler *ContextAssembler, mem Memory, logger zerolog.Logger) *ExplainHandler {
	return &ExplainHandler{
		gen:       gen,
		assembler: assembler,
		memory:    mem,
		logger:    logger.With().Str("component", "explain_handler").Logger(),
	}
}

// Handle implements Handler.
func (h *ExplainHandler) Handle(ctx context.Context, req Request) (Result, error) {
	c := h.assembler.Assemble(ctx, req.Question, req.Question)
	if c.Empty() {
		h.logger.Info().Msg("no passages retrieved, prompting with no-context marker")
	}

	answer, err := generate(ctx, h.gen, explainPrompt(req.Question, c, DetectLanguage(req.Question)))
	if err != nil {
		return Result{}, err
	}

	return Result{
		Answer:    answer,
		Persisted: persist(ctx, h.memory, h.logger, req.Question, answer),
	}, nil
}

// QuizHandler generates multiple-choice questions about the document.
type QuizHandler struct {
	gen       Generator
	assembler *ContextAssembler
	memory    Memory
	limit     int
	logger    zerolog.Logger
}

// NewQuizHandler creates a QuizHandler. limit caps the requested question
// count; zero means DefaultQuizCap.
func NewQuizHandler(gen Generator, assembler *ContextAssembler, mem Memory, limit int, logger zerolog.Logger) *QuizHandler {
	return &QuizHandler{
		gen:       gen,
		assembler: assembler,
		memory:    mem,
		limit:     limit,
		logger:    logger.With().Str("component", "quiz_handler").Logger(),
	}
}

// Handle implements Handler. The question text only selects the language
// and the question count.
func (h *QuizHandler) Handle(ctx context.Context, req Request) (Result, error) {
	n := ParseQuestionCount(req.Question, h.limit)
	c := h.assembler.Assemble(ctx, QuizPassageQuery, QuizMemoryQuery)

	raw, err := generate(ctx, h.gen, quizPrompt(n, c, DetectLanguage(req.Question)))
	if err != nil {
		return Result{}, err
	}

	quiz := h.normalize(raw, n)
	return Result{
		Answer:    quiz,
		Persisted: persist(ctx, h.memory, h.logger, QuizUserMessage, quiz),
	}, nil
}

// normalize rewrites parseable output in the canonical layout, keeping at
// most n questions. Output with fewer than n parseable questions is
// returned as generated.
func (h *QuizHandler) normalize(raw string, n int) string {
	questions := ParseQuiz(raw)
	if len(questions) < n {
		h.logger.Warn().
			Int("requested", n).
			Int("parsed", len(questions)).
			Msg("quiz output does not match the expected format")
		return raw
	}
	return FormatQuiz(questions[:n])
}

// EvaluateHandler judges a user's answer against retrieved passages.
// It reads no memory but persists the exchange.
type EvaluateHandler struct {
	gen       Generator
	assembler *ContextAssembler
	memory    Memory
	logger    zerolog.Logger
}

// NewEvaluateHandler creates an EvaluateHandler.
func NewEvaluateHandler(gen Generator, assembler *ContextAssembler, mem Memory, logger zerolog.Logger) *EvaluateHandler {
	return &EvaluateHandler{
		gen:       gen,
		assembler: assembler,
		memory:    mem,
		logger:    logger.With().Str("component", "evaluate_handler").Logger(),
	}
}

// NoAnswerEvaluation opens every evaluation of a blank answer.
const NoAnswerEvaluation = "Nenhuma resposta foi fornecida para avaliação."

// Handle implements Handler. A blank answer is evaluated, not rejected.
func (h *EvaluateHandler) Handle(ctx context.Context, req Request) (Result, error) {
	c := h.assembler.Assemble(ctx, req.Question, "")

	evaluation, err := generate(ctx, h.gen, evaluatePrompt(req.Question, req.UserAnswer, c, DetectLanguage(req.Question)))
	if err != nil {
		return Result{}, err
	}
	if strings.TrimSpace(req.UserAnswer) == "" {
		evaluation = strings.TrimSpace(NoAnswerEvaluation + "\n\n" + evaluation)
	}

	user := fmt.Sprintf("%s\nResposta: %s", req.Question, req.UserAnswer)
	return Result{
		Evaluation: evaluation,
		Persisted:  persist(ctx, h.memory, h.logger, user, evaluation),
	}, nil
}

var (
	_ Handler = (*ExplainHandler)(nil)
	_ Handler = (*QuizHandler)(nil)
	_ Handler = (*EvaluateHandler)(nil)
)
