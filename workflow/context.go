package workflow

import (
	"context"
	"strings"

	"github.com/aschepis/backscratcher/study/memory"
	"github.com/aschepis/backscratcher/study/retrieval"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

// DefaultTopK is how many passages handlers retrieve.
const DefaultTopK = 4

// NoContextMarker is placed in the context section of a prompt when the
// retriever returned nothing usable. Prompts instruct the model to say the
// material is insufficient when they see it.
const NoContextMarker = "[SEM CONTEXTO: nenhum trecho relevante foi encontrado no material de estudo]"

// NoHistoryMarker stands in for an empty recent-history section.
const NoHistoryMarker = "(sem histórico recente)"

// Memory is what handlers need from the memory store. *memory.Store
// implements it.
type Memory interface {
	Recent(ctx context.Context, query string) []memory.Record
	SaveExchange(ctx context.Context, user, assistant string) bool
}

// AssembledContext is the bounded context of one prompt.
type AssembledContext struct {
	Passages []string
	History  []string
}

// Empty reports whether no passages were retrieved.
func (c AssembledContext) Empty() bool { return len(c.Passages) == 0 }

// PassageSection renders passages newline-joined, or NoContextMarker.
func (c AssembledContext) PassageSection() string {
	if c.Empty() {
		return NoContextMarker
	}
	return strings.Join(c.Passages, "\n")
}

// HistorySection renders history newline-joined, or NoHistoryMarker.
func (c AssembledContext) HistorySection() string {
	if len(c.History) == 0 {
		return NoHistoryMarker
	}
	return strings.Join(c.History, "\n")
}

// ContextAssembler gathers passages and recent memory for a prompt.
// Retrieval and memory failures degrade to an empty section.
type ContextAssembler struct {
	retriever retrieval.Retriever
	memory    Memory
	topK      int
	maxTokens int
	count     retrieval.TokenCounter
	logger    zerolog.Logger
}

// AssemblerOption configures a ContextAssembler.
type AssemblerOption func(*ContextAssembler)

// WithTopK sets how many passages are requested from the retriever.
func WithTopK(k int) AssemblerOption {
	return func(a *ContextAssembler) { a.topK = k }
}

// WithTokenBudget bounds the combined size of passages and history.
// Zero disables the bound.
func WithTokenBudget(maxTokens int, count retrieval.TokenCounter) AssemblerOption {
	return func(a *ContextAssembler) {
		a.maxTokens = maxTokens
		if count != nil {
			a.count = count
		}
	}
}

// NewContextAssembler creates an assembler. Either collaborator may be nil,
// in which case its section is always empty.
func NewContextAssembler(retriever retrieval.Retriever, mem Memory, logger zerolog.Logger, opts ...AssemblerOption) *ContextAssembler {
	a := &ContextAssembler{
		retriever: retriever,
		memory:    mem,
		topK:      DefaultTopK,
		count:     retrieval.ApproxTokens,
		logger:    logger.With().Str("component", "context_assembler").Logger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assemble retrieves passages for passageQuery and, when memoryQuery is
// non-empty, recent memory for memoryQuery. Identical passages are kept
// once in retriever order. Under a token budget, passages are admitted
// before history and entries that do not fit whole are dropped.
func (a *ContextAssembler) Assemble(ctx context.Context, passageQuery, memoryQuery string) AssembledContext {
	var out AssembledContext
	used := 0
	admit := func(text string) bool {
		if a.maxTokens <= 0 {
			return true
		}
		n := a.count(text)
		if used+n > a.maxTokens {
			return false
		}
		used += n
		return true
	}

	for _, p := range a.passages(ctx, passageQuery) {
		if admit(p) {
			out.Passages = append(out.Passages, p)
		}
	}

	if memoryQuery != "" && a.memory != nil {
		for _, rec := range a.memory.Recent(ctx, memoryQuery) {
			if strings.TrimSpace(rec.Content) != "" && admit(rec.Content) {
				out.History = append(out.History, rec.Content)
			}
		}
	}

	a.logger.Debug().
		Int("passages", len(out.Passages)).
		Int("history", len(out.History)).
		Int("tokens", used).
		Msg("assembled context")
	return out
}

func (a *ContextAssembler) passages(ctx context.Context, query string) []string {
	if a.retriever == nil || a.topK <= 0 {
		return nil
	}
	found, err := a.retriever.Retrieve(ctx, query, a.topK)
	if err != nil {
		a.logger.Warn().Err(err).Msg("retrieval failed, continuing without passages")
		return nil
	}
	texts := lo.FilterMap(found, func(p retrieval.Passage, _ int) (string, bool) {
		text := strings.TrimSpace(p.Text)
		return text, text != ""
	})
	return lo.Uniq(texts)
}
