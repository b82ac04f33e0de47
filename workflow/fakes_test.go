package workflow

import (
	"context"
	"sync"

	"github.com/aschepis/backscratcher/study/memory"
	"github.com/aschepis/backscratcher/study/retrieval"
)

// scriptedGenerator answers with reply (or respond, when set) and records prompts.
type scriptedGenerator struct {
	mu      sync.Mutex
	reply   string
	err     error
	respond func(prompt string) string
	prompts []string
}

func (g *scriptedGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return "", g.err
	}
	if g.respond != nil {
		return g.respond(prompt), nil
	}
	return g.reply, nil
}

func (g *scriptedGenerator) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.prompts)
}

type fakeRetriever struct {
	passages []retrieval.Passage
	err      error
	queries  []string
	ks       []int
}

func (r *fakeRetriever) Retrieve(_ context.Context, query string, k int) ([]retrieval.Passage, error) {
	r.queries = append(r.queries, query)
	r.ks = append(r.ks, k)
	if r.err != nil {
		return nil, r.err
	}
	if len(r.passages) > k {
		return r.passages[:k], nil
	}
	return r.passages, nil
}

type exchange struct {
	user, assistant string
}

type fakeMemory struct {
	recent  []memory.Record
	failing bool
	queries []string
	saved   []exchange
}

func (m *fakeMemory) Recent(_ context.Context, query string) []memory.Record {
	m.queries = append(m.queries, query)
	return m.recent
}

func (m *fakeMemory) SaveExchange(_ context.Context, user, assistant string) bool {
	if m.failing {
		return false
	}
	m.saved = append(m.saved, exchange{user, assistant})
	return true
}

func passages(texts ...string) []retrieval.Passage {
	out := make([]retrieval.Passage, len(texts))
	for i, t := range texts {
		out[i] = retrieval.Passage{Text: t}
	}
	return out
}
