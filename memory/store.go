package memory

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

// DefaultWindow is how far back SearchRecent looks.
const DefaultWindow = 7 * 24 * time.Hour

// ListSeedQueries and ListCommonTerms drive ListAll on backends that can
// only search. Results are best effort and not guaranteed complete.
var (
	ListSeedQueries = []string{" ", "a"}
	ListCommonTerms = []string{"pergunta", "resposta", "explicação", "avaliação", "conclusão"}
)

// Store is the memory contract used by the workflow. It never returns
// backend errors: writes report success as a bool and reads degrade to empty.
// Safe for concurrent use when the backend is.
type Store struct {
	backend     Backend
	scope       Scope
	window      time.Duration
	searchLimit int
	now         func() time.Time
	logger      zerolog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithWindow sets the recency window used by SearchRecent and Recent.
func WithWindow(window time.Duration) Option {
	return func(s *Store) { s.window = window }
}

// WithClock overrides the clock used to compute the recency cutoff.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithSearchLimit caps how many records a single backend search may return.
func WithSearchLimit(limit int) Option {
	return func(s *Store) { s.searchLimit = limit }
}

// NewStore creates a Store for scope over backend.
func NewStore(backend Backend, scope Scope, logger zerolog.Logger, opts ...Option) (*Store, error) {
	if backend == nil {
		return nil, errors.New("memory backend is required")
	}
	s := &Store{
		backend: backend,
		scope:   scope,
		window:  DefaultWindow,
		now:     time.Now,
		logger:  logger.With().Str("component", "memory_store").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.window <= 0 {
		return nil, errors.New("recency window must be positive")
	}
	s.logger.Info().
		Str("memory_id", scope.MemoryID).
		Str("user_id", scope.UserID).
		Dur("window", s.window).
		Msg("Initializing memory store")
	return s, nil
}

// Scope returns the scope this store reads and writes.
func (s *Store) Scope() Scope { return s.scope }

// Append stores a single message. It reports whether the write succeeded.
func (s *Store) Append(ctx context.Context, role Role, content string) bool {
	return s.add(ctx, "Append", []Message{{Role: role, Content: content}})
}

// SaveExchange stores a user message and the assistant reply in one backend call.
func (s *Store) SaveExchange(ctx context.Context, user, assistant string) bool {
	return s.add(ctx, "SaveExchange", []Message{
		{Role: RoleUser, Content: user},
		{Role: RoleAssistant, Content: assistant},
	})
}

// add hands msgs to the backend as they are. Empty content is a valid
// record, e.g. a model reply with nothing to say.
func (s *Store) add(ctx context.Context, method string, msgs []Message) bool {
	if _, err := s.backend.Add(ctx, s.scope, msgs); err != nil {
		s.logger.Warn().Str("method", method).Err(err).Msg("memory write failed")
		return false
	}
	return true
}

// Recent returns records matching query created within the window, in
// backend order. A record exactly at the cutoff is included.
func (s *Store) Recent(ctx context.Context, query string) []Record {
	cutoff := s.now().UTC().Add(-s.window)
	results, err := s.backend.Search(ctx, s.scope, SearchQuery{
		Text:  query,
		After: &cutoff,
		Limit: s.searchLimit,
	})
	if err != nil {
		s.logger.Warn().
			Str("method", "Recent").
			Str("query", truncateString(query, 40)).
			Err(err).
			Msg("memory search failed")
		return nil
	}
	return lo.Filter(results, func(r Record, _ int) bool {
		return !r.CreatedAt.Before(cutoff)
	})
}

// SearchRecent joins the content of Recent(query) with newlines.
// Returns "" when nothing matches or the backend fails.
func (s *Store) SearchRecent(ctx context.Context, query string) string {
	recent := s.Recent(ctx, query)
	return strings.Join(lo.Map(recent, func(r Record, _ int) string { return r.Content }), "\n")
}

// ListAll returns every record it can find, without duplicate ids.
// A Lister backend is asked directly; otherwise, or if listing fails, the
// seed queries and common terms are searched and the results accumulated
// in discovery order.
func (s *Store) ListAll(ctx context.Context) []Record {
	if lister, ok := s.backend.(Lister); ok {
		records, err := lister.List(ctx, s.scope)
		if err == nil {
			return lo.UniqBy(records, func(r Record) string { return r.ID })
		}
		s.logger.Warn().Str("method", "ListAll").Err(err).Msg("listing failed, falling back to search")
	}

	var all []Record
	queries := append(append([]string{}, ListSeedQueries...), ListCommonTerms...)
	for _, q := range queries {
		results, err := s.backend.Search(ctx, s.scope, SearchQuery{Text: q, Limit: s.searchLimit})
		if err != nil {
			s.logger.Debug().Str("method", "ListAll").Str("query", q).Err(err).Msg("search failed")
			continue
		}
		all = append(all, results...)
	}
	return lo.UniqBy(all, func(r Record) string { return r.ID })
}

// truncateString shortens s to n runes for log output.
func truncateString(s string, n int) string {
	rs := []rune(s)
	if len(rs) > n {
		return string(rs[:n]) + "..."
	}
	return s
}
