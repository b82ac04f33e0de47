package memory

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend is a search-only backend. It ignores SearchQuery.After so the
// Store's own window filtering is what gets tested.
type fakeBackend struct {
	mu        sync.Mutex
	records   []Record
	addCalls  [][]Message
	queries   []string
	addErr    error
	searchErr error
	results   map[string][]Record
}

func (f *fakeBackend) Add(ctx context.Context, scope Scope, msgs []Message) ([]Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addCalls = append(f.addCalls, msgs)
	if f.addErr != nil {
		return nil, f.addErr
	}
	var out []Record
	for _, m := range msgs {
		rec := Record{
			ID:        fmt.Sprintf("r%d", len(f.records)),
			CreatedAt: time.Now().UTC(),
			Role:      m.Role,
			Content:   m.Content,
		}
		f.records = append(f.records, rec)
		out = append(out, rec)
	}
	return out, nil
}

func (f *fakeBackend) Search(ctx context.Context, scope Scope, q SearchQuery) ([]Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q.Text)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if f.results != nil {
		return f.results[q.Text], nil
	}
	var out []Record
	for _, r := range f.records {
		if strings.TrimSpace(q.Text) == "" || strings.Contains(strings.ToLower(r.Content), strings.ToLower(q.Text)) {
			out = append(out, r)
		}
	}
	return out, nil
}

type listingBackend struct {
	fakeBackend
	listed  []Record
	listErr error
}

func (l *listingBackend) List(ctx context.Context, scope Scope) ([]Record, error) {
	return l.listed, l.listErr
}

func newTestStore(t *testing.T, backend Backend, opts ...Option) *Store {
	t.Helper()
	store, err := NewStore(backend, DefaultScope, zerolog.Nop(), opts...)
	require.NoError(t, err)
	return store
}

func fixedClock(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}

func TestNewStore_Validation(t *testing.T) {
	_, err := NewStore(nil, DefaultScope, zerolog.Nop())
	assert.Error(t, err)

	_, err = NewStore(&fakeBackend{}, DefaultScope, zerolog.Nop(), WithWindow(0))
	assert.Error(t, err)
}

func TestStore_SaveExchangeIsOneBackendCall(t *testing.T) {
	backend := &fakeBackend{}
	store := newTestStore(t, backend)

	ok := store.SaveExchange(context.Background(), "o que é BGP?", "BGP é um protocolo")
	require.True(t, ok)

	require.Len(t, backend.addCalls, 1)
	assert.Equal(t, []Message{
		{Role: RoleUser, Content: "o que é BGP?"},
		{Role: RoleAssistant, Content: "BGP é um protocolo"},
	}, backend.addCalls[0])
}

func TestStore_AppendFailureIsReportedNotRaised(t *testing.T) {
	backend := &fakeBackend{addErr: errors.New("backend down")}
	store := newTestStore(t, backend)

	assert.False(t, store.Append(context.Background(), RoleUser, "hello"))
	assert.False(t, store.SaveExchange(context.Background(), "q", "a"))
}

func TestStore_EmptyContentIsStored(t *testing.T) {
	backend := &fakeBackend{}
	store := newTestStore(t, backend)

	assert.True(t, store.Append(context.Background(), RoleUser, ""))
	assert.True(t, store.SaveExchange(context.Background(), "explique mitose", "   "))

	require.Len(t, backend.addCalls, 2)
	assert.Equal(t, []Message{{Role: RoleUser, Content: ""}}, backend.addCalls[0])
	assert.Equal(t, []Message{
		{Role: RoleUser, Content: "explique mitose"},
		{Role: RoleAssistant, Content: "   "},
	}, backend.addCalls[1])
}

func TestStore_SearchRecentWindowBoundary(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	cutoff := now.Add(-DefaultWindow)

	backend := &fakeBackend{records: []Record{
		{ID: "old", CreatedAt: cutoff.Add(-time.Nanosecond), Role: RoleUser, Content: "too old"},
		{ID: "edge", CreatedAt: cutoff, Role: RoleUser, Content: "exactly at cutoff"},
		{ID: "new", CreatedAt: now.Add(-time.Hour), Role: RoleAssistant, Content: "fresh"},
	}}
	store := newTestStore(t, backend, WithClock(fixedClock(now)))

	got := store.SearchRecent(context.Background(), " ")
	assert.Equal(t, "exactly at cutoff\nfresh", got)
}

func TestStore_SearchRecentNeverReturnsOldRecords(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	rng := rand.New(rand.NewSource(42))

	var records []Record
	for i := 0; i < 200; i++ {
		age := time.Duration(rng.Int63n(int64(30 * 24 * time.Hour)))
		records = append(records, Record{
			ID:        fmt.Sprintf("id-%d", i),
			CreatedAt: now.Add(-age),
			Role:      RoleUser,
			Content:   fmt.Sprintf("note %d", i),
		})
	}

	for _, days := range []int{1, 3, 7, 14, 29} {
		window := time.Duration(days) * 24 * time.Hour
		store := newTestStore(t, &fakeBackend{records: records}, WithClock(fixedClock(now)), WithWindow(window))

		for _, rec := range store.Recent(context.Background(), "note") {
			assert.False(t, rec.CreatedAt.Before(now.Add(-window)), "window %s returned %s", window, rec.ID)
		}
	}
}

func TestStore_SearchRecentBackendErrorIsEmpty(t *testing.T) {
	store := newTestStore(t, &fakeBackend{searchErr: errors.New("timeout")})
	assert.Equal(t, "", store.SearchRecent(context.Background(), "anything"))
}

func TestStore_RoundTrip(t *testing.T) {
	store := newTestStore(t, &fakeBackend{})
	ctx := context.Background()

	require.True(t, store.Append(ctx, RoleAssistant, "Gabarito: Letra B - roteamento"))
	assert.Equal(t, "Gabarito: Letra B - roteamento", store.SearchRecent(ctx, "Gabarito"))
}

func TestStore_ListAllFallbackDedups(t *testing.T) {
	a := Record{ID: "1", Content: "pergunta sobre redes"}
	b := Record{ID: "2", Content: "resposta correta"}
	c := Record{ID: "3", Content: "explicação"}

	backend := &fakeBackend{results: map[string][]Record{
		" ":          {a},
		"a":          {a, b},
		"pergunta":   {a},
		"resposta":   {b, c},
		"explicação": {c, a},
	}}
	store := newTestStore(t, backend)

	got := store.ListAll(context.Background())

	assert.Equal(t, []Record{a, b, c}, got)
	assert.Equal(t, append(append([]string{}, ListSeedQueries...), ListCommonTerms...), backend.queries)
}

func TestStore_ListAllSkipsFailingQueries(t *testing.T) {
	backend := &fakeBackend{searchErr: errors.New("down")}
	store := newTestStore(t, backend)

	assert.Empty(t, store.ListAll(context.Background()))
	assert.Len(t, backend.queries, len(ListSeedQueries)+len(ListCommonTerms))
}

func TestStore_ListAllPrefersLister(t *testing.T) {
	backend := &listingBackend{listed: []Record{{ID: "x"}, {ID: "y"}, {ID: "x"}}}
	store := newTestStore(t, backend)

	got := store.ListAll(context.Background())

	assert.Equal(t, []Record{{ID: "x"}, {ID: "y"}}, got)
	assert.Empty(t, backend.queries)
}

func TestStore_ListAllListerErrorFallsBack(t *testing.T) {
	backend := &listingBackend{listErr: errors.New("not supported")}
	backend.results = map[string][]Record{"a": {{ID: "only"}}}
	store := newTestStore(t, backend)

	got := store.ListAll(context.Background())

	require.Len(t, got, 1)
	assert.Equal(t, "only", got[0].ID)
}

func TestStore_ConcurrentCallers(t *testing.T) {
	backend := &fakeBackend{}
	store := newTestStore(t, backend)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			store.SaveExchange(ctx, fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i))
			store.SearchRecent(ctx, "q")
		}(i)
	}
	wg.Wait()

	assert.Len(t, backend.addCalls, 16)
	assert.Len(t, store.ListAll(ctx), 32)
}
