package memory

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aschepis/backscratcher/study/migrations"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates an in-memory database and runs migrations
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, migrations.RunMigrations(db, zerolog.Nop()))
	return db
}

type steppingClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *steppingClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func (c *steppingClock) set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

func TestSQLiteBackend_AddAssignsIDsAndTimestamps(t *testing.T) {
	db := setupTestDB(t)
	created := time.Date(2025, 1, 2, 3, 4, 5, 6, time.UTC)
	backend := NewSQLiteBackend(db, zerolog.Nop(), WithSQLiteClock(func() time.Time { return created }))

	records, err := backend.Add(context.Background(), DefaultScope, []Message{
		{Role: RoleUser, Content: "q"},
		{Role: RoleAssistant, Content: "a"},
	})
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.NotEqual(t, records[0].ID, records[1].ID)
	assert.Equal(t, created, records[0].CreatedAt)
	assert.Equal(t, RoleAssistant, records[1].Role)

	listed, err := backend.List(context.Background(), DefaultScope)
	require.NoError(t, err)
	assert.Equal(t, records, listed)
}

func TestSQLiteBackend_AddRejectsInvalidRoleAtomically(t *testing.T) {
	db := setupTestDB(t)
	backend := NewSQLiteBackend(db, zerolog.Nop())

	_, err := backend.Add(context.Background(), DefaultScope, []Message{
		{Role: RoleUser, Content: "q"},
		{Role: Role("system"), Content: "nope"},
	})
	require.Error(t, err)

	listed, err := backend.List(context.Background(), DefaultScope)
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestSQLiteBackend_SearchFullText(t *testing.T) {
	db := setupTestDB(t)
	backend := NewSQLiteBackend(db, zerolog.Nop())
	ctx := context.Background()

	_, err := backend.Add(ctx, DefaultScope, []Message{
		{Role: RoleUser, Content: "O que é o protocolo BGP?"},
		{Role: RoleAssistant, Content: "Explicação: BGP troca rotas entre sistemas autônomos."},
		{Role: RoleUser, Content: "Fale sobre OSPF"},
	})
	require.NoError(t, err)

	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"single term", "bgp", 2},
		{"case and punctuation", "What's BGP?!", 2},
		{"accented term", "explicação", 1},
		{"any term matches", "ospf rotas", 2},
		{"no match", "kubernetes", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := backend.Search(ctx, DefaultScope, SearchQuery{Text: tt.query})
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}
}

func TestSQLiteBackend_BlankQueryReturnsMostRecent(t *testing.T) {
	db := setupTestDB(t)
	clock := &steppingClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	backend := NewSQLiteBackend(db, zerolog.Nop(), WithSQLiteClock(clock.now))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := backend.Add(ctx, DefaultScope, []Message{{Role: RoleUser, Content: fmt.Sprintf("m%d", i)}})
		require.NoError(t, err)
	}

	got, err := backend.Search(ctx, DefaultScope, SearchQuery{Text: " ", Limit: 2})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "m4", got[0].Content)
	assert.Equal(t, "m3", got[1].Content)
}

func TestSQLiteBackend_AfterIsInclusive(t *testing.T) {
	db := setupTestDB(t)
	clock := &steppingClock{}
	backend := NewSQLiteBackend(db, zerolog.Nop(), WithSQLiteClock(clock.now))
	ctx := context.Background()

	base := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	for i, content := range []string{"nota antiga", "nota limite", "nota nova"} {
		clock.set(base.Add(time.Duration(i-1) * time.Second))
		_, err := backend.Add(ctx, DefaultScope, []Message{{Role: RoleUser, Content: content}})
		require.NoError(t, err)
	}

	cutoff := base.Add(time.Second)
	got, err := backend.Search(ctx, DefaultScope, SearchQuery{Text: "nota", After: &cutoff})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"nota limite", "nota nova"}, lo.Map(got, func(r Record, _ int) string { return r.Content }))
}

func TestSQLiteBackend_ScopeIsolation(t *testing.T) {
	db := setupTestDB(t)
	backend := NewSQLiteBackend(db, zerolog.Nop())
	ctx := context.Background()

	other := Scope{MemoryID: DefaultScope.MemoryID, UserID: "usuario2"}
	_, err := backend.Add(ctx, other, []Message{{Role: RoleUser, Content: "segredo"}})
	require.NoError(t, err)

	got, err := backend.Search(ctx, DefaultScope, SearchQuery{Text: "segredo"})
	require.NoError(t, err)
	assert.Empty(t, got)

	listed, err := backend.List(ctx, DefaultScope)
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestStore_SQLiteRoundTripAndWindow(t *testing.T) {
	db := setupTestDB(t)
	now := time.Date(2025, 9, 15, 10, 0, 0, 0, time.UTC)
	clock := &steppingClock{}
	backend := NewSQLiteBackend(db, zerolog.Nop(), WithSQLiteClock(clock.now))
	store := newTestStore(t, backend, WithClock(fixedClock(now)))
	ctx := context.Background()

	clock.set(now.Add(-DefaultWindow - time.Hour))
	require.True(t, store.SaveExchange(ctx, "pergunta antiga sobre DNS", "resposta antiga"))

	clock.set(now.Add(-time.Hour))
	require.True(t, store.SaveExchange(ctx, "pergunta nova sobre DNS", "resposta nova"))

	assert.Equal(t, "pergunta nova sobre DNS", store.SearchRecent(ctx, "DNS"))

	all := store.ListAll(ctx)
	assert.Len(t, all, 4)
	assert.Equal(t, "pergunta antiga sobre DNS", all[0].Content)
}

func TestStore_SQLiteStoresEmptyReply(t *testing.T) {
	store := newTestStore(t, NewSQLiteBackend(setupTestDB(t), zerolog.Nop()))
	ctx := context.Background()

	require.True(t, store.SaveExchange(ctx, "explique mitose", ""))

	records := store.ListAll(ctx)
	require.Len(t, records, 2)
	assert.Equal(t, "explique mitose", records[0].Content)
	assert.Equal(t, RoleAssistant, records[1].Role)
	assert.Empty(t, records[1].Content)
}

func TestStore_SQLiteConcurrentWrites(t *testing.T) {
	db := setupTestDB(t)
	store := newTestStore(t, NewSQLiteBackend(db, zerolog.Nop()))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.True(t, store.SaveExchange(ctx, fmt.Sprintf("pergunta %d", i), fmt.Sprintf("resposta %d", i)))
			_ = store.SearchRecent(ctx, "pergunta")
		}(i)
	}
	wg.Wait()

	all := store.ListAll(ctx)
	assert.Len(t, all, 40)
	assert.Len(t, lo.UniqBy(all, func(r Record) string { return r.ID }), 40)
}

func TestFTSMatchExpr(t *testing.T) {
	assert.Equal(t, "", ftsMatchExpr("  ?! "))
	assert.Equal(t, `"bgp" OR "rotas"`, ftsMatchExpr("BGP, rotas... bgp"))
	assert.Equal(t, `"explicação"`, ftsMatchExpr("Explicação"))
}
