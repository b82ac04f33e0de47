package memory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	_ "github.com/mattn/go-sqlite3"
)

// DefaultSearchLimit caps a search when the query sets no limit.
const DefaultSearchLimit = 100

// SQLiteBackend stores records in the memory_records table of a migrated
// SQLite database and searches them through the memory_records_fts index.
type SQLiteBackend struct {
	db     *sql.DB
	now    func() time.Time
	logger zerolog.Logger
}

// SQLiteOption configures a SQLiteBackend.
type SQLiteOption func(*SQLiteBackend)

// WithSQLiteClock overrides the clock used to stamp new records.
func WithSQLiteClock(now func() time.Time) SQLiteOption {
	return func(b *SQLiteBackend) { b.now = now }
}

// OpenSQLite opens the database at path. A single connection is used so
// ":memory:" databases stay shared and writers serialize.
func OpenSQLite(path string) (*sql.DB, error) {
	if path == "" {
		return nil, errors.New("database path is empty")
	}
	dsn := path
	if path != ":memory:" && !strings.Contains(path, "?") {
		dsn = path + "?_busy_timeout=5000&_foreign_keys=on"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

// NewSQLiteBackend creates a backend over an already migrated database.
func NewSQLiteBackend(db *sql.DB, logger zerolog.Logger, opts ...SQLiteOption) *SQLiteBackend {
	b := &SQLiteBackend{
		db:     db,
		now:    time.Now,
		logger: logger.With().Str("component", "memory_sqlite").Logger(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Add inserts msgs in a single transaction.
func (b *SQLiteBackend) Add(ctx context.Context, scope Scope, msgs []Message) ([]Record, error) {
	b.logger.Debug().
		Str("method", "Add").
		Str("memory_id", scope.MemoryID).
		Str("user_id", scope.UserID).
		Int("messages", len(msgs)).
		Msg("called")
	if len(msgs) == 0 {
		return nil, errors.New("no messages to add")
	}
	for _, m := range msgs {
		if !m.Role.Valid() {
			return nil, fmt.Errorf("invalid role: %q", m.Role)
		}
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	created := b.now().UTC()
	records := make([]Record, 0, len(msgs))
	for _, m := range msgs {
		rec := Record{
			ID:        uuid.NewString(),
			CreatedAt: created,
			Role:      m.Role,
			Content:   m.Content,
		}

		query, args, err := StatementBuilder().
			Insert("memory_records").
			Columns("id", "memory_id", "user_id", "role", "content", "created_at").
			Values(rec.ID, scope.MemoryID, scope.UserID, string(rec.Role), rec.Content, created.UnixNano()).
			ToSql()
		if err != nil {
			return nil, fmt.Errorf("build insert: %w", err)
		}
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("insert record: %w", err)
		}
		seq, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("last insert id: %w", err)
		}

		ftsQuery, ftsArgs, err := StatementBuilder().
			Insert("memory_records_fts").
			Columns("rowid", "content").
			Values(seq, rec.Content).
			ToSql()
		if err != nil {
			return nil, fmt.Errorf("build fts insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, ftsQuery, ftsArgs...); err != nil {
			return nil, fmt.Errorf("index record: %w", err)
		}
		records = append(records, rec)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return records, nil
}

// Search returns matching records of scope, most recent first. A query with
// no searchable terms returns the most recent records.
func (b *SQLiteBackend) Search(ctx context.Context, scope Scope, q SearchQuery) ([]Record, error) {
	b.logger.Debug().
		Str("method", "Search").
		Str("query", truncateString(q.Text, 40)).
		Msg("called")

	limit := q.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	builder := b.scoped(scope).
		OrderBy("created_at DESC", "seq DESC").
		Limit(uint64(limit))
	if match := ftsMatchExpr(q.Text); match != "" {
		builder = builder.Where(sq.Expr(
			"seq IN (SELECT rowid FROM memory_records_fts WHERE memory_records_fts MATCH ?)", match))
	}
	if q.After != nil {
		builder = builder.Where(sq.GtOrEq{"created_at": q.After.UnixNano()})
	}
	return b.query(ctx, builder)
}

// List returns every record of scope, oldest first.
func (b *SQLiteBackend) List(ctx context.Context, scope Scope) ([]Record, error) {
	b.logger.Debug().Str("method", "List").Msg("called")
	return b.query(ctx, b.scoped(scope).OrderBy("created_at ASC", "seq ASC"))
}

func (b *SQLiteBackend) scoped(scope Scope) sq.SelectBuilder {
	return StatementBuilder().
		Select(SelectRecordColumns()...).
		From("memory_records").
		Where(sq.Eq{"memory_id": scope.MemoryID, "user_id": scope.UserID})
}

func (b *SQLiteBackend) query(ctx context.Context, builder sq.SelectBuilder) ([]Record, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only cursor

	var out []Record
	for rows.Next() {
		var (
			rec     Record
			role    string
			created int64
		)
		if err := rows.Scan(&rec.ID, &role, &rec.Content, &created); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		rec.Role = Role(role)
		rec.CreatedAt = time.Unix(0, created).UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}

var (
	_ Backend = (*SQLiteBackend)(nil)
	_ Lister  = (*SQLiteBackend)(nil)
)
