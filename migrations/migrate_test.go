package migrations

import (
	"database/sql"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/mattn/go-sqlite3"
)

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestRunMigrations_CreatesSchema(t *testing.T) {
	db := openDB(t)
	require.NoError(t, RunMigrations(db, zerolog.Nop()))

	for _, table := range []string{"memory_records", "memory_records_fts"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE name = ?`, table).Scan(&name)
		require.NoError(t, err, table)
		assert.Equal(t, table, name)
	}

	version, dirty, err := Version(db)
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)
}

func TestRunMigrations_Idempotent(t *testing.T) {
	db := openDB(t)
	require.NoError(t, RunMigrations(db, zerolog.Nop()))
	require.NoError(t, RunMigrations(db, zerolog.Nop()))
}

func TestVersion_Unmigrated(t *testing.T) {
	db := openDB(t)
	version, dirty, err := Version(db)
	require.NoError(t, err)
	assert.Zero(t, version)
	assert.False(t, dirty)
}
