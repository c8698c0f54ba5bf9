package repository

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func plainHash(p string) (string, error) { return "hashed:" + p, nil }

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := NewDB(context.Background(), filepath.Join(t.TempDir(), "data", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestMigrator(db *sql.DB, legacyFile string) *Migrator {
	return NewMigrator(db, MigratorOptions{
		HashPassword:    plainHash,
		DemoPassword:    "demo123",
		LegacyTasksFile: legacyFile,
	})
}

// migratedDB returns a database with the current schema applied.
func migratedDB(t *testing.T) *sql.DB {
	t.Helper()
	db := newTestDB(t)
	_, err := newTestMigrator(db, "").EnsureSchema(context.Background())
	require.NoError(t, err)
	return db
}

func columnsOf(t *testing.T, db *sql.DB, table string) map[string]bool {
	t.Helper()
	tx, err := db.Begin()
	require.NoError(t, err)
	defer tx.Rollback()
	cols, err := tableColumns(context.Background(), tx, table)
	require.NoError(t, err)
	return cols
}

func indexNames(t *testing.T, db *sql.DB) map[string]bool {
	t.Helper()
	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type = 'index'`)
	require.NoError(t, err)
	defer rows.Close()
	names := make(map[string]bool)
	for rows.Next() {
		var n string
		require.NoError(t, rows.Scan(&n))
		names[n] = true
	}
	require.NoError(t, rows.Err())
	return names
}

func countRows(t *testing.T, db *sql.DB, query string, args ...any) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(query, args...).Scan(&n))
	return n
}
