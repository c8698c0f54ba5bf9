package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDB_CreatesParentDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "deeper")
	path := filepath.Join(dir, "taskpad.db")

	db, err := NewDB(context.Background(), path)
	require.NoError(t, err)
	defer db.Close()

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".write-check-", "write probe left behind")
	}
}

func TestNewDB_EmptyPath(t *testing.T) {
	_, err := NewDB(context.Background(), "")
	assert.Error(t, err)
}

func TestNewDB_ParentIsAFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	_, err := NewDB(context.Background(), filepath.Join(file, "taskpad.db"))
	assert.Error(t, err)
}

func TestNewDB_ForeignKeysEnabled(t *testing.T) {
	db := newTestDB(t)
	var on int
	require.NoError(t, db.QueryRow(`PRAGMA foreign_keys`).Scan(&on))
	assert.Equal(t, 1, on)
}

func TestParseTime(t *testing.T) {
	want := time.Date(2024, 3, 1, 12, 30, 45, 123_000_000, time.UTC)

	got, err := parseTime(formatTime(want))
	require.NoError(t, err)
	assert.True(t, want.Equal(got))

	got, err = parseTime("2024-03-01 12:30:45")
	require.NoError(t, err)
	assert.True(t, want.Truncate(time.Second).Equal(got))

	got, err = parseTime("2024-03-01T14:30:45.123+02:00")
	require.NoError(t, err)
	assert.True(t, want.Equal(got))

	_, err = parseTime("yesterday")
	assert.Error(t, err)
}

func TestFormatTimeSortsLexically(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	a := formatTime(base.Add(100 * time.Millisecond))
	b := formatTime(base.Add(120 * time.Millisecond))
	c := formatTime(base.Add(time.Second))
	assert.Less(t, a, b)
	assert.Less(t, b, c)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.False(t, isUniqueViolation(nil))
	assert.False(t, isUniqueViolation(ErrUserNotFound))

	db := migratedDB(t)
	_, err := db.Exec(`INSERT INTO users (username, email, password_hash) VALUES ('demo', 'x@example.com', 'h')`)
	require.Error(t, err)
	assert.True(t, isUniqueViolation(err))
}
