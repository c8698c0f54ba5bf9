package main

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskpad/taskpad-go/internal/repository"
)

func runCtl(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func testDBPath(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("LEGACY_TASKS_FILE", filepath.Join(dir, "absent.json"))
	return filepath.Join(dir, "ctl.db")
}

func TestMigrateCommand(t *testing.T) {
	db := testDBPath(t)

	out, err := runCtl(t, "migrate", "--db", db, "--bcrypt-cost", "4")
	require.NoError(t, err)
	assert.Contains(t, out, "schema ok (fresh)")

	out, err = runCtl(t, "migrate", "--db", db, "--bcrypt-cost", "4")
	require.NoError(t, err)
	assert.Contains(t, out, "schema ok (current)")
}

func TestUserAddCommand(t *testing.T) {
	db := testDBPath(t)

	out, err := runCtl(t, "user", "add", "--db", db, "--bcrypt-cost", "4",
		"--username", "alice", "--email", "alice@example.com", "--password", "secret123", "--verified")
	require.NoError(t, err)
	assert.Contains(t, out, "(alice, verified=true)")

	_, err = runCtl(t, "user", "add", "--db", db, "--bcrypt-cost", "4",
		"--username", "alice", "--email", "other@example.com", "--password", "secret123")
	assert.Error(t, err)

	sqlDB, err := repository.NewDB(context.Background(), db)
	require.NoError(t, err)
	defer sqlDB.Close()

	user, err := repository.NewUserRepository(sqlDB).GetByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.True(t, user.EmailVerified)
	assert.Nil(t, user.VerificationToken)
}

func TestUserAddUnverifiedLogsVerificationLink(t *testing.T) {
	db := testDBPath(t)
	t.Setenv("APP_BASE_URL", "http://taskpad.test")
	t.Setenv("SMTP_HOST", "")

	var logs bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&logs, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	out, err := runCtl(t, "user", "add", "--db", db, "--bcrypt-cost", "4",
		"--username", "bob", "--email", "bob@example.com", "--password", "secret123")
	require.NoError(t, err)
	assert.Contains(t, out, "(bob, verified=false)")

	sqlDB, err := repository.NewDB(context.Background(), db)
	require.NoError(t, err)
	defer sqlDB.Close()

	user, err := repository.NewUserRepository(sqlDB).GetByUsername(context.Background(), "bob")
	require.NoError(t, err)
	require.NotNil(t, user.VerificationToken)
	assert.Contains(t, logs.String(), "http://taskpad.test/api/v1/auth/verify?token="+*user.VerificationToken)
}

func TestUserAddRequiresFlags(t *testing.T) {
	_, err := runCtl(t, "user", "add", "--db", testDBPath(t), "--username", "alice")
	assert.Error(t, err)
}

func TestInvalidBcryptCost(t *testing.T) {
	_, err := runCtl(t, "migrate", "--db", testDBPath(t), "--bcrypt-cost", "99")
	assert.Error(t, err)
}
