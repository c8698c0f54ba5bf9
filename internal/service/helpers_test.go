package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/taskpad/taskpad-go/internal/crypto"
	"github.com/taskpad/taskpad-go/internal/repository"
)

const testSecret = "test-secret"

// sentMail records a verification message instead of sending it.
type sentMail struct {
	to, username, token string
}

type captureSender struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (c *captureSender) SendVerification(_ context.Context, to, username, token string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, sentMail{to: to, username: username, token: token})
	return c.err
}

func (c *captureSender) last(t *testing.T) sentMail {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	require.NotEmpty(t, c.sent, "no verification mail sent")
	return c.sent[len(c.sent)-1]
}

// clock is a settable time source shared by the services under test.
type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

type testEnv struct {
	users  *UserService
	auth   *AuthService
	tasks  *TaskService
	sender *captureSender
	clock  *clock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	db, err := repository.NewDB(ctx, filepath.Join(t.TempDir(), "taskpad.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	hasher, err := crypto.NewHasher(bcrypt.MinCost)
	require.NoError(t, err)

	_, err = repository.NewMigrator(db, repository.MigratorOptions{
		HashPassword: hasher.HashPassword,
		DemoPassword: "demo123",
	}).EnsureSchema(ctx)
	require.NoError(t, err)

	clk := &clock{t: time.Date(2024, 6, 15, 9, 30, 0, 0, time.UTC)}
	sender := &captureSender{}

	users := NewUserService(repository.NewUserRepository(db), hasher, sender)
	users.now = clk.now
	tasks := NewTaskService(repository.NewTaskRepository(db))
	tasks.now = clk.now

	return &testEnv{
		users:  users,
		auth:   NewAuthService(users, testSecret, time.Hour),
		tasks:  tasks,
		sender: sender,
		clock:  clk,
	}
}

// verifiedUser registers a user and consumes the mailed token.
func (e *testEnv) verifiedUser(t *testing.T, username string) int64 {
	t.Helper()
	ctx := context.Background()
	_, err := e.users.CreateUser(ctx, username, username+"@example.com", "secret123", false)
	require.NoError(t, err)
	u, err := e.users.VerifyEmail(ctx, e.sender.last(t).token)
	require.NoError(t, err)
	return u.ID
}

func ptr(s string) *string { return &s }

var errBoom = errors.New("boom")
