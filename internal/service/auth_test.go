package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskpad/taskpad-go/internal/crypto"
	"github.com/taskpad/taskpad-go/internal/model"
)

func TestRegister_IssuesNoToken(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.auth.Register(context.Background(), model.CreateUserRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Message)
	assert.Equal(t, "alice", resp.User.Username)
	assert.False(t, resp.User.EmailVerified)
}

func TestRegister_Invalid(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.auth.Register(context.Background(), model.CreateUserRequest{
		Username: "alice",
		Email:    "",
		Password: "secret123",
	})
	assert.ErrorIs(t, err, ErrEmailInvalid)
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	id := env.verifiedUser(t, "alice")

	resp, err := env.auth.Login(context.Background(), model.LoginRequest{Username: "alice", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, id, resp.User.ID)

	claims, err := crypto.ValidateToken(resp.Token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, id, claims.UserID)
	assert.Equal(t, "alice", claims.Username)
}

func TestLogin_Failures(t *testing.T) {
	env := newTestEnv(t)
	env.verifiedUser(t, "alice")
	_, err := env.users.CreateUser(context.Background(), "bob", "bob@example.com", "secret123", false)
	require.NoError(t, err)

	tests := []struct {
		name     string
		username string
		password string
		want     error
	}{
		{"unknown user", "nobody", "secret123", ErrInvalidCredentials},
		{"wrong password", "alice", "nope-nope", ErrInvalidCredentials},
		{"unverified", "bob", "secret123", ErrEmailNotVerified},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.auth.Login(context.Background(), model.LoginRequest{Username: tt.username, Password: tt.password})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestGetUser(t *testing.T) {
	env := newTestEnv(t)
	id := env.verifiedUser(t, "alice")

	u, err := env.auth.GetUser(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)

	_, err = env.auth.GetUser(context.Background(), 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAuthVerifyAndResend(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.auth.Register(ctx, model.CreateUserRequest{Username: "alice", Email: "alice@example.com", Password: "secret123"})
	require.NoError(t, err)

	require.NoError(t, env.auth.ResendVerification(ctx, model.ResendVerificationRequest{Email: "alice@example.com"}))
	u, err := env.auth.VerifyEmail(ctx, env.sender.last(t).token)
	require.NoError(t, err)
	assert.True(t, u.EmailVerified)
}

func TestStorageErrorUnwraps(t *testing.T) {
	err := storageErr("op", errBoom)
	var se *StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "op", se.Op)
	assert.ErrorIs(t, err, errBoom)
	assert.NotErrorIs(t, err, ErrValidation)
}
