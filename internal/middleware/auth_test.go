package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskpad/taskpad-go/internal/crypto"
)

const testSecret = "middleware-secret"

// whoami echoes the user id from the context, or 204 when none is set.
var whoami = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	id, ok := UserIDFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if IsGuest(r.Context()) {
		w.Header().Set("X-Guest", "true")
	}
	w.Write([]byte(strconv.FormatInt(id, 10)))
})

func TestJWTAuth(t *testing.T) {
	valid, err := crypto.GenerateToken(42, "alice", testSecret, time.Hour)
	require.NoError(t, err)
	expired, err := crypto.GenerateToken(42, "alice", testSecret, -time.Minute)
	require.NoError(t, err)
	foreign, err := crypto.GenerateToken(42, "alice", "other-secret", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"valid", "Bearer " + valid, http.StatusOK, "42"},
		{"lowercase scheme", "bearer " + valid, http.StatusOK, "42"},
		{"missing header", "", http.StatusUnauthorized, ""},
		{"wrong scheme", "Basic " + valid, http.StatusUnauthorized, ""},
		{"no token", "Bearer ", http.StatusUnauthorized, ""},
		{"garbage", "Bearer not.a.jwt", http.StatusUnauthorized, ""},
		{"expired", "Bearer " + expired, http.StatusUnauthorized, ""},
		{"wrong secret", "Bearer " + foreign, http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			JWTAuth(testSecret)(whoami).ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, tt.body, rec.Body.String())
				assert.Empty(t, rec.Header().Get("X-Guest"))
			} else {
				assert.Contains(t, rec.Body.String(), `"error"`)
			}
		})
	}
}

func TestGuestIdentity(t *testing.T) {
	tests := []struct {
		name    string
		resolve GuestResolver
		status  int
	}{
		{
			name:    "demo found",
			resolve: func(context.Context) (int64, bool, error) { return 7, true, nil },
			status:  http.StatusOK,
		},
		{
			name:    "demo missing",
			resolve: func(context.Context) (int64, bool, error) { return 0, false, nil },
			status:  http.StatusServiceUnavailable,
		},
		{
			name:    "lookup error",
			resolve: func(context.Context) (int64, bool, error) { return 0, false, errors.New("db down") },
			status:  http.StatusInternalServerError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			GuestIdentity(tt.resolve)(whoami).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, "7", rec.Body.String())
				assert.Equal(t, "true", rec.Header().Get("X-Guest"))
			}
		})
	}
}

func TestUserIDFromContext_Empty(t *testing.T) {
	_, ok := UserIDFromContext(context.Background())
	assert.False(t, ok)
	assert.False(t, IsGuest(context.Background()))
}
