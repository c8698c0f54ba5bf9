package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIPRateLimiter_Allow(t *testing.T) {
	rl := newIPRateLimiter(1, 2)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.True(t, rl.allow("10.0.0.1", now))
	assert.True(t, rl.allow("10.0.0.1", now))
	assert.False(t, rl.allow("10.0.0.1", now), "burst exhausted")
	assert.True(t, rl.allow("10.0.0.2", now), "other clients are independent")

	assert.True(t, rl.allow("10.0.0.1", now.Add(time.Second)), "tokens refill over time")
}

func TestIPRateLimiter_Sweep(t *testing.T) {
	rl := newIPRateLimiter(1, 1)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	rl.allow("old", now)
	rl.allow("recent", now.Add(9*time.Minute))
	rl.sweep(now.Add(11*time.Minute), visitorIdleTTL)

	assert.NotContains(t, rl.visitors, "old")
	assert.Contains(t, rl.visitors, "recent")
}

func TestRateLimit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := RateLimit(ctx, 0.001, 2)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, do("192.0.2.1:1000").Code)
	assert.Equal(t, http.StatusOK, do("192.0.2.1:1001").Code, "port is ignored")

	rec := do("192.0.2.1:1002")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, do("192.0.2.2:1000").Code)
}
