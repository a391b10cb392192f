package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiterWindow(t *testing.T) {
	rl := NewRateLimiterWithMax(2, time.Minute, 2, zerolog.Nop())
	defer rl.Stop()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"), "third request in window")
	assert.True(t, rl.Allow("b"), "other clients are counted separately")

	now = now.Add(time.Minute)
	assert.True(t, rl.Allow("a"), "new window")

	// A new client at capacity displaces the expired window.
	now = now.Add(time.Second)
	assert.True(t, rl.Allow("c"))
	assert.Len(t, rl.clients, 2)
	assert.NotContains(t, rl.clients, "b")
}

func TestRateLimiterWrap(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute, zerolog.Nop())
	defer rl.Stop()

	h := rl.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	send := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/types", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1:1000").Code)
	// Same host on another port shares the budget.
	rec := send("10.0.0.1:2000")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"success":false,"error":{"code":"RATE_LIMIT","message":"Too many requests"}}`, rec.Body.String())
}

func TestCSRFRotation(t *testing.T) {
	c, err := NewCSRFMiddlewareWithRotation(time.Hour, time.Minute, zerolog.Nop())
	require.NoError(t, err)
	defer c.Stop()

	first := c.Token()
	assert.True(t, c.accepts(first))
	assert.False(t, c.accepts(""))

	c.rotate()
	second := c.Token()
	assert.NotEqual(t, first, second)
	assert.True(t, c.accepts(second))
	assert.True(t, c.accepts(first), "previous token valid during grace period")

	c.mu.Lock()
	c.rotatedAt = time.Now().Add(-2 * time.Minute)
	c.mu.Unlock()
	assert.False(t, c.accepts(first), "previous token expired")
	assert.True(t, c.accepts(second))
}

func TestCSRFWrapAllowsSafeMethods(t *testing.T) {
	c, err := NewCSRFMiddleware(zerolog.Nop())
	require.NoError(t, err)
	defer c.Stop()

	h := c.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	for method, want := range map[string]int{
		http.MethodGet:     http.StatusOK,
		http.MethodHead:    http.StatusOK,
		http.MethodOptions: http.StatusOK,
		http.MethodPost:    http.StatusForbidden,
		http.MethodPut:     http.StatusForbidden,
		http.MethodDelete:  http.StatusForbidden,
		http.MethodPatch:   http.StatusForbidden,
	} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(method, "/api/entities", nil))
		assert.Equal(t, want, rec.Code, method)
	}
}

func TestRateLimiterEvictsOldest(t *testing.T) {
	rl := NewRateLimiterWithMax(5, time.Minute, 2, zerolog.Nop())
	defer rl.Stop()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.Allow("x")
	now = now.Add(time.Second)
	rl.Allow("y")
	now = now.Add(time.Second)
	rl.Allow("z")

	assert.Len(t, rl.clients, 2)
	assert.NotContains(t, rl.clients, "x")
}
