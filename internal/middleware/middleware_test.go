package middleware

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stemsi/exstem-timer/internal/config"
	"github.com/stemsi/exstem-timer/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRateLimiterRefillsPerInterval(t *testing.T) {
	clock := clockwork.NewFakeClock()
	rl := NewRateLimiter(2, time.Minute, clock)

	assert.True(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.2"), "buckets are per key")

	clock.Advance(59 * time.Second)
	assert.False(t, rl.Allow("10.0.0.1"))

	clock.Advance(time.Second)
	assert.True(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"))
}

func TestRateLimiterCleanupForgetsIdleVisitors(t *testing.T) {
	clock := clockwork.NewFakeClock()
	rl := NewRateLimiter(1, time.Hour, clock)
	rl.Allow("10.0.0.1")

	clock.Advance(4 * time.Minute)
	rl.cleanup()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.Empty(t, rl.visitors)
}

func TestRateLimiterMiddlewareRejects(t *testing.T) {
	r := gin.New()
	r.Use(NewRateLimiter(1, time.Minute, clockwork.NewFakeClock()).Middleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "RATE_LIMIT_EXCEEDED")
}

func ticketRouter(tickets *service.TicketService) *gin.Engine {
	r := gin.New()
	r.GET("/tests/:id/questions/:n/timer", RequireTimerTicket(tickets), func(c *gin.Context) {
		c.String(http.StatusOK, GetTicket(c).TestID.String())
	})
	return r
}

func TestRequireTimerTicket(t *testing.T) {
	tickets := service.NewTicketService(&config.Config{TicketSecret: "s", TicketTTL: time.Hour}, nil)
	id := uuid.New()
	tok, err := tickets.Issue(id, 2)
	require.NoError(t, err)

	tests := []struct {
		name string
		path string
		code int
		body string
	}{
		{"valid", "/tests/" + id.String() + "/questions/2/timer?ticket=" + tok, http.StatusOK, id.String()},
		{"missing", "/tests/" + id.String() + "/questions/2/timer", http.StatusUnauthorized, "TICKET_REQUIRED"},
		{"garbage", "/tests/" + id.String() + "/questions/2/timer?ticket=abc", http.StatusUnauthorized, "TICKET_INVALID"},
		{"other question", "/tests/" + id.String() + "/questions/3/timer?ticket=" + tok, http.StatusForbidden, "TICKET_MISMATCH"},
		{"other test", "/tests/" + uuid.NewString() + "/questions/2/timer?ticket=" + tok, http.StatusForbidden, "TICKET_MISMATCH"},
	}

	r := ticketRouter(tickets)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tc.path, nil))
			assert.Equal(t, tc.code, w.Code)
			assert.Contains(t, w.Body.String(), tc.body)
		})
	}
}

func brotliRouter(body string) *gin.Engine {
	r := gin.New()
	r.Use(Brotli())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, body) })
	return r
}

func TestBrotliCompressesLargeBodies(t *testing.T) {
	body := strings.Repeat("0:59 ", 1000)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Encoding", "gzip, br")

	w := httptest.NewRecorder()
	brotliRouter(body).ServeHTTP(w, req)

	assert.Equal(t, "br", w.Header().Get("Content-Encoding"))
	plain, err := io.ReadAll(brotli.NewReader(bytes.NewReader(w.Body.Bytes())))
	require.NoError(t, err)
	assert.Equal(t, body, string(plain))
}

func TestBrotliLeavesSmallBodiesPlain(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Encoding", "br")

	w := httptest.NewRecorder()
	brotliRouter("ok").ServeHTTP(w, req)

	assert.Empty(t, w.Header().Get("Content-Encoding"))
	assert.Equal(t, "ok", w.Body.String())
}

func TestNoStore(t *testing.T) {
	r := gin.New()
	r.GET("/", NoStore(), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}
