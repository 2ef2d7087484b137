package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_Allow(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(2, time.Minute)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("caja-1"))
	assert.True(t, rl.Allow("caja-1"))
	assert.False(t, rl.Allow("caja-1"))
	assert.Equal(t, 0, rl.Remaining("caja-1"))

	t.Run("keys are independent", func(t *testing.T) {
		assert.True(t, rl.Allow("caja-2"))
		assert.Equal(t, 1, rl.Remaining("caja-2"))
	})

	t.Run("window resets", func(t *testing.T) {
		now = now.Add(time.Minute)
		assert.Equal(t, 2, rl.Remaining("caja-1"))
		assert.True(t, rl.Allow("caja-1"))
		assert.Equal(t, 1, rl.Remaining("caja-1"))
	})

	t.Run("expired windows are evicted", func(t *testing.T) {
		now = now.Add(2 * time.Minute)
		rl.Allow("caja-3")
		rl.mu.Lock()
		defer rl.mu.Unlock()
		assert.Len(t, rl.windows, 1)
	})
}

func TestRateLimit_Middleware(t *testing.T) {
	r := gin.New()
	r.Use(RateLimit(NewRateLimiter(1, time.Hour)))
	r.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := serve(r, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	w = serve(r, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_RATE_LIMITED")
}
