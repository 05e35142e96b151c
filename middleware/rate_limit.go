package middleware

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

type rateWindow struct {
	count int
	start time.Time
}

// RateLimiter is a fixed-window counter per client key
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string]*rateWindow
	rate    int           // requests per window
	window  time.Duration // time window
	now     func() time.Time
}

func NewRateLimiter(rate int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		windows: make(map[string]*rateWindow),
		rate:    rate,
		window:  window,
		now:     time.Now,
	}
}

// Allow records one request for key. When the limit is reached it returns
// false and the time left in the current window.
func (l *RateLimiter) Allow(key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) >= l.window {
		l.sweep(now)
		l.windows[key] = &rateWindow{count: 1, start: now}
		return true, 0
	}
	if w.count >= l.rate {
		return false, l.window - now.Sub(w.start)
	}
	w.count++
	return true, 0
}

// sweep drops finished windows. Must be called with lock held
func (l *RateLimiter) sweep(now time.Time) {
	for k, w := range l.windows {
		if now.Sub(w.start) >= l.window {
			delete(l.windows, k)
		}
	}
}

// clientKey limits authenticated callers per tenant user, others per IP
func clientKey(c *gin.Context) string {
	if user := GetUsername(c); user != "" {
		return "user:" + GetTenant(c) + "/" + user
	}
	return "ip:" + c.ClientIP()
}

// RateLimit middleware limits requests per client
func RateLimit(rate int, window time.Duration) gin.HandlerFunc {
	limiter := NewRateLimiter(rate, window)

	return func(c *gin.Context) {
		key := clientKey(c)
		allowed, retryAfter := limiter.Allow(key)
		if !allowed {
			slog.Warn("rate limit exceeded",
				"client", key,
				"request_id", GetRequestID(c),
			)

			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
			Abort(c, http.StatusTooManyRequests, "RateLimited", "Rate limit exceeded. Please try again later.")
			return
		}

		c.Next()
	}
}
