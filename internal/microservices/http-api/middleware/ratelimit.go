package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// UserRateLimiter hands out one token bucket per authenticated user.
type UserRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*userLimiter
	limit    rate.Limit
	burst    int
	idle     time.Duration
}

type userLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewUserRateLimiter allows perMinute requests per user with a burst of the
// same size.
func NewUserRateLimiter(perMinute int) *UserRateLimiter {
	return &UserRateLimiter{
		limiters: make(map[string]*userLimiter),
		limit:    rate.Limit(float64(perMinute) / 60),
		burst:    perMinute,
		idle:     10 * time.Minute,
	}
}

func (l *UserRateLimiter) get(userID string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if ul, ok := l.limiters[userID]; ok {
		ul.lastSeen = now
		return ul.limiter
	}
	ul := &userLimiter{limiter: rate.NewLimiter(l.limit, l.burst), lastSeen: now}
	l.limiters[userID] = ul
	return ul.limiter
}

// Sweep drops limiters of users idle for longer than the idle window.
func (l *UserRateLimiter) Sweep(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for id, ul := range l.limiters {
		if now.Sub(ul.lastSeen) > l.idle {
			delete(l.limiters, id)
			removed++
		}
	}
	return removed
}

// Middleware must run after AuthMiddleware.
func (l *UserRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")
		if userID == "" {
			c.Next()
			return
		}
		if !l.get(userID, time.Now()).Allow() {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
