// api/middleware/rate_limiter.go
package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Annany2002/datalens-backend/api/models"
)

// RateLimiter allows limit requests per client IP in a sliding window.
type RateLimiter struct {
	requests map[string][]time.Time
	mutex    sync.Mutex
	limit    int
	window   time.Duration
	now      func() time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
		now:      time.Now,
	}
}

func (rl *RateLimiter) Allow(ip string) bool {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := rl.now()
	windowStart := now.Add(-rl.window)

	// Drop timestamps outside the window
	kept := rl.requests[ip][:0]
	for _, t := range rl.requests[ip] {
		if t.After(windowStart) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= rl.limit {
		rl.requests[ip] = kept
		return false
	}
	rl.requests[ip] = append(kept, now)
	return true
}

func getIP(c *gin.Context) string {
	ip, _, err := net.SplitHostPort(c.Request.RemoteAddr)
	if err != nil {
		return c.ClientIP()
	}
	return ip
}

func RateLimitMiddleware(rl *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := getIP(c)
		if !rl.Allow(ip) {
			customLog.Warnf("RateLimit: Rejecting request from %s", ip)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.ErrorResponse{Message: "Too many requests. Please wait."})
			return
		}
		c.Next()
	}
}
