package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/argus-sec/argus/backend/internal/logger"
)

// RateLimit returns a per-IP limiter for the protected API surface. Each
// address gets a token bucket holding max tokens that refills over the
// window; buckets live in a process-local map.
func RateLimit(max int, window time.Duration) gin.HandlerFunc {
	if max <= 0 {
		max = 1
	}

	var mu sync.Mutex
	limiters := make(map[string]*rate.Limiter)
	limit := rate.Every(window / time.Duration(max))

	return func(c *gin.Context) {
		ip := c.ClientIP()

		mu.Lock()
		lim, ok := limiters[ip]
		if !ok {
			lim = rate.NewLimiter(limit, max)
			limiters[ip] = lim
		}
		mu.Unlock()

		res := lim.Reserve()
		if !res.OK() || res.Delay() > 0 {
			retryAfter := res.Delay()
			res.Cancel()
			logger.WithFields(map[string]interface{}{"client": ip}).Warn("rate limit exceeded")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Too Many Requests",
				"message":     "You have exceeded the rate limit. Please try again later.",
				"retry_after": int(retryAfter.Seconds()) + 1,
			})
			return
		}

		c.Next()
	}
}
