package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

func rateLimitSubject(c *gin.Context) string {
	if email := c.GetString(ContextUserEmail); email != "" {
		return email
	}
	return c.ClientIP()
}

// RateLimitMiddleware is a fixed-window counter shared by every replica
// through Redis.
func RateLimitMiddleware(redisClient *redis.Client, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := fmt.Sprintf("rate_limit:%s:%s", c.Request.URL.Path, rateLimitSubject(c))

		ctx := c.Request.Context()
		count, err := redisClient.Incr(ctx, key).Result()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Rate limit check failed", "code": "UPSTREAM_FAILURE"})
			c.Abort()
			return
		}

		if count == 1 {
			redisClient.Expire(ctx, key, window)
		}

		if count > int64(limit) {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded", "code": "RATE_LIMITED"})
			c.Abort()
			return
		}

		c.Next()
	}
}

type localLimiter struct {
	limiter *rate.Limiter
	expires time.Time
}

// LocalRateLimitMiddleware applies a per-caller token bucket held in process
// memory. Used when the store backend is not Redis.
func LocalRateLimitMiddleware(perMinute int) gin.HandlerFunc {
	if perMinute < 1 {
		perMinute = 1
	}
	every := rate.Every(time.Minute / time.Duration(perMinute))
	burst := perMinute / 2
	if burst < 1 {
		burst = 1
	}

	var (
		mu       sync.Mutex
		limiters = map[string]*localLimiter{}
	)

	get := func(key string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()

		now := time.Now()
		for k, l := range limiters {
			if now.After(l.expires) {
				delete(limiters, k)
			}
		}

		l, ok := limiters[key]
		if !ok {
			l = &localLimiter{limiter: rate.NewLimiter(every, burst)}
			limiters[key] = l
		}
		l.expires = now.Add(5 * time.Minute)
		return l.limiter
	}

	return func(c *gin.Context) {
		if !get(rateLimitSubject(c)).Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded", "code": "RATE_LIMITED"})
			c.Abort()
			return
		}
		c.Next()
	}
}
