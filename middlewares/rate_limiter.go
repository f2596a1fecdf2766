package middlewares

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/foodstream/foodstream/utils"
)

var errTooManyRequests = errors.New("too many requests, slow down")

// RedisRateLimiter throttles per actor and endpoint with a shared counter
// so the limit holds across processes. On a Redis failure it fails open:
// availability over throttling.
type RedisRateLimiter struct {
	Client *redis.Client
	Limit  int
	Window time.Duration
}

func NewRedisRateLimiter(client *redis.Client, limit int, window time.Duration) *RedisRateLimiter {
	return &RedisRateLimiter{Client: client, Limit: limit, Window: window}
}

// Middleware keys the counter by guest token when present, else by IP.
func (r *RedisRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := c.GetHeader("X-Guest-Token")
		if actor == "" {
			actor = c.ClientIP()
		}
		key := fmt.Sprintf("ratelimit:%s:%s", actor, c.FullPath())

		ctx, cancel := context.WithTimeout(c.Request.Context(), 200*time.Millisecond)
		defer cancel()

		pipe := r.Client.Pipeline()
		count := pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, r.Window)
		if _, err := pipe.Exec(ctx); err != nil {
			utils.ErrorLogger.Printf("rate limiter: redis: %v", err)
			c.Next()
			return
		}

		if count.Val() > int64(r.Limit) {
			utils.RespondError(c, http.StatusTooManyRequests, errTooManyRequests)
			c.Abort()
			return
		}
		c.Next()
	}
}

// LoginRateLimiter is the stricter in-process limiter for the credential
// endpoint, one bucket per client IP.
func LoginRateLimiter(r rate.Limit, burst int) gin.HandlerFunc {
	var mu sync.Mutex
	limiters := make(map[string]*rate.Limiter)

	return func(c *gin.Context) {
		ip := c.ClientIP()
		mu.Lock()
		l, ok := limiters[ip]
		if !ok {
			l = rate.NewLimiter(r, burst)
			limiters[ip] = l
		}
		mu.Unlock()

		if !l.Allow() {
			utils.RespondError(c, http.StatusTooManyRequests, errTooManyRequests)
			c.Abort()
			return
		}
		c.Next()
	}
}
