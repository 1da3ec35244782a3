package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

// rateLimiter 每个用户一个令牌桶，最多保留 maxTrackedKeys 个
type rateLimiter struct {
	mu       sync.Mutex
	limiters *lru.Cache[string, *rate.Limiter]
	every    rate.Limit
	burst    int
}

const maxTrackedKeys = 10000

func newRateLimiter(perMinute, burst int) *rateLimiter {
	if perMinute <= 0 {
		perMinute = 30
	}
	if burst <= 0 {
		burst = 10
	}
	cache, _ := lru.New[string, *rate.Limiter](maxTrackedKeys)
	return &rateLimiter{
		limiters: cache,
		every:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    burst,
	}
}

func (r *rateLimiter) get(key string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.limiters.Get(key); ok {
		return l
	}
	l := rate.NewLimiter(r.every, r.burst)
	r.limiters.Add(key, l)
	return l
}

// RateLimit 按登录用户限流，未登录时按 IP。超限返回 429
func RateLimit(perMinute, burst int) gin.HandlerFunc {
	limiter := newRateLimiter(perMinute, burst)
	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		if user, ok := CurrentUser(c); ok {
			key = "user:" + strconv.FormatUint(uint64(user.ID), 10)
		}
		if !limiter.get(key).Allow() {
			c.Header("Retry-After", "60")
			abortJSON(c, http.StatusTooManyRequests, "Rate limit exceeded")
			return
		}
		c.Next()
	}
}
