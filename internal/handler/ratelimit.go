package handler

import (
	"fmt"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/maxviazov/cve-catalog-service/internal/config"
	"github.com/maxviazov/cve-catalog-service/pkg/response"
)

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter hands out one token bucket per client key. Requests/Window is the
// refill rate and Burst the bucket capacity.
type RateLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*clientBucket
	limit     rate.Limit
	burst     int
	requests  int
	window    time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func NewRateLimiter(cfg config.RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		buckets:   make(map[string]*clientBucket),
		limit:     rate.Limit(float64(cfg.Requests) / cfg.Window.Seconds()),
		burst:     cfg.Burst,
		requests:  cfg.Requests,
		window:    cfg.Window,
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

// allow reports whether key may proceed and how many whole tokens it has left.
func (rl *RateLimiter) allow(key string) (bool, int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.sweep(now)

	b, ok := rl.buckets[key]
	if !ok {
		b = &clientBucket{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.buckets[key] = b
	}
	b.lastSeen = now
	allowed := b.limiter.AllowN(now, 1)
	remaining := int(math.Floor(b.limiter.TokensAt(now)))
	if remaining < 0 {
		remaining = 0
	}
	return allowed, remaining
}

// sweep drops clients idle for a full window; their buckets would be full again anyway.
func (rl *RateLimiter) sweep(now time.Time) {
	if now.Sub(rl.lastSweep) < rl.window {
		return
	}
	for k, b := range rl.buckets {
		if now.Sub(b.lastSeen) >= rl.window {
			delete(rl.buckets, k)
		}
	}
	rl.lastSweep = now
}

func (rl *RateLimiter) retryAfter() time.Duration {
	if rl.limit <= 0 {
		return rl.window
	}
	return time.Duration(float64(time.Second) / float64(rl.limit))
}

// Middleware limits by client IP and reports the budget in the standard
// RateLimit-* headers. Health probes are never limited. onLimited may be nil.
func (rl *RateLimiter) Middleware(onLimited func()) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.URL.Path {
		case "/live", "/ready", APIPrefix + "/health/live", APIPrefix + "/health/ready":
			c.Next()
			return
		}

		allowed, remaining := rl.allow(c.ClientIP())
		h := c.Writer.Header()
		h.Set("RateLimit-Limit", strconv.Itoa(rl.requests))
		h.Set("RateLimit-Remaining", strconv.Itoa(remaining))
		h.Set("RateLimit-Policy", fmt.Sprintf("%d;w=%d", rl.requests, int(rl.window.Seconds())))

		if !allowed {
			wait := int(math.Ceil(rl.retryAfter().Seconds()))
			h.Set("RateLimit-Reset", strconv.Itoa(wait))
			h.Set("Retry-After", strconv.Itoa(wait))
			if onLimited != nil {
				onLimited()
			}
			response.WriteError(c, fmt.Errorf("client %s: %w", c.ClientIP(), response.ErrRateLimited))
			return
		}
		c.Next()
	}
}

