// ratelimit.go provides Gin middleware that enforces per-client token-bucket rate
// limits, returning 429 responses when the configured requests-per-minute threshold
// is exceeded. With redis configured the buckets live in redis and are shared across
// console replicas; without it each replica falls back to local in-memory buckets.
package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	redis_rate "github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
)

// RateLimitConfig holds configuration for rate limiting
type RateLimitConfig struct {
	// RequestsPerMinute is the maximum number of requests allowed per minute
	RequestsPerMinute int
	// BurstSize is the maximum burst of requests allowed
	BurstSize int
}

// DefaultRateLimitConfig returns sensible defaults for API traffic
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerMinute: 200, // A layout render fans into several resource reads
		BurstSize:         50,
	}
}

// AuthRateLimitConfig returns stricter limits for auth endpoints
func AuthRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerMinute: 10,
		BurstSize:         5,
	}
}

// Limiter decides whether a request from a client key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string, cfg RateLimitConfig) (allowed bool, remaining int, err error)
}

// RedisLimiter enforces limits through redis_rate's GCRA implementation, so the
// limit holds across all console replicas sharing the redis instance.
type RedisLimiter struct {
	limiter *redis_rate.Limiter
}

// NewRedisLimiter creates a limiter on top of an existing redis client
func NewRedisLimiter(client *redis.Client) *RedisLimiter {
	return &RedisLimiter{limiter: redis_rate.NewLimiter(client)}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string, cfg RateLimitConfig) (bool, int, error) {
	res, err := l.limiter.Allow(ctx, "ratelimit:"+key, redis_rate.Limit{
		Rate:   cfg.RequestsPerMinute,
		Burst:  cfg.BurstSize,
		Period: time.Minute,
	})
	if err != nil {
		return false, 0, err
	}
	return res.Allowed > 0, res.Remaining, nil
}

// memoryEntry tracks the token bucket of a single client
type memoryEntry struct {
	tokens     float64
	lastUpdate time.Time
}

// MemoryLimiter is a per-replica token bucket limiter used when redis is not
// configured. Entries idle for ten minutes are dropped by a cleanup loop.
type MemoryLimiter struct {
	entries map[string]*memoryEntry
	mu      sync.Mutex
	stopCh  chan struct{}
}

// NewMemoryLimiter creates an in-memory limiter and starts its cleanup loop
func NewMemoryLimiter() *MemoryLimiter {
	l := &MemoryLimiter{
		entries: make(map[string]*memoryEntry),
		stopCh:  make(chan struct{}),
	}
	go l.cleanup()
	return l
}

func (l *MemoryLimiter) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.mu.Lock()
			now := time.Now()
			for key, entry := range l.entries {
				if now.Sub(entry.lastUpdate) > 10*time.Minute {
					delete(l.entries, key)
				}
			}
			l.mu.Unlock()
		case <-l.stopCh:
			return
		}
	}
}

// Stop stops the cleanup goroutine
func (l *MemoryLimiter) Stop() {
	close(l.stopCh)
}

func (l *MemoryLimiter) Allow(ctx context.Context, key string, cfg RateLimitConfig) (bool, int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	entry, exists := l.entries[key]
	if !exists {
		l.entries[key] = &memoryEntry{
			tokens:     float64(cfg.BurstSize) - 1,
			lastUpdate: now,
		}
		return true, cfg.BurstSize - 1, nil
	}

	elapsed := now.Sub(entry.lastUpdate)
	tokensPerSecond := float64(cfg.RequestsPerMinute) / 60.0
	entry.tokens = min(float64(cfg.BurstSize), entry.tokens+elapsed.Seconds()*tokensPerSecond)
	entry.lastUpdate = now

	if entry.tokens >= 1 {
		entry.tokens--
		return true, int(entry.tokens), nil
	}

	return false, 0, nil
}

// RateLimitMiddleware creates a Gin middleware that rate limits requests.
// A limiter failure (e.g. redis briefly unreachable) lets the request through;
// rate limiting protects capacity and must not become an availability bottleneck.
func RateLimitMiddleware(limiter Limiter, cfg RateLimitConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := rateLimitKey(c)

		allowed, remaining, err := limiter.Allow(c.Request.Context(), key, cfg)
		if err != nil {
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.RequestsPerMinute))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !allowed {
			c.Header("Retry-After", "60")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Rate limit exceeded",
				"retry_after": 60,
			})
			return
		}

		c.Next()
	}
}

// rateLimitKey determines the bucket key for a request.
// Priority: user_id > IP address. Rate limiting runs before auth, so user_id
// is only present on routes that re-apply limits after authentication.
func rateLimitKey(c *gin.Context) string {
	if userID := c.GetString(ContextUserID); userID != "" {
		return "user:" + userID
	}

	ip := c.ClientIP()
	if ip == "" {
		ip = c.Request.RemoteAddr
	}
	return "ip:" + ip
}
