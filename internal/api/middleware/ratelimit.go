package middleware

import (
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jroosing/zonepress/internal/api/models"
)

// Every document read fans out into one DNS query per chunk, so the gateway
// limits clients before a handler runs.

// RateLimitConfig configures per-client token buckets.
type RateLimitConfig struct {
	Rate       float64 // requests per second
	Burst      int
	MaxClients int
	// CleanupInterval drops buckets idle for longer than this.
	CleanupInterval time.Duration
}

type tokenBucket struct {
	rate            float64
	burst           float64
	cleanupInterval time.Duration
	maxEntries      int
	now             func() time.Time

	mu          sync.Mutex
	lastCleanup time.Time
	lastUpdate  map[string]time.Time
	tokens      map[string]float64
}

func newTokenBucket(cfg RateLimitConfig, now func() time.Time) *tokenBucket {
	if cfg.MaxClients <= 0 {
		cfg.MaxClients = 10000
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = time.Minute
	}
	return &tokenBucket{
		rate:            cfg.Rate,
		burst:           float64(cfg.Burst),
		cleanupInterval: cfg.CleanupInterval,
		maxEntries:      cfg.MaxClients,
		now:             now,
		lastCleanup:     now(),
		lastUpdate:      map[string]time.Time{},
		tokens:          map[string]float64{},
	}
}

// allow consumes a token for key. A new key starts with a full bucket.
func (b *tokenBucket) allow(key string) bool {
	now := b.now()

	b.mu.Lock()
	defer b.mu.Unlock()

	if now.Sub(b.lastCleanup) > b.cleanupInterval {
		b.cleanupLocked(now)
	}

	last, ok := b.lastUpdate[key]
	if !ok {
		if len(b.lastUpdate) >= b.maxEntries {
			b.cleanupLocked(now)
			if len(b.lastUpdate) >= b.maxEntries {
				return false
			}
		}
		b.lastUpdate[key] = now
		b.tokens[key] = b.burst - 1
		return true
	}

	tokens := b.tokens[key]
	if elapsed := now.Sub(last).Seconds(); elapsed > 0 {
		tokens = math.Min(b.burst, tokens+elapsed*b.rate)
	}
	b.lastUpdate[key] = now

	if tokens >= 1 {
		b.tokens[key] = tokens - 1
		return true
	}
	b.tokens[key] = tokens
	return false
}

func (b *tokenBucket) cleanupLocked(now time.Time) {
	staleBefore := now.Add(-b.cleanupInterval)
	for k, last := range b.lastUpdate {
		if !last.After(staleBefore) {
			delete(b.lastUpdate, k)
			delete(b.tokens, k)
		}
	}
	b.lastCleanup = now
}

// RateLimit rejects clients that exceed their bucket with 429. A zero rate or
// burst disables limiting.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	return rateLimit(cfg, time.Now)
}

func rateLimit(cfg RateLimitConfig, now func() time.Time) gin.HandlerFunc {
	if cfg.Rate <= 0 || cfg.Burst <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	bucket := newTokenBucket(cfg, now)
	return func(c *gin.Context) {
		if !bucket.allow(c.ClientIP()) {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.ErrorResponse{Error: "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
