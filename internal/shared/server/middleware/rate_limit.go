package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"resume-analyzer-web/internal/shared/metrics"
	"resume-analyzer-web/internal/shared/telemetry"
)

// Request groups with their own buckets.
const (
	GroupAnalyze = "ANALYZE"
	GroupPolling = "POLLING"
	GroupSession = "SESSION"
)

const minPruneInterval = time.Second

// RateLimitRule is a token bucket: Rate tokens per second, at most Burst.
// A zero Rate or Burst disables the rule.
type RateLimitRule struct {
	Rate  float64
	Burst int
}

// RateLimitConfig maps request groups to rules. GroupFor picks the group of a
// request; requests without a group or without a rule pass through.
type RateLimitConfig struct {
	Rules    map[string]RateLimitRule
	GroupFor func(*gin.Context) string
	Limiter  *RateLimiter
}

// RateLimiter holds one bucket per principal and group. Principals are session
// ids, or "ip:<addr>" for requests that have no session yet.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[bucketKey]*rateBucket
	now     func() time.Time
}

type bucketKey struct {
	principal string
	group     string
}

type rateBucket struct {
	tokens float64
	last   time.Time
}

func NewRateLimiter(now func() time.Time) *RateLimiter {
	if now == nil {
		now = time.Now
	}
	return &RateLimiter{
		buckets: make(map[bucketKey]*rateBucket),
		now:     now,
	}
}

// RateLimit applies cfg per session.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.Limiter == nil {
		cfg.Limiter = NewRateLimiter(nil)
	}
	return func(c *gin.Context) {
		if cfg.GroupFor == nil {
			c.Next()
			return
		}
		group := strings.TrimSpace(cfg.GroupFor(c))
		rule, ok := cfg.Rules[group]
		if group == "" || !ok {
			c.Next()
			return
		}
		principal := strings.TrimSpace(SessionIDFromContext(c))
		if principal == "" {
			principal = clientPrincipal(c)
		}
		if allowed, retryAfter := cfg.Limiter.Allow(principal, group, rule); !allowed {
			abortRateLimited(c, group, retryAfter)
			return
		}
		c.Next()
	}
}

// Allow takes one token from the principal's bucket for group, or reports how
// long until one is available.
func (l *RateLimiter) Allow(principal, group string, rule RateLimitRule) (bool, time.Duration) {
	if l == nil || rule.Rate <= 0 || rule.Burst <= 0 {
		return true, 0
	}
	now := l.now()
	key := bucketKey{principal: principal, group: group}

	l.mu.Lock()
	defer l.mu.Unlock()
	bucket, ok := l.buckets[key]
	if !ok {
		bucket = &rateBucket{tokens: float64(rule.Burst), last: now}
		l.buckets[key] = bucket
	}
	if elapsed := now.Sub(bucket.last).Seconds(); elapsed > 0 {
		bucket.tokens = math.Min(float64(rule.Burst), bucket.tokens+elapsed*rule.Rate)
		bucket.last = now
	}
	if bucket.tokens >= 1 {
		bucket.tokens--
		return true, 0
	}
	waitSec := math.Max(0, (1-bucket.tokens)/rule.Rate)
	return false, time.Duration(math.Ceil(waitSec*1000)) * time.Millisecond
}

// Forget drops every bucket of principal. Called when a session expires.
func (l *RateLimiter) Forget(principal string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for key := range l.buckets {
		if key.principal == principal {
			delete(l.buckets, key)
		}
	}
}

// Prune drops buckets untouched for longer than idle and returns how many.
func (l *RateLimiter) Prune(idle time.Duration) int {
	if l == nil {
		return 0
	}
	cutoff := l.now().Add(-idle)
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for key, b := range l.buckets {
		if b.last.Before(cutoff) {
			delete(l.buckets, key)
			n++
		}
	}
	return n
}

// Len reports how many buckets are held.
func (l *RateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// Run prunes buckets idle for longer than idle until ctx is done.
func (l *RateLimiter) Run(ctx context.Context, idle time.Duration) error {
	interval := idle / 4
	if interval < minPruneInterval {
		interval = minPruneInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			l.Prune(idle)
		}
	}
}

func clientPrincipal(c *gin.Context) string {
	return "ip:" + strings.TrimSpace(c.ClientIP())
}

func abortRateLimited(c *gin.Context, group string, retryAfter time.Duration) {
	retryAfterMs := int(retryAfter / time.Millisecond)
	if retryAfterMs <= 0 {
		retryAfterMs = 1000
	}
	retryAfterSeconds := int(math.Ceil(float64(retryAfterMs) / 1000.0))
	metrics.IncRateLimited()
	telemetry.Warn("rate_limited", map[string]any{
		"request_id": RequestIDFromContext(c),
		"session_id": SessionIDFromContext(c),
		"client_ip":  c.ClientIP(),
		"group":      group,
		"retry_ms":   retryAfterMs,
	})
	c.Header("Retry-After", strconv.Itoa(retryAfterSeconds))
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
		"error":        "rate_limited",
		"group":        group,
		"retryAfterMs": retryAfterMs,
	})
}
