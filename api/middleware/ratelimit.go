// ABOUTME: Per-client rate limiting middleware
// ABOUTME: Token bucket per client IP, idle buckets are evicted in the background

package middleware

import (
	"encoding/json"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// idleTTL is how long an unused client bucket is kept
const idleTTL = 10 * time.Minute

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter hands out one token bucket per key
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*client
	limit   rate.Limit
	burst   int
	now     func() time.Time
	stop    chan struct{}
	once    sync.Once
}

// NewRateLimiter creates a limiter allowing perSecond sustained requests
// and bursts of up to burst requests per key
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	rl := &RateLimiter{
		clients: make(map[string]*client),
		limit:   rate.Limit(perSecond),
		burst:   burst,
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	go rl.evictLoop()
	return rl
}

// Allow consumes a token for key, reporting whether one was available
func (rl *RateLimiter) Allow(key string) bool {
	return rl.limiterFor(key).AllowN(rl.now(), 1)
}

// RetryAfter is how long key must wait for its next token
func (rl *RateLimiter) RetryAfter(key string) time.Duration {
	r := rl.limiterFor(key).ReserveN(rl.now(), 1)
	if !r.OK() {
		return time.Second
	}
	delay := r.DelayFrom(rl.now())
	r.CancelAt(rl.now())
	return delay
}

// Burst is the per-key bucket size
func (rl *RateLimiter) Burst() int {
	return rl.burst
}

// Stop ends the background eviction
func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stop) })
}

func (rl *RateLimiter) limiterFor(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	c, ok := rl.clients[key]
	if !ok {
		c = &client{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[key] = c
	}
	c.lastSeen = rl.now()
	return c.limiter
}

func (rl *RateLimiter) evictLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.evictIdle()
		case <-rl.stop:
			return
		}
	}
}

func (rl *RateLimiter) evictIdle() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-idleTTL)
	for key, c := range rl.clients {
		if c.lastSeen.Before(cutoff) {
			delete(rl.clients, key)
		}
	}
}

// extractIP returns the client address, preferring proxy headers
func extractIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// RateLimitMiddleware creates a rate limiting middleware
func RateLimitMiddleware(limiter *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := extractIP(r)
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limiter.Burst()))

			if !limiter.Allow(ip) {
				retryAfter := int(math.Ceil(limiter.RetryAfter(ip).Seconds()))
				if retryAfter < 1 {
					retryAfter = 1
				}

				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]interface{}{
					"status": http.StatusTooManyRequests,
					"title":  "Too Many Requests",
					"detail": "Rate limit exceeded. Please try again later.",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
