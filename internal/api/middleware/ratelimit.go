package middleware

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	apperrors "github.com/zatekoja/streamlinecare/pkg/errors"

	"github.com/zatekoja/streamlinecare/internal/infrastructure/observability"
)

// limiterIdleTTL is how long an idle client keeps its limiter
const limiterIdleTTL = 10 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter throttles submissions per client IP. Reads are never limited.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*clientLimiter
	limit    rate.Limit
	burst    int
	metrics  *observability.Metrics
	now      func() time.Time
	lastGC   time.Time
}

// NewRateLimiter creates a limiter allowing rps requests per second with the
// given burst for each client
func NewRateLimiter(rps float64, burst int, metrics *observability.Metrics) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		limiters: make(map[string]*clientLimiter),
		limit:    rate.Limit(rps),
		burst:    burst,
		metrics:  metrics,
		now:      time.Now,
	}
}

// getLimiter returns the rate limiter for a given IP, creating one if it doesn't exist.
func (l *RateLimiter) getLimiter(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastGC) > limiterIdleTTL {
		for key, c := range l.limiters {
			if now.Sub(c.lastSeen) > limiterIdleTTL {
				delete(l.limiters, key)
			}
		}
		l.lastGC = now
	}

	c, exists := l.limiters[ip]
	if !exists {
		c = &clientLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[ip] = c
	}
	c.lastSeen = now
	return c.limiter
}

// Middleware returns the rate limiting handler
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			next.ServeHTTP(w, r)
			return
		}

		ip := clientIP(r)
		if !l.getLimiter(ip).Allow() {
			log.Warn().Str("ip", ip).Str("path", r.URL.Path).Msg("rate limit exceeded")
			observability.RecordRateLimited(r.Context(), l.metrics, r.URL.Path)

			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"success": false,
				"kind":    apperrors.KindRateLimited,
				"error":   "rate limit exceeded, try again later",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}
