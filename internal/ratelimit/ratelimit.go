// Package ratelimit provides a fixed-window per-client request limiter.
// A nil Store disables limiting and every request passes.
package ratelimit

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Store is the minimal counter interface the limiter needs.
// In production this is implemented by go-redis; in tests by an in-memory map.
type Store interface {
	// Incr atomically increments a counter key and returns the new value.
	Incr(ctx context.Context, key string) (int64, error)
	// Expire sets the TTL on a key.
	Expire(ctx context.Context, key string, ttl time.Duration) error
	// TTL returns the remaining time-to-live on a key.
	TTL(ctx context.Context, key string) (time.Duration, error)
}

// Limiter allows at most Max requests per Window for each key.
type Limiter struct {
	store  Store
	max    int
	window time.Duration
}

// New creates a Limiter. If store is nil, the Limiter always allows requests.
func New(store Store, max int, window time.Duration) *Limiter {
	return &Limiter{store: store, max: max, window: window}
}

// Allow increments the counter for key and reports whether the request is
// within the limit. When it is not, retryAfter is the time until the window
// resets. Store errors fail open.
func (l *Limiter) Allow(ctx context.Context, key string) (allowed bool, retryAfter time.Duration) {
	if l.store == nil || l.max <= 0 {
		return true, 0
	}

	count, err := l.store.Incr(ctx, key)
	if err != nil {
		return true, 0
	}
	if count == 1 {
		_ = l.store.Expire(ctx, key, l.window)
	}
	if count <= int64(l.max) {
		return true, 0
	}

	ttl, err := l.store.TTL(ctx, key)
	if err != nil || ttl <= 0 {
		ttl = l.window
	}
	return false, ttl
}

// Middleware rejects clients over the limit with 429 and a Retry-After header.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, retry := l.Allow(r.Context(), "rate:ip:"+ClientIP(r))
		if !allowed {
			secs := int(retry.Round(time.Second).Seconds())
			if secs < 1 {
				secs = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(secs))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"error": "too many requests, please try again later",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ClientIP extracts the client IP from a request, handling reverse proxy headers.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
