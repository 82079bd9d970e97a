package middleware

import (
	"net/http"
	"sync"
	"time"
)

type bucket struct {
	count    int
	windowAt time.Time
}

// RateLimiter caps requests per remote address inside a fixed window. It
// guards the generation endpoints, which fan out to the AI provider.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   int
	window  time.Duration
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		buckets: make(map[string]*bucket),
		limit:   limit,
		window:  window,
	}

	// Prune idle buckets so the map does not grow forever
	go func() {
		for range time.Tick(window) {
			rl.mu.Lock()
			for ip, b := range rl.buckets {
				if time.Since(b.windowAt) > window {
					delete(rl.buckets, ip)
				}
			}
			rl.mu.Unlock()
		}
	}()

	return rl
}

// allow counts a request for ip and reports whether it is within the limit.
func (rl *RateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[ip]
	if !ok || time.Since(b.windowAt) > rl.window {
		rl.buckets[ip] = &bucket{count: 1, windowAt: time.Now()}
		return true
	}

	b.count++
	return b.count <= rl.limit
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(r.RemoteAddr) {
			writeError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests. Please try again later.", r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
