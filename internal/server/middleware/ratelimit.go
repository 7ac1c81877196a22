package middleware

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LoginLimiter throttles login attempts per client IP so credential stuffing
// cannot run at line rate. Idle entries are dropped after an hour.
type LoginLimiter struct {
	mu       sync.Mutex
	clients  map[string]*limiterEntry
	rate     rate.Limit
	burst    int
	lastSeen func() time.Time
}

type limiterEntry struct {
	limiter *rate.Limiter
	seen    time.Time
}

// NewLoginLimiter allows perMinute attempts per client with the given burst.
func NewLoginLimiter(perMinute, burst int) *LoginLimiter {
	return &LoginLimiter{
		clients:  make(map[string]*limiterEntry),
		rate:     rate.Limit(float64(perMinute) / 60.0),
		burst:    burst,
		lastSeen: time.Now,
	}
}

// Allow reports whether the client may attempt a login now.
func (l *LoginLimiter) Allow(clientIP string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.lastSeen()
	e, ok := l.clients[clientIP]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.clients[clientIP] = e
	}
	e.seen = now

	if len(l.clients) > 10000 {
		l.evict(now)
	}
	return e.limiter.Allow()
}

func (l *LoginLimiter) evict(now time.Time) {
	for ip, e := range l.clients {
		if now.Sub(e.seen) > time.Hour {
			delete(l.clients, ip)
		}
	}
}

// Limit wraps a handler and rejects over-limit clients with 429.
func (l *LoginLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(ClientIPFromContext(r.Context())) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "too many attempts, slow down"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
