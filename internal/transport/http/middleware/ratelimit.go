package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	limiterIdle  = 10 * time.Minute
	limiterSweep = 5 * time.Minute
)

// KeyFunc picks the bucket a request is charged to.
type KeyFunc func(r *http.Request) string

// ByIP charges the client address. Behind a proxy, run chi's RealIP first so
// RemoteAddr holds the forwarded address.
func ByIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// ByUser charges the authenticated user, falling back to the address for
// anonymous requests. It must run after Auth.
func ByUser(r *http.Request) string {
	if c, ok := ClaimsFromContext(r.Context()); ok && c.UserID != "" {
		return "user:" + c.UserID
	}
	return ByIP(r)
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is a keyed token bucket. Idle buckets are dropped in the background.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	r       rate.Limit
	burst   int
	key     KeyFunc
}

// NewRateLimiter allows r requests per second per key with bursts up to burst.
func NewRateLimiter(r rate.Limit, burst int, key KeyFunc) *RateLimiter {
	rl := &RateLimiter{
		buckets: make(map[string]*bucket),
		r:       r,
		burst:   burst,
		key:     key,
	}
	go rl.evict()
	return rl
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := time.Now()
	if b, ok := rl.buckets[key]; ok {
		b.lastSeen = now
		return b.limiter
	}
	l := rate.NewLimiter(rl.r, rl.burst)
	rl.buckets[key] = &bucket{limiter: l, lastSeen: now}
	return l
}

func (rl *RateLimiter) evict() {
	t := time.NewTicker(limiterSweep)
	defer t.Stop()
	for now := range t.C {
		rl.mu.Lock()
		for k, b := range rl.buckets {
			if now.Sub(b.lastSeen) > limiterIdle {
				delete(rl.buckets, k)
			}
		}
		rl.mu.Unlock()
	}
}

// Limit rejects requests over budget with 429 and a Retry-After in whole seconds.
func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res := rl.limiter(rl.key(r)).Reserve()
		if delay := res.Delay(); delay > 0 {
			res.Cancel()
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(delay.Seconds()))))
			reject(w, http.StatusTooManyRequests, "Too many requests. Try again shortly.")
			return
		}
		next.ServeHTTP(w, r)
	})
}
