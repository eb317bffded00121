package middleware

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	limiterSweep = 10 * time.Minute
	limiterIdle  = 30 * time.Minute
)

type keyedLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// limiters is a set of token buckets keyed by K. Stale entries are removed
// every limiterSweep until ctx is done.
type limiters[K comparable] struct {
	mu      sync.Mutex
	entries map[K]*keyedLimiter
	rps     rate.Limit
	burst   int
}

func newLimiters[K comparable](ctx context.Context, requestsPerSecond float64, burst int) *limiters[K] {
	l := &limiters[K]{
		entries: make(map[K]*keyedLimiter),
		rps:     rate.Limit(requestsPerSecond),
		burst:   burst,
	}

	go func() {
		ticker := time.NewTicker(limiterSweep)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				l.sweep(time.Now().Add(-limiterIdle))
			case <-ctx.Done():
				return
			}
		}
	}()
	return l
}

func (l *limiters[K]) sweep(cutoff time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for k, e := range l.entries {
		if e.lastAccess.Before(cutoff) {
			delete(l.entries, k)
		}
	}
}

func (l *limiters[K]) allow(key K) bool {
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &keyedLimiter{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.entries[key] = e
	}
	e.lastAccess = time.Now()
	l.mu.Unlock()
	return e.limiter.Allow()
}

const tooManyRequestsBody = `{"message":"Demasiadas solicitudes","statusCode":429}`

// RateLimitByIP applies per-IP rate limiting for unauthenticated endpoints
// such as the login and register posts. The client address is r.RemoteAddr,
// which chi's RealIP middleware rewrites. Rejected requests are handed to
// onLimit; nil selects a JSON 429.
func RateLimitByIP(ctx context.Context, requestsPerSecond float64, burst int, onLimit http.Handler) func(http.Handler) http.Handler {
	l := newLimiters[string](ctx, requestsPerSecond, burst)
	if onLimit == nil {
		onLimit = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			writeJSONError(w, http.StatusTooManyRequests, tooManyRequestsBody)
		})
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.allow(clientIP(r)) {
				onLimit.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP returns the host part of r.RemoteAddr so that every connection
// from one address shares a bucket.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil || host == "" {
		return r.RemoteAddr
	}
	return host
}

// RateLimit applies per-user rate limiting behind Auth. Requests without a
// user in context pass through.
func RateLimit(ctx context.Context, requestsPerSecond float64, burst int) func(http.Handler) http.Handler {
	l := newLimiters[int](ctx, requestsPerSecond, burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := UserIDFromContext(r.Context())
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			if !l.allow(userID) {
				writeJSONError(w, http.StatusTooManyRequests, tooManyRequestsBody)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
