package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "tally/internal/errors"
)

// rateLimiter keeps a sliding window of request times per client IP.
type rateLimiter struct {
	mu          sync.Mutex
	maxAttempts int
	window      time.Duration
	hits        map[string][]time.Time
}

func (l *rateLimiter) allow(ip string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	recent := inWindow(l.hits[ip], now.Add(-l.window))
	if len(recent) >= l.maxAttempts {
		l.hits[ip] = recent
		return false
	}
	l.hits[ip] = append(recent, now)
	return true
}

// prune drops clients with no requests inside the window.
func (l *rateLimiter) prune(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := now.Add(-l.window)
	for ip, times := range l.hits {
		recent := inWindow(times, cutoff)
		if len(recent) == 0 {
			delete(l.hits, ip)
		} else {
			l.hits[ip] = recent
		}
	}
}

func inWindow(times []time.Time, cutoff time.Time) []time.Time {
	kept := times[:0]
	for _, t := range times {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	return kept
}

// pruneEvery runs prune on every tick until ctx is done.
func (l *rateLimiter) pruneEvery(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			l.prune(now)
		}
	}
}

// RateLimit allows each client IP at most maxAttempts requests per window and
// answers the rest with 429. It guards login and the emailed token links.
// Idle clients are forgotten in the background until ctx is done.
func RateLimit(ctx context.Context, maxAttempts int, window time.Duration) gin.HandlerFunc {
	l := &rateLimiter{
		maxAttempts: maxAttempts,
		window:      window,
		hits:        make(map[string][]time.Time),
	}

	go l.pruneEvery(ctx, time.Minute)

	return func(c *gin.Context) {
		if !l.allow(c.ClientIP(), time.Now()) {
			abortWithError(c, apperrors.ErrTooManyRequests)
			return
		}
		c.Next()
	}
}
