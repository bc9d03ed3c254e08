package server

import (
	"sync"

	"golang.org/x/time/rate"
)

// ownerRateLimiter throttles deployment creation per owner hash. Limiters
// are created lazily; the map is small (one entry per active credential) so
// there is no eviction.
type ownerRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter

	perMinute int
}

func newOwnerRateLimiter(perMinute int) *ownerRateLimiter {
	if perMinute <= 0 {
		perMinute = 100
	}
	return &ownerRateLimiter{
		limiters:  map[string]*rate.Limiter{},
		perMinute: perMinute,
	}
}

func (l *ownerRateLimiter) allow(ownerHash string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	limiter, ok := l.limiters[ownerHash]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(float64(l.perMinute)/60.0), l.perMinute)
		l.limiters[ownerHash] = limiter
	}
	return limiter.Allow()
}
