package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type entry struct {
	lim  *rate.Limiter
	last time.Time
}

// Limiter keeps one token bucket per key. Each key starts full.
type Limiter struct {
	mu    sync.Mutex
	m     map[string]*entry
	limit rate.Limit
	burst int
	now   func() time.Time
}

// New allows bursts of capacity requests per key, refilled at refillPerSec.
func New(capacity, refillPerSec float64) *Limiter {
	return &Limiter{
		m:     make(map[string]*entry),
		limit: rate.Limit(refillPerSec),
		burst: max(int(capacity), 1),
		now:   time.Now,
	}
}

// Allow returns true if one token can be consumed for key.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	e, ok := l.m[key]
	if !ok {
		e = &entry{lim: rate.NewLimiter(l.limit, l.burst)}
		l.m[key] = e
	}
	e.last = now
	return e.lim.AllowN(now, 1)
}

// Prune drops keys idle for longer than idle and returns how many were dropped.
func (l *Limiter) Prune(idle time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	n := 0
	for k, e := range l.m {
		if now.Sub(e.last) > idle {
			delete(l.m, k)
			n++
		}
	}
	return n
}
