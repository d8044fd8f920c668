package service

import (
	"sync"
	"time"
)

type limiterKey struct {
	source string
	code   string
}

// RateLimiter suppresses repeat visit logging from the same (source, code)
// pair inside a fixed window. State is process-local and ephemeral: losing
// it on restart costs at most one extra logged visit, so it is never a
// source of truth for analytics.
//
// Expired entries are swept lazily on every check. Sustained traffic from
// ever-new sources would still grow the map between sweeps; a capacity bound
// would be the next step if this ever fronts untrusted volume.
type RateLimiter struct {
	mu      sync.Mutex
	window  time.Duration
	entries map[limiterKey]time.Time
	now     func() time.Time
}

// NewRateLimiter creates a limiter with the given suppression window.
func NewRateLimiter(window time.Duration) *RateLimiter {
	if window <= 0 {
		window = time.Hour
	}
	return &RateLimiter{
		window:  window,
		entries: make(map[limiterKey]time.Time),
		now:     time.Now,
	}
}

// ShouldSuppress reports whether this (source, code) pair was already
// accepted within the window. When it was not, the acceptance is recorded
// as a side effect.
func (l *RateLimiter) ShouldSuppress(source, code string) bool {
	key := limiterKey{source: source, code: code}
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	for k, at := range l.entries {
		if now.Sub(at) > l.window {
			delete(l.entries, k)
		}
	}

	if at, ok := l.entries[key]; ok && now.Sub(at) < l.window {
		return true
	}

	l.entries[key] = now
	return false
}
