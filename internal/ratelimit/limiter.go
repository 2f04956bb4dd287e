// Package ratelimit throttles onboarding submissions and status polling.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter answers whether one more request under key fits inside the
// window. Implementations fail open only by explicit caller choice.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type windowEntry struct {
	count   int
	resetAt time.Time
}

// WindowLimiter is an in-process fixed-window limiter. It is the fallback
// when Redis is not configured and is good enough for a single instance.
type WindowLimiter struct {
	mu      sync.Mutex
	entries map[string]*windowEntry
	now     func() time.Time
}

// NewWindowLimiter builds an in-process limiter.
func NewWindowLimiter() *WindowLimiter {
	return &WindowLimiter{
		entries: make(map[string]*windowEntry),
		now:     time.Now,
	}
}

func (l *WindowLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	entry, ok := l.entries[key]
	if !ok || now.After(entry.resetAt) {
		l.entries[key] = &windowEntry{count: 1, resetAt: now.Add(window)}
		l.sweep(now)
		return true, nil
	}
	if entry.count >= limit {
		return false, nil
	}
	entry.count++
	return true, nil
}

// sweep drops expired entries so the map does not grow unbounded. Called
// under the lock.
func (l *WindowLimiter) sweep(now time.Time) {
	if len(l.entries) < 4096 {
		return
	}
	for key, entry := range l.entries {
		if now.After(entry.resetAt) {
			delete(l.entries, key)
		}
	}
}
