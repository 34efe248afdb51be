// Package ratelimit caps how many attempts a key may make within a fixed
// window.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/dtroode/salesdesk/internal/model"
)

var _ model.Limiter = (*MemoryLimiter)(nil)

// MemoryLimiter is a fixed-window limiter local to the process.
type MemoryLimiter struct {
	mu           sync.Mutex
	limit        int
	window       time.Duration
	entries      map[string]*entry
	lastCleanup  time.Time
	cleanupEvery time.Duration
}

type entry struct {
	count int
	reset time.Time
}

func NewMemory(limit int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		limit:        limit,
		window:       window,
		entries:      map[string]*entry{},
		lastCleanup:  time.Now(),
		cleanupEvery: window,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string, now time.Time) (bool, time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastCleanup) >= l.cleanupEvery {
		for k, v := range l.entries {
			if now.After(v.reset) {
				delete(l.entries, k)
			}
		}
		l.lastCleanup = now
	}

	e, ok := l.entries[key]
	if !ok || now.After(e.reset) {
		l.entries[key] = &entry{count: 1, reset: now.Add(l.window)}
		return true, 0, nil
	}

	if e.count >= l.limit {
		return false, max(e.reset.Sub(now), 0), nil
	}

	e.count++
	return true, 0, nil
}

func (l *MemoryLimiter) Exceeded(_ context.Context, key string, now time.Time) (bool, time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok || now.After(e.reset) || e.count < l.limit {
		return false, 0, nil
	}
	return true, max(e.reset.Sub(now), 0), nil
}
