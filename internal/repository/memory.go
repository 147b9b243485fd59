package repository

import (
	"context"
	"sync"
	"time"
)

// sweepInterval bounds how often CheckRateLimit scans for expired counters.
const sweepInterval = time.Minute

// MemoryRateLimiter keeps counters in process memory. Expired counters are
// dropped lazily while checking.
type MemoryRateLimiter struct {
	mu        sync.Mutex
	entries   map[int64]*rateLimitEntry
	lastSweep time.Time
	now       func() time.Time
}

type rateLimitEntry struct {
	count     int
	expiresAt time.Time
}

func NewMemoryRateLimiter() *MemoryRateLimiter {
	return &MemoryRateLimiter{
		entries: make(map[int64]*rateLimitEntry),
		now:     time.Now,
	}
}

func (r *MemoryRateLimiter) CheckRateLimit(_ context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	if now.Sub(r.lastSweep) >= sweepInterval {
		r.sweepLocked(now)
	}

	entry, ok := r.entries[userID]
	if !ok || !now.Before(entry.expiresAt) {
		entry = &rateLimitEntry{expiresAt: now.Add(window)}
		r.entries[userID] = entry
	}
	entry.count++

	return entry.count <= limit, nil
}

// Sweep drops expired counters.
func (r *MemoryRateLimiter) Sweep() {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.sweepLocked(now)
}

func (r *MemoryRateLimiter) sweepLocked(now time.Time) {
	r.lastSweep = now
	for id, entry := range r.entries {
		if !now.Before(entry.expiresAt) {
			delete(r.entries, id)
		}
	}
}
