package app

import (
	"sync"
	"time"

	"github.com/voxlink/huddle/internal/domain"
)

// ChatRateLimiter bounds chat throughput per connection with a sliding
// window. Over-limit messages are dropped silently.
type ChatRateLimiter struct {
	mu       sync.Mutex
	history  map[domain.ConnID][]time.Time
	limit    int
	interval time.Duration
	now      func() time.Time
}

func NewChatRateLimiter(limit int, interval time.Duration) *ChatRateLimiter {
	return &ChatRateLimiter{
		history:  make(map[domain.ConnID][]time.Time),
		limit:    limit,
		interval: interval,
		now:      time.Now,
	}
}

func (rl *ChatRateLimiter) Allow(conn domain.ConnID) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	windowStart := now.Add(-rl.interval)

	attempts := rl.history[conn]
	fresh := make([]time.Time, 0, len(attempts))
	for _, t := range attempts {
		if t.After(windowStart) {
			fresh = append(fresh, t)
		}
	}

	if len(fresh) >= rl.limit {
		rl.history[conn] = fresh
		return false
	}

	rl.history[conn] = append(fresh, now)
	return true
}

// Forget drops a connection's history once it disconnects.
func (rl *ChatRateLimiter) Forget(conn domain.ConnID) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.history, conn)
}
