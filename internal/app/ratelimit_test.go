package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestChatRateLimiterSlidingWindow(t *testing.T) {
	rl := NewChatRateLimiter(2, 10*time.Second)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("c1"))
	assert.True(t, rl.Allow("c1"))
	assert.False(t, rl.Allow("c1"), "third message inside the window is denied")

	// Another connection has its own budget.
	assert.True(t, rl.Allow("c2"))

	// Once the window slides past, the budget recovers.
	now = now.Add(11 * time.Second)
	assert.True(t, rl.Allow("c1"))
}

func TestChatRateLimiterForget(t *testing.T) {
	rl := NewChatRateLimiter(1, time.Minute)

	assert.True(t, rl.Allow("c1"))
	assert.False(t, rl.Allow("c1"))

	rl.Forget("c1")
	assert.True(t, rl.Allow("c1"))
}
