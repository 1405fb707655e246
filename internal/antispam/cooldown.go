// Package antispam drops user actions that arrive too quickly after the
// previous accepted one.
package antispam

import (
	"sync"
	"time"
)

// Cooldown tracks the last accepted action per user. Safe for concurrent use.
type Cooldown struct {
	mu     sync.Mutex
	window time.Duration
	last   map[string]time.Time
}

// NewCooldown creates a tracker; a window <= 0 accepts everything
func NewCooldown(window time.Duration) *Cooldown {
	return &Cooldown{
		window: window,
		last:   make(map[string]time.Time),
	}
}

// Allow reports whether an action by userID at now is accepted. Only accepted
// actions restart the window.
func (c *Cooldown) Allow(userID string, now time.Time) bool {
	if c.window <= 0 {
		return true
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if last, ok := c.last[userID]; ok && now.Sub(last) < c.window {
		return false
	}
	c.last[userID] = now
	return true
}

// Remaining returns how long userID still has to wait at now
func (c *Cooldown) Remaining(userID string, now time.Time) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	last, ok := c.last[userID]
	if !ok {
		return 0
	}
	if left := c.window - now.Sub(last); left > 0 {
		return left
	}
	return 0
}

// Prune forgets users whose window ended before now
func (c *Cooldown) Prune(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for id, last := range c.last {
		if now.Sub(last) >= c.window {
			delete(c.last, id)
			removed++
		}
	}
	return removed
}
