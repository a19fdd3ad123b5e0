// Package ratelimit is an in-memory sliding-window request throttle.
//
// State is process-local and lost on restart; the limiter is a cache,
// not a source of truth.
package ratelimit

import (
	"sync"
	"time"
)

// purgeInterval bounds how often the full stale-key sweep runs.
const purgeInterval = 10 * time.Minute

// Rule is a single sliding-window limit with the message returned to
// the caller when the limit is hit.
type Rule struct {
	MaxRequests int
	Window      time.Duration
	Message     string
}

// Limiter tracks request timestamps per key and checks each incoming
// request against one or more rules. Safe for concurrent use.
type Limiter struct {
	rules     []Rule
	maxWindow time.Duration

	mu        sync.Mutex
	store     map[string][]time.Time
	lastPurge time.Time

	now func() time.Time
}

func New(rules ...Rule) *Limiter {
	if len(rules) == 0 {
		panic("ratelimit: at least one rule is required")
	}
	maxWindow := rules[0].Window
	for _, rule := range rules[1:] {
		if rule.Window > maxWindow {
			maxWindow = rule.Window
		}
	}
	l := &Limiter{
		rules:     rules,
		maxWindow: maxWindow,
		store:     make(map[string][]time.Time),
		now:       time.Now,
	}
	l.lastPurge = l.now()
	return l
}

// Check records a request for key and tests it against every rule.
// It returns denied=true and the breached rule's message when a limit
// is exceeded; a denied attempt is not recorded.
func (l *Limiter) Check(key string) (denied bool, message string) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.maybePurge(now)

	timestamps := l.store[key]
	cutoff := now.Add(-l.maxWindow)
	kept := timestamps[:0]
	for _, ts := range timestamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	timestamps = kept

	for _, rule := range l.rules {
		windowStart := now.Add(-rule.Window)
		recent := 0
		for _, ts := range timestamps {
			if ts.After(windowStart) {
				recent++
			}
		}
		if recent >= rule.MaxRequests {
			l.store[key] = timestamps
			return true, rule.Message
		}
	}

	l.store[key] = append(timestamps, now)
	return false, ""
}

// Reset removes all recorded timestamps for key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.store, key)
}

// Clear removes all stored data.
func (l *Limiter) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.store = make(map[string][]time.Time)
}

// maybePurge drops keys whose timestamps are all outside the longest
// window. Called under the lock, at most once per purgeInterval.
func (l *Limiter) maybePurge(now time.Time) {
	if now.Sub(l.lastPurge) < purgeInterval {
		return
	}
	l.lastPurge = now
	cutoff := now.Add(-l.maxWindow)
	for key, timestamps := range l.store {
		if len(timestamps) == 0 || !timestamps[len(timestamps)-1].After(cutoff) {
			delete(l.store, key)
		}
	}
}
