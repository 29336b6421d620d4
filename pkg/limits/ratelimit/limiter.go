package ratelimit

import (
	"fmt"
	"sync"
	"time"

	"sentry-hq/conduit/pkg/clock"
)

// GlobalKey is the pseudo-key for the shared ceiling across all connector
// classes.
const GlobalKey = "global"

// DefaultGlobalLimit is the shared per-minute ceiling when none is
// configured.
const DefaultGlobalLimit = 100

// globalWindowSeconds is the span of the global ceiling window.
const globalWindowSeconds = 60

// KeyedLimiter admits requests against a per-key sliding window plus a
// global per-minute ceiling shared by all keys. The global ceiling is
// checked first with the same algorithm over a shared timestamp sequence.
type KeyedLimiter struct {
	globalLimit int
	global      *window

	mu      sync.RWMutex
	windows map[string]*window

	clk clock.Clock
}

// NewKeyedLimiter creates a limiter with the given global per-minute
// ceiling. A non-positive globalLimit selects DefaultGlobalLimit.
func NewKeyedLimiter(globalLimit int, clk clock.Clock) *KeyedLimiter {
	if globalLimit <= 0 {
		globalLimit = DefaultGlobalLimit
	}
	if clk == nil {
		clk = clock.System()
	}
	return &KeyedLimiter{
		globalLimit: globalLimit,
		global:      &window{},
		windows:     make(map[string]*window),
		clk:         clk,
	}
}

// Check runs one admission attempt for key with the given limit and
// window span in seconds. The global ceiling is evaluated first; a global
// denial never consumes a slot in the key window.
func (l *KeyedLimiter) Check(key string, limit, windowSeconds int) *Result {
	now := l.clk.Now()

	allowed, count, oldest := l.global.admit(now, l.globalLimit, globalWindowSeconds*time.Second)
	if !allowed {
		return denied(GlobalKey, l.globalLimit, count, now, oldest, globalWindowSeconds*time.Second)
	}

	if limit <= 0 || windowSeconds <= 0 {
		// No per-key limit configured; the global ceiling already admitted.
		return &Result{Allowed: true, Key: key, Limit: limit}
	}

	span := time.Duration(windowSeconds) * time.Second
	allowed, count, oldest = l.keyWindow(key).admit(now, limit, span)
	if !allowed {
		return denied(key, limit, count, now, oldest, span)
	}

	return &Result{
		Allowed:   true,
		Key:       key,
		Limit:     limit,
		Remaining: limit - count,
		Reset:     oldest.Add(span),
	}
}

// Usage returns a point-in-time view of a key's window without admitting.
func (l *KeyedLimiter) Usage(key string, limit, windowSeconds int) Usage {
	now := l.clk.Now()
	span := time.Duration(windowSeconds) * time.Second

	count, oldest := l.keyWindow(key).peek(now, span)
	u := Usage{
		Key:       key,
		Count:     count,
		Limit:     limit,
		Remaining: limit - count,
	}
	if u.Remaining < 0 {
		u.Remaining = 0
	}
	if count > 0 {
		u.Reset = oldest.Add(span)
	}
	return u
}

// Reset clears all windows, including the global ceiling. Primarily for
// tests.
func (l *KeyedLimiter) Reset() {
	l.global.reset()
	l.mu.Lock()
	defer l.mu.Unlock()
	l.windows = make(map[string]*window)
}

// keyWindow returns the window for key, creating it on first use.
func (l *KeyedLimiter) keyWindow(key string) *window {
	l.mu.RLock()
	w, ok := l.windows[key]
	l.mu.RUnlock()
	if ok {
		return w
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if w, ok = l.windows[key]; ok {
		return w
	}
	w = &window{}
	l.windows[key] = w
	return w
}

// denied builds a denial result with the retry-after hint derived from
// the oldest surviving timestamp: windowSpan - (now - oldest).
func denied(key string, limit, count int, now, oldest time.Time, span time.Duration) *Result {
	retryAfter := span - now.Sub(oldest)
	if retryAfter < 0 {
		retryAfter = 0
	}
	return &Result{
		Allowed:    false,
		Reason:     fmt.Sprintf("rate limit exceeded for %s: %d/%d in window", key, count, limit),
		Key:        key,
		Limit:      limit,
		Remaining:  0,
		RetryAfter: retryAfter,
		Reset:      oldest.Add(span),
	}
}
