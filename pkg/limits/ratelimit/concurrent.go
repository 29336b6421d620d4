package ratelimit

import "sync/atomic"

// ConcurrentLimiter bounds the number of simultaneous in-flight requests
// through the gateway. It is a lock-free counting semaphore.
type ConcurrentLimiter struct {
	limit   int64
	current atomic.Int64
}

// NewConcurrentLimiter creates a limiter allowing at most limit
// simultaneous requests. A non-positive limit disables the bound.
func NewConcurrentLimiter(limit int) *ConcurrentLimiter {
	return &ConcurrentLimiter{limit: int64(limit)}
}

// Acquire attempts to take a concurrency slot. On success the caller must
// Release when done:
//
//	if limiter.Acquire() {
//	    defer limiter.Release()
//	    // ... dispatch ...
//	}
func (cl *ConcurrentLimiter) Acquire() bool {
	if cl.limit <= 0 {
		return true
	}
	if cl.current.Add(1) > cl.limit {
		cl.current.Add(-1)
		return false
	}
	return true
}

// Release returns a slot taken by a successful Acquire.
func (cl *ConcurrentLimiter) Release() {
	if cl.limit <= 0 {
		return
	}
	cl.current.Add(-1)
}

// Current returns the number of in-flight requests.
func (cl *ConcurrentLimiter) Current() int64 {
	return cl.current.Load()
}

// Remaining returns the number of free slots.
func (cl *ConcurrentLimiter) Remaining() int64 {
	if cl.limit <= 0 {
		return 1<<62 - 1
	}
	r := cl.limit - cl.current.Load()
	if r < 0 {
		return 0
	}
	return r
}
