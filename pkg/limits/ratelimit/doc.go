// Package ratelimit provides the sliding-window admission control used by
// the communication gateway.
//
// # Overview
//
// Two limiters cooperate:
//
//   - KeyedLimiter: a sliding-window counter per connector-class key plus
//     a global ceiling shared across all keys
//   - ConcurrentLimiter: a counting semaphore bounding simultaneous
//     in-flight requests
//
// # Sliding Window
//
// Each key owns an ordered sequence of admission timestamps. On every
// check, timestamps older than the window are dropped; if the surviving
// count has reached the limit the request is denied with a retry-after
// hint computed from the oldest surviving timestamp, otherwise the current
// timestamp is appended and the request admitted. Trim and append form a
// critical section per key, making admissions linearizable per key.
//
//	limiter := ratelimit.NewKeyedLimiter(100, clock.System())
//	res := limiter.Check("web_search", 30, 60)
//	if !res.Allowed {
//	    // res.RetryAfter tells the caller when to come back
//	}
//
// # Clock
//
// All window arithmetic goes through the injected clock so tests can use
// a virtual time source.
package ratelimit
