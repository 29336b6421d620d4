package ratelimit

import "time"

// Result contains the outcome of a rate-limit admission check.
type Result struct {
	// Allowed indicates whether the request was admitted.
	Allowed bool

	// Reason explains a denial ("" when admitted).
	Reason string

	// Key is the limiter key the decision applies to ("global" for the
	// shared ceiling).
	Key string

	// Limit is the configured limit for the window.
	Limit int

	// Remaining is the number of admissions left in the window.
	Remaining int

	// RetryAfter suggests how long to wait before retrying, computed
	// from the oldest surviving timestamp. Zero when admitted.
	RetryAfter time.Duration

	// Reset is when the oldest admission falls out of the window.
	Reset time.Time
}

// Usage is a point-in-time view of a key's window for introspection.
type Usage struct {
	Key       string    `json:"key"`
	Count     int       `json:"count"`
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	Reset     time.Time `json:"reset"`
}
