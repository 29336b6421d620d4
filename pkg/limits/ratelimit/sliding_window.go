package ratelimit

import (
	"sync"
	"time"
)

// window is an ordered sequence of admission timestamps for one key.
// All methods require the caller to hold mu.
type window struct {
	mu    sync.Mutex
	times []time.Time
}

// admit trims expired timestamps and, if capacity remains, appends now.
// It returns the admission decision, the surviving count after the
// operation, and the oldest surviving timestamp (zero when the window is
// empty). Trim and append are a single critical section.
func (w *window) admit(now time.Time, limit int, span time.Duration) (allowed bool, count int, oldest time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.trimLocked(now, span)

	if len(w.times) >= limit {
		return false, len(w.times), w.times[0]
	}

	w.times = append(w.times, now)
	if len(w.times) > 0 {
		oldest = w.times[0]
	}
	return true, len(w.times), oldest
}

// peek trims expired timestamps and returns the current state without
// admitting.
func (w *window) peek(now time.Time, span time.Duration) (count int, oldest time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.trimLocked(now, span)
	if len(w.times) > 0 {
		oldest = w.times[0]
	}
	return len(w.times), oldest
}

// trimLocked drops timestamps older than now-span. Timestamps are
// appended in order, so the first surviving index bounds the cut.
func (w *window) trimLocked(now time.Time, span time.Duration) {
	cutoff := now.Add(-span)
	i := 0
	for i < len(w.times) && !w.times[i].After(cutoff) {
		i++
	}
	if i > 0 {
		w.times = append(w.times[:0], w.times[i:]...)
	}
}

// reset clears all timestamps.
func (w *window) reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.times = w.times[:0]
}
