// Package clock provides the single abstract time source used by the
// gateway for both rate-limit window arithmetic and timestamp emission.
// Tests inject a Virtual clock; production code uses System.
package clock

import (
	"sync"
	"time"
)

// Clock is the abstract time source. All gateway timestamps come from a
// Clock so tests can control time deterministically.
type Clock interface {
	// Now returns the current time. Implementations must return UTC.
	Now() time.Time
}

// systemClock reads the wall clock.
type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// System returns the real wall-clock time source.
func System() Clock { return systemClock{} }

// Virtual is a controllable clock for tests. The zero value is not usable;
// create one with NewVirtual.
type Virtual struct {
	mu  sync.Mutex
	now time.Time
}

// NewVirtual creates a virtual clock fixed at the given instant.
func NewVirtual(start time.Time) *Virtual {
	return &Virtual{now: start.UTC()}
}

// Now returns the current virtual time.
func (v *Virtual) Now() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.now
}

// Advance moves the virtual clock forward by d.
func (v *Virtual) Advance(d time.Duration) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.now = v.now.Add(d)
}

// Set pins the virtual clock to the given instant.
func (v *Virtual) Set(t time.Time) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.now = t.UTC()
}
