// Package debounce coalesces a rapid sequence of triggers into a single
// delayed action reflecting only the final one. The clock is an interface so
// the window can be tested without sleeping.
package debounce

import (
	"sync"
	"time"
)

// Timer is a cancellable pending firing.
type Timer interface {
	// Stop cancels the firing; reports whether it was still pending.
	Stop() bool
}

// Clock abstracts the runtime's timer primitive.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// RealClock delegates to the time package.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

func (RealClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// DefaultWindow is the reference coalescing window.
const DefaultWindow = 500 * time.Millisecond

// Debouncer schedules one pending action at a time. A new Trigger cancels
// the pending one and restarts the window, so the action that finally runs
// always reflects the latest call. That restart is a correctness requirement:
// the persisted data must never be a stale intermediate.
type Debouncer struct {
	mu      sync.Mutex
	clock   Clock
	window  time.Duration
	pending Timer
	fn      func()
}

// New builds a debouncer. Zero window means DefaultWindow; nil clock means
// the real one.
func New(window time.Duration, clock Clock) *Debouncer {
	if window <= 0 {
		window = DefaultWindow
	}
	if clock == nil {
		clock = RealClock{}
	}
	return &Debouncer{clock: clock, window: window}
}

// Trigger replaces any pending action with fn, restarting the window.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pending != nil {
		d.pending.Stop()
	}
	d.fn = fn
	d.pending = d.clock.AfterFunc(d.window, func() { d.fire() })
}

// Flush runs the pending action now, if any.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	fn := d.fn
	if d.pending != nil {
		d.pending.Stop()
	}
	d.pending = nil
	d.fn = nil
	d.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// Stop discards the pending action without running it.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	if d.pending != nil {
		d.pending.Stop()
	}
	d.pending = nil
	d.fn = nil
	d.mu.Unlock()
}

// Pending reports whether an action is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending != nil
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	fn := d.fn
	d.pending = nil
	d.fn = nil
	d.mu.Unlock()

	if fn != nil {
		fn()
	}
}
