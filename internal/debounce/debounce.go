// Package debounce provides trailing-edge debouncing for rapid events such
// as keystrokes.
package debounce

import (
	"sync"
	"time"
)

// Debouncer runs the most recently scheduled function once the delay has
// elapsed without another call.
type Debouncer struct {
	mu       sync.Mutex
	timer    *time.Timer
	pending  func()
	duration time.Duration
}

// New creates a debouncer with the given delay.
func New(duration time.Duration) *Debouncer {
	return &Debouncer{duration: duration}
}

// Debounce schedules fn, cancelling any call that has not fired yet.
func (d *Debouncer) Debounce(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.pending = fn

	var timer *time.Timer
	timer = time.AfterFunc(d.duration, func() {
		d.mu.Lock()
		// A newer Debounce or a Cancel replaced this timer.
		if d.timer != timer {
			d.mu.Unlock()
			return
		}
		f := d.pending
		d.timer, d.pending = nil, nil
		d.mu.Unlock()
		f()
	})
	d.timer = timer
}

// Cancel drops the pending call, if any.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer, d.pending = nil, nil
}

// Flush runs the pending call now instead of waiting for the delay.
// It reports whether a call was pending.
func (d *Debouncer) Flush() bool {
	d.mu.Lock()
	f := d.pending
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer, d.pending = nil, nil
	d.mu.Unlock()

	if f == nil {
		return false
	}
	f()
	return true
}

// Pending reports whether a call is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending != nil
}

// Func debounces calls to fn, keeping only the latest argument.
type Func[T any] struct {
	d  *Debouncer
	fn func(T)
}

// Wrap returns a debounced version of fn.
func Wrap[T any](duration time.Duration, fn func(T)) *Func[T] {
	return &Func[T]{d: New(duration), fn: fn}
}

// Call schedules fn(v), replacing any pending call.
func (f *Func[T]) Call(v T) {
	f.d.Debounce(func() { f.fn(v) })
}

// Cancel drops the pending call.
func (f *Func[T]) Cancel() { f.d.Cancel() }

// Flush runs the pending call immediately.
func (f *Func[T]) Flush() bool { return f.d.Flush() }
