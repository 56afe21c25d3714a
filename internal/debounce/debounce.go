package debounce

import (
	"sync"
	"time"
)

// DefaultWait is the quiet period used for search inputs.
const DefaultWait = 500 * time.Millisecond

// Debouncer runs fn once with the most recent argument after wait has
// passed without another Trigger. It does not cancel a run in progress.
type Debouncer[T any] struct {
	wait time.Duration
	fn   func(T)

	mutex   sync.Mutex
	timer   *time.Timer
	pending bool
	arg     T
	gen     uint64
}

func New[T any](wait time.Duration, fn func(T)) *Debouncer[T] {
	return &Debouncer[T]{wait: wait, fn: fn}
}

// Trigger records arg and restarts the quiet period.
func (d *Debouncer[T]) Trigger(arg T) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.arg = arg
	d.pending = true
	d.gen++
	gen := d.gen

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.wait, func() { d.fire(gen) })
}

func (d *Debouncer[T]) fire(gen uint64) {
	d.mutex.Lock()
	// A later Trigger, Stop or Flush superseded this timer.
	if !d.pending || gen != d.gen {
		d.mutex.Unlock()
		return
	}
	arg := d.take()
	d.mutex.Unlock()

	d.fn(arg)
}

// take clears the pending call. Callers hold the mutex.
func (d *Debouncer[T]) take() T {
	arg := d.arg
	var zero T
	d.arg = zero
	d.pending = false
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	return arg
}

// Stop drops a pending call.
func (d *Debouncer[T]) Stop() {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if d.pending {
		d.take()
	}
}

// Flush runs a pending call now, on the caller's goroutine. It reports
// whether anything ran.
func (d *Debouncer[T]) Flush() bool {
	d.mutex.Lock()
	if !d.pending {
		d.mutex.Unlock()
		return false
	}
	arg := d.take()
	d.mutex.Unlock()

	d.fn(arg)
	return true
}

// Pending reports whether a call is waiting for the quiet period to end.
func (d *Debouncer[T]) Pending() bool {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.pending
}
