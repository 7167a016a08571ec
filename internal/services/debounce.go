package services

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

const minDebounce = time.Millisecond

// Debouncer collapses bursts of values into a single call of fire with the
// latest value, once delay has passed without a new value.
type Debouncer struct {
	clock clockwork.Clock
	delay time.Duration
	fire  func(string)

	mu      sync.Mutex
	seq     uint64
	timer   clockwork.Timer
	stopped bool
}

// NewDebouncer creates a debouncer driven by clock
func NewDebouncer(clock clockwork.Clock, delay time.Duration, fire func(string)) *Debouncer {
	if delay < minDebounce {
		delay = minDebounce
	}
	return &Debouncer{
		clock: clock,
		delay: delay,
		fire:  fire,
	}
}

// Push schedules v, discarding any value still waiting. It returns false once stopped.
func (d *Debouncer) Push(v string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return false
	}

	d.seq++
	seq := d.seq
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = d.clock.AfterFunc(d.delay, func() {
		d.mu.Lock()
		// a newer push or a cancel may have raced with this timer
		if d.seq != seq || d.stopped {
			d.mu.Unlock()
			return
		}
		d.timer = nil
		d.mu.Unlock()

		d.fire(v)
	})
	return true
}

// Pending reports whether a value is waiting for the quiet period to end
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// Cancel drops the waiting value, if any
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancel()
}

// Stop drops the waiting value and rejects further pushes
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancel()
	d.stopped = true
}

func (d *Debouncer) cancel() {
	d.seq++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
