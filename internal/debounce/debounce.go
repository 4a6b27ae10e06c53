// Package debounce delays a call until its trigger has been quiet for a
// while.
package debounce

import (
	"sync"
	"time"
)

// Func runs fn once wait has elapsed since the last Trigger.
type Func struct {
	mu    sync.Mutex
	wait  time.Duration
	fn    func()
	timer *time.Timer
	gen   uint64
}

func New(wait time.Duration, fn func()) *Func {
	return &Func{wait: wait, fn: fn}
}

// Trigger (re)starts the quiet period.
func (d *Func) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopLocked()
	gen := d.gen
	d.timer = time.AfterFunc(d.wait, func() {
		d.mu.Lock()
		if gen != d.gen {
			d.mu.Unlock()
			return
		}
		d.timer = nil
		d.mu.Unlock()
		d.fn()
	})
}

// Flush cancels the pending run, if any, and calls fn now.
func (d *Func) Flush() {
	d.Stop()
	d.fn()
}

// Stop cancels the pending run. A timer that already fired but has not yet
// reached fn is discarded too.
func (d *Func) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
}

// Pending reports whether a run is scheduled.
func (d *Func) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

func (d *Func) stopLocked() {
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
