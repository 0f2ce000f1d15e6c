package catalog

import (
	"sync"
	"time"
)

// Debouncer holds back a rapidly changing value until it has been stable
// for the configured delay, then hands the settled value to emit. Each Set
// cancels the pending timer, so a burst of inputs inside the delay window
// emits only its final value.
type Debouncer struct {
	delay time.Duration
	emit  func(string)

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
}

func NewDebouncer(delay time.Duration, emit func(string)) *Debouncer {
	return &Debouncer{delay: delay, emit: emit}
}

// Set schedules value for emission after the quiet period, replacing any
// value still pending.
func (d *Debouncer) Set(value string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		if d.stopped {
			d.mu.Unlock()
			return
		}
		d.mu.Unlock()
		d.emit(value)
	})
}

// Stop cancels any pending emission and prevents further ones; the timer
// never leaks.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
