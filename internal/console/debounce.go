package console

import (
	"sync"
	"time"
)

// DefaultSearchDelay is the pause after the last keystroke before searching.
const DefaultSearchDelay = 300 * time.Millisecond

// Debouncer runs only the last of a burst of calls, after delay has passed quietly.
type Debouncer struct {
	mu    sync.Mutex
	delay time.Duration
	timer *time.Timer
}

// NewDebouncer builds a debouncer; a non-positive delay uses DefaultSearchDelay.
func NewDebouncer(delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = DefaultSearchDelay
	}
	return &Debouncer{delay: delay}
}

// Do schedules fn, cancelling any pending call.
func (d *Debouncer) Do(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, fn)
}

// Stop cancels a pending call.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
