package editor

import (
	"sync"
	"time"
)

// DefaultFitDelay matches the side pane's transition duration, so the
// viewport re-fits once the pane has settled.
const DefaultFitDelay = 300 * time.Millisecond

// fitScheduler coalesces fit-view requests: at most one timer is pending,
// a newer request supersedes it, and Close cancels outright. The fit
// callback is a usability affordance; dropping it on close is safe.
type fitScheduler struct {
	mu      sync.Mutex
	delay   time.Duration
	fn      func()
	timer   *time.Timer
	stopped bool
}

func newFitScheduler(delay time.Duration, fn func()) *fitScheduler {
	return &fitScheduler{delay: delay, fn: fn}
}

func (f *fitScheduler) schedule() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stopped || f.fn == nil {
		return
	}
	if f.timer != nil {
		f.timer.Stop()
	}
	f.timer = time.AfterFunc(f.delay, f.fn)
}

func (f *fitScheduler) stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
}
