package transfer

import (
	"sync"
	"time"
)

// Timer invokes a callback every interval on its own goroutine. It is
// restartable: Start after Stop begins a fresh schedule. Errors returned by
// the callback are handed to onError rather than dying inside the timer's
// goroutine, so the owning coordinator can react (the timeout timer exists
// specifically to abort the run).
type Timer struct {
	interval time.Duration
	fn       func() error
	onError  func(error)

	mu   sync.Mutex
	done chan struct{} // non-nil while running
}

// NewTimer creates a stopped timer. onError may be nil, in which case
// callback errors are discarded.
func NewTimer(interval time.Duration, fn func() error, onError func(error)) *Timer {
	return &Timer{interval: interval, fn: fn, onError: onError}
}

// Interval returns the configured firing interval.
func (t *Timer) Interval() time.Duration { return t.interval }

// Start begins the periodic schedule. Starting a running timer is a no-op.
func (t *Timer) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done != nil {
		return
	}
	t.done = make(chan struct{})
	go t.loop(t.done)
}

// Stop halts future firings. It is idempotent and safe to call from the
// callback itself. A firing already in progress is not interrupted.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done == nil {
		return
	}
	close(t.done)
	t.done = nil
}

// RunNow invokes the callback synchronously, out of schedule, without
// disturbing the periodic schedule. It works whether or not the timer is
// running.
func (t *Timer) RunNow() {
	t.fire()
}

func (t *Timer) loop(done <-chan struct{}) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			t.fire()
		}
	}
}

func (t *Timer) fire() {
	if err := t.fn(); err != nil && t.onError != nil {
		t.onError(err)
	}
}
