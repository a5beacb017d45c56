package app

import (
	"sync"
	"time"
)

// Timer is a countdown against an absolute deadline. The remaining time is
// re-derived from the clock on every check, so suspended tickers or restarts
// never stretch an attempt.
type Timer struct {
	deadline time.Time
	now      func() time.Time
	onExpire func()

	fired    sync.Once
	stopOnce sync.Once
	stop     chan struct{}
}

func NewTimer(deadline time.Time, now func() time.Time, onExpire func()) *Timer {
	return &Timer{
		deadline: deadline,
		now:      now,
		onExpire: onExpire,
		stop:     make(chan struct{}),
	}
}

// Remaining is never negative.
func (t *Timer) Remaining() time.Duration {
	d := t.deadline.Sub(t.now())
	if d < 0 {
		return 0
	}
	return d
}

// Check fires the expiry callback, at most once, when the deadline has passed.
// Concurrent callers block until the callback has returned.
func (t *Timer) Check() bool {
	if t.Remaining() > 0 {
		return false
	}
	t.fired.Do(t.onExpire)
	return true
}

// Run polls the deadline every interval until it fires or Stop is called.
func (t *Timer) Run(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
			if t.Check() {
				return
			}
		}
	}
}

// Stop ends Run. It is safe to call more than once.
func (t *Timer) Stop() {
	t.stopOnce.Do(func() { close(t.stop) })
}
