package app

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestTimerFiresOnce(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	var mu sync.Mutex
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	var fired int32
	timer := NewTimer(now.Add(5*time.Second), clock, func() { atomic.AddInt32(&fired, 1) })

	if timer.Check() {
		t.Fatalf("timer must not fire before the deadline")
	}
	if got := timer.Remaining(); got != 5*time.Second {
		t.Fatalf("expected 5s remaining, got %s", got)
	}

	mu.Lock()
	now = now.Add(5001 * time.Millisecond)
	mu.Unlock()

	if timer.Remaining() != 0 {
		t.Fatalf("remaining must not go negative, got %s", timer.Remaining())
	}
	for i := 0; i < 3; i++ {
		if !timer.Check() {
			t.Fatalf("expected expired timer")
		}
	}
	if atomic.LoadInt32(&fired) != 1 {
		t.Fatalf("expected one expiry, got %d", fired)
	}
}

func TestTimerRunFiresAndStops(t *testing.T) {
	fired := make(chan struct{})
	timer := NewTimer(time.Now().Add(20*time.Millisecond), time.Now, func() { close(fired) })
	go timer.Run(time.Millisecond)

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatalf("timer did not fire")
	}
	timer.Stop()
	timer.Stop()
}

func TestTimerStopPreventsExpiry(t *testing.T) {
	var fired int32
	timer := NewTimer(time.Now().Add(30*time.Millisecond), time.Now, func() { atomic.AddInt32(&fired, 1) })
	done := make(chan struct{})
	go func() {
		timer.Run(time.Millisecond)
		close(done)
	}()
	timer.Stop()
	<-done
	time.Sleep(50 * time.Millisecond)
	if atomic.LoadInt32(&fired) != 0 {
		t.Fatalf("stopped timer must not fire from Run")
	}
}
