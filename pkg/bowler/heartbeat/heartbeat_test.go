package heartbeat

import (
	"sync/atomic"
	"testing"
	"time"
)

type countingPinger struct {
	n int64
}

func (p *countingPinger) Ping() error {
	atomic.AddInt64(&p.n, 1)
	return nil
}

func TestHeartbeatTicksAndStops(t *testing.T) {
	p := &countingPinger{}
	h := New(p, 5*time.Millisecond)
	h.Start()

	time.Sleep(40 * time.Millisecond)
	h.Stop()

	got := atomic.LoadInt64(&p.n)
	if got < 3 {
		t.Fatalf("expected at least 3 pings in 40ms at 5ms period, got %d", got)
	}

	after := atomic.LoadInt64(&p.n)
	time.Sleep(20 * time.Millisecond)
	if atomic.LoadInt64(&p.n) != after {
		t.Fatal("heartbeat kept ticking after Stop")
	}
}

func TestHeartbeatZeroPeriodIsNoop(t *testing.T) {
	p := &countingPinger{}
	h := New(p, 0)
	h.Start()
	time.Sleep(10 * time.Millisecond)
	h.Stop() // must not block

	if atomic.LoadInt64(&p.n) != 0 {
		t.Fatal("zero-period heartbeat should never ping")
	}
}

func TestHeartbeatStopWithoutStartDoesNotBlock(t *testing.T) {
	h := New(&countingPinger{}, time.Second)
	done := make(chan struct{})
	go func() {
		h.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked when heartbeat was never started")
	}
}
