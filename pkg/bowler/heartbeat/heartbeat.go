// Package heartbeat implements the periodic bcs.core._png liveness check a
// connected device expects, as a ticker-driven goroutine.
//
// Grounded directly on internal/ron/server.go's per-client heartbeat
// goroutine: a time.Ticker paired with a cancel channel read in the same
// select, stopping the ticker and returning on cancellation. ron sends an
// unacknowledged MESSAGE_HEARTBEAT down the wire at a fixed rate; this
// calls the device's ping RPC instead and treats a returned error as
// generic line noise, not a reason to stop ticking -- only explicit
// Stop() shuts the loop down.
package heartbeat

import (
	"time"

	"github.com/neuronrobotics/bowlerhost/pkg/bowler/bowlerlog"
)

var log = bowlerlog.Named("heartbeat")

// Pinger is the narrow call surface heartbeat needs from a Device: a
// single RPC it fires on every tick. Declared as an interface so this
// package never imports the root bowler package.
type Pinger interface {
	Ping() error
}

// Heartbeat drives Pinger.Ping at a fixed interval until Stop is called.
type Heartbeat struct {
	pinger  Pinger
	period  time.Duration
	cancel  chan struct{}
	done    chan struct{}
	started bool
}

// New creates a Heartbeat. period <= 0 disables ticking: Start becomes a
// no-op, matching a device configured with heartbeat_ms=0 to mean "no
// heartbeat".
func New(pinger Pinger, period time.Duration) *Heartbeat {
	return &Heartbeat{
		pinger: pinger,
		period: period,
		cancel: make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Start launches the ticking goroutine if period > 0. It returns
// immediately; call Stop to shut it down. Calling Start more than once is
// a programmer error.
func (h *Heartbeat) Start() {
	if h.period <= 0 {
		return
	}
	h.started = true

	go func() {
		defer close(h.done)

		t := time.NewTicker(h.period)
		defer t.Stop()

		for {
			select {
			case <-h.cancel:
				log.Debug("heartbeat stopped")
				return
			case <-t.C:
				if err := h.pinger.Ping(); err != nil {
					log.Warn("heartbeat ping failed: %v", err)
				}
			}
		}
	}()
}

// Stop cancels the ticking goroutine and waits for it to exit. Safe to
// call even if the heartbeat was never started or period was <= 0.
func (h *Heartbeat) Stop() {
	if !h.started {
		return
	}
	select {
	case <-h.cancel:
	default:
		close(h.cancel)
	}
	<-h.done
}
