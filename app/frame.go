// SPDX-License-Identifier: Unlicense OR MIT

package app

import (
	"sync/atomic"
	"time"
)

// frameGate coalesces refresh ticks. The producer side runs on a refresh
// thread, the consumer on the loop goroutine; at most one tick is in flight
// per display no matter how far dispatch falls behind.
type frameGate struct {
	pending atomic.Bool
}

// arm reports whether the caller should post a tick. Further arms are
// suppressed until ack.
func (g *frameGate) arm() bool {
	return !g.pending.Swap(true)
}

// ack reopens the gate. Called after the dispatch sweep for the tick has
// finished, so windows exposed during the sweep wait for the next tick.
func (g *frameGate) ack() {
	g.pending.Store(false)
}

// frameTicker is a refresh source driven by a timing thread, used by
// backends without a native vsync callback. post must hand its argument to
// the loop goroutine; the ticker stops posting once armed until the posted
// sweep acks.
type frameTicker struct {
	display  DisplayID
	interval time.Duration
	gate     frameGate
	stop     chan struct{}
	done     chan struct{}
}

func newFrameTicker(display DisplayID, interval time.Duration) *frameTicker {
	return &frameTicker{
		display:  display,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// start launches the timing thread. deliver runs on the loop goroutine with
// the display id of this source.
func (t *frameTicker) start(post func(func()), deliver func(DisplayID)) {
	go func() {
		defer close(t.done)
		tick := time.NewTicker(t.interval)
		defer tick.Stop()
		for {
			select {
			case <-t.stop:
				return
			case <-tick.C:
				if !t.gate.arm() {
					continue
				}
				post(func() {
					// The ack must happen even when deliver panics out of a
					// handler, or the gate stays armed and the display goes
					// silent for good.
					defer t.gate.ack()
					deliver(t.display)
				})
			}
		}
	}()
}

// join stops the timing thread and waits for it to finish. Call at most
// once.
func (t *frameTicker) join() {
	close(t.stop)
	<-t.done
}
