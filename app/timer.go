// SPDX-License-Identifier: Unlicense OR MIT

package app

import (
	"fmt"
	"time"
)

// timerState is the loop-side bookkeeping for one repeating timer.
type timerState struct {
	loop     *loopState
	pt       platformTimer
	canceled bool
}

// Timer is a repeating timer owned by the task that created it. There are
// no one-shot timers; cancel from the first TimerEvent instead.
type Timer struct {
	state *timerState
}

// Repeat starts a timer delivering TimerEvent to the current task every
// period, the first time one full period from now. Delivery is best-effort:
// ticks landing while the task is borrowed or after its handle was released
// are dropped, and a delivery stall longer than a period produces a single
// catch-up event followed by a phase reset.
func Repeat(period time.Duration, cx *Context, key Key) (*Timer, error) {
	s := cx.eventLoop.state
	if s.closed {
		return nil, ErrLoopClosed
	}
	ts := &timerState{loop: s}
	task := cx.taskID
	pt, err := s.platform.startTimer(period, func() {
		s.dispatchTask(task, key, TimerEvent{})
	})
	if err != nil {
		return nil, fmt.Errorf("app: starting timer: %w", err)
	}
	ts.pt = pt
	s.timers[ts] = struct{}{}
	s.log.Debug().
		Str("component", "timer").
		Int64("task", int64(task)).
		Int("key", int(key)).
		Dur("period", period).
		Log("timer started")
	return &Timer{state: ts}, nil
}

// Cancel stops the timer. Idempotent; a tick already queued when Cancel
// runs is discarded rather than delivered.
func (t *Timer) Cancel() {
	t.state.cancel()
}

func (ts *timerState) cancel() {
	if ts.canceled {
		return
	}
	ts.canceled = true
	ts.pt.cancel()
	delete(ts.loop.timers, ts)
}
