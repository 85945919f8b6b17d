// SPDX-License-Identifier: Unlicense OR MIT

package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startTestTimer(t *testing.T, el *EventLoop, task Task, period time.Duration, key Key) *Timer {
	t.Helper()
	h := el.Spawn(task)
	var (
		timer *Timer
		err   error
	)
	h.With(func(_ Task, cx *Context) {
		timer, err = Repeat(period, cx, key)
	})
	require.NoError(t, err)
	return timer
}

func TestRepeatDeliversTimerEvents(t *testing.T) {
	clock := newFakeClock()
	el, _ := newTestLoop(t, withClock(clock.now))
	task := &recordingTask{}
	startTestTimer(t, el, task, 100*time.Millisecond, 5)

	// Not due yet, even exactly at the period boundary.
	clock.advance(100 * time.Millisecond)
	require.NoError(t, el.Poll())
	assert.Empty(t, task.events)

	clock.advance(time.Millisecond)
	require.NoError(t, el.Poll())
	require.Len(t, task.events, 1)
	assert.Equal(t, Key(5), task.events[0].key)
	assert.IsType(t, TimerEvent{}, task.events[0].ev)

	clock.advance(101 * time.Millisecond)
	require.NoError(t, el.Poll())
	assert.Len(t, task.events, 2)
}

func TestTimerCancelStopsDelivery(t *testing.T) {
	clock := newFakeClock()
	el, _ := newTestLoop(t, withClock(clock.now))
	task := &recordingTask{}
	timer := startTestTimer(t, el, task, 10*time.Millisecond, 0)

	timer.Cancel()
	timer.Cancel() // idempotent

	clock.advance(time.Second)
	require.NoError(t, el.Poll())
	assert.Empty(t, task.events)
	assert.Empty(t, el.state.timers)
}

func TestTimerCancelFromHandler(t *testing.T) {
	clock := newFakeClock()
	el, _ := newTestLoop(t, withClock(clock.now))

	var timer *Timer
	task := &recordingTask{
		handler: func(*Context, Key, Event) Response {
			timer.Cancel()
			return Ignore
		},
	}
	timer = startTestTimer(t, el, task, 10*time.Millisecond, 0)

	clock.advance(11 * time.Millisecond)
	require.NoError(t, el.Poll())
	require.Len(t, task.events, 1)

	clock.advance(time.Second)
	require.NoError(t, el.Poll())
	assert.Len(t, task.events, 1)
}

func TestTimerTickDroppedWhileTaskBorrowed(t *testing.T) {
	clock := newFakeClock()
	el, _ := newTestLoop(t, withClock(clock.now))
	task := &recordingTask{}
	h := el.Spawn(task)

	var timer *Timer
	h.With(func(_ Task, cx *Context) {
		var err error
		timer, err = Repeat(10*time.Millisecond, cx, 0)
		require.NoError(t, err)

		// The tick comes due while the task is borrowed; it is dropped,
		// not queued.
		clock.advance(11 * time.Millisecond)
		require.NoError(t, el.Poll())
	})
	assert.Empty(t, task.events)

	// The timer keeps its cadence afterwards.
	clock.advance(11 * time.Millisecond)
	require.NoError(t, el.Poll())
	assert.Len(t, task.events, 1)
	timer.Cancel()
}

func TestTimersDeliverInDueOrder(t *testing.T) {
	clock := newFakeClock()
	el, _ := newTestLoop(t, withClock(clock.now))
	task := &recordingTask{}
	h := el.Spawn(task)
	h.With(func(_ Task, cx *Context) {
		_, err := Repeat(15*time.Millisecond, cx, 2)
		require.NoError(t, err)
		_, err = Repeat(10*time.Millisecond, cx, 1)
		require.NoError(t, err)
	})

	clock.advance(17 * time.Millisecond)
	require.NoError(t, el.Poll())
	require.Len(t, task.events, 2)
	assert.Equal(t, Key(1), task.events[0].key)
	assert.Equal(t, Key(2), task.events[1].key)
}

func TestTimerOutlivesHandle(t *testing.T) {
	clock := newFakeClock()
	el, _ := newTestLoop(t, withClock(clock.now))
	task := &recordingTask{}
	h := el.Spawn(task)
	h.With(func(_ Task, cx *Context) {
		_, err := Repeat(10*time.Millisecond, cx, 0)
		require.NoError(t, err)
	})
	h.Release()

	// The timer still exists but its ticks have nowhere to go.
	clock.advance(time.Second)
	require.NoError(t, el.Poll())
	assert.Empty(t, task.events)
	assert.Len(t, el.state.timers, 1)
}
