// SPDX-License-Identifier: Unlicense OR MIT

package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunExitsFromHandler(t *testing.T) {
	el, hl := newTestLoop(t)
	task := &recordingTask{
		handler: func(cx *Context, key Key, ev Event) Response {
			cx.EventLoop().Exit()
			return Ignore
		},
	}
	h := el.Spawn(task)
	id := h.id
	hl.post(func() { el.state.dispatchTask(id, 1, TimerEvent{}) })

	require.NoError(t, el.Run())
	assert.Len(t, task.events, 1)
}

func TestRunGuardRejectsReentry(t *testing.T) {
	el, hl := newTestLoop(t)
	var reentry, pollErr error
	task := &recordingTask{
		handler: func(cx *Context, key Key, ev Event) Response {
			reentry = cx.EventLoop().Run()
			pollErr = cx.EventLoop().Poll()
			cx.EventLoop().Exit()
			return Ignore
		},
	}
	h := el.Spawn(task)
	id := h.id
	hl.post(func() { el.state.dispatchTask(id, 0, TimerEvent{}) })

	require.NoError(t, el.Run())
	assert.ErrorIs(t, reentry, ErrAlreadyRunning)
	assert.ErrorIs(t, pollErr, ErrAlreadyRunning)
}

func TestExitOutsideRunIsNoOp(t *testing.T) {
	el, hl := newTestLoop(t)
	el.Exit()

	// The loop still runs normally afterwards.
	h := el.Spawn(&recordingTask{
		handler: func(cx *Context, _ Key, _ Event) Response {
			cx.EventLoop().Exit()
			return Ignore
		},
	})
	id := h.id
	hl.post(func() { el.state.dispatchTask(id, 0, TimerEvent{}) })
	require.NoError(t, el.Run())
}

func TestHandlerPanicUnwindsFromRun(t *testing.T) {
	el, hl := newTestLoop(t)
	task := &recordingTask{
		handler: func(*Context, Key, Event) Response {
			panic("boom")
		},
	}
	h := el.Spawn(task)
	id := h.id
	hl.post(func() { el.state.dispatchTask(id, 0, TimerEvent{}) })

	assert.PanicsWithValue(t, "boom", func() { el.Run() })

	// The cell is cleared; the loop is reusable.
	task.handler = func(cx *Context, _ Key, _ Event) Response {
		cx.EventLoop().Exit()
		return Ignore
	}
	hl.post(func() { el.state.dispatchTask(id, 0, TimerEvent{}) })
	require.NoError(t, el.Run())
}

func TestFirstPanicWins(t *testing.T) {
	el, hl := newTestLoop(t)
	task := &recordingTask{
		handler: func(*Context, Key, Event) Response {
			panic("first")
		},
	}
	h := el.Spawn(task)
	id := h.id
	// Both occurrences are queued before the pump runs; the second handler
	// runs too, but only the first panic is kept.
	hl.post(func() { el.state.dispatchTask(id, 0, TimerEvent{}) })
	hl.post(func() {
		task.handler = func(*Context, Key, Event) Response { panic("second") }
		el.state.dispatchTask(id, 0, TimerEvent{})
	})

	assert.PanicsWithValue(t, "first", func() { el.Poll() })
}

func TestHandlerPanicUnwindsFromPoll(t *testing.T) {
	el, hl := newTestLoop(t)
	h := el.Spawn(&recordingTask{
		handler: func(*Context, Key, Event) Response { panic("poll boom") },
	})
	id := h.id
	hl.post(func() { el.state.dispatchTask(id, 0, TimerEvent{}) })

	assert.PanicsWithValue(t, "poll boom", func() { el.Poll() })
	require.NoError(t, el.Poll())
}

func TestPanicOutsideRunAborts(t *testing.T) {
	el, _ := newTestLoop(t)

	var aborted any
	orig := abortNoUnwind
	abortNoUnwind = func(p any) { aborted = p }
	defer func() { abortNoUnwind = orig }()

	el.state.runCallback(func() { panic("no unwind target") })
	assert.Equal(t, "no unwind target", aborted)
}

func TestCloseTearsDownEverything(t *testing.T) {
	el, hl := newTestLoop(t)
	task := &recordingTask{}
	w1 := openTestWindow(t, el, task, 1)
	w2 := openTestWindow(t, el, task, 2)

	var timer *Timer
	h := el.Spawn(&recordingTask{})
	h.With(func(_ Task, cx *Context) {
		var err error
		timer, err = Repeat(time.Second, cx, 0)
		require.NoError(t, err)
	})
	hl.startRefresh(0, time.Minute)

	require.NoError(t, el.Close())

	assert.Empty(t, el.state.windows)
	assert.Empty(t, el.state.timers)
	assert.Empty(t, hl.tickers)
	assert.True(t, hl.released)
	assert.True(t, w1.state.dead)
	assert.True(t, w2.state.dead)

	_, err := w1.Raw()
	assert.ErrorIs(t, err, ErrWindowClosed)

	// Idempotent, and the loop refuses further service.
	require.NoError(t, el.Close())
	assert.ErrorIs(t, el.Run(), ErrLoopClosed)
	assert.ErrorIs(t, el.Poll(), ErrLoopClosed)

	// Canceling a timer after Close stays safe.
	timer.Cancel()
}

func TestCloseInsideHandlerFails(t *testing.T) {
	el, hl := newTestLoop(t)
	var closeErr error
	h := el.Spawn(&recordingTask{
		handler: func(cx *Context, _ Key, _ Event) Response {
			closeErr = cx.EventLoop().Close()
			cx.EventLoop().Exit()
			return Ignore
		},
	})
	id := h.id
	hl.post(func() { el.state.dispatchTask(id, 0, TimerEvent{}) })

	require.NoError(t, el.Run())
	assert.ErrorIs(t, closeErr, ErrInsideEventHandler)
}

func TestOpenWindowAfterCloseFails(t *testing.T) {
	el, _ := newTestLoop(t)
	h := el.Spawn(&recordingTask{})
	require.NoError(t, el.Close())

	// Close cleared the registry, so the handle no longer borrows.
	err := h.TryWith(func(Task, *Context) {})
	assert.ErrorIs(t, err, ErrTaskDestroyed)

	// A retained context is a misuse, but resource creation on a closed
	// loop still fails cleanly rather than registering anything.
	cx := &Context{eventLoop: el, taskID: h.id}
	_, err = OpenWindow(cx, 0)
	assert.ErrorIs(t, err, ErrLoopClosed)
	_, err = Repeat(time.Second, cx, 0)
	assert.ErrorIs(t, err, ErrLoopClosed)
}

// A panic escaping the backend pump itself, as opposed to one routed
// through the panic cell, must still release the run guard.
func TestBackendPanicReleasesRunGuard(t *testing.T) {
	el, hl := newTestLoop(t)
	el.state.platform = crashingPlatform{hl}

	assert.PanicsWithValue(t, "pump run failed", func() { el.Run() })
	assert.PanicsWithValue(t, "pump poll failed", func() { el.Poll() })

	el.state.platform = hl
	require.NoError(t, el.Close())
}

type crashingPlatform struct{ platform }

func (crashingPlatform) run() error  { panic("pump run failed") }
func (crashingPlatform) poll() error { panic("pump poll failed") }

func TestPollDispatchesQueuedWork(t *testing.T) {
	el, hl := newTestLoop(t)
	task := &recordingTask{}
	h := el.Spawn(task)
	id := h.id

	hl.post(func() { el.state.dispatchTask(id, 1, FrameEvent{}) })
	hl.post(func() { el.state.dispatchTask(id, 2, FrameEvent{}) })

	require.NoError(t, el.Poll())
	require.Len(t, task.events, 2)
	assert.Equal(t, Key(1), task.events[0].key)
	assert.Equal(t, Key(2), task.events[1].key)

	// Nothing left pending.
	require.NoError(t, el.Poll())
	assert.Len(t, task.events, 2)
}
