// SPDX-License-Identifier: Unlicense OR MIT

package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameGateCoalesces(t *testing.T) {
	var g frameGate

	assert.True(t, g.arm())
	// Ticks arriving while one is in flight are swallowed.
	assert.False(t, g.arm())
	assert.False(t, g.arm())

	g.ack()
	assert.True(t, g.arm())
}

func TestFrameTickerDeliversOnLoop(t *testing.T) {
	el, hl := newTestLoop(t)
	task := &recordingTask{}
	openTestWindow(t, el, task, 1)

	hl.startRefresh(0, 50*time.Millisecond)
	// Let a tick land and sit behind the gate before dispatching.
	time.Sleep(75 * time.Millisecond)
	require.NoError(t, el.Poll())

	require.Len(t, task.events, 1)
	assert.IsType(t, FrameEvent{}, task.events[0].ev)

	// The ack during dispatch reopened the gate.
	time.Sleep(75 * time.Millisecond)
	require.NoError(t, el.Poll())
	assert.Len(t, task.events, 2)
}

func TestFrameTickerRecoversFromHandlerPanic(t *testing.T) {
	el, hl := newTestLoop(t)
	task := &recordingTask{
		handler: func(*Context, Key, Event) Response { panic("frame boom") },
	}
	openTestWindow(t, el, task, 1)

	hl.startRefresh(0, 50*time.Millisecond)
	time.Sleep(75 * time.Millisecond)
	assert.PanicsWithValue(t, "frame boom", func() { el.Poll() })

	// The gate was acked despite the unwinding handler; the source keeps
	// ticking once the handler behaves.
	require.False(t, hl.tickers[0].gate.pending.Load())
	task.handler = nil
	time.Sleep(75 * time.Millisecond)
	require.NoError(t, el.Poll())
	require.Len(t, task.events, 2)
	assert.IsType(t, FrameEvent{}, task.events[1].ev)
}

func TestFrameTickerJoinStopsThread(t *testing.T) {
	tk := newFrameTicker(0, time.Millisecond)
	tk.start(func(func()) {}, func(DisplayID) {})
	tk.join()

	select {
	case <-tk.done:
	default:
		t.Fatal("ticker thread still running after join")
	}
}

func TestHandleRefreshRoutesByDisplay(t *testing.T) {
	el, _ := newTestLoop(t)
	task := &recordingTask{}
	a := openTestWindow(t, el, task, 1)
	b := openTestWindow(t, el, task, 2)
	b.state.pw.(*headlessWindow).display = 1

	el.state.handleRefresh(0)
	require.Len(t, task.events, 1)
	assert.Equal(t, Key(1), task.events[0].key)

	el.state.handleRefresh(1)
	require.Len(t, task.events, 2)
	assert.Equal(t, Key(2), task.events[1].key)

	_ = a
}

func TestHandleRefreshSkipsWindowsClosedMidSweep(t *testing.T) {
	el, _ := newTestLoop(t)

	var first, second *Window
	task := &recordingTask{}
	task.handler = func(_ *Context, key Key, ev Event) Response {
		if _, ok := ev.(FrameEvent); ok && key == 1 {
			second.Close()
		}
		return Ignore
	}
	first = openTestWindow(t, el, task, 1)
	second = openTestWindow(t, el, task, 2)

	el.state.handleRefresh(0)

	// The window closed by the earlier handler missed the sweep.
	require.Len(t, task.events, 1)
	assert.Equal(t, Key(1), task.events[0].key)
	_ = first
}
