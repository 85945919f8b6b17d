// SPDX-License-Identifier: Unlicense OR MIT

package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fenestra-ui/fenestra/geom"
)

func TestOpenWindowDefaults(t *testing.T) {
	el, _ := newTestLoop(t)
	task := &recordingTask{}
	win := openTestWindow(t, el, task, 1, Title("hello"), WindowSize(geom.Sz(200, 100)))

	assert.Equal(t, geom.Sz(200, 100), win.Size())
	assert.Equal(t, 1.0, win.Scale())

	raw, err := win.Raw()
	require.NoError(t, err)
	assert.IsType(t, RawWindowHeadless{}, raw)

	hw := win.state.pw.(*headlessWindow)
	assert.Equal(t, "hello", hw.title)

	win.Show()
	assert.True(t, hw.visible)
	win.Hide()
	assert.False(t, hw.visible)

	win.SetTitle("renamed")
	assert.Equal(t, "renamed", hw.title)
}

func TestWindowCloseRequestDoesNotDestroy(t *testing.T) {
	el, _ := newTestLoop(t)
	task := &recordingTask{}
	win := openTestWindow(t, el, task, 1)

	// A user close request is only an event; the window survives it.
	win.state.onCloseRequest()
	require.Len(t, task.events, 1)
	assert.IsType(t, CloseEvent{}, task.events[0].ev)
	assert.Contains(t, el.state.windows, win.state.id)

	win.Close()
	assert.NotContains(t, el.state.windows, win.state.id)
	assert.True(t, win.state.dead)

	_, err := win.Raw()
	assert.ErrorIs(t, err, ErrWindowClosed)

	// Idempotent; methods on a dead window are no-ops.
	win.Close()
	win.Show()
	win.SetTitle("gone")
	assert.Equal(t, geom.Size{}, win.Size())
}

func TestWindowExposeBatching(t *testing.T) {
	el, hl := newTestLoop(t)
	hl.displayScale = 2
	task := &recordingTask{}
	win := openTestWindow(t, el, task, 1, WindowSize(geom.Sz(200, 100)))
	ws := win.state

	// Two damage rects in physical pixels arrive before the batch ends.
	ws.addExposeRect(geom.Rc(0, 0, 100, 50))
	ws.addExposeRect(geom.Rc(100, 50, 300, 150))
	assert.Empty(t, task.events)

	ws.flushExpose()
	require.Len(t, task.events, 1)
	exp, ok := task.events[0].ev.(ExposeEvent)
	require.True(t, ok)
	require.Len(t, exp.Rects, 2)
	assert.Equal(t, geom.Rc(0, 0, 50, 25), exp.Rects[0])
	assert.Equal(t, geom.Rc(50, 25, 150, 75), exp.Rects[1])

	// The batch was reset; an empty flush still delivers an event so a
	// bare paint request gets a redraw opportunity.
	ws.flushExpose()
	require.Len(t, task.events, 2)
	exp = task.events[1].ev.(ExposeEvent)
	assert.Empty(t, exp.Rects)
}

func TestWindowMouseCaptureCounting(t *testing.T) {
	el, _ := newTestLoop(t)
	task := &recordingTask{}
	win := openTestWindow(t, el, task, 1)
	ws := win.state
	hw := ws.pw.(*headlessWindow)

	ws.onMouseDown(MouseLeft)
	assert.True(t, hw.captured)

	// A second button during the drag keeps the original capture.
	ws.onMouseDown(MouseRight)
	assert.True(t, hw.captured)

	ws.onMouseUp(MouseLeft)
	assert.True(t, hw.captured)

	ws.onMouseUp(MouseRight)
	assert.False(t, hw.captured)

	// A stray release does not underflow the count.
	ws.onMouseUp(MouseLeft)
	assert.False(t, hw.captured)
	assert.Equal(t, 0, ws.mouseDown)
}

func TestWindowEventScaleTranslation(t *testing.T) {
	el, hl := newTestLoop(t)
	hl.displayScale = 2
	task := &recordingTask{}
	win := openTestWindow(t, el, task, 1, WindowSize(geom.Sz(200, 100)))
	ws := win.state

	ws.onMouseMove(geom.Pt(100, 50))
	require.Len(t, task.events, 1)
	mv := task.events[0].ev.(MouseMoveEvent)
	assert.Equal(t, geom.Pt(50, 25), mv.Position)

	// Scroll deltas are in lines and not scaled.
	ws.onScroll(geom.Pt(0, 3))
	sc := task.events[1].ev.(ScrollEvent)
	assert.Equal(t, geom.Pt(0, 3), sc.Delta)
}

func TestWindowSurfaceAllocation(t *testing.T) {
	el, hl := newTestLoop(t)
	hl.displayScale = 2
	task := &recordingTask{}
	win := openTestWindow(t, el, task, 1, WindowSize(geom.Sz(200, 100)))

	sf := win.state.pw.surface().(*memSurface)
	w, h := sf.Size()
	assert.Equal(t, 400, w)
	assert.Equal(t, 200, h)
	assert.Equal(t, 1, sf.allocs)

	// A full-size present writes every pixel and never reallocates.
	full := make([]uint32, 400*200)
	for i := range full {
		full[i] = 0xFFFF0000
	}
	win.Present(NewBitmap(full, 400, 200))
	assert.Equal(t, 1, sf.allocs)
	assert.Equal(t, 1, sf.presents)
	assert.Equal(t, uint32(0xFFFF0000), sf.pixels[199*400+399])

	// A smaller bitmap only touches the overlap.
	small := make([]uint32, 100*100)
	for i := range small {
		small[i] = 0xFF00FF00
	}
	win.Present(NewBitmap(small, 100, 100))
	assert.Equal(t, 1, sf.allocs)
	assert.Equal(t, uint32(0xFF00FF00), sf.pixels[99*400+99])
	assert.Equal(t, uint32(0xFFFF0000), sf.pixels[99*400+100])
	assert.Equal(t, uint32(0xFFFF0000), sf.pixels[100*400+0])
}

func TestWindowPresentPartialScalesDamage(t *testing.T) {
	el, hl := newTestLoop(t)
	hl.displayScale = 2
	task := &recordingTask{}
	win := openTestWindow(t, el, task, 1, WindowSize(geom.Sz(200, 100)))
	sf := win.state.pw.surface().(*memSurface)

	bm := NewBitmap(make([]uint32, 400*200), 400, 200)
	win.PresentPartial(bm, []geom.Rect{geom.Rc(10, 20, 30, 40)})
	require.Len(t, sf.damage, 1)
	assert.Equal(t, geom.Rc(20, 40, 60, 80), sf.damage[0])

	win.Present(bm)
	assert.Nil(t, sf.damage)
}

func TestWindowEventsStopAfterClose(t *testing.T) {
	el, _ := newTestLoop(t)
	task := &recordingTask{}
	win := openTestWindow(t, el, task, 1)
	ws := win.state
	win.Close()

	ws.onMouseDown(MouseLeft)
	ws.flushExpose()
	ws.onCloseRequest()
	assert.Empty(t, task.events)

	// Presenting to a dead window is a no-op.
	win.Present(NewBitmap(make([]uint32, 4), 2, 2))
}

func TestWindowEventsDropAfterTaskRelease(t *testing.T) {
	el, _ := newTestLoop(t)
	task := &recordingTask{}
	h := el.Spawn(task)
	var win *Window
	h.With(func(_ Task, cx *Context) {
		var err error
		win, err = OpenWindow(cx, 1)
		require.NoError(t, err)
	})
	h.Release()

	// The window is alive but has nowhere to deliver.
	win.state.onMouseMove(geom.Pt(1, 1))
	win.state.onCloseRequest()
	assert.Empty(t, task.events)
	assert.Contains(t, el.state.windows, win.state.id)
}

func TestOpenWindowRejectsForeignParent(t *testing.T) {
	el, _ := newTestLoop(t)
	h := el.Spawn(&recordingTask{})
	h.With(func(_ Task, cx *Context) {
		_, err := OpenWindow(cx, 0, RawParent(RawWindowWin32{HWND: 42}))
		assert.ErrorIs(t, err, ErrInvalidParent)
	})
}

func TestOpenWindowHeadlessParent(t *testing.T) {
	el, _ := newTestLoop(t)
	task := &recordingTask{}
	parent := openTestWindow(t, el, task, 1)
	raw, err := parent.Raw()
	require.NoError(t, err)

	child := openTestWindow(t, el, task, 2, RawParent(raw))
	assert.NotEqual(t, parent.state.id, child.state.id)
}

func TestWindowResponseSuppression(t *testing.T) {
	el, _ := newTestLoop(t)
	task := &recordingTask{
		handler: func(_ *Context, _ Key, ev Event) Response {
			if _, ok := ev.(MouseDownEvent); ok {
				return Capture
			}
			return Ignore
		},
	}
	win := openTestWindow(t, el, task, 1)
	ws := win.state

	assert.Equal(t, Capture, ws.onMouseDown(MouseLeft))
	assert.Equal(t, Ignore, ws.onMouseUp(MouseLeft))
}
