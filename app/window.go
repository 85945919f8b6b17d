// SPDX-License-Identifier: Unlicense OR MIT

package app

import (
	"fmt"

	"github.com/fenestra-ui/fenestra/geom"
)

// RawWindow exposes the native handle behind a Window so callers can embed
// foreign views or hand the window to a rendering API. The concrete type
// depends on the backend.
type RawWindow interface {
	ImplementsRawWindow()
}

// RawWindowWin32 wraps an HWND.
type RawWindowWin32 struct {
	HWND uintptr
}

// RawWindowCocoa wraps an NSView pointer.
type RawWindowCocoa struct {
	NSView uintptr
}

// RawWindowX11 wraps an X11 window XID.
type RawWindowX11 struct {
	Window uint64
}

// RawWindowHeadless identifies a window of the synthetic backend.
type RawWindowHeadless struct {
	ID uint64
}

func (RawWindowWin32) ImplementsRawWindow()    {}
func (RawWindowCocoa) ImplementsRawWindow()    {}
func (RawWindowX11) ImplementsRawWindow()      {}
func (RawWindowHeadless) ImplementsRawWindow() {}

type windowConfig struct {
	title  string
	pos    *geom.Point
	size   geom.Size
	parent RawWindow
}

// WindowOption configures OpenWindow.
type WindowOption func(*windowConfig)

// Title sets the window caption.
func Title(title string) WindowOption {
	return func(cfg *windowConfig) { cfg.title = title }
}

// Pos places the window at a logical position instead of letting the system
// choose one.
func Pos(p geom.Point) WindowOption {
	return func(cfg *windowConfig) { cfg.pos = &p }
}

// WindowSize sets the logical content size.
func WindowSize(sz geom.Size) WindowOption {
	return func(cfg *windowConfig) { cfg.size = sz }
}

// RawParent creates the window as a child of a foreign native window, for
// plugin views hosted in another application. The parent must belong to the
// same backend; OpenWindow returns ErrInvalidParent otherwise.
func RawParent(parent RawWindow) WindowOption {
	return func(cfg *windowConfig) { cfg.parent = parent }
}

type windowID uint64

// windowState is the loop-side bookkeeping for one window. It owns event
// normalization: expose batching, mouse capture counting and scale
// translation all happen here, on top of the raw callbacks the backend
// feeds it.
type windowState struct {
	loop *loopState
	id   windowID
	task taskID
	key  Key
	pw   platformWindow

	expose    []geom.Rect
	mouseDown int
	cursor    Cursor
	// dead is set by destroyed, the single point where the native
	// destruction notification lands.
	dead bool
}

// Window is a top-level (or, with RawParent, embedded) native window whose
// events are delivered to the task that opened it.
type Window struct {
	state *windowState
}

// OpenWindow creates a window owned by the current task. Events carry key,
// chosen by the caller to tell this window apart from the task's other
// resources. The window stays on screen until Close; a user close request
// only delivers CloseEvent.
func OpenWindow(cx *Context, key Key, opts ...WindowOption) (*Window, error) {
	s := cx.eventLoop.state
	if s.closed {
		return nil, ErrLoopClosed
	}
	cfg := windowConfig{size: geom.Sz(512, 512)}
	for _, opt := range opts {
		opt(&cfg)
	}
	ws := &windowState{
		loop:   s,
		id:     s.nextWindow,
		task:   cx.taskID,
		key:    key,
		cursor: CursorArrow,
	}
	pw, err := s.platform.openWindow(ws, &cfg)
	if err != nil {
		return nil, fmt.Errorf("app: opening window: %w", err)
	}
	ws.pw = pw
	s.nextWindow++
	s.windows[ws.id] = ws
	s.log.Debug().
		Str("component", "window").
		Int64("window", int64(ws.id)).
		Int64("task", int64(ws.task)).
		Int("key", int(key)).
		Log("window opened")
	return &Window{state: ws}, nil
}

// Show makes the window visible.
func (w *Window) Show() {
	if ws := w.state; !ws.dead {
		ws.pw.show()
	}
}

// Hide removes the window from the screen without destroying it.
func (w *Window) Hide() {
	if ws := w.state; !ws.dead {
		ws.pw.hide()
	}
}

// Size returns the logical content size.
func (w *Window) Size() geom.Size {
	if ws := w.state; !ws.dead {
		return ws.pw.size()
	}
	return geom.Size{}
}

// Scale returns the backing scale factor, the ratio of physical pixels to
// logical units.
func (w *Window) Scale() float64 {
	if ws := w.state; !ws.dead {
		return ws.pw.scale()
	}
	return 1
}

// SetTitle updates the window caption.
func (w *Window) SetTitle(title string) {
	if ws := w.state; !ws.dead {
		ws.pw.setTitle(title)
	}
}

// SetCursor selects the cursor shown while the pointer is over the window.
func (w *Window) SetCursor(c Cursor) {
	ws := w.state
	if ws.dead {
		return
	}
	ws.cursor = c
	ws.pw.setCursor(c)
}

// SetMousePosition warps the pointer to a logical position in window
// coordinates.
func (w *Window) SetMousePosition(p geom.Point) {
	if ws := w.state; !ws.dead {
		ws.pw.setMousePosition(p)
	}
}

// Present copies b to the window's surface and flushes it. The bitmap is in
// physical pixels; rows beyond the surface in either dimension are clipped.
func (w *Window) Present(b Bitmap) {
	w.state.present(b, nil)
}

// PresentPartial is Present limited to the given logical rectangles,
// typically the rectangles of the ExposeEvent being answered.
func (w *Window) PresentPartial(b Bitmap, rects []geom.Rect) {
	w.state.present(b, rects)
}

// Raw returns the native handle, or ErrWindowClosed once the window has
// been destroyed.
func (w *Window) Raw() (RawWindow, error) {
	ws := w.state
	if ws.dead {
		return nil, ErrWindowClosed
	}
	return ws.pw.raw(), nil
}

// Close destroys the window. Idempotent; events stop once the native
// destruction notification has been processed.
func (w *Window) Close() {
	w.state.close()
}

func (ws *windowState) close() {
	if ws.dead {
		return
	}
	ws.pw.destroy()
}

// destroyed is the native destruction notification. It releases the loop's
// bookkeeping for the window, exactly once.
func (ws *windowState) destroyed() {
	if ws.dead {
		return
	}
	ws.dead = true
	delete(ws.loop.windows, ws.id)
	ws.loop.log.Debug().
		Str("component", "window").
		Int64("window", int64(ws.id)).
		Log("window destroyed")
}

func (ws *windowState) present(b Bitmap, rects []geom.Rect) {
	if ws.dead {
		return
	}
	sf := ws.pw.surface()
	sw, sh := sf.Size()
	px := sf.Lock()
	cw, ch := b.width, b.height
	if cw > sw {
		cw = sw
	}
	if ch > sh {
		ch = sh
	}
	for y := 0; y < ch; y++ {
		copy(px[y*sw:y*sw+cw], b.data[y*b.width:y*b.width+cw])
	}
	sf.Unlock()
	var phys []geom.Rect
	if rects != nil {
		scale := ws.pw.scale()
		phys = make([]geom.Rect, len(rects))
		for i, r := range rects {
			phys[i] = r.Scale(scale)
		}
	}
	sf.Present(phys)
}

func (ws *windowState) dispatch(ev Event) Response {
	if ws.dead {
		return Ignore
	}
	resp, _ := ws.loop.dispatchTask(ws.task, ws.key, ev)
	return resp
}

// addExposeRect accumulates one native damage rectangle into the pending
// batch, converted to logical units.
func (ws *windowState) addExposeRect(r geom.Rect) {
	es := ws.pw.eventScale()
	ws.expose = append(ws.expose, geom.Rc(r.X/es, r.Y/es, r.Width/es, r.Height/es))
}

// flushExpose delivers the accumulated batch as a single ExposeEvent and
// resets it. Called when the backend signals the end of an expose series;
// an empty batch still produces an event so a paint request with no damage
// list gets a full redraw opportunity.
func (ws *windowState) flushExpose() {
	rects := ws.expose
	ws.expose = nil
	ws.dispatch(ExposeEvent{Rects: rects})
}

func (ws *windowState) onCloseRequest() {
	ws.dispatch(CloseEvent{})
}

func (ws *windowState) onFocus(gained bool) {
	if gained {
		ws.dispatch(GainFocusEvent{})
	} else {
		ws.dispatch(LoseFocusEvent{})
	}
}

func (ws *windowState) onMouseEnter() {
	ws.dispatch(MouseEnterEvent{})
}

func (ws *windowState) onMouseExit() {
	ws.dispatch(MouseExitEvent{})
}

// onMouseMove takes the pointer position in native event units.
func (ws *windowState) onMouseMove(p geom.Point) Response {
	return ws.dispatch(MouseMoveEvent{
		Position: ws.scalePoint(p, ws.pw.eventScale()),
	})
}

// onMouseDown counts nested presses so capture spans a whole multi-button
// drag: capture is taken on the first press and held until the last
// release.
func (ws *windowState) onMouseDown(btn MouseButton) Response {
	ws.mouseDown++
	if ws.mouseDown == 1 {
		ws.pw.setCapture(true)
	}
	return ws.dispatch(MouseDownEvent{Button: btn})
}

func (ws *windowState) onMouseUp(btn MouseButton) Response {
	if ws.mouseDown > 0 {
		ws.mouseDown--
		if ws.mouseDown == 0 {
			ws.pw.setCapture(false)
		}
	}
	return ws.dispatch(MouseUpEvent{Button: btn})
}

// onScroll takes the delta in lines; scroll deltas are not subject to scale
// translation.
func (ws *windowState) onScroll(delta geom.Point) Response {
	return ws.dispatch(ScrollEvent{Delta: delta})
}

func (ws *windowState) scalePoint(p geom.Point, es float64) geom.Point {
	if es == 1 {
		return p
	}
	return geom.Pt(p.X/es, p.Y/es)
}
