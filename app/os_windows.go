// SPDX-License-Identifier: Unlicense OR MIT

package app

import (
	"math"
	"sync"
	"time"
	"unsafe"

	syscall "golang.org/x/sys/windows"

	"github.com/fenestra-ui/fenestra/app/internal/winsys"
	"github.com/fenestra-ui/fenestra/geom"
)

func init() {
	platformFactory = newWin32Loop
}

const (
	// wmWake forces a blocking GetMessage to return so the pump re-checks
	// the loop state.
	wmWake = winsys.WM_USER + 0
	// wmPosted drains the cross-thread function queue on the loop thread.
	wmPosted = winsys.WM_USER + 1
)

// winMap resolves an incoming hwnd to its window. The window proc is a
// single process-wide callback, so the map is package state like the class
// registration it goes with.
var (
	winMap  = make(map[syscall.Handle]*win32Window)
	loopMap = make(map[syscall.Handle]*win32Loop)
)

type win32Loop struct {
	s     *loopState
	hInst syscall.Handle
	cls   uint16
	// msgHwnd is a message-only window receiving the loop's own traffic:
	// wakeups, posted functions and WM_TIMER.
	msgHwnd syscall.Handle

	cursors map[Cursor]syscall.Handle

	nextTimer uintptr
	timers    map[uintptr]func()

	// vsync holds one refresh source per monitor a window has been seen
	// on, keyed by HMONITOR.
	vsync map[DisplayID]*frameTicker

	postMu sync.Mutex
	posted []func()
}

func newWin32Loop(s *loopState, cfg *loopConfig) (platform, error) {
	if cfg.mode == ModeOwner {
		winsys.SetProcessDPIAware()
	}
	hInst, err := winsys.GetModuleHandle()
	if err != nil {
		return nil, err
	}
	arrow, err := winsys.LoadCursor(winsys.IDC_ARROW)
	if err != nil {
		return nil, err
	}
	wcls := winsys.WndClassEx{
		CbSize:        uint32(unsafe.Sizeof(winsys.WndClassEx{})),
		Style:         winsys.CS_HREDRAW | winsys.CS_VREDRAW | winsys.CS_OWNDC,
		LpfnWndProc:   syscall.NewCallback(windowProc),
		HInstance:     hInst,
		HCursor:       arrow,
		LpszClassName: syscall.StringToUTF16Ptr("FenestraWindow"),
	}
	cls, err := winsys.RegisterClassEx(&wcls)
	if err != nil {
		return nil, err
	}
	p := &win32Loop{
		s:       s,
		hInst:   hInst,
		cls:     cls,
		cursors: map[Cursor]syscall.Handle{CursorArrow: arrow},
		timers:  make(map[uintptr]func()),
		vsync:   make(map[DisplayID]*frameTicker),
	}
	p.msgHwnd, err = winsys.CreateWindowEx(0, cls, "", 0,
		0, 0, 0, 0,
		winsys.HWND_MESSAGE, 0, hInst, 0)
	if err != nil {
		winsys.UnregisterClass(cls, hInst)
		return nil, err
	}
	loopMap[p.msgHwnd] = p
	return p, nil
}

func (p *win32Loop) name() string { return "win32" }

func (p *win32Loop) run() error {
	var m winsys.Msg
	for p.s.runState == stateRunning {
		if r := winsys.GetMessage(&m, 0, 0, 0); r <= 0 {
			// WM_QUIT or failure.
			break
		}
		winsys.TranslateMessage(&m)
		winsys.DispatchMessage(&m)
	}
	return nil
}

func (p *win32Loop) poll() error {
	var m winsys.Msg
	for winsys.PeekMessage(&m, 0, 0, 0, winsys.PM_REMOVE) {
		if m.Message == winsys.WM_QUIT {
			break
		}
		winsys.TranslateMessage(&m)
		winsys.DispatchMessage(&m)
	}
	return nil
}

func (p *win32Loop) wake() {
	winsys.PostMessage(p.msgHwnd, wmWake, 0, 0)
}

// post queues f for the loop thread. Safe from any goroutine.
func (p *win32Loop) post(f func()) {
	p.postMu.Lock()
	p.posted = append(p.posted, f)
	p.postMu.Unlock()
	winsys.PostMessage(p.msgHwnd, wmPosted, 0, 0)
}

func (p *win32Loop) drainPosted() {
	p.postMu.Lock()
	fs := p.posted
	p.posted = nil
	p.postMu.Unlock()
	// Each closure runs under its own panic boundary so one panicking
	// handler cannot swallow the rest of the batch.
	for _, f := range fs {
		p.s.runCallback(f)
	}
}

func (p *win32Loop) startTimer(period time.Duration, fire func()) (platformTimer, error) {
	p.nextTimer++
	id := p.nextTimer
	ms := period.Milliseconds()
	if ms < 1 {
		ms = 1
	}
	if err := winsys.SetTimer(p.msgHwnd, id, uint32(ms)); err != nil {
		return nil, osErr("SetTimer", err)
	}
	p.timers[id] = fire
	return &win32Timer{p: p, id: id}, nil
}

type win32Timer struct {
	p  *win32Loop
	id uintptr
}

func (t *win32Timer) cancel() {
	if _, ok := t.p.timers[t.id]; !ok {
		return
	}
	delete(t.p.timers, t.id)
	winsys.KillTimer(t.p.msgHwnd, t.id)
}

// ensureVsync lazily starts the refresh source for a monitor the first time
// a window lands on it.
func (p *win32Loop) ensureVsync(d DisplayID, hdc syscall.Handle) {
	if _, ok := p.vsync[d]; ok {
		return
	}
	hz := winsys.GetDeviceCaps(hdc, winsys.VREFRESH)
	if hz <= 1 {
		hz = 60
	}
	t := newFrameTicker(d, time.Second/time.Duration(hz))
	p.vsync[d] = t
	t.start(p.post, p.s.handleRefresh)
}

func (p *win32Loop) stopRefresh() {
	for _, t := range p.vsync {
		t.join()
	}
	p.vsync = make(map[DisplayID]*frameTicker)
}

func (p *win32Loop) release() {
	for id := range p.timers {
		winsys.KillTimer(p.msgHwnd, id)
	}
	p.timers = make(map[uintptr]func())
	delete(loopMap, p.msgHwnd)
	winsys.DestroyWindow(p.msgHwnd)
	winsys.UnregisterClass(p.cls, p.hInst)
}

func (p *win32Loop) openWindow(ws *windowState, cfg *windowConfig) (platformWindow, error) {
	dwStyle := uint32(winsys.WS_OVERLAPPEDWINDOW)
	dwExStyle := uint32(winsys.WS_EX_APPWINDOW | winsys.WS_EX_WINDOWEDGE)
	var parent syscall.Handle
	if cfg.parent != nil {
		pw, ok := cfg.parent.(RawWindowWin32)
		if !ok {
			return nil, ErrInvalidParent
		}
		parent = syscall.Handle(pw.HWND)
		dwStyle = winsys.WS_CHILD
		dwExStyle = 0
	}
	x, y := int32(winsys.CW_USEDEFAULT), int32(winsys.CW_USEDEFAULT)
	if cfg.pos != nil {
		x, y = int32(cfg.pos.X), int32(cfg.pos.Y)
	}
	wr := winsys.Rect{
		Right:  int32(cfg.size.Width),
		Bottom: int32(cfg.size.Height),
	}
	winsys.AdjustWindowRectEx(&wr, dwStyle, 0, dwExStyle)
	hwnd, err := winsys.CreateWindowEx(dwExStyle,
		p.cls,
		cfg.title,
		dwStyle|winsys.WS_CLIPSIBLINGS|winsys.WS_CLIPCHILDREN,
		x, y,
		wr.Right-wr.Left,
		wr.Bottom-wr.Top,
		parent,
		0,
		p.hInst,
		0)
	if err != nil {
		return nil, osErr("CreateWindowEx", err)
	}
	hdc, err := winsys.GetDC(hwnd)
	if err != nil {
		winsys.DestroyWindow(hwnd)
		return nil, osErr("GetDC", err)
	}
	w := &win32Window{
		p:      p,
		ws:     ws,
		hwnd:   hwnd,
		hdc:    hdc,
		sz:     cfg.size,
		cursor: p.cursors[CursorArrow],
	}
	if dpi, ok := winsys.GetDpiForWindow(hwnd); ok {
		w.dpi = dpi
	} else {
		w.dpi = winsys.GetDeviceCaps(hdc, winsys.LOGPIXELSX)
	}
	if w.dpi <= 0 {
		w.dpi = winsys.USER_DEFAULT_SCREEN_DPI
	}
	w.monitor = DisplayID(winsys.MonitorFromWindow(hwnd))
	sc := w.scale()
	w.sf = newMemSurface(
		int(math.Round(cfg.size.Width*sc)),
		int(math.Round(cfg.size.Height*sc)),
	)
	w.sf.flush = w.blit
	winMap[hwnd] = w
	p.ensureVsync(w.monitor, hdc)
	return w, nil
}

type win32Window struct {
	p    *win32Loop
	ws   *windowState
	hwnd syscall.Handle
	hdc  syscall.Handle

	sz  geom.Size
	dpi int
	sf  *memSurface
	// monitor is the last monitor seen; WM_MOVE compares against it to spot
	// a window crossing onto a monitor with no refresh source yet.
	monitor DisplayID
	cursor  syscall.Handle
	// entered tracks TME_LEAVE so enter events can be synthesized from the
	// first WM_MOUSEMOVE.
	entered bool
}

func (w *win32Window) show() { winsys.ShowWindow(w.hwnd, winsys.SW_SHOW) }

func (w *win32Window) hide() { winsys.ShowWindow(w.hwnd, winsys.SW_HIDE) }

func (w *win32Window) size() geom.Size { return w.sz }

func (w *win32Window) scale() float64 {
	return float64(w.dpi) / winsys.USER_DEFAULT_SCREEN_DPI
}

func (w *win32Window) eventScale() float64 { return w.scale() }

func (w *win32Window) setTitle(title string) { winsys.SetWindowText(w.hwnd, title) }

func (w *win32Window) setCursor(c Cursor) {
	if c == CursorNone {
		w.cursor = 0
		winsys.SetCursor(0)
		return
	}
	h, ok := w.p.cursors[c]
	if !ok {
		var err error
		h, err = winsys.LoadCursor(win32CursorID(c))
		if err != nil {
			return
		}
		w.p.cursors[c] = h
	}
	w.cursor = h
	winsys.SetCursor(h)
}

func (w *win32Window) setMousePosition(pt geom.Point) {
	sc := w.scale()
	np := winsys.Point{
		X: int32(math.Round(pt.X * sc)),
		Y: int32(math.Round(pt.Y * sc)),
	}
	winsys.ClientToScreen(w.hwnd, &np)
	winsys.SetCursorPos(np.X, np.Y)
}

func (w *win32Window) setCapture(captured bool) {
	if captured {
		winsys.SetCapture(w.hwnd)
	} else {
		winsys.ReleaseCapture()
	}
}

func (w *win32Window) surface() Surface { return w.sf }

// displayID re-resolves monitor membership on every call; refresh ticks are
// routed by the monitor the window is on now, not the one it opened on.
func (w *win32Window) displayID() DisplayID {
	return DisplayID(winsys.MonitorFromWindow(w.hwnd))
}

func (w *win32Window) raw() RawWindow { return RawWindowWin32{HWND: uintptr(w.hwnd)} }

func (w *win32Window) destroy() {
	// WM_DESTROY arrives synchronously and runs the bookkeeping release.
	winsys.DestroyWindow(w.hwnd)
}

// blit pushes the surface to the device context as a top-down DIB.
func (w *win32Window) blit(rects []geom.Rect) {
	sw, sh := w.sf.Size()
	if sw == 0 || sh == 0 {
		return
	}
	bmi := winsys.BitmapInfo{
		Header: winsys.BitmapInfoHeader{
			BiWidth:    int32(sw),
			BiHeight:   -int32(sh),
			BiPlanes:   1,
			BiBitCount: 32,
		},
	}
	bmi.Header.BiSize = uint32(unsafe.Sizeof(bmi.Header))
	winsys.SetDIBitsToDevice(w.hdc,
		0, 0, uint32(sw), uint32(sh),
		0, 0, 0, uint32(sh),
		w.sf.pixels, &bmi)
}

func win32CursorID(c Cursor) uint16 {
	switch c {
	case CursorCrosshair:
		return winsys.IDC_CROSS
	case CursorHand:
		return winsys.IDC_HAND
	case CursorIBeam:
		return winsys.IDC_IBEAM
	case CursorNo:
		return winsys.IDC_NO
	case CursorSizeNS:
		return winsys.IDC_SIZENS
	case CursorSizeWE:
		return winsys.IDC_SIZEWE
	case CursorSizeNESW:
		return winsys.IDC_SIZENESW
	case CursorSizeNWSE:
		return winsys.IDC_SIZENWSE
	case CursorWait:
		return winsys.IDC_WAIT
	default:
		return winsys.IDC_ARROW
	}
}

func coordsFromLParam(lParam uintptr) geom.Point {
	x := int(int16(lParam & 0xffff))
	y := int(int16((lParam >> 16) & 0xffff))
	return geom.Pt(float64(x), float64(y))
}

func windowProc(hwnd syscall.Handle, msg uint32, wParam, lParam uintptr) uintptr {
	if p, ok := loopMap[hwnd]; ok {
		return p.loopProc(msg, wParam, lParam)
	}
	w, ok := winMap[hwnd]
	if !ok {
		return winsys.DefWindowProc(hwnd, msg, wParam, lParam)
	}
	return w.windowProc(msg, wParam, lParam)
}

// loopProc handles the message-only window's traffic.
func (p *win32Loop) loopProc(msg uint32, wParam, lParam uintptr) uintptr {
	switch msg {
	case wmWake:
		return 0
	case wmPosted:
		p.drainPosted()
		return 0
	case winsys.WM_TIMER:
		if fire, ok := p.timers[wParam]; ok {
			p.s.runCallback(fire)
		}
		return 0
	}
	return winsys.DefWindowProc(p.msgHwnd, msg, wParam, lParam)
}

func (w *win32Window) windowProc(msg uint32, wParam, lParam uintptr) uintptr {
	s := w.p.s
	switch msg {
	case winsys.WM_ERASEBKGND:
		return 1
	case winsys.WM_PAINT:
		for _, r := range winsys.GetUpdateRects(w.hwnd) {
			w.ws.addExposeRect(geom.Rc(
				float64(r.Left), float64(r.Top),
				float64(r.Right-r.Left), float64(r.Bottom-r.Top),
			))
		}
		winsys.ValidateRect(w.hwnd)
		s.runCallback(w.ws.flushExpose)
		return 0
	case winsys.WM_MOVE:
		// A move can land the window on another monitor; that monitor needs
		// a refresh source of its own.
		if m := DisplayID(winsys.MonitorFromWindow(w.hwnd)); m != w.monitor {
			w.monitor = m
			w.p.ensureVsync(m, w.hdc)
		}
		return 0
	case winsys.WM_CLOSE:
		// The window stays alive; closing is the handler's decision.
		s.runCallback(w.ws.onCloseRequest)
		return 0
	case winsys.WM_DESTROY:
		delete(winMap, w.hwnd)
		winsys.ReleaseDC(w.hwnd, w.hdc)
		w.ws.destroyed()
		return 0
	case winsys.WM_SETFOCUS:
		s.runCallback(func() { w.ws.onFocus(true) })
		return 0
	case winsys.WM_KILLFOCUS:
		s.runCallback(func() { w.ws.onFocus(false) })
		return 0
	case winsys.WM_SETCURSOR:
		if lParam&0xffff == winsys.HTCLIENT {
			winsys.SetCursor(w.cursor)
			return 1
		}
	case winsys.WM_MOUSEMOVE:
		if !w.entered {
			w.entered = true
			winsys.TrackMouseLeave(w.hwnd)
			s.runCallback(w.ws.onMouseEnter)
		}
		pt := coordsFromLParam(lParam)
		resp := s.callbackResponse(func() Response { return w.ws.onMouseMove(pt) })
		if resp == Capture {
			return 0
		}
	case winsys.WM_MOUSELEAVE:
		w.entered = false
		s.runCallback(w.ws.onMouseExit)
		return 0
	case winsys.WM_LBUTTONDOWN:
		return w.mouseButton(MouseLeft, true, msg, wParam, lParam)
	case winsys.WM_LBUTTONUP:
		return w.mouseButton(MouseLeft, false, msg, wParam, lParam)
	case winsys.WM_MBUTTONDOWN:
		return w.mouseButton(MouseMiddle, true, msg, wParam, lParam)
	case winsys.WM_MBUTTONUP:
		return w.mouseButton(MouseMiddle, false, msg, wParam, lParam)
	case winsys.WM_RBUTTONDOWN:
		return w.mouseButton(MouseRight, true, msg, wParam, lParam)
	case winsys.WM_RBUTTONUP:
		return w.mouseButton(MouseRight, false, msg, wParam, lParam)
	case winsys.WM_XBUTTONDOWN, winsys.WM_XBUTTONUP:
		btn := MouseBack
		if wParam>>16 == winsys.XBUTTON2 {
			btn = MouseForward
		}
		return w.mouseButton(btn, msg == winsys.WM_XBUTTONDOWN, msg, wParam, lParam)
	case winsys.WM_MOUSEWHEEL:
		dist := float64(int16(wParam>>16)) / winsys.WHEEL_DELTA
		resp := s.callbackResponse(func() Response {
			return w.ws.onScroll(geom.Pt(0, dist))
		})
		if resp == Capture {
			return 0
		}
	case winsys.WM_MOUSEHWHEEL:
		dist := float64(int16(wParam>>16)) / winsys.WHEEL_DELTA
		resp := s.callbackResponse(func() Response {
			return w.ws.onScroll(geom.Pt(dist, 0))
		})
		if resp == Capture {
			return 0
		}
	}
	return winsys.DefWindowProc(w.hwnd, msg, wParam, lParam)
}

func (w *win32Window) mouseButton(btn MouseButton, press bool, msg uint32, wParam, lParam uintptr) uintptr {
	var resp Response
	if press {
		resp = w.p.s.callbackResponse(func() Response { return w.ws.onMouseDown(btn) })
	} else {
		resp = w.p.s.callbackResponse(func() Response { return w.ws.onMouseUp(btn) })
	}
	if resp == Capture {
		return 0
	}
	return winsys.DefWindowProc(w.hwnd, msg, wParam, lParam)
}
