// SPDX-License-Identifier: Unlicense OR MIT

//go:build (linux && !android && !nox11) || freebsd

package app

/*
#cgo LDFLAGS: -lX11
#include <stdlib.h>
#include <string.h>
#include <X11/Xlib.h>
#include <X11/Xatom.h>
#include <X11/Xutil.h>
#include <X11/Xresource.h>
#include <X11/cursorfont.h>

// fen_x11_blank_cursor builds the invisible cursor used for CursorNone.
static Cursor fen_x11_blank_cursor(Display *dpy, Window win) {
	char bits = 0;
	Pixmap pm = XCreateBitmapFromData(dpy, win, &bits, 1, 1);
	XColor black = {0};
	Cursor c = XCreatePixmapCursor(dpy, pm, pm, &black, &black, 0, 0);
	XFreePixmap(dpy, pm);
	return c;
}

// fen_x11_put_image blits a 32-bit buffer owned by C memory.
static void fen_x11_put_image(Display *dpy, Window win, GC gc, char *data,
		int w, int h, int x, int y, int rw, int rh) {
	XImage img = {0};
	img.width = w;
	img.height = h;
	img.format = ZPixmap;
	img.data = data;
	img.bitmap_unit = 32;
	img.bitmap_pad = 32;
	img.depth = 24;
	img.bytes_per_line = w * 4;
	img.bits_per_pixel = 32;
	XInitImage(&img);
	XPutImage(dpy, win, gc, &img, x, y, x, y, rw, rh);
}
*/
import "C"
import (
	"errors"
	"math"
	"strconv"
	"sync"
	"time"
	"unsafe"

	syscall "golang.org/x/sys/unix"

	"github.com/fenestra-ui/fenestra/geom"
)

func init() {
	platformFactory = newX11Loop
}

var x11Threads sync.Once

type x11Loop struct {
	s   *loopState
	dpy *C.Display

	notify struct {
		read, write int
	}

	// windows resolves the XID in an incoming event.
	windows map[C.Window]*x11Window

	timers *timerQueue

	// refresh is the single ticker source; X11 exposes no vsync callback,
	// so the whole display is treated as one refresh domain.
	refresh *frameTicker

	postMu sync.Mutex
	posted []func()

	evDelWindow C.Atom
	utf8String  C.Atom
	netWMName   C.Atom

	scale float64

	cursors     map[Cursor]C.Cursor
	blankCursor C.Cursor

	xev C.XEvent
}

func newX11Loop(s *loopState, cfg *loopConfig) (platform, error) {
	var err error
	x11Threads.Do(func() {
		if C.XInitThreads() == 0 {
			err = errors.New("x11: threads init failed")
		}
		C.XrmInitialize()
	})
	if err != nil {
		return nil, err
	}
	dpy := C.XOpenDisplay(nil)
	if dpy == nil {
		return nil, errors.New("x11: cannot connect to the X server")
	}
	pipe := make([]int, 2)
	if err := syscall.Pipe2(pipe, syscall.O_NONBLOCK|syscall.O_CLOEXEC); err != nil {
		C.XCloseDisplay(dpy)
		return nil, osErr("pipe2", err)
	}
	p := &x11Loop{
		s:       s,
		dpy:     dpy,
		windows: make(map[C.Window]*x11Window),
		timers:  newTimerQueue(),
		scale:   x11DetectUIScale(dpy),
		cursors: make(map[Cursor]C.Cursor),
	}
	p.notify.read = pipe[0]
	p.notify.write = pipe[1]
	p.evDelWindow = p.atom("WM_DELETE_WINDOW", false)
	p.utf8String = p.atom("UTF8_STRING", false)
	p.netWMName = p.atom("_NET_WM_NAME", false)
	p.refresh = newFrameTicker(0, time.Second/60)
	p.refresh.start(p.post, s.handleRefresh)
	return p, nil
}

func (p *x11Loop) name() string { return "x11" }

// atom is a wrapper around XInternAtom. Callers should cache the result in
// order to limit round-trips to the X server.
func (p *x11Loop) atom(name string, onlyIfExists bool) C.Atom {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	flag := C.Bool(C.False)
	if onlyIfExists {
		flag = C.True
	}
	return C.XInternAtom(p.dpy, cname, flag)
}

var x11OneByte = make([]byte, 1)

func (p *x11Loop) wake() {
	if _, err := syscall.Write(p.notify.write, x11OneByte); err != nil && err != syscall.EAGAIN {
		panic(osErr("write to notify pipe", err))
	}
}

func (p *x11Loop) post(f func()) {
	p.postMu.Lock()
	p.posted = append(p.posted, f)
	p.postMu.Unlock()
	p.wake()
}

func (p *x11Loop) drainPosted() {
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

func (p *x11Loop) run() error {
	xfd := C.XConnectionNumber(p.dpy)
	pollfds := []syscall.PollFd{
		{Fd: int32(xfd), Events: syscall.POLLIN | syscall.POLLERR},
		{Fd: int32(p.notify.read), Events: syscall.POLLIN | syscall.POLLERR},
	}
	buf := make([]byte, 100)
	for {
		p.dispatchPending()
		if p.s.runState != stateRunning {
			return nil
		}
		// Block until the X socket has traffic, the pipe is poked, or the
		// next software timer comes due.
		timeout := -1
		if due, ok := p.timers.next(); ok {
			d := due.Sub(p.s.now())
			if d < 0 {
				d = 0
			}
			// Round up so a timer is never polled before it is due.
			timeout = int((d + time.Millisecond - 1) / time.Millisecond)
		}
		pollfds[0].Revents = 0
		pollfds[1].Revents = 0
		if _, err := syscall.Poll(pollfds, timeout); err != nil && err != syscall.EINTR {
			return osErr("poll", err)
		}
		if pollfds[1].Revents&syscall.POLLIN != 0 {
			for {
				if _, err := syscall.Read(p.notify.read, buf); err == syscall.EAGAIN {
					break
				} else if err != nil {
					return osErr("read from notify pipe", err)
				}
			}
		}
		if pollfds[0].Revents&(syscall.POLLERR|syscall.POLLHUP) != 0 {
			return errors.New("x11: connection lost")
		}
	}
}

func (p *x11Loop) poll() error {
	p.dispatchPending()
	return nil
}

// dispatchPending drains the X event queue, posted functions and due
// software timers.
func (p *x11Loop) dispatchPending() {
	p.handleXEvents()
	p.drainPosted()
	p.s.runCallback(func() { p.timers.poll(p.s.now()) })
	C.XFlush(p.dpy)
}

func (p *x11Loop) handleXEvents() {
	xev := &p.xev
	for C.XPending(p.dpy) != 0 {
		C.XNextEvent(p.dpy, xev)
		if C.XFilterEvent(xev, C.None) == C.True {
			continue
		}
		anyEv := (*C.XAnyEvent)(unsafe.Pointer(xev))
		w, ok := p.windows[anyEv.window]
		if !ok {
			continue
		}
		w.handleEvent(xev, anyEv._type)
	}
}

func (p *x11Loop) startTimer(period time.Duration, fire func()) (platformTimer, error) {
	id := p.timers.schedule(p.s.now(), period, fire)
	return x11Timer{p: p, id: id}, nil
}

type x11Timer struct {
	p  *x11Loop
	id uint64
}

func (t x11Timer) cancel() {
	t.p.timers.cancel(t.id)
}

func (p *x11Loop) stopRefresh() {
	if p.refresh != nil {
		p.refresh.join()
		p.refresh = nil
	}
}

func (p *x11Loop) release() {
	for _, c := range p.cursors {
		C.XFreeCursor(p.dpy, c)
	}
	if p.blankCursor != 0 {
		C.XFreeCursor(p.dpy, p.blankCursor)
	}
	syscall.Close(p.notify.write)
	syscall.Close(p.notify.read)
	C.XCloseDisplay(p.dpy)
	p.dpy = nil
}

func (p *x11Loop) openWindow(ws *windowState, cfg *windowConfig) (platformWindow, error) {
	root := C.XDefaultRootWindow(p.dpy)
	if cfg.parent != nil {
		pw, ok := cfg.parent.(RawWindowX11)
		if !ok {
			return nil, ErrInvalidParent
		}
		root = C.Window(pw.Window)
	}
	pw := int(math.Round(cfg.size.Width * p.scale))
	ph := int(math.Round(cfg.size.Height * p.scale))
	var x, y C.int
	if cfg.pos != nil {
		x = C.int(math.Round(cfg.pos.X * p.scale))
		y = C.int(math.Round(cfg.pos.Y * p.scale))
	}
	swa := C.XSetWindowAttributes{
		event_mask: C.ExposureMask | C.FocusChangeMask |
			C.ButtonPressMask | C.ButtonReleaseMask |
			C.PointerMotionMask |
			C.EnterWindowMask | C.LeaveWindowMask |
			C.StructureNotifyMask,
		background_pixmap: C.None,
		override_redirect: C.False,
	}
	win := C.XCreateWindow(p.dpy, root,
		x, y, C.uint(pw), C.uint(ph),
		0, C.CopyFromParent, C.InputOutput, nil,
		C.CWEventMask|C.CWBackPixmap|C.CWOverrideRedirect, &swa)
	if win == 0 {
		return nil, errors.New("x11: XCreateWindow failed")
	}
	w := &x11Window{
		p:   p,
		ws:  ws,
		win: win,
		sz:  cfg.size,
		gc:  C.XCreateGC(p.dpy, C.Drawable(win), 0, nil),
	}
	w.setTitle(cfg.title)
	C.XSetWMProtocols(p.dpy, win, &p.evDelWindow, 1)
	w.sf = newMemSurface(pw, ph)
	w.sf.flush = w.blit
	w.buf = C.malloc(C.size_t(pw * ph * 4))
	p.windows[win] = w
	return w, nil
}

type x11Window struct {
	p   *x11Loop
	ws  *windowState
	win C.Window
	gc  C.GC

	sz geom.Size
	sf *memSurface
	// buf is the C-owned copy of the surface handed to XPutImage.
	buf unsafe.Pointer
}

func (w *x11Window) show() {
	C.XMapWindow(w.p.dpy, w.win)
	C.XFlush(w.p.dpy)
}

func (w *x11Window) hide() {
	C.XUnmapWindow(w.p.dpy, w.win)
	C.XFlush(w.p.dpy)
}

func (w *x11Window) size() geom.Size { return w.sz }

func (w *x11Window) scale() float64 { return w.p.scale }

func (w *x11Window) eventScale() float64 { return w.p.scale }

func (w *x11Window) setTitle(title string) {
	ctitle := C.CString(title)
	defer C.free(unsafe.Pointer(ctitle))
	C.XStoreName(w.p.dpy, w.win, ctitle)
	// _NET_WM_NAME for UTF-8 titles.
	C.XSetTextProperty(w.p.dpy, w.win,
		&C.XTextProperty{
			value:    (*C.uchar)(unsafe.Pointer(ctitle)),
			encoding: w.p.utf8String,
			format:   8,
			nitems:   C.ulong(len(title)),
		},
		w.p.netWMName)
}

func (w *x11Window) setCursor(c Cursor) {
	p := w.p
	if c == CursorNone {
		if p.blankCursor == 0 {
			p.blankCursor = C.fen_x11_blank_cursor(p.dpy, w.win)
		}
		C.XDefineCursor(p.dpy, w.win, p.blankCursor)
		return
	}
	xc, ok := p.cursors[c]
	if !ok {
		xc = C.XCreateFontCursor(p.dpy, x11CursorShape(c))
		p.cursors[c] = xc
	}
	C.XDefineCursor(p.dpy, w.win, xc)
}

func (w *x11Window) setMousePosition(pt geom.Point) {
	sc := w.p.scale
	C.XWarpPointer(w.p.dpy, C.None, w.win, 0, 0, 0, 0,
		C.int(math.Round(pt.X*sc)), C.int(math.Round(pt.Y*sc)))
	C.XFlush(w.p.dpy)
}

func (w *x11Window) setCapture(captured bool) {
	if captured {
		C.XGrabPointer(w.p.dpy, w.win, C.False,
			C.ButtonPressMask|C.ButtonReleaseMask|C.PointerMotionMask|
				C.EnterWindowMask|C.LeaveWindowMask,
			C.GrabModeAsync, C.GrabModeAsync, C.None, C.None, C.CurrentTime)
	} else {
		C.XUngrabPointer(w.p.dpy, C.CurrentTime)
	}
}

func (w *x11Window) surface() Surface { return w.sf }

func (w *x11Window) displayID() DisplayID { return 0 }

func (w *x11Window) raw() RawWindow { return RawWindowX11{Window: uint64(w.win)} }

func (w *x11Window) destroy() {
	delete(w.p.windows, w.win)
	if w.gc != nil {
		C.XFreeGC(w.p.dpy, w.gc)
		w.gc = nil
	}
	if w.buf != nil {
		C.free(w.buf)
		w.buf = nil
	}
	C.XDestroyWindow(w.p.dpy, w.win)
	C.XFlush(w.p.dpy)
	w.ws.destroyed()
}

func (w *x11Window) blit(rects []geom.Rect) {
	sw, sh := w.sf.Size()
	if sw == 0 || sh == 0 || w.buf == nil {
		return
	}
	C.memcpy(w.buf, unsafe.Pointer(&w.sf.pixels[0]), C.size_t(sw*sh*4))
	if len(rects) == 0 {
		C.fen_x11_put_image(w.p.dpy, w.win, w.gc, (*C.char)(w.buf),
			C.int(sw), C.int(sh), 0, 0, C.int(sw), C.int(sh))
	} else {
		for _, r := range rects {
			x, y := int(r.X), int(r.Y)
			rw, rh := int(math.Ceil(r.Width)), int(math.Ceil(r.Height))
			if x < 0 {
				rw += x
				x = 0
			}
			if y < 0 {
				rh += y
				y = 0
			}
			if x+rw > sw {
				rw = sw - x
			}
			if y+rh > sh {
				rh = sh - y
			}
			if rw <= 0 || rh <= 0 {
				continue
			}
			C.fen_x11_put_image(w.p.dpy, w.win, w.gc, (*C.char)(w.buf),
				C.int(sw), C.int(sh), C.int(x), C.int(y), C.int(rw), C.int(rh))
		}
	}
	C.XFlush(w.p.dpy)
}

func (w *x11Window) handleEvent(xev *C.XEvent, typ C.int) {
	s := w.p.s
	switch typ {
	case C.Expose:
		eev := (*C.XExposeEvent)(unsafe.Pointer(xev))
		w.ws.addExposeRect(geom.Rc(
			float64(eev.x), float64(eev.y),
			float64(eev.width), float64(eev.height),
		))
		// The batch ends with the event whose remaining count is zero.
		if eev.count == 0 {
			s.runCallback(w.ws.flushExpose)
		}
	case C.FocusIn:
		s.runCallback(func() { w.ws.onFocus(true) })
	case C.FocusOut:
		s.runCallback(func() { w.ws.onFocus(false) })
	case C.EnterNotify:
		eev := (*C.XCrossingEvent)(unsafe.Pointer(xev))
		pt := geom.Pt(float64(eev.x), float64(eev.y))
		s.runCallback(w.ws.onMouseEnter)
		s.runCallback(func() { w.ws.onMouseMove(pt) })
	case C.LeaveNotify:
		s.runCallback(w.ws.onMouseExit)
	case C.MotionNotify:
		mev := (*C.XMotionEvent)(unsafe.Pointer(xev))
		pt := geom.Pt(float64(mev.x), float64(mev.y))
		s.callbackResponse(func() Response { return w.ws.onMouseMove(pt) })
	case C.ButtonPress, C.ButtonRelease:
		bev := (*C.XButtonEvent)(unsafe.Pointer(xev))
		press := typ == C.ButtonPress
		switch bev.button {
		case C.Button4:
			if press {
				s.callbackResponse(func() Response { return w.ws.onScroll(geom.Pt(0, 1)) })
			}
		case C.Button5:
			if press {
				s.callbackResponse(func() Response { return w.ws.onScroll(geom.Pt(0, -1)) })
			}
		case 6:
			if press {
				s.callbackResponse(func() Response { return w.ws.onScroll(geom.Pt(1, 0)) })
			}
		case 7:
			if press {
				s.callbackResponse(func() Response { return w.ws.onScroll(geom.Pt(-1, 0)) })
			}
		default:
			btn, ok := x11Button(bev.button)
			if !ok {
				return
			}
			if press {
				s.callbackResponse(func() Response { return w.ws.onMouseDown(btn) })
			} else {
				s.callbackResponse(func() Response { return w.ws.onMouseUp(btn) })
			}
		}
	case C.ConfigureNotify:
		cev := (*C.XConfigureEvent)(unsafe.Pointer(xev))
		sc := w.p.scale
		w.sz = geom.Sz(float64(cev.width)/sc, float64(cev.height)/sc)
		pw, ph := int(cev.width), int(cev.height)
		if sw, sh := w.sf.Size(); sw != pw || sh != ph {
			w.sf.Resize(pw, ph)
			if w.buf != nil {
				C.free(w.buf)
			}
			w.buf = C.malloc(C.size_t(pw * ph * 4))
		}
	case C.ClientMessage:
		cev := (*C.XClientMessageEvent)(unsafe.Pointer(xev))
		if *(*C.long)(unsafe.Pointer(&cev.data)) == C.long(w.p.evDelWindow) {
			s.runCallback(w.ws.onCloseRequest)
		}
	}
}

func x11Button(b C.uint) (MouseButton, bool) {
	switch b {
	case C.Button1:
		return MouseLeft, true
	case C.Button2:
		return MouseMiddle, true
	case C.Button3:
		return MouseRight, true
	case 8:
		return MouseBack, true
	case 9:
		return MouseForward, true
	default:
		return 0, false
	}
}

func x11CursorShape(c Cursor) C.uint {
	switch c {
	case CursorCrosshair:
		return C.XC_crosshair
	case CursorHand:
		return C.XC_hand2
	case CursorIBeam:
		return C.XC_xterm
	case CursorNo:
		return C.XC_X_cursor
	case CursorSizeNS:
		return C.XC_sb_v_double_arrow
	case CursorSizeWE:
		return C.XC_sb_h_double_arrow
	case CursorSizeNESW:
		return C.XC_bottom_left_corner
	case CursorSizeNWSE:
		return C.XC_bottom_right_corner
	case CursorWait:
		return C.XC_watch
	default:
		return C.XC_left_ptr
	}
}

// x11DetectUIScale reports the system UI scale, or 1.0 if it fails. The
// value comes from the Xft.dpi resource set by GTK and Qt.
func x11DetectUIScale(dpy *C.Display) float64 {
	const defaultDesktopDPI = 96
	scale := 1.0
	rms := C.XResourceManagerString(dpy)
	if rms == nil {
		return scale
	}
	db := C.XrmGetStringDatabase(rms)
	if db == nil {
		return scale
	}
	defer C.XrmDestroyDatabase(db)
	var (
		t *C.char
		v C.XrmValue
	)
	if C.XrmGetResource(db, (*C.char)(unsafe.Pointer(&[]byte("Xft.dpi\x00")[0])),
		(*C.char)(unsafe.Pointer(&[]byte("Xft.Dpi\x00")[0])), &t, &v) != C.False {
		if t != nil && C.GoString(t) == "String" {
			if f, err := strconv.ParseFloat(C.GoString(v.addr), 64); err == nil && f > 0 {
				scale = f / defaultDesktopDPI
			}
		}
	}
	return scale
}
