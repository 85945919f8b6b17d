// SPDX-License-Identifier: Unlicense OR MIT

//go:build darwin && !ios

package app

/*
#cgo CFLAGS: -Werror -Wno-deprecated-declarations -fmodules -fobjc-arc -x objective-c
#cgo LDFLAGS: -framework AppKit -framework CoreVideo -framework QuartzCore

#include <stdlib.h>
#include <string.h>
#include <AppKit/AppKit.h>
#include <CoreVideo/CoreVideo.h>
#include <objc/runtime.h>

extern void fen_onExpose(CFTypeRef view, double x, double y, double w, double h);
extern void fen_onCloseRequest(CFTypeRef view);
extern void fen_onDestroy(CFTypeRef view);
extern void fen_onFocus(CFTypeRef view, int gained);
extern void fen_onMouseEnter(CFTypeRef view);
extern void fen_onMouseExit(CFTypeRef view);
extern void fen_onMouseMove(CFTypeRef view, double x, double y);
extern void fen_onMouseButton(CFTypeRef view, int btn, int press);
extern void fen_onScroll(CFTypeRef view, double dx, double dy);
extern void fen_onTimer(uintptr_t id);
extern void fen_onVBlank(uint32_t display);
extern void fen_onMainPerform(uintptr_t token);

@interface FenView : NSView
@property (nonatomic) void *pixels;
@property (nonatomic) int pixWidth;
@property (nonatomic) int pixHeight;
@property (nonatomic) BOOL inDraw;
@end

@implementation FenView
- (BOOL)isFlipped {
	return YES;
}
- (BOOL)acceptsFirstResponder {
	return YES;
}
- (void)drawRect:(NSRect)r {
	self.inDraw = YES;
	fen_onExpose((__bridge CFTypeRef)self, r.origin.x, r.origin.y, r.size.width, r.size.height);
	self.inDraw = NO;
	if (self.pixels == NULL || self.pixWidth == 0 || self.pixHeight == 0) {
		return;
	}
	CGContextRef ctx = NSGraphicsContext.currentContext.CGContext;
	CGDataProviderRef provider = CGDataProviderCreateWithData(NULL, self.pixels,
		(size_t)self.pixWidth * self.pixHeight * 4, NULL);
	CGColorSpaceRef space = CGColorSpaceCreateDeviceRGB();
	CGImageRef img = CGImageCreate(self.pixWidth, self.pixHeight, 8, 32, self.pixWidth * 4,
		space, kCGBitmapByteOrder32Little | kCGImageAlphaNoneSkipFirst,
		provider, NULL, false, kCGRenderingIntentDefault);
	CGContextSaveGState(ctx);
	// Match the flipped view coordinates.
	CGContextTranslateCTM(ctx, 0, self.bounds.size.height);
	CGContextScaleCTM(ctx, 1, -1);
	CGContextDrawImage(ctx, self.bounds, img);
	CGContextRestoreGState(ctx);
	CGImageRelease(img);
	CGColorSpaceRelease(space);
	CGDataProviderRelease(provider);
}
- (void)updateTrackingAreas {
	for (NSTrackingArea *ta in self.trackingAreas) {
		[self removeTrackingArea:ta];
	}
	NSTrackingAreaOptions opts = NSTrackingMouseEnteredAndExited |
		NSTrackingMouseMoved | NSTrackingActiveInKeyWindow | NSTrackingInVisibleRect;
	[self addTrackingArea:[[NSTrackingArea alloc] initWithRect:NSZeroRect
		options:opts owner:self userInfo:nil]];
	[super updateTrackingAreas];
}
- (NSPoint)eventLocation:(NSEvent *)e {
	return [self convertPoint:e.locationInWindow fromView:nil];
}
- (void)mouseEntered:(NSEvent *)e {
	fen_onMouseEnter((__bridge CFTypeRef)self);
}
- (void)mouseExited:(NSEvent *)e {
	fen_onMouseExit((__bridge CFTypeRef)self);
}
- (void)mouseMoved:(NSEvent *)e {
	NSPoint p = [self eventLocation:e];
	fen_onMouseMove((__bridge CFTypeRef)self, p.x, p.y);
}
- (void)mouseDragged:(NSEvent *)e {
	NSPoint p = [self eventLocation:e];
	fen_onMouseMove((__bridge CFTypeRef)self, p.x, p.y);
}
- (void)rightMouseDragged:(NSEvent *)e {
	[self mouseDragged:e];
}
- (void)otherMouseDragged:(NSEvent *)e {
	[self mouseDragged:e];
}
- (void)mouseDown:(NSEvent *)e {
	fen_onMouseButton((__bridge CFTypeRef)self, 0, 1);
}
- (void)mouseUp:(NSEvent *)e {
	fen_onMouseButton((__bridge CFTypeRef)self, 0, 0);
}
- (void)rightMouseDown:(NSEvent *)e {
	fen_onMouseButton((__bridge CFTypeRef)self, 2, 1);
}
- (void)rightMouseUp:(NSEvent *)e {
	fen_onMouseButton((__bridge CFTypeRef)self, 2, 0);
}
- (void)otherMouseDown:(NSEvent *)e {
	fen_onMouseButton((__bridge CFTypeRef)self, (int)e.buttonNumber, 1);
}
- (void)otherMouseUp:(NSEvent *)e {
	fen_onMouseButton((__bridge CFTypeRef)self, (int)e.buttonNumber, 0);
}
- (void)scrollWheel:(NSEvent *)e {
	fen_onScroll((__bridge CFTypeRef)self, e.scrollingDeltaX, e.scrollingDeltaY);
}
@end

@interface FenWindowDelegate : NSObject<NSWindowDelegate>
@property (nonatomic, weak) FenView *view;
@end

@implementation FenWindowDelegate
- (BOOL)windowShouldClose:(NSWindow *)sender {
	// The window stays alive; closing is the handler's decision.
	fen_onCloseRequest((__bridge CFTypeRef)self.view);
	return NO;
}
- (void)windowWillClose:(NSNotification *)n {
	fen_onDestroy((__bridge CFTypeRef)self.view);
}
- (void)windowDidBecomeKey:(NSNotification *)n {
	fen_onFocus((__bridge CFTypeRef)self.view, 1);
}
- (void)windowDidResignKey:(NSNotification *)n {
	fen_onFocus((__bridge CFTypeRef)self.view, 0);
}
@end

static void fen_macos_init(int owner) {
	[NSApplication sharedApplication];
	if (owner) {
		[NSApp setActivationPolicy:NSApplicationActivationPolicyRegular];
		[NSApp activateIgnoringOtherApps:YES];
	}
}

static void fen_macos_next_event(void) {
	@autoreleasepool {
		NSEvent *ev = [NSApp nextEventMatchingMask:NSEventMaskAny
			untilDate:[NSDate distantFuture]
			inMode:NSDefaultRunLoopMode
			dequeue:YES];
		if (ev != nil) {
			[NSApp sendEvent:ev];
		}
	}
}

static int fen_macos_poll_event(void) {
	@autoreleasepool {
		NSEvent *ev = [NSApp nextEventMatchingMask:NSEventMaskAny
			untilDate:nil
			inMode:NSDefaultRunLoopMode
			dequeue:YES];
		if (ev == nil) {
			return 0;
		}
		[NSApp sendEvent:ev];
		return 1;
	}
}

// fen_macos_wake may run on any thread.
static void fen_macos_wake(void) {
	@autoreleasepool {
		NSEvent *ev = [NSEvent otherEventWithType:NSEventTypeApplicationDefined
			location:NSZeroPoint modifierFlags:0 timestamp:0
			windowNumber:0 context:nil subtype:0 data1:0 data2:0];
		[NSApp postEvent:ev atStart:NO];
	}
}

static void fen_macos_perform_main(uintptr_t token) {
	CFRunLoopPerformBlock(CFRunLoopGetMain(), kCFRunLoopCommonModes, ^{
		fen_onMainPerform(token);
	});
	CFRunLoopWakeUp(CFRunLoopGetMain());
	fen_macos_wake();
}

static CFTypeRef fen_macos_create_window(const char *title, double x, double y,
		double w, double h, int positioned, CFTypeRef parentView) {
	@autoreleasepool {
		NSRect rect = NSMakeRect(0, 0, w, h);
		FenView *view = [[FenView alloc] initWithFrame:rect];
		if (parentView != NULL) {
			NSView *parent = (__bridge NSView *)parentView;
			[parent addSubview:view];
			return CFBridgingRetain(view);
		}
		NSUInteger style = NSWindowStyleMaskTitled | NSWindowStyleMaskClosable |
			NSWindowStyleMaskMiniaturizable | NSWindowStyleMaskResizable;
		NSWindow *win = [[NSWindow alloc] initWithContentRect:rect
			styleMask:style backing:NSBackingStoreBuffered defer:NO];
		win.releasedWhenClosed = NO;
		win.title = [NSString stringWithUTF8String:title];
		win.contentView = view;
		FenWindowDelegate *del = [[FenWindowDelegate alloc] init];
		del.view = view;
		win.delegate = del;
		// Keep the delegate alive for the window's lifetime.
		objc_setAssociatedObject(win, "fen_delegate", del, OBJC_ASSOCIATION_RETAIN);
		if (positioned) {
			[win setFrameTopLeftPoint:NSMakePoint(x, y)];
		} else {
			[win center];
		}
		return CFBridgingRetain(view);
	}
}

static void fen_macos_show(CFTypeRef viewRef) {
	FenView *view = (__bridge FenView *)viewRef;
	[view.window makeKeyAndOrderFront:nil];
}

static void fen_macos_hide(CFTypeRef viewRef) {
	FenView *view = (__bridge FenView *)viewRef;
	[view.window orderOut:nil];
}

static void fen_macos_close_window(CFTypeRef viewRef) {
	FenView *view = (__bridge FenView *)viewRef;
	if (view.window != nil) {
		[view.window close];
	} else {
		[view removeFromSuperview];
		fen_onDestroy(viewRef);
	}
}

static void fen_macos_release_view(CFTypeRef viewRef) {
	CFBridgingRelease(viewRef);
}

static void fen_macos_set_title(CFTypeRef viewRef, const char *title) {
	FenView *view = (__bridge FenView *)viewRef;
	view.window.title = [NSString stringWithUTF8String:title];
}

static double fen_macos_view_width(CFTypeRef viewRef) {
	return ((__bridge FenView *)viewRef).bounds.size.width;
}

static double fen_macos_view_height(CFTypeRef viewRef) {
	return ((__bridge FenView *)viewRef).bounds.size.height;
}

static double fen_macos_backing_scale(CFTypeRef viewRef) {
	FenView *view = (__bridge FenView *)viewRef;
	NSWindow *win = view.window;
	return win != nil ? win.backingScaleFactor : 1.0;
}

static uint32_t fen_macos_display_id(CFTypeRef viewRef) {
	FenView *view = (__bridge FenView *)viewRef;
	NSScreen *screen = view.window.screen ?: NSScreen.mainScreen;
	NSNumber *num = screen.deviceDescription[@"NSScreenNumber"];
	return (uint32_t)num.unsignedIntValue;
}

static void fen_macos_set_pixels(CFTypeRef viewRef, void *pixels, int w, int h) {
	FenView *view = (__bridge FenView *)viewRef;
	view.pixels = pixels;
	view.pixWidth = w;
	view.pixHeight = h;
}

static void fen_macos_invalidate(CFTypeRef viewRef) {
	FenView *view = (__bridge FenView *)viewRef;
	if (!view.inDraw) {
		[view setNeedsDisplay:YES];
	}
}

static void fen_macos_set_cursor(CFTypeRef viewRef, int cursor) {
	NSCursor *c;
	switch (cursor) {
	case 1: c = NSCursor.crosshairCursor; break;
	case 2: c = NSCursor.pointingHandCursor; break;
	case 3: c = NSCursor.IBeamCursor; break;
	case 4: c = NSCursor.operationNotAllowedCursor; break;
	case 5: c = NSCursor.resizeUpDownCursor; break;
	case 6: c = NSCursor.resizeLeftRightCursor; break;
	case 7: c = NSCursor.resizeLeftRightCursor; break;
	case 8: c = NSCursor.resizeUpDownCursor; break;
	case 9: c = NSCursor.arrowCursor; break;
	default: c = NSCursor.arrowCursor; break;
	}
	[c set];
	if (cursor == 10) {
		[NSCursor hide];
	} else {
		[NSCursor unhide];
	}
}

static void fen_macos_warp_mouse(CFTypeRef viewRef, double x, double y) {
	FenView *view = (__bridge FenView *)viewRef;
	NSPoint inWin = [view convertPoint:NSMakePoint(x, y) toView:nil];
	NSRect onScreen = [view.window convertRectToScreen:NSMakeRect(inWin.x, inWin.y, 0, 0)];
	// Core Graphics uses a top-left origin.
	CGFloat screenH = NSScreen.screens.firstObject.frame.size.height;
	CGWarpMouseCursorPosition(CGPointMake(onScreen.origin.x, screenH - onScreen.origin.y));
}

static void fen_timer_callback(CFRunLoopTimerRef timer, void *info) {
	fen_onTimer((uintptr_t)info);
}

static CFRunLoopTimerRef fen_macos_start_timer(uintptr_t id, double period) {
	CFRunLoopTimerContext ctx = {0};
	ctx.info = (void *)id;
	CFRunLoopTimerRef timer = CFRunLoopTimerCreate(NULL,
		CFAbsoluteTimeGetCurrent() + period, period, 0, 0,
		fen_timer_callback, &ctx);
	CFRunLoopAddTimer(CFRunLoopGetMain(), timer, kCFRunLoopCommonModes);
	return timer;
}

static void fen_macos_cancel_timer(CFRunLoopTimerRef timer) {
	CFRunLoopTimerInvalidate(timer);
	CFRelease(timer);
}

static CVReturn fen_display_link_callback(CVDisplayLinkRef link,
		const CVTimeStamp *now, const CVTimeStamp *output,
		CVOptionFlags flagsIn, CVOptionFlags *flagsOut, void *info) {
	fen_onVBlank((uint32_t)(uintptr_t)info);
	return kCVReturnSuccess;
}

static CVDisplayLinkRef fen_macos_start_display_link(uint32_t display) {
	CVDisplayLinkRef link;
	if (CVDisplayLinkCreateWithCGDisplay(display, &link) != kCVReturnSuccess) {
		return NULL;
	}
	CVDisplayLinkSetOutputCallback(link, fen_display_link_callback, (void *)(uintptr_t)display);
	CVDisplayLinkStart(link);
	return link;
}

static void fen_macos_stop_display_link(CVDisplayLinkRef link) {
	CVDisplayLinkStop(link);
	CVDisplayLinkRelease(link);
}
*/
import "C"
import (
	"math"
	"runtime"
	"sync"
	"time"
	"unsafe"

	"github.com/fenestra-ui/fenestra/geom"
)

func init() {
	// AppKit requires that UI operations happen on the main thread only.
	runtime.LockOSThread()
	platformFactory = newCocoaLoop
}

// cocoaActive is the loop the exported callbacks dispatch to. AppKit's
// application state is process-wide, so one live loop is the supported
// shape.
var cocoaActive *cocoaLoop

type cocoaLoop struct {
	s *loopState

	// views resolves the FenView behind an incoming callback.
	views map[C.CFTypeRef]*cocoaWindow

	nextTimer uintptr
	timers    map[uintptr]*cocoaTimer

	// vsync holds one CVDisplayLink per display a window has been seen on.
	// vsyncMu guards it against the display link threads.
	vsyncMu sync.Mutex
	vsync   map[DisplayID]*cocoaVsync

	postMu sync.Mutex
	posted []func()
}

type cocoaVsync struct {
	link C.CVDisplayLinkRef
	gate frameGate
}

func newCocoaLoop(s *loopState, cfg *loopConfig) (platform, error) {
	owner := C.int(0)
	if cfg.mode == ModeOwner {
		owner = 1
	}
	C.fen_macos_init(owner)
	p := &cocoaLoop{
		s:      s,
		views:  make(map[C.CFTypeRef]*cocoaWindow),
		timers: make(map[uintptr]*cocoaTimer),
		vsync:  make(map[DisplayID]*cocoaVsync),
	}
	cocoaActive = p
	return p, nil
}

func (p *cocoaLoop) name() string { return "cocoa" }

func (p *cocoaLoop) run() error {
	for p.s.runState == stateRunning {
		C.fen_macos_next_event()
	}
	return nil
}

func (p *cocoaLoop) poll() error {
	for C.fen_macos_poll_event() != 0 {
	}
	return nil
}

func (p *cocoaLoop) wake() {
	C.fen_macos_wake()
}

// post schedules f on the main run loop. Safe from any goroutine.
func (p *cocoaLoop) post(f func()) {
	p.postMu.Lock()
	p.posted = append(p.posted, f)
	p.postMu.Unlock()
	C.fen_macos_perform_main(0)
}

//export fen_onMainPerform
func fen_onMainPerform(token C.uintptr_t) {
	p := cocoaActive
	if p == nil {
		return
	}
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

func (p *cocoaLoop) startTimer(period time.Duration, fire func()) (platformTimer, error) {
	p.nextTimer++
	id := p.nextTimer
	t := &cocoaTimer{p: p, id: id, fire: fire}
	t.ref = C.fen_macos_start_timer(C.uintptr_t(id), C.double(period.Seconds()))
	p.timers[id] = t
	return t, nil
}

type cocoaTimer struct {
	p    *cocoaLoop
	id   uintptr
	ref  C.CFRunLoopTimerRef
	fire func()
}

func (t *cocoaTimer) cancel() {
	if _, ok := t.p.timers[t.id]; !ok {
		return
	}
	delete(t.p.timers, t.id)
	C.fen_macos_cancel_timer(t.ref)
}

//export fen_onTimer
func fen_onTimer(id C.uintptr_t) {
	p := cocoaActive
	if p == nil {
		return
	}
	if t, ok := p.timers[uintptr(id)]; ok {
		p.s.runCallback(t.fire)
	}
}

// ensureVsync lazily starts the display link for a display the first time a
// window lands on it.
func (p *cocoaLoop) ensureVsync(d DisplayID) {
	p.vsyncMu.Lock()
	_, ok := p.vsync[d]
	if !ok {
		// Register before starting so the first vblank finds the gate.
		p.vsync[d] = &cocoaVsync{}
	}
	p.vsyncMu.Unlock()
	if ok {
		return
	}
	link := C.fen_macos_start_display_link(C.uint32_t(d))
	p.vsyncMu.Lock()
	if link == nil {
		delete(p.vsync, d)
	} else {
		p.vsync[d].link = link
	}
	p.vsyncMu.Unlock()
}

//export fen_onVBlank
func fen_onVBlank(display C.uint32_t) {
	// Runs on the display link thread; coalesce and hop to the main loop.
	p := cocoaActive
	if p == nil {
		return
	}
	d := DisplayID(display)
	p.vsyncMu.Lock()
	v, ok := p.vsync[d]
	p.vsyncMu.Unlock()
	if !ok || !v.gate.arm() {
		return
	}
	p.post(func() {
		// ack even when a handler panics out of the sweep, or the gate
		// wedges and the display goes silent.
		defer v.gate.ack()
		p.s.handleRefresh(d)
	})
}

func (p *cocoaLoop) stopRefresh() {
	p.vsyncMu.Lock()
	vs := p.vsync
	p.vsync = make(map[DisplayID]*cocoaVsync)
	p.vsyncMu.Unlock()
	for _, v := range vs {
		if v.link != nil {
			C.fen_macos_stop_display_link(v.link)
		}
	}
}

func (p *cocoaLoop) release() {
	for _, t := range p.timers {
		C.fen_macos_cancel_timer(t.ref)
	}
	p.timers = make(map[uintptr]*cocoaTimer)
	if cocoaActive == p {
		cocoaActive = nil
	}
}

func (p *cocoaLoop) openWindow(ws *windowState, cfg *windowConfig) (platformWindow, error) {
	var parent C.CFTypeRef
	if cfg.parent != nil {
		pw, ok := cfg.parent.(RawWindowCocoa)
		if !ok {
			return nil, ErrInvalidParent
		}
		parent = C.CFTypeRef(unsafe.Pointer(pw.NSView))
	}
	title := C.CString(cfg.title)
	defer C.free(unsafe.Pointer(title))
	positioned := C.int(0)
	var x, y C.double
	if cfg.pos != nil {
		positioned = 1
		x, y = C.double(cfg.pos.X), C.double(cfg.pos.Y)
	}
	view := C.fen_macos_create_window(title, x, y,
		C.double(cfg.size.Width), C.double(cfg.size.Height), positioned, parent)
	w := &cocoaWindow{p: p, ws: ws, view: view}
	sc := w.scale()
	pxw := int(math.Round(cfg.size.Width * sc))
	pxh := int(math.Round(cfg.size.Height * sc))
	w.sf = newMemSurface(pxw, pxh)
	w.sf.flush = w.blit
	w.buf = C.malloc(C.size_t(pxw * pxh * 4))
	C.fen_macos_set_pixels(view, w.buf, C.int(pxw), C.int(pxh))
	p.views[view] = w
	p.ensureVsync(w.displayID())
	return w, nil
}

type cocoaWindow struct {
	p    *cocoaLoop
	ws   *windowState
	view C.CFTypeRef
	sf   *memSurface
	// buf is the C-owned copy of the surface drawn by the view.
	buf unsafe.Pointer
}

func (w *cocoaWindow) show() { C.fen_macos_show(w.view) }

func (w *cocoaWindow) hide() { C.fen_macos_hide(w.view) }

func (w *cocoaWindow) size() geom.Size {
	return geom.Sz(
		float64(C.fen_macos_view_width(w.view)),
		float64(C.fen_macos_view_height(w.view)),
	)
}

func (w *cocoaWindow) scale() float64 {
	return float64(C.fen_macos_backing_scale(w.view))
}

// AppKit event coordinates are already in points.
func (w *cocoaWindow) eventScale() float64 { return 1 }

func (w *cocoaWindow) setTitle(title string) {
	ctitle := C.CString(title)
	defer C.free(unsafe.Pointer(ctitle))
	C.fen_macos_set_title(w.view, ctitle)
}

func (w *cocoaWindow) setCursor(c Cursor) {
	C.fen_macos_set_cursor(w.view, C.int(c))
}

func (w *cocoaWindow) setMousePosition(pt geom.Point) {
	C.fen_macos_warp_mouse(w.view, C.double(pt.X), C.double(pt.Y))
}

// AppKit routes mouse events to the view of the initial press for the whole
// drag; there is no capture call to make.
func (w *cocoaWindow) setCapture(bool) {}

func (w *cocoaWindow) surface() Surface { return w.sf }

func (w *cocoaWindow) displayID() DisplayID {
	return DisplayID(C.fen_macos_display_id(w.view))
}

func (w *cocoaWindow) raw() RawWindow {
	return RawWindowCocoa{NSView: uintptr(unsafe.Pointer(w.view))}
}

func (w *cocoaWindow) destroy() {
	C.fen_macos_close_window(w.view)
}

func (w *cocoaWindow) blit(rects []geom.Rect) {
	sw, sh := w.sf.Size()
	if sw == 0 || sh == 0 || w.buf == nil {
		return
	}
	C.memcpy(w.buf, unsafe.Pointer(&w.sf.pixels[0]), C.size_t(sw*sh*4))
	C.fen_macos_invalidate(w.view)
}

func cocoaWindowFor(view C.CFTypeRef) *cocoaWindow {
	if cocoaActive == nil {
		return nil
	}
	return cocoaActive.views[view]
}

//export fen_onExpose
func fen_onExpose(view C.CFTypeRef, x, y, width, height C.double) {
	w := cocoaWindowFor(view)
	if w == nil {
		return
	}
	w.ws.addExposeRect(geom.Rc(float64(x), float64(y), float64(width), float64(height)))
	w.p.s.runCallback(w.ws.flushExpose)
}

//export fen_onCloseRequest
func fen_onCloseRequest(view C.CFTypeRef) {
	if w := cocoaWindowFor(view); w != nil {
		w.p.s.runCallback(w.ws.onCloseRequest)
	}
}

//export fen_onDestroy
func fen_onDestroy(view C.CFTypeRef) {
	w := cocoaWindowFor(view)
	if w == nil {
		return
	}
	delete(w.p.views, view)
	C.fen_macos_set_pixels(view, nil, 0, 0)
	if w.buf != nil {
		C.free(w.buf)
		w.buf = nil
	}
	C.fen_macos_release_view(view)
	w.ws.destroyed()
}

//export fen_onFocus
func fen_onFocus(view C.CFTypeRef, gained C.int) {
	if w := cocoaWindowFor(view); w != nil {
		w.p.s.runCallback(func() { w.ws.onFocus(gained != 0) })
	}
}

//export fen_onMouseEnter
func fen_onMouseEnter(view C.CFTypeRef) {
	if w := cocoaWindowFor(view); w != nil {
		w.p.s.runCallback(w.ws.onMouseEnter)
	}
}

//export fen_onMouseExit
func fen_onMouseExit(view C.CFTypeRef) {
	if w := cocoaWindowFor(view); w != nil {
		w.p.s.runCallback(w.ws.onMouseExit)
	}
}

//export fen_onMouseMove
func fen_onMouseMove(view C.CFTypeRef, x, y C.double) {
	if w := cocoaWindowFor(view); w != nil {
		pt := geom.Pt(float64(x), float64(y))
		w.p.s.callbackResponse(func() Response { return w.ws.onMouseMove(pt) })
	}
}

//export fen_onMouseButton
func fen_onMouseButton(view C.CFTypeRef, btn, press C.int) {
	w := cocoaWindowFor(view)
	if w == nil {
		return
	}
	var b MouseButton
	switch btn {
	case 0:
		b = MouseLeft
	case 2:
		b = MouseRight
	case 1:
		b = MouseMiddle
	case 3:
		b = MouseBack
	case 4:
		b = MouseForward
	default:
		return
	}
	if press != 0 {
		w.p.s.callbackResponse(func() Response { return w.ws.onMouseDown(b) })
	} else {
		w.p.s.callbackResponse(func() Response { return w.ws.onMouseUp(b) })
	}
}

//export fen_onScroll
func fen_onScroll(view C.CFTypeRef, dx, dy C.double) {
	if w := cocoaWindowFor(view); w != nil {
		delta := geom.Pt(float64(dx), float64(dy))
		w.p.s.callbackResponse(func() Response { return w.ws.onScroll(delta) })
	}
}
