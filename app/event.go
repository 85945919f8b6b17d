// SPDX-License-Identifier: Unlicense OR MIT

package app

import "github.com/fenestra-ui/fenestra/geom"

// Key is an application-chosen tag that distinguishes which resource
// produced an event when several windows or timers share one Task.
type Key int

// Response reports whether a task consumed an event. Capture suppresses the
// platform's default handling for the occurrence; Ignore lets it proceed.
type Response uint8

const (
	Ignore Response = iota
	Capture
)

func (r Response) String() string {
	if r == Capture {
		return "Capture"
	}
	return "Ignore"
}

// Event is the interface implemented by all normalized events delivered to
// a Task. Positions and sizes are in logical units.
type Event interface {
	ImplementsEvent()
}

// ExposeEvent reports a batch of damaged window regions. It is delivered
// exactly once per native damage batch; Rects lists every rectangle in the
// batch.
type ExposeEvent struct {
	Rects []geom.Rect
}

// FrameEvent is delivered once per display refresh interval to every window
// resident on the refreshing display. Ticks are coalesced: a task never has
// more than one undelivered FrameEvent per window.
type FrameEvent struct{}

// CloseEvent reports a native close request, such as the user clicking the
// window's close button. The window is not destroyed; the task decides
// whether to call Window.Close.
type CloseEvent struct{}

// GainFocusEvent and LoseFocusEvent report keyboard focus changes.
type GainFocusEvent struct{}
type LoseFocusEvent struct{}

// MouseEnterEvent and MouseExitEvent report the pointer crossing the
// window boundary.
type MouseEnterEvent struct{}
type MouseExitEvent struct{}

// MouseMoveEvent reports the pointer position in window-local logical units.
type MouseMoveEvent struct {
	Position geom.Point
}

// MouseDownEvent and MouseUpEvent report button transitions.
type MouseDownEvent struct {
	Button MouseButton
}
type MouseUpEvent struct {
	Button MouseButton
}

// ScrollEvent reports a scroll wheel delta in lines.
type ScrollEvent struct {
	Delta geom.Point
}

// TimerEvent is delivered when a timer created with Repeat fires.
type TimerEvent struct{}

func (ExposeEvent) ImplementsEvent()     {}
func (FrameEvent) ImplementsEvent()      {}
func (CloseEvent) ImplementsEvent()      {}
func (GainFocusEvent) ImplementsEvent()  {}
func (LoseFocusEvent) ImplementsEvent()  {}
func (MouseEnterEvent) ImplementsEvent() {}
func (MouseExitEvent) ImplementsEvent()  {}
func (MouseMoveEvent) ImplementsEvent()  {}
func (MouseDownEvent) ImplementsEvent()  {}
func (MouseUpEvent) ImplementsEvent()    {}
func (ScrollEvent) ImplementsEvent()     {}
func (TimerEvent) ImplementsEvent()      {}

// MouseButton identifies which pointer button changed.
type MouseButton uint8

const (
	MouseLeft MouseButton = iota
	MouseMiddle
	MouseRight
	MouseBack
	MouseForward
)

func (b MouseButton) String() string {
	switch b {
	case MouseLeft:
		return "Left"
	case MouseMiddle:
		return "Middle"
	case MouseRight:
		return "Right"
	case MouseBack:
		return "Back"
	case MouseForward:
		return "Forward"
	default:
		return "Unknown"
	}
}

// Cursor is the closed set of pointer shapes a window can display.
// CursorNone hides the pointer while it is over the window.
type Cursor uint8

const (
	CursorArrow Cursor = iota
	CursorCrosshair
	CursorHand
	CursorIBeam
	CursorNo
	CursorSizeNS
	CursorSizeWE
	CursorSizeNESW
	CursorSizeNWSE
	CursorWait
	CursorNone
)

// Bitmap is a caller-owned pixel buffer in 32-bit 0xAARRGGBB format, laid
// out row-major with no padding. Dimensions are in physical pixels.
type Bitmap struct {
	data   []uint32
	width  int
	height int
}

// NewBitmap wraps data as a width by height bitmap. It panics if the
// dimensions do not match the buffer length.
func NewBitmap(data []uint32, width, height int) Bitmap {
	if width < 0 || height < 0 || width*height != len(data) {
		panic("app: invalid bitmap dimensions")
	}
	return Bitmap{data: data, width: width, height: height}
}

func (b Bitmap) Data() []uint32 { return b.data }
func (b Bitmap) Width() int     { return b.width }
func (b Bitmap) Height() int    { return b.height }
