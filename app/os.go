// SPDX-License-Identifier: Unlicense OR MIT

package app

import (
	"time"

	"github.com/fenestra-ui/fenestra/geom"
)

// DisplayID identifies a connected display for the purpose of routing
// refresh ticks. Its value space is backend specific.
type DisplayID uint64

// platform is the per-OS backend behind an EventLoop. Implementations are
// confined to the loop goroutine except where a method documents otherwise.
type platform interface {
	name() string

	// run pumps native events until the loop state leaves stateRunning.
	run() error
	// poll dispatches pending native events and due timers without
	// blocking.
	poll() error
	// wake unblocks a blocking run from any goroutine, forcing a re-check
	// of the loop state.
	wake()

	openWindow(ws *windowState, cfg *windowConfig) (platformWindow, error)

	// startTimer arranges for fire to run on the loop goroutine every
	// period, first after one full period.
	startTimer(period time.Duration, fire func()) (platformTimer, error)

	// stopRefresh stops the per-display refresh sources and joins their
	// threads. Called before native registrations are released.
	stopRefresh()
	// release frees the backend's native registrations. The last step of
	// Close.
	release()
}

// platformWindow is the native window behind a windowState. Sizes and
// positions cross this interface in logical units; pixel translation stays
// inside the backend.
type platformWindow interface {
	show()
	hide()
	size() geom.Size
	scale() float64
	// eventScale is the divisor turning native event coordinates into
	// logical units. Backends whose native events are already logical
	// return 1.
	eventScale() float64
	setTitle(string)
	setCursor(Cursor)
	setMousePosition(geom.Point)
	setCapture(captured bool)
	// surface returns the window's pixel buffer. Its Present method does
	// the native blit.
	surface() Surface
	displayID() DisplayID
	raw() RawWindow
	// destroy begins native destruction. The backend delivers the
	// destruction notification, synchronously or later, by calling the
	// windowState's destroyed method exactly once.
	destroy()
}

type platformTimer interface {
	// cancel stops the timer. Idempotent; callable only on the loop
	// goroutine.
	cancel()
}
