// SPDX-License-Identifier: Unlicense OR MIT

package app

import (
	"math"
	"sync"
	"time"

	"github.com/fenestra-ui/fenestra/geom"
)

// headlessLoop is the synthetic backend: an in-process queue standing in
// for the native event stream, the software timer queue, and optional
// ticker-driven refresh sources. It backs the Headless option and is the
// fallback when no native backend compiles.
type headlessLoop struct {
	s *loopState

	mu    sync.Mutex
	queue []func()

	wakeCh chan struct{}

	timers  *timerQueue
	tickers []*frameTicker

	// displayScale is the backing scale reported by windows opened on the
	// synthetic display.
	displayScale float64

	nextWin  uint64
	released bool
}

func newHeadlessLoop(s *loopState) *headlessLoop {
	return &headlessLoop{
		s:            s,
		wakeCh:       make(chan struct{}, 1),
		timers:       newTimerQueue(),
		displayScale: 1,
	}
}

func (h *headlessLoop) name() string { return "headless" }

// post queues f for the loop goroutine. Safe from any goroutine.
func (h *headlessLoop) post(f func()) {
	h.mu.Lock()
	h.queue = append(h.queue, f)
	h.mu.Unlock()
	h.wake()
}

func (h *headlessLoop) wake() {
	select {
	case h.wakeCh <- struct{}{}:
	default:
	}
}

func (h *headlessLoop) take() []func() {
	h.mu.Lock()
	fs := h.queue
	h.queue = nil
	h.mu.Unlock()
	return fs
}

// pump dispatches queued occurrences, fires due timers, then drains
// anything the timers queued. Batches queued after an exit request stay
// queued.
func (h *headlessLoop) pump() {
	h.drainQueue()
	if h.s.runState != stateRunning {
		return
	}
	h.s.runCallback(func() { h.timers.poll(h.s.now()) })
	h.drainQueue()
}

func (h *headlessLoop) drainQueue() {
	for h.s.runState == stateRunning {
		fs := h.take()
		if len(fs) == 0 {
			return
		}
		for _, f := range fs {
			h.s.runCallback(f)
		}
	}
}

func (h *headlessLoop) run() error {
	for {
		h.pump()
		if h.s.runState != stateRunning {
			return nil
		}
		var (
			tm     *time.Timer
			timerC <-chan time.Time
		)
		if due, ok := h.timers.next(); ok {
			d := due.Sub(h.s.now())
			if d < 0 {
				d = 0
			}
			tm = time.NewTimer(d)
			timerC = tm.C
		}
		select {
		case <-h.wakeCh:
		case <-timerC:
		}
		if tm != nil {
			tm.Stop()
		}
	}
}

func (h *headlessLoop) poll() error {
	h.pump()
	return nil
}

func (h *headlessLoop) startTimer(period time.Duration, fire func()) (platformTimer, error) {
	id := h.timers.schedule(h.s.now(), period, fire)
	return headlessTimer{h: h, id: id}, nil
}

type headlessTimer struct {
	h  *headlessLoop
	id uint64
}

func (t headlessTimer) cancel() {
	t.h.timers.cancel(t.id)
}

// startRefresh attaches a ticker-driven refresh source for the given
// synthetic display.
func (h *headlessLoop) startRefresh(d DisplayID, interval time.Duration) {
	t := newFrameTicker(d, interval)
	h.tickers = append(h.tickers, t)
	t.start(h.post, h.s.handleRefresh)
}

func (h *headlessLoop) stopRefresh() {
	for _, t := range h.tickers {
		t.join()
	}
	h.tickers = nil
}

func (h *headlessLoop) release() {
	h.released = true
}

func (h *headlessLoop) openWindow(ws *windowState, cfg *windowConfig) (platformWindow, error) {
	if cfg.parent != nil {
		if _, ok := cfg.parent.(RawWindowHeadless); !ok {
			return nil, ErrInvalidParent
		}
	}
	h.nextWin++
	w := &headlessWindow{
		h:     h,
		ws:    ws,
		id:    h.nextWin,
		title: cfg.title,
		sz:    cfg.size,
		sc:    h.displayScale,
	}
	if cfg.pos != nil {
		w.pos = *cfg.pos
	}
	w.sf = newMemSurface(
		int(math.Round(cfg.size.Width*w.sc)),
		int(math.Round(cfg.size.Height*w.sc)),
	)
	return w, nil
}

type headlessWindow struct {
	h  *headlessLoop
	ws *windowState
	id uint64

	title    string
	pos      geom.Point
	sz       geom.Size
	sc       float64
	sf       *memSurface
	visible  bool
	captured bool
	cursor   Cursor
	mousePos geom.Point
	display  DisplayID
}

func (w *headlessWindow) show() { w.visible = true }

func (w *headlessWindow) hide() { w.visible = false }

func (w *headlessWindow) size() geom.Size { return w.sz }

func (w *headlessWindow) scale() float64 { return w.sc }

func (w *headlessWindow) eventScale() float64 { return w.sc }

func (w *headlessWindow) setTitle(title string) { w.title = title }

func (w *headlessWindow) setCursor(c Cursor) { w.cursor = c }

func (w *headlessWindow) setMousePosition(p geom.Point) { w.mousePos = p }

func (w *headlessWindow) setCapture(captured bool) { w.captured = captured }

func (w *headlessWindow) surface() Surface { return w.sf }

func (w *headlessWindow) displayID() DisplayID { return w.display }

func (w *headlessWindow) raw() RawWindow { return RawWindowHeadless{ID: w.id} }

func (w *headlessWindow) destroy() {
	w.ws.destroyed()
}
