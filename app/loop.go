// SPDX-License-Identifier: Unlicense OR MIT

package app

import (
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"github.com/joeycumines/logiface"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Mode selects how an EventLoop relates to the process-wide native event
// machinery.
type Mode uint8

const (
	// ModeOwner initializes the native application state. The common case
	// for a standalone program.
	ModeOwner Mode = iota
	// ModeGuest embeds into a host application that already owns the native
	// machinery, for example when driving a plugin view inside an editor.
	ModeGuest
)

type runState uint8

const (
	stateStopped runState = iota
	stateRunning
	stateExiting
)

// EventLoop drives dispatch for every window and timer created on it. It is
// confined to the goroutine that created it; none of its methods are safe
// for concurrent use.
type EventLoop struct {
	state *loopState
}

// loopState is the shared core behind EventLoop, reachable from window and
// timer bookkeeping without import cycles between resources.
type loopState struct {
	owner *EventLoop
	log   *logiface.Logger[logiface.Event]
	mode  Mode
	now   func() time.Time

	platform platform

	runState runState
	panicked any
	hasPanic bool

	nextTask taskID
	tasks    map[taskID]*taskSlot

	nextWindow windowID
	windows    map[windowID]*windowState

	timers map[*timerState]struct{}

	closed bool
}

type loopConfig struct {
	mode     Mode
	log      *logiface.Logger[logiface.Event]
	headless bool
	now      func() time.Time
}

// EventLoopOption configures NewEventLoop.
type EventLoopOption func(*loopConfig)

// WithMode selects owner or guest mode. The default is ModeOwner.
func WithMode(m Mode) EventLoopOption {
	return func(cfg *loopConfig) { cfg.mode = m }
}

// WithLogger attaches a structured logger to the loop. A nil logger
// disables logging; that is also the default.
func WithLogger(log *logiface.Logger[logiface.Event]) EventLoopOption {
	return func(cfg *loopConfig) { cfg.log = log }
}

// Headless forces the synthetic in-process backend regardless of platform,
// for tests and tooling that run without a display.
func Headless() EventLoopOption {
	return func(cfg *loopConfig) { cfg.headless = true }
}

// withClock substitutes the time source. Tests only.
func withClock(now func() time.Time) EventLoopOption {
	return func(cfg *loopConfig) { cfg.now = now }
}

// platformFactory builds the native backend for this GOOS. It is set by an
// init function in the applicable os_*.go file and left nil where no native
// backend compiles, in which case the headless backend is used.
var platformFactory func(s *loopState, cfg *loopConfig) (platform, error)

// NewEventLoop creates an event loop on the calling goroutine. On platforms
// that restrict UI to the main thread the caller is responsible for being
// on it, typically by calling NewEventLoop from main.
func NewEventLoop(opts ...EventLoopOption) (*EventLoop, error) {
	cfg := loopConfig{mode: ModeOwner, now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}
	el := &EventLoop{}
	s := &loopState{
		owner:   el,
		log:     cfg.log,
		mode:    cfg.mode,
		now:     cfg.now,
		tasks:   make(map[taskID]*taskSlot),
		windows: make(map[windowID]*windowState),
		timers:  make(map[*timerState]struct{}),
	}
	el.state = s
	var (
		p   platform
		err error
	)
	if cfg.headless || platformFactory == nil {
		p = newHeadlessLoop(s)
	} else {
		p, err = platformFactory(s, &cfg)
		if err != nil {
			return nil, fmt.Errorf("app: creating event loop: %w", err)
		}
	}
	s.platform = p
	s.log.Debug().
		Str("component", "loop").
		Str("backend", p.name()).
		Log("event loop created")
	return el, nil
}

// Run blocks dispatching events until Exit is called from inside a handler.
// It returns ErrAlreadyRunning when the loop is already running and
// ErrLoopClosed after Close. A panic that escaped a handler during the run
// resumes unwinding out of Run.
func (el *EventLoop) Run() error {
	s := el.state
	if s.closed {
		return ErrLoopClosed
	}
	if s.runState != stateStopped {
		return ErrAlreadyRunning
	}
	s.runState = stateRunning
	// The guard is released on every exit path, a panic escaping the
	// backend pump included.
	defer func() { s.runState = stateStopped }()
	s.log.Debug().Str("component", "loop").Log("run started")
	err := s.platform.run()
	s.log.Debug().Str("component", "loop").Err(err).Log("run finished")
	if p, ok := s.takePanic(); ok {
		panic(p)
	}
	return err
}

// Poll dispatches everything currently pending and returns without
// blocking. Like Run it re-raises a panic captured from a handler.
func (el *EventLoop) Poll() error {
	s := el.state
	if s.closed {
		return ErrLoopClosed
	}
	if s.runState != stateStopped {
		return ErrAlreadyRunning
	}
	s.runState = stateRunning
	defer func() { s.runState = stateStopped }()
	err := s.platform.poll()
	if p, ok := s.takePanic(); ok {
		panic(p)
	}
	return err
}

// Exit asks a blocking Run to return once control comes back to the pump.
// Handlers already queued for the current pass may still run. Calling Exit
// while the loop is not running does nothing.
func (el *EventLoop) Exit() {
	el.state.exit()
}

// Close tears the loop down: refresh sources are stopped and joined, timers
// canceled, windows destroyed and the native registrations released, in
// that order. Close is idempotent and returns ErrInsideEventHandler when
// called while the loop is running.
func (el *EventLoop) Close() error {
	s := el.state
	if s.runState != stateStopped {
		return ErrInsideEventHandler
	}
	if s.closed {
		return nil
	}
	s.closed = true
	s.log.Debug().
		Str("component", "loop").
		Int("windows", len(s.windows)).
		Int("timers", len(s.timers)).
		Log("closing event loop")
	s.platform.stopRefresh()
	for ts := range s.timers {
		ts.cancel()
	}
	ids := maps.Keys(s.windows)
	slices.Sort(ids)
	for _, id := range ids {
		if ws, ok := s.windows[id]; ok {
			ws.close()
		}
	}
	s.tasks = make(map[taskID]*taskSlot)
	s.platform.release()
	return nil
}

func (s *loopState) exit() {
	if s.runState != stateRunning {
		return
	}
	s.runState = stateExiting
	s.platform.wake()
}

// capturePanic implements the panic cell. The first panic raised by a
// handler while the loop is running is stored and the loop told to exit;
// Run or Poll re-raises it. A panic surfacing with no run in progress, for
// example from a destructor during Close, has nowhere to unwind to and
// aborts the process.
func (s *loopState) capturePanic(p any) {
	if s.runState == stateStopped {
		abortNoUnwind(p)
		return
	}
	if !s.hasPanic {
		s.hasPanic = true
		s.panicked = p
	}
	if s.runState == stateRunning {
		s.exit()
	}
}

func (s *loopState) takePanic() (any, bool) {
	if !s.hasPanic {
		return nil, false
	}
	p := s.panicked
	s.hasPanic = false
	s.panicked = nil
	return p, true
}

// abortNoUnwind is a variable so tests can observe the abort path without
// killing the test process.
var abortNoUnwind = func(p any) {
	fmt.Fprintf(os.Stderr, "app: panic outside Run: %v\n%s", p, debug.Stack())
	os.Exit(2)
}

// runCallback is the boundary between native callbacks and application
// handlers. It routes a panic into the panic cell instead of letting it
// unwind through foreign frames.
func (s *loopState) runCallback(f func()) {
	defer func() {
		if p := recover(); p != nil {
			s.capturePanic(p)
		}
	}()
	f()
}

// callbackResponse is runCallback for native callbacks that must produce a
// Response. A panicking handler yields Ignore.
func (s *loopState) callbackResponse(f func() Response) (resp Response) {
	defer func() {
		if p := recover(); p != nil {
			s.capturePanic(p)
			resp = Ignore
		}
	}()
	return f()
}

// handleRefresh delivers one coalesced refresh tick to every window on
// display d. The id set is snapshotted up front; windows closed by an
// earlier handler in the same sweep are skipped.
func (s *loopState) handleRefresh(d DisplayID) {
	ids := maps.Keys(s.windows)
	slices.Sort(ids)
	for _, id := range ids {
		ws, ok := s.windows[id]
		if !ok {
			continue
		}
		if ws.pw.displayID() != d {
			continue
		}
		ws.dispatch(FrameEvent{})
	}
}
