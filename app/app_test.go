// SPDX-License-Identifier: Unlicense OR MIT

package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type taskEvent struct {
	key Key
	ev  Event
}

// recordingTask captures everything dispatched to it and optionally
// delegates to a handler for the response.
type recordingTask struct {
	events  []taskEvent
	handler func(cx *Context, key Key, ev Event) Response
}

func (t *recordingTask) Event(cx *Context, key Key, ev Event) Response {
	t.events = append(t.events, taskEvent{key: key, ev: ev})
	if t.handler != nil {
		return t.handler(cx, key, ev)
	}
	return Ignore
}

type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Unix(1000, 0)}
}

func (c *fakeClock) now() time.Time {
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func newTestLoop(t *testing.T, opts ...EventLoopOption) (*EventLoop, *headlessLoop) {
	t.Helper()
	el, err := NewEventLoop(append([]EventLoopOption{Headless()}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { el.Close() })
	return el, el.state.platform.(*headlessLoop)
}

// openTestWindow spawns a task and opens a window for it in one step.
func openTestWindow(t *testing.T, el *EventLoop, task Task, key Key, opts ...WindowOption) *Window {
	t.Helper()
	h := el.Spawn(task)
	var (
		win *Window
		err error
	)
	h.With(func(_ Task, cx *Context) {
		win, err = OpenWindow(cx, key, opts...)
	})
	require.NoError(t, err)
	return win
}
