// SPDX-License-Identifier: Unlicense OR MIT

/*
Package app provides a platform-independent event loop with windows,
repeating timers and per-display refresh notifications, backed by Win32,
Cocoa or Xlib depending on the target, with an in-process headless backend
as the fallback.

# Event loop

An EventLoop owns every resource created through it and must be used from
a single goroutine, conventionally the main goroutine. Run blocks and
dispatches until Exit is called from a handler; Poll dispatches whatever is
pending and returns. Tasks are registered with Spawn and receive events
through their Event method:

	el, err := app.NewEventLoop()
	if err != nil {
		// ...
	}
	h := el.Spawn(task)
	h.With(func(_ app.Task, cx *app.Context) {
		w, _ := app.OpenWindow(cx, 0, app.Title("Hi"))
		w.Show()
	})
	err = el.Run()

Resource constructors take a Context, which is only available while the
owning task is borrowed via With or during event dispatch. Events carry the
Key given at resource creation so one task can tell its windows and timers
apart.

# Main thread

Cocoa requires the event loop on the thread that loaded the main bundle.
Call NewEventLoop and its Run or Poll from the main goroutine; the darwin
backend locks it to the OS thread.

# Coordinates

Positions and sizes are logical units. Every backend reports the window
scale factor, and Present expects bitmaps at physical pixel size. Expose
rectangles and mouse positions arrive already translated to logical units.
*/
package app
