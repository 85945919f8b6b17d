// SPDX-License-Identifier: Unlicense OR MIT

package app

// Task is an application-supplied event handler. One Task typically owns
// several windows and timers, distinguishing them by the Key each was
// created with.
//
// A Task's Event method always runs on the loop's dispatch goroutine under
// an exclusive borrow: no other With, TryWith or dispatch can observe the
// Task while Event runs.
type Task interface {
	Event(cx *Context, key Key, event Event) Response
}

type taskID uint64

// taskSlot is the registry's strong reference to a task. The borrowed flag
// implements the exclusive-borrow discipline shared by With, TryWith and
// resource dispatch.
type taskSlot struct {
	task     Task
	borrowed bool
}

// Context is the capability bundle handed to a Task for the duration of a
// single dispatch or With call. It pairs the owning event loop with the task
// being dispatched to; windows and timers created through it are routed back
// to that task.
//
// A Context is only valid during the call that provided it and must not be
// retained.
type Context struct {
	eventLoop *EventLoop
	taskID    taskID
}

// EventLoop returns the loop this context dispatches on.
func (cx *Context) EventLoop() *EventLoop {
	return cx.eventLoop
}

// TaskHandle owns a spawned Task. It holds the sole strong reference;
// windows and timers only hold the task's registry key and deliver nothing
// once Release has run.
type TaskHandle struct {
	loop *EventLoop
	id   taskID
}

// Spawn registers task with the loop and returns the owning handle. On a
// closed loop nothing is registered; the returned handle is inert and
// TryWith on it reports ErrTaskDestroyed.
func (el *EventLoop) Spawn(task Task) *TaskHandle {
	s := el.state
	id := s.nextTask
	s.nextTask++
	if s.closed {
		return &TaskHandle{loop: el, id: id}
	}
	s.tasks[id] = &taskSlot{task: task}
	s.log.Debug().
		Str("component", "task").
		Int64("task", int64(id)).
		Log("task spawned")
	return &TaskHandle{loop: el, id: id}
}

// With runs f with an exclusive view of the task and a fresh Context.
// Calling With while the task is already borrowed, or after Release, is a
// programming error and panics.
func (h *TaskHandle) With(f func(task Task, cx *Context)) {
	if err := h.TryWith(f); err != nil {
		panic(err)
	}
}

// TryWith is With with the conflict reported as an error instead of a
// panic: ErrBorrowConflict when the task is already borrowed,
// ErrTaskDestroyed after Release.
func (h *TaskHandle) TryWith(f func(task Task, cx *Context)) error {
	s := h.loop.state
	slot, ok := s.tasks[h.id]
	if !ok {
		return ErrTaskDestroyed
	}
	if slot.borrowed {
		return ErrBorrowConflict
	}
	slot.borrowed = true
	defer func() { slot.borrowed = false }()
	f(slot.task, &Context{eventLoop: h.loop, taskID: h.id})
	return nil
}

// Release drops the strong reference to the task. It is idempotent.
// Resources created under the task stay alive; deliveries to the released
// task become silent no-ops.
func (h *TaskHandle) Release() {
	s := h.loop.state
	if _, ok := s.tasks[h.id]; !ok {
		return
	}
	delete(s.tasks, h.id)
	s.log.Debug().
		Str("component", "task").
		Int64("task", int64(h.id)).
		Log("task released")
}

// dispatchTask resolves id and invokes the task's handler under the
// exclusive borrow. When the task is gone or already borrowed the event is
// dropped for this occurrence and ok is false; resources treat that as
// expected mid-teardown behavior, not an error.
func (s *loopState) dispatchTask(id taskID, key Key, ev Event) (resp Response, ok bool) {
	slot, present := s.tasks[id]
	if !present || slot.borrowed {
		s.log.Trace().
			Str("component", "task").
			Int64("task", int64(id)).
			Bool("borrowed", present).
			Log("dispatch dropped")
		return Ignore, false
	}
	slot.borrowed = true
	defer func() { slot.borrowed = false }()
	cx := &Context{eventLoop: s.owner, taskID: id}
	return slot.task.Event(cx, key, ev), true
}
