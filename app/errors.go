// SPDX-License-Identifier: Unlicense OR MIT

package app

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyRunning is reported by Run and Poll when the event loop is
	// already being driven, including from inside an event handler.
	ErrAlreadyRunning = errors.New("event loop already running")

	// ErrInsideEventHandler is reported by teardown operations that cannot
	// run while the loop is dispatching, such as EventLoop.Close.
	ErrInsideEventHandler = errors.New("operation called inside an event handler")

	// ErrBorrowConflict is reported by TaskHandle.TryWith when the task is
	// already exclusively borrowed by an enclosing dispatch or With call.
	ErrBorrowConflict = errors.New("task already borrowed")

	// ErrTaskDestroyed is reported when a TaskHandle is used after Release.
	ErrTaskDestroyed = errors.New("task destroyed")

	// ErrWindowClosed is reported by operations on a window whose native
	// state has been torn down.
	ErrWindowClosed = errors.New("window closed")

	// ErrLoopClosed is reported when resources are created on a closed loop.
	ErrLoopClosed = errors.New("event loop closed")

	// ErrInvalidParent is reported by OpenWindow when the RawParent option
	// carries a handle from a different platform.
	ErrInvalidParent = errors.New("invalid parent window handle")
)

// OSError wraps a native platform failure with the operation that caused it
// and, where the platform reports one, the native error code.
type OSError struct {
	Op   string
	Code int64
	Err  error
}

func (e *OSError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Code != 0:
		return fmt.Sprintf("%s: native error %d", e.Op, e.Code)
	default:
		return e.Op
	}
}

func (e *OSError) Unwrap() error {
	return e.Err
}

func osErr(op string, err error) error {
	return &OSError{Op: op, Err: err}
}
