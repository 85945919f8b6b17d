// SPDX-License-Identifier: Unlicense OR MIT

package app

import (
	"bytes"
	"testing"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoopLogsLifecycle(t *testing.T) {
	var buf bytes.Buffer
	log := stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(&buf)),
		stumpy.L.WithLevel(logiface.LevelTrace),
	).Logger()

	el, err := NewEventLoop(Headless(), WithLogger(log))
	require.NoError(t, err)

	h := el.Spawn(&recordingTask{})
	h.With(func(_ Task, cx *Context) {
		_, err = OpenWindow(cx, 0)
	})
	require.NoError(t, err)
	h.Release()

	// A dispatch to the released task is dropped and traced.
	el.state.dispatchTask(h.id, 0, TimerEvent{})

	require.NoError(t, el.Close())

	out := buf.String()
	assert.Contains(t, out, `"event loop created"`)
	assert.Contains(t, out, `"backend":"headless"`)
	assert.Contains(t, out, `"task spawned"`)
	assert.Contains(t, out, `"window opened"`)
	assert.Contains(t, out, `"task released"`)
	assert.Contains(t, out, `"dispatch dropped"`)
	assert.Contains(t, out, `"closing event loop"`)
	assert.Contains(t, out, `"window destroyed"`)
}

func TestLoopNilLoggerIsSafe(t *testing.T) {
	el, err := NewEventLoop(Headless())
	require.NoError(t, err)
	openTestWindow(t, el, &recordingTask{}, 0)
	require.NoError(t, el.Close())
}
