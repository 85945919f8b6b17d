// SPDX-License-Identifier: Unlicense OR MIT

package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimerQueueFiresStrictlyBeforeNow(t *testing.T) {
	q := newTimerQueue()
	base := time.Unix(1000, 0)
	fired := 0
	q.schedule(base, 100*time.Millisecond, func() { fired++ })

	// Due exactly at now must wait.
	q.poll(base.Add(100 * time.Millisecond))
	assert.Equal(t, 0, fired)

	q.poll(base.Add(100*time.Millisecond + time.Nanosecond))
	assert.Equal(t, 1, fired)
}

func TestTimerQueueStallPhaseReset(t *testing.T) {
	q := newTimerQueue()
	base := time.Unix(1000, 0)
	const period = 100 * time.Millisecond
	fired := 0
	q.schedule(base, period, func() { fired++ })

	// A stall of 3.5 periods yields a single catch-up event, not a burst.
	q.poll(base.Add(350 * time.Millisecond))
	assert.Equal(t, 1, fired)

	// The next due time is anchored at the stalled poll, not at the
	// original phase.
	due, ok := q.next()
	require.True(t, ok)
	assert.Equal(t, base.Add(350*time.Millisecond), due)

	// After the reset the cadence is one event per period again.
	q.poll(base.Add(360 * time.Millisecond))
	assert.Equal(t, 2, fired)
	q.poll(base.Add(440 * time.Millisecond))
	assert.Equal(t, 2, fired)
	q.poll(base.Add(461 * time.Millisecond))
	assert.Equal(t, 3, fired)
}

func TestTimerQueueSteadyCadence(t *testing.T) {
	q := newTimerQueue()
	base := time.Unix(1000, 0)
	fired := 0
	q.schedule(base, 10*time.Millisecond, func() { fired++ })

	for i := 1; i <= 5; i++ {
		q.poll(base.Add(time.Duration(i)*10*time.Millisecond + time.Millisecond))
	}
	assert.Equal(t, 5, fired)
}

func TestTimerQueueCancelLeavesStaleEntries(t *testing.T) {
	q := newTimerQueue()
	base := time.Unix(1000, 0)
	fired := 0
	id := q.schedule(base, 10*time.Millisecond, func() { fired++ })
	q.cancel(id)
	q.cancel(id) // unknown id is a no-op

	q.poll(base.Add(time.Second))
	assert.Equal(t, 0, fired)

	_, ok := q.next()
	assert.False(t, ok)
}

func TestTimerQueueCancelDuringFire(t *testing.T) {
	q := newTimerQueue()
	base := time.Unix(1000, 0)
	var bID uint64
	aFired, bFired := 0, 0
	q.schedule(base, 10*time.Millisecond, func() {
		aFired++
		q.cancel(bID)
	})
	bID = q.schedule(base, 11*time.Millisecond, func() { bFired++ })

	// Both are due; the earlier timer cancels the later one mid-poll.
	q.poll(base.Add(20 * time.Millisecond))
	assert.Equal(t, 1, aFired)
	assert.Equal(t, 0, bFired)
}

func TestTimerQueueOrdersByDueTime(t *testing.T) {
	q := newTimerQueue()
	base := time.Unix(1000, 0)
	var order []string
	q.schedule(base, 20*time.Millisecond, func() { order = append(order, "b") })
	q.schedule(base, 10*time.Millisecond, func() { order = append(order, "a") })

	q.poll(base.Add(25 * time.Millisecond))
	assert.Equal(t, []string{"a", "b"}, order)
}

func TestTimerQueueNextSkipsCanceled(t *testing.T) {
	q := newTimerQueue()
	base := time.Unix(1000, 0)
	early := q.schedule(base, 10*time.Millisecond, func() {})
	q.schedule(base, 20*time.Millisecond, func() {})
	q.cancel(early)

	due, ok := q.next()
	require.True(t, ok)
	assert.Equal(t, base.Add(20*time.Millisecond), due)
}
