// SPDX-License-Identifier: Unlicense OR MIT

package app

import (
	"container/heap"
	"time"
)

// timerQueue is the software timer source used by backends whose native
// event primitive has no timer support. It is confined to the loop
// goroutine; the pump calls next to size its blocking timeout and poll to
// fire whatever came due.
type timerQueue struct {
	nextID uint64
	// active maps timer id to its schedule. Cancel removes the entry and
	// leaves any heap entries for the id to be skipped on pop.
	active map[uint64]*queuedTimer
	heap   timerHeap
}

type queuedTimer struct {
	period time.Duration
	fire   func()
}

type timerEntry struct {
	due time.Time
	id  uint64
}

func newTimerQueue() *timerQueue {
	return &timerQueue{active: make(map[uint64]*queuedTimer)}
}

// schedule registers a repeating timer whose first due time is period from
// now and returns its id.
func (q *timerQueue) schedule(now time.Time, period time.Duration, fire func()) uint64 {
	q.nextID++
	id := q.nextID
	q.active[id] = &queuedTimer{period: period, fire: fire}
	heap.Push(&q.heap, timerEntry{due: now.Add(period), id: id})
	return id
}

// cancel deactivates id. Stale heap entries are left in place; pop discards
// them. Canceling an unknown or already-canceled id is a no-op.
func (q *timerQueue) cancel(id uint64) {
	delete(q.active, id)
}

// next reports the earliest pending due time, skipping entries whose timer
// has been canceled.
func (q *timerQueue) next() (time.Time, bool) {
	for len(q.heap) > 0 {
		e := q.heap[0]
		if _, ok := q.active[e.id]; !ok {
			heap.Pop(&q.heap)
			continue
		}
		return e.due, true
	}
	return time.Time{}, false
}

// poll fires every timer strictly due before now. A timer due exactly at
// now waits for the next pass. Fired timers are rescheduled before their
// callback runs, at due+period, or at now when more than a full period has
// already elapsed so that a stall yields one catch-up event and a phase
// reset rather than a burst.
func (q *timerQueue) poll(now time.Time) {
	for len(q.heap) > 0 {
		e := q.heap[0]
		t, ok := q.active[e.id]
		if !ok {
			heap.Pop(&q.heap)
			continue
		}
		if !e.due.Before(now) {
			return
		}
		heap.Pop(&q.heap)
		next := e.due.Add(t.period)
		if next.Before(now) {
			next = now
		}
		heap.Push(&q.heap, timerEntry{due: next, id: e.id})
		t.fire()
	}
}

type timerHeap []timerEntry

func (h timerHeap) Len() int            { return len(h) }
func (h timerHeap) Less(i, j int) bool  { return h[i].due.Before(h[j].due) }
func (h timerHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *timerHeap) Push(x interface{}) { *h = append(*h, x.(timerEntry)) }
func (h *timerHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}
