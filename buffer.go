package profilez

import (
	"runtime"
	"sync/atomic"
)

// eventBuffer is a fixed-capacity slot array written by many goroutines.
// Slots are handed out by an atomic cursor, so each slot has exactly one
// writer per session; completed counts the slots whose writes finished.
//
//nolint:govet // Field alignment optimized for readability over memory efficiency
type eventBuffer struct {
	events    []Event
	capacity  uint32
	cursor    atomic.Uint32
	completed atomic.Uint32
	dropped   atomic.Uint64
}

// newEventBuffer allocates every slot up front.
func newEventBuffer(capacity uint32) *eventBuffer {
	return &eventBuffer{
		events:   make([]Event, capacity),
		capacity: capacity,
	}
}

// claim reserves the next free slot.
// Returns false when the buffer is full or sealed. The cursor only moves by
// CAS and never past capacity.
func (b *eventBuffer) claim() (uint32, bool) {
	for {
		cur := b.cursor.Load()
		if cur >= b.capacity {
			b.dropped.Add(1)
			return 0, false
		}
		if b.cursor.CompareAndSwap(cur, cur+1) {
			return cur, true
		}
	}
}

// publish marks one more claimed slot as fully written.
func (b *eventBuffer) publish() {
	b.completed.Add(1)
}

// seal stops further claims by moving the cursor to capacity and returns the
// number of slots claimed before the seal.
func (b *eventBuffer) seal() uint32 {
	for {
		cur := b.cursor.Load()
		if cur >= b.capacity {
			return b.capacity
		}
		if b.cursor.CompareAndSwap(cur, b.capacity) {
			return cur
		}
	}
}

// drain seals the buffer, waits until every claimed slot is published and
// returns a copy of the published events.
func (b *eventBuffer) drain() []Event {
	n := b.seal()
	for b.completed.Load() < n {
		runtime.Gosched()
	}
	out := make([]Event, n)
	copy(out, b.events[:n])
	return out
}

// reset prepares the buffer for a new session.
// Must not race with writers.
func (b *eventBuffer) reset() {
	b.completed.Store(0)
	b.dropped.Store(0)
	b.cursor.Store(0)
}

// DroppedCount returns the number of events dropped in the current session.
func (b *eventBuffer) DroppedCount() uint64 {
	return b.dropped.Load()
}
