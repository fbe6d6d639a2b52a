package task

import (
	"container/heap"
	"sync"
	"time"
)

// timerEntry is one scheduled callback in a task's private timer heap,
// keyed by deadline with insertion order as the tiebreaker.
type timerEntry struct {
	id         int
	deadline   time.Time
	callback   func()
	isInterval bool
	period     time.Duration
	seq        int64
	cancelled  bool
}

// timerHeap implements container/heap.Interface ordered by (deadline,
// seq), the same two-key tiebreak idiom Go's own time.Timer/runtime
// timer heap uses internally.
type timerHeap []*timerEntry

func (h timerHeap) Len() int { return len(h) }
func (h timerHeap) Less(i, j int) bool {
	if h[i].deadline.Equal(h[j].deadline) {
		return h[i].seq < h[j].seq
	}
	return h[i].deadline.Before(h[j].deadline)
}
func (h timerHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *timerHeap) Push(x any) { *h = append(*h, x.(*timerEntry)) }

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// TimerSet is a task's private timer priority-queue. SetTimer inserts;
// CancelTimer marks an id cancelled rather than eagerly removing it, and
// the cancelled entry is skipped when popped. The mutex makes insertion
// and cancellation safe against the owning task's drain loop even when a
// cancel arrives from a promise callback running on another goroutine.
type TimerSet struct {
	mu      sync.Mutex
	h       timerHeap
	byID    map[int]*timerEntry
	nextID  int
	nextSeq int64
}

func NewTimerSet() *TimerSet {
	return &TimerSet{byID: map[int]*timerEntry{}}
}

// SetTimer inserts a new timer and returns its id.
func (ts *TimerSet) SetTimer(deadline time.Time, callback func(), isInterval bool, period time.Duration) int {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.nextID++
	id := ts.nextID
	ts.nextSeq++
	entry := &timerEntry{
		id:         id,
		deadline:   deadline,
		callback:   callback,
		isInterval: isInterval,
		period:     period,
		seq:        ts.nextSeq,
	}
	heap.Push(&ts.h, entry)
	ts.byID[id] = entry
	return id
}

// CancelTimer marks id's entry cancelled; it is not removed from the
// heap until it would otherwise be popped.
func (ts *TimerSet) CancelTimer(id int) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if e, ok := ts.byID[id]; ok {
		e.cancelled = true
	}
}

// Empty reports whether the heap is empty or contains only cancelled
// timers, the condition for a task to leave waiting-for-timers and
// enter completed.
func (ts *TimerSet) Empty() bool {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	for _, e := range ts.h {
		if !e.cancelled {
			return false
		}
	}
	return true
}

// PopReady pops and returns the earliest non-cancelled timer whose
// deadline is <= now, discarding cancelled entries as it goes. It
// returns nil, false if nothing is ready yet.
func (ts *TimerSet) PopReady(now time.Time) (*timerEntry, bool) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	for ts.h.Len() > 0 {
		next := ts.h[0]
		if next.cancelled {
			heap.Pop(&ts.h)
			delete(ts.byID, next.id)
			continue
		}
		if next.deadline.After(now) {
			return nil, false
		}
		heap.Pop(&ts.h)
		delete(ts.byID, next.id)
		return next, true
	}
	return nil, false
}

// NextDeadline reports the earliest non-cancelled deadline still
// pending, if any, so the worker loop knows how long it may safely
// block before checking this task's timers again. A plain heap peek
// isn't enough here: h[0] is only the minimum of the *whole* heap, and
// the true minimum may be hidden behind a cancelled entry sitting at the
// front, so this scans every entry rather than just peeking.
func (ts *TimerSet) NextDeadline() (time.Time, bool) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	found := false
	var min time.Time
	for _, e := range ts.h {
		if e.cancelled {
			continue
		}
		if !found || e.deadline.Before(min) {
			min = e.deadline
			found = true
		}
	}
	return min, found
}

// Reinsert re-queues an interval timer's next occurrence after its
// callback has run, keeping the original id.
func (ts *TimerSet) Reinsert(e *timerEntry) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	e.deadline = e.deadline.Add(e.period)
	ts.nextSeq++
	e.seq = ts.nextSeq
	e.cancelled = false
	heap.Push(&ts.h, e)
	ts.byID[e.id] = e
}
