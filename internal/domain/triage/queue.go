package triage

import (
	"container/heap"
	"sort"
	"sync"
	"time"
)

// Queue is an admission-ordered max-priority queue keyed by severity.
// Higher severity dequeues first; among equal severities the earlier
// timestamp wins; among equal severity and timestamp the earlier insertion
// wins. The sequence counter is owned by the queue instance, never derived
// from wall-clock time, so ordering stays strict under identical
// timestamps.
//
// All methods are safe for concurrent use; each call is a single critical
// section on the queue's mutex.
type Queue struct {
	mu    sync.Mutex
	items entryHeap
	seq   uint64
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Add inserts an emergency and returns its assigned sequence number.
// Sequence numbers start at 1 and increase strictly per queue instance.
func (q *Queue) Add(severity int, enqueuedAt time.Time, payload any) uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.seq++
	heap.Push(&q.items, Emergency{
		Severity:   severity,
		EnqueuedAt: enqueuedAt,
		Sequence:   q.seq,
		Payload:    payload,
	})
	return q.seq
}

// Next removes and returns the highest-priority emergency. The second
// return value is false when the queue is empty; an empty queue is an
// ordinary result, not an error.
func (q *Queue) Next() (Emergency, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return Emergency{}, false
	}
	return heap.Pop(&q.items).(Emergency), true
}

// Peek returns the highest-priority emergency without removing it.
func (q *Queue) Peek() (Emergency, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return Emergency{}, false
	}
	return q.items[0], true
}

// All returns a snapshot of the queue contents in priority order. The
// snapshot is detached: mutating it does not affect the queue.
func (q *Queue) All() []Emergency {
	q.mu.Lock()
	snapshot := make([]Emergency, len(q.items))
	copy(snapshot, q.items)
	q.mu.Unlock()

	sort.Slice(snapshot, func(i, j int) bool {
		return higherPriority(snapshot[i], snapshot[j])
	})
	return snapshot
}

// Size returns the number of queued emergencies.
func (q *Queue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// higherPriority reports whether a dequeues before b: severity descending,
// then enqueue time ascending, then sequence ascending.
func higherPriority(a, b Emergency) bool {
	if a.Severity != b.Severity {
		return a.Severity > b.Severity
	}
	if !a.EnqueuedAt.Equal(b.EnqueuedAt) {
		return a.EnqueuedAt.Before(b.EnqueuedAt)
	}
	return a.Sequence < b.Sequence
}

// entryHeap implements heap.Interface over emergencies.
type entryHeap []Emergency

func (h entryHeap) Len() int            { return len(h) }
func (h entryHeap) Less(i, j int) bool  { return higherPriority(h[i], h[j]) }
func (h entryHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *entryHeap) Push(x any)         { *h = append(*h, x.(Emergency)) }
func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
