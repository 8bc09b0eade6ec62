package triage

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ts(unix int64) time.Time {
	return time.Unix(unix, 0).UTC()
}

func TestQueueOrdering(t *testing.T) {
	q := NewQueue()
	q.Add(5, ts(100), "late-moderate")
	q.Add(8, ts(50), "critical")
	q.Add(5, ts(90), "early-moderate")

	first, ok := q.Next()
	require.True(t, ok)
	assert.Equal(t, 8, first.Severity)

	// Between the two severity-5 entries the earlier timestamp wins,
	// regardless of insertion order.
	second, ok := q.Next()
	require.True(t, ok)
	assert.Equal(t, "early-moderate", second.Payload)

	third, ok := q.Next()
	require.True(t, ok)
	assert.Equal(t, "late-moderate", third.Payload)

	_, ok = q.Next()
	assert.False(t, ok)
}

func TestQueueSequenceBreaksTimestampTies(t *testing.T) {
	q := NewQueue()
	at := ts(500)
	first := q.Add(7, at, "a")
	second := q.Add(7, at, "b")
	require.Equal(t, uint64(1), first)
	require.Equal(t, uint64(2), second)

	e, ok := q.Next()
	require.True(t, ok)
	assert.Equal(t, "a", e.Payload)

	e, ok = q.Next()
	require.True(t, ok)
	assert.Equal(t, "b", e.Payload)
}

func TestQueueEmpty(t *testing.T) {
	q := NewQueue()

	_, ok := q.Next()
	assert.False(t, ok)
	_, ok = q.Peek()
	assert.False(t, ok)
	assert.Equal(t, 0, q.Size())
	assert.Empty(t, q.All())
}

func TestQueuePeekDoesNotRemove(t *testing.T) {
	q := NewQueue()
	q.Add(3, ts(10), nil)
	q.Add(9, ts(20), nil)

	peeked, ok := q.Peek()
	require.True(t, ok)
	assert.Equal(t, 9, peeked.Severity)
	assert.Equal(t, 2, q.Size())

	next, ok := q.Next()
	require.True(t, ok)
	assert.Equal(t, peeked.Sequence, next.Sequence)
}

func TestQueueAllIsOrderedSnapshot(t *testing.T) {
	q := NewQueue()
	q.Add(2, ts(30), nil)
	q.Add(10, ts(10), nil)
	q.Add(6, ts(20), nil)
	q.Add(6, ts(5), nil)

	all := q.All()
	require.Len(t, all, 4)
	assert.Equal(t, []int{10, 6, 6, 2}, severities(all))
	assert.True(t, all[1].EnqueuedAt.Before(all[2].EnqueuedAt))

	// Snapshot is detached from the queue.
	all[0].Severity = 1
	assert.Equal(t, 4, q.Size())
	top, _ := q.Peek()
	assert.Equal(t, 10, top.Severity)
}

func TestQueueConcurrentAdds(t *testing.T) {
	q := NewQueue()
	const workers = 16
	const perWorker = 250

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				q.Add(1+i%10, time.Now(), nil)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, workers*perWorker, q.Size())

	// Sequence numbers must be unique and cover 1..N with no gaps.
	seen := make(map[uint64]bool, workers*perWorker)
	last := MaxSeverity
	for {
		e, ok := q.Next()
		if !ok {
			break
		}
		assert.False(t, seen[e.Sequence], "duplicate sequence %d", e.Sequence)
		seen[e.Sequence] = true
		assert.LessOrEqual(t, e.Severity, last, "severity order violated")
		last = e.Severity
	}
	assert.Len(t, seen, workers*perWorker)
	for i := uint64(1); i <= workers*perWorker; i++ {
		if !seen[i] {
			t.Fatalf("sequence %d was skipped", i)
		}
	}
}

func severities(entries []Emergency) []int {
	out := make([]int, len(entries))
	for i, e := range entries {
		out[i] = e.Severity
	}
	return out
}
