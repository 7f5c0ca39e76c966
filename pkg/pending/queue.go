// Package pending implements the coalescing pending-work queue that sits
// between a root's platform watcher and its crawl/notify io thread. Paths
// observed as changed are coalesced by ancestor/descendant relationship so
// that a recursive invalidation of a subtree never leaves redundant,
// already-covered entries behind.
package pending

import (
	"sync"
	"time"

	"github.com/watchgraph/watchgraphd/pkg/intern"
)

// Flags annotate why a path was enqueued and how the io thread should treat
// it when it dequeues the item.
type Flags uint8

const (
	// Recursive indicates the path is a directory whose entire subtree must
	// be re-read, not just the named entry.
	Recursive Flags = 1 << iota
	// ViaNotify indicates the item originated from a kernel notification
	// rather than from an explicit or periodic crawl.
	ViaNotify
	// CrawlOnly indicates descendants must be stat'd even if the platform
	// watcher is otherwise expected to deliver per-file events for them.
	CrawlOnly
)

// Item is a single unit of pending work: a path observed to have changed,
// the reason flags describing how it was discovered, and when it was
// enqueued.
type Item struct {
	Path       intern.String
	Flags      Flags
	EnqueuedAt time.Time
}

// Queue is a coalescing FIFO of pending work items protected by a mutex and
// condition variable, matching the synchronization style of the teacher's
// tracking primitives: callers block on a condition variable rather than
// polling, and a dedicated "ping" path lets the io thread be woken without
// enqueuing any actual work (used for shutdown and for symlink-target
// reprocessing).
type Queue struct {
	separator byte

	mu     sync.Mutex
	cond   *sync.Cond
	items  []Item
	pinged bool
	closed bool
}

// New creates an empty queue. separator is the path separator byte used to
// test ancestor/descendant relationships between queued paths (typically
// '/' after normalization).
func New(separator byte) *Queue {
	q := &Queue{separator: separator}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Add enqueues path with the given flags, applying the coalescing rules: if
// an ancestor of path is already queued with Recursive set, the new item is
// redundant and is dropped; if path is itself Recursive and an ancestor of
// one or more already-queued items, those descendants are superseded and
// removed. This bounds the queue to the number of distinct,
// non-overlapping subtrees pending at any time.
func (q *Queue) Add(path intern.String, flags Flags, now time.Time) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	for _, existing := range q.items {
		if existing.Flags&Recursive != 0 && isAncestor(existing.Path, path, q.separator) {
			return
		}
	}

	if flags&Recursive != 0 {
		kept := q.items[:0]
		for _, existing := range q.items {
			if isAncestor(path, existing.Path, q.separator) {
				continue
			}
			kept = append(kept, existing)
		}
		q.items = kept
	}

	q.items = append(q.items, Item{Path: path, Flags: flags, EnqueuedAt: now})
	q.cond.Signal()
}

// LockAndWait blocks until an item is present, the queue is pinged, or
// timeout elapses, whichever comes first. It returns true if the wake-up
// was an explicit Ping rather than the arrival of work or a timeout. A
// zero or negative timeout waits indefinitely.
func (q *Queue) LockAndWait(timeout time.Duration) (pinged bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) > 0 || q.pinged || q.closed {
		pinged = q.pinged
		q.pinged = false
		return pinged
	}

	expired := false
	var timer *time.Timer
	if timeout > 0 {
		timer = time.AfterFunc(timeout, func() {
			q.mu.Lock()
			expired = true
			q.cond.Broadcast()
			q.mu.Unlock()
		})
		defer timer.Stop()
	}

	for len(q.items) == 0 && !q.pinged && !q.closed && !expired {
		q.cond.Wait()
	}

	pinged = q.pinged
	q.pinged = false
	return pinged
}

// Drain atomically moves every queued item into the caller's local slice,
// leaving the queue empty.
func (q *Queue) Drain() []Item {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return nil
	}
	drained := q.items
	q.items = nil
	return drained
}

// Ping wakes a waiter in LockAndWait without enqueuing any work item. Used
// for shutdown signaling and for re-triggering the io thread after
// out-of-band symlink target reprocessing.
func (q *Queue) Ping() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pinged = true
	q.cond.Broadcast()
}

// Close marks the queue closed, waking any waiter permanently. Add becomes
// a no-op after Close.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.cond.Broadcast()
}

// Len reports the number of items currently queued, primarily for tests and
// diagnostics.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// isAncestor reports whether ancestor is a path prefix of descendant at a
// separator boundary (or is equal to it).
func isAncestor(ancestor, descendant intern.String, sep byte) bool {
	a, d := ancestor.String(), descendant.String()
	if a == d {
		return true
	}
	if len(a) == 0 {
		return true
	}
	if len(d) <= len(a) {
		return false
	}
	if d[:len(a)] != a {
		return false
	}
	boundary := d[len(a)]
	return boundary == sep || a[len(a)-1] == sep
}
