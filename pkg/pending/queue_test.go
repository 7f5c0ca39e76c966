package pending

import (
	"testing"
	"time"

	"github.com/watchgraph/watchgraphd/pkg/intern"
)

func path(s string) intern.String {
	return intern.NewFromString(s)
}

func TestAddDropsDescendantOfQueuedRecursive(t *testing.T) {
	q := New('/')
	now := time.Unix(0, 0)
	q.Add(path("/root/a"), Recursive, now)
	q.Add(path("/root/a/b"), 0, now)

	items := q.Drain()
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if items[0].Path.String() != "/root/a" {
		t.Errorf("unexpected surviving item: %q", items[0].Path.String())
	}
}

func TestAddRemovesDescendantsWhenNewItemIsRecursive(t *testing.T) {
	q := New('/')
	now := time.Unix(0, 0)
	q.Add(path("/root/a/b"), 0, now)
	q.Add(path("/root/a/c"), 0, now)
	q.Add(path("/root/a"), Recursive, now)

	items := q.Drain()
	if len(items) != 1 {
		t.Fatalf("expected 1 item after recursive supersession, got %d", len(items))
	}
	if items[0].Path.String() != "/root/a" {
		t.Errorf("unexpected surviving item: %q", items[0].Path.String())
	}
}

func TestAddKeepsUnrelatedSubtrees(t *testing.T) {
	q := New('/')
	now := time.Unix(0, 0)
	q.Add(path("/root/a"), Recursive, now)
	q.Add(path("/root/b"), Recursive, now)

	if got := q.Len(); got != 2 {
		t.Fatalf("expected 2 unrelated subtrees, got %d", got)
	}
}

func TestDrainEmptiesQueue(t *testing.T) {
	q := New('/')
	q.Add(path("/root/a"), 0, time.Unix(0, 0))
	if q.Drain() == nil {
		t.Fatal("expected non-nil drain result")
	}
	if q.Len() != 0 {
		t.Fatalf("expected empty queue after drain, got %d items", q.Len())
	}
	if q.Drain() != nil {
		t.Fatal("expected nil from draining an already-empty queue")
	}
}

func TestLockAndWaitReturnsImmediatelyWhenItemQueued(t *testing.T) {
	q := New('/')
	q.Add(path("/root/a"), 0, time.Unix(0, 0))

	done := make(chan bool, 1)
	go func() { done <- q.LockAndWait(time.Second) }()

	select {
	case pinged := <-done:
		if pinged {
			t.Error("expected pinged=false when woken by queued work")
		}
	case <-time.After(time.Second):
		t.Fatal("LockAndWait did not return promptly with work already queued")
	}
}

func TestPingWakesWaiterWithoutEnqueuing(t *testing.T) {
	q := New('/')
	done := make(chan bool, 1)
	go func() { done <- q.LockAndWait(5 * time.Second) }()

	time.Sleep(20 * time.Millisecond)
	q.Ping()

	select {
	case pinged := <-done:
		if !pinged {
			t.Error("expected pinged=true after explicit Ping")
		}
	case <-time.After(time.Second):
		t.Fatal("Ping did not wake LockAndWait")
	}
	if q.Len() != 0 {
		t.Error("Ping must not enqueue a work item")
	}
}

func TestLockAndWaitTimesOut(t *testing.T) {
	q := New('/')
	start := time.Now()
	pinged := q.LockAndWait(30 * time.Millisecond)
	if pinged {
		t.Error("expected pinged=false on timeout")
	}
	if time.Since(start) < 30*time.Millisecond {
		t.Error("LockAndWait returned before the requested timeout elapsed")
	}
}
