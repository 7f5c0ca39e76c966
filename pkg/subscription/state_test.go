package subscription

import "testing"

func TestQueueAssertionRejectsWhenTailIsPendingOrAsserted(t *testing.T) {
	q := NewStateQueues()
	a := &ClientStateAssertion{Name: "build"}
	if err := q.QueueAssertion(a); err != nil {
		t.Fatalf("expected first enqueue to succeed, got %v", err)
	}

	b := &ClientStateAssertion{Name: "build"}
	if err := q.QueueAssertion(b); err != ErrStateBusy {
		t.Fatalf("expected ErrStateBusy while tail is PendingEnter, got %v", err)
	}

	q.CompleteEnter(a, "payload-a")
	c := &ClientStateAssertion{Name: "build"}
	if err := q.QueueAssertion(c); err != ErrStateBusy {
		t.Fatalf("expected ErrStateBusy while tail is Asserted, got %v", err)
	}
}

func TestCompleteEnterBroadcastsImmediatelyAtHead(t *testing.T) {
	q := NewStateQueues()
	a := &ClientStateAssertion{Name: "build"}
	q.QueueAssertion(a)

	if broadcast := q.CompleteEnter(a, "payload"); !broadcast {
		t.Fatal("expected the head-of-queue assertion to broadcast immediately")
	}
	if a.Disposition != Asserted {
		t.Fatal("expected disposition to become Asserted")
	}
}

func TestRemoveAssertionReleasesParkedSuccessorPayload(t *testing.T) {
	q := NewStateQueues()

	a := &ClientStateAssertion{Name: "build"}
	if err := q.QueueAssertion(a); err != nil {
		t.Fatalf("expected a to enqueue, got %v", err)
	}
	if broadcast := q.CompleteEnter(a, "payload-a"); !broadcast {
		t.Fatal("expected a to broadcast immediately as the sole queue entry")
	}

	// a is now Asserted, so a second enqueue still must be rejected...
	b := &ClientStateAssertion{Name: "build"}
	if err := q.QueueAssertion(b); err != ErrStateBusy {
		t.Fatalf("expected ErrStateBusy while a is Asserted, got %v", err)
	}

	// ...until a's leave begins. PendingLeave, unlike Asserted, does not
	// block the tail, so b can now queue behind the still-present a.
	q.BeginLeave(a)
	if err := q.QueueAssertion(b); err != nil {
		t.Fatalf("expected b to enqueue behind a's PendingLeave, got %v", err)
	}

	// b's cookie sync completes while it is not at the head (a is still
	// in the queue ahead of it), so its broadcast is parked rather than
	// sent immediately.
	if broadcast := q.CompleteEnter(b, "payload-b"); broadcast {
		t.Fatal("expected b's broadcast to park behind a, not fire immediately")
	}

	// a's leave sync lands: removing a promotes b to head and releases
	// its parked payload.
	releaseName, releasePayload, ok := q.RemoveAssertion(a)
	if !ok {
		t.Fatal("expected removing a to release b's parked broadcast")
	}
	if releaseName != "build" || releasePayload != "payload-b" {
		t.Fatalf("expected to release build/payload-b, got %s/%v", releaseName, releasePayload)
	}
	if head := q.Head("build"); head != b {
		t.Fatal("expected b to be the new head after a is removed")
	}
}

func TestHeadReturnsNilForUnknownState(t *testing.T) {
	q := NewStateQueues()
	if q.Head("nonexistent") != nil {
		t.Fatal("expected Head to return nil for a state with no queue")
	}
}
