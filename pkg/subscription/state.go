package subscription

import (
	"sync"

	"github.com/pkg/errors"
)

// Disposition is a ClientStateAssertion's lifecycle stage.
type Disposition int

const (
	PendingEnter Disposition = iota
	Asserted
	PendingLeave
	Done
)

// ClientStateAssertion is one state-enter/state-leave pairing: the record
// queued by `state-enter <path> {name, metadata}` and removed by the
// matching `state-leave` (or by an abandoned-leave cleanup when the
// client disconnects without one).
type ClientStateAssertion struct {
	Name        string
	Metadata    interface{}
	Disposition Disposition

	// Payload is the state-enter broadcast payload, parked here when
	// this assertion's cookie-sync completes while it is not yet at
	// the head of its queue — an earlier, still-PendingEnter assertion
	// hasn't broadcast its own enter event yet, so this one must wait.
	Payload interface{}
}

// ErrStateBusy is returned by QueueAssertion when the queue's tail is
// already PendingEnter or Asserted (§4.10: "queueAssertion(a) rejects
// when the tail is PendingEnter or Asserted").
var ErrStateBusy = errors.New("subscription: state already asserted or pending for this name")

// StateQueues owns the per-state-name FIFOs of ClientStateAssertion
// records for one root.
type StateQueues struct {
	mu     sync.Mutex
	queues map[string][]*ClientStateAssertion
}

// NewStateQueues creates an empty set of state-assertion queues for one
// root.
func NewStateQueues() *StateQueues {
	return &StateQueues{queues: make(map[string][]*ClientStateAssertion)}
}

// QueueAssertion enqueues a onto its named queue with disposition
// PendingEnter, unless the queue's current tail is itself PendingEnter or
// Asserted.
func (q *StateQueues) QueueAssertion(a *ClientStateAssertion) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	list := q.queues[a.Name]
	if n := len(list); n > 0 {
		switch list[n-1].Disposition {
		case PendingEnter, Asserted:
			return ErrStateBusy
		}
	}
	a.Disposition = PendingEnter
	q.queues[a.Name] = append(list, a)
	return nil
}

// CompleteEnter transitions a to Asserted once its cookie-sync finishes,
// reporting whether a is at the head of its queue (the caller should
// broadcast a state-enter event immediately) or should instead park
// payload on the record for later release by RemoveAssertion.
func (q *StateQueues) CompleteEnter(a *ClientStateAssertion, payload interface{}) (broadcastNow bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	a.Disposition = Asserted
	list := q.queues[a.Name]
	if len(list) > 0 && list[0] == a {
		return true
	}
	a.Payload = payload
	return false
}

// BeginLeave marks a as PendingLeave: the client's state-leave request has
// been accepted but the vacate isn't visible until the matching cookie sync
// lands, so a stays in its queue (not yet Done) while the leave is in
// flight. Unlike PendingEnter and Asserted, a tail entry in PendingLeave
// does not block QueueAssertion: once the predecessor has started leaving,
// a new client may queue behind it immediately, and its own enter broadcast
// is deferred (via CompleteEnter's parked Payload) until RemoveAssertion
// finally retires the leaving predecessor. This is what lets a queue ever
// hold more than one live entry at a time.
func (q *StateQueues) BeginLeave(a *ClientStateAssertion) {
	q.mu.Lock()
	defer q.mu.Unlock()
	a.Disposition = PendingLeave
}

// RemoveAssertion implements `removeAssertion(a)`: marks a Done, removes
// it from its queue, and reports a successor's parked payload to release,
// if a itself was the head and the new head is Asserted with a payload
// parked from an earlier CompleteEnter call.
func (q *StateQueues) RemoveAssertion(a *ClientStateAssertion) (releaseName string, releasePayload interface{}, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	a.Disposition = Done
	list := q.queues[a.Name]
	idx := -1
	for i, e := range list {
		if e == a {
			idx = i
			break
		}
	}
	if idx < 0 {
		return "", nil, false
	}
	list = append(list[:idx], list[idx+1:]...)
	if len(list) == 0 {
		delete(q.queues, a.Name)
	} else {
		q.queues[a.Name] = list
	}

	if idx == 0 && len(list) > 0 && list[0].Disposition == Asserted && list[0].Payload != nil {
		successor := list[0]
		payload := successor.Payload
		successor.Payload = nil
		return successor.Name, payload, true
	}
	return "", nil, false
}

// Head returns the current head-of-queue assertion for name, or nil if
// none is queued.
func (q *StateQueues) Head(name string) *ClientStateAssertion {
	q.mu.Lock()
	defer q.mu.Unlock()
	list := q.queues[name]
	if len(list) == 0 {
		return nil
	}
	return list[0]
}

// IsAsserted reports whether any entry in name's queue is currently
// Asserted, the same definition the defer/drop policy consults.
func (q *StateQueues) IsAsserted(name string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, a := range q.queues[name] {
		if a.Disposition == Asserted {
			return true
		}
	}
	return false
}
