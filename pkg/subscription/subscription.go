// Package subscription implements the per-root subscription manager and
// state-assertion queue described in spec.md §4.10: recurring queries that
// re-dispatch at every settle point, gated by a per-state defer/drop
// policy, plus the state-enter/state-leave FIFO used for SCM-aware
// coordination between clients asserting the same named state.
package subscription

import (
	"sync"

	"github.com/watchgraph/watchgraphd/pkg/clock"
	"github.com/watchgraph/watchgraphd/pkg/graph"
	"github.com/watchgraph/watchgraphd/pkg/query"
)

// Action is the per-settle dispatch decision for one subscription.
type Action int

const (
	ActionExecute Action = iota
	ActionDefer
	ActionDrop
)

// Subscription is one named, recurring query tied to a root. LastTicks
// advances only after a successful dispatch, matching §4.10's "each
// subscription stores last_ticks, advancing only after a successful
// dispatch."
type Subscription struct {
	Name  string
	Query *query.Query

	DropStates  map[string]bool
	DeferStates map[string]bool
	DeferVCS    bool

	LastTicks uint32
}

// Event is one asynchronous notification the manager hands to its Notify
// hook: a subscription's dispatch result, or a canceled-root final
// notification (§5 "Cancellation": "all subscriptions tied to that root
// receive a final {canceled: true} notification").
type Event struct {
	Subscription string
	Result       *query.Result
	Canceled     bool
}

// Manager owns every subscription for one root and drives dispatch at
// each settle point. It exposes a pluggable Notify callback rather than
// an internal broadcast ring buffer, mirroring pkg/root.Root's
// SettleHook idiom: no pack example builds (or needs) a dedicated
// ring-buffer type for unilateral responses, and pkg/root already
// established the callback-hook pattern for settle-triggered work, so
// this package reuses that shape instead of inventing a second
// mechanism for the same kind of "tell someone else, asynchronously"
// notification.
//
// Manager does not itself acquire the owning root's lock around Settle;
// the caller (the SettleHook wiring in pkg/service) is expected to hold
// at least a read lock for the duration of the call, exactly as
// pkg/root's own reconcile does for writes.
type Manager struct {
	mu            sync.Mutex
	subscriptions map[string]*Subscription

	// AssertedStates is the set of state names currently asserted
	// against this root (mirrors the head of each per-state
	// ClientStateAssertion FIFO in StateQueues), consulted by the
	// defer/drop policy.
	AssertedStates map[string]bool
	// SCMInProgress reports whether an SCM operation is currently
	// believed to be in progress, consulted for defer_vcs.
	SCMInProgress bool

	Notify func(Event)
}

// NewManager creates an empty subscription manager for one root.
func NewManager() *Manager {
	return &Manager{
		subscriptions:  make(map[string]*Subscription),
		AssertedStates: make(map[string]bool),
	}
}

// Add registers sub, replacing any existing subscription of the same name.
func (m *Manager) Add(sub *Subscription) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscriptions[sub.Name] = sub
}

// Remove deletes the named subscription, reporting whether it existed
// (the `unsubscribe` command's `deleted` field).
func (m *Manager) Remove(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.subscriptions[name]; ok {
		delete(m.subscriptions, name)
		return true
	}
	return false
}

// Get returns the named subscription, if registered.
func (m *Manager) Get(name string) (*Subscription, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.subscriptions[name]
	return s, ok
}

// Names reports every currently registered subscription name, used by
// `flush-subscriptions`' optional name filter and `watch-list`-style
// introspection.
func (m *Manager) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.subscriptions))
	for name := range m.subscriptions {
		out = append(out, name)
	}
	return out
}

// decide implements the §4.10 policy: a drop-map match wins over a
// defer-map match; defer_vcs defers while an SCM operation is believed
// in progress; otherwise the subscription executes.
func (m *Manager) decide(sub *Subscription) Action {
	for state := range sub.DropStates {
		if m.AssertedStates[state] {
			return ActionDrop
		}
	}
	for state := range sub.DeferStates {
		if m.AssertedStates[state] {
			return ActionDefer
		}
	}
	if sub.DeferVCS && m.SCMInProgress {
		return ActionDefer
	}
	return ActionExecute
}

// Settle runs the §4.10 per-subscription dispatch algorithm for every
// registered subscription, to be called once per root settle point
// (wired as a pkg/root.Root.SettleHook via pkg/service).
func (m *Manager) Settle(g *graph.Graph, evalClock *clock.Clock, ctx *query.ProjectContext) {
	m.mu.Lock()
	subs := make([]*Subscription, 0, len(m.subscriptions))
	for _, s := range m.subscriptions {
		subs = append(subs, s)
	}
	m.mu.Unlock()

	for _, sub := range subs {
		m.dispatchOne(sub, g, evalClock, ctx)
	}
}

// dispatchOne implements step 2/3 of §4.10's numbered algorithm for a
// single subscription: decide an action, and on EXECUTE run the query
// with since=clock-spec{last_ticks}, skipping notification (but still
// advancing last_ticks) when nothing changed and the result isn't a
// fresh instance.
func (m *Manager) dispatchOne(sub *Subscription, g *graph.Graph, evalClock *clock.Clock, ctx *query.ProjectContext) {
	switch m.decide(sub) {
	case ActionDrop:
		// "fast-forward last_ticks to current ticks; discard any
		// pending results."
		sub.LastTicks = evalClock.Ticks()
		return
	case ActionDefer:
		// "do nothing; re-check next cycle."
		return
	}

	// Round-trip last_ticks through the clock's own string format to
	// obtain a since-spec whose start/pid/root-number tuple matches
	// this clock's identity, so the tick comparison (and any
	// fresh-instance check) is meaningful — a bare {Ticks: n} spec
	// with a zero identity would always compare as fresh-instance.
	since, err := clock.ParseSpec(evalClock.StringAt(sub.LastTicks))
	if err != nil {
		return
	}

	runQuery := *sub.Query
	runQuery.Since = &since

	clockAtStart := evalClock.Ticks()
	result, err := query.Execute(g, evalClock, ctx, &runQuery)
	if err != nil {
		return
	}

	sub.LastTicks = clockAtStart

	if len(result.Files) == 0 && !result.IsFreshInstance {
		return
	}
	if m.Notify != nil {
		m.Notify(Event{Subscription: sub.Name, Result: result})
	}
}

// CancelAll delivers a final {canceled: true} notification for every
// registered subscription, as required when the owning root is
// cancelled.
func (m *Manager) CancelAll() {
	m.mu.Lock()
	names := make([]string, 0, len(m.subscriptions))
	for name := range m.subscriptions {
		names = append(names, name)
	}
	m.mu.Unlock()

	if m.Notify == nil {
		return
	}
	for _, name := range names {
		m.Notify(Event{Subscription: name, Canceled: true})
	}
}
