package service

import (
	"fmt"
	"time"

	"github.com/watchgraph/watchgraphd/pkg/protocol"
	"github.com/watchgraph/watchgraphd/pkg/query"
	"github.com/watchgraph/watchgraphd/pkg/subscription"
)

// parseSubscriptionPolicy pulls the defer/drop/defer_vcs keys out of a raw
// subscribe spec. query.Compile deliberately ignores these (they govern
// dispatch policy, not query evaluation), so they're read directly here.
func parseSubscriptionPolicy(spec map[string]interface{}) (dropStates, deferStates map[string]bool, deferVCS bool) {
	dropStates = stringSetField(spec, "drop")
	deferStates = stringSetField(spec, "defer")
	if v, ok := spec["defer_vcs"].(bool); ok {
		deferVCS = v
	} else {
		deferVCS = true
	}
	return
}

func stringSetField(spec map[string]interface{}, key string) map[string]bool {
	out := make(map[string]bool)
	raw, ok := spec[key].([]interface{})
	if !ok {
		return out
	}
	for _, item := range raw {
		if name, ok := item.(string); ok {
			out[name] = true
		}
	}
	return out
}

// Subscribe implements protocol.Service.
func (s *Service) Subscribe(path, name string, spec map[string]interface{}, conn *protocol.Connection) (string, error) {
	real, err := resolvePath(path)
	if err != nil {
		return "", err
	}
	entry, err := s.ensureRoot(real)
	if err != nil {
		return "", err
	}
	entry.root.Touch()

	q, err := query.Compile(spec)
	if err != nil {
		return "", err
	}
	dropStates, deferStates, deferVCS := parseSubscriptionPolicy(spec)

	sub := &subscription.Subscription{
		Name:        name,
		Query:       q,
		DropStates:  dropStates,
		DeferStates: deferStates,
		DeferVCS:    deferVCS,
		LastTicks:   entry.root.Clock.Ticks(),
	}

	entry.mu.Lock()
	entry.subscribers[name] = conn
	entry.mu.Unlock()
	entry.subs.Add(sub)

	return entry.root.Clock.String(), nil
}

// Unsubscribe implements protocol.Service.
func (s *Service) Unsubscribe(path, name string, conn *protocol.Connection) (bool, error) {
	real, err := resolvePath(path)
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	entry, ok := s.roots[real]
	s.mu.Unlock()
	if !ok {
		return false, fmt.Errorf("no watch established for %s", path)
	}

	entry.mu.Lock()
	delete(entry.subscribers, name)
	entry.mu.Unlock()

	return entry.subs.Remove(name), nil
}

// decideAction mirrors pkg/subscription.Manager's private dispatch policy
// (drop beats defer beats defer_vcs beats execute) so FlushSubscriptions can
// report which bucket each requested subscription landed in without that
// package exposing the decision itself.
func decideAction(m *subscription.Manager, sub *subscription.Subscription) subscription.Action {
	for state := range sub.DropStates {
		if m.AssertedStates[state] {
			return subscription.ActionDrop
		}
	}
	for state := range sub.DeferStates {
		if m.AssertedStates[state] {
			return subscription.ActionDefer
		}
	}
	if sub.DeferVCS && m.SCMInProgress {
		return subscription.ActionDefer
	}
	return subscription.ActionExecute
}

// FlushSubscriptions implements protocol.Service: it forces a cookie-sync
// then a settle-point dispatch against path's root, optionally restricted to
// a subset of subscription names, partitioning the requested names into
// synced/noSyncNeeded/dropped per §6's flush-subscriptions semantics.
func (s *Service) FlushSubscriptions(path string, names []string, syncTimeout time.Duration) (synced, noSyncNeeded, dropped []string, err error) {
	real, err := resolvePath(path)
	if err != nil {
		return nil, nil, nil, err
	}
	s.mu.Lock()
	entry, ok := s.roots[real]
	s.mu.Unlock()
	if !ok {
		return nil, nil, nil, fmt.Errorf("no watch established for %s", path)
	}

	requested := names
	if len(requested) == 0 {
		requested = entry.subs.Names()
	}

	if err := syncCookie(entry.root, syncTimeout); err != nil {
		return nil, nil, nil, err
	}

	ok2, heldBy := entry.root.RLock(0)
	if !ok2 {
		return nil, nil, nil, fmt.Errorf("timed out waiting for root lock (held by %s)", heldBy)
	}
	defer entry.root.RUnlock()

	ctx := entry.projectContext(entry.root)
	for _, name := range requested {
		sub, ok := entry.subs.Get(name)
		if !ok {
			noSyncNeeded = append(noSyncNeeded, name)
			continue
		}
		switch decideAction(entry.subs, sub) {
		case subscription.ActionDrop:
			dropped = append(dropped, name)
		case subscription.ActionDefer:
			noSyncNeeded = append(noSyncNeeded, name)
		default:
			dispatchNamed(entry, sub, ctx)
			synced = append(synced, name)
		}
	}
	return synced, noSyncNeeded, dropped, nil
}

// dispatchNamed forces a single subscription's dispatch via the same
// settle-time path every other subscription uses, by delegating to a
// throwaway single-subscription manager so dispatch policy stays
// centralized in pkg/subscription rather than duplicated here.
func dispatchNamed(entry *rootEntry, sub *subscription.Subscription, ctx *query.ProjectContext) {
	solo := subscription.NewManager()
	solo.AssertedStates = entry.subs.AssertedStates
	solo.SCMInProgress = entry.subs.SCMInProgress
	solo.Notify = entry.subs.Notify
	solo.Add(sub)
	solo.Settle(entry.root.Graph, entry.root.Clock, ctx)
}

// deliverSubscriptionEvent pushes a subscription dispatch or cancellation to
// the connection that registered it, dropping the event silently if the
// subscriber has since unsubscribed or disconnected.
func (s *Service) deliverSubscriptionEvent(entry *rootEntry, event subscription.Event) {
	entry.mu.Lock()
	conn, ok := entry.subscribers[event.Subscription]
	entry.mu.Unlock()
	if !ok {
		return
	}

	if event.Canceled {
		conn.PushAsync(map[string]interface{}{
			"subscription": event.Subscription,
			"canceled":     true,
		})
		return
	}

	conn.PushAsync(map[string]interface{}{
		"subscription":      event.Subscription,
		"clock":             event.Result.Clock,
		"files":             event.Result.Files,
		"is_fresh_instance": event.Result.IsFreshInstance,
	})
}
