package service

import (
	"fmt"
	"time"

	"github.com/watchgraph/watchgraphd/pkg/protocol"
	"github.com/watchgraph/watchgraphd/pkg/subscription"
)

// StateEnter implements protocol.Service: it queues a state assertion,
// waits out a cookie-sync so every in-flight notification from before the
// assertion is flushed first, marks the root's defer/drop policy aware of
// the newly-asserted state, and broadcasts a state-enter notification to
// every connection subscribed on the root once the assertion reaches the
// head of its queue.
func (s *Service) StateEnter(path, name string, metadata interface{}, syncTimeout time.Duration, conn *protocol.Connection) error {
	real, err := resolvePath(path)
	if err != nil {
		return err
	}
	entry, err := s.ensureRoot(real)
	if err != nil {
		return err
	}
	entry.root.Touch()

	assertion := &subscription.ClientStateAssertion{Name: name, Metadata: metadata}
	if err := entry.states.QueueAssertion(assertion); err != nil {
		return err
	}

	if err := syncCookie(entry.root, syncTimeout); err != nil {
		entry.states.RemoveAssertion(assertion)
		return err
	}

	payload := map[string]interface{}{
		"state-enter": name,
		"metadata":    metadata,
	}

	entry.mu.Lock()
	entry.subs.AssertedStates[name] = true
	broadcastNow := entry.states.CompleteEnter(assertion, payload)
	entry.mu.Unlock()

	if broadcastNow {
		s.broadcastToRoot(entry, payload)
	}
	return nil
}

// StateLeave implements protocol.Service: it retires the assertion queued
// by the matching StateEnter, waits out its own cookie-sync, and broadcasts
// a state-leave notification (plus any successor's parked state-enter
// notification that was waiting behind it).
func (s *Service) StateLeave(path, name string, metadata interface{}, syncTimeout time.Duration, conn *protocol.Connection) error {
	real, err := resolvePath(path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	entry, ok := s.roots[real]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("no watch established for %s", path)
	}

	entry.mu.Lock()
	assertion := entry.states.Head(name)
	entry.mu.Unlock()
	if assertion == nil {
		return fmt.Errorf("no asserted state %q for %s", name, path)
	}
	entry.states.BeginLeave(assertion)

	if err := syncCookie(entry.root, syncTimeout); err != nil {
		return err
	}

	entry.mu.Lock()
	releaseName, releasePayload, hasSuccessor := entry.states.RemoveAssertion(assertion)
	if !entry.states.IsAsserted(name) {
		delete(entry.subs.AssertedStates, name)
	}
	entry.mu.Unlock()

	s.broadcastToRoot(entry, map[string]interface{}{
		"state-leave": name,
		"metadata":    metadata,
	})
	if hasSuccessor {
		s.broadcastToRoot(entry, releasePayload.(map[string]interface{}))
		_ = releaseName
	}
	return nil
}

// broadcastToRoot pushes payload to every connection currently subscribed
// on entry's root, for the unilateral state-enter/state-leave notifications
// described in §4.10.
func (s *Service) broadcastToRoot(entry *rootEntry, payload map[string]interface{}) {
	entry.mu.Lock()
	targets := make([]*protocol.Connection, 0, len(entry.subscribers))
	seen := make(map[*protocol.Connection]bool, len(entry.subscribers))
	for _, conn := range entry.subscribers {
		if !seen[conn] {
			seen[conn] = true
			targets = append(targets, conn)
		}
	}
	entry.mu.Unlock()

	for _, conn := range targets {
		conn.PushAsync(payload)
	}
}
