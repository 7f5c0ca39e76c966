package service

import (
	"testing"

	"github.com/watchgraph/watchgraphd/pkg/subscription"
)

func TestParseSubscriptionPolicyDefaults(t *testing.T) {
	dropStates, deferStates, deferVCS := parseSubscriptionPolicy(map[string]interface{}{})
	if len(dropStates) != 0 || len(deferStates) != 0 {
		t.Fatalf("expected empty policy maps, got drop=%v defer=%v", dropStates, deferStates)
	}
	if !deferVCS {
		t.Fatal("expected defer_vcs to default to true")
	}
}

func TestParseSubscriptionPolicyFromSpec(t *testing.T) {
	spec := map[string]interface{}{
		"drop":      []interface{}{"hold"},
		"defer":     []interface{}{"commit"},
		"defer_vcs": false,
	}
	dropStates, deferStates, deferVCS := parseSubscriptionPolicy(spec)
	if !dropStates["hold"] {
		t.Fatal("expected \"hold\" to be parsed into dropStates")
	}
	if !deferStates["commit"] {
		t.Fatal("expected \"commit\" to be parsed into deferStates")
	}
	if deferVCS {
		t.Fatal("expected explicit defer_vcs=false to be honored")
	}
}

func TestDecideActionPrefersDropOverDefer(t *testing.T) {
	m := subscription.NewManager()
	m.AssertedStates["hold"] = true
	sub := &subscription.Subscription{
		DropStates:  map[string]bool{"hold": true},
		DeferStates: map[string]bool{"hold": true},
	}
	if action := decideAction(m, sub); action != subscription.ActionDrop {
		t.Fatalf("expected ActionDrop, got %v", action)
	}
}

func TestDecideActionDefersOnSCMInProgress(t *testing.T) {
	m := subscription.NewManager()
	m.SCMInProgress = true
	sub := &subscription.Subscription{DeferVCS: true}
	if action := decideAction(m, sub); action != subscription.ActionDefer {
		t.Fatalf("expected ActionDefer, got %v", action)
	}
}

func TestDecideActionExecutesByDefault(t *testing.T) {
	m := subscription.NewManager()
	sub := &subscription.Subscription{}
	if action := decideAction(m, sub); action != subscription.ActionExecute {
		t.Fatalf("expected ActionExecute, got %v", action)
	}
}
