package ignore

import "testing"

func TestFullyIgnoredPrunesSubtree(t *testing.T) {
	e := New('/')
	e.AddFullyIgnored("/root/node_modules")

	cases := map[string]bool{
		"/root/node_modules":          true,
		"/root/node_modules/pkg":      true,
		"/root/node_modules/pkg/a.js": true,
		"/root/node_modules_extra":    false,
		"/root/src":                   false,
	}
	for path, want := range cases {
		if got := e.Classify(path).FullyIgnored; got != want {
			t.Errorf("Classify(%q).FullyIgnored = %v, want %v", path, got, want)
		}
	}
}

func TestFullyIgnoredDoesNotFalseMatchSiblingPrefix(t *testing.T) {
	e := New('/')
	e.AddFullyIgnored("/root/foo")
	if e.Classify("/root/food").FullyIgnored {
		t.Error("expected /root/food to not match ignore rule for /root/foo")
	}
}

func TestVCSIgnoredObservesDirectChildrenOnly(t *testing.T) {
	e := New('/')
	e.AddVCSIgnored("/root/.git")

	cases := map[string]bool{
		"/root/.git":             false,
		"/root/.git/HEAD":        false,
		"/root/.git/objects":     false,
		"/root/.git/objects/ab":  true,
		"/root/.git/refs/heads":  true,
	}
	for path, wantPruned := range cases {
		if got := e.Classify(path).VCSPruned; got != wantPruned {
			t.Errorf("Classify(%q).VCSPruned = %v, want %v", path, got, wantPruned)
		}
	}
}

func TestClassifyUnrelatedPathIsNotIgnored(t *testing.T) {
	e := New('/')
	e.AddFullyIgnored("/root/node_modules")
	e.AddVCSIgnored("/root/.git")

	if e.Classify("/root/src/main.go").Ignored() {
		t.Error("expected unrelated path to not be ignored")
	}
}
