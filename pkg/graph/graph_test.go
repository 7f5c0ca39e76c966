package graph

import (
	"testing"
	"time"
)

func TestResolveDirCreatesIntermediateComponents(t *testing.T) {
	g := New("/root", '/')
	h, ok := g.ResolveDir("a/b/c", true)
	if !ok {
		t.Fatal("expected resolution to succeed with create=true")
	}
	if g.Dir(h) == nil {
		t.Fatal("expected resolved directory to exist")
	}

	if _, ok := g.ResolveDir("a/b/x", false); ok {
		t.Fatal("expected resolution to fail for missing component with create=false")
	}
}

func TestResolveFileAllocatesOnce(t *testing.T) {
	g := New("/root", '/')
	dir, _ := g.ResolveDir("a", true)
	now := time.Unix(100, 0)

	h1, created1 := g.ResolveFile(dir, "file.txt", now, 1)
	if !created1 {
		t.Fatal("expected first resolve to create the node")
	}
	h2, created2 := g.ResolveFile(dir, "file.txt", now, 2)
	if created2 {
		t.Fatal("expected second resolve to return the existing node")
	}
	if h1 != h2 {
		t.Fatal("expected same handle for repeated resolution")
	}

	node := g.File(h1)
	if !node.Exists || !node.New {
		t.Fatal("expected newly created file to be marked exists and new")
	}
}

func TestMarkFileChangedMovesToRecentHead(t *testing.T) {
	g := New("/root", '/')
	dir, _ := g.ResolveDir("", true)
	now := time.Unix(0, 0)

	a, _ := g.ResolveFile(dir, "a.txt", now, 1)
	b, _ := g.ResolveFile(dir, "b.txt", now, 2)

	recent := g.RecentlyChanged()
	if len(recent) != 2 || recent[0] != b {
		t.Fatalf("expected b.txt to be most recent after creation, got %+v", recent)
	}

	g.MarkFileChanged(a, now.Add(time.Second), 3)
	recent = g.RecentlyChanged()
	if recent[0] != a {
		t.Fatalf("expected a.txt to become most recent after being marked changed, got %+v", recent)
	}
}

func TestMarkDeletedRetainsNode(t *testing.T) {
	g := New("/root", '/')
	dir, _ := g.ResolveDir("", true)
	now := time.Unix(0, 0)

	h, _ := g.ResolveFile(dir, "gone.txt", now, 1)
	g.MarkDeleted(h, now.Add(time.Second), 2)

	node := g.File(h)
	if node == nil {
		t.Fatal("expected node to be retained after deletion")
	}
	if node.Exists {
		t.Fatal("expected exists=false after MarkDeleted")
	}
}

func TestMarkDeletedRecursive(t *testing.T) {
	g := New("/root", '/')
	dir, _ := g.ResolveDir("sub", true)
	now := time.Unix(0, 0)

	h, _ := g.ResolveFile(dir, "x.txt", now, 1)
	g.MarkDeletedRecursive(g.Root(), now, 2)

	if g.File(h).Exists {
		t.Fatal("expected file beneath root to be marked deleted by recursive delete")
	}
}

func TestSuffixListGroupsBySuffix(t *testing.T) {
	g := New("/root", '/')
	dir, _ := g.ResolveDir("", true)
	now := time.Unix(0, 0)

	a, _ := g.ResolveFile(dir, "a.GO", now, 1)
	b, _ := g.ResolveFile(dir, "b.go", now, 2)
	g.ResolveFile(dir, "c.txt", now, 3)

	list := g.SuffixList("go")
	if len(list) != 2 {
		t.Fatalf("expected 2 files with suffix go, got %d", len(list))
	}
	found := map[FileHandle]bool{a: false, b: false}
	for _, h := range list {
		found[h] = true
	}
	for h, ok := range found {
		if !ok {
			t.Errorf("expected handle %+v in suffix list", h)
		}
	}
}

func TestAgeOutReapsOldDeletedNodesOnly(t *testing.T) {
	g := New("/root", '/')
	dir, _ := g.ResolveDir("", true)
	base := time.Unix(1000, 0)

	deletedOld, _ := g.ResolveFile(dir, "old-deleted.txt", base, 1)
	g.MarkDeleted(deletedOld, base, 1)

	stillExists, _ := g.ResolveFile(dir, "still-here.txt", base, 2)

	recentlyDeleted, _ := g.ResolveFile(dir, "recent-deleted.txt", base.Add(50*time.Minute), 3)
	g.MarkDeleted(recentlyDeleted, base.Add(50*time.Minute), 3)

	now := base.Add(time.Hour)
	g.AgeOut(now, 30*time.Minute)

	if g.File(deletedOld) != nil {
		t.Error("expected old deleted node to be reaped")
	}
	if g.File(stillExists) == nil {
		t.Error("expected still-existing node to survive age-out")
	}
	if g.File(recentlyDeleted) == nil {
		t.Error("expected recently-deleted node to survive age-out (too young)")
	}
}

func TestHandleStaleAfterFree(t *testing.T) {
	g := New("/root", '/')
	dir, _ := g.ResolveDir("", true)
	base := time.Unix(0, 0)

	h, _ := g.ResolveFile(dir, "x.txt", base, 1)
	g.MarkDeleted(h, base, 1)
	g.AgeOut(base.Add(time.Hour), time.Minute)

	if g.File(h) != nil {
		t.Fatal("expected stale handle to resolve to nil after its slot was freed")
	}

	// A freshly allocated node may reuse the freed slot index but must get a
	// distinct generation, so the old handle must not alias it.
	h2, _ := g.ResolveFile(dir, "y.txt", base, 2)
	if h2 == h {
		t.Fatal("expected reused slot to produce a distinct handle (generation must differ)")
	}
}
