package query

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/watchgraph/watchgraphd/pkg/clock"
	"github.com/watchgraph/watchgraphd/pkg/graph"
)

func TestProjectSyncFields(t *testing.T) {
	g := graph.New("/root", '/')
	now := time.Now()
	fh, _ := g.ResolveFile(g.Root(), "a.txt", now, 5)
	node := g.File(fh)
	node.Stat.Size = 42

	c := clock.New(0, 1, 1)
	ctx := &ProjectContext{Clock: c, RootPath: "/root"}

	results, err := Project(ctx, []string{"name", "size", "exists", "type"}, []Candidate{
		{RelativePath: "a.txt", Node: node},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	r := results[0]
	if r["name"] != "a.txt" {
		t.Fatalf("expected name=a.txt, got %v", r["name"])
	}
	if r["size"] != int64(42) {
		t.Fatalf("expected size=42, got %v", r["size"])
	}
	if r["exists"] != true {
		t.Fatalf("expected exists=true, got %v", r["exists"])
	}
	if r["type"] != "f" {
		t.Fatalf("expected type=f, got %v", r["type"])
	}
}

func TestProjectLazySymlinkTarget(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "real.txt")
	if err := os.WriteFile(target, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(dir, "link.txt")
	if err := os.Symlink(target, link); err != nil {
		t.Fatal(err)
	}

	g := graph.New(dir, '/')
	now := time.Now()
	fh, _ := g.ResolveFile(g.Root(), "link.txt", now, 1)
	node := g.File(fh)
	node.Stat.IsSymlink = true

	c := clock.New(0, 1, 1)
	ctx := &ProjectContext{Clock: c, RootPath: dir}

	results, err := Project(ctx, []string{"symlink_target"}, []Candidate{
		{RelativePath: "link.txt", Node: node},
	})
	if err != nil {
		t.Fatal(err)
	}
	if results[0]["symlink_target"] != target {
		t.Fatalf("expected symlink_target=%q, got %v", target, results[0]["symlink_target"])
	}
}

func TestProjectLazyContentSHA1Hex(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}

	g := graph.New(dir, '/')
	now := time.Now()
	fh, _ := g.ResolveFile(g.Root(), "a.txt", now, 1)
	node := g.File(fh)

	c := clock.New(0, 1, 1)
	ctx := &ProjectContext{Clock: c, RootPath: dir}

	results, err := Project(ctx, []string{"content.sha1hex"}, []Candidate{
		{RelativePath: "a.txt", Node: node},
	})
	if err != nil {
		t.Fatal(err)
	}
	const wantSHA1 = "aaf4c61ddcc5e8a2dabede0f3b482cd9aea9434d"
	if results[0]["content.sha1hex"] != wantSHA1 {
		t.Fatalf("expected sha1 %q, got %v", wantSHA1, results[0]["content.sha1hex"])
	}
}

func TestOClockProjectsHistoricalTick(t *testing.T) {
	g := graph.New("/root", '/')
	now := time.Now()
	fh, _ := g.ResolveFile(g.Root(), "a.txt", now, 7)
	node := g.File(fh)

	c := clock.New(1000, 42, 1)
	c.Bump()
	c.Bump()
	ctx := &ProjectContext{Clock: c, RootPath: "/root"}

	results, err := Project(ctx, []string{"oclock"}, []Candidate{{RelativePath: "a.txt", Node: node}})
	if err != nil {
		t.Fatal(err)
	}
	want := c.StringAt(7)
	if results[0]["oclock"] != want {
		t.Fatalf("expected oclock=%q, got %v", want, results[0]["oclock"])
	}
}
