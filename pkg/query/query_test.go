package query

import (
	"testing"
	"time"

	"github.com/watchgraph/watchgraphd/pkg/clock"
	"github.com/watchgraph/watchgraphd/pkg/graph"
)

func buildQueryTestGraph(t *testing.T) (*graph.Graph, *clock.Clock) {
	t.Helper()
	g := graph.New("/root", '/')
	c := clock.New(0, 1, 1)
	now := time.Now()

	g.ResolveFile(g.Root(), "a.txt", now, c.Bump())
	subDir, _ := g.ResolveDir("sub", true)
	g.ResolveFile(subDir, "b.txt", now, c.Bump())

	return g, c
}

func TestExecuteReturnsAllFilesByDefault(t *testing.T) {
	g, c := buildQueryTestGraph(t)
	q, err := Compile(map[string]interface{}{})
	if err != nil {
		t.Fatal(err)
	}
	ctx := &ProjectContext{Clock: c, RootPath: "/root"}

	result, err := Execute(g, c, ctx, q)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Files) != 2 {
		t.Fatalf("expected 2 files, got %d", len(result.Files))
	}
}

func TestExecuteFiltersByRelativeRoot(t *testing.T) {
	g, c := buildQueryTestGraph(t)
	q, err := Compile(map[string]interface{}{"relative_root": "sub"})
	if err != nil {
		t.Fatal(err)
	}
	ctx := &ProjectContext{Clock: c, RootPath: "/root"}

	result, err := Execute(g, c, ctx, q)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Files) != 1 {
		t.Fatalf("expected 1 file under sub/, got %d", len(result.Files))
	}
	if result.Files[0]["name"] != "sub/b.txt" {
		t.Fatalf("expected sub/b.txt, got %v", result.Files[0]["name"])
	}
}

func TestExecuteAppliesExpressionFilter(t *testing.T) {
	g, c := buildQueryTestGraph(t)
	q, err := Compile(map[string]interface{}{
		"expression": []interface{}{"suffix", "txt"},
	})
	if err != nil {
		t.Fatal(err)
	}
	ctx := &ProjectContext{Clock: c, RootPath: "/root"}

	result, err := Execute(g, c, ctx, q)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Files) != 2 {
		t.Fatalf("expected both .txt files to match, got %d", len(result.Files))
	}
}

func TestExecuteFreshInstanceReportsEmptyWhenRequested(t *testing.T) {
	g, c := buildQueryTestGraph(t)
	q, err := Compile(map[string]interface{}{
		"since":                   "c:0:0:0:0",
		"empty_on_fresh_instance": true,
	})
	if err != nil {
		t.Fatal(err)
	}
	ctx := &ProjectContext{Clock: c, RootPath: "/root"}

	result, err := Execute(g, c, ctx, q)
	if err != nil {
		t.Fatal(err)
	}
	if !result.IsFreshInstance {
		t.Fatal("expected a clockspec referencing a different root incarnation to be fresh-instance")
	}
	if len(result.Files) != 0 {
		t.Fatalf("expected empty_on_fresh_instance to suppress results, got %d", len(result.Files))
	}
}

func TestExecuteFreshInstanceReturnsEverythingWhenNotSuppressed(t *testing.T) {
	g, c := buildQueryTestGraph(t)
	q, err := Compile(map[string]interface{}{
		"since": "c:0:0:0:0",
	})
	if err != nil {
		t.Fatal(err)
	}
	ctx := &ProjectContext{Clock: c, RootPath: "/root"}

	result, err := Execute(g, c, ctx, q)
	if err != nil {
		t.Fatal(err)
	}
	if !result.IsFreshInstance {
		t.Fatal("expected fresh-instance to be reported")
	}
	if len(result.Files) != 2 {
		t.Fatalf("expected every currently-present file without suppression, got %d", len(result.Files))
	}
}

func TestExecuteIncrementalSinceQuery(t *testing.T) {
	g, c := buildQueryTestGraph(t)
	startClock := c.String()

	now := time.Now()
	g.MarkFileChanged(mustResolveFile(t, g, "", "a.txt"), now, c.Bump())

	q, err := Compile(map[string]interface{}{
		"since": startClock,
	})
	if err != nil {
		t.Fatal(err)
	}
	ctx := &ProjectContext{Clock: c, RootPath: "/root"}

	result, err := Execute(g, c, ctx, q)
	if err != nil {
		t.Fatal(err)
	}
	if result.IsFreshInstance {
		t.Fatal("expected a same-incarnation clockspec to not be fresh-instance")
	}
	if len(result.Files) != 1 || result.Files[0]["name"] != "a.txt" {
		t.Fatalf("expected only a.txt to have changed since start, got %v", result.Files)
	}
}

func mustResolveFile(t *testing.T, g *graph.Graph, dir, name string) graph.FileHandle {
	t.Helper()
	dirHandle, ok := g.ResolveDir(dir, false)
	if !ok {
		t.Fatalf("expected directory %q to resolve", dir)
	}
	dirNode := g.Dir(dirHandle)
	handle, ok := dirNode.Files[name]
	if !ok {
		t.Fatalf("expected file %q to exist in %q", name, dir)
	}
	return handle
}
