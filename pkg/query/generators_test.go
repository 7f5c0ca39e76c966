package query

import (
	"testing"
	"time"

	"github.com/watchgraph/watchgraphd/pkg/clock"
	"github.com/watchgraph/watchgraphd/pkg/graph"
)

func buildTestGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New("/root", '/')
	now := time.Now()

	rootDir := g.Root()
	fh, _ := g.ResolveFile(rootDir, "a.txt", now, 1)
	_ = fh

	subDir, ok := g.ResolveDir("sub", true)
	if !ok {
		t.Fatal("expected sub directory to resolve")
	}
	g.ResolveFile(subDir, "b.log", now, 2)
	g.ResolveFile(subDir, "c.log", now, 3)

	deepDir, _ := g.ResolveDir("sub/deep", true)
	g.ResolveFile(deepDir, "d.txt", now, 4)

	return g
}

func TestAllFilesGeneratorWalksEntireTree(t *testing.T) {
	g := buildTestGraph(t)
	c := clock.New(0, 1, 1)

	candidates := Generate(g, GeneratorSpec{}, c)
	if len(candidates) != 4 {
		t.Fatalf("expected 4 files from the all-files fallback, got %d", len(candidates))
	}
}

func TestSuffixGeneratorWalksNamedSuffixList(t *testing.T) {
	g := buildTestGraph(t)
	c := clock.New(0, 1, 1)

	candidates := Generate(g, GeneratorSpec{Suffixes: []string{"log"}}, c)
	if len(candidates) != 2 {
		t.Fatalf("expected 2 .log files, got %d", len(candidates))
	}
	for _, cand := range candidates {
		if cand.RelativePath != "sub/b.log" && cand.RelativePath != "sub/c.log" {
			t.Fatalf("unexpected candidate %q", cand.RelativePath)
		}
	}
}

func TestPathGeneratorRespectsDepth(t *testing.T) {
	g := buildTestGraph(t)
	c := clock.New(0, 1, 1)

	direct := Generate(g, GeneratorSpec{Paths: []PathSpec{{Path: "sub", Depth: 0}}}, c)
	if len(direct) != 2 {
		t.Fatalf("expected depth=0 to include only sub's direct files, got %d", len(direct))
	}

	unlimited := Generate(g, GeneratorSpec{Paths: []PathSpec{{Path: "sub", Depth: -1}}}, c)
	if len(unlimited) != 3 {
		t.Fatalf("expected depth=-1 to include sub's descendants too, got %d", len(unlimited))
	}
}

func TestGlobGeneratorMatchesWholePath(t *testing.T) {
	g := buildTestGraph(t)
	c := clock.New(0, 1, 1)

	candidates := Generate(g, GeneratorSpec{Globs: []string{"sub/*.log"}}, c)
	if len(candidates) != 2 {
		t.Fatalf("expected glob sub/*.log to match 2 files, got %d", len(candidates))
	}
}

func TestMultipleGeneratorsAreUnionedByIdentity(t *testing.T) {
	g := buildTestGraph(t)
	c := clock.New(0, 1, 1)

	candidates := Generate(g, GeneratorSpec{
		Suffixes: []string{"log"},
		Globs:    []string{"sub/b.log"},
	}, c)
	if len(candidates) != 2 {
		t.Fatalf("expected union to still report 2 distinct files, got %d", len(candidates))
	}
}

func TestSinceGeneratorStopsAtTickBoundary(t *testing.T) {
	g := buildTestGraph(t)
	c := clock.New(0, 1, 1)

	spec := clock.Spec{Kind: clock.SpecClock, Ticks: 2}
	candidates := Generate(g, GeneratorSpec{Since: &spec}, c)

	for _, cand := range candidates {
		if cand.RelativePath == "a.txt" || cand.RelativePath == "sub/b.log" {
			t.Fatalf("expected files with otime<=2 to be excluded, got %q", cand.RelativePath)
		}
	}
	if len(candidates) != 2 {
		t.Fatalf("expected 2 files changed after tick 2, got %d", len(candidates))
	}
}
