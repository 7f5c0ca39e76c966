package service

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/watchgraph/watchgraphd/pkg/watching"
)

// fakeWatcher is a minimal watching.Watcher stand-in for exercising
// watcherName without starting a real platform backend.
type fakeWatcher struct {
	flags watching.Flags
}

func (f *fakeWatcher) Flags() watching.Flags { return f.flags }
func (f *fakeWatcher) StartWatchDir(string, time.Time) (watching.DirHandle, error) {
	return nil, nil
}
func (f *fakeWatcher) StopWatchDir(watching.DirHandle) error { return nil }
func (f *fakeWatcher) StartWatchFile(string) (watching.FileHandle, error) {
	return nil, nil
}
func (f *fakeWatcher) StopWatchFile(watching.FileHandle) error      { return nil }
func (f *fakeWatcher) ConsumeNotify() ([]string, bool)              { return nil, false }
func (f *fakeWatcher) WaitNotify(time.Duration) bool                { return false }
func (f *fakeWatcher) SignalThreads()                               {}
func (f *fakeWatcher) Terminate() error                             { return nil }

func TestWatcherName(t *testing.T) {
	cases := []struct {
		flags watching.Flags
		want  string
	}{
		{watching.CrawlOnly, "crawl-only"},
		{watching.Recursive, "recursive"},
		{watching.PerFileWatch, "per-file"},
		{0, "unknown"},
		{watching.CrawlOnly | watching.Recursive, "crawl-only"},
	}
	for _, c := range cases {
		got := watcherName(&fakeWatcher{flags: c.flags})
		if got != c.want {
			t.Errorf("watcherName(%v) = %q, want %q", c.flags, got, c.want)
		}
	}
}

func TestResolvePathFollowsSymlinks(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "real")
	if err := os.Mkdir(target, 0755); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(dir, "link")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unavailable in this environment: %v", err)
	}

	resolved, err := resolvePath(link)
	if err != nil {
		t.Fatalf("resolvePath: %v", err)
	}

	wantReal, err := filepath.EvalSymlinks(target)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != wantReal {
		t.Fatalf("resolvePath(%q) = %q, want %q", link, resolved, wantReal)
	}
}

func TestResolvePathRejectsMissingPath(t *testing.T) {
	if _, err := resolvePath(filepath.Join(t.TempDir(), "does-not-exist")); err == nil {
		t.Fatal("expected an error resolving a nonexistent path")
	}
}

func TestFindProjectRootWalksUpward(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".project-root"), nil, 0644); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(dir, "a", "b", "c")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	found, ok := findProjectRoot(nested, []string{".project-root"})
	if !ok {
		t.Fatal("expected to find the project root")
	}
	if found != dir {
		t.Fatalf("findProjectRoot = %q, want %q", found, dir)
	}
}

func TestFindProjectRootReportsNotFound(t *testing.T) {
	dir := t.TempDir()
	if _, ok := findProjectRoot(dir, []string{".nonexistent-marker"}); ok {
		t.Fatal("expected no project root to be found")
	}
}

func TestContextWithOptionalTimeoutUnbounded(t *testing.T) {
	ctx, cancel := contextWithOptionalTimeout(0)
	defer cancel()
	if _, ok := ctx.Deadline(); ok {
		t.Fatal("expected a zero timeout to produce an unbounded context")
	}
}

func TestContextWithOptionalTimeoutBounded(t *testing.T) {
	ctx, cancel := contextWithOptionalTimeout(time.Second)
	defer cancel()
	if _, ok := ctx.Deadline(); !ok {
		t.Fatal("expected a positive timeout to produce a bounded context")
	}
}
