package root

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/watchgraph/watchgraphd/pkg/ignore"
	"github.com/watchgraph/watchgraphd/pkg/watching"
)

func testConfig() Config {
	return Config{
		Settle:      5 * time.Millisecond,
		MaxSleep:    20 * time.Millisecond,
		GCAge:       time.Hour,
		GCInterval:  time.Hour,
		IdleReapAge: 0,
	}
}

func runBriefly(t *testing.T, r *Root) {
	t.Helper()
	go r.Run()
	// Give the initial crawl and at least one idle cycle a chance to run.
	time.Sleep(40 * time.Millisecond)
	r.Cancel()
	select {
	case <-r.Stopped():
	case <-time.After(2 * time.Second):
		t.Fatal("io loop did not stop after Cancel")
	}
}

func TestInitialCrawlDiscoversExistingFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "sub", "b.txt"), []byte("world"), 0644); err != nil {
		t.Fatal(err)
	}

	w := watching.NewManual(watching.CrawlOnly)
	r := New(dir, 1, w, ignore.New('/'), testConfig())
	runBriefly(t, r)

	root, ok := r.Graph.ResolveDir("", false)
	if !ok {
		t.Fatal("expected root directory to resolve")
	}
	rootNode := r.Graph.Dir(root)
	if _, ok := rootNode.Files["a.txt"]; !ok {
		t.Fatal("expected a.txt to be discovered by the initial crawl")
	}

	subDir, ok := r.Graph.ResolveDir("sub", false)
	if !ok {
		t.Fatal("expected sub directory to be discovered")
	}
	subNode := r.Graph.Dir(subDir)
	if _, ok := subNode.Files["b.txt"]; !ok {
		t.Fatal("expected sub/b.txt to be discovered by the initial crawl")
	}
}

func TestDeletedFileIsMarkedNotExistsOnRecrawl(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "gone.txt")
	if err := os.WriteFile(target, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	w := watching.NewManual(watching.CrawlOnly)
	r := New(dir, 1, w, ignore.New('/'), testConfig())

	go r.Run()
	time.Sleep(20 * time.Millisecond)

	if err := os.Remove(target); err != nil {
		t.Fatal(err)
	}
	r.ScheduleRecrawl("test removal")

	time.Sleep(40 * time.Millisecond)
	r.Cancel()
	<-r.Stopped()

	rootHandle, _ := r.Graph.ResolveDir("", false)
	rootNode := r.Graph.Dir(rootHandle)
	handle, ok := rootNode.Files["gone.txt"]
	if !ok {
		t.Fatal("expected the node for gone.txt to be retained after deletion")
	}
	if r.Graph.File(handle).Exists {
		t.Fatal("expected gone.txt to be marked as not existing after recrawl")
	}
}

func TestScheduleRecrawlIncrementsCountAndReason(t *testing.T) {
	dir := t.TempDir()
	w := watching.NewManual(watching.CrawlOnly)
	r := New(dir, 1, w, ignore.New('/'), testConfig())

	r.ScheduleRecrawl("notification overflow")
	count, reason := r.RecrawlInfo()
	if count != 1 || reason != "notification overflow" {
		t.Fatalf("expected recrawl count=1 reason=%q, got count=%d reason=%q", "notification overflow", count, reason)
	}
}

func TestPoisonIsSticky(t *testing.T) {
	dir := t.TempDir()
	w := watching.NewManual(watching.CrawlOnly)
	r := New(dir, 1, w, ignore.New('/'), testConfig())

	r.Poison(errTestPoison)
	r.Poison(errOtherPoison)

	if r.PoisonReason() != errTestPoison {
		t.Fatal("expected the first poison reason to stick")
	}
	if !r.Cancelled() {
		t.Fatal("expected Poison to cancel the root")
	}
}

func TestConsiderReapRequiresIdleActivityProbe(t *testing.T) {
	dir := t.TempDir()
	w := watching.NewManual(watching.CrawlOnly)
	cfg := testConfig()
	cfg.IdleReapAge = 10 * time.Millisecond
	r := New(dir, 1, w, ignore.New('/'), cfg)
	r.Activity = func() (int, time.Time) {
		return 0, time.Now().Add(-time.Hour)
	}

	if !r.considerReap() {
		t.Fatal("expected an idle root with zero subscribers to be reapable")
	}

	r.Activity = func() (int, time.Time) {
		return 1, time.Now().Add(-time.Hour)
	}
	if r.considerReap() {
		t.Fatal("expected a root with an active subscriber to not be reapable")
	}
}

var (
	errTestPoison  = newTestError("poison reason one")
	errOtherPoison = newTestError("poison reason two")
)

type testError string

func (e testError) Error() string { return string(e) }

func newTestError(s string) error { return testError(s) }
