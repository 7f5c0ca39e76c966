package watching

import (
	"errors"
	"testing"
	"time"
)

type fakeRecursiveWatcher struct {
	events chan string
	errs   chan error
}

func newFakeRecursiveWatcher() *fakeRecursiveWatcher {
	return &fakeRecursiveWatcher{
		events: make(chan string, 8),
		errs:   make(chan error, 1),
	}
}

func (f *fakeRecursiveWatcher) Events() <-chan string { return f.events }
func (f *fakeRecursiveWatcher) Errors() <-chan error  { return f.errs }
func (f *fakeRecursiveWatcher) Terminate() error      { return nil }

type fakeNonRecursiveWatcher struct {
	watched map[string]bool
	events  chan map[string]bool
	errs    chan error
}

func newFakeNonRecursiveWatcher() *fakeNonRecursiveWatcher {
	return &fakeNonRecursiveWatcher{
		watched: make(map[string]bool),
		events:  make(chan map[string]bool, 8),
		errs:    make(chan error, 1),
	}
}

func (f *fakeNonRecursiveWatcher) Watch(path string)              { f.watched[path] = true }
func (f *fakeNonRecursiveWatcher) Unwatch(path string)             { delete(f.watched, path) }
func (f *fakeNonRecursiveWatcher) Events() <-chan map[string]bool  { return f.events }
func (f *fakeNonRecursiveWatcher) Errors() <-chan error            { return f.errs }
func (f *fakeNonRecursiveWatcher) Terminate() error                { return nil }

func TestRecursiveAdapterBuffersEventsUntilConsumed(t *testing.T) {
	underlying := newFakeRecursiveWatcher()
	w := NewRecursive(underlying)
	defer w.Terminate()

	if w.Flags() != Recursive {
		t.Fatal("expected Recursive flag")
	}

	underlying.events <- "/root/a"
	underlying.events <- "/root/b"

	if !w.WaitNotify(time.Second) {
		// WaitNotify returning false here means it woke due to an event,
		// which is the expected path (not a signal).
	}

	deadline := time.After(time.Second)
	var paths []string
	for len(paths) < 2 {
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for buffered paths, got %v", paths)
		default:
		}
		p, produced := w.ConsumeNotify()
		if produced {
			paths = append(paths, p...)
		}
	}
	if len(paths) != 2 {
		t.Fatalf("expected 2 paths, got %v", paths)
	}
}

func TestRecursiveAdapterSignalThreadsWakesWaitNotify(t *testing.T) {
	underlying := newFakeRecursiveWatcher()
	w := NewRecursive(underlying)
	defer w.Terminate()

	done := make(chan bool, 1)
	go func() {
		done <- w.WaitNotify(5 * time.Second)
	}()

	time.Sleep(10 * time.Millisecond)
	w.SignalThreads()

	select {
	case signaled := <-done:
		if !signaled {
			t.Fatal("expected WaitNotify to report signaled=true")
		}
	case <-time.After(time.Second):
		t.Fatal("WaitNotify did not return after SignalThreads")
	}
}

func TestNonRecursiveAdapterStartWatchFileRegistersPath(t *testing.T) {
	underlying := newFakeNonRecursiveWatcher()
	w := NewNonRecursive(underlying)
	defer w.Terminate()

	if w.Flags() != PerFileWatch {
		t.Fatal("expected PerFileWatch flag")
	}

	handle, err := w.StartWatchFile("/root/a/file.txt")
	if err != nil {
		t.Fatal(err)
	}
	if !underlying.watched["/root/a/file.txt"] {
		t.Fatal("expected underlying watcher to register the path")
	}
	if err := w.StopWatchFile(handle); err != nil {
		t.Fatal(err)
	}
	if underlying.watched["/root/a/file.txt"] {
		t.Fatal("expected underlying watcher to unregister the path")
	}
}

func TestNonRecursiveAdapterFlattensCoalescedEventMap(t *testing.T) {
	underlying := newFakeNonRecursiveWatcher()
	w := NewNonRecursive(underlying)
	defer w.Terminate()

	underlying.events <- map[string]bool{"/root/a": true, "/root/b": true}

	deadline := time.After(time.Second)
	var paths []string
	for len(paths) < 2 {
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for buffered paths, got %v", paths)
		default:
		}
		p, produced := w.ConsumeNotify()
		if produced {
			paths = append(paths, p...)
		}
	}
}

func TestNonRecursiveAdapterErrorWakesWaiter(t *testing.T) {
	underlying := newFakeNonRecursiveWatcher()
	w := NewNonRecursive(underlying)
	defer w.Terminate()

	underlying.errs <- errors.New("boom")

	if !w.WaitNotify(time.Second) {
		t.Fatal("expected underlying error to wake WaitNotify")
	}
}

func TestCrawlOnlyWatcherReportsFlagAndNeverProducesEvents(t *testing.T) {
	w := NewCrawlOnly()
	if w.Flags() != CrawlOnly {
		t.Fatal("expected CrawlOnly flag")
	}
	if _, produced := w.ConsumeNotify(); produced {
		t.Fatal("expected crawl-only watcher to never produce notifications")
	}
	if w.WaitNotify(20 * time.Millisecond) {
		t.Fatal("expected WaitNotify to time out, not report a signal")
	}
}

func TestCrawlOnlyWatcherTerminateWakesWaiters(t *testing.T) {
	w := NewCrawlOnly()

	done := make(chan bool, 1)
	go func() {
		done <- w.WaitNotify(5 * time.Second)
	}()

	time.Sleep(10 * time.Millisecond)
	if err := w.Terminate(); err != nil {
		t.Fatal(err)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("WaitNotify did not return after Terminate")
	}

	// Terminate must be safe to call more than once.
	if err := w.Terminate(); err != nil {
		t.Fatal(err)
	}
}
