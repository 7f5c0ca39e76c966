package watching

import (
	"sync"
	"time"
)

// crawlOnlyWatcher is a Watcher that produces no notifications of its own.
// It exists so a root on a platform (or configuration) with no usable
// native watch backend can still be served by the same crawl/notify loop.
// No event ever arrives from it, and the loop schedules no periodic
// re-crawl, so after the initial crawl the tree is re-scanned only when a
// recrawl is explicitly scheduled.
type crawlOnlyWatcher struct {
	done     chan struct{}
	closeOne sync.Once
}

// NewCrawlOnly returns a Watcher with no real notification source.
func NewCrawlOnly() Watcher {
	return &crawlOnlyWatcher{done: make(chan struct{})}
}

func (w *crawlOnlyWatcher) Flags() Flags { return CrawlOnly }

func (w *crawlOnlyWatcher) StartWatchDir(absolutePath string, now time.Time) (DirHandle, error) {
	return nil, nil
}

func (w *crawlOnlyWatcher) StopWatchDir(handle DirHandle) error { return nil }

func (w *crawlOnlyWatcher) StartWatchFile(absolutePath string) (FileHandle, error) {
	return nil, nil
}

func (w *crawlOnlyWatcher) StopWatchFile(handle FileHandle) error { return nil }

func (w *crawlOnlyWatcher) ConsumeNotify() ([]string, bool) { return nil, false }

func (w *crawlOnlyWatcher) WaitNotify(timeout time.Duration) bool {
	if timeout <= 0 {
		<-w.done
		return true
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-w.done:
		return true
	case <-timer.C:
		return false
	}
}

func (w *crawlOnlyWatcher) SignalThreads() {
	w.closeOne.Do(func() { close(w.done) })
}

func (w *crawlOnlyWatcher) Terminate() error {
	w.SignalThreads()
	return nil
}
