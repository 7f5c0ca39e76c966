package watching

import (
	"time"

	filewatch "github.com/watchgraph/watchgraphd/pkg/filesystem/watching"
)

// nonRecursiveAdapter composes a filewatch.NonRecursiveWatcher, which
// requires an explicit per-file watch to be registered for every path the
// crawl/notify loop cares about, into the Watcher capability set.
// StartWatchDir registers a watch on the directory itself (so renames,
// creations and deletions of its direct children surface as events on the
// directory path), while StartWatchFile registers a watch on an individual
// file for content and metadata changes.
type nonRecursiveAdapter struct {
	underlying filewatch.NonRecursiveWatcher
	buffer     *eventBuffer
}

// NewNonRecursive wraps an already-constructed non-recursive watcher,
// starting a background goroutine that drains its Events channel into an
// internal buffer.
func NewNonRecursive(underlying filewatch.NonRecursiveWatcher) Watcher {
	a := &nonRecursiveAdapter{
		underlying: underlying,
		buffer:     newEventBuffer(),
	}
	go a.pump()
	return a
}

func (a *nonRecursiveAdapter) pump() {
	for {
		select {
		case changed, ok := <-a.underlying.Events():
			if !ok {
				return
			}
			paths := make([]string, 0, len(changed))
			for path := range changed {
				paths = append(paths, path)
			}
			a.buffer.push(paths...)
		case _, ok := <-a.underlying.Errors():
			if !ok {
				return
			}
			a.buffer.signalThreads()
			return
		}
	}
}

func (a *nonRecursiveAdapter) Flags() Flags { return PerFileWatch }

func (a *nonRecursiveAdapter) StartWatchDir(absolutePath string, now time.Time) (DirHandle, error) {
	a.underlying.Watch(absolutePath)
	return absolutePath, nil
}

func (a *nonRecursiveAdapter) StopWatchDir(handle DirHandle) error {
	if path, ok := handle.(string); ok {
		a.underlying.Unwatch(path)
	}
	return nil
}

func (a *nonRecursiveAdapter) StartWatchFile(absolutePath string) (FileHandle, error) {
	a.underlying.Watch(absolutePath)
	return absolutePath, nil
}

func (a *nonRecursiveAdapter) StopWatchFile(handle FileHandle) error {
	if path, ok := handle.(string); ok {
		a.underlying.Unwatch(path)
	}
	return nil
}

func (a *nonRecursiveAdapter) ConsumeNotify() ([]string, bool) {
	return a.buffer.consume()
}

func (a *nonRecursiveAdapter) WaitNotify(timeout time.Duration) bool {
	return a.buffer.wait(timeout)
}

func (a *nonRecursiveAdapter) SignalThreads() {
	a.buffer.signalThreads()
}

func (a *nonRecursiveAdapter) Terminate() error {
	return a.underlying.Terminate()
}
