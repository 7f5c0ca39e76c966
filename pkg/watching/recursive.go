package watching

import (
	"sync"
	"time"

	filewatch "github.com/watchgraph/watchgraphd/pkg/filesystem/watching"
)

// recursiveAdapter composes a single filewatch.RecursiveWatcher (covering
// one root's entire subtree) into the Watcher capability set. StartWatchDir
// is only ever called once per root (for the root path itself); subsequent
// calls for subdirectories are no-ops since the underlying watcher already
// covers them.
type recursiveAdapter struct {
	underlying filewatch.RecursiveWatcher
	buffer     *eventBuffer

	mu       sync.Mutex
	rootOnce bool
}

// NewRecursive wraps an already-constructed recursive watcher, starting a
// background goroutine that drains its Events channel into an internal
// buffer.
func NewRecursive(underlying filewatch.RecursiveWatcher) Watcher {
	a := &recursiveAdapter{
		underlying: underlying,
		buffer:     newEventBuffer(),
	}
	go a.pump()
	return a
}

func (a *recursiveAdapter) pump() {
	for {
		select {
		case path, ok := <-a.underlying.Events():
			if !ok {
				return
			}
			a.buffer.push(path)
		case _, ok := <-a.underlying.Errors():
			if !ok {
				return
			}
			a.buffer.signalThreads()
			return
		}
	}
}

func (a *recursiveAdapter) Flags() Flags { return Recursive }

func (a *recursiveAdapter) StartWatchDir(absolutePath string, now time.Time) (DirHandle, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.rootOnce {
		return nil, nil
	}
	a.rootOnce = true
	return absolutePath, nil
}

func (a *recursiveAdapter) StopWatchDir(handle DirHandle) error {
	return nil
}

func (a *recursiveAdapter) StartWatchFile(absolutePath string) (FileHandle, error) {
	return nil, nil
}

func (a *recursiveAdapter) StopWatchFile(handle FileHandle) error {
	return nil
}

func (a *recursiveAdapter) ConsumeNotify() ([]string, bool) {
	return a.buffer.consume()
}

func (a *recursiveAdapter) WaitNotify(timeout time.Duration) bool {
	return a.buffer.wait(timeout)
}

func (a *recursiveAdapter) SignalThreads() {
	a.buffer.signalThreads()
}

func (a *recursiveAdapter) Terminate() error {
	return a.underlying.Terminate()
}
