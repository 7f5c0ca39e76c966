package watching

import (
	"sync"
	"time"
)

// eventBuffer accumulates paths delivered asynchronously by an underlying
// watcher's event channel and exposes them through the ConsumeNotify/
// WaitNotify contract. A background goroutine is the sole reader of the
// underlying channel, so a path observed by WaitNotify is never lost before
// a subsequent ConsumeNotify can drain it.
type eventBuffer struct {
	mu      sync.Mutex
	pending []string
	woken   chan struct{}
	signal  chan struct{}
}

func newEventBuffer() *eventBuffer {
	return &eventBuffer{
		woken:  make(chan struct{}, 1),
		signal: make(chan struct{}, 1),
	}
}

// push appends paths to the buffer and wakes a pending WaitNotify.
func (b *eventBuffer) push(paths ...string) {
	if len(paths) == 0 {
		return
	}
	b.mu.Lock()
	b.pending = append(b.pending, paths...)
	b.mu.Unlock()
	select {
	case b.woken <- struct{}{}:
	default:
	}
}

// consume drains and returns all currently buffered paths.
func (b *eventBuffer) consume() ([]string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.pending) == 0 {
		return nil, false
	}
	paths := b.pending
	b.pending = nil
	return paths, true
}

// wait blocks until a path is buffered, an explicit signal arrives via
// signalThreads, or timeout elapses (a non-positive timeout waits
// indefinitely). It reports whether the wake was due to an explicit signal.
func (b *eventBuffer) wait(timeout time.Duration) bool {
	var timer *time.Timer
	var timerCh <-chan time.Time
	if timeout > 0 {
		timer = time.NewTimer(timeout)
		timerCh = timer.C
		defer timer.Stop()
	}

	b.mu.Lock()
	hasPending := len(b.pending) > 0
	b.mu.Unlock()
	if hasPending {
		return false
	}

	select {
	case <-b.signal:
		return true
	case <-b.woken:
		return false
	case <-timerCh:
		return false
	}
}

// signalThreads wakes a blocked wait without affecting buffered paths.
func (b *eventBuffer) signalThreads() {
	select {
	case b.signal <- struct{}{}:
	default:
	}
}
