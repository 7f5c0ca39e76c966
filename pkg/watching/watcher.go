// Package watching provides the platform-agnostic watcher capability-set
// facade that the crawl/notify loop programs against, composed on top of
// the lower-level RecursiveWatcher / NonRecursiveWatcher primitives kept
// from the filesystem package. Individual platform backends (inotify,
// FSEvents, ReadDirectoryChangesW) are treated as external collaborators:
// this package specifies and adapts to their contract, not their
// internals.
package watching

import (
	"time"
)

// Flags describes what a Watcher implementation supports, so the
// crawl/notify loop can decide whether it needs to fall back to
// stat'ing descendants itself (CRAWL_ONLY) rather than trusting
// per-entry notifications.
type Flags uint8

const (
	// Recursive means the watcher observes an entire subtree from a
	// single registration; StartWatchFile/StopWatchFile are unnecessary
	// and are no-ops.
	Recursive Flags = 1 << iota
	// PerFileWatch means the watcher requires (and supports) explicit
	// per-file watch registration, as with a non-recursive, best-effort,
	// LRU-evicting backend.
	PerFileWatch
	// CrawlOnly means the watcher provides no reliable notification
	// stream at all. The crawl/notify loop does not re-crawl on a timer:
	// changes under such a root are seen only by the initial crawl and by
	// explicitly scheduled recrawls (root.ScheduleRecrawl).
	CrawlOnly
)

// Has reports whether flags includes bit.
func (f Flags) Has(bit Flags) bool { return f&bit != 0 }

// DirHandle is an opaque token returned by StartWatchDir, passed back to
// StopWatchDir. Its concrete type is backend-specific.
type DirHandle interface{}

// FileHandle is an opaque token returned by StartWatchFile, passed back to
// StopWatchFile.
type FileHandle interface{}

// Watcher is the capability set the crawl/notify loop programs against,
// matching §4.7: directory and (where supported) per-file watch
// registration, a drain-pending-events operation, a blocking wait for new
// events, and a way to wake a blocked waiter from another thread.
type Watcher interface {
	// Flags reports this watcher's capabilities.
	Flags() Flags

	// StartWatchDir begins observing dir (identified by its absolute
	// path), returning an opaque handle to later pass to StopWatchDir.
	StartWatchDir(absolutePath string, now time.Time) (DirHandle, error)
	// StopWatchDir ends observation of a directory previously registered
	// with StartWatchDir.
	StopWatchDir(handle DirHandle) error

	// StartWatchFile begins observing a single file (only meaningful
	// when Flags().Has(PerFileWatch)); a no-op returning a nil handle
	// otherwise.
	StartWatchFile(absolutePath string) (FileHandle, error)
	// StopWatchFile ends observation of a file previously registered
	// with StartWatchFile.
	StopWatchFile(handle FileHandle) error

	// ConsumeNotify drains any currently buffered notifications into
	// paths and reports whether any were produced, without blocking.
	ConsumeNotify() (paths []string, produced bool)
	// WaitNotify blocks until a notification is available, the watcher
	// is signaled via SignalThreads, or timeout elapses (a non-positive
	// timeout waits indefinitely). It returns true if the wake was due
	// to an explicit signal rather than new events or a timeout.
	WaitNotify(timeout time.Duration) (signaled bool)
	// SignalThreads wakes any goroutine blocked in WaitNotify, without
	// itself producing any notification paths. Used for shutdown.
	SignalThreads()

	// Terminate releases all resources associated with the watcher. It
	// is safe to call more than once.
	Terminate() error
}
