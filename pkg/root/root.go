// Package root implements one watched root's state and the crawl/notify
// loop (the "io thread") that merges OS watcher events with the pending
// queue, drives directory reconciliation, and dispatches subscriptions and
// triggers at settle points.
package root

import (
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/watchgraph/watchgraphd/pkg/clock"
	"github.com/watchgraph/watchgraphd/pkg/graph"
	"github.com/watchgraph/watchgraphd/pkg/ignore"
	"github.com/watchgraph/watchgraphd/pkg/pending"
	"github.com/watchgraph/watchgraphd/pkg/watching"
)

// Config holds the subset of the daemon's JSON configuration that governs a
// single root's crawl/notify behavior.
type Config struct {
	// Settle is how long the io thread waits for the pending queue to go
	// quiet before treating accumulated work as a settle point.
	Settle time.Duration
	// MaxSleep bounds the exponential back-off applied to the wait
	// timeout while idle.
	MaxSleep time.Duration
	// GCAge is how long a deleted file's node is retained before age-out
	// reaps it.
	GCAge time.Duration
	// GCInterval is the minimum spacing between age-out sweeps.
	GCInterval time.Duration
	// IdleReapAge is how long a root with no subscribers and no recent
	// client activity is left running before it is torn down.
	IdleReapAge time.Duration
	// SuppressRecrawlWarnings, if set, omits the recrawl-warning field
	// from subsequent query responses (the recrawl still happens).
	SuppressRecrawlWarnings bool
}

// DefaultConfig returns the configuration Watchman itself defaults to when a
// key is absent from the JSON config file.
func DefaultConfig() Config {
	return Config{
		Settle:      20 * time.Millisecond,
		MaxSleep:    10 * time.Second,
		GCAge:       5 * time.Minute,
		GCInterval:  10 * time.Second,
		IdleReapAge: 2 * 24 * time.Hour,
	}
}

// ActivityProbe reports how many subscribers a root currently has and when
// a client last issued a command against it, so consider_reap can decide
// whether the root is idle enough to tear down. It is wired by pkg/service
// once the subscription manager and listener exist; a root with no probe
// attached is never reaped.
type ActivityProbe func() (subscriberCount int, lastActivity time.Time)

// Root is one watched directory tree's complete state: the directory/file
// graph, the logical clock, the coalescing pending queue, the ignore
// engine, and the platform watcher, plus the bookkeeping the io thread
// needs (done_initial, recrawl count/reason, poison/failure reasons).
type Root struct {
	// Path is the root's absolute, real (symlink-resolved) path.
	Path string
	// Number distinguishes this root instance for clock identity
	// purposes (see pkg/clock); it is assigned by the owning registry.
	Number int32

	lock *PurposeLock

	Graph      *graph.Graph
	Clock      *clock.Clock
	Pending    *pending.Queue
	Ignore     *ignore.Engine
	Watcher    watching.Watcher
	CookieSync *clock.CookieSync

	config Config

	// SettleHook, when non-nil, is invoked once per settle point (after a
	// reconcile batch, or after an idle wait found nothing pending) so
	// that subscription dispatch and trigger execution can be plugged in
	// without this package depending on pkg/subscription.
	SettleHook func(*Root)
	// Activity reports subscriber/client activity for consider_reap; see
	// ActivityProbe.
	Activity ActivityProbe

	cancelled   int32
	doneInitial int32

	mu            sync.Mutex
	recrawlCount  uint32
	recrawlReason string
	poisonReason  error
	failureReason error
	lastAgeOut    time.Time
	lastActivity  time.Time

	pendingSymlinks []string

	stopped chan struct{}
}

// New constructs a Root rooted at absolutePath. The watcher must already be
// started and pointed at absolutePath; the io thread drives it via Run.
func New(absolutePath string, number int32, w watching.Watcher, ig *ignore.Engine, cfg Config) *Root {
	now := time.Now()
	return &Root{
		Path:       absolutePath,
		Number:     number,
		lock:       NewPurposeLock(),
		Graph:      graph.New(absolutePath, '/'),
		Clock:      clock.New(now.UnixNano(), int32(os.Getpid()), number),
		Pending:    pending.New('/'),
		Ignore:     ig,
		Watcher:    w,
		CookieSync: clock.NewCookieSync(),
		config:     cfg,
		lastAgeOut: now,
		stopped:    make(chan struct{}),
	}
}

// Lock acquires the root's write lock for purpose, waiting up to timeout
// (non-positive waits indefinitely). It reports the current holder's
// purpose on timeout.
func (r *Root) Lock(purpose string, timeout time.Duration) (bool, string) {
	return r.lock.Lock(purpose, timeout)
}

// Unlock releases a write lock acquired via Lock.
func (r *Root) Unlock() { r.lock.Unlock() }

// RLock acquires the root's read lock, waiting up to timeout.
func (r *Root) RLock(timeout time.Duration) (bool, string) {
	return r.lock.RLock(timeout)
}

// RUnlock releases a read lock acquired via RLock.
func (r *Root) RUnlock() { r.lock.RUnlock() }

// Cancel marks the root as cancelled; the io thread exits its loop at the
// next opportunity and closes Stopped.
func (r *Root) Cancel() {
	atomic.StoreInt32(&r.cancelled, 1)
	r.Pending.Ping()
	r.Watcher.SignalThreads()
}

// Cancelled reports whether Cancel has been called.
func (r *Root) Cancelled() bool {
	return atomic.LoadInt32(&r.cancelled) != 0
}

// Stopped is closed once the io thread's Run loop has exited.
func (r *Root) Stopped() <-chan struct{} {
	return r.stopped
}

func (r *Root) doneInitialCrawl() bool {
	return atomic.LoadInt32(&r.doneInitial) != 0
}

func (r *Root) setDoneInitialCrawl(done bool) {
	var v int32
	if done {
		v = 1
	}
	atomic.StoreInt32(&r.doneInitial, v)
}

// ScheduleRecrawl marks the root for a full recrawl: the next loop
// iteration re-walks the entire tree from the root path. reason is
// surfaced as a warning on every subsequent query response until the
// recrawl completes (unless Config.SuppressRecrawlWarnings is set).
func (r *Root) ScheduleRecrawl(reason string) {
	r.mu.Lock()
	r.recrawlCount++
	r.recrawlReason = reason
	r.mu.Unlock()
	r.setDoneInitialCrawl(false)
	r.Pending.Ping()
}

// RecrawlInfo reports the current recrawl count and the most recent
// recrawl's reason (empty if none has occurred).
func (r *Root) RecrawlInfo() (count uint32, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recrawlCount, r.recrawlReason
}

// Poison records a process-wide-visible unrecoverable condition. Once set
// it never clears; every subsequent non-whitelisted command must fail with
// this reason.
func (r *Root) Poison(err error) {
	r.mu.Lock()
	if r.poisonReason == nil {
		r.poisonReason = err
	}
	r.mu.Unlock()
	r.Cancel()
}

// PoisonReason returns the poison error, or nil if the root is healthy.
func (r *Root) PoisonReason() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.poisonReason
}

// Fail records a fatal startup error (distinct from Poison, which applies
// to an otherwise-successfully-started root that later enters an
// unrecoverable state).
func (r *Root) Fail(err error) {
	r.mu.Lock()
	r.failureReason = err
	r.mu.Unlock()
}

// FailureReason returns the startup failure error, or nil.
func (r *Root) FailureReason() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.failureReason
}

// Touch records client activity for consider_reap's idle-age calculation.
func (r *Root) Touch() {
	r.mu.Lock()
	r.lastActivity = time.Now()
	r.mu.Unlock()
}

func (r *Root) lastActivityTime() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastActivity
}

// enqueueSymlink records path as needing its symlink-target watch resolved
// by a later process_pending_symlink_targets pass.
func (r *Root) enqueueSymlink(path string) {
	r.mu.Lock()
	r.pendingSymlinks = append(r.pendingSymlinks, path)
	r.mu.Unlock()
}

func (r *Root) drainPendingSymlinks() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.pendingSymlinks) == 0 {
		return nil
	}
	out := r.pendingSymlinks
	r.pendingSymlinks = nil
	return out
}

var errRootUnmounted = errors.New("root: underlying path is no longer accessible")
