package root

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mutagen-io/extstat"

	"github.com/watchgraph/watchgraphd/pkg/clock"
	"github.com/watchgraph/watchgraphd/pkg/graph"
	"github.com/watchgraph/watchgraphd/pkg/intern"
	"github.com/watchgraph/watchgraphd/pkg/pending"
	"github.com/watchgraph/watchgraphd/pkg/watching"
)

// Run drives the crawl/notify loop until the root is cancelled. It is meant
// to be the entire body of the io thread's goroutine; callers should launch
// it with `go root.Run()` and wait on root.Stopped() for completion.
func (r *Root) Run() {
	defer close(r.stopped)

	timeout := r.config.Settle

	for !r.Cancelled() {
		if !r.doneInitialCrawl() {
			r.Clock.Bump()
			r.Pending.Add(intern.NewFromString(""), pending.Recursive, time.Now())
			r.drainAndReconcileUntilEmpty()
			r.setDoneInitialCrawl(true)
			timeout = r.config.Settle
			continue
		}

		pinged := r.Pending.LockAndWait(timeout)
		local := r.Pending.Drain()

		if len(local) == 0 && !pinged {
			r.processPendingSymlinkTargets()
			if !r.doneInitialCrawl() {
				continue
			}
			if r.SettleHook != nil {
				r.SettleHook(r)
			}
			if r.considerReap() {
				r.Watcher.Terminate()
				break
			}
			r.considerAgeOut()
			timeout = minDuration(r.config.MaxSleep, timeout*2)
			continue
		}

		r.Clock.Bump()
		r.considerAgeOut()
		r.reconcile(local)
		timeout = r.config.Settle
	}
}

// drainAndReconcileUntilEmpty repeatedly drains and reconciles the pending
// queue until it goes empty, used for the initial crawl (whose own
// reconciliation recursively enqueues descendants).
func (r *Root) drainAndReconcileUntilEmpty() {
	for {
		r.Pending.LockAndWait(0)
		local := r.Pending.Drain()
		if len(local) == 0 {
			return
		}
		r.reconcile(local)
	}
}

// reconcile processes each queued item by calling processPath, holding the
// root's write lock for the whole batch: processPath may itself enqueue
// further items (newly discovered children), but those are left for the
// next reconcile call rather than processed under this same lock
// acquisition, so a single batch can't starve a waiting reader or command
// handler indefinitely.
func (r *Root) reconcile(items []pending.Item) {
	ok, _ := r.Lock("io-reconcile", 0)
	if !ok {
		return
	}
	defer r.Unlock()

	for _, item := range items {
		r.processPath(item.Path.String(), item.Flags)
	}
}

// processPath reconciles a single path against the filesystem: stats it,
// updates or removes the corresponding graph node(s), and for directories
// enqueues any newly discovered or newly missing children for their own
// processing pass.
func (r *Root) processPath(relativePath string, flags pending.Flags) {
	now := time.Now()
	ticks := r.Clock.Ticks()
	absolutePath := filepath.Join(r.Path, relativePath)

	info, err := os.Lstat(absolutePath)
	if err != nil {
		if relativePath == "" {
			// The root path itself is gone (unmounted, removed, or
			// replaced out from under the watch): there is nothing
			// left to reconcile against, so poison rather than keep
			// marking an ever-growing subtree missing.
			r.Poison(errRootUnmounted)
			return
		}
		r.markMissing(relativePath, now, ticks)
		return
	}

	parentDir, fileName := splitRelative(relativePath)

	if clock.IsCookie(fileName) {
		// Cookie-sync bookkeeping files are consumed here rather than
		// folded into the graph: their only purpose is to mark a point
		// in the notify stream, never to appear in query results.
		r.CookieSync.Observe(fileName)
		return
	}

	if r.Ignore != nil && r.Ignore.Classify(relativePath).Ignored() {
		return
	}

	if info.IsDir() {
		r.processDirectory(relativePath, absolutePath, now, ticks)
		return
	}

	dirHandle, ok := r.Graph.ResolveDir(parentDir, true)
	if !ok {
		return
	}
	fileHandle, created := r.Graph.ResolveFile(dirHandle, fileName, now, ticks)
	node := r.Graph.File(fileHandle)
	if node == nil {
		return
	}
	node.Stat = statFromInfo(info)
	if !created {
		r.Graph.MarkFileChanged(fileHandle, now, ticks)
	}

	if node.Stat.IsSymlink {
		r.enqueueSymlink(absolutePath)
	}

	if r.Watcher.Flags().Has(watching.PerFileWatch) && created {
		if handle, err := r.Watcher.StartWatchFile(absolutePath); err == nil {
			node.Watch = handle
		}
	}
}

// processDirectory reconciles a directory: it ensures the directory node
// exists, registers a watch on it when the watcher requires per-directory
// registration, reads its current children, enqueues newly-seen children
// for their own processPath pass, and marks children that have disappeared
// since the last crawl as deleted.
func (r *Root) processDirectory(relativePath, absolutePath string, now time.Time, ticks uint32) {
	dirHandle, ok := r.Graph.ResolveDir(relativePath, true)
	if !ok {
		return
	}
	dirNode := r.Graph.Dir(dirHandle)
	if dirNode == nil {
		return
	}

	if !r.Watcher.Flags().Has(watching.Recursive) {
		if dirNode.Watch == nil {
			if handle, err := r.Watcher.StartWatchDir(absolutePath, now); err == nil {
				dirNode.Watch = handle
			}
		}
	}

	entries, err := os.ReadDir(absolutePath)
	if err != nil {
		// The directory vanished or became unreadable between the Lstat
		// above and this ReadDir; treat it the same as a missing path.
		r.markMissing(relativePath, now, ticks)
		return
	}

	seen := make(map[string]bool, len(entries))
	for _, entry := range entries {
		seen[entry.Name()] = true
		childRelative := joinRelative(relativePath, entry.Name())
		if _, knownDir := dirNode.Children[entry.Name()]; knownDir {
			continue
		}
		if _, knownFile := dirNode.Files[entry.Name()]; knownFile {
			continue
		}
		r.Pending.Add(intern.NewFromString(childRelative), pending.ViaNotify, now)
	}

	for name := range dirNode.Files {
		if !seen[name] {
			childRelative := joinRelative(relativePath, name)
			r.markMissing(childRelative, now, ticks)
		}
	}
	for name, childHandle := range dirNode.Children {
		if !seen[name] {
			r.Graph.MarkDeletedRecursive(childHandle, now, ticks)
		}
	}
}

// markMissing marks the FileNode or DirNode subtree at relativePath as
// deleted, without removing it from the graph (age-out is responsible for
// eventual reclamation).
func (r *Root) markMissing(relativePath string, now time.Time, ticks uint32) {
	parentDir, name := splitRelative(relativePath)
	dirHandle, ok := r.Graph.ResolveDir(parentDir, false)
	if !ok {
		return
	}
	dirNode := r.Graph.Dir(dirHandle)
	if dirNode == nil {
		return
	}
	if fileHandle, isFile := dirNode.Files[name]; isFile {
		r.Graph.MarkDeleted(fileHandle, now, ticks)
		return
	}
	if childDir, isDir := dirNode.Children[name]; isDir {
		r.Graph.MarkDeletedRecursive(childDir, now, ticks)
	}
}

// processPendingSymlinkTargets attempts to resolve a per-file watch on
// every symlink discovered since the last pass, so changes to a symlink's
// target (not just the symlink entry itself) can be observed where the
// watcher backend supports per-file registration.
func (r *Root) processPendingSymlinkTargets() {
	paths := r.drainPendingSymlinks()
	if len(paths) == 0 {
		return
	}
	if !r.Watcher.Flags().Has(watching.PerFileWatch) {
		return
	}
	for _, path := range paths {
		target, err := filepath.EvalSymlinks(path)
		if err != nil {
			continue
		}
		r.Watcher.StartWatchFile(target)
	}
}

// considerReap reports whether the root has been idle (zero subscribers,
// no client activity) for at least Config.IdleReapAge, in which case the
// caller should terminate the watcher and stop the io thread.
func (r *Root) considerReap() bool {
	if r.Activity == nil || r.config.IdleReapAge <= 0 {
		return false
	}
	count, lastActivity := r.Activity()
	if count > 0 {
		return false
	}
	if lastActivity.IsZero() {
		lastActivity = r.lastActivityTime()
	}
	return time.Since(lastActivity) >= r.config.IdleReapAge
}

// considerAgeOut runs a graph age-out sweep if at least Config.GCInterval
// has elapsed since the last one.
func (r *Root) considerAgeOut() {
	r.mu.Lock()
	due := time.Since(r.lastAgeOut) >= r.config.GCInterval
	if due {
		r.lastAgeOut = time.Now()
	}
	r.mu.Unlock()
	if !due {
		return
	}
	reaped := r.Graph.AgeOut(time.Now(), r.config.GCAge)
	if reaped > r.Clock.LastAgeOutTick() {
		r.Clock.SetLastAgeOutTick(reaped)
	}
	r.Clock.ForgetCursorsBefore(r.Clock.LastAgeOutTick())
}

// ForceAgeOut runs an immediate age-out sweep using age in place of
// Config.GCAge, for the `debug-ageout` command. Unlike considerAgeOut it
// ignores Config.GCInterval's spacing, since the caller is explicitly
// asking for a sweep right now.
func (r *Root) ForceAgeOut(age time.Duration) {
	r.mu.Lock()
	r.lastAgeOut = time.Now()
	r.mu.Unlock()
	reaped := r.Graph.AgeOut(time.Now(), age)
	if reaped > r.Clock.LastAgeOutTick() {
		r.Clock.SetLastAgeOutTick(reaped)
	}
	r.Clock.ForgetCursorsBefore(r.Clock.LastAgeOutTick())
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}

func splitRelative(relativePath string) (dir, name string) {
	if relativePath == "" {
		return "", ""
	}
	dir, name = filepath.Split(relativePath)
	return strings.TrimSuffix(dir, "/"), name
}

func joinRelative(dir, name string) string {
	if dir == "" {
		return name
	}
	return dir + "/" + name
}

// statFromInfo populates a graph.Stat from a directory entry's os.FileInfo,
// enriched with the platform-specific fields (uid, gid, atime, ctime, link
// count) that os.FileInfo itself doesn't expose, via extstat. Extended
// fields are left zero-valued if extstat can't interpret the underlying
// info (e.g. an unsupported platform's Sys() shape) rather than failing
// the whole stat.
func statFromInfo(info os.FileInfo) graph.Stat {
	s := graph.Stat{
		Size:      info.Size(),
		Mode:      uint32(info.Mode()),
		MTime:     info.ModTime(),
		IsDir:     info.IsDir(),
		IsSymlink: info.Mode()&os.ModeSymlink != 0,
	}
	if ext, err := extstat.New(info); err == nil {
		s.UID = ext.UID
		s.GID = ext.GID
		s.ATime = ext.ATime
		s.CTime = ext.CTime
		s.NLink = uint32(ext.Nlink)
	}
	return s
}
