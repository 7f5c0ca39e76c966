package service

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/watchgraph/watchgraphd/pkg/query"
	"github.com/watchgraph/watchgraphd/pkg/root"
)

// queryProjectContext is query.ProjectContext; aliased locally so rootEntry
// methods don't need to repeat the import everywhere it's threaded through.
type queryProjectContext = query.ProjectContext

// newProjectContext builds a query.ProjectContext for evaluating a query or
// subscription against r, sharing e's pool and lazy-field caches across every
// evaluation against this root.
func newProjectContext(r *root.Root, e *rootEntry) *queryProjectContext {
	return &query.ProjectContext{
		Clock:        r.Clock,
		RootPath:     r.Path,
		Pool:         e.pool,
		SymlinkCache: e.symlinks,
		ContentCache: e.contents,
	}
}

// syncCookie writes and waits on a cookie-sync file against r, bounding the
// wait by timeout (0 waits indefinitely), implementing the `sync_timeout`
// behavior described throughout §6 for clock/query/state-enter/state-leave.
func syncCookie(r *root.Root, timeout time.Duration) error {
	name, wait, err := r.CookieSync.GenerateName()
	if err != nil {
		return err
	}

	cookiePath := filepath.Join(r.Path, name)
	if err := writeEmptyFile(cookiePath); err != nil {
		return fmt.Errorf("unable to write sync cookie: %w", err)
	}
	r.Pending.Ping()

	ctx, cancel := contextWithOptionalTimeout(timeout)
	defer cancel()
	if err := wait(ctx); err != nil {
		return fmt.Errorf("sync_timeout exceeded waiting for cookie: %w", err)
	}
	return nil
}

// Clock implements protocol.Service.
func (s *Service) Clock(path string, syncTimeout time.Duration) (string, error) {
	real, err := resolvePath(path)
	if err != nil {
		return "", err
	}
	entry, err := s.ensureRoot(real)
	if err != nil {
		return "", err
	}
	entry.root.Touch()

	if syncTimeout > 0 {
		if err := syncCookie(entry.root, syncTimeout); err != nil {
			return "", err
		}
	}
	return entry.root.Clock.String(), nil
}

// Query implements protocol.Service.
func (s *Service) Query(path string, spec map[string]interface{}) (*query.Result, string, error) {
	real, err := resolvePath(path)
	if err != nil {
		return nil, "", err
	}
	entry, err := s.ensureRoot(real)
	if err != nil {
		return nil, "", err
	}
	entry.root.Touch()

	q, err := query.Compile(spec)
	if err != nil {
		return nil, "", err
	}

	if q.SyncTimeout > 0 {
		if err := syncCookie(entry.root, q.SyncTimeout); err != nil {
			return nil, "", err
		}
	}

	ok, heldBy := entry.root.RLock(q.LockTimeout)
	if !ok {
		return nil, "", fmt.Errorf("timed out waiting for root lock (held by %s)", heldBy)
	}
	defer entry.root.RUnlock()

	result, err := query.Execute(entry.root.Graph, entry.root.Clock, newProjectContext(entry.root, entry), q)
	if err != nil {
		return nil, "", err
	}

	warning := ""
	if count, reason := entry.root.RecrawlInfo(); count > 0 && reason != "" && !s.config.SuppressRecrawlWarnings {
		warning = fmt.Sprintf("root is being recrawled: %s", reason)
	}
	return result, warning, nil
}
