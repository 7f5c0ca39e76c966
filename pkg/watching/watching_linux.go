//go:build linux

package watching

import (
	filewatch "github.com/watchgraph/watchgraphd/pkg/filesystem/watching"
)

// New constructs the platform-appropriate Watcher for path. On Linux this is
// an inotify-backed non-recursive watcher: the crawl/notify loop is
// responsible for calling StartWatchDir on every directory it discovers
// during a crawl, since the underlying backend has no native recursive
// registration.
func New(path string) (Watcher, error) {
	underlying, err := filewatch.NewNonRecursiveWatcher(nil)
	if err != nil {
		return nil, err
	}
	return NewNonRecursive(underlying), nil
}
