//go:build windows

package watching

import (
	filewatch "github.com/watchgraph/watchgraphd/pkg/filesystem/watching"
)

// New constructs the platform-appropriate Watcher for path. On Windows this
// is a ReadDirectoryChangesW-backed recursive watcher covering path's entire
// subtree from a single registration.
func New(path string) (Watcher, error) {
	underlying, err := filewatch.NewRecursiveWatcher(path)
	if err != nil {
		return nil, err
	}
	return NewRecursive(underlying), nil
}
