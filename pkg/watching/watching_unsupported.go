//go:build !linux && !windows

package watching

// New constructs the platform-appropriate Watcher for path. The retained
// darwin FSEvents backend (in pkg/filesystem/watching) exposes an
// unexported, API-incompatible constructor and was never adapted to the
// RecursiveWatcher interface in the kept tree, so darwin and every other
// platform without a wired native backend fall back to a crawl-only
// watcher: the initial crawl populates the tree, and later changes are
// picked up only by an explicitly scheduled recrawl, since the crawl/notify
// loop does not re-scan on a timer. See DESIGN.md.
func New(path string) (Watcher, error) {
	return NewCrawlOnly(), nil
}
