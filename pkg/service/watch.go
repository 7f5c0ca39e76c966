package service

import (
	"os"
	"path/filepath"
	"time"

	"github.com/watchgraph/watchgraphd/pkg/intern"
	"github.com/watchgraph/watchgraphd/pkg/pending"
	"github.com/watchgraph/watchgraphd/pkg/root"
)

// watcherPollInterval bounds how long pumpWatcherEvents blocks in
// WaitNotify between checks of the root's cancellation state, so a root
// cancelled without a watcher signal (which shouldn't happen, but costs
// nothing to guard against) still unwinds promptly.
const watcherPollInterval = 2 * time.Second

// pumpWatcherEvents bridges a root's platform watcher into its pending
// queue: this is the half of the §4.7/§4.8 "io thread" that turns raw
// watcher notifications into relative paths the crawl/notify loop in
// pkg/root/loop.go can reconcile. It exits once the root is cancelled.
func pumpWatcherEvents(r *root.Root) {
	for !r.Cancelled() {
		paths, produced := r.Watcher.ConsumeNotify()
		if !produced {
			r.Watcher.WaitNotify(watcherPollInterval)
			continue
		}

		now := time.Now()
		for _, absolutePath := range paths {
			relative, err := filepath.Rel(r.Path, absolutePath)
			if err != nil {
				continue
			}
			relative = filepath.ToSlash(relative)
			if relative == "." {
				relative = ""
			}
			r.Pending.Add(intern.NewFromString(relative), pending.ViaNotify, now)
		}
	}
}

// Watch implements protocol.Service.
func (s *Service) Watch(path string) (string, string, error) {
	real, err := resolvePath(path)
	if err != nil {
		return "", "", err
	}
	entry, err := s.ensureRoot(real)
	if err != nil {
		return "", "", err
	}
	entry.root.Touch()
	s.state.Add(real, nil)
	return real, watcherName(entry.root.Watcher), nil
}

// WatchProject implements protocol.Service: it walks upward from path
// looking for a directory containing one of the configured root_files,
// falling back to watching path itself if none is found (mirroring
// Watchman's "no project markers configured or found" behavior).
func (s *Service) WatchProject(path string) (string, string, string, error) {
	real, err := resolvePath(path)
	if err != nil {
		return "", "", "", err
	}

	rootFiles := s.config.RootFiles
	projectRoot := real
	if len(rootFiles) > 0 {
		if found, ok := findProjectRoot(real, rootFiles); ok {
			projectRoot = found
		}
	}

	watchedRoot, watcher, err := s.Watch(projectRoot)
	if err != nil {
		return "", "", "", err
	}

	relativePath := ""
	if rel, err := filepath.Rel(watchedRoot, real); err == nil && rel != "." {
		relativePath = filepath.ToSlash(rel)
	}
	return watchedRoot, watcher, relativePath, nil
}

// findProjectRoot walks upward from start looking for a directory
// containing any of the named marker files, stopping at the filesystem
// root.
func findProjectRoot(start string, markers []string) (string, bool) {
	dir := start
	for {
		for _, marker := range markers {
			if fileExists(filepath.Join(dir, marker)) {
				return dir, true
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// WatchDel implements protocol.Service.
func (s *Service) WatchDel(path string) bool {
	real, err := resolvePath(path)
	if err != nil {
		return false
	}

	s.mu.Lock()
	entry, ok := s.roots[real]
	if ok {
		delete(s.roots, real)
	}
	s.mu.Unlock()
	if !ok {
		return false
	}

	s.stopRoot(real, entry)
	return true
}

// WatchDelAll implements protocol.Service.
func (s *Service) WatchDelAll() []string {
	s.mu.Lock()
	paths := make([]string, 0, len(s.roots))
	entries := make([]*rootEntry, 0, len(s.roots))
	for path, entry := range s.roots {
		paths = append(paths, path)
		entries = append(entries, entry)
	}
	s.roots = make(map[string]*rootEntry)
	s.mu.Unlock()

	for i, entry := range entries {
		s.stopRoot(paths[i], entry)
	}
	return paths
}

// WatchList implements protocol.Service.
func (s *Service) WatchList() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	paths := make([]string, 0, len(s.roots))
	for path := range s.roots {
		paths = append(paths, path)
	}
	return paths
}

// stopRoot cancels entry's root and io thread, tears down its watcher, and
// drops it from persisted state. It does not remove entry from s.roots;
// callers are responsible for that under s.mu.
func (s *Service) stopRoot(path string, entry *rootEntry) {
	entry.subs.CancelAll()
	entry.root.Cancel()
	<-entry.root.Stopped()
	entry.pool.Terminate()
	s.state.Remove(path)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
