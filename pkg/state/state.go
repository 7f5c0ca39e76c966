// Package state persists the set of watched roots across daemon restarts.
// On shutdown, the daemon writes a JSON file listing each watched root's
// path and registered trigger names; on startup, it is read back so that
// roots can be re-established without the client having to re-issue every
// watch command. This is purely a convenience for restart continuity: it
// is not a durability mechanism for queries or clocks, which are rebuilt
// from scratch by a fresh crawl.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/watchgraph/watchgraphd/pkg/encoding"
	"github.com/watchgraph/watchgraphd/pkg/filesystem"
	"github.com/watchgraph/watchgraphd/pkg/logging"
	"github.com/watchgraph/watchgraphd/pkg/mutagen"
	"github.com/watchgraph/watchgraphd/pkg/syncutil"
)

const (
	// fileName is the name of the persisted state file within the state
	// subdirectory of the data directory.
	fileName = "roots.json"

	// saveCoalesceWindow is how long State waits after the last Mark call
	// before actually writing the file, so that a burst of watch/watch-del
	// commands produces a single save instead of one per call.
	saveCoalesceWindow = 2 * time.Second
)

// WatchedRoot is one entry in the persisted state file.
type WatchedRoot struct {
	// Path is the watched root's absolute path.
	Path string `json:"path"`
	// Triggers lists the names of triggers registered against this root.
	// Trigger definitions themselves are not persisted (trigger-process
	// spawning and environment construction are out of scope here); only
	// the names are kept so a caller can tell what needs re-registering.
	Triggers []string `json:"triggers"`
}

// file is the on-disk representation of the persisted state file.
type file struct {
	// Version is the daemon version that wrote this file, recorded for
	// forward-compatibility diagnostics. It is informational only; no
	// migration logic keys off of it.
	Version string `json:"version"`
	// Watched lists the currently watched roots.
	Watched []WatchedRoot `json:"watched"`
}

// State tracks the set of watched roots and persists them to disk,
// debouncing repeated changes via an internal coalescer so that a burst of
// watch/unwatch activity results in a single write.
type State struct {
	path   string
	logger *logging.Logger

	mu      sync.Mutex
	watched map[string]WatchedRoot

	coalescer *syncutil.Coalescer
	done      chan struct{}
}

// Load reads the persisted state file, if present, and constructs a State
// that will save future changes back to the same path. A missing file is
// not an error: it results in an empty State, as on first run.
func Load(logger *logging.Logger) (*State, []WatchedRoot, error) {
	path, err := filesystem.Watchgraph(true, filesystem.StateDirectoryName, fileName)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to compute state file path: %w", err)
	}

	var contents file
	unmarshal := func(data []byte) error {
		return json.Unmarshal(data, &contents)
	}
	if err := encoding.LoadAndUnmarshal(path, unmarshal); err != nil {
		if !os.IsNotExist(err) {
			return nil, nil, fmt.Errorf("unable to load persisted state: %w", err)
		}
		contents = file{}
	}

	watched := make(map[string]WatchedRoot, len(contents.Watched))
	for _, root := range contents.Watched {
		watched[root.Path] = root
	}

	s := &State{
		path:      path,
		logger:    logger,
		watched:   watched,
		coalescer: syncutil.NewCoalescer(saveCoalesceWindow),
		done:      make(chan struct{}),
	}
	go s.run()

	return s, contents.Watched, nil
}

// run drains the coalescer's event channel and saves on each debounced
// signal. It exits once Close cancels the coalescer.
func (s *State) run() {
	defer close(s.done)
	for range s.coalescer.Events() {
		if err := s.save(); err != nil {
			s.logger.Error(fmt.Errorf("unable to save persisted state: %w", err))
		}
	}
}

// Add records that path is now watched with the given triggers and
// schedules a debounced save.
func (s *State) Add(path string, triggers []string) {
	s.mu.Lock()
	s.watched[path] = WatchedRoot{Path: path, Triggers: triggers}
	s.mu.Unlock()
	s.coalescer.Strobe()
}

// Remove forgets path and schedules a debounced save.
func (s *State) Remove(path string) {
	s.mu.Lock()
	delete(s.watched, path)
	s.mu.Unlock()
	s.coalescer.Strobe()
}

// Watched returns a snapshot of the currently tracked roots.
func (s *State) Watched() []WatchedRoot {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]WatchedRoot, 0, len(s.watched))
	for _, root := range s.watched {
		result = append(result, root)
	}
	return result
}

// Save immediately persists the current state, bypassing the coalescing
// window. It is used on daemon shutdown, where a debounced save might not
// fire in time.
func (s *State) Save() error {
	return s.save()
}

// save writes the current snapshot to disk.
func (s *State) save() error {
	contents := file{
		Version: mutagen.Version,
		Watched: s.Watched(),
	}
	marshal := func() ([]byte, error) {
		return json.MarshalIndent(contents, "", "  ")
	}
	return encoding.MarshalAndSave(s.path, s.logger, marshal)
}

// Close stops the background save loop, performing one final save first so
// that any pending debounced change isn't lost.
func (s *State) Close() error {
	err := s.save()
	s.coalescer.Terminate()
	<-s.done
	return err
}
