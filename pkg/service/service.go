// Package service composes the per-root crawl/notify machinery (pkg/root),
// the query engine (pkg/query), the subscription manager and state-assertion
// queues (pkg/subscription), and the persisted-roots state (pkg/state) into
// the single daemon-wide object that implements pkg/protocol.Service.
package service

import (
	"fmt"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/watchgraph/watchgraphd/pkg/config"
	"github.com/watchgraph/watchgraphd/pkg/daemon"
	"github.com/watchgraph/watchgraphd/pkg/filesystem"
	"github.com/watchgraph/watchgraphd/pkg/ignore"
	"github.com/watchgraph/watchgraphd/pkg/logging"
	"github.com/watchgraph/watchgraphd/pkg/protocol"
	"github.com/watchgraph/watchgraphd/pkg/root"
	"github.com/watchgraph/watchgraphd/pkg/state"
	"github.com/watchgraph/watchgraphd/pkg/subscription"
	"github.com/watchgraph/watchgraphd/pkg/cache"
	"github.com/watchgraph/watchgraphd/pkg/threadpool"
	"github.com/watchgraph/watchgraphd/pkg/watching"
)

// cacheCapacity and cacheErrorTTL size the per-root lazy-field caches (see
// pkg/query/fields.go's ProjectContext); one pair is shared by every query
// and subscription dispatch against a given root.
const (
	cacheCapacity = 4096
	cacheErrorTTL = 5 * time.Second

	// pendingQueueCapacity sizes each root's thread pool task queue.
	pendingQueueCapacity = 256
)

// rootEntry is everything Service tracks for one watched root beyond the
// root.Root value itself.
type rootEntry struct {
	root   *root.Root
	ignore *ignore.Engine

	pool     *threadpool.Pool
	symlinks *cache.Cache
	contents *cache.Cache

	subs   *subscription.Manager
	states *subscription.StateQueues

	mu          sync.Mutex
	subscribers map[string]*protocol.Connection
}

// Service is the daemon's top-level object: one per process, owning every
// watched root and every piece of state a protocol.Service implementation
// must expose to the command dispatcher.
type Service struct {
	config   *config.Configuration
	state    *state.State
	daemon   *daemon.Service
	logger   *logging.Logger
	sockName string

	mu             sync.Mutex
	roots          map[string]*rootEntry
	nextRootNumber int32

	poisonMu     sync.Mutex
	poisonReason error

	connLevelsMu sync.Mutex
	connLevels   map[*protocol.Connection]logging.Level
}

// New constructs a Service ready to serve connections. It does not itself
// re-establish any roots persisted by a previous run; callers restore those
// (typically via Watch for each state.WatchedRoot) after New returns.
func New(cfg *config.Configuration, st *state.State, daemonSvc *daemon.Service, logger *logging.Logger, sockName string) *Service {
	return &Service{
		config:     cfg,
		state:      st,
		daemon:     daemonSvc,
		logger:     logger,
		sockName:   sockName,
		roots:      make(map[string]*rootEntry),
		connLevels: make(map[*protocol.Connection]logging.Level),
	}
}

// SockName implements protocol.Service.
func (s *Service) SockName() string {
	return s.sockName
}

// resolvePath normalizes path (tilde expansion, absolute-ification) and
// resolves it to its real, symlink-free form, matching the identity
// root.Root.Path expects.
func resolvePath(path string) (string, error) {
	normalized, err := filesystem.Normalize(path)
	if err != nil {
		return "", err
	}
	real, err := filepath.EvalSymlinks(normalized)
	if err != nil {
		return "", fmt.Errorf("unable to resolve path: %w", err)
	}
	return real, nil
}

// watcherName renders a short label for the watcher backend actually in use
// for a root, derived from its capability flags since pkg/watching.Watcher
// exposes no separate backend-name accessor.
func watcherName(w watching.Watcher) string {
	switch {
	case w.Flags().Has(watching.CrawlOnly):
		return "crawl-only"
	case w.Flags().Has(watching.Recursive):
		return "recursive"
	case w.Flags().Has(watching.PerFileWatch):
		return "per-file"
	default:
		return "unknown"
	}
}

// ensureRoot returns the existing entry for path, or starts a new root
// there.
func (s *Service) ensureRoot(path string) (*rootEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.roots[path]; ok {
		return entry, nil
	}

	entry, err := s.startRootLocked(path)
	if err != nil {
		return nil, err
	}
	s.roots[path] = entry
	return entry, nil
}

// startRootLocked constructs and launches a new root at path. The caller
// must hold s.mu.
func (s *Service) startRootLocked(path string) (*rootEntry, error) {
	watcher, err := watching.New(path)
	if err != nil {
		return nil, fmt.Errorf("unable to start watcher: %w", err)
	}

	ignoreEngine := s.config.IgnoreEngine()
	rootCfg := s.config.RootConfig()

	number := s.nextRootNumber
	s.nextRootNumber++

	rt := root.New(path, number, watcher, ignoreEngine, rootCfg)

	entry := &rootEntry{
		root:        rt,
		ignore:      ignoreEngine,
		pool:        threadpool.New(runtime.NumCPU(), pendingQueueCapacity),
		symlinks:    cache.New(cacheCapacity, cacheErrorTTL),
		contents:    cache.New(cacheCapacity, cacheErrorTTL),
		subs:        subscription.NewManager(),
		states:      subscription.NewStateQueues(),
		subscribers: make(map[string]*protocol.Connection),
	}

	entry.subs.Notify = func(event subscription.Event) {
		s.deliverSubscriptionEvent(entry, event)
	}

	rt.SettleHook = func(r *root.Root) {
		if ok, _ := r.RLock(0); !ok {
			return
		}
		defer r.RUnlock()
		entry.mu.Lock()
		defer entry.mu.Unlock()
		entry.subs.Settle(r.Graph, r.Clock, entry.projectContext(r))
	}
	rt.Activity = func() (int, time.Time) {
		entry.mu.Lock()
		count := len(entry.subscribers)
		entry.mu.Unlock()
		return count, time.Time{}
	}

	go rt.Run()
	go pumpWatcherEvents(rt)

	s.logger.Info(fmt.Sprintf("watching %s (%s)", path, watcherName(watcher)))

	return entry, nil
}

// projectContext builds the pkg/query.ProjectContext for evaluating a query
// or subscription against this root.
func (e *rootEntry) projectContext(r *root.Root) *queryProjectContext {
	return newProjectContext(r, e)
}

// poisonAll records reason as the process-wide poison condition and cancels
// every watched root, matching §4.8's "poisoning is terminal and
// process-wide."
func (s *Service) poisonAll(reason error) {
	s.poisonMu.Lock()
	if s.poisonReason == nil {
		s.poisonReason = reason
	}
	s.poisonMu.Unlock()

	s.mu.Lock()
	entries := make([]*rootEntry, 0, len(s.roots))
	for _, entry := range s.roots {
		entries = append(entries, entry)
	}
	s.mu.Unlock()

	for _, entry := range entries {
		entry.root.Poison(reason)
	}
}

// PoisonReason implements protocol.Service. A poison recorded on any
// watched root counts as process-wide.
func (s *Service) PoisonReason() error {
	s.poisonMu.Lock()
	reason := s.poisonReason
	s.poisonMu.Unlock()
	if reason != nil {
		return reason
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, entry := range s.roots {
		if err := entry.root.PoisonReason(); err != nil {
			return err
		}
	}
	return nil
}

// Shutdown implements protocol.Service.
func (s *Service) Shutdown() {
	s.daemon.Terminate()
}

// SetConnLogLevel implements protocol.Service.
func (s *Service) SetConnLogLevel(conn *protocol.Connection, level logging.Level) {
	s.connLevelsMu.Lock()
	defer s.connLevelsMu.Unlock()
	s.connLevels[conn] = level
}

// DropConn forgets conn's log level and removes it from every subscriber
// list, for use by the connection accept loop once a client disconnects.
func (s *Service) DropConn(conn *protocol.Connection) {
	s.connLevelsMu.Lock()
	delete(s.connLevels, conn)
	s.connLevelsMu.Unlock()

	s.mu.Lock()
	entries := make([]*rootEntry, 0, len(s.roots))
	for _, entry := range s.roots {
		entries = append(entries, entry)
	}
	s.mu.Unlock()

	for _, entry := range entries {
		entry.mu.Lock()
		for name, c := range entry.subscribers {
			if c == conn {
				delete(entry.subscribers, name)
				entry.subs.Remove(name)
			}
		}
		entry.mu.Unlock()
	}
}

// EmitLog implements protocol.Service: it forwards text to every connection
// whose configured log level is at or above level, matching the "log"
// command's unilateral broadcast semantics in §6.
func (s *Service) EmitLog(level logging.Level, text string) {
	s.connLevelsMu.Lock()
	targets := make([]*protocol.Connection, 0, len(s.connLevels))
	for conn, minLevel := range s.connLevels {
		if level <= minLevel {
			targets = append(targets, conn)
		}
	}
	s.connLevelsMu.Unlock()

	for _, conn := range targets {
		conn.PushAsync(map[string]interface{}{
			"log":       text,
			"log_level": level.String(),
		})
	}
}
