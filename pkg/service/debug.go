package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/watchgraph/watchgraphd/pkg/utility"
)

// errDebugPoisoned is the sentinel reason recorded by the debug-poison
// command, distinguishing a deliberately-induced poison (for exercising
// the poison-whitelist behavior) from a genuine operational failure.
var errDebugPoisoned = errors.New("root poisoned via debug-poison")

// GetConfig implements protocol.Service: it reports the effective
// configuration in force for path's root, deriving the reported values
// from root.Config rather than re-serializing the raw JSON file so the
// result always reflects applied defaults.
func (s *Service) GetConfig(path string) (map[string]interface{}, error) {
	real, err := resolvePath(path)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	entry, ok := s.roots[real]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("no watch established for %s", path)
	}

	cfg := s.config.RootConfig()
	return map[string]interface{}{
		"settle":                    cfg.Settle.Milliseconds(),
		"max_sleep":                 cfg.MaxSleep.Milliseconds(),
		"gc_age_seconds":            int64(cfg.GCAge.Seconds()),
		"gc_interval_seconds":       int64(cfg.GCInterval.Seconds()),
		"idle_reap_age_seconds":     int64(cfg.IdleReapAge.Seconds()),
		"suppress_recrawl_warnings": cfg.SuppressRecrawlWarnings,
		"root_files":                utility.CopyStringSlice(s.config.RootFiles),
		"ignore_dirs":               utility.CopyStringSlice(s.config.IgnoreDirs),
		"ignore_vcs":                utility.CopyStringSlice(s.config.IgnoreVCS),
		"subscription_lock_timeout": s.config.SubscriptionLockTimeout().Milliseconds(),
		"watcher":                   watcherName(entry.root.Watcher),
	}, nil
}

// DebugRecrawl implements protocol.Service.
func (s *Service) DebugRecrawl(path string) error {
	real, err := resolvePath(path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	entry, ok := s.roots[real]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("no watch established for %s", path)
	}
	entry.root.ScheduleRecrawl("debug-recrawl requested")
	return nil
}

// DebugShowCursors implements protocol.Service.
func (s *Service) DebugShowCursors(path string) (map[string]uint32, error) {
	real, err := resolvePath(path)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	entry, ok := s.roots[real]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("no watch established for %s", path)
	}
	return entry.root.Clock.Cursors(), nil
}

// DebugAgeOut implements protocol.Service.
func (s *Service) DebugAgeOut(path string, seconds int) error {
	real, err := resolvePath(path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	entry, ok := s.roots[real]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("no watch established for %s", path)
	}
	entry.root.ForceAgeOut(time.Duration(seconds) * time.Second)
	return nil
}

// DebugPoison implements protocol.Service.
func (s *Service) DebugPoison(path string) error {
	real, err := resolvePath(path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	entry, ok := s.roots[real]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("no watch established for %s", path)
	}
	entry.root.Poison(errDebugPoisoned)
	return nil
}
