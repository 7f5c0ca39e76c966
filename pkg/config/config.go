// Package config loads the daemon's JSON configuration file and its
// optional .env overlay, and translates the result into the option types
// consumed by pkg/root, pkg/ignore, and pkg/ipc.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/watchgraph/watchgraphd/pkg/encoding"
	"github.com/watchgraph/watchgraphd/pkg/filesystem"
	"github.com/watchgraph/watchgraphd/pkg/ignore"
	"github.com/watchgraph/watchgraphd/pkg/ipc"
	"github.com/watchgraph/watchgraphd/pkg/root"
)

// Configuration is the decoded form of the JSON configuration file
// described in spec.md §6. Every field is optional; an absent key keeps
// root.DefaultConfig's corresponding default.
type Configuration struct {
	// IgnoreDirs are paths (relative to a root) that should be fully
	// ignored: pruned from the watch entirely.
	IgnoreDirs []string `json:"ignore_dirs"`
	// IgnoreVCS are paths (relative to a root) whose direct children are
	// still observed but whose deeper contents are pruned, matching VCS
	// metadata directories.
	IgnoreVCS []string `json:"ignore_vcs"`
	// RootFiles names files whose presence in a directory identifies it
	// as a project root, for the "watch-project" command's upward walk.
	RootFiles []string `json:"root_files"`

	// SettleMS is the settle interval, in milliseconds.
	SettleMS *int64 `json:"settle"`
	// GCAgeSeconds is how long a deleted file's node is retained before
	// age-out reaps it.
	GCAgeSeconds *int64 `json:"gc_age_seconds"`
	// GCIntervalSeconds is the minimum spacing between age-out sweeps.
	GCIntervalSeconds *int64 `json:"gc_interval_seconds"`
	// IdleReapAgeSeconds is how long an unsubscribed, inactive root is
	// left running before it is torn down.
	IdleReapAgeSeconds *int64 `json:"idle_reap_age_seconds"`

	// FSEventsLatency is the FSEvents coalescing latency, in seconds.
	FSEventsLatency *float64 `json:"fsevents_latency"`
	// HintNumFilesPerDir is the per-directory file-count hint. It is parsed
	// and returned by the HintNumFilesPerDir method; no crawl code reads it.
	HintNumFilesPerDir *int `json:"hint_num_files_per_dir"`

	// SubscriptionLockTimeoutMS bounds how long a subscription-related
	// command waits to acquire a root's lock before giving up.
	SubscriptionLockTimeoutMS *int64 `json:"subscription_lock_timeout_ms"`

	// SockGroup, if set, is a POSIX group name granted access to the IPC
	// endpoint directory in addition to the owning user.
	SockGroup string `json:"sock_group"`
	// SockAccess, if set, overrides the IPC endpoint directory's
	// permission bits (octal, e.g. "0770").
	SockAccess string `json:"sock_access"`

	// SuppressRecrawlWarnings, if true, omits the recrawl-warning field
	// from query/subscription responses (the recrawl still happens).
	SuppressRecrawlWarnings bool `json:"suppress_recrawl_warnings"`
}

// Load reads the JSON configuration file at filesystem.ConfigurationPath,
// applying a same-named ".env" overlay (if present) to the process
// environment first so that environment-variable-driven overrides (e.g.
// WATCHGRAPH_DEBUG) are in effect before any component consults them. A
// missing configuration file is not an error: it results in a zero-valued
// Configuration, equivalent to accepting every default.
func Load() (*Configuration, error) {
	if err := applyEnvOverlay(); err != nil {
		return nil, err
	}

	result := &Configuration{}
	unmarshal := func(data []byte) error {
		return json.Unmarshal(data, result)
	}
	if err := encoding.LoadAndUnmarshal(filesystem.ConfigurationPath, unmarshal); err != nil {
		if os.IsNotExist(err) {
			return &Configuration{}, nil
		}
		return nil, fmt.Errorf("unable to load configuration: %w", err)
	}
	return result, nil
}

// applyEnvOverlay reads a ".env" file alongside the configuration file, if
// present, and applies its values to the process environment without
// overwriting variables already set there.
func applyEnvOverlay() error {
	envPath := filesystem.ConfigurationPath + ".env"
	values, err := godotenv.Read(envPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("unable to read environment overlay: %w", err)
	}
	for key, value := range values {
		if _, set := os.LookupEnv(key); !set {
			os.Setenv(key, value)
		}
	}
	return nil
}

// RootConfig translates the configuration's crawl/notify-related keys into
// a root.Config, starting from root.DefaultConfig and overriding only the
// keys actually present.
func (c *Configuration) RootConfig() root.Config {
	result := root.DefaultConfig()
	if c == nil {
		return result
	}
	if c.SettleMS != nil {
		result.Settle = time.Duration(*c.SettleMS) * time.Millisecond
	}
	if c.GCAgeSeconds != nil {
		result.GCAge = time.Duration(*c.GCAgeSeconds) * time.Second
	}
	if c.GCIntervalSeconds != nil {
		result.GCInterval = time.Duration(*c.GCIntervalSeconds) * time.Second
	}
	if c.IdleReapAgeSeconds != nil {
		result.IdleReapAge = time.Duration(*c.IdleReapAgeSeconds) * time.Second
	}
	result.SuppressRecrawlWarnings = c.SuppressRecrawlWarnings
	return result
}

// IgnoreEngine constructs an ignore.Engine populated with IgnoreDirs and
// IgnoreVCS, ready to be attached to a newly constructed root.
func (c *Configuration) IgnoreEngine() *ignore.Engine {
	engine := ignore.New(os.PathSeparator)
	if c == nil {
		return engine
	}
	for _, path := range c.IgnoreDirs {
		engine.AddFullyIgnored(path)
	}
	for _, path := range c.IgnoreVCS {
		engine.AddVCSIgnored(path)
	}
	return engine
}

// IPCOptions translates SockGroup/SockAccess into ipc.Options.
func (c *Configuration) IPCOptions() (ipc.Options, error) {
	if c == nil {
		return ipc.Options{}, nil
	}
	options := ipc.Options{Group: c.SockGroup}
	if c.SockAccess != "" {
		mode, err := strconv.ParseUint(c.SockAccess, 8, 32)
		if err != nil {
			return ipc.Options{}, fmt.Errorf("invalid sock_access value %q: %w", c.SockAccess, err)
		}
		options.Mode = os.FileMode(mode)
	}
	return options, nil
}

// SubscriptionLockTimeout returns the configured subscription lock
// timeout, or 0 (meaning "wait indefinitely", per root.PurposeLock's
// contract) if unset.
func (c *Configuration) SubscriptionLockTimeout() time.Duration {
	if c == nil || c.SubscriptionLockTimeoutMS == nil {
		return 0
	}
	return time.Duration(*c.SubscriptionLockTimeoutMS) * time.Millisecond
}

// FSEventsLatencySeconds returns the configured FSEvents coalescing
// latency, or a zero value if unset. No watcher reads this value: the
// darwin backend in pkg/filesystem/watching uses its own fixed latency.
func (c *Configuration) FSEventsLatencySeconds() float64 {
	if c == nil || c.FSEventsLatency == nil {
		return 0
	}
	return *c.FSEventsLatency
}

// HintNumFilesPerDir returns the configured per-directory file-count hint,
// or 0 if unset.
func (c *Configuration) HintNumFilesPerDir() int {
	if c == nil || c.HintNumFilesPerDir == nil {
		return 0
	}
	return *c.HintNumFilesPerDir
}
