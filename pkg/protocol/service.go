// Package protocol implements the per-connection state machine and command
// registry described in spec.md §4.11 and §6: reading framed PDUs (see
// pkg/bser), dispatching to a flat command table, and writing responses (and
// asynchronous subscription/log/state notifications) back in whatever
// encoding the connection negotiated.
package protocol

import (
	"time"

	"github.com/watchgraph/watchgraphd/pkg/logging"
	"github.com/watchgraph/watchgraphd/pkg/query"
)

// Service is everything a command handler may ask the daemon to do. It is
// defined here, rather than having this package import pkg/service's
// concrete root table, so that the command registry stays decoupled from
// root bookkeeping the same way pkg/root's SettleHook stays decoupled from
// pkg/subscription: the dependency points from the daemon wiring down into
// the protocol layer, never the other way around.
type Service interface {
	// SockName reports the IPC endpoint path, for "get-sockname".
	SockName() string

	// Watch creates (or returns the existing) root for path, starting its
	// io thread if newly created.
	Watch(path string) (root, watcher string, err error)
	// WatchProject walks upward from path looking for a directory
	// containing one of the configured root_files, watches that
	// directory, and reports path's location relative to it.
	WatchProject(path string) (root, watcher, relativePath string, err error)
	// WatchDel cancels and removes the root at path, reporting whether a
	// root existed there.
	WatchDel(path string) bool
	// WatchDelAll cancels and removes every watched root, reporting their
	// paths.
	WatchDelAll() []string
	// WatchList reports the path of every currently watched root.
	WatchList() []string

	// Clock reports the current clock string for the root at path,
	// optionally waiting on a cookie-sync first.
	Clock(path string, syncTimeout time.Duration) (string, error)
	// Query compiles and executes spec against the root at path,
	// reporting any pending-recrawl warning alongside the result.
	Query(path string, spec map[string]interface{}) (result *query.Result, warning string, err error)

	// Subscribe registers a named, recurring query against the root at
	// path, to be dispatched at every settle point and pushed to conn as
	// unilateral notifications. It returns the clock at registration
	// time.
	Subscribe(path, name string, spec map[string]interface{}, conn *Connection) (clock string, err error)
	// Unsubscribe removes the named subscription, reporting whether it
	// existed.
	Unsubscribe(path, name string, conn *Connection) (deleted bool, err error)
	// FlushSubscriptions synchronously dispatches named (or, if names is
	// empty, every) subscription on the root at path after a cookie-sync,
	// partitioning them into synced/no-sync-needed/dropped per §6.
	FlushSubscriptions(path string, names []string, syncTimeout time.Duration) (synced, noSyncNeeded, dropped []string, err error)

	// StateEnter queues a state assertion for name on the root at path,
	// completing the handshake's cookie-sync before returning.
	StateEnter(path, name string, metadata interface{}, syncTimeout time.Duration, conn *Connection) error
	// StateLeave retires a previously entered state assertion for name.
	StateLeave(path, name string, metadata interface{}, syncTimeout time.Duration, conn *Connection) error

	// SetConnLogLevel adjusts the minimum level of log lines forwarded to
	// conn as unilateral "log" notifications.
	SetConnLogLevel(conn *Connection, level logging.Level)
	// EmitLog injects a log line at level, to be forwarded to every
	// connection whose log level permits it.
	EmitLog(level logging.Level, text string)

	// GetConfig reports the effective configuration in force for the root
	// at path.
	GetConfig(path string) (map[string]interface{}, error)

	// DebugRecrawl forces an immediate recrawl of the root at path.
	DebugRecrawl(path string) error
	// DebugShowCursors reports every named cursor currently recorded
	// against the root at path.
	DebugShowCursors(path string) (map[string]uint32, error)
	// DebugAgeOut forces an immediate age-out sweep using the given age,
	// in seconds, in place of the root's configured gc_age_seconds.
	DebugAgeOut(path string, seconds int) error
	// DebugPoison marks the root at path as poisoned, for exercising the
	// poison-whitelist behavior described in §4.8.
	DebugPoison(path string) error

	// PoisonReason reports the process-wide poison reason, if any command
	// has poisoned the daemon.
	PoisonReason() error
	// Shutdown requests daemon termination, for "shutdown-server".
	Shutdown()
}
