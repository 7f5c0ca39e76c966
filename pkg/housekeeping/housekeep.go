// Package housekeeping sweeps the daemon's on-disk data directory,
// removing artifacts that outlive their usefulness: orphaned temporary
// files left behind by an interrupted atomic save (see
// pkg/encoding.MarshalAndSave) and stale log files beyond a retention
// window.
package housekeeping

import (
	"os"
	"path/filepath"
	"time"

	"github.com/watchgraph/watchgraphd/pkg/filesystem"
	"github.com/watchgraph/watchgraphd/pkg/logging"
	"github.com/watchgraph/watchgraphd/pkg/must"
)

const (
	// maximumTemporaryFileAge is the maximum amount of time an orphaned
	// "*.tmp-*" file is allowed to linger before being swept. Any file this
	// old was left behind by a save that crashed before renaming into
	// place.
	maximumTemporaryFileAge = 24 * time.Hour

	// maximumLogFileAge is the maximum amount of time a rotated log file is
	// retained before being removed.
	maximumLogFileAge = 30 * 24 * time.Hour
)

// Housekeep sweeps the data directory for orphaned temporary files and
// expired log files. Errors locating either directory are treated as
// "nothing to do" rather than fatal, since a fresh install won't have
// created them yet.
func Housekeep(logger *logging.Logger) {
	housekeepState(logger)
	housekeepLogs(logger)
}

// housekeepState removes orphaned "*.tmp-*" files left in the state
// directory by an interrupted MarshalAndSave call.
func housekeepState(logger *logging.Logger) {
	stateDirectoryPath, err := filesystem.Watchgraph(false, filesystem.StateDirectoryName)
	if err != nil {
		return
	}

	entries, err := os.ReadDir(stateDirectoryPath)
	if err != nil {
		return
	}

	now := time.Now()
	for _, entry := range entries {
		name := entry.Name()
		if !isOrphanedTemporaryFile(name) {
			continue
		}
		fullPath := filepath.Join(stateDirectoryPath, name)
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) > maximumTemporaryFileAge {
			must.OSRemove(fullPath, logger)
		}
	}
}

// housekeepLogs removes log files older than maximumLogFileAge from the
// log directory.
func housekeepLogs(logger *logging.Logger) {
	logDirectoryPath, err := filesystem.Watchgraph(false, filesystem.LogDirectoryName)
	if err != nil {
		return
	}

	entries, err := os.ReadDir(logDirectoryPath)
	if err != nil {
		return
	}

	now := time.Now()
	for _, entry := range entries {
		fullPath := filepath.Join(logDirectoryPath, entry.Name())
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) > maximumLogFileAge {
			must.OSRemove(fullPath, logger)
		}
	}
}

// isOrphanedTemporaryFile reports whether name contains the ".tmp-" marker
// inserted by os.CreateTemp in pkg/encoding.MarshalAndSave's temp-file
// pattern, regardless of the destination file's own extension.
func isOrphanedTemporaryFile(name string) bool {
	const marker = ".tmp-"
	for i := 0; i+len(marker) <= len(name); i++ {
		if name[i:i+len(marker)] == marker {
			return true
		}
	}
	return false
}
