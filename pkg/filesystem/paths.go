package filesystem

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

const (
	// configurationName is the name of the configuration file inside the
	// user's home directory (§6 Configuration).
	configurationName = ".watchgraph.json"

	// DataDirectoryName is the name of the data directory inside the user's
	// home directory.
	DataDirectoryName = ".watchgraph"

	// DaemonDirectoryName is the name of the daemon subdirectory within the
	// data directory; it holds the daemon's lock file and IPC endpoint.
	DaemonDirectoryName = "daemon"

	// StateDirectoryName is the name of the subdirectory within the data
	// directory holding the persisted watched-roots file (§6 Persisted
	// state).
	StateDirectoryName = "state"

	// LogDirectoryName is the name of the subdirectory within the data
	// directory holding daemon log output.
	LogDirectoryName = "logs"
)

// HomeDirectory is the cached path to the current user's home directory.
var HomeDirectory string

// DataDirectoryPath is the path to the data directory. It can be overridden
// by init functions, but should not be changed afterward. It is used as the
// base path for on-disk daemon state.
var DataDirectoryPath string

// ConfigurationPath is the path to the global configuration file.
var ConfigurationPath string

// init performs global initialization.
func init() {
	// Grab the current user's home directory.
	if h, err := os.UserHomeDir(); err != nil {
		panic(errors.Wrap(err, "unable to query user's home directory"))
	} else if h == "" {
		panic(errors.New("home directory path empty"))
	} else {
		HomeDirectory = h
	}

	// Compute the path to the data directory.
	DataDirectoryPath = filepath.Join(HomeDirectory, DataDirectoryName)

	// Compute the path to the configuration file.
	ConfigurationPath = filepath.Join(HomeDirectory, configurationName)
}

// Watchgraph computes (and optionally creates) subdirectories inside the
// data directory.
func Watchgraph(create bool, pathComponents ...string) (string, error) {
	// Compute the target path.
	result := filepath.Join(DataDirectoryPath, filepath.Join(pathComponents...))

	// If requested, attempt to create the directory and the specified
	// subpath. Also ensure that the data directory is hidden.
	if create {
		if err := os.MkdirAll(result, 0700); err != nil {
			return "", errors.Wrap(err, "unable to create subpath")
		} else if err := MarkHidden(DataDirectoryPath); err != nil {
			return "", errors.Wrap(err, "unable to hide data directory")
		}
	}

	// Success.
	return result, nil
}
