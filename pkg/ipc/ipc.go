// Package ipc implements the daemon's local control-channel endpoint: a
// Unix domain socket (or, on Windows, a named pipe) reachable only by the
// invoking user unless a group/permission override is explicitly
// configured, per §6's "IPC endpoint" contract.
package ipc

import (
	"os"
	"time"
)

const (
	// RecommendedDialTimeout is the recommended timeout to use when
	// establishing IPC connections.
	RecommendedDialTimeout = 1 * time.Second

	// EndpointDirMode is the default mode for the directory containing
	// the IPC endpoint: owner-only read/write/execute, per §6's "mode
	// 0700".
	EndpointDirMode os.FileMode = 0700
)

// Options controls the permissions applied to a newly created IPC
// endpoint's containing directory, overriding §6's default owner-only
// mode. A zero-valued Options applies the default.
type Options struct {
	// Group, if non-empty, is a group name (POSIX) whose members should
	// also be granted access to the endpoint directory (sock_group).
	Group string
	// Mode, if non-zero, replaces EndpointDirMode as the directory's
	// permission bits (sock_access). Supplying a mode wider than 0700
	// is the caller's explicit choice and is not second-guessed here.
	Mode os.FileMode
}

func (o Options) dirMode() os.FileMode {
	if o.Mode != 0 {
		return o.Mode
	}
	return EndpointDirMode
}
