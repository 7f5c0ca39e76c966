// +build !windows

package ipc

import (
	"context"
	"net"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/pkg/errors"

	"github.com/watchgraph/watchgraphd/pkg/logging"
)

// DialContext attempts to establish an IPC connection, timing out if the
// provided context expires.
func DialContext(context context.Context, path string) (net.Conn, error) {
	// Create a zero-valued dialer, which will have the same dialing behavior as
	// the raw dialing functions.
	dialer := &net.Dialer{}

	// Perform dialing.
	return dialer.DialContext(context, "unix", path)
}

// chownGroup resolves name to a group ID and changes path's group
// ownership, leaving its user ownership untouched.
func chownGroup(path, name string) error {
	group, err := user.LookupGroup(name)
	if err != nil {
		return errors.Wrap(err, "unable to resolve sock_group")
	}
	gid, err := strconv.Atoi(group.Gid)
	if err != nil {
		return errors.Wrap(err, "invalid group id")
	}
	return os.Chown(path, -1, gid)
}

// ensureEndpointDir implements §6's IPC endpoint directory contract: the
// directory must be owned by the invoking user and, unless a configured
// mode relaxes it, must grant no permission bits at all to group or world
// (so a group- or world-writable directory is refused). A directory owned
// by someone else is always refused.
func ensureEndpointDir(dir string, opts Options) error {
	mode := opts.dirMode()

	info, err := os.Lstat(dir)
	if os.IsNotExist(err) {
		if err := os.MkdirAll(dir, mode); err != nil {
			return errors.Wrap(err, "unable to create endpoint directory")
		}
		if opts.Group != "" {
			if err := chownGroup(dir, opts.Group); err != nil {
				return err
			}
		}
		return os.Chmod(dir, mode)
	} else if err != nil {
		return errors.Wrap(err, "unable to stat endpoint directory")
	}

	if !info.IsDir() {
		return errors.New("endpoint path exists and is not a directory")
	}

	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return errors.New("unable to extract raw stat information for endpoint directory")
	}
	if int(stat.Uid) != os.Getuid() {
		return errors.New("endpoint directory is not owned by the invoking user, refusing to start")
	}

	// A caller-supplied mode is an explicit sock_access override of the
	// default owner-only restriction; anything wider than that override
	// is accepted as intentional.
	if opts.Mode == 0 && info.Mode().Perm()&0077 != 0 {
		return errors.New("endpoint directory is group- or world-accessible, refusing to start")
	}

	if opts.Group != "" {
		if err := chownGroup(dir, opts.Group); err != nil {
			return err
		}
	}

	return os.Chmod(dir, mode)
}

// NewListener creates a new IPC listener, first verifying (or creating)
// path's containing directory per §6's ownership/permission contract.
// logger is accepted (but unused on POSIX) so that callers can share a
// single NewListener call site across platforms; the Windows listener
// uses it to log cleanup failures on Close.
func NewListener(path string, opts Options, logger *logging.Logger) (net.Listener, error) {
	if err := ensureEndpointDir(filepath.Dir(path), opts); err != nil {
		return nil, err
	}

	// Create the listener.
	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, err
	}

	// Explicitly set socket permissions, honoring the same override the
	// directory itself was created or verified with.
	if err := os.Chmod(path, opts.dirMode()); err != nil {
		listener.Close()
		return nil, errors.Wrap(err, "unable to set socket permissions")
	}

	return listener, nil
}
