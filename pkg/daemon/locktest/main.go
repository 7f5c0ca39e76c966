package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/watchgraph/watchgraphd/pkg/daemon"
	"github.com/watchgraph/watchgraphd/pkg/logging"
)

func main() {
	logger := logging.NewLogger(logging.LevelError, &bytes.Buffer{})

	// Attempt to acquire the daemon lock and release it.
	if lock, err := daemon.AcquireLock(logger); err != nil {
		fmt.Fprintln(os.Stderr, "daemon lock acquisition failed")
		os.Exit(1)
	} else {
		lock.Release()
	}
}
