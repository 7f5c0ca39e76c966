package main

import (
	"fmt"
	"os"

	"github.com/watchgraph/watchgraphd/pkg/filesystem/locking"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "invalid number of arguments")
		os.Exit(1)
	}

	locker, err := locking.NewLocker(os.Args[1], 0600)
	if err != nil {
		fmt.Fprintln(os.Stderr, "lock acquisition failed")
		os.Exit(1)
	}

	if err := locker.Lock(false); err != nil {
		fmt.Fprintln(os.Stderr, "lock acquisition failed")
		os.Exit(1)
	}

	locker.Unlock()
	locker.Close()
}
