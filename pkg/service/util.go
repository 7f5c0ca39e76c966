package service

import (
	"context"
	"os"
	"time"
)

// writeEmptyFile creates (or truncates) an empty file at path, used for
// sync-cookie bookkeeping files.
func writeEmptyFile(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	return f.Close()
}

// contextWithOptionalTimeout returns a context bounded by timeout, or an
// unbounded context.Background if timeout is non-positive, matching every
// sync_timeout field's "0 means wait indefinitely" contract.
func contextWithOptionalTimeout(timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.Background(), func() {}
	}
	return context.WithTimeout(context.Background(), timeout)
}
