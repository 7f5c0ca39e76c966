package clock

import (
	"context"
	"fmt"
	"sync"

	"github.com/eknkc/basex"

	"github.com/watchgraph/watchgraphd/pkg/random"
)

// cookieAlphabet mirrors the base62 alphabet the teacher uses for compact,
// filesystem-safe token encoding, so cookie filenames never require
// percent-escaping regardless of the underlying filesystem's character
// restrictions.
const cookieAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

var cookieEncoding *basex.Encoding

func init() {
	encoding, err := basex.NewEncoding(cookieAlphabet)
	if err != nil {
		panic("clock: unable to initialize cookie name encoding")
	}
	cookieEncoding = encoding
}

// CookiePrefix is the fixed prefix applied to every generated cookie
// filename, distinguishing cookie-sync bookkeeping files from ordinary
// watched content during crawl and query evaluation.
const CookiePrefix = ".watchgraph-cookie-"

// CookieSync coordinates the "write a uniquely named file and wait for the
// notify pipeline to observe it" synchronization primitive used to force
// the event stream to a known point before evaluating a query with a
// sync_timeout. It is a minimal promise/future: one waiter registers
// against a generated name, and the io thread later fulfills it once that
// exact filename is observed passing through the pending queue.
type CookieSync struct {
	mu      sync.Mutex
	waiters map[string]chan struct{}
}

// NewCookieSync creates an empty cookie synchronizer.
func NewCookieSync() *CookieSync {
	return &CookieSync{waiters: make(map[string]chan struct{})}
}

// GenerateName produces a new collision-resistant cookie filename
// (including CookiePrefix) and registers a waiter for it, returning the
// name to write to disk and a function that blocks until the name is
// observed or ctx is cancelled.
func (c *CookieSync) GenerateName() (name string, wait func(context.Context) error, err error) {
	raw, err := random.New(random.CollisionResistantLength)
	if err != nil {
		return "", nil, fmt.Errorf("clock: unable to generate cookie name: %w", err)
	}
	name = CookiePrefix + cookieEncoding.Encode(raw)

	done := make(chan struct{})
	c.mu.Lock()
	c.waiters[name] = done
	c.mu.Unlock()

	wait = func(ctx context.Context) error {
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			c.mu.Lock()
			delete(c.waiters, name)
			c.mu.Unlock()
			return ctx.Err()
		}
	}
	return name, wait, nil
}

// Observe fulfills the waiter registered for name, if any. It is called by
// the io thread for every path flowing through the pending queue; names
// not currently registered (ordinary files, or cookies already observed)
// are a no-op.
func (c *CookieSync) Observe(name string) {
	c.mu.Lock()
	done, ok := c.waiters[name]
	if ok {
		delete(c.waiters, name)
	}
	c.mu.Unlock()
	if ok {
		close(done)
	}
}

// IsCookie reports whether name looks like a cookie-sync bookkeeping file,
// so the crawl/notify loop can exclude it from ordinary change processing.
func IsCookie(name string) bool {
	return len(name) > len(CookiePrefix) && name[:len(CookiePrefix)] == CookiePrefix
}
