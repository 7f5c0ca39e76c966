// Package cache implements the LRU symlink/content cache: a bounded cache
// of futures keyed by path, with negative-TTL caching of lookup failures and
// coalescing of concurrent loads for the same key.
package cache

import (
	"sync"
	"time"

	"github.com/golang/groupcache/lru"

	"github.com/watchgraph/watchgraphd/pkg/threadpool"
)

// Loader produces a Future for key, typically by submitting I/O work (a
// symlink read, a content hash) to a thread pool.
type Loader func(key string) *threadpool.Future

// entry is what the underlying lru.Cache actually stores: either a
// positive result, a negative (error) result with the time it was
// recorded, or neither while a load is inflight (inflight entries are
// tracked separately, not in the lru.Cache, since they aren't eviction
// candidates in the same sense described in §4.12).
type entry struct {
	negative  bool
	value     interface{}
	err       error
	recordedAt time.Time
}

// Cache is a generic-by-interface{} LRU cache of futures. It is safe for
// concurrent use.
type Cache struct {
	mu       sync.Mutex
	lru      *lru.Cache
	errorTTL time.Duration
	inflight map[string]*threadpool.Future
}

// New creates a cache with the given maximum item count and error-TTL for
// negative entries. A non-positive maxItems means no limit, matching
// groupcache/lru's own convention.
func New(maxItems int, errorTTL time.Duration) *Cache {
	c := &Cache{
		lru:      lru.New(maxItems),
		errorTTL: errorTTL,
		inflight: make(map[string]*threadpool.Future),
	}
	return c
}

// Get implements the §4.12 contract: a positive entry returns immediately;
// a live negative entry returns immediately with its cached error; an
// inflight load for the same key is shared rather than duplicated;
// otherwise loader is invoked and its result, once ready, is promoted into
// the cache (positive or negative) by a background goroutine. Callers that
// coalesced onto the inflight load receive the loader's future itself, so
// they can see the result before promotion has run.
func (c *Cache) Get(key string, loader Loader) *threadpool.Future {
	c.mu.Lock()

	if raw, ok := c.lru.Get(key); ok {
		e := raw.(*entry)
		if e.negative {
			if time.Since(e.recordedAt) < c.errorTTL {
				c.mu.Unlock()
				return threadpool.Rejected(e.err)
			}
			// Expired negative entry: fall through to reload, first
			// removing the stale entry so eviction accounting stays
			// correct.
			c.lru.Remove(key)
		} else {
			c.mu.Unlock()
			return threadpool.Resolved(e.value)
		}
	}

	if future, ok := c.inflight[key]; ok {
		c.mu.Unlock()
		return future
	}

	future := loader(key)
	c.inflight[key] = future
	c.mu.Unlock()

	// Arrange for the loader's result to be promoted into the cache once
	// ready. Concurrent callers that coalesced onto this same future (via
	// c.inflight) observe the identical value/error regardless of whether
	// promotion has run yet, since Future.Wait blocks on the loader's own
	// completion rather than on this goroutine.
	go func() {
		value, err := future.Wait()

		c.mu.Lock()
		delete(c.inflight, key)
		if err != nil {
			c.lru.Add(key, &entry{negative: true, err: err, recordedAt: time.Now()})
		} else {
			c.lru.Add(key, &entry{value: value})
		}
		c.mu.Unlock()
	}()

	return future
}

// Remove evicts key from the cache (positive or negative), if present.
func (c *Cache) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Remove(key)
}

// Len reports the number of positive and negative entries currently
// cached, excluding inflight loads that haven't yet resolved.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}
