package cache

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/watchgraph/watchgraphd/pkg/threadpool"
)

func TestGetCachesPositiveResult(t *testing.T) {
	c := New(16, time.Minute)
	var calls int32

	loader := func(key string) *threadpool.Future {
		atomic.AddInt32(&calls, 1)
		return threadpool.Resolved("value-for-" + key)
	}

	first, err := c.Get("a", loader).Wait()
	if err != nil {
		t.Fatal(err)
	}
	second, err := c.Get("a", loader).Wait()
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Fatalf("expected consistent cached value, got %v vs %v", first, second)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected loader called once, got %d", got)
	}
}

func TestGetCachesNegativeResultUntilTTLExpires(t *testing.T) {
	c := New(16, 20*time.Millisecond)
	var calls int32
	wantErr := errors.New("load failed")

	loader := func(key string) *threadpool.Future {
		atomic.AddInt32(&calls, 1)
		return threadpool.Rejected(wantErr)
	}

	if _, err := c.Get("a", loader).Wait(); err != wantErr {
		t.Fatalf("expected wantErr, got %v", err)
	}
	if _, err := c.Get("a", loader).Wait(); err != wantErr {
		t.Fatalf("expected cached wantErr on second call, got %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected loader called once before TTL expiry, got %d", got)
	}

	time.Sleep(40 * time.Millisecond)
	if _, err := c.Get("a", loader).Wait(); err != wantErr {
		t.Fatalf("expected wantErr again after reload, got %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Fatalf("expected loader called again after TTL expiry, got %d", got)
	}
}

func TestGetCoalescesConcurrentInflightLoaders(t *testing.T) {
	c := New(16, time.Minute)
	var calls int32
	release := make(chan struct{})

	loader := func(key string) *threadpool.Future {
		atomic.AddInt32(&calls, 1)
		pool := threadpool.New(1, 1)
		future, _ := pool.Submit(func() (interface{}, error) {
			<-release
			return "resolved", nil
		})
		return future
	}

	f1 := c.Get("a", loader)
	f2 := c.Get("a", loader)
	close(release)

	v1, _ := f1.Wait()
	v2, _ := f2.Wait()
	if v1 != v2 {
		t.Fatalf("expected coalesced result, got %v vs %v", v1, v2)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected loader invoked once for concurrent callers, got %d", got)
	}
}

func TestRemoveEvictsEntry(t *testing.T) {
	c := New(16, time.Minute)
	c.Get("a", func(key string) *threadpool.Future { return threadpool.Resolved("x") }).Wait()
	if c.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", c.Len())
	}
	c.Remove("a")
	if c.Len() != 0 {
		t.Fatalf("expected 0 entries after Remove, got %d", c.Len())
	}
}
