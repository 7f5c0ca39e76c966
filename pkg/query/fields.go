package query

import (
	"crypto/sha1"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/watchgraph/watchgraphd/pkg/cache"
	"github.com/watchgraph/watchgraphd/pkg/clock"
	"github.com/watchgraph/watchgraphd/pkg/graph"
	"github.com/watchgraph/watchgraphd/pkg/threadpool"
)

// ProjectContext supplies a field projector with everything it needs beyond
// the candidate itself: the root's clock (for oclock/cclock rendering), the
// root's absolute path (to resolve a candidate's relative path for I/O
// fields), and the pool/caches lazy fields dispatch work onto.
type ProjectContext struct {
	Clock        *clock.Clock
	RootPath     string
	Pool         *threadpool.Pool
	SymlinkCache *cache.Cache
	ContentCache *cache.Cache
}

func (ctx *ProjectContext) absolutePath(c Candidate) string {
	return filepath.Join(ctx.RootPath, c.RelativePath)
}

// syncProjector computes a field value directly from the candidate, with no
// I/O beyond what's already cached on the FileNode.
type syncProjector func(ctx *ProjectContext, c Candidate) interface{}

// lazyProjector computes a field value that may require I/O (reading a
// symlink target, hashing file content), returned as a Future so a query
// result spanning many files can fan that I/O out across the pool instead
// of performing it serially on the protocol thread.
type lazyProjector func(ctx *ProjectContext, c Candidate) *threadpool.Future

// fieldEntry holds exactly one of sync or lazy, never both: a field is
// either computable in-process from cached state or requires dispatching
// I/O, and never needs both strategies.
type fieldEntry struct {
	sync syncProjector
	lazy lazyProjector
}

var fieldRegistry = make(map[string]fieldEntry)

func registerSync(name string, p syncProjector) {
	fieldRegistry[name] = fieldEntry{sync: p}
}

func registerLazy(name string, p lazyProjector) {
	fieldRegistry[name] = fieldEntry{lazy: p}
}

// KnownField reports whether name is a recognized projectable field.
func KnownField(name string) bool {
	_, ok := fieldRegistry[name]
	return ok
}

func init() {
	registerSync("name", func(_ *ProjectContext, c Candidate) interface{} {
		return c.RelativePath
	})
	registerSync("exists", func(_ *ProjectContext, c Candidate) interface{} {
		return c.Node.Exists
	})
	registerSync("size", func(_ *ProjectContext, c Candidate) interface{} {
		return c.Node.Stat.Size
	})
	registerSync("mode", func(_ *ProjectContext, c Candidate) interface{} {
		return c.Node.Stat.Mode
	})
	registerSync("uid", func(_ *ProjectContext, c Candidate) interface{} {
		return c.Node.Stat.UID
	})
	registerSync("gid", func(_ *ProjectContext, c Candidate) interface{} {
		return c.Node.Stat.GID
	})
	registerSync("ino", func(_ *ProjectContext, c Candidate) interface{} {
		return c.Node.Stat.Ino
	})
	registerSync("dev", func(_ *ProjectContext, c Candidate) interface{} {
		return c.Node.Stat.Dev
	})
	registerSync("nlink", func(_ *ProjectContext, c Candidate) interface{} {
		return c.Node.Stat.NLink
	})
	registerSync("new", func(_ *ProjectContext, c Candidate) interface{} {
		return c.Node.New
	})
	registerSync("type", func(_ *ProjectContext, c Candidate) interface{} {
		switch {
		case c.Node.Stat.IsSymlink:
			return "l"
		case c.Node.Stat.IsDir:
			return "d"
		default:
			return "f"
		}
	})
	registerSync("oclock", func(ctx *ProjectContext, c Candidate) interface{} {
		return ctx.Clock.StringAt(c.Node.OTime.Ticks)
	})
	registerSync("cclock", func(ctx *ProjectContext, c Candidate) interface{} {
		return ctx.Clock.StringAt(c.Node.CTime.Ticks)
	})

	registerTimeField("atime", func(n *graph.FileNode) time.Time { return n.Stat.ATime })
	registerTimeField("mtime", func(n *graph.FileNode) time.Time { return n.Stat.MTime })
	registerTimeField("ctime", func(n *graph.FileNode) time.Time { return n.Stat.CTime })

	registerLazy("symlink_target", projectSymlinkTarget)
	registerLazy("content.sha1hex", projectContentSHA1Hex)
}

// registerTimeField registers the base field plus its four suffix variants
// (_ms, _us, _ns, _f), matching the field list's `{a,m,c}time{,_ms,_us,_ns,_f}`
// notation: the base field and _ms/_us/_ns are integer representations at
// progressively finer resolution, and _f is a float seconds value.
func registerTimeField(name string, get func(*graph.FileNode) time.Time) {
	registerSync(name, func(_ *ProjectContext, c Candidate) interface{} {
		return get(c.Node).Unix()
	})
	registerSync(name+"_ms", func(_ *ProjectContext, c Candidate) interface{} {
		return get(c.Node).UnixNano() / int64(time.Millisecond)
	})
	registerSync(name+"_us", func(_ *ProjectContext, c Candidate) interface{} {
		return get(c.Node).UnixNano() / int64(time.Microsecond)
	})
	registerSync(name+"_ns", func(_ *ProjectContext, c Candidate) interface{} {
		return get(c.Node).UnixNano()
	})
	registerSync(name+"_f", func(_ *ProjectContext, c Candidate) interface{} {
		return float64(get(c.Node).UnixNano()) / 1e9
	})
}

// projectSymlinkTarget reads a symlink's target, coalesced and cached by
// pkg/cache so repeated queries over an unchanged symlink don't re-stat it.
func projectSymlinkTarget(ctx *ProjectContext, c Candidate) *threadpool.Future {
	if !c.Node.Stat.IsSymlink {
		return threadpool.Resolved("")
	}
	absolutePath := ctx.absolutePath(c)
	if ctx.SymlinkCache == nil {
		return submitOrInline(ctx.Pool, func() (interface{}, error) {
			return os.Readlink(absolutePath)
		})
	}
	return ctx.SymlinkCache.Get(absolutePath, func(key string) *threadpool.Future {
		return submitOrInline(ctx.Pool, func() (interface{}, error) {
			return os.Readlink(key)
		})
	})
}

// projectContentSHA1Hex hashes a regular file's content, coalesced and
// cached by pkg/cache keyed on the file's absolute path together with the
// tick of its last observed change, so a file that changes afterwards
// misses the cache and is hashed again.
func projectContentSHA1Hex(ctx *ProjectContext, c Candidate) *threadpool.Future {
	if c.Node.Stat.IsDir || c.Node.Stat.IsSymlink || !c.Node.Exists {
		return threadpool.Resolved("")
	}
	absolutePath := ctx.absolutePath(c)
	hash := func(path string) (interface{}, error) {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		h := sha1.New()
		if _, err := io.Copy(h, f); err != nil {
			return nil, err
		}
		return hex.EncodeToString(h.Sum(nil)), nil
	}
	if ctx.ContentCache == nil {
		return submitOrInline(ctx.Pool, func() (interface{}, error) {
			return hash(absolutePath)
		})
	}
	key := absolutePath + "\x00" + ctx.Clock.StringAt(c.Node.OTime.Ticks)
	return ctx.ContentCache.Get(key, func(string) *threadpool.Future {
		return submitOrInline(ctx.Pool, func() (interface{}, error) {
			return hash(absolutePath)
		})
	})
}

// submitOrInline dispatches task onto pool when one is configured, falling
// back to running it synchronously (still wrapped in a Future, so callers
// have one code path) when no pool was supplied, as tests constructing a
// bare ProjectContext commonly do.
func submitOrInline(pool *threadpool.Pool, task threadpool.Task) *threadpool.Future {
	if pool == nil {
		value, err := task()
		if err != nil {
			return threadpool.Rejected(err)
		}
		return threadpool.Resolved(value)
	}
	future, err := pool.Submit(task)
	if err != nil {
		return threadpool.Rejected(err)
	}
	return future
}

// Project evaluates fields for every candidate, collecting all lazy
// futures across the whole batch before assembling results, matching the
// §4.9 requirement that "when any lazy projector is present the result
// array is assembled by collecting all file-level futures before
// responding" rather than blocking candidate-by-candidate.
func Project(ctx *ProjectContext, fields []string, candidates []Candidate) ([]map[string]interface{}, error) {
	results := make([]map[string]interface{}, len(candidates))
	type pendingField struct {
		index int
		field string
		future *threadpool.Future
	}
	var pendingFields []pendingField

	for i, c := range candidates {
		result := make(map[string]interface{}, len(fields))
		for _, field := range fields {
			entry, ok := fieldRegistry[field]
			if !ok {
				continue
			}
			if entry.sync != nil {
				result[field] = entry.sync(ctx, c)
				continue
			}
			pendingFields = append(pendingFields, pendingField{
				index:  i,
				field:  field,
				future: entry.lazy(ctx, c),
			})
		}
		results[i] = result
	}

	for _, p := range pendingFields {
		value, err := p.future.Wait()
		if err != nil {
			results[p.index][p.field] = ""
			continue
		}
		results[p.index][p.field] = value
	}

	return results, nil
}
