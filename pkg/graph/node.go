package graph

import (
	"time"

	"github.com/watchgraph/watchgraphd/pkg/intern"
)

// Tick pairs a logical tick value with the wall-clock time it was recorded
// at, used for both a file's ctime (creation-as-far-as-this-root-knows)
// and otime (last observed-change) marks.
type Tick struct {
	Ticks     uint32
	Timestamp time.Time
}

// Stat is the subset of platform stat information the graph caches on a
// FileNode, covering every field the query engine's projectors can
// surface (§4.9's field list) except symlink_target and content hash,
// which require I/O and are resolved lazily through pkg/cache instead of
// being cached inline here.
type Stat struct {
	Size      int64
	Mode      uint32
	UID       uint32
	GID       uint32
	ATime     time.Time
	MTime     time.Time
	CTime     time.Time
	Ino       uint64
	Dev       uint64
	NLink     uint32
	IsDir     bool
	IsSymlink bool
}

// DirNode owns a mapping from child name to child directory and from
// child name to child file, plus an opaque platform watch handle. A
// DirNode is conceptually owned by its parent; the root directory is
// owned by the Graph itself.
type DirNode struct {
	Name     intern.String
	Parent   DirHandle
	Children map[string]DirHandle
	Files    map[string]FileHandle
	Watch    interface{}
}

// FileNode is a single watched file's cached state. Exists transitions
// true->false without removing the node: the node is retained (so change
// streams can still report the deletion) until age-out reaps it.
type FileNode struct {
	Parent       DirHandle
	Name         intern.String
	Exists       bool
	MaybeDeleted bool
	Stat         Stat
	CTime        Tick
	OTime        Tick
	New          bool
	Watch        interface{}

	// recentPrev/recentNext link this node into the root-global
	// recently-changed list (head = most recently changed).
	recentPrev, recentNext FileHandle
	// suffixPrev/suffixNext link this node into its per-suffix list.
	suffixPrev, suffixNext FileHandle
	suffix                 string
}
