package graph

import (
	"strings"
	"time"

	"github.com/watchgraph/watchgraphd/pkg/intern"
)

// Graph is one root's directory/file tree plus its auxiliary lists. It is
// not internally synchronized: callers are expected to hold the owning
// root's readers-writer lock (see pkg/root) around any mutation, matching
// how the teacher's TrackingLock externalizes locking from the state it
// protects rather than embedding a mutex in every data structure.
type Graph struct {
	separator byte

	dirs  dirArena
	files fileArena

	rootDir DirHandle

	recentHead, recentTail FileHandle
	suffixHeads            map[string]FileHandle
}

// New creates a graph for a root whose absolute path is rootPath.
func New(rootPath string, separator byte) *Graph {
	g := &Graph{
		separator:   separator,
		suffixHeads: make(map[string]FileHandle),
	}
	root := DirNode{
		Name:     intern.NewFromString(rootPath),
		Parent:   NilDirHandle,
		Children: make(map[string]DirHandle),
		Files:    make(map[string]FileHandle),
	}
	g.rootDir = g.dirs.alloc(root)
	return g
}

// Root returns the handle of the root directory node.
func (g *Graph) Root() DirHandle {
	return g.rootDir
}

// Dir resolves h to its DirNode, or nil if h is stale or unknown.
func (g *Graph) Dir(h DirHandle) *DirNode {
	return g.dirs.get(h)
}

// File resolves h to its FileNode, or nil if h is stale or unknown.
func (g *Graph) File(h FileHandle) *FileNode {
	return g.files.get(h)
}

// ResolveDir walks path (split on the graph's separator, relative to the
// root) from the root directory, creating missing intermediate and final
// directories when create is true. It returns (NilDirHandle, false) if an
// intermediate component is missing and create is false.
func (g *Graph) ResolveDir(path string, create bool) (DirHandle, bool) {
	current := g.rootDir
	if path == "" {
		return current, true
	}
	for _, component := range strings.Split(path, string(g.separator)) {
		if component == "" {
			continue
		}
		dir := g.dirs.get(current)
		child, ok := dir.Children[component]
		if !ok {
			if !create {
				return NilDirHandle, false
			}
			child = g.dirs.alloc(DirNode{
				Name:     intern.NewFromString(component),
				Parent:   current,
				Children: make(map[string]DirHandle),
				Files:    make(map[string]FileHandle),
			})
			dir.Children[component] = child
		}
		current = child
	}
	return current, true
}

// ResolveFile returns the existing FileNode for name within dir, or
// allocates a new one with ctime set to {ticks, now}, exists=true, and
// splices it at the head of both the recently-changed list and its
// per-suffix list. It reports whether a node was newly created.
func (g *Graph) ResolveFile(dir DirHandle, name string, now time.Time, ticks uint32) (FileHandle, bool) {
	dirNode := g.dirs.get(dir)
	if existing, ok := dirNode.Files[name]; ok {
		return existing, false
	}

	node := FileNode{
		Parent: dir,
		Name:   intern.NewFromString(name),
		Exists: true,
		New:    true,
		CTime:  Tick{Ticks: ticks, Timestamp: now},
		OTime:  Tick{Ticks: ticks, Timestamp: now},
		suffix: suffixOf(name),
	}
	handle := g.files.alloc(node)
	dirNode.Files[name] = handle

	g.pushRecentHead(handle)
	g.pushSuffixHead(handle)

	return handle, true
}

// MarkFileChanged records a change to file: sets otime to {ticks, now} and
// moves the node to the head of the recently-changed list. Per-file
// platform watch start/stop is the caller's responsibility (it depends on
// watcher capabilities outside the graph's concern), matching §4.5's
// separation between graph bookkeeping and the watcher abstraction.
func (g *Graph) MarkFileChanged(handle FileHandle, now time.Time, ticks uint32) {
	node := g.files.get(handle)
	if node == nil {
		return
	}
	node.OTime = Tick{Ticks: ticks, Timestamp: now}
	g.unlinkRecent(handle)
	g.pushRecentHead(handle)
}

// MarkDeleted transitions file's exists flag to false, updates otime, and
// retains the node (per §3's FileNode invariant) rather than freeing it;
// age-out is responsible for eventual reclamation.
func (g *Graph) MarkDeleted(handle FileHandle, now time.Time, ticks uint32) {
	node := g.files.get(handle)
	if node == nil {
		return
	}
	node.Exists = false
	node.OTime = Tick{Ticks: ticks, Timestamp: now}
	g.unlinkRecent(handle)
	g.pushRecentHead(handle)
}

// MarkDeletedRecursive marks every file beneath dir (including dir's own
// direct file children, and recursing into subdirectories) as deleted,
// for when an entire subtree disappears out from under the watch (the
// containing directory itself is removed, renamed, or its watch is torn
// down).
func (g *Graph) MarkDeletedRecursive(dir DirHandle, now time.Time, ticks uint32) {
	dirNode := g.dirs.get(dir)
	if dirNode == nil {
		return
	}
	for _, fileHandle := range dirNode.Files {
		g.MarkDeleted(fileHandle, now, ticks)
	}
	for _, childDir := range dirNode.Children {
		g.MarkDeletedRecursive(childDir, now, ticks)
	}
}

// pushRecentHead splices handle at the head of the recently-changed list.
func (g *Graph) pushRecentHead(handle FileHandle) {
	node := g.files.get(handle)
	node.recentPrev = NilFileHandle
	node.recentNext = g.recentHead
	if head := g.files.get(g.recentHead); head != nil {
		head.recentPrev = handle
	}
	g.recentHead = handle
	if g.recentTail.IsNil() {
		g.recentTail = handle
	}
}

// unlinkRecent removes handle from the recently-changed list, wherever it
// currently sits.
func (g *Graph) unlinkRecent(handle FileHandle) {
	node := g.files.get(handle)
	if node == nil {
		return
	}
	if prev := g.files.get(node.recentPrev); prev != nil {
		prev.recentNext = node.recentNext
	} else if g.recentHead == handle {
		g.recentHead = node.recentNext
	}
	if next := g.files.get(node.recentNext); next != nil {
		next.recentPrev = node.recentPrev
	} else if g.recentTail == handle {
		g.recentTail = node.recentPrev
	}
	node.recentPrev = NilFileHandle
	node.recentNext = NilFileHandle
}

// pushSuffixHead splices handle at the head of its per-suffix list.
func (g *Graph) pushSuffixHead(handle FileHandle) {
	node := g.files.get(handle)
	head := g.suffixHeads[node.suffix]
	node.suffixPrev = NilFileHandle
	node.suffixNext = head
	if headNode := g.files.get(head); headNode != nil {
		headNode.suffixPrev = handle
	}
	g.suffixHeads[node.suffix] = handle
}

// unlinkSuffix removes handle from its per-suffix list.
func (g *Graph) unlinkSuffix(handle FileHandle) {
	node := g.files.get(handle)
	if node == nil {
		return
	}
	if prev := g.files.get(node.suffixPrev); prev != nil {
		prev.suffixNext = node.suffixNext
	} else if g.suffixHeads[node.suffix] == handle {
		if node.suffixNext.IsNil() {
			delete(g.suffixHeads, node.suffix)
		} else {
			g.suffixHeads[node.suffix] = node.suffixNext
		}
	}
	if next := g.files.get(node.suffixNext); next != nil {
		next.suffixPrev = node.suffixPrev
	}
	node.suffixPrev = NilFileHandle
	node.suffixNext = NilFileHandle
}

// RecentlyChanged returns handles in the recently-changed list from head
// (most recent) to tail, for iteration by the since-generator and age-out.
func (g *Graph) RecentlyChanged() []FileHandle {
	var out []FileHandle
	for h := g.recentHead; !h.IsNil(); {
		out = append(out, h)
		node := g.files.get(h)
		if node == nil {
			break
		}
		h = node.recentNext
	}
	return out
}

// SuffixList returns handles in the per-suffix list for suffix (lowercase,
// without a leading dot), head to tail.
func (g *Graph) SuffixList(suffix string) []FileHandle {
	var out []FileHandle
	for h := g.suffixHeads[suffix]; !h.IsNil(); {
		out = append(out, h)
		node := g.files.get(h)
		if node == nil {
			break
		}
		h = node.suffixNext
	}
	return out
}

// AgeOut traverses the recently-changed list from the tail, stopping at
// the first node whose otime is not older than the cutoff (now - gcAge).
// Every older node that no longer exists is unlinked from both lists and
// freed; this bounds graph memory growth for files that have been deleted
// and whose deletion has aged out of relevance. It returns the highest
// tick value among reaped nodes (for updating last_age_out_tick), or 0 if
// nothing was reaped.
func (g *Graph) AgeOut(now time.Time, gcAge time.Duration) uint32 {
	cutoff := now.Add(-gcAge)
	var maxReapedTick uint32

	for h := g.recentTail; !h.IsNil(); {
		node := g.files.get(h)
		if node == nil {
			break
		}
		if node.OTime.Timestamp.After(cutoff) {
			break
		}
		prev := node.recentPrev
		if !node.Exists {
			if node.OTime.Ticks > maxReapedTick {
				maxReapedTick = node.OTime.Ticks
			}
			g.freeFile(h)
		}
		h = prev
	}

	return maxReapedTick
}

// freeFile unlinks handle from both lists, removes it from its parent
// directory's file map, and returns its slot to the arena free list.
func (g *Graph) freeFile(handle FileHandle) {
	node := g.files.get(handle)
	if node == nil {
		return
	}
	g.unlinkRecent(handle)
	g.unlinkSuffix(handle)
	if parent := g.dirs.get(node.Parent); parent != nil {
		delete(parent.Files, node.Name.String())
	}
	g.files.free_(handle)
}

func suffixOf(name string) string {
	idx := strings.LastIndexByte(name, '.')
	if idx <= 0 || idx == len(name)-1 {
		return ""
	}
	return strings.ToLower(name[idx+1:])
}
