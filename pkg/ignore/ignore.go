// Package ignore implements the ignore engine: a longest-prefix-match
// lookup over two independently configured path sets, "fully ignored"
// (prunes the matched subtree entirely) and "vcs-ignored" (prunes
// grandchildren and deeper, but still observes direct children of the
// matched path, matching how a VCS metadata directory's immediate entries
// are sometimes still of interest while its internals never are).
package ignore

import (
	"strings"
)

// node is one level of the path-component trie. Matching is done
// component-by-component rather than byte-by-byte: since every boundary
// that matters ("is this a real path-separator-aligned prefix, not just a
// string that happens to share a byte run") falls on a component boundary,
// a component trie gives exact longest-prefix-at-a-separator semantics
// without the "foo" vs "food" false-positive a byte-level memcmp would
// produce, and without reimplementing general adaptive-radix-tree
// compression for a key space (filesystem paths) that's already naturally
// segmented.
type node struct {
	children map[string]*node
	terminal bool
}

func newNode() *node {
	return &node{children: make(map[string]*node)}
}

// Engine holds the fully-ignored and vcs-ignored path sets for one root.
type Engine struct {
	separator byte
	full      *node
	vcs       *node
}

// New creates an empty ignore engine using separator to split and rejoin
// path components.
func New(separator byte) *Engine {
	return &Engine{separator: separator, full: newNode(), vcs: newNode()}
}

// AddFullyIgnored registers path so that it and everything beneath it is
// pruned from the watch entirely.
func (e *Engine) AddFullyIgnored(path string) {
	insert(e.full, e.splitPath(path))
}

// AddVCSIgnored registers path so that its direct children are still
// observed but anything beneath those is pruned — the shape of a
// `.git`-style metadata directory, whose top-level layout (HEAD, refs/,
// objects/) watchman traditionally still reports on on, but whose deep
// internals are never of interest.
func (e *Engine) AddVCSIgnored(path string) {
	insert(e.vcs, e.splitPath(path))
}

func (e *Engine) splitPath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, string(e.separator))
}

func insert(root *node, components []string) {
	current := root
	for _, c := range components {
		next, ok := current.children[c]
		if !ok {
			next = newNode()
			current.children[c] = next
		}
		current = next
	}
	current.terminal = true
}

// longestMatchDepth walks components against root, returning the
// component-count depth of the longest registered prefix that is an
// ancestor of (or equal to) the query path, or -1 if there is no match.
func longestMatchDepth(root *node, components []string) int {
	current := root
	best := -1
	if current.terminal {
		best = 0
	}
	for i, c := range components {
		next, ok := current.children[c]
		if !ok {
			break
		}
		current = next
		if current.terminal {
			best = i + 1
		}
	}
	return best
}

// Classification reports how a path is treated by the ignore engine.
type Classification struct {
	// FullyIgnored means the path (or an ancestor of it) is in the
	// fully-ignored set: the entire subtree is pruned.
	FullyIgnored bool
	// VCSPruned means the path is at least a grandchild of a vcs-ignored
	// directory: its content is pruned, though the vcs-ignored directory
	// itself and its direct children are still observed.
	VCSPruned bool
}

// Ignored reports whether the path should be excluded from the watch at
// all (fully ignored, or vcs-pruned).
func (c Classification) Ignored() bool {
	return c.FullyIgnored || c.VCSPruned
}

// Classify evaluates path against both the fully-ignored and vcs-ignored
// sets.
func (e *Engine) Classify(path string) Classification {
	components := e.splitPath(path)

	var result Classification
	if depth := longestMatchDepth(e.full, components); depth >= 0 {
		result.FullyIgnored = true
	}

	if depth := longestMatchDepth(e.vcs, components); depth >= 0 {
		remaining := len(components) - depth
		if remaining >= 2 {
			result.VCSPruned = true
		}
	}

	return result
}
