// Package graph implements the directory/file graph: a tree of directory
// nodes owning file nodes, an intrusive doubly-linked list of
// recently-changed files, and per-suffix secondary lists, all addressed
// through stable {generation, index} handles into slab arenas rather than
// raw pointers.
//
// REDESIGN NOTE: the naked reference counts and raw intrusive-list
// pointers of the originating design are replaced here with a slab
// allocator per node kind, yielding handles that stay valid (and
// detectably stale, via the generation counter) across frees — the list
// "pointers" are themselves just handles, so splicing a node in or out of
// the recently-changed or suffix lists is an O(1) handle rewrite with no
// aliasing hazard.
package graph

// DirHandle addresses a DirNode in a Graph's directory arena.
type DirHandle struct {
	index      uint32
	generation uint32
}

// FileHandle addresses a FileNode in a Graph's file arena.
type FileHandle struct {
	index      uint32
	generation uint32
}

// NilDirHandle is the zero DirHandle, used as an absent reference (no
// parent, no child in this slot).
var NilDirHandle = DirHandle{}

// NilFileHandle is the zero FileHandle, used as an absent list link.
var NilFileHandle = FileHandle{}

// IsNil reports whether h is the zero handle.
func (h DirHandle) IsNil() bool { return h == NilDirHandle }

// IsNil reports whether h is the zero handle.
func (h FileHandle) IsNil() bool { return h == NilFileHandle }

// dirSlot is one entry of the directory arena. generation is bumped every
// time the slot is freed and reused, so a stale handle captured before a
// free can be detected (rather than silently aliasing whatever now
// occupies the slot).
type dirSlot struct {
	generation uint32
	occupied   bool
	node       DirNode
}

// fileSlot is one entry of the file arena.
type fileSlot struct {
	generation uint32
	occupied   bool
	node       FileNode
}

// dirArena is a slab allocator for DirNode values.
type dirArena struct {
	slots []dirSlot
	free  []uint32
}

func (a *dirArena) alloc(node DirNode) DirHandle {
	if n := len(a.free); n > 0 {
		idx := a.free[n-1]
		a.free = a.free[:n-1]
		slot := &a.slots[idx]
		slot.occupied = true
		slot.node = node
		return DirHandle{index: idx, generation: slot.generation}
	}
	// New slots start at generation 1 so that no live handle equals the
	// zero (nil) handle.
	idx := uint32(len(a.slots))
	a.slots = append(a.slots, dirSlot{generation: 1, occupied: true, node: node})
	return DirHandle{index: idx, generation: 1}
}

func (a *dirArena) get(h DirHandle) *DirNode {
	if h.IsNil() || int(h.index) >= len(a.slots) {
		return nil
	}
	slot := &a.slots[h.index]
	if !slot.occupied || slot.generation != h.generation {
		return nil
	}
	return &slot.node
}

func (a *dirArena) free_(h DirHandle) {
	if h.IsNil() || int(h.index) >= len(a.slots) {
		return
	}
	slot := &a.slots[h.index]
	if !slot.occupied || slot.generation != h.generation {
		return
	}
	slot.occupied = false
	slot.node = DirNode{}
	slot.generation++
	a.free = append(a.free, h.index)
}

// fileArena is a slab allocator for FileNode values.
type fileArena struct {
	slots []fileSlot
	free  []uint32
}

func (a *fileArena) alloc(node FileNode) FileHandle {
	if n := len(a.free); n > 0 {
		idx := a.free[n-1]
		a.free = a.free[:n-1]
		slot := &a.slots[idx]
		slot.occupied = true
		slot.node = node
		return FileHandle{index: idx, generation: slot.generation}
	}
	idx := uint32(len(a.slots))
	a.slots = append(a.slots, fileSlot{generation: 1, occupied: true, node: node})
	return FileHandle{index: idx, generation: 1}
}

func (a *fileArena) get(h FileHandle) *FileNode {
	if h.IsNil() || int(h.index) >= len(a.slots) {
		return nil
	}
	slot := &a.slots[h.index]
	if !slot.occupied || slot.generation != h.generation {
		return nil
	}
	return &slot.node
}

func (a *fileArena) free_(h FileHandle) {
	if h.IsNil() || int(h.index) >= len(a.slots) {
		return
	}
	slot := &a.slots[h.index]
	if !slot.occupied || slot.generation != h.generation {
		return
	}
	slot.occupied = false
	slot.node = FileNode{}
	slot.generation++
	a.free = append(a.free, h.index)
}
