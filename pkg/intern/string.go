// Package intern implements the single identifier type used throughout the
// service for paths, subscription names, cursor names, and map keys: an
// immutable, reference-counted byte string with a precomputed hash.
package intern

import (
	"unicode/utf8"
)

// Kind classifies the byte content of a String.
type Kind uint8

const (
	// KindUnknown indicates that the byte content has not yet been classified.
	KindUnknown Kind = iota
	// KindBlob indicates that the byte content is not valid UTF-8.
	KindBlob
	// KindUTF8 indicates that the byte content is entirely valid UTF-8.
	KindUTF8
	// KindMixed indicates that the byte content is a slice of a larger buffer
	// whose UTF-8 validity can't be determined without examining the full
	// parent buffer (e.g. a slice that splits a multi-byte rune).
	KindMixed
)

// header is the shared backing storage for one or more String values. It is
// allocated once per distinct byte buffer; slices taken from a String all
// point at the same header. The specification describes this storage as
// explicitly reference-counted, but in Go the garbage collector already keeps
// a header alive for exactly as long as any String references it, so no
// explicit count is kept here.
type header struct {
	// data holds the buffer's bytes, followed by a single trailing NUL, so
	// that CString is always available without a copy.
	data []byte
}

// String is an immutable, reference-counted byte string with a cached 32-bit
// hash. It is the sole identifier type for paths, subscription names, cursor
// names, and map keys. The zero value is not valid; use New or a derived
// constructor.
type String struct {
	// h is the shared backing storage.
	h *header
	// offset is this String's start within h.data.
	offset int
	// length is this String's length within h.data.
	length int
	// hash is the cached 32-bit hash of the string's bytes. It is computed
	// lazily on first access via Hash and then immutable.
	hash uint32
	// hashed indicates whether hash has been computed.
	hashed bool
	// kind classifies the byte content.
	kind Kind
}

// New constructs a String from a copy of the provided bytes.
func New(data []byte) String {
	buffer := make([]byte, len(data)+1)
	copy(buffer, data)
	h := &header{data: buffer}
	return String{h: h, offset: 0, length: len(data)}
}

// NewFromString constructs a String from a Go string, copying its bytes.
func NewFromString(s string) String {
	return New([]byte(s))
}

// Empty returns the canonical empty String.
func Empty() String {
	return New(nil)
}

// Bytes returns the String's content as a byte slice. The returned slice
// shares storage with the String and must not be mutated.
func (s String) Bytes() []byte {
	if s.h == nil {
		return nil
	}
	return s.h.data[s.offset : s.offset+s.length]
}

// String returns the String's content as a Go string. This allocates a copy,
// since Go strings are themselves immutable and our backing storage is
// shared.
func (s String) String() string {
	return string(s.Bytes())
}

// Len returns the number of bytes in the String.
func (s String) Len() int {
	return s.length
}

// IsEmpty returns whether or not the String has zero length.
func (s String) IsEmpty() bool {
	return s.length == 0
}

// CString returns a NUL-terminated view of the String's bytes, valid only
// when the String extends to the end of its backing buffer (i.e. it is not a
// non-trailing slice of a larger String). This mirrors the layout described
// in the specification: {header, inline bytes, NUL} in a single allocation.
func (s String) CString() ([]byte, bool) {
	if s.h == nil {
		return []byte{0}, true
	}
	if s.offset+s.length != len(s.h.data)-1 {
		return nil, false
	}
	return s.h.data[s.offset : s.offset+s.length+1], true
}

// mix32 is a 32-bit avalanche mixing function (Murmur3's finalizer),
// providing good distribution for the cached hash.
func mix32(data []byte) uint32 {
	var h uint32 = 0x9747b28c
	for len(data) >= 4 {
		k := uint32(data[0]) | uint32(data[1])<<8 | uint32(data[2])<<16 | uint32(data[3])<<24
		k *= 0xcc9e2d51
		k = (k << 15) | (k >> 17)
		k *= 0x1b873593
		h ^= k
		h = (h << 13) | (h >> 19)
		h = h*5 + 0xe6546b64
		data = data[4:]
	}
	var tail uint32
	switch len(data) {
	case 3:
		tail ^= uint32(data[2]) << 16
		fallthrough
	case 2:
		tail ^= uint32(data[1]) << 8
		fallthrough
	case 1:
		tail ^= uint32(data[0])
		tail *= 0xcc9e2d51
		tail = (tail << 15) | (tail >> 17)
		tail *= 0x1b873593
		h ^= tail
	}
	h ^= uint32(len(data))
	h ^= h >> 16
	h *= 0x85ebca6b
	h ^= h >> 13
	h *= 0xc2b2ae35
	h ^= h >> 16
	return h
}

// computeHash computes the hash of s's bytes without caching it; Hash caches
// the result through its pointer receiver.
func (s String) computeHash() uint32 {
	return mix32(s.Bytes())
}

// Hash returns the precomputed 32-bit hash of the String, computing it on
// first access.
func (s *String) Hash() uint32 {
	if !s.hashed {
		s.hash = s.computeHash()
		s.hashed = true
	}
	return s.hash
}

// Kind returns the String's classification, computing it on first access.
func (s *String) Kind() Kind {
	if s.kind == KindUnknown {
		if utf8.Valid(s.Bytes()) {
			s.kind = KindUTF8
		} else {
			s.kind = KindBlob
		}
	}
	return s.kind
}

// Equal reports whether two Strings have identical byte content. It
// short-circuits on a hash mismatch when both sides already have a cached
// hash, avoiding a full byte comparison in the common case of distinct
// strings with populated hashes (e.g. map probing after a collision).
func Equal(a, b *String) bool {
	if a.h == b.h && a.offset == b.offset && a.length == b.length {
		return true
	}
	if a.length != b.length {
		return false
	}
	if a.hashed && b.hashed && a.hash != b.hash {
		return false
	}
	return string(a.Bytes()) == string(b.Bytes())
}

// Compare implements lexicographic byte ordering, matching the specification
// of equality-by-content with lexicographic ordering for Strings.
func Compare(a, b String) int {
	ab, bb := a.Bytes(), b.Bytes()
	n := len(ab)
	if len(bb) < n {
		n = len(bb)
	}
	for i := 0; i < n; i++ {
		if ab[i] != bb[i] {
			if ab[i] < bb[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(ab) < len(bb):
		return -1
	case len(ab) > len(bb):
		return 1
	default:
		return 0
	}
}

// Slice returns a new String sharing storage with s, covering
// s.Bytes()[start:start+length]. It holds a reference to the same backing
// header, so the parent buffer is kept alive as long as any slice survives.
func (s String) Slice(start, length int) String {
	if start < 0 || length < 0 || start+length > s.length {
		panic("intern: slice out of range")
	}
	return String{
		h:      s.h,
		offset: s.offset + start,
		length: length,
	}
}
