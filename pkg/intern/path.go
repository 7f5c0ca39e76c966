package intern

import (
	"strings"
)

// Basename returns the final path component of s, mirroring path.Base
// semantics but operating on interned storage and returning a slice that
// shares the parent's backing buffer rather than allocating.
func (s String) Basename(sep byte) String {
	trimmed := s.CanonPath(sep)
	b := trimmed.Bytes()
	if idx := lastIndexByte(b, sep); idx >= 0 {
		return trimmed.Slice(idx+1, len(b)-idx-1)
	}
	return trimmed
}

// Dirname returns the path with its final component removed, or the empty
// String if there is no separator.
func (s String) Dirname(sep byte) String {
	trimmed := s.CanonPath(sep)
	b := trimmed.Bytes()
	if idx := lastIndexByte(b, sep); idx >= 0 {
		if idx == 0 {
			return trimmed.Slice(0, 1)
		}
		return trimmed.Slice(0, idx)
	}
	return Empty()
}

// Suffix returns the lowercase file extension (without the leading dot), or
// the empty String if the basename has no extension. Lowercasing allocates a
// fresh String since case folding cannot share storage with the original.
func (s String) Suffix(sep byte) String {
	base := s.Basename(sep)
	b := base.Bytes()
	idx := lastIndexByte(b, '.')
	if idx <= 0 || idx == len(b)-1 {
		return Empty()
	}
	return NewFromString(strings.ToLower(string(b[idx+1:])))
}

// CanonPath trims trailing separators from s, except when doing so would
// leave an empty string where the root separator itself was intended (a
// single leading separator is preserved).
func (s String) CanonPath(sep byte) String {
	b := s.Bytes()
	end := len(b)
	for end > 1 && b[end-1] == sep {
		end--
	}
	if end == len(b) {
		return s
	}
	return s.Slice(0, end)
}

// PathCat joins two interned path components with a separator, allocating a
// fresh backing buffer for the result.
func PathCat(a, b String, sep byte) String {
	ab, bb := a.CanonPath(sep).Bytes(), b.Bytes()
	if len(ab) == 0 {
		return New(bb)
	}
	if len(bb) == 0 {
		return New(ab)
	}
	buf := make([]byte, 0, len(ab)+1+len(bb))
	buf = append(buf, ab...)
	buf = append(buf, sep)
	buf = append(buf, bb...)
	return New(buf)
}

// NormalizeSeparators rewrites every occurrence of any recognized separator
// byte to target, returning a fresh String. It is idempotent: normalizing an
// already-normalized path with the same target is a no-op transformation
// (same bytes, new allocation).
func (s String) NormalizeSeparators(target byte) String {
	b := s.Bytes()
	out := make([]byte, len(b))
	for i, c := range b {
		if c == '/' || c == '\\' {
			out[i] = target
		} else {
			out[i] = c
		}
	}
	return New(out)
}

func lastIndexByte(b []byte, c byte) int {
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] == c {
			return i
		}
	}
	return -1
}
