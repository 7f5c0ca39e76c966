// Package bser implements the binary serialization format used on the
// service's IPC wire: a self-delimiting encoding of the generic JSON value
// space, plus the "template array" and "skip" extensions used to compactly
// encode arrays of homogeneously-shaped objects.
package bser

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
)

// Tag identifies the type of an encoded BSER value. The byte values match the
// wire format exactly and must not be changed.
type Tag byte

const (
	TagArray    Tag = 0x00
	TagObject   Tag = 0x01
	TagString   Tag = 0x02
	TagInt8     Tag = 0x03
	TagInt16    Tag = 0x04
	TagInt32    Tag = 0x05
	TagInt64    Tag = 0x06
	TagReal     Tag = 0x07
	TagTrue     Tag = 0x08
	TagFalse    Tag = 0x09
	TagNull     Tag = 0x0a
	TagTemplate Tag = 0x0b
	TagSkip     Tag = 0x0c
)

// DecodeError indicates a structural violation in an encoded BSER value
// (unknown tag, overflowing length, or similar). Its message is suitable for
// surfacing directly to an IPC client.
type DecodeError struct {
	Offset  int
	Message string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("bser: decode error at offset %d: %s", e.Offset, e.Message)
}

// Skip is a sentinel value that, when present in a Value passed to Encode (or
// inside a template array's rows), is serialized as TagSkip rather than
// TagNull. It is distinct from Go's untyped nil, which always serializes as
// TagNull.
type Skip struct{}

// Value is the generic value space that BSER can encode: nil, bool, any Go
// integer type, float64, string, []byte, []Value, map[string]Value, Skip, or
// a *Template.
type Value interface{}

// Template represents an array of homogeneously-shaped objects, encoded on
// the wire as {column names, row count, row-major field values with a skip
// marker for absent fields}.
type Template struct {
	// Columns lists the field names shared by every row, in column order.
	Columns []string
	// Rows holds one map per logical object; a row may omit a column, in
	// which case it is encoded as Skip (not to be confused with a field whose
	// value is a genuine JSON null).
	Rows []map[string]Value
}

// errNeedMoreBytes is returned internally (and unwrapped by NeedMoreBytes)
// when a decode operation ran out of input before completing a value; the
// caller should fill the buffer with at least the reported number of
// additional bytes and retry.
type errNeedMoreBytes struct {
	Needed int
}

func (e *errNeedMoreBytes) Error() string {
	return fmt.Sprintf("bser: need %d more bytes", e.Needed)
}

// NeedMoreBytes reports whether err indicates truncated input, and if so, how
// many additional bytes (beyond what was supplied) are required before
// decoding can proceed. This lets callers on a streaming transport fill their
// buffer and retry rather than treating truncation as a hard decode error.
func NeedMoreBytes(err error) (int, bool) {
	var nmb *errNeedMoreBytes
	if errors.As(err, &nmb) {
		return nmb.Needed, true
	}
	return 0, false
}

// intSizeFor returns the smallest BSER integer tag that can represent value.
func intSizeFor(value int64) (Tag, int) {
	switch {
	case value >= math.MinInt8 && value <= math.MaxInt8:
		return TagInt8, 1
	case value >= math.MinInt16 && value <= math.MaxInt16:
		return TagInt16, 2
	case value >= math.MinInt32 && value <= math.MaxInt32:
		return TagInt32, 4
	default:
		return TagInt64, 8
	}
}
