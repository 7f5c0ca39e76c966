package bser

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"sort"
)

// Encode serializes value into the BSER binary encoding, writing type tags,
// integers, and length prefixes in little-endian byte order whatever the
// host's own byte order is.
func Encode(value Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeInto(&buf, value); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeInto(buf *bytes.Buffer, value Value) error {
	switch v := value.(type) {
	case nil:
		buf.WriteByte(byte(TagNull))
		return nil
	case Skip:
		buf.WriteByte(byte(TagSkip))
		return nil
	case bool:
		if v {
			buf.WriteByte(byte(TagTrue))
		} else {
			buf.WriteByte(byte(TagFalse))
		}
		return nil
	case string:
		return encodeString(buf, []byte(v))
	case []byte:
		return encodeString(buf, v)
	case float32:
		return encodeReal(buf, float64(v))
	case float64:
		return encodeReal(buf, v)
	case int:
		return encodeInt(buf, int64(v))
	case int8:
		return encodeInt(buf, int64(v))
	case int16:
		return encodeInt(buf, int64(v))
	case int32:
		return encodeInt(buf, int64(v))
	case int64:
		return encodeInt(buf, v)
	case uint:
		return encodeInt(buf, int64(v))
	case uint32:
		return encodeInt(buf, int64(v))
	case uint64:
		if v > math.MaxInt64 {
			return fmt.Errorf("bser: uint64 value %d overflows signed 64-bit encoding", v)
		}
		return encodeInt(buf, int64(v))
	case []Value:
		return encodeArray(buf, v)
	case map[string]Value:
		return encodeObject(buf, v)
	case *Template:
		return encodeTemplate(buf, v)
	default:
		return fmt.Errorf("bser: unsupported value type %T", value)
	}
}

func encodeInt(buf *bytes.Buffer, value int64) error {
	tag, size := intSizeFor(value)
	buf.WriteByte(byte(tag))
	scratch := make([]byte, size)
	switch size {
	case 1:
		scratch[0] = byte(int8(value))
	case 2:
		binary.LittleEndian.PutUint16(scratch, uint16(int16(value)))
	case 4:
		binary.LittleEndian.PutUint32(scratch, uint32(int32(value)))
	case 8:
		binary.LittleEndian.PutUint64(scratch, uint64(value))
	}
	buf.Write(scratch)
	return nil
}

func encodeReal(buf *bytes.Buffer, value float64) error {
	buf.WriteByte(byte(TagReal))
	var scratch [8]byte
	binary.LittleEndian.PutUint64(scratch[:], math.Float64bits(value))
	buf.Write(scratch[:])
	return nil
}

func encodeString(buf *bytes.Buffer, data []byte) error {
	buf.WriteByte(byte(TagString))
	if err := encodeInt(buf, int64(len(data))); err != nil {
		return err
	}
	buf.Write(data)
	return nil
}

func encodeArray(buf *bytes.Buffer, values []Value) error {
	buf.WriteByte(byte(TagArray))
	if err := encodeInt(buf, int64(len(values))); err != nil {
		return err
	}
	for _, v := range values {
		if err := encodeInto(buf, v); err != nil {
			return err
		}
	}
	return nil
}

func encodeObject(buf *bytes.Buffer, obj map[string]Value) error {
	buf.WriteByte(byte(TagObject))
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if err := encodeInt(buf, int64(len(keys))); err != nil {
		return err
	}
	for _, k := range keys {
		if err := encodeString(buf, []byte(k)); err != nil {
			return err
		}
		if err := encodeInto(buf, obj[k]); err != nil {
			return err
		}
	}
	return nil
}

// encodeTemplate encodes a homogeneous array of objects as a template array:
// {columns array, row count, row-major values}. A row missing a column, or
// holding an explicit Skip value for it, is encoded with TagSkip; a row with
// a genuine null for that column is encoded with TagNull.
func encodeTemplate(buf *bytes.Buffer, tmpl *Template) error {
	buf.WriteByte(byte(TagTemplate))
	if err := encodeArray(buf, stringsToValues(tmpl.Columns)); err != nil {
		return err
	}
	if err := encodeInt(buf, int64(len(tmpl.Rows))); err != nil {
		return err
	}
	for _, row := range tmpl.Rows {
		for _, col := range tmpl.Columns {
			v, present := row[col]
			if !present {
				buf.WriteByte(byte(TagSkip))
				continue
			}
			if err := encodeInto(buf, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func stringsToValues(ss []string) []Value {
	out := make([]Value, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
