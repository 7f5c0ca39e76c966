package bser

import (
	"encoding/binary"
	"math"
)

// Decode deserializes a single BSER value from data, returning the value and
// the number of bytes consumed. If data is truncated, it returns a non-nil
// error for which NeedMoreBytes reports the number of additional bytes
// required.
func Decode(data []byte) (Value, int, error) {
	return decodeValue(data, 0)
}

func need(offset, n int) error {
	return &errNeedMoreBytes{Needed: n}
}

func decodeValue(data []byte, offset int) (Value, int, error) {
	if len(data) < 1 {
		return nil, 0, need(offset, 1)
	}
	tag := Tag(data[0])
	switch tag {
	case TagNull:
		return nil, 1, nil
	case TagSkip:
		return Skip{}, 1, nil
	case TagTrue:
		return true, 1, nil
	case TagFalse:
		return false, 1, nil
	case TagInt8, TagInt16, TagInt32, TagInt64:
		return decodeIntTagged(data, offset)
	case TagReal:
		return decodeReal(data, offset)
	case TagString:
		return decodeStringValue(data, offset)
	case TagArray:
		return decodeArray(data, offset)
	case TagObject:
		return decodeObject(data, offset)
	case TagTemplate:
		return decodeTemplate(data, offset)
	default:
		return nil, 0, &DecodeError{Offset: offset, Message: "unknown type tag"}
	}
}

// decodeInt decodes a BSER-encoded integer value (any of the four widths)
// starting at data[0], returning the value and total bytes consumed
// (including the tag byte).
func decodeInt(data []byte, offset int) (int64, int, error) {
	if len(data) < 1 {
		return 0, 0, need(offset, 1)
	}
	tag := Tag(data[0])
	switch tag {
	case TagInt8, TagInt16, TagInt32, TagInt64:
		v, n, err := decodeIntTagged(data, offset)
		if err != nil {
			return 0, 0, err
		}
		return v.(int64), n, nil
	default:
		return 0, 0, &DecodeError{Offset: offset, Message: "expected integer tag"}
	}
}

func decodeIntTagged(data []byte, offset int) (Value, int, error) {
	tag := Tag(data[0])
	var size int
	switch tag {
	case TagInt8:
		size = 1
	case TagInt16:
		size = 2
	case TagInt32:
		size = 4
	case TagInt64:
		size = 8
	}
	if len(data) < 1+size {
		return nil, 0, need(offset, 1+size-len(data))
	}
	payload := data[1 : 1+size]
	var result int64
	switch size {
	case 1:
		result = int64(int8(payload[0]))
	case 2:
		result = int64(int16(binary.LittleEndian.Uint16(payload)))
	case 4:
		result = int64(int32(binary.LittleEndian.Uint32(payload)))
	case 8:
		result = int64(binary.LittleEndian.Uint64(payload))
	}
	return result, 1 + size, nil
}

func decodeReal(data []byte, offset int) (Value, int, error) {
	if len(data) < 9 {
		return nil, 0, need(offset, 9-len(data))
	}
	bits := binary.LittleEndian.Uint64(data[1:9])
	return math.Float64frombits(bits), 9, nil
}

// decodeStringRaw decodes the {int-length, bytes} body following a TagString
// byte and returns the raw bytes along with the total bytes consumed
// (including the tag byte).
func decodeStringRaw(data []byte, offset int) ([]byte, int, error) {
	if len(data) < 1 {
		return nil, 0, need(offset, 1)
	}
	length, lengthBytes, err := decodeInt(data[1:], offset+1)
	if err != nil {
		if n, ok := NeedMoreBytes(err); ok {
			return nil, 0, need(offset, n)
		}
		return nil, 0, err
	}
	if length < 0 {
		return nil, 0, &DecodeError{Offset: offset, Message: "negative string length"}
	}
	total := 1 + lengthBytes + int(length)
	if len(data) < total {
		return nil, 0, need(offset, total-len(data))
	}
	start := 1 + lengthBytes
	return data[start:total], total, nil
}

func decodeStringValue(data []byte, offset int) (Value, int, error) {
	raw, n, err := decodeStringRaw(data, offset)
	if err != nil {
		return nil, 0, err
	}
	out := make([]byte, len(raw))
	copy(out, raw)
	return string(out), n, nil
}

func decodeArray(data []byte, offset int) (Value, int, error) {
	if len(data) < 1 {
		return nil, 0, need(offset, 1)
	}
	count, countBytes, err := decodeInt(data[1:], offset+1)
	if err != nil {
		if n, ok := NeedMoreBytes(err); ok {
			return nil, 0, need(offset, n)
		}
		return nil, 0, err
	}
	if count < 0 {
		return nil, 0, &DecodeError{Offset: offset, Message: "negative array length"}
	}
	consumed := 1 + countBytes
	values := make([]Value, 0, count)
	for i := int64(0); i < count; i++ {
		v, n, err := decodeValue(data[consumed:], offset+consumed)
		if err != nil {
			if need, ok := NeedMoreBytes(err); ok {
				return nil, 0, &errNeedMoreBytes{Needed: need}
			}
			return nil, 0, err
		}
		values = append(values, v)
		consumed += n
	}
	return values, consumed, nil
}

func decodeObject(data []byte, offset int) (Value, int, error) {
	if len(data) < 1 {
		return nil, 0, need(offset, 1)
	}
	count, countBytes, err := decodeInt(data[1:], offset+1)
	if err != nil {
		if n, ok := NeedMoreBytes(err); ok {
			return nil, 0, need(offset, n)
		}
		return nil, 0, err
	}
	if count < 0 {
		return nil, 0, &DecodeError{Offset: offset, Message: "negative object length"}
	}
	consumed := 1 + countBytes
	obj := make(map[string]Value, count)
	for i := int64(0); i < count; i++ {
		key, n, err := decodeStringRaw(data[consumed:], offset+consumed)
		if err != nil {
			if need, ok := NeedMoreBytes(err); ok {
				return nil, 0, &errNeedMoreBytes{Needed: need}
			}
			return nil, 0, err
		}
		consumed += n
		v, n, err := decodeValue(data[consumed:], offset+consumed)
		if err != nil {
			if need, ok := NeedMoreBytes(err); ok {
				return nil, 0, &errNeedMoreBytes{Needed: need}
			}
			return nil, 0, err
		}
		consumed += n
		obj[string(key)] = v
	}
	return obj, consumed, nil
}

// decodeTemplate decodes a template array and expands it back into its
// logical representation: one map[string]Value per row, with TagSkip
// producing an absent key (not a key mapped to nil) so that round-tripping
// distinguishes "skip" from a genuine JSON null.
func decodeTemplate(data []byte, offset int) (Value, int, error) {
	if len(data) < 1 {
		return nil, 0, need(offset, 1)
	}
	columnsValue, n, err := decodeValue(data[1:], offset+1)
	if err != nil {
		if need, ok := NeedMoreBytes(err); ok {
			return nil, 0, &errNeedMoreBytes{Needed: need}
		}
		return nil, 0, err
	}
	consumed := 1 + n
	columnValues, ok := columnsValue.([]Value)
	if !ok {
		return nil, 0, &DecodeError{Offset: offset, Message: "template columns must be an array"}
	}
	columns := make([]string, len(columnValues))
	for i, c := range columnValues {
		s, ok := c.(string)
		if !ok {
			return nil, 0, &DecodeError{Offset: offset, Message: "template column name must be a string"}
		}
		columns[i] = s
	}

	count, countBytes, err := decodeInt(data[consumed:], offset+consumed)
	if err != nil {
		if need, ok := NeedMoreBytes(err); ok {
			return nil, 0, &errNeedMoreBytes{Needed: need}
		}
		return nil, 0, err
	}
	consumed += countBytes
	if count < 0 {
		return nil, 0, &DecodeError{Offset: offset, Message: "negative template row count"}
	}

	rows := make([]map[string]Value, count)
	for r := int64(0); r < count; r++ {
		row := make(map[string]Value, len(columns))
		for _, col := range columns {
			v, n, err := decodeValue(data[consumed:], offset+consumed)
			if err != nil {
				if need, ok := NeedMoreBytes(err); ok {
					return nil, 0, &errNeedMoreBytes{Needed: need}
				}
				return nil, 0, err
			}
			consumed += n
			if _, isSkip := v.(Skip); !isSkip {
				row[col] = v
			}
		}
		rows[r] = row
	}

	return &Template{Columns: columns, Rows: rows}, consumed, nil
}
