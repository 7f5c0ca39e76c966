package bser

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"encoding/json"
	"io"

	"github.com/pkg/errors"
)

// Encoding identifies the wire encoding negotiated for a connection. The
// choice is sticky per-connection, inferred from the first PDU sent by the
// client.
type Encoding int

const (
	// EncodingBSERv1 uses magic "\x00\x01".
	EncodingBSERv1 Encoding = iota
	// EncodingBSERv2 uses magic "\x00\x02" and adds a capability-bits field
	// between the magic and the length.
	EncodingBSERv2
	// EncodingJSON is newline-delimited JSON, either compact or pretty.
	EncodingJSON
)

var (
	magicBSERv1 = [2]byte{0x00, 0x01}
	magicBSERv2 = [2]byte{0x00, 0x02}
)

// PDU is a single decoded request or response message, tagged with the
// encoding it arrived in (or should be sent with).
type PDU struct {
	Encoding     Encoding
	Value        Value
	CapabilityBits uint32
}

// PeekEncoding inspects the next two bytes available from r without
// consuming more than necessary, and reports which encoding they indicate.
// BSER framing is detected via its two-byte magic; anything else is treated
// as newline-delimited JSON, matching the detection order in the
// specification (peek two bytes; for BSER, read the length prefix).
func PeekEncoding(r *bufio.Reader) (Encoding, error) {
	header, err := r.Peek(2)
	if err != nil {
		return 0, err
	}
	switch {
	case header[0] == magicBSERv1[0] && header[1] == magicBSERv1[1]:
		return EncodingBSERv1, nil
	case header[0] == magicBSERv2[0] && header[1] == magicBSERv2[1]:
		return EncodingBSERv2, nil
	default:
		return EncodingJSON, nil
	}
}

// ReadPDU reads and decodes one complete PDU from r, blocking until a full
// message is available or an unrecoverable framing error occurs.
func ReadPDU(r *bufio.Reader) (*PDU, error) {
	encoding, err := PeekEncoding(r)
	if err != nil {
		return nil, err
	}
	switch encoding {
	case EncodingBSERv1, EncodingBSERv2:
		return readBSERPDU(r, encoding)
	default:
		return readJSONPDU(r)
	}
}

func readBSERPDU(r *bufio.Reader, encoding Encoding) (*PDU, error) {
	header := make([]byte, 2)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}

	var capabilityBits uint32
	if encoding == EncodingBSERv2 {
		var bits [4]byte
		if _, err := io.ReadFull(r, bits[:]); err != nil {
			return nil, err
		}
		capabilityBits = binary.LittleEndian.Uint32(bits[:])
	}

	length, err := readLengthPrefix(r)
	if err != nil {
		return nil, err
	}
	if length < 0 {
		return nil, &DecodeError{Message: "negative PDU length"}
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}

	value, consumed, err := Decode(payload)
	if err != nil {
		return nil, err
	}
	if consumed != len(payload) {
		return nil, &DecodeError{Message: "trailing bytes after decoded PDU payload"}
	}

	return &PDU{Encoding: encoding, Value: value, CapabilityBits: capabilityBits}, nil
}

// readLengthPrefix decodes the BSER-integer-typed length prefix that
// precedes every PDU payload (and every composite value), reading one byte
// at a time from a buffered reader so the underlying stream is never
// over-consumed.
func readLengthPrefix(r *bufio.Reader) (int64, error) {
	tagByte, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	var size int
	switch Tag(tagByte) {
	case TagInt8:
		size = 1
	case TagInt16:
		size = 2
	case TagInt32:
		size = 4
	case TagInt64:
		size = 8
	default:
		return 0, &DecodeError{Message: "expected integer length prefix"}
	}
	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return 0, err
	}
	switch size {
	case 1:
		return int64(int8(payload[0])), nil
	case 2:
		return int64(int16(binary.LittleEndian.Uint16(payload))), nil
	case 4:
		return int64(int32(binary.LittleEndian.Uint32(payload))), nil
	default:
		return int64(binary.LittleEndian.Uint64(payload)), nil
	}
}

func readJSONPDU(r *bufio.Reader) (*PDU, error) {
	line, err := r.ReadBytes('\n')
	if err != nil && len(line) == 0 {
		return nil, err
	}
	line = bytes.TrimRight(line, "\r\n")
	var raw interface{}
	if err := json.Unmarshal(line, &raw); err != nil {
		return nil, errors.Wrap(err, "invalid JSON PDU")
	}
	return &PDU{Encoding: EncodingJSON, Value: jsonToValue(raw)}, nil
}

// FromNative converts a plain Go value tree (as produced by
// encoding/json.Unmarshal, or hand-built for a response) into the bser.Value
// tree command handlers and the query package exchange.
func FromNative(raw interface{}) Value {
	return jsonToValue(raw)
}

// jsonToValue converts the generic interface{} tree produced by
// encoding/json into the bser.Value tree, so that JSON- and BSER-decoded
// PDUs present a uniform shape to command handlers.
func jsonToValue(raw interface{}) Value {
	switch v := raw.(type) {
	case map[string]interface{}:
		out := make(map[string]Value, len(v))
		for k, e := range v {
			out[k] = jsonToValue(e)
		}
		return out
	case []interface{}:
		out := make([]Value, len(v))
		for i, e := range v {
			out[i] = jsonToValue(e)
		}
		return out
	default:
		return v
	}
}

// WritePDU encodes value in the given encoding and writes it to w as a
// complete framed PDU.
func WritePDU(w io.Writer, encoding Encoding, value Value) error {
	switch encoding {
	case EncodingBSERv1, EncodingBSERv2:
		return writeBSERPDU(w, encoding, value)
	default:
		return writeJSONPDU(w, value)
	}
}

func writeBSERPDU(w io.Writer, encoding Encoding, value Value) error {
	payload, err := Encode(value)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if encoding == EncodingBSERv2 {
		buf.Write(magicBSERv2[:])
		var bits [4]byte
		buf.Write(bits[:])
	} else {
		buf.Write(magicBSERv1[:])
	}
	if err := encodeInto(&buf, int64(len(payload))); err != nil {
		return err
	}
	buf.Write(payload)

	_, err = w.Write(buf.Bytes())
	return err
}

func writeJSONPDU(w io.Writer, value Value) error {
	data, err := json.Marshal(valueToJSON(value))
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// ToNative converts a bser.Value tree into plain Go values (nested
// map[string]interface{}/[]interface{}), so that packages like pkg/query
// that have no notion of BSER-specific constructs (Skip, Template) can work
// with command arguments and build responses in ordinary Go values.
func ToNative(value Value) interface{} {
	return valueToJSON(value)
}

// valueToJSON converts a bser.Value tree into plain Go values suitable for
// encoding/json. A Skip or *Template value has no JSON representation and
// should never reach here in practice (templates are an internal BSER
// optimization, not produced by command handlers); Skip degrades to nil and
// a Template degrades to its expanded rows.
func valueToJSON(value Value) interface{} {
	switch v := value.(type) {
	case Skip:
		return nil
	case *Template:
		rows := make([]interface{}, len(v.Rows))
		for i, row := range v.Rows {
			obj := make(map[string]interface{}, len(row))
			for k, val := range row {
				obj[k] = valueToJSON(val)
			}
			rows[i] = obj
		}
		return rows
	case []Value:
		out := make([]interface{}, len(v))
		for i, e := range v {
			out[i] = valueToJSON(e)
		}
		return out
	case map[string]Value:
		out := make(map[string]interface{}, len(v))
		for k, e := range v {
			out[k] = valueToJSON(e)
		}
		return out
	default:
		return v
	}
}
