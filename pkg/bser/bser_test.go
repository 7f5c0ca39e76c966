package bser

import (
	"reflect"
	"testing"
)

func roundTrip(t *testing.T, value Value) Value {
	t.Helper()
	encoded, err := Encode(value)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	decoded, consumed, err := Decode(encoded)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if consumed != len(encoded) {
		t.Fatalf("Decode consumed %d of %d bytes", consumed, len(encoded))
	}
	return decoded
}

func TestRoundTripScalars(t *testing.T) {
	cases := []Value{
		nil,
		true,
		false,
		int64(0),
		int64(127),
		int64(-128),
		int64(70000),
		int64(1) << 40,
		3.14159,
		"",
		"hello world",
	}
	for _, c := range cases {
		got := roundTrip(t, c)
		if !reflect.DeepEqual(got, c) {
			t.Errorf("round-trip mismatch: input %#v, got %#v", c, got)
		}
	}
}

func TestRoundTripIntegerWidthChosenMinimally(t *testing.T) {
	encoded, err := Encode(int64(5))
	if err != nil {
		t.Fatal(err)
	}
	if Tag(encoded[0]) != TagInt8 {
		t.Errorf("expected small integer to encode as TagInt8, got tag %d", encoded[0])
	}
}

func TestRoundTripArray(t *testing.T) {
	in := []Value{int64(1), "two", 3.0, nil, true}
	got := roundTrip(t, in)
	gotArr, ok := got.([]Value)
	if !ok {
		t.Fatalf("expected []Value, got %T", got)
	}
	if len(gotArr) != len(in) {
		t.Fatalf("length mismatch: %d vs %d", len(gotArr), len(in))
	}
}

func TestRoundTripObject(t *testing.T) {
	in := map[string]Value{
		"name":    "root",
		"version": int64(2),
		"active":  true,
	}
	got := roundTrip(t, in)
	gotObj, ok := got.(map[string]Value)
	if !ok {
		t.Fatalf("expected map[string]Value, got %T", got)
	}
	for k, v := range in {
		if !reflect.DeepEqual(gotObj[k], v) {
			t.Errorf("key %q: got %#v, want %#v", k, gotObj[k], v)
		}
	}
}

func TestRoundTripNestedStructure(t *testing.T) {
	in := map[string]Value{
		"files": []Value{
			map[string]Value{"name": "a.txt", "exists": true},
			map[string]Value{"name": "b.txt", "exists": false},
		},
	}
	got := roundTrip(t, in)
	if !reflect.DeepEqual(got, in) {
		t.Errorf("nested round-trip mismatch: got %#v, want %#v", got, in)
	}
}

func TestRoundTripTemplateSkipVsNull(t *testing.T) {
	tmpl := &Template{
		Columns: []string{"name", "size", "ctime"},
		Rows: []map[string]Value{
			{"name": "a.txt", "size": int64(10), "ctime": nil},
			{"name": "b.txt"},
		},
	}
	encoded, err := Encode(tmpl)
	if err != nil {
		t.Fatal(err)
	}
	decoded, consumed, err := Decode(encoded)
	if err != nil {
		t.Fatal(err)
	}
	if consumed != len(encoded) {
		t.Fatalf("consumed %d of %d bytes", consumed, len(encoded))
	}
	got, ok := decoded.(*Template)
	if !ok {
		t.Fatalf("expected *Template, got %T", decoded)
	}

	row0 := got.Rows[0]
	if _, present := row0["ctime"]; !present {
		t.Error("row 0: expected ctime key present with explicit null")
	} else if row0["ctime"] != nil {
		t.Errorf("row 0: expected ctime == nil, got %#v", row0["ctime"])
	}

	row1 := got.Rows[1]
	if _, present := row1["size"]; present {
		t.Error("row 1: expected size column to be absent (skipped), not present")
	}
	if _, present := row1["ctime"]; present {
		t.Error("row 1: expected ctime column to be absent (skipped), not present")
	}
}

func TestDecodeTruncatedReportsNeedMoreBytes(t *testing.T) {
	encoded, err := Encode("hello")
	if err != nil {
		t.Fatal(err)
	}
	truncated := encoded[:len(encoded)-2]
	_, _, err = Decode(truncated)
	if err == nil {
		t.Fatal("expected error decoding truncated input")
	}
	if _, ok := NeedMoreBytes(err); !ok {
		t.Fatalf("expected NeedMoreBytes to recognize truncation error, got %v", err)
	}
}

func TestDecodeUnknownTagIsDecodeError(t *testing.T) {
	_, _, err := Decode([]byte{0xff})
	if err == nil {
		t.Fatal("expected error for unknown tag")
	}
	if _, ok := err.(*DecodeError); !ok {
		t.Fatalf("expected *DecodeError, got %T", err)
	}
}
